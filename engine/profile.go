package engine

import "maps"

// RequestProfile is the fixed set of browser-like headers sent with every
// page fetch. Build it once at startup and pass it by value.
type RequestProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Referer        string
}

// DefaultUserAgent is a current desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// NewRequestProfile returns the desktop Chrome profile with the given Referer.
func NewRequestProfile(referer string) RequestProfile {
	return RequestProfile{
		UserAgent:      DefaultUserAgent,
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "es-ES,es;q=0.9,en;q=0.8",
		Referer:        referer,
	}
}

// Headers returns a fresh header map; callers may modify it freely.
func (p RequestProfile) Headers() map[string]string {
	h := map[string]string{
		"User-Agent":      p.UserAgent,
		"Accept":          p.Accept,
		"Accept-Language": p.AcceptLanguage,
		"Referer":         p.Referer,
	}
	maps.DeleteFunc(h, func(_, v string) bool { return v == "" })
	return h
}
