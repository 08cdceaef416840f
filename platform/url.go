// Package platform knows which URLs belong to the video platform and how
// to turn loose user input into a fetchable absolute URL.
package platform

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	// ApexDomain is the registrable domain whose host and subdomains are accepted.
	ApexDomain = "tiktok.com"

	// HomeURL is sent as the Referer on page fetches.
	HomeURL = "https://www.tiktok.com/"
)

var reScheme = regexp.MustCompile(`(?i)^https?://`)

// Normalize prepends "https://" unless raw already starts with http:// or
// https:// (any case). It never fails and is idempotent on schemed input.
func Normalize(raw string) string {
	if reScheme.MatchString(raw) {
		return raw
	}
	return "https://" + raw
}

// IsAcceptedHost reports whether raw, after normalisation, points at the
// apex domain or one of its subdomains. Malformed input yields false.
func IsAcceptedHost(raw string) bool {
	u, err := url.Parse(Normalize(raw))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	return host == ApexDomain || strings.HasSuffix(host, "."+ApexDomain)
}
