package engine

import (
	"context"
	"fmt"
	"time"
)

// Engine is the interface that all fetch engines must implement.
//
// Fetch returns a result for any response the server produced, whatever
// its status code; judging the status is the caller's job. An error means
// no response was obtained (DNS, TLS, timeout, browser failure).
type Engine interface {
	// Name returns the engine identifier ("http" or "browser").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of an engine fetch.
type FetchResult struct {
	HTML       string
	StatusCode int
	FinalURL   string
	EngineName string
}

// OK reports whether the status is in the accepted range. Redirects have
// already been followed by the engine, so 2xx and 3xx both count.
func (r *FetchResult) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 400
}

// Engine names accepted by New.
const (
	KindHTTP    = "http"
	KindBrowser = "browser"
)

// New builds the engine named by kind. The returned close function
// releases engine resources and is never nil.
func New(kind, proxy string, browser BrowserOptions) (Engine, func(), error) {
	switch kind {
	case KindBrowser:
		if browser.Proxy == "" {
			browser.Proxy = proxy
		}
		e, err := NewBrowserEngine(browser)
		if err != nil {
			return nil, nil, err
		}
		return e, e.Close, nil
	case KindHTTP, "":
		e, err := NewHTTPEngine(proxy)
		if err != nil {
			return nil, nil, err
		}
		return e, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("engine: unknown kind %q", kind)
	}
}
