package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// BrowserOptions controls the headless Chromium used by BrowserEngine.
type BrowserOptions struct {
	Headless   bool
	NoSandbox  bool
	BrowserBin string
	Proxy      string
	MaxPages   int
}

// BrowserEngine renders pages in headless Chromium with stealth evasions.
// Use it for page variants that only embed their metadata after client-side
// rendering. It is safe for concurrent use; concurrency is bounded by the
// page pool size.
type BrowserEngine struct {
	browser  *rod.Browser
	pagePool rod.Pool[rod.Page]
}

// NewBrowserEngine launches a headless browser and initialises the page pool.
func NewBrowserEngine(opts BrowserOptions) (*BrowserEngine, error) {
	l := launcher.New().
		Headless(opts.Headless).
		NoSandbox(opts.NoSandbox)

	if opts.BrowserBin != "" {
		l = l.Bin(opts.BrowserBin)
	}
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser_engine: launch: %w", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := connectOrKill(browser.Connect, l.Kill); err != nil {
		return nil, fmt.Errorf("browser_engine: connect: %w", err)
	}

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 4
	}
	slog.Info("page pool created", "maxPages", maxPages)

	return &BrowserEngine{
		browser:  browser,
		pagePool: rod.NewPagePool(maxPages),
	}, nil
}

func (e *BrowserEngine) Name() string { return "browser" }

// Fetch navigates a pooled tab to req.URL and returns the rendered HTML.
//
// Stealth JS and extra headers are installed before navigation; they only
// apply to navigations that start after they are set.
func (e *BrowserEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	page, err := e.pagePool.Get(func() (*rod.Page, error) {
		return e.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, fmt.Errorf("browser_engine: acquire page: %w", err)
	}
	// Uses the page without the request context so cleanup still runs
	// after a timeout.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		e.pagePool.Put(page)
	}()

	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	headers := make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		if k == "User-Agent" {
			_ = proto.NetworkSetUserAgentOverride{UserAgent: v}.Call(page)
			continue
		}
		headers[k] = v
	}
	if len(headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(headers)}.Call(page)
	}

	p := page.Context(ctx)
	if err := p.Navigate(req.URL); err != nil {
		return nil, err
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	// Status from the navigation timing entry; 0 when the browser hides it.
	statusCode := 0
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}
	if statusCode == 0 {
		statusCode = 200
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, err
	}

	finalURL := req.URL
	if res, err := p.Eval(`() => window.location.href`); err == nil && res.Value.Str() != "" {
		finalURL = res.Value.Str()
	}

	return &FetchResult{
		HTML:       rawHTML,
		StatusCode: statusCode,
		FinalURL:   finalURL,
		EngineName: e.Name(),
	}, nil
}

// Close drains the page pool and kills the browser process.
func (e *BrowserEngine) Close() {
	slog.Info("browser engine shutting down: draining page pool")
	e.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	if err := e.browser.Close(); err != nil {
		slog.Warn("browser close failed", "error", err)
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// connectOrKill runs connect and, if it fails, kills the launched browser
// process so it does not outlive the error.
func connectOrKill(connect func() error, kill func()) error {
	err := connect()
	if err != nil {
		kill()
	}
	return err
}
