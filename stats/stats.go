// Package stats is the public entry point of the pipeline: validate the
// URL, fetch the page once, run the extraction strategies, and fold every
// outcome into a models.StatsResult.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/use-agent/vidstats/engine"
	"github.com/use-agent/vidstats/extractor"
	"github.com/use-agent/vidstats/metrics"
	"github.com/use-agent/vidstats/models"
	"github.com/use-agent/vidstats/platform"
)

// DefaultTimeout bounds a page fetch when the caller does not pick one.
const DefaultTimeout = 15 * time.Second

// Extractor runs the stats pipeline. It holds no per-call state and is
// safe for concurrent use as long as its Engine is.
type Extractor struct {
	engine     engine.Engine
	profile    engine.RequestProfile
	timeout    time.Duration
	strategies []extractor.Strategy
	metrics    *metrics.Metrics
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout sets the fetch timeout used when GetStats receives zero.
func WithTimeout(d time.Duration) Option {
	return func(x *Extractor) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithProfile overrides the request headers profile.
func WithProfile(p engine.RequestProfile) Option {
	return func(x *Extractor) { x.profile = p }
}

// WithStrategies overrides the strategy order.
func WithStrategies(s []extractor.Strategy) Option {
	return func(x *Extractor) { x.strategies = s }
}

// WithMetrics records outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(x *Extractor) { x.metrics = m }
}

// New creates an Extractor that fetches through eng.
func New(eng engine.Engine, opts ...Option) *Extractor {
	x := &Extractor{
		engine:     eng,
		profile:    engine.NewRequestProfile(platform.HomeURL),
		timeout:    DefaultTimeout,
		strategies: extractor.Default,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// EngineName reports which fetch engine this extractor uses.
func (x *Extractor) EngineName() string { return x.engine.Name() }

// GetStats looks up the engagement counters for rawURL. A zero timeout
// uses the extractor default. It always returns a complete result and
// never panics; failures are described by the result's Error.
func (x *Extractor) GetStats(ctx context.Context, rawURL string, timeout time.Duration) (result *models.StatsResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("stats pipeline panic", "url", rawURL, "panic", r)
			x.metrics.RecordResult(models.ErrCodeFetchFailed)
			result = models.NewFailure(rawURL, fmt.Sprintf("internal error: %v", r))
		}
	}()

	res, err := x.getStats(ctx, rawURL, timeout)
	if err != nil {
		slog.Warn("stats lookup failed", "url", rawURL, "code", err.Code, "error", err)
		x.metrics.RecordResult(err.Code)
		return models.NewFailure(rawURL, err.Message)
	}
	x.metrics.RecordResult("ok")
	return res
}

func (x *Extractor) getStats(ctx context.Context, rawURL string, timeout time.Duration) (*models.StatsResult, *models.StatsError) {
	target := platform.Normalize(rawURL)
	if !platform.IsAcceptedHost(target) {
		return nil, models.NewStatsError(models.ErrCodeInvalidURL, models.MsgInvalidURL, nil)
	}

	if timeout <= 0 {
		timeout = x.timeout
	}

	start := time.Now()
	page, err := x.engine.Fetch(ctx, &engine.FetchRequest{
		URL:     target,
		Headers: x.profile.Headers(),
		Timeout: timeout,
	})
	x.metrics.ObserveFetch(x.engine.Name(), time.Since(start))
	if err != nil {
		return nil, classifyFetchError(err)
	}
	if !page.OK() {
		return nil, models.HTTPStatusError(page.StatusCode)
	}

	p, ok := extractor.First(page.HTML, x.strategies)
	if !ok || !p.Stats.Any() {
		return nil, models.NewStatsError(models.ErrCodeNoMetrics, models.MsgNoMetrics, nil)
	}

	x.metrics.RecordStrategy(p.Strategy)
	slog.Info("stats extracted", "url", rawURL, "strategy", p.Strategy, "engine", page.EngineName)
	return models.NewSuccess(rawURL, p.Title, p.AuthorName, p.Stats), nil
}

// classifyFetchError separates timeouts from every other transport failure.
func classifyFetchError(err error) *models.StatsError {
	if isTimeout(err) {
		return models.NewStatsError(models.ErrCodeFetchTimeout, models.MsgTimeout, err)
	}
	return models.NewStatsError(models.ErrCodeFetchFailed, err.Error(), err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
