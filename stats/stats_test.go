package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/vidstats/engine"
	"github.com/use-agent/vidstats/extractor"
	"github.com/use-agent/vidstats/metrics"
	"github.com/use-agent/vidstats/models"
)

// fakeEngine records every fetch and answers with a canned result.
type fakeEngine struct {
	mu    sync.Mutex
	calls int
	last  *engine.FetchRequest

	html   string
	status int
	err    error
	block  bool
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Fetch(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	f.mu.Unlock()

	if f.block {
		if req.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, req.Timeout)
			defer cancel()
		}
		<-ctx.Done()
		return nil, &url.Error{Op: "Get", URL: req.URL, Err: ctx.Err()}
	}
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = 200
	}
	return &engine.FetchResult{HTML: f.html, StatusCode: status, FinalURL: req.URL, EngineName: "fake"}, nil
}

func (f *fakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

const videoURL = "https://www.tiktok.com/@chef.ana/video/7234567890123456789"

const sigiPage = `<html><head></head><body>
<script id="SIGI_STATE" type="application/json">{"ItemModule":{"7234567890123456789":{
"desc":"Receta rápida de paella 🥘","author":"chef.ana",
"stats":{"playCount":1000000,"diggCount":50000,"commentCount":200,"shareCount":30}}}}</script>
</body></html>`

const nextDataPage = `<html><body>
<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"itemInfo":{"itemStruct":{
"desc":"next video","author":{"uniqueId":"","nickname":"Nick"},
"stats":{"playCount":"900","diggCount":80,"commentCount":7,"shareCount":6}}}}}}</script>
</body></html>`

const patternPage = `<html><body><script>window.x = {"diggCount": 42, "commentCount":7};</script></body></html>`

func TestGetStats_SIGIState(t *testing.T) {
	fe := &fakeEngine{html: sigiPage}
	res := New(fe).GetStats(context.Background(), videoURL, 0)

	require.True(t, res.Success, "error: %v", res.Error)
	assert.Equal(t, videoURL, res.URL)
	assert.Nil(t, res.Error)
	require.NotNil(t, res.Title)
	assert.Equal(t, "Receta rápida de paella 🥘", *res.Title)
	require.NotNil(t, res.AuthorName)
	assert.Equal(t, "chef.ana", *res.AuthorName)
	assert.Equal(t, int64(1000000), *res.Stats.Views)
	assert.Equal(t, int64(50000), *res.Stats.Likes)
	assert.Equal(t, int64(200), *res.Stats.Comments)
	assert.Equal(t, int64(30), *res.Stats.Shares)
	assert.Equal(t, 1, fe.Calls())
}

func TestGetStats_NextDataFallsBackToNickname(t *testing.T) {
	res := New(&fakeEngine{html: nextDataPage}).GetStats(context.Background(), videoURL, 0)

	require.True(t, res.Success)
	require.NotNil(t, res.AuthorName)
	assert.Equal(t, "Nick", *res.AuthorName)
	assert.Equal(t, int64(900), *res.Stats.Views)
}

func TestGetStats_PatternFallback(t *testing.T) {
	res := New(&fakeEngine{html: patternPage}).GetStats(context.Background(), videoURL, 0)

	require.True(t, res.Success)
	assert.Nil(t, res.Title)
	assert.Nil(t, res.AuthorName)
	assert.Nil(t, res.Stats.Views)
	assert.Equal(t, int64(42), *res.Stats.Likes)
	assert.Equal(t, int64(7), *res.Stats.Comments)
	assert.Nil(t, res.Stats.Shares)
}

func TestGetStats_RejectsForeignHostWithoutFetching(t *testing.T) {
	for _, raw := range []string{
		"https://example.com/video/1",
		"https://nottiktok.com/@a/video/1",
		"https://tiktok.com.evil.net/@a/video/1",
		"",
		"not a url at all",
	} {
		fe := &fakeEngine{html: sigiPage}
		res := New(fe).GetStats(context.Background(), raw, 0)

		assert.False(t, res.Success, raw)
		require.NotNil(t, res.Error, raw)
		assert.Equal(t, models.MsgInvalidURL, *res.Error, raw)
		assert.Equal(t, raw, res.URL)
		assert.False(t, res.Stats.Any())
		assert.Zero(t, fe.Calls(), raw)
	}
}

func TestGetStats_NormalisesSchemeButEchoesInput(t *testing.T) {
	fe := &fakeEngine{html: sigiPage}
	raw := "www.tiktok.com/@chef.ana/video/7234567890123456789"
	res := New(fe).GetStats(context.Background(), raw, 0)

	require.True(t, res.Success)
	assert.Equal(t, raw, res.URL)
	require.NotNil(t, fe.last)
	assert.Equal(t, "https://"+raw, fe.last.URL)
}

func TestGetStats_AcceptsSubdomains(t *testing.T) {
	fe := &fakeEngine{html: sigiPage}
	res := New(fe).GetStats(context.Background(), "https://vm.tiktok.com/ZMabc123/", 0)
	assert.True(t, res.Success)
	assert.Equal(t, 1, fe.Calls())
}

func TestGetStats_SendsProfileHeadersAndDefaultTimeout(t *testing.T) {
	fe := &fakeEngine{html: sigiPage}
	New(fe).GetStats(context.Background(), videoURL, 0)

	require.NotNil(t, fe.last)
	assert.Equal(t, DefaultTimeout, fe.last.Timeout)
	assert.Equal(t, engine.DefaultUserAgent, fe.last.Headers["User-Agent"])
	assert.Equal(t, "https://www.tiktok.com/", fe.last.Headers["Referer"])
}

func TestGetStats_TimeoutOverrides(t *testing.T) {
	fe := &fakeEngine{html: sigiPage}
	x := New(fe, WithTimeout(3*time.Second))

	x.GetStats(context.Background(), videoURL, 0)
	assert.Equal(t, 3*time.Second, fe.last.Timeout)

	x.GetStats(context.Background(), videoURL, 500*time.Millisecond)
	assert.Equal(t, 500*time.Millisecond, fe.last.Timeout)
}

func TestGetStats_HTTPStatus(t *testing.T) {
	for _, status := range []int{403, 404, 500} {
		res := New(&fakeEngine{html: sigiPage, status: status}).GetStats(context.Background(), videoURL, 0)
		assert.False(t, res.Success)
		require.NotNil(t, res.Error)
		assert.Equal(t, "HTTP "+strconv.Itoa(status), *res.Error)
		assert.False(t, res.Stats.Any())
		assert.Nil(t, res.Title)
	}
}

func TestGetStats_Timeout(t *testing.T) {
	fe := &fakeEngine{block: true}
	start := time.Now()
	res := New(fe).GetStats(context.Background(), videoURL, 50*time.Millisecond)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, models.MsgTimeout, *res.Error)
}

func TestGetStats_NetTimeoutError(t *testing.T) {
	fe := &fakeEngine{err: &url.Error{Op: "Get", URL: videoURL, Err: timeoutErr{}}}
	res := New(fe).GetStats(context.Background(), videoURL, 0)
	require.NotNil(t, res.Error)
	assert.Equal(t, models.MsgTimeout, *res.Error)
}

func TestGetStats_TransportErrorIsDistinctFromTimeout(t *testing.T) {
	fe := &fakeEngine{err: errors.New("dial tcp: lookup www.tiktok.com: no such host")}
	res := New(fe).GetStats(context.Background(), videoURL, 0)

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "dial tcp: lookup www.tiktok.com: no such host", *res.Error)
	assert.NotEqual(t, models.MsgTimeout, *res.Error)
}

func TestGetStats_NoMetrics(t *testing.T) {
	for name, html := range map[string]string{
		"empty":        "",
		"plain":        "<html><body>nothing here</body></html>",
		"empty module": `<script id="SIGI_STATE">{"ItemModule":{}}</script>`,
	} {
		t.Run(name, func(t *testing.T) {
			res := New(&fakeEngine{html: html}).GetStats(context.Background(), videoURL, 0)
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Equal(t, models.MsgNoMetrics, *res.Error)
			assert.False(t, res.Stats.Any())
		})
	}
}

func TestGetStats_RecoversStrategyPanic(t *testing.T) {
	boom := extractor.Strategy{Name: "boom", Run: func(string) (extractor.Partial, bool) {
		panic("unexpected shape")
	}}
	x := New(&fakeEngine{html: sigiPage}, WithStrategies([]extractor.Strategy{boom}))

	var res *models.StatsResult
	require.NotPanics(t, func() {
		res = x.GetStats(context.Background(), videoURL, 0)
	})
	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Contains(t, *res.Error, "unexpected shape")
}

func TestGetStats_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	New(&fakeEngine{html: sigiPage}, WithMetrics(m)).GetStats(context.Background(), videoURL, 0)
	New(&fakeEngine{html: patternPage}, WithMetrics(m)).GetStats(context.Background(), videoURL, 0)
	New(&fakeEngine{html: ""}, WithMetrics(m)).GetStats(context.Background(), videoURL, 0)
	New(&fakeEngine{}, WithMetrics(m)).GetStats(context.Background(), "https://example.com/", 0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Results.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Results.WithLabelValues(models.ErrCodeNoMetrics)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Results.WithLabelValues(models.ErrCodeInvalidURL)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StrategyWins.WithLabelValues(extractor.NameSIGIState)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StrategyWins.WithLabelValues(extractor.NamePatterns)), 0)
}

func TestGetStats_ConcurrentCalls(t *testing.T) {
	fe := &fakeEngine{html: sigiPage}
	x := New(fe)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, x.GetStats(context.Background(), videoURL, 0).Success)
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, fe.Calls())
}

func TestStatsResult_JSONShape(t *testing.T) {
	failure := New(&fakeEngine{}).GetStats(context.Background(), "https://example.com/x", 0)
	raw, err := json.Marshal(failure)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"url": "https://example.com/x",
		"stats": {"views": null, "likes": null, "comments": null, "shares": null},
		"error": "invalid platform URL"
	}`, string(raw))

	success := New(&fakeEngine{html: patternPage}).GetStats(context.Background(), videoURL, 0)
	raw, err = json.Marshal(success)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": true,
		"url": "`+videoURL+`",
		"title": null,
		"author_name": null,
		"stats": {"views": null, "likes": 42, "comments": 7, "shares": null}
	}`, string(raw))

	var back models.StatsResult
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Nil(t, back.Stats.Views)
	assert.Equal(t, int64(42), *back.Stats.Likes)
}

func TestStatsResult_StructuredWinWithoutMetadataWritesNulls(t *testing.T) {
	page := `<script id="SIGI_STATE" type="application/json">{"ItemModule":{"1":{"stats":{"playCount":5}}}}</script>`
	res := New(&fakeEngine{html: page}).GetStats(context.Background(), videoURL, 0)
	require.True(t, res.Success)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": true,
		"url": "`+videoURL+`",
		"title": null,
		"author_name": null,
		"stats": {"views": 5, "likes": 0, "comments": 0, "shares": 0}
	}`, string(raw))
}
