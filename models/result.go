package models

import (
	"bytes"
	"encoding/json"
)

// StatCounters holds the engagement counters recovered for a video.
// Each counter is independently nullable: a strategy may find some
// counters but not others. All four keys are always serialised.
type StatCounters struct {
	Views    *int64 `json:"views"`
	Likes    *int64 `json:"likes"`
	Comments *int64 `json:"comments"`
	Shares   *int64 `json:"shares"`
}

// Any reports whether at least one counter is set.
func (s StatCounters) Any() bool {
	return s.Views != nil || s.Likes != nil || s.Comments != nil || s.Shares != nil
}

// StatsResult is the single response shape of the stats pipeline.
//
// Success results carry stats with at least one non-nil counter and no
// Error. Failure results carry an Error and all-nil stats. URL is always
// the caller's original input, never the normalised form.
type StatsResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`

	// Title and AuthorName are written on success only, as null when the
	// winning strategy did not recover them. The pattern fallback never does.
	Title      *string `json:"title"`
	AuthorName *string `json:"author_name"`

	Stats StatCounters `json:"stats"`

	// Error is populated only when Success is false.
	Error *string `json:"error,omitempty"`
}

// NewFailure builds a failure result for rawURL with all-nil stats.
func NewFailure(rawURL, message string) *StatsResult {
	return &StatsResult{
		Success: false,
		URL:     rawURL,
		Error:   &message,
	}
}

// NewSuccess builds a success result for rawURL.
func NewSuccess(rawURL string, title, authorName *string, stats StatCounters) *StatsResult {
	return &StatsResult{
		Success:    true,
		URL:        rawURL,
		Title:      title,
		AuthorName: authorName,
		Stats:      stats,
	}
}

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }

type successJSON struct {
	Success    bool         `json:"success"`
	URL        string       `json:"url"`
	Title      *string      `json:"title"`
	AuthorName *string      `json:"author_name"`
	Stats      StatCounters `json:"stats"`
}

type failureJSON struct {
	Success bool         `json:"success"`
	URL     string       `json:"url"`
	Stats   StatCounters `json:"stats"`
	Error   *string      `json:"error"`
}

// MarshalJSON writes title and author_name (possibly null) on success and
// error on failure. HTML characters are left unescaped so callers that
// disable escaping get literal text.
func (r StatsResult) MarshalJSON() ([]byte, error) {
	if r.Success {
		return encodeUnescaped(successJSON{
			Success:    true,
			URL:        r.URL,
			Title:      r.Title,
			AuthorName: r.AuthorName,
			Stats:      r.Stats,
		})
	}
	return encodeUnescaped(failureJSON{
		Success: false,
		URL:     r.URL,
		Stats:   r.Stats,
		Error:   r.Error,
	})
}

func encodeUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
