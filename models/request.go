package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// StatsRequest is the JSON payload for POST /api/stats.
type StatsRequest struct {
	// URL is the video page to read. A missing or null value is rejected
	// before the pipeline runs; an empty string is passed through and
	// fails host validation.
	URL *string `json:"url"`

	// Timeout is the optional fetch timeout in seconds. It is kept raw so
	// that a fractional, quoted or junk value never fails the whole body;
	// read it through TimeoutSeconds.
	Timeout json.RawMessage `json:"timeout,omitempty"`
}

// TimeoutSeconds returns the requested timeout as a number of seconds.
// Numbers and numeric strings are accepted; anything else yields 0, which
// means the server default.
func (r *StatsRequest) TimeoutSeconds() float64 {
	raw := bytes.TrimSpace(r.Timeout)
	if len(raw) == 0 {
		return 0
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = []byte(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0
	}
	return f
}
