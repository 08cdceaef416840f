package models

import (
	"fmt"
	"strconv"
)

// Error codes used for logging and metric labels. They never reach the
// JSON response; callers only see the human-readable message.
const (
	ErrCodeInvalidURL   = "INVALID_URL"
	ErrCodeHTTPStatus   = "HTTP_STATUS"
	ErrCodeFetchTimeout = "FETCH_TIMEOUT"
	ErrCodeFetchFailed  = "FETCH_FAILED"
	ErrCodeNoMetrics    = "NO_METRICS"
)

// Caller-visible messages for the fixed error classes.
const (
	MsgInvalidURL = "invalid platform URL"
	MsgTimeout    = "request timed out"
	MsgNoMetrics  = "could not extract metrics"
)

// StatsError is the internal error type produced by the stats pipeline.
// It implements the error interface and supports error wrapping via Unwrap.
type StatsError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *StatsError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StatsError) Unwrap() error {
	return e.Err
}

// NewStatsError creates a new StatsError.
func NewStatsError(code, message string, err error) *StatsError {
	return &StatsError{Code: code, Message: message, Err: err}
}

// HTTPStatusError builds the "HTTP <code>" error for a non-OK fetch.
func HTTPStatusError(status int) *StatsError {
	return &StatsError{Code: ErrCodeHTTPStatus, Message: "HTTP " + strconv.Itoa(status)}
}
