package handler

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidstats/config"
	"github.com/use-agent/vidstats/models"
)

// maxTimeoutSeconds keeps the float to Duration conversion in range.
const maxTimeoutSeconds = float64(math.MaxInt64 / int64(time.Second))

const (
	msgMissingQueryURL = "url query parameter is required"
	msgMissingBodyURL  = "url field is required in the JSON body"
	msgInvalidJSON     = "invalid JSON body"

	usageGET  = "GET /api/stats?url=https://www.tiktok.com/@user/video/123456789"
	usagePOST = `POST /api/stats with body: {"url": "https://www.tiktok.com/@user/video/123456789"}`
)

// StatsGetter is the pipeline entry point the stats handlers call.
type StatsGetter interface {
	GetStats(ctx context.Context, rawURL string, timeout time.Duration) *models.StatsResult
}

// GetStats returns a handler for GET /api/stats?url=...&timeout=seconds.
//
// Every outcome is answered with 200; clients read the success field.
func GetStats(sg StatsGetter, cfg config.FetchConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawURL := c.Query("url")
		if strings.TrimSpace(rawURL) == "" {
			c.PureJSON(http.StatusOK, models.InputErrorResponse{
				Success: false,
				Error:   msgMissingQueryURL,
				Usage:   usageGET,
			})
			return
		}

		seconds, _ := strconv.ParseFloat(strings.TrimSpace(c.Query("timeout")), 64)
		result := sg.GetStats(c.Request.Context(), rawURL, clampTimeout(seconds, cfg))
		c.PureJSON(http.StatusOK, result)
	}
}

// PostStats returns a handler for POST /api/stats with a JSON body
// {"url": "...", "timeout": seconds}.
//
// An absent or null url gets the usage hint. An empty string is passed
// through and fails host validation like any other bad URL.
func PostStats(sg StatsGetter, cfg config.FetchConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.StatsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			_ = c.Error(err)
			c.PureJSON(http.StatusOK, models.InputErrorResponse{
				Success: false,
				Error:   msgInvalidJSON,
			})
			return
		}
		if req.URL == nil {
			c.PureJSON(http.StatusOK, models.InputErrorResponse{
				Success: false,
				Error:   msgMissingBodyURL,
				Usage:   usagePOST,
			})
			return
		}

		result := sg.GetStats(c.Request.Context(), *req.URL, clampTimeout(req.TimeoutSeconds(), cfg))
		c.PureJSON(http.StatusOK, result)
	}
}

// Preflight answers OPTIONS requests. The CORS middleware normally ends
// them first; this keeps the route matched so it can.
func Preflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Status(http.StatusOK)
	}
}

// clampTimeout converts a client timeout in seconds to a duration within
// [1s, MaxTimeout]. Zero, negative or NaN means the configured default.
func clampTimeout(seconds float64, cfg config.FetchConfig) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return cfg.DefaultTimeout
	}
	if cfg.MaxTimeout > 0 && seconds >= cfg.MaxTimeout.Seconds() {
		return cfg.MaxTimeout
	}
	if seconds >= maxTimeoutSeconds {
		return cfg.DefaultTimeout
	}
	return max(time.Duration(seconds*float64(time.Second)), time.Second)
}
