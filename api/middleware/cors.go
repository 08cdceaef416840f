package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidstats/config"
)

var (
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	corsHeaders = "Content-Type"
)

// CORS sets the cross-origin headers browsers need to call the stats
// endpoint directly. Preflight requests end here with an empty 200.
//
// Origins not in the allowed list get no CORS headers; a "*" entry allows
// every origin.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	wildcard := slices.Contains(cfg.AllowedOrigins, "*")

	return func(c *gin.Context) {
		if origin := allowedOrigin(c.GetHeader("Origin"), cfg.AllowedOrigins, wildcard); origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or ""
// when the origin is not allowed.
func allowedOrigin(origin string, allowed []string, wildcard bool) string {
	if wildcard {
		return "*"
	}
	if origin != "" && slices.Contains(allowed, origin) {
		return origin
	}
	return ""
}
