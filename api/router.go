package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/vidstats/api/handler"
	"github.com/use-agent/vidstats/api/middleware"
	"github.com/use-agent/vidstats/config"
	"github.com/use-agent/vidstats/metrics"
	"github.com/use-agent/vidstats/stats"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	Stats:   CORS
//
// The stats endpoint is mounted at /api/stats and /api/v1/stats. A nil
// metrics disables the metrics route.
func NewRouter(x *stats.Extractor, cfg *config.Config, m *metrics.Metrics, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	cors := middleware.CORS(cfg.CORS)
	for _, prefix := range []string{"/api", "/api/v1"} {
		g := r.Group(prefix, cors)
		g.GET("/stats", handler.GetStats(x, cfg.Fetch))
		g.POST("/stats", handler.PostStats(x, cfg.Fetch))
		g.OPTIONS("/stats", handler.Preflight())
	}

	r.GET("/api/v1/health", handler.Health(x.EngineName(), startTime))

	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	return r
}
