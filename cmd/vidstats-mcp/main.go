package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/vidstats/config"
	"github.com/use-agent/vidstats/engine"
	"github.com/use-agent/vidstats/models"
	"github.com/use-agent/vidstats/stats"
)

// statsGetter is the slice of the pipeline the tool needs.
type statsGetter interface {
	GetStats(ctx context.Context, rawURL string, timeout time.Duration) *models.StatsResult
}

func main() {
	cfg := config.Load()

	// stdout carries the MCP protocol; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	eng, closeEngine, err := engine.New(cfg.Fetch.Engine, cfg.Fetch.Proxy, engine.BrowserOptions{
		Headless:   cfg.Browser.Headless,
		NoSandbox:  cfg.Browser.NoSandbox,
		BrowserBin: cfg.Browser.BrowserBin,
		MaxPages:   cfg.Browser.MaxPages,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise fetch engine: %v\n", err)
		os.Exit(1)
	}
	defer closeEngine()

	x := stats.New(eng, stats.WithTimeout(cfg.Fetch.DefaultTimeout))

	s := server.NewMCPServer(
		"vidstats",
		"1.0.0",
		server.WithToolCapabilities(false),
	)
	s.AddTool(newStatsTool(), handleGetVideoStats(x, cfg.Fetch.MaxTimeout))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		closeEngine()
		os.Exit(1)
	}
}

func newStatsTool() mcp.Tool {
	return mcp.NewTool("get_video_stats",
		mcp.WithDescription("Read public engagement counters (views, likes, comments, shares) plus title and author for a TikTok video page. Counters the page does not expose are null."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The TikTok video URL, e.g. https://www.tiktok.com/@user/video/123456789"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Fetch timeout in seconds (default 15)"),
		),
	)
}

func handleGetVideoStats(sg statsGetter, maxTimeout time.Duration) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var timeout time.Duration
		if secs := request.GetInt("timeout", 0); secs > 0 {
			timeout = min(time.Duration(secs)*time.Second, maxTimeout)
		}

		result := sg.GetStats(ctx, url, timeout)
		if !result.Success {
			msg := "lookup failed"
			if result.Error != nil {
				msg = *result.Error
			}
			return mcp.NewToolResultError(msg), nil
		}

		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
		}
		return mcp.NewToolResultText(strings.TrimSuffix(buf.String(), "\n")), nil
	}
}
