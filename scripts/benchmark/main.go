package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/vidstats/models"
)

// CLI flags
var (
	apiURL = flag.String("api-url", "http://localhost:8080", "vidstats API base URL")
	urls   = flag.String("urls", "", "Comma-separated video URLs to look up (required)")
	runs   = flag.Int("runs", 3, "Number of runs per URL for averaging")
	output = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// --- Benchmark result types ---

type runResult struct {
	Run       int    `json:"run"`
	LatencyMs int64  `json:"latency_ms"`
	Success   bool   `json:"success"`
	Counters  int    `json:"counters"`
	HasTitle  bool   `json:"has_title"`
	HasAuthor bool   `json:"has_author"`
	Error     string `json:"error,omitempty"`
}

type urlResult struct {
	URL          string      `json:"url"`
	Runs         []runResult `json:"runs"`
	AvgLatencyMs float64     `json:"avg_latency_ms"`
	SuccessRate  float64     `json:"success_rate"`
}

type benchmarkReport struct {
	Timestamp  string      `json:"timestamp"`
	APIURL     string      `json:"api_url"`
	RunsPerURL int         `json:"runs_per_url"`
	Results    []urlResult `json:"results"`
}

func main() {
	flag.Parse()

	targets := splitURLs(*urls)
	if len(targets) == 0 {
		fmt.Fprintln(os.Stderr, "Error: -urls is required")
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println("=== vidstats Benchmark ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure vidstats is running (e.g. make run)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	client := &http.Client{Timeout: 90 * time.Second}
	for _, u := range targets {
		fmt.Printf("Benchmarking %s ...\n", u)
		ur := urlResult{URL: u}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkURL(client, u, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d/4 counters\n", rr.LatencyMs, rr.Counters)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			ur.Runs = append(ur.Runs, rr)
		}

		ur.AvgLatencyMs, ur.SuccessRate = summarize(ur.Runs)
		report.Results = append(report.Results, ur)
		fmt.Println()
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func splitURLs(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkURL(client *http.Client, url string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(map[string]any{"url": url, "timeout": 60})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/stats", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr models.StatsResult
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}
	rr.LatencyMs = time.Since(start).Milliseconds()

	rr.Success = sr.Success
	rr.HasTitle = sr.Title != nil
	rr.HasAuthor = sr.AuthorName != nil
	for _, c := range []*int64{sr.Stats.Views, sr.Stats.Likes, sr.Stats.Comments, sr.Stats.Shares} {
		if c != nil {
			rr.Counters++
		}
	}
	if sr.Error != nil {
		rr.Error = *sr.Error
	}
	return rr
}

// summarize returns the mean latency of successful runs and the success rate.
func summarize(runs []runResult) (float64, float64) {
	if len(runs) == 0 {
		return 0, 0
	}
	var ok int
	var total float64
	for _, r := range runs {
		if !r.Success {
			continue
		}
		ok++
		total += float64(r.LatencyMs)
	}
	rate := float64(ok) / float64(len(runs))
	if ok == 0 {
		return 0, rate
	}
	return total / float64(ok), rate
}

func printTable(results []urlResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tAvg Latency\tSuccess\n")
	fmt.Fprintf(w, "───\t───────────\t───────\n")

	for _, r := range results {
		if r.SuccessRate == 0 {
			fmt.Fprintf(w, "%s\tFAILED\t0%%\n", truncateURL(r.URL, 60))
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%.0f%%\n", truncateURL(r.URL, 60), int64(r.AvgLatencyMs), r.SuccessRate*100)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
