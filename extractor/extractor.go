// Package extractor recovers engagement counters from a video page's HTML.
//
// Each strategy is a pure function of the HTML string. A strategy either
// returns a populated Partial or reports that it found nothing; it never
// returns an error. First runs strategies in order and keeps the first hit.
package extractor

import (
	"log/slog"

	"github.com/use-agent/vidstats/models"
)

// Strategy names, used in logs and metric labels.
const (
	NameSIGIState = "sigi_state"
	NameNextData  = "next_data"
	NamePatterns  = "patterns"
)

// Partial is what one strategy recovered from one document.
type Partial struct {
	Title      *string
	AuthorName *string
	Stats      models.StatCounters

	// Strategy is the name of the strategy that produced this result.
	Strategy string
}

// Func is a single extraction method.
type Func func(html string) (Partial, bool)

// Strategy pairs an extraction method with its name.
type Strategy struct {
	Name string
	Run  Func
}

// Default is the production order: embedded global state, then the
// framework data blob, then the raw pattern scan.
var Default = []Strategy{
	{Name: NameSIGIState, Run: FromSIGIState},
	{Name: NameNextData, Run: FromNextData},
	{Name: NamePatterns, Run: FromPatterns},
}

// First runs strategies in order against html and returns the first
// result reported as found. Later strategies are not evaluated.
func First(html string, strategies []Strategy) (Partial, bool) {
	for _, s := range strategies {
		p, ok := s.Run(html)
		if !ok {
			slog.Debug("extraction strategy found nothing", "strategy", s.Name)
			continue
		}
		p.Strategy = s.Name
		return p, true
	}
	return Partial{}, false
}
