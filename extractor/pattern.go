package extractor

import (
	"regexp"
	"strconv"

	"github.com/use-agent/vidstats/models"
)

// counterPattern matches `"<key>": <digits>` anywhere in the document.
//
// The scan is unanchored, so a recommendation widget or any other embedded
// blob that reuses these key names can match first. That is the accepted
// behaviour of this last-resort strategy.
func counterPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`"` + regexp.QuoteMeta(key) + `"\s*:\s*(\d+)`)
}

var (
	rePlayCount    = counterPattern(keyPlayCount)
	reDiggCount    = counterPattern(keyDiggCount)
	reCommentCount = counterPattern(keyCommentCount)
	reShareCount   = counterPattern(keyShareCount)
)

// FromPatterns scans the raw HTML for the four counter keys and keeps the
// first match of each. A counter whose digits overflow int64 stays null
// without affecting the others. It never recovers a title or author. It
// reports found only when at least one counter was read.
func FromPatterns(html string) (Partial, bool) {
	var stats models.StatCounters
	fields := []struct {
		re  *regexp.Regexp
		dst **int64
	}{
		{rePlayCount, &stats.Views},
		{reDiggCount, &stats.Likes},
		{reCommentCount, &stats.Comments},
		{reShareCount, &stats.Shares},
	}
	for _, f := range fields {
		m := f.re.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		*f.dst = models.Int64(n)
	}
	if !stats.Any() {
		return Partial{}, false
	}
	return Partial{Stats: stats}, true
}
