package extractor

import (
	"math"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/use-agent/vidstats/models"
)

// Keys of the stats object inside an item, in result field order.
const (
	keyPlayCount    = "playCount"
	keyDiggCount    = "diggCount"
	keyCommentCount = "commentCount"
	keyShareCount   = "shareCount"
)

// readCounters maps an item's stats object onto StatCounters. Absent keys
// count as zero. Any value that cannot be read as a non-negative integer
// fails the whole read.
func readCounters(stats []byte) (models.StatCounters, bool) {
	var out models.StatCounters
	fields := []struct {
		key string
		dst **int64
	}{
		{keyPlayCount, &out.Views},
		{keyDiggCount, &out.Likes},
		{keyCommentCount, &out.Comments},
		{keyShareCount, &out.Shares},
	}
	for _, f := range fields {
		v, t, ok := lookup(stats, f.key)
		if !ok {
			return models.StatCounters{}, false
		}
		n, ok := coerceCount(v, t)
		if !ok {
			return models.StatCounters{}, false
		}
		*f.dst = models.Int64(n)
	}
	return out, true
}

// itemCounters reads the "stats" member of item. A missing member yields
// all-zero counters; a member that is not an object fails.
func itemCounters(item []byte) (models.StatCounters, bool) {
	v, t, ok := lookup(item, "stats")
	switch {
	case !ok:
		return models.StatCounters{}, false
	case t == jsonparser.NotExist:
		return readCounters([]byte("{}"))
	case t != jsonparser.Object:
		return models.StatCounters{}, false
	}
	return readCounters(v)
}

// coerceCount converts a JSON value into a counter. Integers pass through,
// floats truncate toward zero, numeric strings are parsed, booleans are 0
// or 1, and a missing value is 0. Null, objects, arrays, junk strings and
// negative results are rejected.
func coerceCount(v []byte, t jsonparser.ValueType) (int64, bool) {
	switch t {
	case jsonparser.NotExist:
		return 0, true
	case jsonparser.Number:
		if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return nonNegative(n)
		}
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f <= math.MinInt64 {
			return 0, false
		}
		return nonNegative(int64(f))
	case jsonparser.String:
		s, err := jsonparser.ParseString(v)
		if err != nil {
			return 0, false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, false
		}
		return nonNegative(n)
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(v)
		if err != nil {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func nonNegative(n int64) (int64, bool) {
	if n < 0 {
		return 0, false
	}
	return n, true
}
