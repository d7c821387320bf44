package service

import (
	"strconv"
	"strings"
	"time"
)

// Forecast ingestion is pure normalization. Providers publish values as
// formatted strings and may go stale without signaling it, so every parse
// failure degrades to "no contribution" instead of an error.

// NormalizeProduction converts a raw production payload to kWh. Unparsable
// or negative values become 0.
func NormalizeProduction(raw string) float64 {
	s := strings.TrimSpace(raw)
	// tolerate unit suffixes like "12.3 kWh"
	if i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-' && r != '+'
	}); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// NormalizeSunrise parses a sunrise payload, either RFC 3339 or a bare
// "HH:MM" / "HH:MM:SS" clock time pinned onto ref's calendar day. Returns
// nil when no time can be extracted; downstream treats nil as "no sunrise
// adjustment".
func NormalizeSunrise(raw string, ref time.Time) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.In(ref.Location())
		return &t
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			pinned := time.Date(ref.Year(), ref.Month(), ref.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, ref.Location())
			return &pinned
		}
	}
	return nil
}
