package quality

import (
	"strings"
	"time"

	"github.com/deepresearch/core/search"
)

// FreshnessSummary buckets a batch of search results by publish-date age,
// matching summarize_freshness's field set exactly.
type FreshnessSummary struct {
	TotalResults    int
	KnownCount      int
	UnknownCount    int
	Fresh7Count     int
	Fresh30Count    int
	Stale180Count   int
	Fresh30Ratio    float64
	Stale180Ratio   float64
}

var lenientDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
}

// parseDate tolerantly parses a published-date string the way
// _parse_datetime does: ISO-8601 first (with trailing "Z" normalized to
// "+00:00"), then a short list of common date layouts. Returns the zero
// time and false on failure.
func parseDate(value string) (time.Time, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return time.Time{}, false
	}
	normalized := text
	if strings.HasSuffix(text, "Z") {
		normalized = text[:len(text)-1] + "+00:00"
	}
	if t, err := time.Parse(time.RFC3339, normalized); err == nil {
		return t.UTC(), true
	}
	for _, layout := range lenientDateLayouts[1:] {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// SummarizeFreshness computes the age-bucket distribution across results,
// using now as the reference instant (pass time.Now().UTC() from the
// caller; this package never reads the clock itself).
func SummarizeFreshness(results []search.Result, now time.Time) FreshnessSummary {
	var s FreshnessSummary
	s.TotalResults = len(results)

	for _, r := range results {
		dt, ok := parseDate(r.PublishedAt)
		if !ok {
			s.UnknownCount++
			continue
		}
		s.KnownCount++
		ageDays := now.Sub(dt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		if ageDays <= 7 {
			s.Fresh7Count++
		}
		if ageDays <= 30 {
			s.Fresh30Count++
		}
		if ageDays > 180 {
			s.Stale180Count++
		}
	}

	if s.KnownCount > 0 {
		s.Fresh30Ratio = roundTo3(float64(s.Fresh30Count) / float64(s.KnownCount))
		s.Stale180Ratio = roundTo3(float64(s.Stale180Count) / float64(s.KnownCount))
	}
	return s
}
