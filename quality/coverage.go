package quality

import "sort"

// Coverage is the result of scoring a batch of generated queries against
// the five coverage dimensions.
type Coverage struct {
	Score              float64
	CoveredDimensions  []Dimension
	MissingDimensions  []Dimension
	DimensionHits      map[Dimension]int
	TotalQueries       int
}

// AnalyzeQueryCoverage computes per-dimension hit counts across queries
// and an overall coverage score (covered dimension count / 5), matching
// analyze_query_coverage.
func AnalyzeQueryCoverage(queries []string) Coverage {
	hits := make(map[Dimension]int, len(AllDimensions))
	for _, d := range AllDimensions {
		hits[d] = 0
	}

	for _, q := range queries {
		for dim := range QueryDimensions(q) {
			if _, ok := hits[dim]; ok {
				hits[dim]++
			}
		}
	}

	var covered, missing []Dimension
	for _, d := range AllDimensions {
		if hits[d] > 0 {
			covered = append(covered, d)
		} else {
			missing = append(missing, d)
		}
	}
	sort.Slice(covered, func(i, j int) bool { return covered[i] < covered[j] })
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

	score := 0.0
	if len(AllDimensions) > 0 {
		score = roundTo3(float64(len(covered)) / float64(len(AllDimensions)))
	}

	return Coverage{
		Score:             score,
		CoveredDimensions: covered,
		MissingDimensions: missing,
		DimensionHits:     hits,
		TotalQueries:      len(queries),
	}
}

func roundTo3(v float64) float64 {
	const scale = 1000.0
	if v >= 0 {
		return float64(int(v*scale+0.5)) / scale
	}
	return float64(int(v*scale-0.5)) / scale
}
