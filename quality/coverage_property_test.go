package quality

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestAnalyzeQueryCoverageScoreBounds verifies the coverage score computed
// by AnalyzeQueryCoverage always lands in [0, 1], that covered plus missing
// dimensions always number len(AllDimensions), and that TotalQueries always
// equals the input length.
func TestAnalyzeQueryCoverageScoreBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("score stays within [0, 1] for any queries", prop.ForAll(
		func(queries []string) bool {
			c := AnalyzeQueryCoverage(queries)
			return c.Score >= 0 && c.Score <= 1
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.Property("covered plus missing dimensions always equals all dimensions", prop.ForAll(
		func(queries []string) bool {
			c := AnalyzeQueryCoverage(queries)
			return len(c.CoveredDimensions)+len(c.MissingDimensions) == len(AllDimensions)
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.Property("total queries always matches the input length", prop.ForAll(
		func(queries []string) bool {
			return AnalyzeQueryCoverage(queries).TotalQueries == len(queries)
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}

// TestAnalyzeQueryCoverageEmptyInputScoresZero verifies that no queries
// means no dimension can be hit, so the score is exactly 0.
func TestAnalyzeQueryCoverageEmptyInputScoresZero(t *testing.T) {
	c := AnalyzeQueryCoverage(nil)
	if c.Score != 0 {
		t.Fatalf("expected score 0 for no queries, got %v", c.Score)
	}
	if len(c.CoveredDimensions) != 0 {
		t.Fatalf("expected no covered dimensions, got %v", c.CoveredDimensions)
	}
}
