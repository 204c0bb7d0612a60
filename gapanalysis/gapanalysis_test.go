package gapanalysis

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseModelOutputFencedJSON(t *testing.T) {
	content := "Here is the analysis:\n```json\n" + `{
		"overall_coverage": 0.65,
		"confidence": 0.7,
		"gaps": [{"aspect": "2024年数据", "importance": "high", "reason": "缺少最新数据"}],
		"suggested_queries": ["2024年最新数据"],
		"covered_aspects": ["定义"],
		"analysis": "覆盖尚可"
	}` + "\n```"
	result := ParseModelOutput(content)
	require.Equal(t, 0.65, result.OverallCoverage)
	require.Equal(t, 0.7, result.Confidence)
	require.Len(t, result.Gaps, 1)
	require.Equal(t, ImportanceHigh, result.Gaps[0].Importance)
	require.False(t, result.IsSufficient)
}

func TestParseModelOutputUnparseableFallsBack(t *testing.T) {
	result := ParseModelOutput("not json at all")
	require.Equal(t, 0.5, result.OverallCoverage)
	require.Equal(t, "Failed to parse analysis result", result.Analysis)
}

func TestParseAndValidateRejectsMissingRequiredField(t *testing.T) {
	_, err := ParseAndValidate(`{"confidence": 0.5}`)
	require.Error(t, err)
}

func TestParseAndValidateAcceptsWellFormed(t *testing.T) {
	result, err := ParseAndValidate(`{"overall_coverage": 0.9, "confidence": 0.8, "gaps": []}`)
	require.NoError(t, err)
	require.True(t, result.IsSufficient)
}

func TestParseAndValidateNoJSONFallsBackWithoutError(t *testing.T) {
	result, err := ParseAndValidate("the model refused to answer")
	require.NoError(t, err)
	require.Equal(t, fallbackResult(), result)
}

func TestGetPriorityQueriesOrdersByImportanceAndMatchesAspect(t *testing.T) {
	result := Result{
		Gaps: []Gap{
			{Aspect: "historical context", Importance: ImportanceLow},
			{Aspect: "recent benchmarks", Importance: ImportanceHigh},
		},
		SuggestedQueries: []string{
			"historical context of the technology",
			"recent benchmarks 2026",
			"unrelated extra query",
		},
	}
	queries := GetPriorityQueries(result, 2)
	require.Len(t, queries, 2)
	require.Equal(t, "recent benchmarks 2026", queries[0])
}

func TestIsResearchSufficientRequiresNoHighGap(t *testing.T) {
	a := NewAnalyzer(nil, 0.8, nil)
	require.False(t, a.IsResearchSufficient(Result{
		OverallCoverage: 0.95,
		Gaps:            []Gap{{Aspect: "x", Importance: ImportanceHigh}},
	}))
	require.True(t, a.IsResearchSufficient(Result{
		OverallCoverage: 0.85,
		Gaps:            []Gap{{Aspect: "x", Importance: ImportanceLow}},
	}))
}

func TestHighPriorityAspects(t *testing.T) {
	result := Result{Gaps: []Gap{
		{Aspect: "a", Importance: ImportanceHigh},
		{Aspect: "b", Importance: ImportanceMedium},
		{Aspect: "c", Importance: ImportanceHigh},
	}}
	require.Equal(t, []string{"a", "c"}, HighPriorityAspects(result))
}

func TestGenerateTargetedQueriesFillsFromGapAspects(t *testing.T) {
	result := Result{
		Gaps:             []Gap{{Aspect: "pricing model"}, {Aspect: "security audit"}},
		SuggestedQueries: []string{"pricing comparison"},
	}
	queries := GenerateTargetedQueries(result, 3)
	require.Contains(t, queries, "pricing comparison")
	require.Contains(t, queries, "security audit")
}

func TestGenerateTargetedQueriesEmptyWhenNoGaps(t *testing.T) {
	require.Nil(t, GenerateTargetedQueries(Result{}, 5))
}
