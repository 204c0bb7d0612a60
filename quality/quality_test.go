package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/search"
)

func TestParseListOutputLiteralList(t *testing.T) {
	out := ParseListOutput(`Here you go:
` + "```python" + `
["golang concurrency patterns", "goroutine leaks 2024", 'context cancellation']
` + "```")
	require.Equal(t, []string{"golang concurrency patterns", "goroutine leaks 2024", "context cancellation"}, out)
}

func TestParseListOutputFallsBackToLines(t *testing.T) {
	out := ParseListOutput("query one\nquery two\n\nquery three")
	require.Equal(t, []string{"query one", "query two", "query three"}, out)
}

func TestParseListOutputEmpty(t *testing.T) {
	require.Nil(t, ParseListOutput("   "))
}

func TestIsTimeSensitiveTopic(t *testing.T) {
	require.True(t, IsTimeSensitiveTopic("latest developments in AI safety"))
	require.True(t, IsTimeSensitiveTopic("2024 年度报告"))
	require.True(t, IsTimeSensitiveTopic("最新进展"))
	require.False(t, IsTimeSensitiveTopic("history of the transistor"))
}

func TestQueryDimensions(t *testing.T) {
	dims := QueryDimensions("official documentation and release notes for the latest release")
	require.True(t, dims[DimOfficial])
	require.True(t, dims[DimFreshness])
	require.False(t, dims[DimRisk])
}

func TestAnalyzeQueryCoverageAllDimensions(t *testing.T) {
	queries := []string{
		"latest updates 2024",
		"official documentation",
		"benchmark evaluation metrics",
		"limitations and risks",
		"implementation best practices",
	}
	cov := AnalyzeQueryCoverage(queries)
	require.Equal(t, 1.0, cov.Score)
	require.Len(t, cov.CoveredDimensions, 5)
	require.Empty(t, cov.MissingDimensions)
}

func TestAnalyzeQueryCoveragePartial(t *testing.T) {
	cov := AnalyzeQueryCoverage([]string{"official documentation"})
	require.Less(t, cov.Score, 1.0)
	require.Contains(t, cov.CoveredDimensions, DimOfficial)
	require.Contains(t, cov.MissingDimensions, DimFreshness)
}

func TestBackfillDiverseQueriesFillsMissingDimensions(t *testing.T) {
	out := BackfillDiverseQueries("rust async runtimes", []string{"official documentation"}, nil, 5, 2026)
	require.Len(t, out, 5)
	require.Equal(t, "official documentation", out[0])
	joined := out[0]
	for _, q := range out[1:] {
		joined += "\n" + q
	}
	require.Contains(t, joined, "2026")
}

func TestBackfillDiverseQueriesDedupesAgainstHistory(t *testing.T) {
	historical := []string{"rust async runtimes latest updates 2026"}
	out := BackfillDiverseQueries("rust async runtimes", nil, historical, 1, 2026)
	require.Len(t, out, 1)
	require.NotEqual(t, "rust async runtimes latest updates 2026", out[0])
}

func TestBackfillDiverseQueriesCJKTemplates(t *testing.T) {
	out := BackfillDiverseQueries("大语言模型", nil, nil, 1, 2026)
	require.Len(t, out, 1)
	require.Contains(t, out[0], "大语言模型")
}

func TestSummarizeFreshnessBuckets(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	results := []search.Result{
		{PublishedAt: now.Add(-3 * 24 * time.Hour).Format(time.RFC3339)},
		{PublishedAt: now.Add(-20 * 24 * time.Hour).Format(time.RFC3339)},
		{PublishedAt: now.Add(-200 * 24 * time.Hour).Format(time.RFC3339)},
		{PublishedAt: ""},
	}
	s := SummarizeFreshness(results, now)
	require.Equal(t, 4, s.TotalResults)
	require.Equal(t, 3, s.KnownCount)
	require.Equal(t, 1, s.UnknownCount)
	require.Equal(t, 1, s.Fresh7Count)
	require.Equal(t, 2, s.Fresh30Count)
	require.Equal(t, 1, s.Stale180Count)
}

func TestParseDateHandlesTrailingZ(t *testing.T) {
	dt, ok := parseDate("2026-01-15T10:00:00Z")
	require.True(t, ok)
	require.Equal(t, 2026, dt.Year())
}

func TestFormatSearchResultsPlaceholders(t *testing.T) {
	out := FormatSearchResults([]search.Result{
		{URL: "https://example.com", Snippet: "a snippet", Score: 0.87},
	})
	require.Contains(t, out, "标题: N/A")
	require.Contains(t, out, "日期: unknown")
	require.Contains(t, out, "评分: 0.87")
	require.Contains(t, out, "链接: https://example.com")
}
