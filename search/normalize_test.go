package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalURLStripsTrackingParamsAndTrailingSlash(t *testing.T) {
	got := CanonicalURL("HTTPS://Example.com/Path/?utm_source=newsletter&id=42/")
	require.Equal(t, "https://example.com/Path?id=42", got)
}

func TestDedupByURLKeepsFirstOccurrence(t *testing.T) {
	results := []Result{
		{Title: "first", URL: "https://example.com/a"},
		{Title: "second", URL: "https://example.com/a/"},
		{Title: "third", URL: "https://example.com/b"},
	}
	out := DedupByURL(results)
	require.Len(t, out, 2)
	require.Equal(t, "first", out[0].Title)
	require.Equal(t, "third", out[1].Title)
}

func TestSortByScoreDescIsStableAndNonMutating(t *testing.T) {
	original := []Result{{Title: "low", Score: 0.1}, {Title: "high", Score: 0.9}, {Title: "mid", Score: 0.5}}
	sorted := SortByScoreDesc(original)
	require.Equal(t, []string{"high", "mid", "low"}, []string{sorted[0].Title, sorted[1].Title, sorted[2].Title})
	require.Equal(t, "low", original[0].Title)
}

func TestNormalizeDefaultsScore(t *testing.T) {
	r := Normalize("tavily", " Title ", " https://x.example ", "snippet", "raw", nil, "2026-01-01")
	require.Equal(t, 0.5, r.Score)
	require.Equal(t, "Title", r.Title)
	require.Equal(t, "https://x.example", r.URL)
}
