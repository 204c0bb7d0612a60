package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/deepresearch/core/search"
)

// Tavily implements search.Provider against api.tavily.com, grounded on
// original_source/tools/search/search.py's tavily_search. The Python tool
// also ran an inline OpenAI summarization pass over each raw_content
// field; that behavior belongs to the quality/summarization stage in this
// module, not the provider adapter, so it is left for callers to apply to
// RawExcerpt rather than duplicated here.
type Tavily struct {
	APIKey string
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyItem struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyItem `json:"results"`
}

func (t *Tavily) Name() string { return "tavily" }

func (t *Tavily) IsAvailable() bool { return search.IsValidAPIKey(t.APIKey) }

func (t *Tavily) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !t.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 5
	}

	payload := tavilyRequest{
		APIKey:            t.APIKey,
		Query:             query,
		SearchDepth:       "advanced",
		MaxResults:        maxResults,
		IncludeAnswer:     true,
		IncludeRawContent: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var parsed tavilyResponse
	if err := doJSON(ctx, req, "Tavily", &parsed); err != nil {
		return nil, err
	}

	items := make([]tavilyItem, len(parsed.Results))
	copy(items, parsed.Results)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	seen := make(map[string]struct{})
	out := make([]search.Result, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}

		raw := item.RawContent
		if raw == "" {
			raw = item.Content
		}
		score := item.Score
		out = append(out, search.Normalize("tavily", item.Title, item.URL, truncate(item.Content, 600), truncate(raw, 1200), &score, ""))
		if len(out) >= maxResults {
			break
		}
	}
	return out, nil
}
