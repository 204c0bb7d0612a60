package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/deepresearch/core/search"
)

// Exa implements search.Provider against api.exa.ai, grounded on
// original_source/tools/search/providers.py's exa_search. SearchType
// defaults to "auto" and is restricted to {neural,keyword,auto} exactly
// as the Python helper normalizes it.
type Exa struct {
	APIKey     string
	SearchType string
	Category   string
}

type exaContentsOpt struct {
	Text       map[string]any `json:"text"`
	Highlights map[string]any `json:"highlights"`
}

type exaRequest struct {
	Query         string         `json:"query"`
	NumResults    int            `json:"numResults"`
	Type          string         `json:"type"`
	UseAutoprompt bool           `json:"useAutoprompt"`
	Contents      exaContentsOpt `json:"contents"`
	LiveCrawl     string         `json:"liveCrawl"`
	Category      string         `json:"category,omitempty"`
}

type exaItem struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Text          string   `json:"text"`
	Highlights    []string `json:"highlights"`
	Score         float64  `json:"score"`
	PublishedDate string   `json:"publishedDate"`
}

type exaResponse struct {
	Results []exaItem `json:"results"`
}

func (e *Exa) Name() string { return "exa" }

func (e *Exa) IsAvailable() bool { return search.IsValidAPIKey(e.APIKey) }

func (e *Exa) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !e.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	searchType := strings.ToLower(strings.TrimSpace(e.SearchType))
	switch searchType {
	case "neural", "keyword", "auto":
	default:
		searchType = "auto"
	}

	payload := exaRequest{
		Query:         query,
		NumResults:    clampInt(maxResults, 1, 100),
		Type:          searchType,
		UseAutoprompt: true,
		Contents: exaContentsOpt{
			Text:       map[string]any{"maxCharacters": 2000, "includeHtmlTags": false},
			Highlights: map[string]any{"numSentences": 3, "highlightsPerUrl": 2},
		},
		LiveCrawl: "fallback",
		Category:  e.Category,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.exa.ai/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", e.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var parsed exaResponse
	if err := doJSON(ctx, req, "Exa", &parsed); err != nil {
		return nil, err
	}

	out := make([]search.Result, 0, len(parsed.Results))
	for _, item := range parsed.Results {
		snippet := truncate(strings.Join(nonEmpty(item.Highlights), " ... "), 500)
		if snippet == "" {
			snippet = truncate(item.Text, 500)
		}
		score := item.Score
		out = append(out, search.Normalize("exa", item.Title, item.URL, snippet, item.Text, &score, item.PublishedDate))
	}
	return clampResults(out, maxResults), nil
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
