package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/deepresearch/core/search"
)

// Firecrawl implements search.Provider against api.firecrawl.dev/v2/search,
// grounded on original_source/tools/search/providers.py's
// firecrawl_search.
type Firecrawl struct {
	APIKey string
}

type firecrawlScrapeOptions struct {
	Formats         []string `json:"formats"`
	OnlyMainContent bool     `json:"onlyMainContent"`
}

type firecrawlRequest struct {
	Query         string                 `json:"query"`
	Limit         int                    `json:"limit"`
	Sources       []string               `json:"sources"`
	ScrapeOptions firecrawlScrapeOptions `json:"scrapeOptions"`
}

type firecrawlItem struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Markdown    string `json:"markdown"`
	Description string `json:"description"`
}

type firecrawlResponse struct {
	Data []firecrawlItem `json:"data"`
}

func (f *Firecrawl) Name() string { return "firecrawl" }

func (f *Firecrawl) IsAvailable() bool { return search.IsValidAPIKey(f.APIKey) }

func (f *Firecrawl) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !f.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	payload := firecrawlRequest{
		Query:   query,
		Limit:   clampInt(maxResults, 1, 20),
		Sources: []string{"web"},
		ScrapeOptions: firecrawlScrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, "https://api.firecrawl.dev/v2/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+f.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var parsed firecrawlResponse
	if err := doJSON(ctx, req, "Firecrawl", &parsed); err != nil {
		return nil, err
	}

	out := make([]search.Result, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		content := truncate(item.Markdown, 300)
		if content == "" {
			content = item.Description
		}
		out = append(out, search.Normalize("firecrawl", item.Title, item.URL, content, item.Markdown, nil, ""))
	}
	return clampResults(out, maxResults), nil
}
