package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/deepresearch/core/search"
)

// GoogleCSE implements search.Provider against Google Custom Search,
// grounded on original_source/tools/search/providers.py's
// google_cse_search. Requires both an API key and a search-engine id.
type GoogleCSE struct {
	APIKey         string
	SearchEngineID string
}

type googleCSEItem struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
}

type googleCSEResponse struct {
	Items []googleCSEItem `json:"items"`
}

func (g *GoogleCSE) Name() string { return "google_cse" }

func (g *GoogleCSE) IsAvailable() bool {
	return search.IsValidAPIKey(g.APIKey) && g.SearchEngineID != ""
}

func (g *GoogleCSE) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !g.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	q := url.Values{}
	q.Set("key", g.APIKey)
	q.Set("cx", g.SearchEngineID)
	q.Set("q", query)
	q.Set("num", strconv.Itoa(clampInt(maxResults, 1, 10)))

	req, err := http.NewRequest(http.MethodGet, "https://customsearch.googleapis.com/customsearch/v1?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var parsed googleCSEResponse
	if err := doJSON(ctx, req, "Google CSE", &parsed); err != nil {
		return nil, err
	}

	out := make([]search.Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		out = append(out, search.Normalize("google_cse", item.Title, item.Link, item.Snippet, "", nil, ""))
	}
	return clampResults(out, maxResults), nil
}
