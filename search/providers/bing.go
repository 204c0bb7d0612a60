package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/deepresearch/core/search"
)

// Bing implements search.Provider against the Bing Web Search v7 API,
// grounded on original_source/tools/search/providers.py's bing_search.
type Bing struct {
	APIKey string
}

type bingValue struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

type bingWebPages struct {
	Value []bingValue `json:"value"`
}

type bingResponse struct {
	WebPages *bingWebPages `json:"webPages"`
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) IsAvailable() bool { return search.IsValidAPIKey(b.APIKey) }

func (b *Bing) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !b.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(clampInt(maxResults, 1, 50)))
	q.Set("textDecorations", "true")
	q.Set("textFormat", "HTML")

	req, err := http.NewRequest(http.MethodGet, "https://api.cognitive.microsoft.com/bing/v7.0/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.APIKey)

	var parsed bingResponse
	if err := doJSON(ctx, req, "Bing Search", &parsed); err != nil {
		return nil, err
	}

	var out []search.Result
	if parsed.WebPages != nil {
		for _, item := range parsed.WebPages.Value {
			out = append(out, search.Normalize("bing", item.Name, item.URL, item.Snippet, "", nil, ""))
		}
	}
	return clampResults(out, maxResults), nil
}
