package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/deepresearch/core/search"
)

// SerpAPI implements search.Provider against serpapi.com, grounded on
// original_source/tools/search/providers.py's serpapi_search. Engine
// defaults to "google" as in the Python helper's keyword-only parameter.
type SerpAPI struct {
	APIKey string
	Engine string
}

type serpapiSource struct {
	Link string `json:"link"`
}

type serpapiKnowledgeGraph struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Source      *serpapiSource `json:"source"`
}

type serpapiOrganicResult struct {
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
	Position int    `json:"position"`
}

type serpapiResponse struct {
	KnowledgeGraph *serpapiKnowledgeGraph `json:"knowledge_graph"`
	OrganicResults []serpapiOrganicResult `json:"organic_results"`
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) IsAvailable() bool { return search.IsValidAPIKey(s.APIKey) }

func (s *SerpAPI) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !s.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	engine := s.Engine
	if engine == "" {
		engine = "google"
	}

	q := url.Values{}
	q.Set("engine", engine)
	q.Set("q", query)
	q.Set("api_key", s.APIKey)
	q.Set("num", strconv.Itoa(clampInt(maxResults, 1, 100)))

	req, err := http.NewRequest(http.MethodGet, "https://serpapi.com/search.json?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var parsed serpapiResponse
	if err := doJSON(ctx, req, "SerpAPI", &parsed); err != nil {
		return nil, err
	}

	var out []search.Result
	if kg := parsed.KnowledgeGraph; kg != nil && (kg.Title != "" || kg.Description != "") {
		kgURL := ""
		if kg.Source != nil {
			kgURL = kg.Source.Link
		}
		out = append(out, search.Normalize("serpapi_knowledge_graph", kg.Title, kgURL, kg.Description, "", nil, ""))
	}
	for _, item := range parsed.OrganicResults {
		out = append(out, search.Normalize("serpapi", item.Title, item.Link, item.Snippet, "", nil, ""))
	}
	return clampResults(out, maxResults), nil
}
