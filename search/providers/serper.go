package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/deepresearch/core/search"
)

// Serper implements search.Provider against google.serper.dev, grounded on
// original_source/tools/search/providers.py's serper_search.
type Serper struct {
	APIKey string
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperKnowledgeGraph struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Website     string `json:"website"`
}

type serperOrganic struct {
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Link     string `json:"link"`
	Position int    `json:"position"`
}

type serperResponse struct {
	KnowledgeGraph *serperKnowledgeGraph `json:"knowledgeGraph"`
	Organic        []serperOrganic       `json:"organic"`
}

func (s *Serper) Name() string { return "serper" }

func (s *Serper) IsAvailable() bool { return search.IsValidAPIKey(s.APIKey) }

func (s *Serper) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	if !s.IsAvailable() {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: maxResults})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, "https://google.serper.dev/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var parsed serperResponse
	if err := doJSON(ctx, req, "Serper", &parsed); err != nil {
		return nil, err
	}

	var out []search.Result
	if kg := parsed.KnowledgeGraph; kg != nil && (kg.Title != "" || kg.Description != "" || kg.Website != "") {
		out = append(out, search.Normalize("serper_knowledge_graph", kg.Title, kg.Website, kg.Description, "", nil, ""))
	}
	for _, item := range parsed.Organic {
		out = append(out, search.Normalize("serper", item.Title, item.Link, item.Snippet, "", nil, ""))
	}
	return clampResults(out, maxResults), nil
}
