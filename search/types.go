// Package search implements the multi-provider search layer: a provider
// abstraction, a per-query result cache, a strategy selector
// (fallback/profile), result normalization, and domain-aware provider
// profile derivation.
package search

import "context"

// Result is a single normalized search hit. Equality for dedup purposes is
// defined by CanonicalURL, not this struct's fields directly.
type Result struct {
	Title        string
	URL          string
	Snippet      string
	RawExcerpt   string
	Score        float64
	PublishedAt  string // ISO-ish date string as returned by the provider, parsed lazily by quality.SummarizeFreshness.
	Provider     string
}

// Provider is the abstraction every concrete search backend implements.
type Provider interface {
	// Name is the canonical provider identifier used in profiles
	// ("tavily", "duckduckgo", "arxiv", ...).
	Name() string
	// IsAvailable reports whether the provider is configured (e.g. holds a
	// plausible API key) and can be called.
	IsAvailable() bool
	// Search runs a single query against the provider, returning up to
	// maxResults normalized results.
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Profile is an ordered, deduplicated list of provider names expressing a
// caller's preference order.
type Profile []string

// Contains reports whether name appears in the profile.
func (p Profile) Contains(name string) bool {
	for _, n := range p {
		if n == name {
			return true
		}
	}
	return false
}
