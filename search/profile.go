package search

import "strings"

// ResearchDomain is a coarse topical bucket used to pick sensible default
// providers when the caller hasn't suggested any sources.
type ResearchDomain string

const (
	DomainGeneral ResearchDomain = "general"
	DomainNews    ResearchDomain = "news"
	DomainCode    ResearchDomain = "code"
	DomainAcademic ResearchDomain = "academic"
)

// sourceProviderHints maps hostname substrings appearing in a caller's
// suggested sources to the provider best suited to query them, mirroring
// the engine roster in original_source/tools/search/fallback_search.py
// (tavily, serper, serpapi, bing, google_cse, exa, firecrawl).
var sourceProviderHints = map[string]string{
	"github.com":        "exa",
	"stackoverflow.com":  "exa",
	"news.google.com":    "serper",
	"reuters.com":        "serper",
	"bloomberg.com":      "serper",
	"scholar.google.com": "google_cse",
}

// domainProviderDefaults gives each research domain a default, ordered
// provider preference when no suggested sources are available. tavily
// leads every profile, matching fallback_search.py's own
// `engines or settings.search_engines_list or ["tavily"]` default.
var domainProviderDefaults = map[ResearchDomain]Profile{
	DomainAcademic: {"tavily", "google_cse", "exa", "serper"},
	DomainNews:     {"tavily", "serper", "bing"},
	DomainCode:     {"tavily", "exa", "serper"},
	DomainGeneral:  {"tavily", "serper", "exa", "bing"},
}

// defaultProfile is used whenever domain is unrecognized.
var defaultProfile = Profile{"tavily", "serper", "exa", "bing"}

// BuildProviderProfile derives an ordered provider profile from a research
// domain and a set of caller-suggested source URLs/hostnames. Hostname
// hints take priority over the domain default and are prepended, in the
// order their matching suggested source appeared, ahead of the domain
// default (with duplicates removed).
func BuildProviderProfile(domain ResearchDomain, suggestedSources []string) Profile {
	var ordered Profile
	seen := make(map[string]struct{})

	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}

	for _, src := range suggestedSources {
		lower := strings.ToLower(src)
		for substr, provider := range sourceProviderHints {
			if strings.Contains(lower, substr) {
				add(provider)
			}
		}
	}

	base, ok := domainProviderDefaults[domain]
	if !ok {
		base = defaultProfile
	}
	for _, p := range base {
		add(p)
	}

	return ordered
}
