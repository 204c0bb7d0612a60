package search

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParamPrefixes lists query-string parameter prefixes stripped
// before dedup/equality, matching the specification's "strip trailing
// slash / common tracking params (utm_*)" rule.
var trackingParamPrefixes = []string{"utm_", "gclid", "fbclid", "mc_cid", "mc_eid", "ref"}

// CanonicalURL lowercases scheme and host, strips a trailing slash from
// the URL and from its path, and removes tracking query parameters,
// producing the form used for case-insensitive dedup across providers.
func CanonicalURL(raw string) string {
	trimmed := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.ToLower(trimmed)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")

	if u.RawQuery != "" {
		values := u.Query()
		for key := range values {
			lowerKey := strings.ToLower(key)
			for _, prefix := range trackingParamPrefixes {
				if strings.HasPrefix(lowerKey, prefix) {
					values.Del(key)
					break
				}
			}
		}
		u.RawQuery = values.Encode()
	}
	u.Fragment = ""

	out := u.String()
	out = strings.TrimSuffix(out, "?")
	return out
}

// DedupByURL returns results with one entry per CanonicalURL, keeping the
// first occurrence (providers earlier in the profile / higher-scored
// first) and preserving relative order.
func DedupByURL(results []Result) []Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		key := CanonicalURL(r.URL)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

// SortByScoreDesc returns a copy of results sorted by Score descending,
// used as the critic fallback when URL selection produces nothing.
func SortByScoreDesc(results []Result) []Result {
	out := make([]Result, len(results))
	copy(out, results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Normalize coerces a loosely-typed provider response field set into a
// Result, defaulting Score to 0.5 and tagging Provider from the caller.
func Normalize(provider, title, rawURL, snippet, rawExcerpt string, score *float64, published string) Result {
	s := 0.5
	if score != nil {
		s = *score
	}
	return Result{
		Title:       strings.TrimSpace(title),
		URL:         strings.TrimSpace(rawURL),
		Snippet:     strings.TrimSpace(snippet),
		RawExcerpt:  rawExcerpt,
		Score:       s,
		PublishedAt: strings.TrimSpace(published),
		Provider:    provider,
	}
}
