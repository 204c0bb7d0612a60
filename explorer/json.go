package explorer

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON recovers a JSON object from a model response that may wrap
// it in markdown code fences or surrounding prose, returning an empty map
// on any failure so callers degrade gracefully instead of erroring.
func extractJSON(text string) map[string]any {
	candidate := text
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	start := strings.IndexByte(candidate, '{')
	end := strings.LastIndexByte(candidate, '}')
	if start == -1 || end == -1 || end < start {
		return map[string]any{}
	}
	candidate = candidate[start : end+1]

	var out map[string]any
	if err := json.Unmarshal([]byte(candidate), &out); err != nil {
		return map[string]any{}
	}
	return out
}
