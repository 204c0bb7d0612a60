package gapanalysis

import (
	"encoding/json"
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile(`(?is)` + "```" + `(?:json)?\s*([\s\S]*?)` + "```")

// extractJSONObject mirrors parse_json_from_text: pull the last fenced
// code block if present, then the outermost {...} span, and attempt to
// decode it. Returns nil on any failure, matching the Python helper's
// "empty dict on failure" contract.
func extractJSONObject(text string) map[string]any {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if matches := jsonFenceRe.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		text = matches[len(matches)-1][1]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil
	}
	text = text[start : end+1]

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil
	}
	return data
}

// ParseModelOutput parses a gap-analysis model response into a Result,
// falling back to fallbackResult() when no JSON object can be recovered.
func ParseModelOutput(content string) Result {
	data := extractJSONObject(content)
	if data == nil {
		return fallbackResult()
	}
	return fromRaw(data)
}
