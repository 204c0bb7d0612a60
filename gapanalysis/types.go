// Package gapanalysis implements the IterDRAG-style knowledge-gap
// analyzer: after each research iteration, ask the model which aspects of
// the topic remain uncovered and what queries would close those gaps.
// Grounded on
// original_source/agent/workflows/knowledge_gap.py.
package gapanalysis

// Importance is the severity the model assigned a Gap.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Gap is a single identified knowledge gap.
type Gap struct {
	Aspect     string
	Importance Importance
	Reason     string
}

// Result is one gap-analysis pass's output.
type Result struct {
	OverallCoverage  float64
	Confidence       float64
	Gaps             []Gap
	SuggestedQueries []string
	CoveredAspects   []string
	Analysis         string
	IsSufficient     bool
}

const coverageSufficientThreshold = 0.8

// fromRaw builds a Result from a loosely-typed parsed JSON map, applying
// the same defaults and derived IsSufficient rule as
// GapAnalysisResult.from_dict: coverage >= 0.8 and zero gaps.
func fromRaw(data map[string]any) Result {
	coverage := floatField(data, "overall_coverage", 0.5)
	confidence := floatField(data, "confidence", 0.5)

	var gaps []Gap
	if raw, ok := data["gaps"].([]any); ok {
		for _, item := range raw {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			importance := Importance(stringField(m, "importance", "medium"))
			gaps = append(gaps, Gap{
				Aspect:     stringField(m, "aspect", ""),
				Importance: importance,
				Reason:     stringField(m, "reason", ""),
			})
		}
	}

	return Result{
		OverallCoverage:  coverage,
		Confidence:       confidence,
		Gaps:             gaps,
		SuggestedQueries: stringSliceField(data, "suggested_queries"),
		CoveredAspects:   stringSliceField(data, "covered_aspects"),
		Analysis:         stringField(data, "analysis", ""),
		IsSufficient:     coverage >= coverageSufficientThreshold && len(gaps) == 0,
	}
}

func floatField(m map[string]any, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func stringField(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func stringSliceField(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// fallbackResult is returned when the model's output can't be parsed as
// JSON at all, matching _parse_result's except branch.
func fallbackResult() Result {
	return Result{
		OverallCoverage: 0.5,
		Confidence:      0.3,
		Analysis:        "Failed to parse analysis result",
	}
}
