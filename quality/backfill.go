package quality

import (
	"fmt"
	"strings"
)

type seedTemplate struct {
	dimension Dimension
	query     string
}

// seedTemplates returns the five deterministic per-dimension seed
// queries for topic, in the script matching the topic's own text (CJK vs
// EN), using year as the freshness seed's year token.
func seedTemplates(topic string, year int) []seedTemplate {
	if IsCJKText(topic) {
		return []seedTemplate{
			{DimFreshness, fmt.Sprintf("%s 最新进展 %d", topic, year)},
			{DimOfficial, fmt.Sprintf("%s 官方文档 发布说明", topic)},
			{DimEvidence, fmt.Sprintf("%s 数据 报告 评测", topic)},
			{DimRisk, fmt.Sprintf("%s 局限 风险 争议", topic)},
			{DimImplementation, fmt.Sprintf("%s 实践 案例 最佳实践", topic)},
		}
	}
	return []seedTemplate{
		{DimFreshness, fmt.Sprintf("%s latest updates %d", topic, year)},
		{DimOfficial, fmt.Sprintf("%s official documentation release notes", topic)},
		{DimEvidence, fmt.Sprintf("%s benchmark evaluation metrics", topic)},
		{DimRisk, fmt.Sprintf("%s limitations risks tradeoffs", topic)},
		{DimImplementation, fmt.Sprintf("%s implementation best practices case study", topic)},
	}
}

// BackfillDiverseQueries keeps existing LLM-generated queries first (deduped
// against both themselves and historical queries from prior epochs), then
// fills remaining slots up to queryNum with deterministic dimension seeds,
// prioritizing seeds for dimensions the existing queries never covered.
// year should be the caller's current year (the engine never calls
// time.Now() inside this package, to stay deterministic and testable).
func BackfillDiverseQueries(topic string, existingQueries, historicalQueries []string, queryNum int, year int) []string {
	target := queryNum
	if target < 1 {
		target = 1
	}

	seen := make(map[string]struct{})
	for _, q := range historicalQueries {
		q = strings.TrimSpace(q)
		if q != "" {
			seen[strings.ToLower(q)] = struct{}{}
		}
	}

	var final []string
	for _, q := range existingQueries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		final = append(final, q)
		if len(final) >= target {
			return final[:target]
		}
	}

	coverage := AnalyzeQueryCoverage(final)
	missing := make(map[Dimension]bool, len(coverage.MissingDimensions))
	for _, d := range coverage.MissingDimensions {
		missing[d] = true
	}

	topicOrDefault := strings.TrimSpace(topic)
	if topicOrDefault == "" {
		topicOrDefault = "topic"
	}
	seeds := seedTemplates(topicOrDefault, year)

	var prioritized []seedTemplate
	for _, s := range seeds {
		if missing[s.dimension] {
			prioritized = append(prioritized, s)
		}
	}
	for _, s := range seeds {
		if !missing[s.dimension] {
			prioritized = append(prioritized, s)
		}
	}

	for _, s := range prioritized {
		q := strings.TrimSpace(s.query)
		key := strings.ToLower(q)
		if q == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		final = append(final, q)
		if len(final) >= target {
			break
		}
	}

	if len(final) > target {
		final = final[:target]
	}
	return final
}
