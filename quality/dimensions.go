package quality

import (
	"regexp"
	"strings"
)

// Dimension names one of the five coverage axes every research run should
// probe: recency, authoritative sourcing, quantitative evidence, stated
// risk/limitations, and practical implementation detail.
type Dimension string

const (
	DimFreshness      Dimension = "freshness"
	DimOfficial       Dimension = "official"
	DimEvidence       Dimension = "evidence"
	DimRisk           Dimension = "risk"
	DimImplementation Dimension = "implementation"
)

// AllDimensions lists the five dimensions in their canonical order.
var AllDimensions = []Dimension{DimFreshness, DimOfficial, DimEvidence, DimRisk, DimImplementation}

var enTimeMarkers = []string{
	"latest", "recent", "today", "current", "update", "updates", "new",
	"this week", "this month", "news",
}

var zhTimeMarkers = []string{
	"最新", "近期", "今天", "当下", "更新", "本周", "本月", "动态", "新闻",
}

var officialMarkers = []string{
	"official", "documentation", "docs", "release notes", "changelog", "roadmap",
	"官方", "文档", "发布说明", "路线图",
}

var evidenceMarkers = []string{
	"benchmark", "evaluation", "metrics", "data", "report", "study", "paper",
	"评测", "评估", "指标", "数据", "报告", "论文",
}

var riskMarkers = []string{
	"risk", "risks", "limitation", "limitations", "criticism", "criticisms",
	"tradeoff", "trade-offs", "争议", "风险", "局限", "缺点", "问题",
}

var implementationMarkers = []string{
	"implementation", "how to", "best practices", "case study", "architecture", "playbook",
	"实践", "案例", "最佳实践", "架构", "落地",
}

var yearRe = regexp.MustCompile(`\b20\d{2}\b`)
var cjkRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)

func containsAnyLower(text string, markers []string) bool {
	lowered := strings.ToLower(text)
	for _, m := range markers {
		if strings.Contains(lowered, m) {
			return true
		}
	}
	return false
}

// IsCJKText reports whether text contains any CJK Unified Ideograph.
func IsCJKText(text string) bool {
	return cjkRe.MatchString(text)
}

// IsTimeSensitiveTopic reports whether topic explicitly asks for
// recent/fresh information: an EN or ZH time marker, or a bare 20xx year.
func IsTimeSensitiveTopic(topic string) bool {
	text := strings.TrimSpace(topic)
	if text == "" {
		return false
	}
	if containsAnyLower(text, enTimeMarkers) {
		return true
	}
	if containsAnyLower(text, zhTimeMarkers) {
		return true
	}
	return yearRe.MatchString(text)
}

// QueryDimensions infers which coverage dimensions a single query
// represents, by marker-word presence (EN case-insensitive, ZH exact).
func QueryDimensions(query string) map[Dimension]bool {
	text := strings.TrimSpace(query)
	dims := make(map[Dimension]bool)
	if text == "" {
		return dims
	}

	if IsTimeSensitiveTopic(text) {
		dims[DimFreshness] = true
	}
	if containsAnyLower(text, officialMarkers) {
		dims[DimOfficial] = true
	}
	if containsAnyLower(text, evidenceMarkers) {
		dims[DimEvidence] = true
	}
	if containsAnyLower(text, riskMarkers) {
		dims[DimRisk] = true
	}
	if containsAnyLower(text, implementationMarkers) {
		dims[DimImplementation] = true
	}
	return dims
}
