package gapanalysis

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/modelrouter"
	"github.com/deepresearch/core/telemetry"
)

// promptTemplate is GAP_ANALYSIS_PROMPT translated verbatim in structure
// (topic / research goals / executed queries / collected knowledge /
// output contract), kept in Chinese because the prompt's own
// goal-checklist and JSON-shape hints are the payload a model acts on,
// not prose a human reads.
const promptTemplate = `# 角色
你是一名研究质量分析专家，擅长识别知识盲区和信息缺口。

# 任务
分析以下研究主题和已收集的信息，识别仍然存在的知识缺口。

# 研究主题
%s

# 研究目标（主题应该涵盖的方面）
- 定义和概念解释
- 历史背景和发展
- 核心内容和关键要素
- 应用场景和实际案例
- 优缺点分析
- 与相关主题的比较
- 未来趋势和展望
- 专家观点和数据支持

# 已执行的查询
%s

# 已收集的信息摘要
%s

# 输出要求
分析信息完整性，输出 JSON 格式结果：
` + "```json" + `
{
    "overall_coverage": 0.65,
    "confidence": 0.7,
    "gaps": [
        {"aspect": "缺失的方面", "importance": "high/medium/low", "reason": "为什么这个方面重要"}
    ],
    "suggested_queries": [
        "针对缺口1的搜索查询",
        "针对缺口2的搜索查询"
    ],
    "covered_aspects": ["已覆盖的方面1", "已覆盖的方面2"],
    "analysis": "整体分析说明"
}
` + "```" + `

# 注意
- overall_coverage: 0-1，表示主题覆盖程度
- confidence: 0-1，表示对分析结果的置信度
- 只列出真正重要的缺口，不要过度生成
- suggested_queries 应该具体、可操作
`

const collectedKnowledgePromptLimit = 4000

// Analyzer runs gap-analysis passes against a model and accumulates a
// per-session history, implementing the IterDRAG pattern's "aggregation"
// and "gap analysis" steps.
type Analyzer struct {
	router             *modelrouter.Router
	coverageThreshold  float64
	log                telemetry.Logger

	mu      sync.Mutex
	history []Result
}

// NewAnalyzer builds an Analyzer; coverageThreshold matches the Python
// default of 0.8 when zero.
func NewAnalyzer(router *modelrouter.Router, coverageThreshold float64, log telemetry.Logger) *Analyzer {
	if coverageThreshold <= 0 {
		coverageThreshold = coverageSufficientThreshold
	}
	return &Analyzer{router: router, coverageThreshold: coverageThreshold, log: log}
}

// Analyze runs one gap-analysis pass for topic given the queries already
// executed and a summary of collected knowledge, appends the result to
// history, and returns it.
func (a *Analyzer) Analyze(ctx context.Context, topic string, executedQueries []string, collectedKnowledge string) (Result, error) {
	executed := "暂无"
	if len(executedQueries) > 0 {
		executed = strings.Join(executedQueries, ", ")
	}
	collected := "暂无收集的信息"
	if collectedKnowledge != "" {
		collected = truncateRunes(collectedKnowledge, collectedKnowledgePromptLimit)
	}

	prompt := fmt.Sprintf(promptTemplate, topic, executed, collected)
	resp, err := a.router.Complete(ctx, modelrouter.TaskGapAnalysis, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err != nil {
		return Result{}, err
	}

	result, parseErr := ParseAndValidate(resp.Content)
	if parseErr != nil {
		a.log.Warn(ctx, "gap analysis output failed validation, using tolerant parse", "error", parseErr.Error())
		result = ParseModelOutput(resp.Content)
	}

	a.mu.Lock()
	a.history = append(a.history, result)
	a.mu.Unlock()

	a.log.Info(ctx, "gap analysis complete",
		"coverage", result.OverallCoverage, "gaps", len(result.Gaps), "suggested_queries", len(result.SuggestedQueries))
	return result, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var priorityOrder = map[Importance]int{ImportanceHigh: 0, ImportanceMedium: 1, ImportanceLow: 2}

// GetPriorityQueries ranks result's gaps by importance and returns up to
// maxQueries suggested queries, preferring a query whose text mentions the
// gap's aspect, then filling remaining slots with any unused suggestions.
func GetPriorityQueries(result Result, maxQueries int) []string {
	gaps := make([]Gap, len(result.Gaps))
	copy(gaps, result.Gaps)
	sort.SliceStable(gaps, func(i, j int) bool {
		return priorityFor(gaps[i].Importance) < priorityFor(gaps[j].Importance)
	})

	used := make(map[string]bool)
	var queries []string

	for _, gap := range gaps {
		if len(queries) >= maxQueries {
			break
		}
		aspect := strings.ToLower(gap.Aspect)
		for _, q := range result.SuggestedQueries {
			if used[q] {
				continue
			}
			if strings.Contains(strings.ToLower(q), aspect) {
				used[q] = true
				queries = append(queries, q)
				break
			}
		}
	}

	for _, q := range result.SuggestedQueries {
		if len(queries) >= maxQueries {
			break
		}
		if !used[q] {
			used[q] = true
			queries = append(queries, q)
		}
	}

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

func priorityFor(i Importance) int {
	if p, ok := priorityOrder[Importance(strings.ToLower(string(i)))]; ok {
		return p
	}
	return 1
}

// IsResearchSufficient reports whether result's coverage meets the
// analyzer's threshold and it contains no high-importance gap.
func (a *Analyzer) IsResearchSufficient(result Result) bool {
	for _, g := range result.Gaps {
		if strings.ToLower(string(g.Importance)) == "high" {
			return false
		}
	}
	return result.OverallCoverage >= a.coverageThreshold
}

// CoverageTrend returns OverallCoverage across every analysis run so far.
func (a *Analyzer) CoverageTrend() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]float64, len(a.history))
	for i, r := range a.history {
		out[i] = r.OverallCoverage
	}
	return out
}

// SummarizeRemainingGaps renders the latest analysis's gaps as a
// human-readable list, or a placeholder when no analysis has run or no
// gaps remain.
func (a *Analyzer) SummarizeRemainingGaps() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.history) == 0 {
		return "No analysis performed yet."
	}
	latest := a.history[len(a.history)-1]
	if len(latest.Gaps) == 0 {
		return "No significant gaps identified."
	}
	lines := []string{"Remaining knowledge gaps:"}
	for i, g := range latest.Gaps {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s: %s", i+1, strings.ToUpper(string(g.Importance)), g.Aspect, g.Reason))
	}
	return strings.Join(lines, "\n")
}

// GenerateTargetedQueries returns up to maxQueries queries addressing
// result's gaps: result's own suggested queries first, then one
// synthesized query per remaining gap (its aspect text) until maxQueries
// is reached.
func GenerateTargetedQueries(result Result, maxQueries int) []string {
	if len(result.Gaps) == 0 {
		return nil
	}
	targeted := make([]string, len(result.SuggestedQueries))
	copy(targeted, result.SuggestedQueries)

	if len(targeted) < maxQueries {
		existing := make(map[string]bool, len(targeted))
		for _, q := range targeted {
			existing[q] = true
		}
		for _, g := range result.Gaps {
			if len(targeted) >= maxQueries {
				break
			}
			if !existing[g.Aspect] {
				existing[g.Aspect] = true
				targeted = append(targeted, g.Aspect)
			}
		}
	}
	if len(targeted) > maxQueries {
		targeted = targeted[:maxQueries]
	}
	return targeted
}

// HighPriorityAspects returns the aspect text of every high-importance gap
// in result.
func HighPriorityAspects(result Result) []string {
	var out []string
	for _, g := range result.Gaps {
		if strings.ToLower(string(g.Importance)) == "high" {
			out = append(out, g.Aspect)
		}
	}
	return out
}
