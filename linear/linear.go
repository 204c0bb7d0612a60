// Package linear implements the multi-epoch linear research runner: query
// generation, search, URL relevance picking, optional crawler hydration,
// and a critic-model "enough knowledge" check repeated until the epoch
// budget is spent or the critic says to stop. Grounded on
// original_source/agent/deepsearch.py's run_deepsearch.
package linear

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/deepresearch/core/cancelctl"
	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/crawler"
	"github.com/deepresearch/core/eventbus"
	"github.com/deepresearch/core/gapanalysis"
	"github.com/deepresearch/core/modelrouter"
	"github.com/deepresearch/core/quality"
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/telemetry"
)

// formulateQueryPrompt is the same prompt text explorer.go uses for query
// generation, duplicated here rather than exported from explorer: the
// Python original imports both from one prompts.templates.deepsearch
// module, but a shared prompt constant isn't worth an import cycle
// between the two runner packages for text that happens to coincide.
const formulateQueryPrompt = `# 任务
为以下研究主题生成 %d 条搜索查询。

# 主题
%s

# 已有查询
%s

# 已知摘要
%s

# 输出要求
以 Python 列表字面量的形式输出查询，例如 ["query one", "query two"]。
`

const relatedURLPrompt = `# 任务
从以下搜索结果中挑选最相关、最值得深入阅读的链接。

# 主题
%s

# 搜索结果
%s

# 输出要求
最多挑选 %d 个链接，以 Python 列表字面量的形式输出 URL，例如 ["https://a.com", "https://b.com"]。
只输出搜索结果中出现过的 URL。
`

const summaryCrawlPrompt = `# 任务
判断目前已收集的信息是否足以回答研究主题，并给出本轮新增知识的总结。

# 主题
%s

# 本轮搜索与阅读结果
%s

# 输出格式
先给出总结，再给出判断。格式如下：
总结：<对本轮新增知识的简要总结>
回答：<yes 表示信息已经足够，no 表示还需要继续搜索>
`

const finalSummaryPrompt = `# 任务
基于以下研究过程中积累的所有笔记，撰写一份完整的研究报告。

# 主题
%s

# 研究笔记
%s

# 输出要求
- 报告结构清晰，包含引言、主体和结论
- 整合所有笔记中的关键信息，避免重复
- 保留重要来源
`

// summaryTextPromptFallback is the static report text used when an epoch
// loop produced zero summary notes at all, matching the Python original's
// avoidance of a final LLM call with nothing to write about.
const summaryTextPromptFallback = "未能收集到足够的研究资料，无法生成报告。"

// SearchRun records one epoch's one query: the query text, the results it
// returned, and when it ran, mirroring _save_deepsearch_data's
// search_runs field.
type SearchRun struct {
	Query     string
	Results   []search.Result
	Timestamp time.Time
}

// Result is the outcome of a full linear run.
type Result struct {
	Topic              string
	Queries            []string
	Summaries          []string
	SearchRuns         []SearchRun
	FinalReport        string
	EpochsRun          int
	Sources            []string
	BudgetStopReason   cancelctl.StopReason
	QualityDiagnostics quality.Diagnostics
}

// Runner runs the multi-epoch linear exploration loop.
type Runner struct {
	router       *modelrouter.Router
	orchestrator *search.Orchestrator
	crawler      *crawler.Crawler
	bus          *eventbus.Bus
	analyzer     *gapanalysis.Analyzer
	strategy     search.Strategy
	log          telemetry.Logger

	maxEpochs       int
	queryNum        int
	resultsPerQuery int
	enableCrawler   bool

	maxSeconds        float64
	maxTokens         int
	freshnessMinKnown int
	freshnessMinRatio float64
	eventResultsLimit int
}

// Config collects the tunables New needs, mirroring the
// deepsearch_max_epochs/deepsearch_query_num/deepsearch_results_per_query/
// deepsearch_enable_crawler settings plus the budget, gap-analysis and
// freshness-diagnostic knobs the epoch loop now consults.
type Config struct {
	MaxEpochs       int
	QueryNum        int
	ResultsPerQuery int
	EnableCrawler   bool
	Strategy        search.Strategy

	MaxSeconds float64
	MaxTokens  int

	UseGapAnalysis           bool
	FreshnessWarningMinKnown int
	FreshnessWarningMinRatio float64
	EventResultsLimit        int
}

// New builds a Runner. c may be nil when crawler hydration is disabled; bus
// may be nil when no subscriber cares about lifecycle events.
func New(router *modelrouter.Router, orchestrator *search.Orchestrator, c *crawler.Crawler, bus *eventbus.Bus, log telemetry.Logger, cfg Config) *Runner {
	if cfg.MaxEpochs <= 0 {
		cfg.MaxEpochs = 3
	}
	if cfg.QueryNum <= 0 {
		cfg.QueryNum = 5
	}
	if cfg.ResultsPerQuery <= 0 {
		cfg.ResultsPerQuery = 5
	}
	if cfg.FreshnessWarningMinKnown <= 0 {
		cfg.FreshnessWarningMinKnown = 3
	}
	if cfg.FreshnessWarningMinRatio <= 0 {
		cfg.FreshnessWarningMinRatio = 0.4
	}
	if cfg.EventResultsLimit <= 0 || cfg.EventResultsLimit > 20 {
		cfg.EventResultsLimit = 5
	}

	var analyzer *gapanalysis.Analyzer
	if cfg.UseGapAnalysis {
		analyzer = gapanalysis.NewAnalyzer(router, 0, log)
	}

	return &Runner{
		router:            router,
		orchestrator:      orchestrator,
		crawler:           c,
		bus:               bus,
		analyzer:          analyzer,
		strategy:          cfg.Strategy,
		log:               log,
		maxEpochs:         cfg.MaxEpochs,
		queryNum:          cfg.QueryNum,
		resultsPerQuery:   cfg.ResultsPerQuery,
		enableCrawler:     cfg.EnableCrawler,
		maxSeconds:        cfg.MaxSeconds,
		maxTokens:         cfg.MaxTokens,
		freshnessMinKnown: cfg.FreshnessWarningMinKnown,
		freshnessMinRatio: cfg.FreshnessWarningMinRatio,
		eventResultsLimit: cfg.EventResultsLimit,
	}
}

// topURLs bounds how many URLs the critic model may pick per epoch,
// matching top_urls = max(3, min(5, per_query_results)).
func (r *Runner) topURLs() int {
	n := r.resultsPerQuery
	if n > 5 {
		n = 5
	}
	if n < 3 {
		n = 3
	}
	return n
}

// Run executes run_deepsearch's epoch loop: generate queries, search all
// of them, pick the most relevant URLs, optionally hydrate thin ones via
// the crawler, summarize the epoch's new knowledge and ask the critic
// whether that's enough, and stop early when it says so or a knowledge-gap
// pass judges coverage sufficient. A time/token budget is checked at the
// top of every epoch and before every search call; once it trips, the
// loop stops cleanly with BudgetStopReason set instead of spending more.
func (r *Runner) Run(ctx context.Context, tok *cancelctl.Token, topic string) (Result, error) {
	result := Result{Topic: topic}
	haveQuery := map[string]struct{}{}
	sourcesSeen := map[string]struct{}{}
	var allResults []search.Result
	var missingTopics []string

	sessionID := tok.TaskID
	budget := cancelctl.NewBudget(r.maxSeconds, r.maxTokens)

	for epoch := 0; epoch < r.maxEpochs; epoch++ {
		if err := tok.Check("linear_epoch_start"); err != nil {
			return result, err
		}
		if reason := budget.Check(); reason != cancelctl.StopNone {
			result.BudgetStopReason = reason
			break
		}
		result.EpochsRun = epoch + 1

		queries, err := r.generateQueries(ctx, topic, result.Queries, result.Summaries, epoch, missingTopics)
		if err != nil {
			return result, err
		}
		for _, q := range queries {
			haveQuery[strings.ToLower(q)] = struct{}{}
			budget.AddTokens(config.EstimateTokens(q))
		}
		result.Queries = append(result.Queries, queries...)

		var epochResults []search.Result
		for _, q := range queries {
			if err := tok.Check("linear_epoch_search"); err != nil {
				return result, err
			}
			if reason := budget.Check(); reason != cancelctl.StopNone {
				result.BudgetStopReason = reason
				break
			}
			hits, err := r.orchestrator.Search(ctx, r.strategy, nil, q, r.resultsPerQuery)
			if err != nil {
				r.log.Warn(ctx, "linear search failed", "query", q, "error", err.Error())
				continue
			}
			result.SearchRuns = append(result.SearchRuns, SearchRun{Query: q, Results: hits, Timestamp: time.Now().UTC()})
			epochResults = append(epochResults, hits...)
			allResults = append(allResults, hits...)

			breakdown := map[string]int{}
			for _, h := range hits {
				if h.URL != "" {
					sourcesSeen[search.CanonicalURL(h.URL)] = struct{}{}
				}
				if h.Provider != "" {
					breakdown[h.Provider]++
				}
				budget.AddTokens(config.EstimateTokens(h.Title + " " + truncate(h.Snippet, 200)))
			}
			r.emitSearch(ctx, sessionID, epoch, q, hits, breakdown)
		}
		if result.BudgetStopReason != "" {
			break
		}

		if len(epochResults) == 0 {
			r.emitQualityUpdate(ctx, sessionID, epoch, quality.Diagnostics{})
			r.emitNodeComplete(ctx, sessionID, epoch, "", nil)
			continue
		}

		chosen := r.pickRelevantResults(ctx, topic, epochResults)
		if r.enableCrawler && r.crawler != nil {
			chosen = r.hydrateWithCrawler(ctx, chosen)
		}

		enough, summary, err := r.summarizeEpoch(ctx, topic, chosen)
		if err != nil {
			return result, err
		}
		if summary != "" {
			result.Summaries = append(result.Summaries, summary)
			budget.AddTokens(config.EstimateTokens(summary))
		}

		missingTopics = nil
		if r.analyzer != nil && !enough && epoch < r.maxEpochs-1 {
			collected := strings.Join(result.Summaries, "\n")
			gapResult, gerr := r.analyzer.Analyze(ctx, topic, result.Queries, collected)
			if gerr != nil {
				r.log.Warn(ctx, "gap analysis failed", "error", gerr.Error())
			} else {
				missingTopics = gapanalysis.HighPriorityAspects(gapResult)
				if r.analyzer.IsResearchSufficient(gapResult) {
					enough = true
				}
			}
		}

		result.QualityDiagnostics = quality.ComputeDiagnostics(topic, result.Queries, allResults, time.Now().UTC(), r.freshnessMinKnown, r.freshnessMinRatio)
		r.emitQualityUpdate(ctx, sessionID, epoch, result.QualityDiagnostics)
		r.emitNodeComplete(ctx, sessionID, epoch, summary, chosen)

		if enough {
			break
		}
	}

	for u := range sourcesSeen {
		result.Sources = append(result.Sources, u)
	}
	sort.Strings(result.Sources)

	report, err := r.finalReport(ctx, topic, result.Summaries)
	if err != nil {
		return result, err
	}
	budget.AddTokens(config.EstimateTokens(report))
	if note := result.QualityDiagnostics.FreshnessWarningNote(); note != "" {
		report = report + "\n\n" + note
	}
	result.FinalReport = report
	return result, nil
}

// emitSearch publishes a search event for one query's results, matching
// the search event's {query, provider, provider_breakdown, results,
// count, epoch, mode} payload shape. A no-op when no bus is attached.
func (r *Runner) emitSearch(ctx context.Context, sessionID string, epoch int, query string, hits []search.Result, breakdown map[string]int) {
	if r.bus == nil {
		return
	}
	provider := "unknown"
	switch len(breakdown) {
	case 0:
	case 1:
		for name := range breakdown {
			provider = name
		}
	default:
		provider = "multi"
	}
	r.bus.Emit(ctx, sessionID, eventbus.KindSearch, map[string]any{
		"query":              query,
		"provider":           provider,
		"provider_breakdown": breakdown,
		"results":            compactResults(hits, r.eventResultsLimit),
		"count":              len(hits),
		"epoch":              epoch,
		"mode":               "linear",
	})
}

// emitQualityUpdate publishes a quality_update event from diag, matching
// the spec's {epoch, stage, query_coverage, ...} payload shape.
func (r *Runner) emitQualityUpdate(ctx context.Context, sessionID string, epoch int, diag quality.Diagnostics) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(ctx, sessionID, eventbus.KindQualityUpdate, map[string]any{
		"epoch":                    epoch,
		"stage":                    "epoch_complete",
		"query_coverage":           diag.QueryCoverage,
		"query_coverage_score":     diag.QueryCoverage.Score,
		"query_dimensions_covered": diag.QueryCoverage.CoveredDimensions,
		"query_dimensions_missing": diag.QueryCoverage.MissingDimensions,
		"query_dimension_hits":     diag.QueryCoverage.DimensionHits,
		"freshness_summary":        diag.Freshness,
		"time_sensitive_query":     diag.TimeSensitive,
		"freshness_warning":        diag.FreshnessWarning,
	})
}

// emitNodeComplete publishes a research_node_complete event for the epoch,
// treating each epoch as a pseudo-node since the linear runner has no
// tree. sources is deduped by canonical URL and capped at
// eventResultsLimit, matching the spec's per-kind result cap.
func (r *Runner) emitNodeComplete(ctx context.Context, sessionID string, epoch int, summary string, sources []search.Result) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(ctx, sessionID, eventbus.KindResearchNodeComplete, map[string]any{
		"node_id": fmt.Sprintf("epoch-%d", epoch),
		"summary": summary,
		"sources": compactResults(sources, r.eventResultsLimit),
		"epoch":   epoch,
	})
}

// compactResults renders up to limit results as the compact {title, url,
// score, provider, published_date} maps every lifecycle event embeds,
// deduped by canonical URL.
func compactResults(results []search.Result, limit int) []map[string]any {
	if limit <= 0 {
		limit = 5
	}
	seen := map[string]struct{}{}
	out := make([]map[string]any, 0, limit)
	for _, res := range results {
		if len(out) >= limit {
			break
		}
		if res.URL != "" {
			key := search.CanonicalURL(res.URL)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, map[string]any{
			"title":          res.Title,
			"url":            res.URL,
			"score":          res.Score,
			"provider":       res.Provider,
			"published_date": res.PublishedAt,
		})
	}
	return out
}

// generateQueries asks the query-generation model for r.queryNum new queries,
// forcing the raw topic into the list on epoch 0 when the model didn't
// already propose it, folding in missingTopics (high-priority aspects a
// prior gap-analysis pass flagged) as an additional hint, and deduping
// case-insensitively against every query already issued in a prior epoch.
func (r *Runner) generateQueries(ctx context.Context, topic string, haveQuery, summaries []string, epoch int, missingTopics []string) ([]string, error) {
	haveList := "[]"
	if len(haveQuery) > 0 {
		haveList = strings.Join(haveQuery, ", ")
	}
	summaryText := "暂无"
	if len(summaries) > 0 {
		summaryText = strings.Join(summaries, "\n")
	}
	if len(missingTopics) > 0 {
		summaryText += "\n\n# 待补充的知识缺口\n" + strings.Join(missingTopics, "; ")
	}

	prompt := fmt.Sprintf(formulateQueryPrompt, r.queryNum, topic, haveList, summaryText)
	resp, err := r.router.Complete(ctx, modelrouter.TaskQueryGeneration, chatmodel.Request{
		Temperature: 0.8,
		Messages:    []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	parsed := quality.ParseListOutput(resp.Content)

	seen := map[string]struct{}{}
	for _, q := range haveQuery {
		seen[strings.ToLower(q)] = struct{}{}
	}

	var queries []string
	if epoch == 0 {
		if _, ok := seen[strings.ToLower(topic)]; !ok {
			queries = append(queries, topic)
			seen[strings.ToLower(topic)] = struct{}{}
		}
	}
	for _, q := range parsed {
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, q)
		if len(queries) >= r.queryNum {
			break
		}
	}
	return queries, nil
}

// pickRelevantResults asks the critic model to choose up to topURLs()
// results by URL, falling back to the top-scored results when the model
// returns nothing — matching _pick_relevant_urls's behavior exactly.
func (r *Runner) pickRelevantResults(ctx context.Context, topic string, results []search.Result) []search.Result {
	if len(results) == 0 {
		return nil
	}
	max := r.topURLs()

	byURL := make(map[string]search.Result, len(results))
	var listing strings.Builder
	for i, res := range results {
		if res.URL == "" {
			continue
		}
		if _, ok := byURL[res.URL]; !ok {
			byURL[res.URL] = res
			fmt.Fprintf(&listing, "[%d] %s\nURL: %s\n摘要: %s\n\n", i+1, res.Title, res.URL, res.Snippet)
		}
	}

	prompt := fmt.Sprintf(relatedURLPrompt, topic, listing.String(), max)
	resp, err := r.router.Complete(ctx, modelrouter.TaskCritique, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err == nil {
		urls := quality.ParseListOutput(resp.Content)
		var picked []search.Result
		seen := map[string]struct{}{}
		for _, u := range urls {
			if _, ok := seen[u]; ok {
				continue
			}
			if res, ok := byURL[u]; ok {
				seen[u] = struct{}{}
				picked = append(picked, res)
			}
			if len(picked) >= max {
				break
			}
		}
		if len(picked) > 0 {
			return picked
		}
	} else {
		r.log.Warn(ctx, "relevant-url pick failed, falling back to top-scored", "error", err.Error())
	}

	sorted := search.SortByScoreDesc(results)
	if len(sorted) > max {
		sorted = sorted[:max]
	}
	return sorted
}

// hydrateWithCrawler crawls any chosen result whose existing excerpt is
// under 200 characters, truncating crawled content to 1200 chars for
// RawExcerpt and, only when Snippet was previously empty, to 400 chars
// for Snippet — matching _hydrate_with_crawler's thresholds exactly.
func (r *Runner) hydrateWithCrawler(ctx context.Context, results []search.Result) []search.Result {
	var thin []string
	for _, res := range results {
		excerpt := res.RawExcerpt
		if excerpt == "" {
			excerpt = res.Snippet
		}
		if len(excerpt) < 200 && res.URL != "" {
			thin = append(thin, res.URL)
		}
	}
	if len(thin) == 0 {
		return results
	}

	pages := r.crawler.CrawlURLs(ctx, thin)
	byURL := make(map[string]string, len(pages))
	for _, p := range pages {
		if !p.Failed {
			byURL[p.URL] = p.Content
		}
	}

	out := make([]search.Result, len(results))
	copy(out, results)
	for i, res := range out {
		content, ok := byURL[res.URL]
		if !ok {
			continue
		}
		out[i].RawExcerpt = truncate(content, 1200)
		if out[i].Snippet == "" {
			out[i].Snippet = truncate(content, 400)
		}
	}
	return out
}

// summarizeEpoch asks the critic model to summarize this epoch's new
// knowledge and judge whether it's enough, replicating the Python
// original's "回答"/"yes"/"总结" substring heuristic verbatim rather than
// asking for structured JSON, since that's what the ported prompt format
// produces.
func (r *Runner) summarizeEpoch(ctx context.Context, topic string, results []search.Result) (bool, string, error) {
	if len(results) == 0 {
		return false, "", nil
	}

	var listing strings.Builder
	for i, res := range results {
		excerpt := res.RawExcerpt
		if excerpt == "" {
			excerpt = res.Snippet
		}
		fmt.Fprintf(&listing, "[%d] %s\nURL: %s\n内容: %s\n\n", i+1, res.Title, res.URL, excerpt)
	}

	prompt := fmt.Sprintf(summaryCrawlPrompt, topic, listing.String())
	resp, err := r.router.Complete(ctx, modelrouter.TaskCritique, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err != nil {
		return false, "", err
	}

	content := resp.Content
	lowered := strings.ToLower(content)

	enough := false
	if idx := strings.Index(lowered, "回答"); idx != -1 {
		enough = strings.Contains(lowered[idx:], "yes")
	}

	summary := content
	if idx := strings.Index(content, "总结"); idx != -1 {
		summary = strings.TrimLeft(content[idx+len("总结"):], ":：\n \t")
	}
	return enough, strings.TrimSpace(summary), nil
}

// finalReport writes the closing report from every epoch's summary note,
// using the static fallback text instead of a model call when the loop
// never produced a single summary, matching _final_report's early exit.
func (r *Runner) finalReport(ctx context.Context, topic string, summaries []string) (string, error) {
	if len(summaries) == 0 {
		return summaryTextPromptFallback, nil
	}
	prompt := fmt.Sprintf(finalSummaryPrompt, topic, strings.Join(summaries, "\n\n"))
	resp, err := r.router.Complete(ctx, modelrouter.TaskWriting, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
