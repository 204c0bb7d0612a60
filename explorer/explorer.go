// Package explorer implements the Tree Explorer: topic decomposition into
// sub-topics, concurrent branch exploration bounded by a semaphore, and a
// writer-model merge of the completed branches into one synthesis.
// Grounded on original_source/agent/workflows/research_tree.py's
// TreeExplorer (run_async/_explore_children_async/merge_branches).
package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/deepresearch/core/cancelctl"
	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/errs"
	"github.com/deepresearch/core/eventbus"
	"github.com/deepresearch/core/modelrouter"
	"github.com/deepresearch/core/quality"
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/telemetry"
	"github.com/deepresearch/core/tree"
)

const decomposeTopicPrompt = `# 角色
你是一名研究专家，擅长将复杂话题分解为更具体的子话题进行深入研究。

# 任务
将以下主题分解为 %d 个有价值的子话题，每个子话题应该：
1. 与主话题高度相关
2. 足够具体，可以单独进行深入研究
3. 互不重叠，覆盖主题的不同方面
4. 具有研究价值，能找到有用信息

# 主题
%s

# 已知信息
%s

# 输出格式
严格按照 JSON 格式输出，包含子话题列表和每个子话题的相关性评分（0-1）：
` + "```json" + `
{
    "subtopics": [
        {"topic": "子话题1", "relevance": 0.9, "reason": "为什么这个子话题重要"},
        {"topic": "子话题2", "relevance": 0.85, "reason": "为什么这个子话题重要"}
    ]
}
` + "```" + `

# 注意事项
- 子话题数量应为 %d 个
- 每个子话题应该比原主题更具体
- 避免重复或过于相似的子话题
- 考虑不同的研究角度（定义、历史、应用、比较、未来趋势等）
`

const branchSummaryPrompt = `# 任务
总结以下搜索结果中与主题相关的关键信息。

# 主题
%s

# 搜索结果
%s

# 输出要求
- 提取关键信息和洞见
- 保持简洁，500字以内
- 使用要点列表格式
- 标注重要来源
`

const mergeBranchesPrompt = `# 任务
整合以下各分支的研究发现，生成一份统一的研究摘要。

# 各分支发现
%s

# 输出要求
- 整合所有分支的关键发现
- 识别共同主题和差异
- 按逻辑顺序组织内容
- 保留重要细节和来源
- 字数不超过1000字
`

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

// Subtopic is a decomposition candidate with its relevance score.
type Subtopic struct {
	Topic     string
	Relevance float64
}

// Explorer runs the tree-based research process.
type Explorer struct {
	router            *modelrouter.Router
	orchestrator      *search.Orchestrator
	searchStrategy    search.Strategy
	maxDepth          int
	maxBranches       int
	queriesPerBranch  int
	parallelBranches  int
	resultsPerQuery   int
	bus               *eventbus.Bus
	log               telemetry.Logger

	mu               sync.Mutex
	allSearchedURLs  []string
}

// Config collects the tunables New needs, mirroring TreeExplorer's
// constructor arguments plus the settings.tree_parallel_branches default.
type Config struct {
	MaxDepth         int
	MaxBranches      int
	QueriesPerBranch int
	ParallelBranches int
	ResultsPerQuery  int
	SearchStrategy   search.Strategy
}

// New builds an Explorer.
func New(router *modelrouter.Router, orchestrator *search.Orchestrator, bus *eventbus.Bus, log telemetry.Logger, cfg Config) *Explorer {
	if cfg.ParallelBranches <= 0 {
		cfg.ParallelBranches = 3
	}
	return &Explorer{
		router:           router,
		orchestrator:     orchestrator,
		searchStrategy:   cfg.SearchStrategy,
		maxDepth:         cfg.MaxDepth,
		maxBranches:      cfg.MaxBranches,
		queriesPerBranch: cfg.QueriesPerBranch,
		parallelBranches: cfg.ParallelBranches,
		resultsPerQuery:  cfg.ResultsPerQuery,
		bus:              bus,
		log:              log,
	}
}

func (e *Explorer) recordURL(url string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, u := range e.allSearchedURLs {
		if u == url {
			return false
		}
	}
	e.allSearchedURLs = append(e.allSearchedURLs, url)
	return true
}

// AllSearchedURLs returns every unique URL surfaced across all branches.
func (e *Explorer) AllSearchedURLs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.allSearchedURLs))
	copy(out, e.allSearchedURLs)
	return out
}

// DecomposeTopic asks the planner model to split topic into up to
// numSubtopics sub-topics, each tagged with a relevance score.
func (e *Explorer) DecomposeTopic(ctx context.Context, topic, existingKnowledge string, numSubtopics int) ([]Subtopic, error) {
	knowledge := existingKnowledge
	if knowledge == "" {
		knowledge = "暂无"
	}
	prompt := fmt.Sprintf(decomposeTopicPrompt, numSubtopics, topic, knowledge, numSubtopics)

	resp, err := e.router.Complete(ctx, modelrouter.TaskPlanning, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	data := extractJSON(resp.Content)
	rawSubtopics, _ := data["subtopics"].([]any)

	var out []Subtopic
	for _, item := range rawSubtopics {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		topicText, _ := m["topic"].(string)
		if topicText == "" {
			continue
		}
		relevance := 0.8
		if v, ok := m["relevance"].(float64); ok {
			relevance = v
		}
		out = append(out, Subtopic{Topic: topicText, Relevance: relevance})
		if len(out) >= numSubtopics {
			break
		}
	}
	return out, nil
}

// ExploreBranch runs query generation, search, and summarization for a
// single node, checking tok at every stage boundary. Findings/sources are
// accumulated into scope rather than written directly to node, so
// siblings explored concurrently never touch the same memory until
// scope.MergeInto runs.
func (e *Explorer) ExploreBranch(ctx context.Context, tok *cancelctl.Token, node *tree.Node, scope *BranchScope) {
	sessionID := tok.TaskID
	e.emitNodeStart(ctx, sessionID, node)
	defer func() { e.emitNodeComplete(ctx, sessionID, node) }()

	if err := tok.Check("branch_start"); err != nil {
		node.MarkFailed(err.Error(), time.Now().UTC())
		return
	}

	haveQuery := "[]"
	if len(node.Queries) > 0 {
		haveQuery = strings.Join(node.Queries, ", ")
	}
	summarySearch := scope.ParentSummary
	if summarySearch == "" {
		summarySearch = "暂无"
	}

	queryPrompt := fmt.Sprintf(formulateQueryPrompt, e.queriesPerBranch, node.Topic, haveQuery, summarySearch)
	resp, err := e.router.Complete(ctx, modelrouter.TaskQueryGeneration, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: queryPrompt}},
	})
	if err != nil {
		node.MarkFailed(err.Error(), time.Now().UTC())
		return
	}

	queries := quality.ParseListOutput(resp.Content)
	if !containsString(queries, node.Topic) {
		queries = append([]string{node.Topic}, queries...)
	}
	if len(queries) > e.queriesPerBranch {
		queries = queries[:e.queriesPerBranch]
	}

	for _, query := range queries {
		if err := tok.Check("branch_search"); err != nil {
			node.MarkFailed(err.Error(), time.Now().UTC())
			return
		}
		results, err := e.orchestrator.Search(ctx, e.searchStrategy, nil, query, e.resultsPerQuery)
		if err != nil {
			e.log.Warn(ctx, "branch search failed", "node", node.ID, "query", query, "error", err.Error())
			continue
		}
		for _, r := range results {
			if r.URL != "" {
				e.recordURL(r.URL)
			}
		}
		scope.AddResults(query, results, nil)
	}

	var findingsText []string
	for i, f := range scope.findings {
		if i >= 10 {
			break
		}
		snippet := f.Result.Snippet
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		findingsText = append(findingsText, fmt.Sprintf("[%d] %s\nURL: %s\n摘要: %s", i+1, firstNonEmpty(f.Result.Title, "N/A"), f.Result.URL, snippet))
	}

	scope.MergeInto(node)
	node.Queries = queries

	if len(node.Findings) > 0 {
		summaryPrompt := fmt.Sprintf(branchSummaryPrompt, node.Topic, strings.Join(findingsText, "\n\n"))
		resp, err := e.router.Complete(ctx, modelrouter.TaskSummarization, chatmodel.Request{
			Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: summaryPrompt}},
		})
		if err != nil {
			node.MarkFailed(err.Error(), time.Now().UTC())
			return
		}
		node.Summary = resp.Content
	}

	node.MarkComplete("", time.Now().UTC())
}

// MergeBranches asks the writer model to synthesize one narrative from
// every completed node's summary, capped at roughly 1000 Chinese
// characters per the original prompt's instruction.
func (e *Explorer) MergeBranches(ctx context.Context, nodes []*tree.Node) (string, error) {
	var summaries []string
	for _, n := range nodes {
		if n.Status == tree.StatusCompleted && n.Summary != "" {
			summaries = append(summaries, fmt.Sprintf("## %s\n%s", n.Topic, n.Summary))
		}
	}
	if len(summaries) == 0 {
		return "", nil
	}

	prompt := fmt.Sprintf(mergeBranchesPrompt, strings.Join(summaries, "\n\n"))
	resp, err := e.router.Complete(ctx, modelrouter.TaskWriting, chatmodel.Request{
		Messages: []chatmodel.Message{{Role: chatmodel.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// Run executes the full tree exploration: explore the root, decompose it
// into sub-topics, and explore every branch concurrently (bounded by
// parallelBranches), recursing into grandchildren while depth allows.
// On any error from the root exploration itself (a catastrophic failure,
// not a single branch's), Run returns the error so callers can fall back
// to linear mode per the Auto Runner's fallback contract.
func (e *Explorer) Run(ctx context.Context, tok *cancelctl.Token, topic string) (*tree.Tree, error) {
	t := tree.New(e.maxDepth, e.maxBranches, time.Now().UTC())
	sessionID := tok.TaskID
	root := t.CreateRoot(topic, time.Now().UTC())
	e.emitTreeUpdate(ctx, sessionID, t)

	rootScope := NewBranchScope("")
	e.ExploreBranch(ctx, tok, root, rootScope)
	e.emitTreeUpdate(ctx, sessionID, t)
	if root.Status == tree.StatusFailed {
		return nil, errs.New(errs.KindInternal, "root branch exploration failed: %s", root.Summary)
	}

	if e.maxDepth > 0 {
		subtopics, err := e.DecomposeTopic(ctx, topic, root.Summary, e.maxBranches)
		if err != nil {
			return t, nil
		}

		var children []*tree.Node
		for _, st := range subtopics {
			if child := t.AddChild(root.ID, st.Topic, st.Relevance, time.Now().UTC()); child != nil {
				children = append(children, child)
			}
		}
		e.emitTreeUpdate(ctx, sessionID, t)
		e.exploreChildrenConcurrently(ctx, tok, t, children, root.Summary)
		e.emitTreeUpdate(ctx, sessionID, t)
	}

	return t, nil
}

// exploreChildrenConcurrently explores children in parallel, bounded by a
// semaphore sized to parallelBranches, then recurses into each child's
// own children while depth allows — the Go analogue of
// _explore_children_async's asyncio.gather + semaphore pattern.
func (e *Explorer) exploreChildrenConcurrently(ctx context.Context, tok *cancelctl.Token, t *tree.Tree, children []*tree.Node, parentSummary string) {
	if len(children) == 0 {
		return
	}
	sem := make(chan struct{}, e.parallelBranches)
	var wg sync.WaitGroup

	for _, child := range children {
		wg.Add(1)
		go func(child *tree.Node) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := tok.Check("branch_explore"); err != nil {
				child.MarkFailed(err.Error(), time.Now().UTC())
				return
			}

			scope := NewBranchScope(parentSummary)
			e.ExploreBranch(ctx, tok, child, scope)

			if child.Depth < e.maxDepth {
				subtopics, err := e.DecomposeTopic(ctx, child.Topic, child.Summary, min(2, e.maxBranches))
				if err != nil {
					return
				}
				var grandchildren []*tree.Node
				for _, st := range subtopics {
					if gc := t.AddChild(child.ID, st.Topic, st.Relevance, time.Now().UTC()); gc != nil {
						grandchildren = append(grandchildren, gc)
					}
				}
				e.emitTreeUpdate(ctx, tok.TaskID, t)
				e.exploreChildrenConcurrently(ctx, tok, t, grandchildren, child.Summary)
			}
		}(child)
	}
	wg.Wait()
}

// emitNodeStart publishes a research_node_start event, matching the
// spec's {node_id, topic, depth, parent_id} payload shape.
func (e *Explorer) emitNodeStart(ctx context.Context, sessionID string, node *tree.Node) {
	if e.bus == nil {
		return
	}
	e.bus.Emit(ctx, sessionID, eventbus.KindResearchNodeStart, map[string]any{
		"node_id":   node.ID,
		"topic":     node.Topic,
		"depth":     node.Depth,
		"parent_id": node.ParentID,
	})
}

// emitNodeComplete publishes a research_node_complete event reflecting
// node's final status, summary, and sources (capped at 5, matching the
// default deepsearch_event_results_limit) regardless of whether the
// branch succeeded or failed.
func (e *Explorer) emitNodeComplete(ctx context.Context, sessionID string, node *tree.Node) {
	if e.bus == nil {
		return
	}
	sources := node.Sources
	if len(sources) > 5 {
		sources = sources[:5]
	}
	e.bus.Emit(ctx, sessionID, eventbus.KindResearchNodeComplete, map[string]any{
		"node_id": node.ID,
		"status":  node.Status,
		"summary": node.Summary,
		"sources": sources,
	})
}

// emitTreeUpdate publishes a research_tree_update event carrying a
// snapshot of the whole tree, called after every structural mutation
// (child creation) and again once a round of concurrent exploration
// finishes, matching the ordering guarantee that a tree snapshot always
// follows the mutation that produced it.
func (e *Explorer) emitTreeUpdate(ctx context.Context, sessionID string, t *tree.Tree) {
	if e.bus == nil {
		return
	}
	e.bus.Emit(ctx, sessionID, eventbus.KindResearchTreeUpdate, map[string]any{
		"tree": t.Snapshot(),
	})
}

func containsString(items []string, target string) bool {
	for _, s := range items {
		if s == target {
			return true
		}
	}
	return false
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
