package explorer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/deepresearch/core/cancelctl"
	"github.com/deepresearch/core/chatmodel"
	"github.com/deepresearch/core/config"
	"github.com/deepresearch/core/modelrouter"
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/telemetry"
	"github.com/deepresearch/core/tree"
)

// scriptedModel returns queued responses in order, repeating the last one
// once exhausted, so a single stub can drive every Explorer call site
// (decomposition, query generation, summarization) within one test.
type scriptedModel struct {
	responses []string
	calls     int
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Complete(_ context.Context, _ chatmodel.Request) (chatmodel.Response, error) {
	idx := m.calls
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	m.calls++
	return chatmodel.Response{Content: m.responses[idx]}, nil
}

type stubSearchProvider struct {
	results []search.Result
}

func (p *stubSearchProvider) Name() string      { return "tavily" }
func (p *stubSearchProvider) IsAvailable() bool { return true }
func (p *stubSearchProvider) Search(_ context.Context, _ string, maxResults int) ([]search.Result, error) {
	out := p.results
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func newTestExplorer(t *testing.T, model chatmodel.Model, providerResults []search.Result) *Explorer {
	t.Helper()
	cfg := config.Config{PrimaryModel: "scripted"}
	router := modelrouter.New(cfg, map[string]chatmodel.Model{"scripted": model})

	orch := search.NewOrchestrator()
	orch.Register(&stubSearchProvider{results: providerResults})

	log := telemetry.NewNoop().Logger
	return New(router, orch, nil, log, Config{
		MaxDepth:         1,
		MaxBranches:      2,
		QueriesPerBranch: 2,
		ParallelBranches: 2,
		ResultsPerQuery:  5,
		SearchStrategy:   search.StrategyFallback,
	})
}

func TestDecomposeTopicParsesSubtopics(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"```json\n{\"subtopics\": [{\"topic\": \"history\", \"relevance\": 0.8}, {\"topic\": \"applications\", \"relevance\": 0.6}]}\n```",
	}}
	e := newTestExplorer(t, model, nil)

	subtopics, err := e.DecomposeTopic(context.Background(), "quantum computing", "", 2)
	require.NoError(t, err)
	require.Len(t, subtopics, 2)
	require.Equal(t, "history", subtopics[0].Topic)
	require.Equal(t, 0.6, subtopics[1].Relevance)
}

func TestExploreBranchMarksNodeCompleteAndMergesScope(t *testing.T) {
	model := &scriptedModel{responses: []string{
		`["quantum computing basics", "quantum computing history"]`,
		"a concise branch summary",
	}}
	results := []search.Result{{Title: "hit", URL: "https://example.com/a", Snippet: "relevant content"}}
	e := newTestExplorer(t, model, results)

	reg := cancelctl.NewRegistry(0, telemetry.NewNoop())
	tok := reg.CreateToken(context.Background(), "task-1", nil)

	tr := tree.New(1, 2, time.Now())
	node := tr.CreateRoot("quantum computing", time.Now())
	scope := NewBranchScope("")

	e.ExploreBranch(context.Background(), tok, node, scope)

	require.Equal(t, tree.StatusCompleted, node.Status)
	require.Equal(t, "a concise branch summary", node.Summary)
	require.NotEmpty(t, node.Sources)
	require.NotEmpty(t, node.Queries)
}

func TestExploreBranchFailsWhenTokenAlreadyCancelled(t *testing.T) {
	model := &scriptedModel{responses: []string{"[]"}}
	e := newTestExplorer(t, model, nil)

	reg := cancelctl.NewRegistry(0, telemetry.NewNoop())
	ctx := context.Background()
	tok := reg.CreateToken(ctx, "task-2", nil)
	reg.Cancel(ctx, "task-2", "stopped")

	tr := tree.New(1, 2, time.Now())
	node := tr.CreateRoot("topic", time.Now())
	scope := NewBranchScope("")

	e.ExploreBranch(ctx, tok, node, scope)
	require.Equal(t, tree.StatusFailed, node.Status)
}

func TestMergeBranchesSynthesizesCompletedSummaries(t *testing.T) {
	model := &scriptedModel{responses: []string{"a unified synthesis"}}
	e := newTestExplorer(t, model, nil)

	tr := tree.New(1, 2, time.Now())
	root := tr.CreateRoot("topic", time.Now())
	root.MarkComplete("root findings", time.Now())
	child := tr.AddChild(root.ID, "sub", 0.9, time.Now())
	child.MarkComplete("child findings", time.Now())
	pending := tr.AddChild(root.ID, "unexplored", 0.5, time.Now())
	require.NotNil(t, pending)

	summary, err := e.MergeBranches(context.Background(), []*tree.Node{root, child, pending})
	require.NoError(t, err)
	require.Equal(t, "a unified synthesis", summary)
}

func TestMergeBranchesReturnsEmptyWhenNothingCompleted(t *testing.T) {
	model := &scriptedModel{responses: []string{"unused"}}
	e := newTestExplorer(t, model, nil)

	tr := tree.New(1, 2, time.Now())
	root := tr.CreateRoot("topic", time.Now())

	summary, err := e.MergeBranches(context.Background(), []*tree.Node{root})
	require.NoError(t, err)
	require.Empty(t, summary)
}
