package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAddChildRespectsDepthAndBranchCaps(t *testing.T) {
	tr := New(1, 2, time.Now())
	root := tr.CreateRoot("ai safety", time.Now())

	c1 := tr.AddChild(root.ID, "alignment", 0.9, time.Now())
	c2 := tr.AddChild(root.ID, "interpretability", 0.8, time.Now())
	require.NotNil(t, c1)
	require.NotNil(t, c2)

	// third child exceeds MaxBranches of 2
	c3 := tr.AddChild(root.ID, "governance", 0.7, time.Now())
	require.Nil(t, c3)

	// grandchild exceeds MaxDepth of 1
	gc := tr.AddChild(c1.ID, "rlhf", 0.9, time.Now())
	require.Nil(t, gc)
}

func TestAddChildUnknownParentReturnsNil(t *testing.T) {
	tr := New(2, 2, time.Now())
	require.Nil(t, tr.AddChild("missing", "x", 0.5, time.Now()))
}

func TestMergedSummarySkipsIncompleteNodes(t *testing.T) {
	tr := New(2, 2, time.Now())
	root := tr.CreateRoot("topic", time.Now())
	root.MarkComplete("root summary", time.Now())

	child := tr.AddChild(root.ID, "sub", 0.9, time.Now())
	child.MarkComplete("child summary", time.Now())

	pending := tr.AddChild(root.ID, "unexplored", 0.5, time.Now())
	require.NotNil(t, pending)

	summary := tr.MergedSummary()
	require.Contains(t, summary, "## topic")
	require.Contains(t, summary, "root summary")
	require.Contains(t, summary, "  ## sub")
	require.Contains(t, summary, "child summary")
	require.NotContains(t, summary, "unexplored")
}

func TestAllSourcesDedupesAcrossNodes(t *testing.T) {
	tr := New(2, 2, time.Now())
	root := tr.CreateRoot("topic", time.Now())
	root.Sources = []string{"https://a.example", "https://b.example"}
	child := tr.AddChild(root.ID, "sub", 0.9, time.Now())
	child.Sources = []string{"https://b.example", "https://c.example"}

	require.ElementsMatch(t, []string{"https://a.example", "https://b.example", "https://c.example"}, tr.AllSources())
}

func TestMarkFailedPrefixesSummary(t *testing.T) {
	n := newNode("x", 0, "", 1.0, time.Now())
	n.MarkFailed("boom", time.Now())
	require.Equal(t, StatusFailed, n.Status)
	require.Equal(t, "[FAILED] boom", n.Summary)
}

func TestAllNodesReturnsEveryNode(t *testing.T) {
	tr := New(2, 2, time.Now())
	root := tr.CreateRoot("topic", time.Now())
	child := tr.AddChild(root.ID, "sub", 0.9, time.Now())

	nodes := tr.AllNodes()
	require.Len(t, nodes, 2)
	ids := []string{nodes[0].ID, nodes[1].ID}
	require.ElementsMatch(t, []string{root.ID, child.ID}, ids)
}
