// Package tree implements the hierarchical research tree: a node/edge
// model with depth- and branch-capped children, status tracking, and a
// depth-first merged summary, grounded on
// original_source/agent/workflows/research_tree.py's ResearchTreeNode and
// ResearchTree.
package tree

import (
	"time"

	"github.com/google/uuid"

	"github.com/deepresearch/core/search"
)

// Status is a node's exploration status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Finding pairs a search result with the query that produced it.
type Finding struct {
	Query     string
	Result    search.Result
	Timestamp time.Time
}

// Node is one topic or sub-topic in the research tree.
type Node struct {
	ID             string
	Topic          string
	Depth          int
	ParentID       string
	ChildrenIDs    []string
	Status         Status
	Findings       []Finding
	Sources        []string
	Summary        string
	Queries        []string
	RelevanceScore float64
	CreatedAt      time.Time
	CompletedAt    time.Time
}

// newNode constructs a Node with a fresh short id, mirroring the Python
// dataclass's `str(uuid.uuid4())[:8]` identifiers.
func newNode(topic string, depth int, parentID string, relevance float64, createdAt time.Time) *Node {
	return &Node{
		ID:             uuid.NewString()[:8],
		Topic:          topic,
		Depth:          depth,
		ParentID:       parentID,
		Status:         StatusPending,
		RelevanceScore: relevance,
		CreatedAt:      createdAt,
	}
}

// MarkComplete transitions the node to StatusCompleted, optionally
// replacing its summary.
func (n *Node) MarkComplete(summary string, completedAt time.Time) {
	n.Status = StatusCompleted
	n.CompletedAt = completedAt
	if summary != "" {
		n.Summary = summary
	}
}

// MarkFailed transitions the node to StatusFailed, recording error as its
// summary with a "[FAILED]" prefix.
func (n *Node) MarkFailed(errText string, completedAt time.Time) {
	n.Status = StatusFailed
	n.CompletedAt = completedAt
	if errText != "" {
		n.Summary = "[FAILED] " + errText
	}
}

// Snapshot is the serializable view of a Node, matching to_dict's field
// set (findings/sources collapsed to counts to keep the artifact small).
type Snapshot struct {
	ID             string   `json:"id"`
	Topic          string   `json:"topic"`
	Depth          int      `json:"depth"`
	ParentID       string   `json:"parent_id,omitempty"`
	ChildrenIDs    []string `json:"children_ids"`
	Status         Status   `json:"status"`
	FindingsCount  int      `json:"findings_count"`
	SourcesCount   int      `json:"sources_count"`
	SummaryLength  int      `json:"summary_length"`
	Queries        []string `json:"queries"`
	RelevanceScore float64  `json:"relevance_score"`
	CreatedAt      string   `json:"created_at"`
	CompletedAt    string   `json:"completed_at,omitempty"`
}

// Snapshot renders n per Node's to_dict contract.
func (n *Node) Snapshot() Snapshot {
	s := Snapshot{
		ID:             n.ID,
		Topic:          n.Topic,
		Depth:          n.Depth,
		ParentID:       n.ParentID,
		ChildrenIDs:    n.ChildrenIDs,
		Status:         n.Status,
		FindingsCount:  len(n.Findings),
		SourcesCount:   len(n.Sources),
		SummaryLength:  len(n.Summary),
		Queries:        n.Queries,
		RelevanceScore: n.RelevanceScore,
		CreatedAt:      n.CreatedAt.Format(time.RFC3339),
	}
	if !n.CompletedAt.IsZero() {
		s.CompletedAt = n.CompletedAt.Format(time.RFC3339)
	}
	return s
}
