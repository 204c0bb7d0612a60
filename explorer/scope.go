package explorer

import (
	"github.com/deepresearch/core/search"
	"github.com/deepresearch/core/tree"
)

// BranchScope is the isolated working context a single goroutine uses
// while exploring one tree branch: a read-only view of the parent's
// accumulated knowledge, plus writable accumulators the branch fills in
// independently so concurrent siblings never contend on shared state.
// Grounded on research_tree.py's fork_state/merge_state isolation around
// _explore_children_async, reimplemented with plain structs instead of a
// shared mutable state dict since Go branches run as real goroutines
// rather than cooperatively scheduled coroutines.
type BranchScope struct {
	// ParentSummary is the read-only accumulated summary of the branch's
	// ancestors, used as "existing_knowledge" context for decomposition
	// and query generation.
	ParentSummary string

	queries  []string
	findings []tree.Finding
	sources  []string
}

// NewBranchScope creates a scope seeded with the parent's summary.
func NewBranchScope(parentSummary string) *BranchScope {
	return &BranchScope{ParentSummary: parentSummary}
}

// AddResults records one query's search results into the scope's local
// accumulators, deduping sources against what's already in this branch
// only (MergeInto does not dedup either; tree.Tree.AllSources dedups
// across nodes when sources are collected).
func (b *BranchScope) AddResults(query string, results []search.Result, timestamp func() string) {
	b.queries = append(b.queries, query)
	seen := make(map[string]struct{}, len(b.sources))
	for _, s := range b.sources {
		seen[s] = struct{}{}
	}
	for _, r := range results {
		if r.URL != "" {
			if _, ok := seen[r.URL]; !ok {
				seen[r.URL] = struct{}{}
				b.sources = append(b.sources, r.URL)
			}
		}
		b.findings = append(b.findings, tree.Finding{Query: query, Result: r})
	}
}

// MergeInto writes the scope's accumulated queries/findings/sources into
// node. ExploreBranch calls it once, inside the branch's goroutine, after
// the branch's searches finish; it writes node's fields directly and takes
// no lock.
func (b *BranchScope) MergeInto(node *tree.Node) {
	node.Queries = b.queries
	node.Findings = append(node.Findings, b.findings...)
	node.Sources = append(node.Sources, b.sources...)
}
