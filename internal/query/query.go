// Package query implements read-only derivations over graph snapshots:
// ready-work detection, blocked-chain traversal, and subtree rollups.
//
// Every function here is pure. Callers obtain a snapshot from the
// session coordinator; nothing in this package mutates state or
// observes a revision mid-mutation.
package query

import (
	"fmt"
	"sort"

	"github.com/HendryAvila/beads-mcp/internal/graph"
)

// Filter narrows a ready-work listing.
type Filter struct {
	Assignee string     // exact assignee match when non-empty
	Kind     graph.Kind // issue kind when non-empty
	Priority *int       // exact priority when set
	Limit    int        // max results, 0 = unlimited
}

// ReadyWork returns the issues eligible to be worked on now: status
// open or in_progress, with every incoming blocks edge satisfied by a
// closed blocker. Results are ordered by priority (P0 first), then
// creation time (oldest first), then id.
func ReadyWork(snap *graph.Snapshot, f Filter) []*graph.Issue {
	var ready []*graph.Issue
	for _, id := range snap.IDs() {
		issue := snap.Issue(id)
		if issue.Status != graph.StatusOpen && issue.Status != graph.StatusInProgress {
			continue
		}
		if f.Assignee != "" && issue.Assignee != f.Assignee {
			continue
		}
		if f.Kind != "" && issue.Kind != f.Kind {
			continue
		}
		if f.Priority != nil && issue.Priority != *f.Priority {
			continue
		}
		if len(openBlockers(snap, id)) > 0 {
			continue
		}
		ready = append(ready, issue)
	}

	sort.Slice(ready, func(a, b int) bool {
		if ready[a].Priority != ready[b].Priority {
			return ready[a].Priority < ready[b].Priority
		}
		if !ready[a].CreatedAt.Equal(ready[b].CreatedAt) {
			return ready[a].CreatedAt.Before(ready[b].CreatedAt)
		}
		return ready[a].ID < ready[b].ID
	})

	if f.Limit > 0 && len(ready) > f.Limit {
		ready = ready[:f.Limit]
	}
	return ready
}

// openBlockers returns the ids of unfinished issues holding blocks
// edges into id. A blocker missing from the snapshot counts as still
// blocking: incomplete data must not make work look ready.
func openBlockers(snap *graph.Snapshot, id string) []string {
	var blockers []string
	for _, e := range snap.Incoming(id, graph.EdgeBlocks) {
		blocker := snap.Issue(e.From)
		if blocker == nil || blocker.Status != graph.StatusClosed {
			blockers = append(blockers, e.From)
		}
	}
	return blockers
}

// BlockedChain returns the minimal set of open blocking ancestors that
// must close before id becomes ready. Breadth-first over incoming
// blocks edges, stopping at closed nodes; terminates because the
// blocks subgraph is acyclic.
func BlockedChain(snap *graph.Snapshot, id string) ([]*graph.Issue, error) {
	if snap.Issue(id) == nil {
		return nil, fmt.Errorf("issue %s: %w", id, graph.ErrNotFound)
	}

	var chain []*graph.Issue
	visited := map[string]bool{id: true}
	frontier := []string{id}
	for len(frontier) > 0 {
		var next []string
		for _, cur := range frontier {
			for _, e := range snap.Incoming(cur, graph.EdgeBlocks) {
				if visited[e.From] {
					continue
				}
				visited[e.From] = true
				blocker := snap.Issue(e.From)
				if blocker == nil || blocker.Status == graph.StatusClosed {
					continue
				}
				chain = append(chain, blocker)
				next = append(next, e.From)
			}
		}
		frontier = next
	}
	return chain, nil
}

// Node is one issue in a subtree, with its parent_of children.
type Node struct {
	Issue    *graph.Issue `json:"issue"`
	Children []*Node      `json:"children,omitempty"`
}

// SubtreeResult is a parent_of tree rooted at an epic, with the
// aggregate completion of its descendants.
type SubtreeResult struct {
	Root          *Node   `json:"root"`
	Descendants   int     `json:"descendants"`
	Closed        int     `json:"closed"`
	PercentClosed float64 `json:"percent_closed"`
}

// Subtree returns every issue reachable from rootID via parent_of
// edges, as a tree, plus the percentage of descendants closed. A
// visited set guards against parent_of loops, which the store does not
// forbid (only the blocks subgraph carries the acyclicity invariant).
func Subtree(snap *graph.Snapshot, rootID string) (*SubtreeResult, error) {
	rootIssue := snap.Issue(rootID)
	if rootIssue == nil {
		return nil, fmt.Errorf("issue %s: %w", rootID, graph.ErrNotFound)
	}

	visited := map[string]bool{rootID: true}
	root := buildNode(snap, rootIssue, visited)

	res := &SubtreeResult{Root: root}
	countClosed(root, &res.Descendants, &res.Closed)
	res.Descendants-- // the root is not its own descendant
	if root.Issue.Status == graph.StatusClosed {
		res.Closed--
	}
	if res.Descendants > 0 {
		res.PercentClosed = 100 * float64(res.Closed) / float64(res.Descendants)
	}
	return res, nil
}

func buildNode(snap *graph.Snapshot, issue *graph.Issue, visited map[string]bool) *Node {
	node := &Node{Issue: issue}
	for _, e := range snap.Outgoing(issue.ID, graph.EdgeParentOf) {
		if visited[e.To] {
			continue
		}
		child := snap.Issue(e.To)
		if child == nil {
			continue
		}
		visited[e.To] = true
		node.Children = append(node.Children, buildNode(snap, child, visited))
	}
	return node
}

func countClosed(node *Node, total, closed *int) {
	*total++
	if node.Issue.Status == graph.StatusClosed {
		*closed++
	}
	for _, child := range node.Children {
		countClosed(child, total, closed)
	}
}

// Stats aggregates snapshot-wide counts for the stats resource.
type Stats struct {
	Issues   int                  `json:"issues"`
	Edges    int                  `json:"edges"`
	ByStatus map[graph.Status]int `json:"by_status"`
	ByKind   map[graph.Kind]int   `json:"by_kind"`
	Ready    int                  `json:"ready"`
	Revision uint64               `json:"revision"`
}

// TrackerStats computes issue and edge totals, breakdowns by status
// and kind, and how many issues are ready right now.
func TrackerStats(snap *graph.Snapshot) Stats {
	st := Stats{
		Issues:   snap.Len(),
		Edges:    snap.EdgeCount(),
		ByStatus: make(map[graph.Status]int),
		ByKind:   make(map[graph.Kind]int),
		Ready:    len(ReadyWork(snap, Filter{})),
		Revision: snap.Revision(),
	}
	for _, id := range snap.IDs() {
		issue := snap.Issue(id)
		st.ByStatus[issue.Status]++
		st.ByKind[issue.Kind]++
	}
	return st
}
