package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Store is the authoritative in-memory issue graph. Issues live in a
// map keyed by id; edges are indexed by both endpoints so neighbor
// lookups are O(1) in either direction.
//
// Store methods validate structural invariants (existing endpoints,
// no duplicate edges, blocks-acyclicity) but perform no locking and
// no I/O. The session coordinator owns both.
type Store struct {
	issues   map[string]*Issue
	out      map[string][]Edge // edges keyed by From
	in       map[string][]Edge // edges keyed by To
	counters map[string]int    // id prefix -> highest numeric suffix assigned
	used     map[string]bool   // every id ever assigned, deletions included
	revision uint64
}

// NewStore creates an empty graph store.
func NewStore() *Store {
	return &Store{
		issues:   make(map[string]*Issue),
		out:      make(map[string][]Edge),
		in:       make(map[string][]Edge),
		counters: make(map[string]int),
		used:     make(map[string]bool),
	}
}

// ─── Revision ───────────────────────────────────────────────────────────────

// Revision returns the monotonic mutation counter. The coordinator
// bumps it once per successful logical mutation and uses it as the
// write-ahead log key.
func (s *Store) Revision() uint64 { return s.revision }

// BumpRevision increments the revision counter and returns the new
// value.
func (s *Store) BumpRevision() uint64 {
	s.revision++
	return s.revision
}

// SetRevision overwrites the revision counter. Only log replay uses
// this, to realign the store with the last durable record.
func (s *Store) SetRevision(rev uint64) { s.revision = rev }

// ─── Issues ─────────────────────────────────────────────────────────────────

// GetIssue returns a copy of the issue with the given id.
func (s *Store) GetIssue(id string) (*Issue, error) {
	issue, ok := s.issues[id]
	if !ok {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	return issue.Clone(), nil
}

// HasIssue reports whether an issue with the given id exists.
func (s *Store) HasIssue(id string) bool {
	_, ok := s.issues[id]
	return ok
}

// Len returns the number of live issues.
func (s *Store) Len() int { return len(s.issues) }

// InsertIssue adds a new issue to the graph. The id must be unique and
// must never have been assigned before: deleted ids stay burned so
// historical references cannot silently re-resolve.
func (s *Store) InsertIssue(issue *Issue) error {
	if s.used[issue.ID] {
		return fmt.Errorf("issue %s: %w", issue.ID, ErrDuplicateID)
	}
	s.issues[issue.ID] = issue.Clone()
	s.registerID(issue.ID)
	return nil
}

// ReplaceIssue overwrites an existing issue with the given state.
func (s *Store) ReplaceIssue(issue *Issue) error {
	if _, ok := s.issues[issue.ID]; !ok {
		return fmt.Errorf("issue %s: %w", issue.ID, ErrNotFound)
	}
	s.issues[issue.ID] = issue.Clone()
	return nil
}

// DeleteIssue removes an issue and all incident edges in one logical
// step. It returns the removed edges so the caller can record or undo
// the cascade. The id stays registered as used.
func (s *Store) DeleteIssue(id string) ([]Edge, error) {
	if _, ok := s.issues[id]; !ok {
		return nil, fmt.Errorf("issue %s: %w", id, ErrNotFound)
	}
	removed := s.IncidentEdges(id)
	for _, e := range removed {
		s.dropEdge(e)
	}
	delete(s.issues, id)
	return removed, nil
}

// RestoreIssue reinserts a previously deleted issue and its edges.
// It is the inverse of DeleteIssue, used when a durable write fails
// after the in-memory cascade already ran.
func (s *Store) RestoreIssue(issue *Issue, edges []Edge) {
	s.issues[issue.ID] = issue.Clone()
	for _, e := range edges {
		s.out[e.From] = append(s.out[e.From], e)
		s.in[e.To] = append(s.in[e.To], e)
	}
}

// ForgetID unregisters an id that was assigned by an insert whose
// durable write failed. The mutation never happened, so the id may be
// reused.
func (s *Store) ForgetID(id string) {
	delete(s.used, id)
	delete(s.issues, id)
}

// ─── Edges ──────────────────────────────────────────────────────────────────

// AddEdge inserts a dependency edge. Both endpoints must exist, the
// exact edge must not already be present, and a blocks edge must not
// close a cycle in the blocks subgraph.
func (s *Store) AddEdge(e Edge) error {
	if !e.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "unknown edge kind " + string(e.Kind)}
	}
	if e.From == e.To {
		return fmt.Errorf("edge %s -> %s: %w", e.From, e.To, ErrCycle)
	}
	if _, ok := s.issues[e.From]; !ok {
		return fmt.Errorf("issue %s: %w", e.From, ErrNotFound)
	}
	if _, ok := s.issues[e.To]; !ok {
		return fmt.Errorf("issue %s: %w", e.To, ErrNotFound)
	}
	for _, existing := range s.out[e.From] {
		if existing == e {
			return fmt.Errorf("edge %s -> %s (%s): %w", e.From, e.To, e.Kind, ErrDuplicateEdge)
		}
	}
	// Cycle check runs before insertion: if From is reachable from To
	// over blocks edges, the new edge would close a loop.
	if e.Kind == EdgeBlocks && s.reachable(e.To, e.From) {
		return fmt.Errorf("edge %s -> %s: %w", e.From, e.To, ErrCycle)
	}
	s.out[e.From] = append(s.out[e.From], e)
	s.in[e.To] = append(s.in[e.To], e)
	return nil
}

// RemoveEdge deletes the exact (from, to, kind) edge. Removing an
// absent edge is a no-op that reports ErrNotFound.
func (s *Store) RemoveEdge(e Edge) error {
	for _, existing := range s.out[e.From] {
		if existing == e {
			s.dropEdge(e)
			return nil
		}
	}
	return fmt.Errorf("edge %s -> %s (%s): %w", e.From, e.To, e.Kind, ErrNotFound)
}

// dropEdge removes e from both indexes. The caller has verified it
// exists.
func (s *Store) dropEdge(e Edge) {
	s.out[e.From] = removeEdge(s.out[e.From], e)
	if len(s.out[e.From]) == 0 {
		delete(s.out, e.From)
	}
	s.in[e.To] = removeEdge(s.in[e.To], e)
	if len(s.in[e.To]) == 0 {
		delete(s.in, e.To)
	}
}

func removeEdge(edges []Edge, e Edge) []Edge {
	for i, existing := range edges {
		if existing == e {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return edges
}

// IncidentEdges returns every edge touching the issue, outgoing first,
// each list ordered deterministically.
func (s *Store) IncidentEdges(id string) []Edge {
	edges := make([]Edge, 0, len(s.out[id])+len(s.in[id]))
	edges = append(edges, s.out[id]...)
	for _, e := range s.in[id] {
		if e.From != id { // self-edges are rejected at insert, but stay safe
			edges = append(edges, e)
		}
	}
	sortEdges(edges)
	return edges
}

// Neighbors returns the ids on the far end of the issue's edges of the
// given kind and direction, sorted for determinism.
func (s *Store) Neighbors(id string, dir Direction, kind EdgeKind) []string {
	var ids []string
	switch dir {
	case Outgoing:
		for _, e := range s.out[id] {
			if e.Kind == kind {
				ids = append(ids, e.To)
			}
		}
	case Incoming:
		for _, e := range s.in[id] {
			if e.Kind == kind {
				ids = append(ids, e.From)
			}
		}
	}
	sort.Strings(ids)
	return ids
}

// reachable reports whether target is reachable from start following
// blocks edges in their direction. Depth-first over the out index;
// bounded because the blocks subgraph is acyclic by invariant.
func (s *Store) reachable(start, target string) bool {
	if start == target {
		return true
	}
	visited := map[string]bool{start: true}
	stack := []string{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range s.out[cur] {
			if e.Kind != EdgeBlocks {
				continue
			}
			if e.To == target {
				return true
			}
			if !visited[e.To] {
				visited[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return false
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		if edges[a].To != edges[b].To {
			return edges[a].To < edges[b].To
		}
		return edges[a].Kind < edges[b].Kind
	})
}

// ─── ID generation ──────────────────────────────────────────────────────────

// NextID returns a fresh "<prefix>-<n>" id, skipping any value that was
// ever assigned. Supplied ids advance the counter past their numeric
// suffix (see registerID), so generated and supplied ids never collide.
func (s *Store) NextID(prefix string) string {
	for {
		s.counters[prefix]++
		id := fmt.Sprintf("%s-%d", prefix, s.counters[prefix])
		if !s.used[id] {
			return id
		}
	}
}

// registerID marks an id as assigned forever and advances the prefix
// counter past its numeric suffix when it has one.
func (s *Store) registerID(id string) {
	s.used[id] = true
	if prefix, n, ok := splitID(id); ok && s.counters[prefix] < n {
		s.counters[prefix] = n
	}
}

// splitID parses "<prefix>-<n>" ids. Ids in any other shape are legal
// but do not participate in counter advancement.
func splitID(id string) (prefix string, n int, ok bool) {
	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}
