package graph

import "sort"

// Snapshot is an immutable deep copy of the graph taken under the
// coordinator's read section. Query derivations run against snapshots
// so they never observe a torn in-progress mutation.
type Snapshot struct {
	issues   map[string]*Issue
	out      map[string][]Edge
	in       map[string][]Edge
	revision uint64
}

// Snapshot deep-copies the current graph state.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		issues:   make(map[string]*Issue, len(s.issues)),
		out:      make(map[string][]Edge, len(s.out)),
		in:       make(map[string][]Edge, len(s.in)),
		revision: s.revision,
	}
	for id, issue := range s.issues {
		snap.issues[id] = issue.Clone()
	}
	for id, edges := range s.out {
		snap.out[id] = append([]Edge(nil), edges...)
	}
	for id, edges := range s.in {
		snap.in[id] = append([]Edge(nil), edges...)
	}
	return snap
}

// Revision returns the revision the snapshot was taken at.
func (s *Snapshot) Revision() uint64 { return s.revision }

// Issue returns the snapshot's copy of an issue, or nil if absent.
func (s *Snapshot) Issue(id string) *Issue {
	return s.issues[id]
}

// Len returns the number of issues in the snapshot.
func (s *Snapshot) Len() int { return len(s.issues) }

// IDs returns every issue id in the snapshot, sorted.
func (s *Snapshot) IDs() []string {
	ids := make([]string, 0, len(s.issues))
	for id := range s.issues {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Incoming returns the edges of the given kind arriving at id.
func (s *Snapshot) Incoming(id string, kind EdgeKind) []Edge {
	return filterEdges(s.in[id], kind)
}

// Outgoing returns the edges of the given kind leaving id.
func (s *Snapshot) Outgoing(id string, kind EdgeKind) []Edge {
	return filterEdges(s.out[id], kind)
}

// EdgeCount returns the total number of edges in the snapshot.
func (s *Snapshot) EdgeCount() int {
	n := 0
	for _, edges := range s.out {
		n += len(edges)
	}
	return n
}

func filterEdges(edges []Edge, kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out
}
