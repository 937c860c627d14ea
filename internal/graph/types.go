// Package graph owns the canonical issue/dependency graph for the beads
// tracker: the data model, its structural invariants, and the in-memory
// store every other layer reads and mutates.
//
// The store itself is not safe for concurrent use — the session
// coordinator serializes access. Keeping locking out of this package
// means invariant checks (cycle detection, cascade deletes) never race
// and never block on anything external.
package graph

import (
	"time"
)

// ─── Status ─────────────────────────────────────────────────────────────────

// Status is the workflow state of an issue.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusClosed     Status = "closed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusClosed:
		return true
	}
	return false
}

// legalTransitions is the status state machine. Every permitted
// transition is listed explicitly; anything absent is rejected.
// closed has exactly one exit (reopen) and there is no terminal state.
var legalTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusBlocked, StatusClosed},
	StatusBlocked:    {StatusInProgress},
	StatusClosed:     {StatusOpen},
}

// CanTransition reports whether moving from s to next is a legal
// status transition. Same-status "transitions" are allowed so that
// patches restating the current status are not errors.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ─── Kind ───────────────────────────────────────────────────────────────────

// Kind categorizes an issue.
type Kind string

const (
	KindTask  Kind = "task"
	KindEpic  Kind = "epic"
	KindBug   Kind = "bug"
	KindChore Kind = "chore"
)

// Valid reports whether k is a known issue kind.
func (k Kind) Valid() bool {
	switch k {
	case KindTask, KindEpic, KindBug, KindChore:
		return true
	}
	return false
}

// ─── Priority ───────────────────────────────────────────────────────────────

// Priority bounds. 0 (P0) is the most urgent, following the beads
// convention that lower numbers sort first.
const (
	PriorityHighest = 0
	PriorityLowest  = 4
)

// ValidPriority reports whether p is within the priority range.
func ValidPriority(p int) bool {
	return p >= PriorityHighest && p <= PriorityLowest
}

// ─── Edges ──────────────────────────────────────────────────────────────────

// EdgeKind categorizes a dependency edge.
type EdgeKind string

const (
	// EdgeBlocks means From must close before To is ready.
	// Only blocks edges participate in readiness and cycle checks.
	EdgeBlocks EdgeKind = "blocks"
	// EdgeParentOf defines hierarchy: From is the parent (epic) of To.
	EdgeParentOf EdgeKind = "parent_of"
	// EdgeRelatedTo is informational only.
	EdgeRelatedTo EdgeKind = "related_to"
)

// Valid reports whether k is a known edge kind.
func (k EdgeKind) Valid() bool {
	switch k {
	case EdgeBlocks, EdgeParentOf, EdgeRelatedTo:
		return true
	}
	return false
}

// Edge is a directed, typed dependency between two issues.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Direction selects which incident edges of an issue to enumerate.
type Direction int

const (
	// Outgoing enumerates edges whose From is the issue.
	Outgoing Direction = iota
	// Incoming enumerates edges whose To is the issue.
	Incoming
)

// ─── Issue ──────────────────────────────────────────────────────────────────

// Issue is a trackable unit of work. Instances handed out by the store
// are copies; mutating them never affects canonical state.
type Issue struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Body      string            `json:"body,omitempty"`
	Status    Status            `json:"status"`
	Priority  int               `json:"priority"`
	Kind      Kind              `json:"kind"`
	Assignee  string            `json:"assignee,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Validate checks the field-level invariants of an issue. It does not
// look at the rest of the graph; relational checks (duplicate ids,
// edge endpoints) belong to the store.
func (i *Issue) Validate() error {
	if i.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !i.Status.Valid() {
		return &ValidationError{Field: "status", Reason: "unknown status " + string(i.Status)}
	}
	if !i.Kind.Valid() {
		return &ValidationError{Field: "kind", Reason: "unknown kind " + string(i.Kind)}
	}
	if !ValidPriority(i.Priority) {
		return &ValidationError{Field: "priority", Reason: "out of range"}
	}
	return nil
}

// Clone returns a deep copy of the issue.
func (i *Issue) Clone() *Issue {
	c := *i
	if i.Metadata != nil {
		c.Metadata = make(map[string]string, len(i.Metadata))
		for k, v := range i.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
