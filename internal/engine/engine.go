// Package engine implements validated state transitions over the graph
// store: create, update, delete, link, and unlink, each all-or-nothing.
//
// The engine performs no locking and no I/O. The session coordinator
// calls it inside the exclusive section and uses the returned undo
// functions to roll a mutation back when the durable write fails.
package engine

import (
	"fmt"
	"time"

	"github.com/HendryAvila/beads-mcp/internal/graph"
)

// DefaultPriority is assigned when a create request leaves priority
// unset. P2 is the middle of the range.
const DefaultPriority = 2

// Config holds the mutation policies the engine enforces.
type Config struct {
	// IDPrefix is used for generated issue ids ("<prefix>-<n>").
	IDPrefix string
	// StrictEpicClosure rejects closing an epic while any parent_of
	// child is not closed. When false, epics may close early and the
	// subtree rollup reports aggregate completion instead.
	StrictEpicClosure bool
}

// Mutator applies validated mutations to a graph store.
type Mutator struct {
	store *graph.Store
	cfg   Config
	now   func() time.Time
}

// NewMutator creates a Mutator over the given store.
func NewMutator(store *graph.Store, cfg Config) *Mutator {
	if cfg.IDPrefix == "" {
		cfg.IDPrefix = "bd"
	}
	return &Mutator{store: store, cfg: cfg, now: time.Now}
}

// Undo reverts the in-memory effect of a mutation. It must only run
// immediately after the mutation it was returned from, before any
// further mutation.
type Undo func()

// ─── Create ─────────────────────────────────────────────────────────────────

// CreateRequest holds the caller-supplied fields for a new issue.
type CreateRequest struct {
	ID       string            `json:"id,omitempty"`
	Title    string            `json:"title"`
	Body     string            `json:"body,omitempty"`
	Kind     graph.Kind        `json:"kind,omitempty"`
	Priority *int              `json:"priority,omitempty"`
	Assignee string            `json:"assignee,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Create validates the request and inserts a new issue. The id is
// generated when not supplied; a supplied id must be unique and never
// previously assigned. New issues always start open.
func (m *Mutator) Create(req CreateRequest) (*graph.Issue, Undo, error) {
	kind := req.Kind
	if kind == "" {
		kind = graph.KindTask
	}
	priority := DefaultPriority
	if req.Priority != nil {
		priority = *req.Priority
	}

	now := m.now().UTC()
	issue := &graph.Issue{
		ID:        req.ID,
		Title:     req.Title,
		Body:      req.Body,
		Status:    graph.StatusOpen,
		Priority:  priority,
		Kind:      kind,
		Assignee:  req.Assignee,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := issue.Validate(); err != nil {
		return nil, nil, err
	}
	if issue.ID == "" {
		issue.ID = m.store.NextID(m.cfg.IDPrefix)
	}
	if err := m.store.InsertIssue(issue); err != nil {
		return nil, nil, err
	}
	id := issue.ID
	return issue, func() { m.store.ForgetID(id) }, nil
}

// ─── Update ─────────────────────────────────────────────────────────────────

// Patch holds a partial issue update. Nil fields are left untouched.
// Metadata entries are merged key by key; an empty value removes the
// key.
type Patch struct {
	Title    *string           `json:"title,omitempty"`
	Body     *string           `json:"body,omitempty"`
	Status   *graph.Status     `json:"status,omitempty"`
	Priority *int              `json:"priority,omitempty"`
	Kind     *graph.Kind       `json:"kind,omitempty"`
	Assignee *string           `json:"assignee,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Update applies a patch to an existing issue. Status changes must
// follow the state machine, and closing an epic honors the configured
// closure policy. Validation failures leave the issue untouched.
func (m *Mutator) Update(id string, p Patch) (*graph.Issue, Undo, error) {
	prev, err := m.store.GetIssue(id)
	if err != nil {
		return nil, nil, err
	}

	next := prev.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Body != nil {
		next.Body = *p.Body
	}
	if p.Priority != nil {
		next.Priority = *p.Priority
	}
	if p.Kind != nil {
		next.Kind = *p.Kind
	}
	if p.Assignee != nil {
		next.Assignee = *p.Assignee
	}
	for k, v := range p.Metadata {
		if v == "" {
			delete(next.Metadata, k)
			continue
		}
		if next.Metadata == nil {
			next.Metadata = make(map[string]string)
		}
		next.Metadata[k] = v
	}
	if p.Status != nil && *p.Status != prev.Status {
		if !p.Status.Valid() {
			return nil, nil, &graph.ValidationError{Field: "status", Reason: "unknown status " + string(*p.Status)}
		}
		if !prev.Status.CanTransition(*p.Status) {
			return nil, nil, &graph.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("illegal transition %s -> %s", prev.Status, *p.Status),
			}
		}
		if *p.Status == graph.StatusClosed {
			if err := m.checkEpicClosure(next); err != nil {
				return nil, nil, err
			}
		}
		next.Status = *p.Status
	}

	next.UpdatedAt = m.now().UTC()
	if err := next.Validate(); err != nil {
		return nil, nil, err
	}
	if err := m.store.ReplaceIssue(next); err != nil {
		return nil, nil, err
	}
	return next, func() { _ = m.store.ReplaceIssue(prev) }, nil
}

// checkEpicClosure enforces the StrictEpicClosure policy: an epic may
// only close when every parent_of child is closed.
func (m *Mutator) checkEpicClosure(issue *graph.Issue) error {
	if !m.cfg.StrictEpicClosure || issue.Kind != graph.KindEpic {
		return nil
	}
	for _, childID := range m.store.Neighbors(issue.ID, graph.Outgoing, graph.EdgeParentOf) {
		child, err := m.store.GetIssue(childID)
		if err != nil {
			continue // dangling children cannot hold the epic open
		}
		if child.Status != graph.StatusClosed {
			return &graph.ValidationError{
				Field:  "status",
				Reason: fmt.Sprintf("epic has open child %s", childID),
			}
		}
	}
	return nil
}

// ─── Delete ─────────────────────────────────────────────────────────────────

// Delete removes an issue and cascades all incident edges in the same
// logical transaction. The id stays burned: it is never reassigned.
func (m *Mutator) Delete(id string) (Undo, error) {
	prev, err := m.store.GetIssue(id)
	if err != nil {
		return nil, err
	}
	removed, err := m.store.DeleteIssue(id)
	if err != nil {
		return nil, err
	}
	return func() { m.store.RestoreIssue(prev, removed) }, nil
}

// ─── Link / Unlink ──────────────────────────────────────────────────────────

// Link inserts a dependency edge. Cycle and duplicate rejections come
// back from the store untouched; the caller decides how to resolve
// them.
func (m *Mutator) Link(e graph.Edge) (Undo, error) {
	if err := m.store.AddEdge(e); err != nil {
		return nil, err
	}
	return func() { _ = m.store.RemoveEdge(e) }, nil
}

// Unlink removes a dependency edge. Unlinking an absent edge is a
// no-op reporting ErrNotFound.
func (m *Mutator) Unlink(e graph.Edge) (Undo, error) {
	if err := m.store.RemoveEdge(e); err != nil {
		return nil, err
	}
	return func() { _ = m.store.AddEdge(e) }, nil
}
