// Package session serializes concurrent protocol sessions over the
// shared graph store: single writer, many readers.
//
// Mutations hold an exclusive section for validation, state change,
// revision increment, and the durable log append — bounded graph work
// only, never protocol I/O. Reads take a consistent snapshot under a
// shared section and derive outside it. Cancellation is cooperative
// and checked only before the section is entered; once a mutation
// starts, it runs to completion so partial application is never
// observable.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/HendryAvila/beads-mcp/internal/engine"
	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/query"
	"github.com/HendryAvila/beads-mcp/internal/wal"
)

// Appender is the durable-write contract the coordinator depends on.
// *wal.Log satisfies it; tests inject failing implementations.
type Appender interface {
	Append(rec wal.Record) error
}

// Coordinator mediates all access to the graph store. One instance is
// shared by every protocol session.
type Coordinator struct {
	mu    sync.RWMutex
	store *graph.Store
	mut   *engine.Mutator
	log   Appender
}

// NewCoordinator wires a coordinator over an already-replayed store.
func NewCoordinator(store *graph.Store, mut *engine.Mutator, log Appender) *Coordinator {
	return &Coordinator{store: store, mut: mut, log: log}
}

// Revision returns the current mutation counter.
func (c *Coordinator) Revision() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Revision()
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// commit stamps the mutation with the next revision and appends it to
// the durable log. On append failure the in-memory change and the
// revision bump are both rolled back, so memory and log never diverge.
func (c *Coordinator) commit(undo engine.Undo, build func(rev uint64) (wal.Record, error)) error {
	rev := c.store.BumpRevision()
	rec, err := build(rev)
	if err == nil {
		err = c.log.Append(rec)
	}
	if err != nil {
		undo()
		c.store.SetRevision(rev - 1)
		return fmt.Errorf("session: durable write failed, mutation rolled back: %w", err)
	}
	return nil
}

// CreateIssue validates and inserts a new issue.
func (c *Coordinator) CreateIssue(ctx context.Context, req engine.CreateRequest) (*graph.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	issue, undo, err := c.mut.Create(req)
	if err != nil {
		return nil, err
	}
	err = c.commit(undo, func(rev uint64) (wal.Record, error) {
		return wal.IssueRecord(rev, wal.OpCreate, issue)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// UpdateIssue applies a partial update to an existing issue.
func (c *Coordinator) UpdateIssue(ctx context.Context, id string, patch engine.Patch) (*graph.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	issue, undo, err := c.mut.Update(id, patch)
	if err != nil {
		return nil, err
	}
	err = c.commit(undo, func(rev uint64) (wal.Record, error) {
		return wal.IssueRecord(rev, wal.OpUpdate, issue)
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// DeleteIssue removes an issue and its incident edges atomically.
func (c *Coordinator) DeleteIssue(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	undo, err := c.mut.Delete(id)
	if err != nil {
		return err
	}
	return c.commit(undo, func(rev uint64) (wal.Record, error) {
		return wal.DeleteRecord(rev, id)
	})
}

// Link inserts a dependency edge between two issues.
func (c *Coordinator) Link(ctx context.Context, from, to string, kind graph.EdgeKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := graph.Edge{From: from, To: to, Kind: kind}
	undo, err := c.mut.Link(e)
	if err != nil {
		return err
	}
	return c.commit(undo, func(rev uint64) (wal.Record, error) {
		return wal.EdgeRecord(rev, wal.OpLink, e)
	})
}

// Unlink removes a dependency edge.
func (c *Coordinator) Unlink(ctx context.Context, from, to string, kind graph.EdgeKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := graph.Edge{From: from, To: to, Kind: kind}
	undo, err := c.mut.Unlink(e)
	if err != nil {
		return err
	}
	return c.commit(undo, func(rev uint64) (wal.Record, error) {
		return wal.EdgeRecord(rev, wal.OpUnlink, e)
	})
}

// ─── Queries ────────────────────────────────────────────────────────────────

// snapshot takes a consistent snapshot under the shared section.
func (c *Coordinator) snapshot(ctx context.Context) (*graph.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Snapshot(), nil
}

// IssueDetail is an issue together with its incident edges.
type IssueDetail struct {
	Issue *graph.Issue `json:"issue"`
	Edges []graph.Edge `json:"edges,omitempty"`
}

// GetIssue returns an issue and its incident edges.
func (c *Coordinator) GetIssue(ctx context.Context, id string) (*IssueDetail, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	issue, err := c.store.GetIssue(id)
	if err != nil {
		return nil, err
	}
	return &IssueDetail{Issue: issue, Edges: c.store.IncidentEdges(id)}, nil
}

// ListReady returns the ready-work listing for the given filter.
func (c *Coordinator) ListReady(ctx context.Context, f query.Filter) ([]*graph.Issue, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.ReadyWork(snap, f), nil
}

// BlockedChain returns the open blocking ancestors of an issue.
func (c *Coordinator) BlockedChain(ctx context.Context, id string) ([]*graph.Issue, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.BlockedChain(snap, id)
}

// Subtree returns the parent_of tree rooted at an issue, with its
// completion rollup.
func (c *Coordinator) Subtree(ctx context.Context, id string) (*query.SubtreeResult, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return query.Subtree(snap, id)
}

// Stats returns aggregate tracker statistics.
func (c *Coordinator) Stats(ctx context.Context) (query.Stats, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return query.Stats{}, err
	}
	return query.TrackerStats(snap), nil
}
