// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it opens the mutation log, replays it
// into the graph store, builds the session coordinator, and registers
// the tracker tools and resources. No business logic lives here — only
// wiring.
package server

import (
	"fmt"

	"github.com/HendryAvila/beads-mcp/internal/config"
	"github.com/HendryAvila/beads-mcp/internal/engine"
	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/resources"
	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/HendryAvila/beads-mcp/internal/tools"
	"github.com/HendryAvila/beads-mcp/internal/wal"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools and
// resources registered. The mutation log is replayed before the server
// is returned, so no session traffic ever sees a partially rebuilt
// store.
//
// The returned cleanup function closes the log's database connection
// and must be called on shutdown (typically via defer).
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	// --- Rebuild state from the durable log ---

	log, err := wal.Open(cfg.DataDir)
	if err != nil {
		return nil, noop, fmt.Errorf("opening mutation log: %w", err)
	}
	cleanup := func() { _ = log.Close() }

	recs, err := log.Records()
	if err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("reading mutation log: %w", err)
	}
	store := graph.NewStore()
	if err := wal.Replay(store, recs); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("replaying mutation log: %w", err)
	}

	mut := engine.NewMutator(store, engine.Config{
		IDPrefix:          cfg.IDPrefix,
		StrictEpicClosure: cfg.StrictEpicClosure,
	})
	coord := session.NewCoordinator(store, mut, log)

	// --- Create the MCP server ---

	s := server.NewMCPServer(
		"beads",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tracker tools ---

	createTool := tools.NewCreateIssueTool(coord)
	s.AddTool(createTool.Definition(), createTool.Handle)

	updateTool := tools.NewUpdateIssueTool(coord)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	deleteTool := tools.NewDeleteIssueTool(coord)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	linkTool := tools.NewLinkIssuesTool(coord)
	s.AddTool(linkTool.Definition(), linkTool.Handle)

	unlinkTool := tools.NewUnlinkIssuesTool(coord)
	s.AddTool(unlinkTool.Definition(), unlinkTool.Handle)

	getTool := tools.NewGetIssueTool(coord)
	s.AddTool(getTool.Definition(), getTool.Handle)

	readyTool := tools.NewListReadyTool(coord, cfg.ReadyLimit)
	s.AddTool(readyTool.Definition(), readyTool.Handle)

	chainTool := tools.NewBlockedChainTool(coord)
	s.AddTool(chainTool.Definition(), chainTool.Handle)

	subtreeTool := tools.NewSubtreeTool(coord)
	s.AddTool(subtreeTool.Definition(), subtreeTool.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(coord)
	s.AddResource(resourceHandler.StatsResource(), resourceHandler.HandleStats)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used when initialization fails
// before the log is open.
func noop() {}

// serverInstructions returns the system instructions that tell the AI
// how to use the tracker effectively.
func serverInstructions() string {
	return `You have access to beads, a dependency-aware task tracker with persistent memory.

## What beads is for

beads tracks units of work (issues) and the dependencies between them, across
sessions. Use it to break work down, record what blocks what, and always know
what to do next. State survives restarts — issues you create today are there
tomorrow.

## Core model

- Issues have: id, title, body, status (open | in_progress | blocked | closed),
  priority (0-4, 0 most urgent), kind (task | epic | bug | chore), optional
  assignee, and free-form string metadata.
- Edges connect issues: 'blocks' (source must close before target is ready),
  'parent_of' (epic hierarchy), 'related_to' (informational).
- The blocks graph is always acyclic — a link that would create a cycle is
  rejected with cycle_detected. Resolve it by restructuring, not retrying.

## Recommended workflow

1. When planning work, create one issue per task (create_issue), group them
   under an epic with parent_of links, and record ordering with blocks links.
2. Call list_ready to pick the next task: it returns only unblocked, not-closed
   issues, most urgent and oldest first.
3. Move status with update_issue as you work: open -> in_progress -> closed.
   Use 'blocked' when you discover an external dependency mid-flight.
4. If an issue is not ready, call get_blocked_chain to see exactly which open
   issues stand in the way, nearest first.
5. Track epic progress with get_subtree — it reports percent of descendants
   closed.

## Status rules

Transitions are enforced: open->in_progress, in_progress->blocked,
blocked->in_progress, in_progress->closed, open->closed, closed->open.
Anything else is rejected with validation_error. Closed issues can be
reopened; nothing is terminal.

## Error handling

Tool errors start with a stable code: not_found, validation_error,
cycle_detected, conflict, or io_error. Failed operations change nothing —
there are no partial writes. Do not blind-retry cycle_detected or conflict;
inspect the graph first (get_issue, get_blocked_chain).

## Resources

beads://tracker/stats returns issue/edge counts, breakdowns by status and
kind, the current ready count, and the revision counter.`
}
