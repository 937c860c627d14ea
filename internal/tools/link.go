package tools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// LinkIssuesTool handles the link_issues MCP tool.
type LinkIssuesTool struct {
	coord *session.Coordinator
}

// NewLinkIssuesTool creates a LinkIssuesTool with the given coordinator.
func NewLinkIssuesTool(coord *session.Coordinator) *LinkIssuesTool {
	return &LinkIssuesTool{coord: coord}
}

// Definition returns the MCP tool definition for link_issues.
func (t *LinkIssuesTool) Definition() mcp.Tool {
	return mcp.NewTool("link_issues",
		mcp.WithDescription(
			"Create a dependency edge between two issues. "+
				"'blocks' means 'from' must close before 'to' is ready and is kept acyclic — "+
				"an edge that would close a cycle is rejected. "+
				"'parent_of' nests 'to' under the epic 'from'. 'related_to' is informational.",
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Source issue id (the blocker / parent)"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Target issue id (the blocked / child)"),
		),
		mcp.WithString("kind",
			mcp.Description("Edge kind: blocks, parent_of, or related_to (default: blocks)"),
		),
	)
}

// Handle processes the link_issues tool call.
func (t *LinkIssuesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, kind, errRes := edgeArgs(req)
	if errRes != nil {
		return errRes, nil
	}
	if err := t.coord.Link(ctx, from, to, kind); err != nil {
		return errResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked %s -> %s (%s)", from, to, kind)), nil
}

// UnlinkIssuesTool handles the unlink_issues MCP tool.
type UnlinkIssuesTool struct {
	coord *session.Coordinator
}

// NewUnlinkIssuesTool creates an UnlinkIssuesTool with the given coordinator.
func NewUnlinkIssuesTool(coord *session.Coordinator) *UnlinkIssuesTool {
	return &UnlinkIssuesTool{coord: coord}
}

// Definition returns the MCP tool definition for unlink_issues.
func (t *UnlinkIssuesTool) Definition() mcp.Tool {
	return mcp.NewTool("unlink_issues",
		mcp.WithDescription(
			"Remove a dependency edge. Removing an edge that does not exist "+
				"reports not_found and changes nothing.",
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Source issue id"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Target issue id"),
		),
		mcp.WithString("kind",
			mcp.Description("Edge kind: blocks, parent_of, or related_to (default: blocks)"),
		),
	)
}

// Handle processes the unlink_issues tool call.
func (t *UnlinkIssuesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, kind, errRes := edgeArgs(req)
	if errRes != nil {
		return errRes, nil
	}
	if err := t.coord.Unlink(ctx, from, to, kind); err != nil {
		return errResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Unlinked %s -> %s (%s)", from, to, kind)), nil
}

// edgeArgs extracts the shared link/unlink arguments.
func edgeArgs(req mcp.CallToolRequest) (from, to string, kind graph.EdgeKind, errRes *mcp.CallToolResult) {
	from = req.GetString("from", "")
	if from == "" {
		return "", "", "", mcp.NewToolResultError("'from' is required")
	}
	to = req.GetString("to", "")
	if to == "" {
		return "", "", "", mcp.NewToolResultError("'to' is required")
	}
	kind = graph.EdgeKind(req.GetString("kind", string(graph.EdgeBlocks)))
	return from, to, kind, nil
}
