package tools

import (
	"context"

	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/query"
	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// ListReadyTool handles the list_ready MCP tool.
type ListReadyTool struct {
	coord        *session.Coordinator
	defaultLimit int
}

// NewListReadyTool creates a ListReadyTool with the given coordinator
// and default result limit.
func NewListReadyTool(coord *session.Coordinator, defaultLimit int) *ListReadyTool {
	return &ListReadyTool{coord: coord, defaultLimit: defaultLimit}
}

// Definition returns the MCP tool definition for list_ready.
func (t *ListReadyTool) Definition() mcp.Tool {
	return mcp.NewTool("list_ready",
		mcp.WithDescription(
			"List issues that are ready to work on now: status open or in_progress "+
				"with every blocking issue closed. Ordered by priority (0 first), "+
				"then oldest creation time.",
		),
		mcp.WithString("assignee",
			mcp.Description("Only issues assigned to this assignee"),
		),
		mcp.WithString("kind",
			mcp.Description("Only issues of this kind: task, epic, bug, or chore"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Only issues with exactly this priority"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: server configured)"),
		),
	)
}

// Handle processes the list_ready tool call.
func (t *ListReadyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	issues, err := t.coord.ListReady(ctx, query.Filter{
		Assignee: req.GetString("assignee", ""),
		Kind:     graph.Kind(req.GetString("kind", "")),
		Priority: intPtrArg(req, "priority"),
		Limit:    intArg(req, "limit", t.defaultLimit),
	})
	if err != nil {
		return errResult(err), nil
	}
	if len(issues) == 0 {
		return mcp.NewToolResultText("No ready work."), nil
	}
	return jsonResult(issues), nil
}
