package tools

import (
	"context"

	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// GetIssueTool handles the get_issue MCP tool.
type GetIssueTool struct {
	coord *session.Coordinator
}

// NewGetIssueTool creates a GetIssueTool with the given coordinator.
func NewGetIssueTool(coord *session.Coordinator) *GetIssueTool {
	return &GetIssueTool{coord: coord}
}

// Definition returns the MCP tool definition for get_issue.
func (t *GetIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("get_issue",
		mcp.WithDescription("Fetch a single issue with all its dependency edges."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue id"),
		),
	)
}

// Handle processes the get_issue tool call.
func (t *GetIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	detail, err := t.coord.GetIssue(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(detail), nil
}

// BlockedChainTool handles the get_blocked_chain MCP tool.
type BlockedChainTool struct {
	coord *session.Coordinator
}

// NewBlockedChainTool creates a BlockedChainTool with the given coordinator.
func NewBlockedChainTool(coord *session.Coordinator) *BlockedChainTool {
	return &BlockedChainTool{coord: coord}
}

// Definition returns the MCP tool definition for get_blocked_chain.
func (t *BlockedChainTool) Definition() mcp.Tool {
	return mcp.NewTool("get_blocked_chain",
		mcp.WithDescription(
			"List the open blocking ancestors that must close before an issue "+
				"becomes ready, nearest blockers first.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue id to trace blockers for"),
		),
	)
}

// Handle processes the get_blocked_chain tool call.
func (t *BlockedChainTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	chain, err := t.coord.BlockedChain(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	if len(chain) == 0 {
		return mcp.NewToolResultText("Nothing blocks " + id + "."), nil
	}
	return jsonResult(chain), nil
}

// SubtreeTool handles the get_subtree MCP tool.
type SubtreeTool struct {
	coord *session.Coordinator
}

// NewSubtreeTool creates a SubtreeTool with the given coordinator.
func NewSubtreeTool(coord *session.Coordinator) *SubtreeTool {
	return &SubtreeTool{coord: coord}
}

// Definition returns the MCP tool definition for get_subtree.
func (t *SubtreeTool) Definition() mcp.Tool {
	return mcp.NewTool("get_subtree",
		mcp.WithDescription(
			"Fetch the parent_of tree under an epic, with the percentage of "+
				"descendants closed.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Root issue id (usually an epic)"),
		),
	)
}

// Handle processes the get_subtree tool call.
func (t *SubtreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	tree, err := t.coord.Subtree(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(tree), nil
}
