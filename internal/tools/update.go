package tools

import (
	"context"

	"github.com/HendryAvila/beads-mcp/internal/engine"
	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// UpdateIssueTool handles the update_issue MCP tool.
type UpdateIssueTool struct {
	coord *session.Coordinator
}

// NewUpdateIssueTool creates an UpdateIssueTool with the given coordinator.
func NewUpdateIssueTool(coord *session.Coordinator) *UpdateIssueTool {
	return &UpdateIssueTool{coord: coord}
}

// Definition returns the MCP tool definition for update_issue.
func (t *UpdateIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("update_issue",
		mcp.WithDescription(
			"Apply a partial update to an issue. Only supplied fields change. "+
				"Status changes must follow the workflow: open->in_progress, in_progress->blocked, "+
				"blocked->in_progress, in_progress->closed, open->closed, closed->open. "+
				"Metadata keys are merged; an empty value removes the key.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue id to update"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("body",
			mcp.Description("New description"),
		),
		mcp.WithString("status",
			mcp.Description("New status: open, in_progress, blocked, or closed"),
		),
		mcp.WithNumber("priority",
			mcp.Description("New priority 0-4"),
		),
		mcp.WithString("kind",
			mcp.Description("New kind: task, epic, bug, or chore"),
		),
		mcp.WithString("assignee",
			mcp.Description("New assignee (empty string unassigns)"),
		),
		mcp.WithString("metadata",
			mcp.Description("Key-value tags to merge, as a JSON object of string values"),
		),
	)
}

// Handle processes the update_issue tool call.
func (t *UpdateIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	metadata, err := metadataArg(req, "metadata")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	patch := engine.Patch{
		Title:    strPtrArg(req, "title"),
		Body:     strPtrArg(req, "body"),
		Priority: intPtrArg(req, "priority"),
		Assignee: strPtrArg(req, "assignee"),
		Metadata: metadata,
	}
	if s := strPtrArg(req, "status"); s != nil {
		status := graph.Status(*s)
		patch.Status = &status
	}
	if k := strPtrArg(req, "kind"); k != nil {
		kind := graph.Kind(*k)
		patch.Kind = &kind
	}

	issue, err := t.coord.UpdateIssue(ctx, id, patch)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(issue), nil
}

// DeleteIssueTool handles the delete_issue MCP tool.
type DeleteIssueTool struct {
	coord *session.Coordinator
}

// NewDeleteIssueTool creates a DeleteIssueTool with the given coordinator.
func NewDeleteIssueTool(coord *session.Coordinator) *DeleteIssueTool {
	return &DeleteIssueTool{coord: coord}
}

// Definition returns the MCP tool definition for delete_issue.
func (t *DeleteIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_issue",
		mcp.WithDescription(
			"Delete an issue. All dependency edges touching it are removed in the "+
				"same transaction. Deleted ids are never reused.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Issue id to delete"),
		),
	)
}

// Handle processes the delete_issue tool call.
func (t *DeleteIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if err := t.coord.DeleteIssue(ctx, id); err != nil {
		return errResult(err), nil
	}
	return mcp.NewToolResultText("Deleted " + id), nil
}
