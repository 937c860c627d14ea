package tools

import (
	"context"

	"github.com/HendryAvila/beads-mcp/internal/engine"
	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// CreateIssueTool handles the create_issue MCP tool.
type CreateIssueTool struct {
	coord *session.Coordinator
}

// NewCreateIssueTool creates a CreateIssueTool with the given coordinator.
func NewCreateIssueTool(coord *session.Coordinator) *CreateIssueTool {
	return &CreateIssueTool{coord: coord}
}

// Definition returns the MCP tool definition for create_issue.
func (t *CreateIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("create_issue",
		mcp.WithDescription(
			"Create a new issue in the tracker. New issues start with status 'open'. "+
				"Omit 'id' to have one generated; a supplied id must be unique and is never reused.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short summary of the work"),
		),
		mcp.WithString("body",
			mcp.Description("Free-text description"),
		),
		mcp.WithString("id",
			mcp.Description("Explicit issue id (default: generated '<prefix>-<n>')"),
		),
		mcp.WithString("kind",
			mcp.Description("Issue kind: task, epic, bug, or chore (default: task)"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Priority 0-4, 0 is most urgent (default: 2)"),
		),
		mcp.WithString("assignee",
			mcp.Description("Who the issue is assigned to"),
		),
		mcp.WithString("metadata",
			mcp.Description("Arbitrary key-value tags as a JSON object of string values"),
		),
	)
}

// Handle processes the create_issue tool call.
func (t *CreateIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	metadata, err := metadataArg(req, "metadata")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	issue, err := t.coord.CreateIssue(ctx, engine.CreateRequest{
		ID:       req.GetString("id", ""),
		Title:    title,
		Body:     req.GetString("body", ""),
		Kind:     graph.Kind(req.GetString("kind", "")),
		Priority: intPtrArg(req, "priority"),
		Assignee: req.GetString("assignee", ""),
		Metadata: metadata,
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(issue), nil
}
