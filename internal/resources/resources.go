// Package resources implements MCP resource handlers for the tracker.
//
// Resources provide read-only data the host can consume for context.
// They use URI-based addressing (beads://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages tracker resource endpoints.
type Handler struct {
	coord *session.Coordinator
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(coord *session.Coordinator) *Handler {
	return &Handler{coord: coord}
}

// StatsResource returns the MCP resource definition for tracker stats.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"beads://tracker/stats",
		"Tracker Statistics",
		mcp.WithResourceDescription("Issue and edge counts, status/kind breakdowns, ready count, and current revision"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the current tracker statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.coord.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stats: %w", err)
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling stats: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
