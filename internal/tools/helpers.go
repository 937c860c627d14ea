// Package tools provides the MCP tool handlers for the beads tracker.
//
// Each tool follows the same pattern:
// - A struct with the session coordinator injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Handlers are thin adapters: they unmarshal arguments, invoke one
// coordinator operation, and marshal the typed result or error. All
// tracker semantics live below the coordinator.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are
// float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// strPtrArg returns a pointer to the string argument when the key is
// present, nil otherwise. Patch fields distinguish "absent" from
// "set to empty" this way.
func strPtrArg(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// intPtrArg returns a pointer to the integer argument when the key is
// present, nil otherwise.
func intPtrArg(req mcp.CallToolRequest, key string) *int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

// metadataArg parses the metadata argument: a JSON object with string
// values, passed as a string.
func metadataArg(req mcp.CallToolRequest, key string) (map[string]string, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("'%s' must be a JSON object of string values: %v", key, err)
	}
	return m, nil
}

// errorCode maps a tracker error to its stable error kind, so agent
// callers can branch without parsing prose.
func errorCode(err error) string {
	var ve *graph.ValidationError
	switch {
	case errors.Is(err, graph.ErrNotFound):
		return "not_found"
	case errors.Is(err, graph.ErrCycle):
		return "cycle_detected"
	case errors.Is(err, graph.ErrDuplicateEdge), errors.Is(err, graph.ErrDuplicateID):
		return "conflict"
	case errors.As(err, &ve):
		return "validation_error"
	default:
		return "io_error"
	}
}

// errResult formats a tracker error as a tool error with its kind
// prefix.
func errResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", errorCode(err), err))
}

// jsonResult marshals v as an indented JSON tool result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("io_error: encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
