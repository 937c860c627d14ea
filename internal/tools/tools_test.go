package tools

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/HendryAvila/beads-mcp/internal/engine"
	"github.com/HendryAvila/beads-mcp/internal/graph"
	"github.com/HendryAvila/beads-mcp/internal/session"
	"github.com/HendryAvila/beads-mcp/internal/wal"
	"github.com/mark3labs/mcp-go/mcp"
)

// memLog keeps appended records in memory so tool tests need no
// database file.
type memLog struct {
	mu   sync.Mutex
	recs []wal.Record
}

func (l *memLog) Append(rec wal.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, rec)
	return nil
}

func newTestCoordinator(t *testing.T) *session.Coordinator {
	t.Helper()
	store := graph.NewStore()
	mut := engine.NewMutator(store, engine.Config{})
	return session.NewCoordinator(store, mut, &memLog{})
}

// makeReq creates a tool request with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createIssue(t *testing.T, coord *session.Coordinator, args map[string]interface{}) string {
	t.Helper()
	res, err := NewCreateIssueTool(coord).Handle(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("create handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("create failed: %s", resultText(res))
	}
	var issue graph.Issue
	if err := json.Unmarshal([]byte(resultText(res)), &issue); err != nil {
		t.Fatalf("decode create result: %v", err)
	}
	return issue.ID
}

// ─── CreateIssueTool Tests ──────────────────────────────────────────────────

func TestCreateIssueTool_Definition(t *testing.T) {
	tool := NewCreateIssueTool(newTestCoordinator(t))
	def := tool.Definition()

	if def.Name != "create_issue" {
		t.Errorf("name = %s, want create_issue", def.Name)
	}
	if len(def.InputSchema.Required) != 1 || def.InputSchema.Required[0] != "title" {
		t.Errorf("required = %v, want [title]", def.InputSchema.Required)
	}
}

func TestCreateIssueTool_Defaults(t *testing.T) {
	coord := newTestCoordinator(t)
	res, err := NewCreateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"title": "fix flaky test",
	}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", resultText(res))
	}

	var issue graph.Issue
	if err := json.Unmarshal([]byte(resultText(res)), &issue); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if issue.ID != "bd-1" || issue.Status != graph.StatusOpen || issue.Priority != 2 || issue.Kind != graph.KindTask {
		t.Errorf("issue = %+v", issue)
	}
}

func TestCreateIssueTool_MissingTitle(t *testing.T) {
	res, err := NewCreateIssueTool(newTestCoordinator(t)).Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !res.IsError {
		t.Error("expected error for missing title")
	}
}

func TestCreateIssueTool_Metadata(t *testing.T) {
	coord := newTestCoordinator(t)
	res, err := NewCreateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"title":    "tagged",
		"metadata": `{"pr": "17"}`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	var issue graph.Issue
	if err := json.Unmarshal([]byte(resultText(res)), &issue); err != nil {
		t.Fatal(err)
	}
	if issue.Metadata["pr"] != "17" {
		t.Errorf("metadata = %v", issue.Metadata)
	}

	// Malformed metadata is rejected before anything is created.
	res, err = NewCreateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"title":    "bad tags",
		"metadata": "not json",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error for malformed metadata")
	}
}

func TestCreateIssueTool_DuplicateIDIsConflict(t *testing.T) {
	coord := newTestCoordinator(t)
	createIssue(t, coord, map[string]interface{}{"title": "first", "id": "bd-9"})

	res, err := NewCreateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"title": "second",
		"id":    "bd-9",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(resultText(res), "conflict:") {
		t.Errorf("result = %q, want conflict: prefix", resultText(res))
	}
}

// ─── UpdateIssueTool Tests ──────────────────────────────────────────────────

func TestUpdateIssueTool_StatusChange(t *testing.T) {
	coord := newTestCoordinator(t)
	id := createIssue(t, coord, map[string]interface{}{"title": "work"})

	res, err := NewUpdateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":     id,
		"status": "in_progress",
	}))
	if err != nil {
		t.Fatal(err)
	}
	var issue graph.Issue
	if err := json.Unmarshal([]byte(resultText(res)), &issue); err != nil {
		t.Fatal(err)
	}
	if issue.Status != graph.StatusInProgress {
		t.Errorf("status = %s", issue.Status)
	}
}

func TestUpdateIssueTool_IllegalTransition(t *testing.T) {
	coord := newTestCoordinator(t)
	id := createIssue(t, coord, map[string]interface{}{"title": "work"})

	res, err := NewUpdateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":     id,
		"status": "blocked", // open -> blocked is not in the workflow
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(resultText(res), "validation_error:") {
		t.Errorf("result = %q, want validation_error: prefix", resultText(res))
	}
}

func TestUpdateIssueTool_NotFound(t *testing.T) {
	res, err := NewUpdateIssueTool(newTestCoordinator(t)).Handle(context.Background(), makeReq(map[string]interface{}{
		"id":    "ghost",
		"title": "x",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(resultText(res), "not_found:") {
		t.Errorf("result = %q, want not_found: prefix", resultText(res))
	}
}

// ─── Link / Unlink Tests ────────────────────────────────────────────────────

func TestLinkIssuesTool_DefaultKindIsBlocks(t *testing.T) {
	coord := newTestCoordinator(t)
	a := createIssue(t, coord, map[string]interface{}{"title": "a"})
	b := createIssue(t, coord, map[string]interface{}{"title": "b"})

	res, err := NewLinkIssuesTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"from": a,
		"to":   b,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("link failed: %s", resultText(res))
	}
	if !strings.Contains(resultText(res), "blocks") {
		t.Errorf("result = %q, want the blocks kind named", resultText(res))
	}
}

func TestLinkIssuesTool_CycleDetected(t *testing.T) {
	coord := newTestCoordinator(t)
	a := createIssue(t, coord, map[string]interface{}{"title": "a"})
	b := createIssue(t, coord, map[string]interface{}{"title": "b"})

	link := NewLinkIssuesTool(coord)
	if res, _ := link.Handle(context.Background(), makeReq(map[string]interface{}{"from": a, "to": b})); res.IsError {
		t.Fatalf("first link failed: %s", resultText(res))
	}
	res, err := link.Handle(context.Background(), makeReq(map[string]interface{}{"from": b, "to": a}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(resultText(res), "cycle_detected:") {
		t.Errorf("result = %q, want cycle_detected: prefix", resultText(res))
	}
}

func TestUnlinkIssuesTool_MissingEdge(t *testing.T) {
	coord := newTestCoordinator(t)
	a := createIssue(t, coord, map[string]interface{}{"title": "a"})
	b := createIssue(t, coord, map[string]interface{}{"title": "b"})

	res, err := NewUnlinkIssuesTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"from": a,
		"to":   b,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(resultText(res), "not_found:") {
		t.Errorf("result = %q, want not_found: prefix", resultText(res))
	}
}

// ─── ListReadyTool Tests ────────────────────────────────────────────────────

func TestListReadyTool_FiltersBlockedIssues(t *testing.T) {
	coord := newTestCoordinator(t)
	a := createIssue(t, coord, map[string]interface{}{"title": "first"})
	b := createIssue(t, coord, map[string]interface{}{"title": "second"})
	if res, _ := NewLinkIssuesTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"from": a, "to": b})); res.IsError {
		t.Fatalf("link failed: %s", resultText(res))
	}

	res, err := NewListReadyTool(coord, 50).Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	var ready []graph.Issue
	if err := json.Unmarshal([]byte(resultText(res)), &ready); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != a {
		t.Errorf("ready = %v, want just %s", ready, a)
	}
}

func TestListReadyTool_EmptyTracker(t *testing.T) {
	res, err := NewListReadyTool(newTestCoordinator(t), 50).Handle(context.Background(), makeReq(map[string]interface{}{}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || resultText(res) != "No ready work." {
		t.Errorf("result = %q", resultText(res))
	}
}

// ─── Graph read tools ───────────────────────────────────────────────────────

func TestGetIssueTool_IncludesEdges(t *testing.T) {
	coord := newTestCoordinator(t)
	a := createIssue(t, coord, map[string]interface{}{"title": "a"})
	b := createIssue(t, coord, map[string]interface{}{"title": "b"})
	if res, _ := NewLinkIssuesTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"from": a, "to": b})); res.IsError {
		t.Fatalf("link failed: %s", resultText(res))
	}

	res, err := NewGetIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"id": b}))
	if err != nil {
		t.Fatal(err)
	}
	var detail session.IssueDetail
	if err := json.Unmarshal([]byte(resultText(res)), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Issue.ID != b || len(detail.Edges) != 1 || detail.Edges[0].From != a {
		t.Errorf("detail = %+v", detail)
	}
}

func TestGetIssueTool_NotFound(t *testing.T) {
	res, err := NewGetIssueTool(newTestCoordinator(t)).Handle(context.Background(), makeReq(map[string]interface{}{"id": "ghost"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.HasPrefix(resultText(res), "not_found:") {
		t.Errorf("result = %q, want not_found: prefix", resultText(res))
	}
}

func TestBlockedChainTool_UnblockedIssue(t *testing.T) {
	coord := newTestCoordinator(t)
	a := createIssue(t, coord, map[string]interface{}{"title": "free"})

	res, err := NewBlockedChainTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"id": a}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError || !strings.Contains(resultText(res), "Nothing blocks") {
		t.Errorf("result = %q", resultText(res))
	}
}

func TestSubtreeTool_Rollup(t *testing.T) {
	coord := newTestCoordinator(t)
	epic := createIssue(t, coord, map[string]interface{}{"title": "epic", "kind": "epic"})
	child := createIssue(t, coord, map[string]interface{}{"title": "child"})
	if res, _ := NewLinkIssuesTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"from": epic, "to": child, "kind": "parent_of",
	})); res.IsError {
		t.Fatalf("link failed: %s", resultText(res))
	}
	if res, _ := NewUpdateIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{
		"id": child, "status": "closed",
	})); res.IsError {
		t.Fatalf("close failed: %s", resultText(res))
	}

	res, err := NewSubtreeTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"id": epic}))
	if err != nil {
		t.Fatal(err)
	}
	var tree struct {
		Descendants   int     `json:"descendants"`
		Closed        int     `json:"closed"`
		PercentClosed float64 `json:"percent_closed"`
	}
	if err := json.Unmarshal([]byte(resultText(res)), &tree); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tree.Descendants != 1 || tree.Closed != 1 || tree.PercentClosed != 100 {
		t.Errorf("rollup = %+v", tree)
	}
}

// ─── DeleteIssueTool Tests ──────────────────────────────────────────────────

func TestDeleteIssueTool_RemovesIssue(t *testing.T) {
	coord := newTestCoordinator(t)
	id := createIssue(t, coord, map[string]interface{}{"title": "doomed"})

	res, err := NewDeleteIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"id": id}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("delete failed: %s", resultText(res))
	}

	res, err = NewGetIssueTool(coord).Handle(context.Background(), makeReq(map[string]interface{}{"id": id}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("issue still readable after delete")
	}
}
