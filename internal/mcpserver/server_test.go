package mcpserver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/tracker"
	"github.com/starford/raido/internal/trigger"
	"github.com/starford/raido/internal/verifier"
)

// cleanBuild always exits zero with unremarkable output.
type cleanBuild struct{}

func (cleanBuild) Run(_ context.Context, _ string) ([]byte, []byte, error) {
	return []byte("Compiling raido v0.1.0\nFinished dev profile\n"), nil, nil
}

func testServer(t *testing.T) (*Server, *tracker.Tracker) {
	t.Helper()

	_, store := testutil.TestState(t)
	tr := tracker.New(store)
	v := verifier.New(tr, cleanBuild{}, nil)
	m := trigger.NewMatcher([]models.Rule{
		{Name: "rust-errors", Keywords: []string{"clippy", "borrow checker"}},
		{Name: "async-help", IntentPatterns: []string{`help.*async`}},
	}, nil)
	runner := hooks.NewRunner(tr, v, m, nil, nil)

	srv := New(runner, nil, "cargo check", 5*time.Second)
	return srv, tr
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "pending_edits":
		result, err = srv.pendingEdits(ctx, req)
	case "run_check":
		result, err = srv.runCheck(ctx, req)
	case "match_prompt":
		result, err = srv.matchPrompt(ctx, req)
	case "list_rules":
		result, err = srv.listRules(ctx, req)
	case "recent_checks":
		result, err = srv.recentChecks(ctx, req)
	case "get_hooks_setup":
		result, err = srv.getHooksSetup(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestPendingEdits(t *testing.T) {
	srv, tr := testServer(t)

	if got := resultText(callTool(t, srv, "pending_edits", nil)); got != "no edits pending" {
		t.Errorf("pending_edits = %q", got)
	}

	if err := tr.Record("Edit", "src/main.rs"); err != nil {
		t.Fatal(err)
	}
	got := resultText(callTool(t, srv, "pending_edits", nil))
	if !strings.Contains(got, "edits pending") {
		t.Errorf("pending_edits after edit = %q", got)
	}
}

func TestRunCheck(t *testing.T) {
	srv, tr := testServer(t)

	if got := resultText(callTool(t, srv, "run_check", nil)); got != "skipped: no edits pending" {
		t.Errorf("run_check without edits = %q", got)
	}

	if err := tr.Record("Write", "src/lib.rs"); err != nil {
		t.Fatal(err)
	}
	got := resultText(callTool(t, srv, "run_check", nil))
	if !strings.Contains(got, "cargo check") {
		t.Errorf("report missing command: %q", got)
	}
	if !strings.Contains(got, "1 file(s) changed this session") {
		t.Errorf("report missing file count: %q", got)
	}

	// Record consumed: second check skips.
	if got := resultText(callTool(t, srv, "run_check", nil)); got != "skipped: no edits pending" {
		t.Errorf("second run_check = %q", got)
	}
}

func TestMatchPrompt(t *testing.T) {
	srv, _ := testServer(t)

	got := resultText(callTool(t, srv, "match_prompt", map[string]interface{}{
		"prompt": "why does the borrow checker reject this",
	}))
	if got != "rust-errors" {
		t.Errorf("match_prompt = %q", got)
	}

	got = resultText(callTool(t, srv, "match_prompt", map[string]interface{}{
		"prompt": "rename this variable",
	}))
	if got != "no rules activated" {
		t.Errorf("match_prompt (no match) = %q", got)
	}
}

func TestMatchPromptMissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "match_prompt", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing prompt argument")
	}
}

func TestListRules(t *testing.T) {
	srv, _ := testServer(t)
	got := resultText(callTool(t, srv, "list_rules", nil))
	if got != "rust-errors\nasync-help" {
		t.Errorf("list_rules = %q", got)
	}
}

func TestRecentChecksDisabled(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "recent_checks", nil)
	if !r.IsError {
		t.Error("expected error when history is disabled")
	}
}

func TestRecentChecks(t *testing.T) {
	srv, _ := testServer(t)
	srv.hist = testutil.TestDB(t)

	report := &models.BuildReport{Command: "cargo check", Succeeded: true}
	if _, err := srv.hist.RecordCheck(report, "rendered", time.Now()); err != nil {
		t.Fatal(err)
	}

	got := resultText(callTool(t, srv, "recent_checks", nil))
	if !strings.Contains(got, "cargo check") {
		t.Errorf("recent_checks = %q", got)
	}
}

func TestGetHooksSetup(t *testing.T) {
	srv, _ := testServer(t)
	got := resultText(callTool(t, srv, "get_hooks_setup", nil))
	if !strings.Contains(got, "PostToolUse") || !strings.Contains(got, "raido hook session-end") {
		t.Errorf("hooks setup contract incomplete: %q", got)
	}
}
