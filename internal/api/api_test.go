package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/hooks"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/tracker"
	"github.com/starford/raido/internal/trigger"
	"github.com/starford/raido/internal/verifier"
)

// passBuild is a build runner that always succeeds with clean output.
type passBuild struct{}

func (passBuild) Run(_ context.Context, _ string) ([]byte, []byte, error) {
	return []byte("ok\n"), nil, nil
}

type testEnv struct {
	server  *httptest.Server
	tracker *tracker.Tracker
	runner  *hooks.Runner
}

func newTestEnv(t *testing.T, hist history.Store, authEnabled bool, token string) *testEnv {
	t.Helper()

	_, store := testutil.TestState(t)
	tr := tracker.New(store)
	v := verifier.New(tr, passBuild{}, nil)
	m := trigger.NewMatcher([]models.Rule{
		{Name: "rust-errors", Keywords: []string{"clippy"}},
	}, nil)
	runner := hooks.NewRunner(tr, v, m, hist, nil)

	router := NewRouter(runner, hist, "true", 5*time.Second, authEnabled, token, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, tracker: tr, runner: runner}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatal(err)
	}
}

func TestStatusEndpoint(t *testing.T) {
	env := newTestEnv(t, testutil.TestDB(t), false, "")

	resp := env.get(t, "/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body StatusResponse
	decode(t, resp, &body)
	if body.PendingEdits {
		t.Error("no edits recorded yet")
	}
	if body.Rules != 1 {
		t.Errorf("rules = %d, want 1", body.Rules)
	}
	if body.LastCheck != nil {
		t.Error("last_check should be absent before any check")
	}
}

func TestStatusReflectsPendingEdits(t *testing.T) {
	env := newTestEnv(t, nil, false, "")

	if err := env.tracker.Record("Edit", "main.go"); err != nil {
		t.Fatal(err)
	}

	var body StatusResponse
	decode(t, env.get(t, "/status"), &body)
	if !body.PendingEdits {
		t.Error("pending_edits should be true after a recorded edit")
	}
}

func TestCheckEndpoint(t *testing.T) {
	env := newTestEnv(t, testutil.TestDB(t), false, "")

	// No edits: skipped.
	resp, err := http.Post(env.server.URL+"/check", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var skipped map[string]any
	decode(t, resp, &skipped)
	if skipped["skipped"] != true {
		t.Errorf("expected skipped check, got %v", skipped)
	}

	// With a pending edit the check runs and returns a report.
	if err := env.tracker.Record("Write", "lib.go"); err != nil {
		t.Fatal(err)
	}
	resp2, err := http.Post(env.server.URL+"/check", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	var ran map[string]any
	decode(t, resp2, &ran)
	if ran["skipped"] != false {
		t.Fatalf("expected check to run, got %v", ran)
	}
	if report, _ := ran["report"].(string); report == "" {
		t.Error("expected a rendered report")
	}

	// Check row now visible on /status.
	var status StatusResponse
	decode(t, env.get(t, "/status"), &status)
	if status.LastCheck == nil {
		t.Error("last_check missing after a completed check")
	}
}

func TestHistoryEndpoint(t *testing.T) {
	env := newTestEnv(t, testutil.TestDB(t), false, "")

	var body struct {
		Checks []models.CheckRow `json:"checks"`
	}
	decode(t, env.get(t, "/history"), &body)
	if len(body.Checks) != 0 {
		t.Errorf("expected empty history, got %d rows", len(body.Checks))
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := newTestEnv(t, nil, false, "")

	if resp := env.get(t, "/history"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("history without a store should 404, got %d", resp.StatusCode)
	}
	if resp := env.get(t, "/activations"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("activations without a store should 404, got %d", resp.StatusCode)
	}
}

func TestRulesEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, false, "")

	var body struct {
		Rules []string `json:"rules"`
	}
	decode(t, env.get(t, "/rules"), &body)
	if len(body.Rules) != 1 || body.Rules[0] != "rust-errors" {
		t.Errorf("rules = %v", body.Rules)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, nil, true, "s3cret")

	if resp := env.get(t, "/status"); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token should 401, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token should 401, got %d", resp.StatusCode)
	}

	req2, _ := http.NewRequest(http.MethodGet, env.server.URL+"/status", nil)
	req2.Header.Set("Authorization", "Bearer s3cret")
	resp2, err := http.DefaultClient.Do(req2)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("valid token should pass, got %d", resp2.StatusCode)
	}
}
