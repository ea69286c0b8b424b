package hooks

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/testutil"
	"github.com/starford/raido/internal/trigger"
	"github.com/starford/raido/internal/verifier"
)

type fakeBuild struct {
	stdout string
	err    error
	runs   int
}

func (f *fakeBuild) Run(_ context.Context, _ string) ([]byte, []byte, error) {
	f.runs++
	return []byte(f.stdout), nil, f.err
}

func testRunner(t *testing.T, build *fakeBuild, rules []models.Rule) *Runner {
	t.Helper()
	tr := testutil.TestTracker(t)
	v := verifier.New(tr, build, nil)
	m := trigger.NewMatcher(rules, nil)
	return NewRunner(tr, v, m, nil, nil)
}

func TestDecode_ValidEnvelope(t *testing.T) {
	in := `{"session_id":"s1","cwd":"/tmp/proj","tool_name":"Edit","tool_input":{"file_path":"main.go"},"prompt":"hi"}`
	env := Decode(strings.NewReader(in))
	if env.ToolName != "Edit" || env.ToolInput.FilePath != "main.go" {
		t.Errorf("env = %+v", env)
	}
	if env.Cwd != "/tmp/proj" {
		t.Errorf("cwd = %q", env.Cwd)
	}
}

func TestDecode_MalformedInputYieldsZeroEnvelope(t *testing.T) {
	env := Decode(strings.NewReader("not json at all"))
	if env.ToolName != "" || env.Prompt != "" {
		t.Errorf("env = %+v, want zero", env)
	}
}

func TestPostToolThenSessionEnd(t *testing.T) {
	build := &fakeBuild{stdout: "all good\n"}
	r := testRunner(t, build, nil)

	r.PostTool(&Envelope{ToolName: "Write", ToolInput: ToolInput{FilePath: "a.go"}})
	r.PostTool(&Envelope{ToolName: "Edit", ToolInput: ToolInput{FilePath: "b.go"}})
	if !r.HasPending() {
		t.Fatal("expected pending edits")
	}

	rendered := r.SessionEnd(context.Background(), "make", time.Second)
	if rendered == "" {
		t.Fatal("expected a report")
	}
	if !strings.Contains(rendered, "2 file(s) changed") {
		t.Errorf("rendered = %q", rendered)
	}
	if build.runs != 1 {
		t.Errorf("build ran %d times, want 1", build.runs)
	}

	// Record consumed: a second session end is a silent skip.
	if out := r.SessionEnd(context.Background(), "make", time.Second); out != "" {
		t.Errorf("second session end = %q, want skip", out)
	}
	if build.runs != 1 {
		t.Errorf("build ran %d times after skip, want still 1", build.runs)
	}
}

func TestSessionEnd_NoEditsIsSilent(t *testing.T) {
	build := &fakeBuild{}
	r := testRunner(t, build, nil)

	if out := r.SessionEnd(context.Background(), "make", time.Second); out != "" {
		t.Errorf("output = %q, want empty", out)
	}
	if build.runs != 0 {
		t.Error("build must not run without edits")
	}
}

func TestPostTool_NonMutatingIgnored(t *testing.T) {
	r := testRunner(t, &fakeBuild{}, nil)

	r.PostTool(&Envelope{ToolName: "Read", ToolInput: ToolInput{FilePath: "a.go"}})
	r.PostTool(&Envelope{ToolName: "Write"}) // empty path
	if r.HasPending() {
		t.Error("no record expected")
	}
}

func TestUserPrompt_ActivationAndPassThrough(t *testing.T) {
	rules := []models.Rule{{Name: "docker-skill", Keywords: []string{"docker"}}}
	r := testRunner(t, &fakeBuild{}, rules)

	act := r.UserPrompt("my docker build is slow")
	if len(act.Rules) != 1 || act.Rules[0] != "docker-skill" {
		t.Errorf("rules = %v", act.Rules)
	}

	act = r.UserPrompt("nothing relevant")
	if len(act.Rules) != 0 || act.Prompt != "nothing relevant" {
		t.Errorf("act = %+v", act)
	}
}

func TestSetMatcher_HotSwap(t *testing.T) {
	r := testRunner(t, &fakeBuild{}, nil)

	if act := r.UserPrompt("use the new skill"); len(act.Rules) != 0 {
		t.Fatalf("rules = %v, want none before swap", act.Rules)
	}

	r.SetMatcher(trigger.NewMatcher([]models.Rule{
		{Name: "new-skill", Keywords: []string{"new skill"}},
	}, nil))

	if act := r.UserPrompt("use the new skill"); len(act.Rules) != 1 {
		t.Errorf("rules after swap = %v", act.Rules)
	}
	if r.RuleCount() != 1 {
		t.Errorf("rule count = %d", r.RuleCount())
	}
}

func TestEventCallback(t *testing.T) {
	build := &fakeBuild{stdout: "ok\n"}
	r := testRunner(t, build, nil)

	var kinds []string
	r.SetEventCallback(func(kind string, _ any) {
		kinds = append(kinds, kind)
	})

	r.PostTool(&Envelope{ToolName: "Write", ToolInput: ToolInput{FilePath: "a.go"}})
	r.SessionEnd(context.Background(), "make", time.Second)
	r.SessionEnd(context.Background(), "make", time.Second)

	want := []string{"edit.recorded", "check.reported", "check.skipped"}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}
