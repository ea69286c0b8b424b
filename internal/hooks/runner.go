package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/raido/internal/history"
	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/tracker"
	"github.com/starford/raido/internal/trigger"
	"github.com/starford/raido/internal/verifier"
)

// EventCallback is notified after pipeline events, for SSE fan-out in serve
// mode. kind is one of "edit.recorded", "check.reported", "check.skipped",
// "rules.reloaded".
type EventCallback func(kind string, data any)

// Runner coordinates the three pipeline stages. History persistence is
// optional (nil store disables it); all stage failures degrade to logged
// warnings because no hook may break the host.
type Runner struct {
	tracker  *tracker.Tracker
	verifier *verifier.Verifier
	hist     history.Store
	logger   *slog.Logger

	mu      sync.RWMutex
	matcher *trigger.Matcher
	onEvent EventCallback
	checkMu sync.Mutex
}

// NewRunner creates a Runner. hist may be nil.
func NewRunner(tr *tracker.Tracker, v *verifier.Verifier, m *trigger.Matcher, hist history.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{tracker: tr, verifier: v, matcher: m, hist: hist, logger: logger}
}

// SetEventCallback registers a pipeline event listener.
func (r *Runner) SetEventCallback(cb EventCallback) {
	r.mu.Lock()
	r.onEvent = cb
	r.mu.Unlock()
}

// SetMatcher swaps the trigger matcher, used by the rules hot-reload.
func (r *Runner) SetMatcher(m *trigger.Matcher) {
	r.mu.Lock()
	r.matcher = m
	r.mu.Unlock()
	r.emit("rules.reloaded", map[string]int{"rules": m.RuleCount()})
}

// RuleCount returns the current matcher's rule count.
func (r *Runner) RuleCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.matcher == nil {
		return 0
	}
	return r.matcher.RuleCount()
}

// RuleNames returns the current matcher's rule names in configuration order.
func (r *Runner) RuleNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.matcher == nil {
		return nil
	}
	return r.matcher.RuleNames()
}

// HasPending reports whether an edit record exists.
func (r *Runner) HasPending() bool {
	return r.tracker.HasPending()
}

// PostTool records a file mutation from a tool-call envelope.
func (r *Runner) PostTool(env *Envelope) {
	if err := r.tracker.Record(env.ToolName, env.ToolInput.FilePath); err != nil {
		r.logger.Warn("hooks: record failed",
			slog.String("tool", env.ToolName),
			slog.String("error", err.Error()))
		return
	}
	if tracker.IsMutating(env.ToolName) && env.ToolInput.FilePath != "" {
		r.emit("edit.recorded", map[string]string{"path": env.ToolInput.FilePath})
	}
}

// SessionEnd runs the build check and returns the rendered report block,
// or "" when the check was skipped. At most one check runs at a time;
// concurrent session-end events collapse into one silent skip (the drain
// already guarantees the record is consumed once).
func (r *Runner) SessionEnd(ctx context.Context, command string, timeout time.Duration) string {
	r.checkMu.Lock()
	defer r.checkMu.Unlock()

	start := time.Now()
	outcome := r.verifier.Check(ctx, command, timeout)
	if outcome.Skipped {
		r.emit("check.skipped", nil)
		return ""
	}

	if r.hist != nil {
		if _, err := r.hist.RecordCheck(outcome.Report, outcome.Rendered, start); err != nil {
			r.logger.Warn("hooks: history write failed", slog.String("error", err.Error()))
		}
	}
	r.emit("check.reported", outcome.Report)
	return outcome.Rendered
}

// UserPrompt evaluates the prompt against the current rule set.
func (r *Runner) UserPrompt(prompt string) models.Activation {
	r.mu.RLock()
	m := r.matcher
	r.mu.RUnlock()

	if m == nil {
		return models.Activation{Prompt: prompt}
	}
	act := m.Evaluate(prompt)

	if r.hist != nil && len(act.Rules) > 0 {
		if err := r.hist.RecordActivation(act.Rules); err != nil {
			r.logger.Warn("hooks: history write failed", slog.String("error", err.Error()))
		}
	}
	return act
}

func (r *Runner) emit(kind string, data any) {
	r.mu.RLock()
	cb := r.onEvent
	r.mu.RUnlock()
	if cb != nil {
		cb(kind, data)
	}
}
