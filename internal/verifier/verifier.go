// Package verifier runs the configured build command at session end and
// turns its output into a bounded, actionable report.
package verifier

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/raido/internal/models"
)

const (
	// maxVerbatimIssues is the largest number of flagged lines reported
	// verbatim; above it only the count is shown.
	maxVerbatimIssues = 4
	// failureHeadLines bounds the output excerpt on a failed build.
	failureHeadLines = 10
)

// Drainer yields and clears the pending edit set. Satisfied by
// *tracker.Tracker.
type Drainer interface {
	Drain() ([]string, error)
}

// Outcome is the result of one Check invocation.
type Outcome struct {
	// Skipped is true when no edits were pending; Report is nil in that case.
	Skipped bool
	// Files is the drained edit set.
	Files []string
	// Report is the classified build result.
	Report *models.BuildReport
	// Rendered is the delimited report block for the host.
	Rendered string
}

// Verifier coordinates drain, subprocess execution, and classification.
type Verifier struct {
	drainer Drainer
	runner  Runner
	logger  *slog.Logger
}

// New creates a Verifier. runner defaults to a shell runner in the current
// directory when nil.
func New(drainer Drainer, runner Runner, logger *slog.Logger) *Verifier {
	if runner == nil {
		runner = &ShellRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{drainer: drainer, runner: runner, logger: logger}
}

// Check drains the edit record, runs command under timeout, and classifies
// the output. The record is drained exactly once per invocation, before the
// subprocess is spawned, so a crashing build never leaves a stale record.
// Check never returns an error to the caller: subprocess failures become a
// failed report.
func (v *Verifier) Check(ctx context.Context, command string, timeout time.Duration) *Outcome {
	files, err := v.drainer.Drain()
	if err != nil {
		v.logger.Warn("verifier: drain failed", slog.String("error", err.Error()))
	}
	if len(files) == 0 {
		return &Outcome{Skipped: true}
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, runErr := v.runner.Run(runCtx, command)
	report := &models.BuildReport{
		Command:  command,
		Duration: time.Since(start),
	}

	if runErr != nil {
		report.Succeeded = false
		report.IssueLines = failureExcerpt(stdout, stderr)
		report.IssueCount = len(report.IssueLines)
		v.logger.Warn("verifier: build failed",
			slog.String("command", command),
			slog.String("error", runErr.Error()),
			slog.Bool("timed_out", timedOut(runCtx, runErr)))
	} else {
		report.Succeeded = true
		issues := classify(splitLines(stdout, stderr))
		report.IssueCount = len(issues)
		if len(issues) > maxVerbatimIssues {
			report.Truncated = true
		} else {
			report.IssueLines = issues
		}
	}

	return &Outcome{
		Files:    files,
		Report:   report,
		Rendered: Render(report, len(files), timedOut(runCtx, runErr), timeout),
	}
}

// failureExcerpt returns the first lines of stdout if any output is present,
// otherwise of stderr.
func failureExcerpt(stdout, stderr []byte) []string {
	src := stdout
	if len(strings.TrimSpace(string(src))) == 0 {
		src = stderr
	}
	lines := nonEmptyLines(src)
	if len(lines) > failureHeadLines {
		lines = lines[:failureHeadLines]
	}
	return lines
}

// splitLines concatenates stdout and stderr into one line sequence,
// stdout first.
func splitLines(stdout, stderr []byte) []string {
	return append(nonEmptyLines(stdout), nonEmptyLines(stderr)...)
}

func nonEmptyLines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// classify selects lines carrying one of the four literal diagnostic
// markers. The substring set is deliberately naive (it also flags lines
// like "0 warnings"); it matches what hosts already parse, so it stays.
func classify(lines []string) []string {
	var out []string
	for _, line := range lines {
		if strings.Contains(line, "error") || strings.Contains(line, "Error") ||
			strings.Contains(line, "warning") || strings.Contains(line, "Warning") {
			out = append(out, line)
		}
	}
	return out
}

func timedOut(ctx context.Context, runErr error) bool {
	return runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded)
}
