// Package models defines the domain types for Raido.
package models

import "time"

// EditRecord is the persisted accounting of files touched during a session.
// It exists on disk iff at least one mutating tool call happened since the
// last completed build check.
type EditRecord struct {
	Files     []string `json:"files"`
	Timestamp int64    `json:"timestamp"` // epoch milliseconds of last mutation
}

// Contains reports whether path is already recorded.
func (r *EditRecord) Contains(path string) bool {
	for _, f := range r.Files {
		if f == path {
			return true
		}
	}
	return false
}

// BuildReport is the transient outcome of one build check.
type BuildReport struct {
	Command    string        `json:"command"`
	Succeeded  bool          `json:"succeeded"`
	IssueLines []string      `json:"issue_lines"`
	IssueCount int           `json:"issue_count"`
	Truncated  bool          `json:"truncated"`
	Duration   time.Duration `json:"duration"`
}

// Clean reports whether the build passed with zero flagged lines.
func (r *BuildReport) Clean() bool {
	return r.Succeeded && r.IssueCount == 0
}

// Rule is one named trigger definition from skill-rules.json.
type Rule struct {
	Name           string   `json:"-"`
	Keywords       []string `json:"keywords"`
	IntentPatterns []string `json:"intentPatterns"`
}

// Activation is the result of evaluating a prompt against a rule set.
type Activation struct {
	Rules  []string `json:"rules"`  // activated rule names, configuration order
	Prompt string   `json:"prompt"` // rewritten prompt (advisory prepended when Rules is non-empty)
}

// CheckRow is a persisted build-check history entry.
type CheckRow struct {
	ID         int64     `json:"id"`
	Command    string    `json:"command"`
	Succeeded  bool      `json:"succeeded"`
	IssueCount int       `json:"issue_count"`
	Truncated  bool      `json:"truncated"`
	Report     string    `json:"report"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// ActivationRow is a persisted prompt-activation history entry.
type ActivationRow struct {
	ID        int64     `json:"id"`
	Rules     []string  `json:"rules"`
	CreatedAt time.Time `json:"created_at"`
}
