package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/starford/raido/internal/models"
)

// RecordCheck persists a completed build check and returns its row id.
func (db *DB) RecordCheck(report *models.BuildReport, rendered string, startedAt time.Time) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO checks (command, succeeded, issue_count, truncated, report, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		report.Command,
		boolInt(report.Succeeded),
		report.IssueCount,
		boolInt(report.Truncated),
		rendered,
		startedAt.UTC(),
		report.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("history: record check: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: last insert id: %w", err)
	}
	return id, nil
}

// RecordActivation persists the rule names activated by one prompt.
// Prompts with zero activations are not recorded.
func (db *DB) RecordActivation(rules []string) error {
	if len(rules) == 0 {
		return nil
	}
	rulesJSON, _ := json.Marshal(rules)
	_, err := db.conn.Exec(`INSERT INTO activations (rules) VALUES (?)`, string(rulesJSON))
	if err != nil {
		return fmt.Errorf("history: record activation: %w", err)
	}
	return nil
}

// RecentChecks returns up to limit checks, newest first.
func (db *DB) RecentChecks(limit int) ([]models.CheckRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, command, succeeded, issue_count, truncated, report, started_at, duration_ms
		FROM checks ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent checks: %w", err)
	}
	defer rows.Close()

	var out []models.CheckRow
	for rows.Next() {
		var c models.CheckRow
		var succeeded, truncated int
		if err := rows.Scan(&c.ID, &c.Command, &succeeded, &c.IssueCount, &truncated, &c.Report, &c.StartedAt, &c.DurationMS); err != nil {
			return nil, fmt.Errorf("history: scan check: %w", err)
		}
		c.Succeeded = succeeded != 0
		c.Truncated = truncated != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// LastCheck returns the most recent check, or nil when none exist.
func (db *DB) LastCheck() (*models.CheckRow, error) {
	checks, err := db.RecentChecks(1)
	if err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, nil
	}
	return &checks[0], nil
}

// RecentActivations returns up to limit activations, newest first.
func (db *DB) RecentActivations(limit int) ([]models.ActivationRow, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, rules, created_at FROM activations
		ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent activations: %w", err)
	}
	defer rows.Close()

	var out []models.ActivationRow
	for rows.Next() {
		var a models.ActivationRow
		var rulesJSON string
		if err := rows.Scan(&a.ID, &rulesJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan activation: %w", err)
		}
		if err := json.Unmarshal([]byte(rulesJSON), &a.Rules); err != nil {
			a.Rules = nil
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
