// Package tracker records which files mutating tool calls touched during a
// session. The record is consumed (drained) exactly once by the build
// verifier at session end.
package tracker

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/storage"
)

// RecordFile is the state file holding the current session's edit record.
const RecordFile = "edit-log.json"

// mutatingKinds is the allow-list of host tool names that modify files.
// Anything else is ignored without error.
var mutatingKinds = map[string]struct{}{
	"Write":     {},
	"Edit":      {},
	"MultiEdit": {},
}

// IsMutating reports whether kind is a file-mutating tool name.
func IsMutating(kind string) bool {
	_, ok := mutatingKinds[kind]
	return ok
}

// Tracker accumulates edited file paths in a persisted record.
type Tracker struct {
	store storage.Provider
	now   func() time.Time
}

// New creates a Tracker backed by the given state store.
func New(store storage.Provider) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Record appends filePath to the session edit record if kind is a mutating
// tool name and filePath is non-empty. Non-mutating kinds and empty paths
// are silent no-ops. A corrupt or unreadable record is treated as empty.
func (t *Tracker) Record(kind, filePath string) error {
	if !IsMutating(kind) || filePath == "" {
		return nil
	}

	rec := t.load()
	if rec.Contains(filePath) {
		// Still refresh the timestamp: the session is active.
		rec.Timestamp = t.now().UnixMilli()
		return t.save(rec)
	}
	rec.Files = append(rec.Files, filePath)
	rec.Timestamp = t.now().UnixMilli()
	return t.save(rec)
}

// HasPending reports whether an edit record exists.
func (t *Tracker) HasPending() bool {
	return t.store.Exists(RecordFile)
}

// Drain atomically removes the edit record and returns its file set.
// A missing record yields an empty set, not an error. The record is renamed
// to a process-unique name before reading, so two concurrent drains cannot
// both observe it.
func (t *Tracker) Drain() ([]string, error) {
	if !t.store.Exists(RecordFile) {
		return nil, nil
	}

	claim := fmt.Sprintf("edit-log.drain-%d-%d.json", os.Getpid(), t.now().UnixNano())
	if err := t.store.Rename(RecordFile, claim); err != nil {
		// Lost the race to another drain, or the record vanished.
		return nil, nil
	}
	defer func() { _ = t.store.Delete(claim) }()

	data, err := t.store.Read(claim)
	if err != nil {
		return nil, nil
	}

	var rec models.EditRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		// Corrupt record reads as empty; the file is gone either way.
		return nil, nil
	}
	return rec.Files, nil
}

// load reads the current record, treating any failure as an empty record.
func (t *Tracker) load() *models.EditRecord {
	rec := &models.EditRecord{}
	data, err := t.store.Read(RecordFile)
	if err != nil {
		return rec
	}
	if err := json.Unmarshal(data, rec); err != nil {
		return &models.EditRecord{}
	}
	return rec
}

func (t *Tracker) save(rec *models.EditRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("tracker: marshal record: %w", err)
	}
	if err := t.store.Write(RecordFile, data); err != nil {
		return fmt.Errorf("tracker: persist record: %w", err)
	}
	return nil
}
