package history

import (
	"os"
	"testing"
	"time"

	"github.com/starford/raido/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-history-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndRecentChecks(t *testing.T) {
	db := testDB(t)

	r1 := &models.BuildReport{Command: "go build ./...", Succeeded: true, IssueCount: 0, Duration: 1200 * time.Millisecond}
	r2 := &models.BuildReport{Command: "make", Succeeded: false, IssueCount: 3, Truncated: false, Duration: 300 * time.Millisecond}

	if _, err := db.RecordCheck(r1, "report one", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	id, err := db.RecordCheck(r2, "report two", time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Error("expected non-zero row id")
	}

	checks, err := db.RecentChecks(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 2 {
		t.Fatalf("len(checks) = %d, want 2", len(checks))
	}
	// Newest first.
	if checks[0].Command != "make" || checks[0].Succeeded {
		t.Errorf("checks[0] = %+v", checks[0])
	}
	if checks[0].IssueCount != 3 {
		t.Errorf("issue count = %d", checks[0].IssueCount)
	}
	if checks[1].Report != "report one" {
		t.Errorf("report = %q", checks[1].Report)
	}
	if checks[0].DurationMS != 300 {
		t.Errorf("duration = %d", checks[0].DurationMS)
	}
}

func TestLastCheck(t *testing.T) {
	db := testDB(t)

	last, err := db.LastCheck()
	if err != nil {
		t.Fatal(err)
	}
	if last != nil {
		t.Errorf("empty db LastCheck = %+v, want nil", last)
	}

	r := &models.BuildReport{Command: "go vet ./...", Succeeded: true}
	if _, err := db.RecordCheck(r, "x", time.Now()); err != nil {
		t.Fatal(err)
	}
	last, err = db.LastCheck()
	if err != nil {
		t.Fatal(err)
	}
	if last == nil || last.Command != "go vet ./..." {
		t.Errorf("last = %+v", last)
	}
}

func TestActivations(t *testing.T) {
	db := testDB(t)

	// Zero activations are not persisted.
	if err := db.RecordActivation(nil); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordActivation([]string{"tdd", "clippy"}); err != nil {
		t.Fatal(err)
	}

	acts, err := db.RecentActivations(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(acts) != 1 {
		t.Fatalf("len(acts) = %d, want 1", len(acts))
	}
	if len(acts[0].Rules) != 2 || acts[0].Rules[0] != "tdd" {
		t.Errorf("rules = %v", acts[0].Rules)
	}
}

func TestRecentChecks_LimitClamped(t *testing.T) {
	db := testDB(t)
	r := &models.BuildReport{Command: "make", Succeeded: true}
	for i := 0; i < 3; i++ {
		if _, err := db.RecordCheck(r, "r", time.Now()); err != nil {
			t.Fatal(err)
		}
	}
	checks, err := db.RecentChecks(-5)
	if err != nil {
		t.Fatal(err)
	}
	if len(checks) != 3 {
		t.Errorf("len(checks) = %d, want 3 (default limit)", len(checks))
	}
}
