package history

import (
	"time"

	"github.com/starford/raido/internal/models"
)

// Store defines the interface for history persistence. Consumers should
// depend on this interface rather than the concrete *DB type to facilitate
// testing with in-memory fakes.
type Store interface {
	RecordCheck(report *models.BuildReport, rendered string, startedAt time.Time) (int64, error)
	RecordActivation(rules []string) error
	RecentChecks(limit int) ([]models.CheckRow, error)
	LastCheck() (*models.CheckRow, error)
	RecentActivations(limit int) ([]models.ActivationRow, error)
	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
