// internal/store/store.go
package store

import (
	"context"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
)

// RecordKey is the fixed key the single task record is stored under.
// There is one global job slot; every read and write targets this key.
const RecordKey = "ckld_group_enroll_queue"

// Store is the persistence boundary for the task record. Load returns
// schema defaults when no record has been written yet. Save overwrites
// whatever is stored; there is no compare-and-swap, last write wins.
type Store interface {
	Load(ctx context.Context) (*models.TaskRecord, error)
	Save(ctx context.Context, record *models.TaskRecord) error
	Close() error
}
