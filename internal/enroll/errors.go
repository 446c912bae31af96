// internal/enroll/errors.go
package enroll

import (
	"errors"
	"fmt"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
)

// Validation failures. The error text doubles as the user-visible
// messaging entry, so the wording matches what the admin screen renders.
var (
	ErrNoUsersSelected      = errors.New("No users selected")
	ErrInvalidGroup         = errors.New("Invalid Group ID")
	ErrGroupNotPublished    = errors.New("Group is not published")
	ErrTaskCancelled        = errors.New("Task Cancelled")
	ErrTaskAlreadyCompleted = errors.New("Task Already Completed")
)

// ErrUserNotInQueue is defensive: dispatch always takes the queue head,
// so a miss means the record changed underneath the chain.
var ErrUserNotInQueue = errors.New("user not found in queue")

// RecordError carries the finalized record alongside the failure so
// callers always have a renderable state.
type RecordError struct {
	Record *models.TaskRecord
	Err    error
}

func (e *RecordError) Error() string {
	return e.Err.Error()
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func userNotInQueueError(record *models.TaskRecord, userID int64) *RecordError {
	return &RecordError{
		Record: record,
		Err:    fmt.Errorf("%w: User ID %d not found in queue", ErrUserNotInQueue, userID),
	}
}
