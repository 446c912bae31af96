// internal/enroll/service.go
package enroll

import (
	"context"
	"errors"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/store"
	"go.uber.org/zap"
)

// Dispatcher schedules the follow-up step after a write leaves the
// record in processing. Scheduling must not block and must fire at most
// one trigger per transition; delivery is best-effort, a lost trigger
// stalls the job until the step endpoint is re-invoked manually.
type Dispatcher interface {
	ScheduleNextStep(ctx context.Context)
	// StepStarted releases the duplicate-chain guard once a scheduled
	// step begins executing.
	StepStarted()
}

// Service owns the task record lifecycle: it validates submissions,
// executes one step per invocation and chains the next step through the
// dispatcher. Constructed once at process start and passed by reference
// to the request handlers.
type Service struct {
	store      store.Store
	backend    backend.LearningBackend
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewService(st store.Store, b backend.LearningBackend, d Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		store:      st,
		backend:    b,
		dispatcher: d,
		logger:     logger,
	}
}

// Current returns the stored record, or schema defaults if none exists
func (s *Service) Current(ctx context.Context) (*models.TaskRecord, error) {
	return s.store.Load(ctx)
}

// Submit starts a new job from a caller-written record with status run.
// The validated (or finalized error) record is persisted either way, so
// the caller always has a renderable state; on success the first step is
// scheduled before returning.
func (s *Service) Submit(ctx context.Context, candidate *models.TaskRecord) (*models.TaskRecord, error) {
	controller := NewController(ctx, s.backend, candidate)
	record, err := controller.ValidateAndDispatch(ctx)

	if saveErr := s.store.Save(ctx, record); saveErr != nil {
		return record, saveErr
	}

	if err != nil {
		s.logger.Warn("task rejected", zap.Error(err))
		return record, err
	}

	s.logger.Info("task accepted",
		zap.Int("users", len(record.UserIDs)),
		zap.Int64("group_id", record.GroupID),
	)

	if record.Status == models.StatusProcessing {
		s.scheduleNext(ctx)
	}
	return record, nil
}

// Cancel writes a cancellation request onto the record. The in-flight
// chain observes it on its next validation pass; an already-running step
// is not interrupted.
func (s *Service) Cancel(ctx context.Context) (*models.TaskRecord, error) {
	record, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	record.Status = models.StatusCancelled
	if err := s.store.Save(ctx, record); err != nil {
		return record, err
	}
	s.logger.Info("task cancellation requested")
	return record, nil
}

// Reset clears a finished job back to schema defaults
func (s *Service) Reset(ctx context.Context) (*models.TaskRecord, error) {
	record := models.NewTaskRecord()
	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RunStep executes exactly one step of the dispatch chain: re-validate
// the stored record, process the head of the queue, persist, and chain
// the next step while the record stays in processing. Cancellation and
// duplicate triggers surface here as validation errors that finalize the
// record.
func (s *Service) RunStep(ctx context.Context) (*models.TaskRecord, error) {
	if s.dispatcher != nil {
		s.dispatcher.StepStarted()
	}

	stored, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	controller := NewController(ctx, s.backend, stored)
	record, verr := controller.ValidateAndDispatch(ctx)
	if verr != nil {
		if saveErr := s.store.Save(ctx, record); saveErr != nil {
			return record, saveErr
		}
		s.logger.Info("dispatch chain stopped", zap.Error(verr))
		return record, verr
	}

	userID := record.UserIDs[0]
	record, perr := controller.ProcessOneUser(ctx, userID)

	if saveErr := s.store.Save(ctx, record); saveErr != nil {
		return record, saveErr
	}
	if perr != nil {
		s.logger.Error("step failed", zap.Int64("user_id", userID), zap.Error(perr))
		return record, perr
	}

	s.logger.Info("step processed",
		zap.Int64("user_id", userID),
		zap.Int("remaining", len(record.UserIDs)),
		zap.String("status", string(record.Status)),
	)

	if record.Status == models.StatusProcessing {
		s.scheduleNext(ctx)
	}
	return record, nil
}

// RunBatch is the synchronous entry point: same controller and executor,
// but steps loop in-process until the record is terminal instead of
// chaining through the dispatcher. Used by the CLI and programmatic
// callers.
func (s *Service) RunBatch(ctx context.Context, userIDs []int64, groupID, adminID int64) (*models.TaskRecord, error) {
	candidate := models.NewTaskRecord()
	candidate.Status = models.StatusRun
	candidate.UserIDs = userIDs
	candidate.GroupID = groupID
	candidate.AdminID = adminID

	controller := NewController(ctx, s.backend, candidate)
	record, err := controller.ValidateAndDispatch(ctx)

	if saveErr := s.store.Save(ctx, record); saveErr != nil {
		return record, saveErr
	}
	if err != nil {
		return record, err
	}

	for record.Status == models.StatusProcessing {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return record, ctxErr
		}

		next, perr := controller.ProcessOneUser(ctx, record.UserIDs[0])
		record = next

		if saveErr := s.store.Save(ctx, record); saveErr != nil {
			return record, saveErr
		}
		if perr != nil {
			return record, perr
		}
	}

	return record, nil
}

func (s *Service) scheduleNext(ctx context.Context) {
	if s.dispatcher == nil {
		return
	}
	s.logger.Debug("scheduling next step")
	s.dispatcher.ScheduleNextStep(ctx)
}

// IsRecordError reports whether err carries a renderable record
func IsRecordError(err error) (*RecordError, bool) {
	var recErr *RecordError
	ok := errors.As(err, &recErr)
	return recErr, ok
}
