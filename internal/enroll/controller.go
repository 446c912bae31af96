// internal/enroll/controller.go
package enroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Controller validates an inbound task record and advances it through
// the state machine: run -> processing -> completed, with cancelled as a
// terminal variant caught on the next validation pass. A controller is
// built per request around one candidate record; validation runs in the
// constructor and ValidateAndDispatch reports the outcome.
type Controller struct {
	backend backend.LearningBackend
	record  *models.TaskRecord
	err     error

	userIDs    []int64
	groupID    int64
	groupTitle string
	adminID    int64
	adminEmail string

	now func() time.Time
}

// NewController normalizes and validates the candidate record. All
// violations accumulate into one joined error; the record is tagged with
// error messaging but not finalized until ValidateAndDispatch runs.
func NewController(ctx context.Context, b backend.LearningBackend, candidate *models.TaskRecord) *Controller {
	c := &Controller{
		backend: b,
		now:     time.Now,
	}

	c.validateTaskData(ctx, candidate)

	if c.err == nil {
		c.userIDs = c.record.UserIDs
		c.groupID = c.record.GroupID
	}

	c.resolveAdmin(ctx, candidate.AdminID)

	return c
}

// validateTaskData applies schema defaults, normalizes the user queue and
// runs the domain checks. Violations become error messaging on the record.
func (c *Controller) validateTaskData(ctx context.Context, candidate *models.TaskRecord) {
	record := candidate.Clone()
	if record.Status == "" {
		record.Status = models.StatusIdle
	}
	if record.Courses == nil {
		record.Courses = map[int64]models.CourseSteps{}
	}
	if record.Results == nil {
		record.Results = []models.Result{}
	}
	if record.Messaging == nil {
		record.Messaging = []models.Message{}
	}

	var violations []error

	// Keep positive IDs only, first occurrence wins.
	record.UserIDs = normalizeUserIDs(record.UserIDs)
	if len(record.UserIDs) == 0 {
		violations = append(violations, ErrNoUsersSelected)
	}

	group, err := c.lookupGroup(ctx, record.GroupID)
	if err != nil {
		violations = append(violations, err)
	} else {
		c.groupTitle = group.Title
	}

	switch record.Status {
	case models.StatusCancelled:
		violations = append(violations, ErrTaskCancelled)
	case models.StatusCompleted:
		violations = append(violations, ErrTaskAlreadyCompleted)
	}

	if len(violations) > 0 {
		for _, v := range violations {
			record.AddMessage(models.MessageError, v.Error())
		}
		c.err = errors.Join(violations...)
	}

	c.record = record
}

func (c *Controller) lookupGroup(ctx context.Context, groupID int64) (*backend.Group, error) {
	if groupID == 0 {
		return nil, ErrInvalidGroup
	}
	group, err := c.backend.LookupGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, ErrInvalidGroup
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidGroup, err)
	}
	if !group.Published {
		return nil, ErrGroupNotPublished
	}
	return group, nil
}

// resolveAdmin records who initiated the job. An explicit admin ID on the
// candidate wins; an unresolvable identity is reported as "Unknown" and
// the admin ID left unset.
func (c *Controller) resolveAdmin(ctx context.Context, adminID int64) {
	if adminID != 0 {
		if user, err := c.backend.ResolveUser(ctx, adminID); err == nil {
			c.adminID = adminID
			c.adminEmail = user.Email
			c.record.AdminID = adminID
			return
		}
	}
	c.adminID = 0
	c.adminEmail = "Unknown"
	c.record.AdminID = 0
}

// ValidateAndDispatch returns the record ready to process, or the
// finalized error-tagged record. Failed starts still stamp start metadata
// so the audit trail shows who attempted the run and when.
func (c *Controller) ValidateAndDispatch(ctx context.Context) (*models.TaskRecord, error) {
	if c.err != nil {
		if c.record.Started == 0 {
			c.setStarted()
		}
		c.finalizeCompletion()
		return c.record, &RecordError{Record: c.record, Err: c.err}
	}

	if c.record.Started == 0 {
		if err := c.setTaskDataToProcess(ctx); err != nil {
			c.record.AddMessage(models.MessageError, err.Error())
			c.setStarted()
			c.finalizeCompletion()
			return c.record, &RecordError{Record: c.record, Err: err}
		}
	}

	return c.record, nil
}

// setTaskDataToProcess rebuilds the record from defaults for a fresh run:
// the work plan is computed once, the title set and processing begins.
func (c *Controller) setTaskDataToProcess(ctx context.Context) error {
	record := models.NewTaskRecord()
	record.AdminID = c.adminID
	record.GroupID = c.groupID
	record.UserIDs = c.userIDs
	record.Status = models.StatusProcessing

	if len(c.record.Courses) > 0 {
		record.Courses = c.record.Courses
	} else {
		courses, err := c.groupWorkPlan(ctx)
		if err != nil {
			return err
		}
		record.Courses = courses
	}

	record.Title = fmt.Sprintf("Enrolling %d users into group : %s", len(c.userIDs), c.groupTitle)

	c.record = record
	c.setStarted()

	return nil
}

// groupWorkPlan enumerates the group's courses and their step items.
// Computed once per job and cached on the record to avoid re-querying
// the backend on every step.
func (c *Controller) groupWorkPlan(ctx context.Context) (map[int64]models.CourseSteps, error) {
	courseIDs, err := c.backend.GroupCourses(ctx, c.groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list group courses: %w", err)
	}

	courses := make(map[int64]models.CourseSteps, len(courseIDs))
	for _, courseID := range courseIDs {
		lessons, err := c.backend.CourseSteps(ctx, courseID, backend.StepLesson)
		if err != nil {
			return nil, fmt.Errorf("failed to list lessons for course %d: %w", courseID, err)
		}
		topics, err := c.backend.CourseSteps(ctx, courseID, backend.StepTopic)
		if err != nil {
			return nil, fmt.Errorf("failed to list topics for course %d: %w", courseID, err)
		}
		quizzes, err := c.backend.CourseSteps(ctx, courseID, backend.StepQuiz)
		if err != nil {
			return nil, fmt.Errorf("failed to list quizzes for course %d: %w", courseID, err)
		}
		courses[courseID] = models.CourseSteps{
			Lessons: lessons,
			Topics:  topics,
			Quizzes: quizzes,
		}
	}

	return courses, nil
}

// ProcessOneUser runs the enrollment step for userID, which must be in
// the queue, and advances the record. A missing user forces completion
// and returns ErrUserNotInQueue with the record attached.
func (c *Controller) ProcessOneUser(ctx context.Context, userID int64) (*models.TaskRecord, error) {
	index := -1
	for i, id := range c.record.UserIDs {
		if id == userID {
			index = i
			break
		}
	}

	if index < 0 {
		c.finalizeCompletion()
		return c.record, userNotInQueueError(c.record, userID)
	}

	executor := NewStepExecutor(c.backend, c.now)
	result := executor.Run(ctx, userID, c.groupID, c.adminID, c.record.Courses)
	c.record.Results = append(c.record.Results, result)

	c.record.UserIDs = append(c.record.UserIDs[:index], c.record.UserIDs[index+1:]...)
	if len(c.record.UserIDs) > 0 {
		c.record.Status = models.StatusProcessing
	} else {
		c.record.Status = models.StatusCompleted
		c.finalizeCompletion()
	}

	return c.record, nil
}

// setStarted stamps the start time and the initiating message
func (c *Controller) setStarted() {
	now := c.now()
	c.record.Started = now.Unix()
	c.record.AddMessage(models.MessageInfo, fmt.Sprintf(
		"Initiated by admin %s @ %s", c.adminEmail, now.Format(timeLayout),
	))
}

// finalizeCompletion recomputes the title from the enrollment results,
// stamps the completion time and summary message, and clears the work
// plan and queue so stale payloads do not linger in storage. A cancelled
// status is preserved; anything else becomes completed.
func (c *Controller) finalizeCompletion() {
	record := c.record

	groupTitle := "Not Found"
	if c.groupID != 0 && c.groupTitle != "" {
		groupTitle = c.groupTitle
	}

	record.Title = fmt.Sprintf("Enrolled %d users into group : %s", record.EnrolledCount(), groupTitle)

	now := c.now()
	record.Completed = now.Unix()

	verb := "Completed"
	if record.Status == models.StatusCancelled {
		verb = "Cancelled"
	} else {
		record.Status = models.StatusCompleted
	}

	record.AddMessage(models.MessageInfo, fmt.Sprintf(
		"%s @ : %s %d users processed", verb, now.Format(timeLayout), len(record.Results),
	))

	record.Courses = map[int64]models.CourseSteps{}
	record.GroupID = 0
	record.UserIDs = []int64{}
}

// normalizeUserIDs keeps positive IDs and drops duplicates, preserving
// first-seen order
func normalizeUserIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
