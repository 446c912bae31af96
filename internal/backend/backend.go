// internal/backend/backend.go
package backend

import (
	"context"
	"errors"
)

// StepKind identifies the kind of nested course item
type StepKind string

const (
	StepLesson StepKind = "lesson"
	StepTopic  StepKind = "topic"
	StepQuiz   StepKind = "quiz"
)

// ErrNotFound is returned when a user, group or course does not exist
var ErrNotFound = errors.New("not found")

// User is a resolved learner identity
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// Group is a resolved enrollment target
type Group struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
}

// QuizAttempt is the completion record synthesized for quizzes that
// cannot be completed through the interactive flow. Downstream reporting
// depends on this exact shape: a passing flag with zero score and time.
type QuizAttempt struct {
	Quiz           int64  `json:"quiz"`
	Score          int    `json:"score"`
	Count          int    `json:"count"`
	Pass           bool   `json:"pass"`
	Rank           string `json:"rank"`
	Time           int64  `json:"time"`
	ProQuizID      int64  `json:"pro_quizid"`
	Course         int64  `json:"course"`
	Points         int    `json:"points"`
	TotalPoints    int    `json:"total_points"`
	Percentage     int    `json:"percentage"`
	TimeSpent      int    `json:"timespent"`
	HasGraded      bool   `json:"has_graded"`
	StatisticRefID int64  `json:"statistic_ref_id"`
	EditedBy       int64  `json:"m_edit_by"`
	EditTime       int64  `json:"m_edit_time"`
}

// LearningBackend is the capability interface for the external system
// that owns groups, courses and completion tracking. All operations are
// idempotent on the backend side.
type LearningBackend interface {
	// ResolveUser returns the identity for a user ID, or ErrNotFound.
	ResolveUser(ctx context.Context, userID int64) (*User, error)

	// LookupGroup returns the group, or ErrNotFound. Callers decide
	// whether an unpublished group is acceptable.
	LookupGroup(ctx context.Context, groupID int64) (*Group, error)

	// UserGroupIDs lists the groups the user is enrolled in.
	UserGroupIDs(ctx context.Context, userID int64) ([]int64, error)

	// SetGroupAccess grants the user access to the group.
	SetGroupAccess(ctx context.Context, userID, groupID int64) error

	// IsUserInGroup verifies group access after a grant.
	IsUserInGroup(ctx context.Context, userID, groupID int64) (bool, error)

	// UserCourseIDs lists the courses the user is enrolled in.
	UserCourseIDs(ctx context.Context, userID int64) ([]int64, error)

	// SetCourseAccess grants course access; false means the backend
	// refused the enrollment.
	SetCourseAccess(ctx context.Context, userID, courseID int64) (bool, error)

	// IsCourseComplete reports whether the user finished the course.
	IsCourseComplete(ctx context.Context, userID, courseID int64) (bool, error)

	// IsStepComplete reports completion of a single nested item.
	IsStepComplete(ctx context.Context, userID, itemID, courseID int64, kind StepKind) (bool, error)

	// MarkComplete marks a lesson, topic or the course itself complete;
	// false means the backend rejected the completion.
	MarkComplete(ctx context.Context, userID, itemID, courseID int64) (bool, error)

	// WriteQuizCompletion writes a synthesized attempt into the user's
	// quiz history; false means the quiz has no completion settings and
	// no record was written.
	WriteQuizCompletion(ctx context.Context, userID, quizID, courseID int64, attempt QuizAttempt) (bool, error)

	// GroupCourses enumerates the course IDs attached to a group.
	GroupCourses(ctx context.Context, groupID int64) ([]int64, error)

	// CourseSteps enumerates the item IDs of one kind within a course.
	CourseSteps(ctx context.Context, courseID int64, kind StepKind) ([]int64, error)
}
