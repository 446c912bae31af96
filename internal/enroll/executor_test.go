// internal/enroll/executor_test.go
package enroll

import (
	"context"
	"testing"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/models"
)

var fixedNow = func() time.Time { return time.Unix(1700000000, 0) }

func workPlan() map[int64]models.CourseSteps {
	return map[int64]models.CourseSteps{
		100: {Lessons: []int64{11, 12}, Topics: []int64{21}, Quizzes: []int64{31}},
	}
}

func TestRunCompletesStepsInOrder(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	e := NewStepExecutor(b, fixedNow)

	result := e.Run(ctx, 7, 45, 1, workPlan())
	if result.Status != 1 {
		t.Fatalf("expected new enrollment status 1, got %d", result.Status)
	}
	if result.Message != "User Enrolled 1 of 1 courses completed" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if result.Email != "seven@example.com" {
		t.Fatalf("unexpected email %q", result.Email)
	}

	want := []string{
		"set_group_access user=7 group=45",
		"set_course_access user=7 course=100",
		"write_quiz user=7 item=31 course=100",
		"mark_complete user=7 item=21 course=100",
		"mark_complete user=7 item=11 course=100",
		"mark_complete user=7 item=12 course=100",
		"mark_complete user=7 item=100 course=100",
	}
	got := b.Ops()
	if len(got) != len(want) {
		t.Fatalf("got %d ops, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("op %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRunSynthesizesPassingQuizAttempt(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	e := NewStepExecutor(b, fixedNow)

	e.Run(ctx, 7, 45, 1, workPlan())

	history := b.QuizHistory(7)
	if len(history) != 1 {
		t.Fatalf("expected one attempt, got %+v", history)
	}
	attempt := history[0]
	if attempt.Quiz != 31 || attempt.Course != 100 {
		t.Fatalf("unexpected attempt target: %+v", attempt)
	}
	if !attempt.Pass || attempt.Score != 0 || attempt.Points != 0 || attempt.Rank != "-" {
		t.Fatalf("expected passing zero-score attempt, got %+v", attempt)
	}
	if attempt.ProQuizID != 1031 {
		t.Fatalf("expected pro quiz ID 1031, got %d", attempt.ProQuizID)
	}
	if attempt.Time != 1700000000 || attempt.EditTime != 1700000000 {
		t.Fatalf("expected injected timestamps, got time=%d edit=%d", attempt.Time, attempt.EditTime)
	}
	if attempt.EditedBy != 1 {
		t.Fatalf("expected admin as editor, got %d", attempt.EditedBy)
	}
}

func TestRunUnknownUser(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	e := NewStepExecutor(b, fixedNow)

	result := e.Run(ctx, 999, 45, 1, workPlan())
	if result.Status != 0 {
		t.Fatalf("expected status 0, got %d", result.Status)
	}
	if result.Message != "User ID (999) not found." {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(b.Ops()) != 0 {
		t.Fatalf("no backend writes expected, got %v", b.Ops())
	}
}

func TestRunAlreadyEnrolledUserKeepsStatusZero(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	if err := b.SetGroupAccess(ctx, 7, 45); err != nil {
		t.Fatalf("fixture enrollment failed: %v", err)
	}
	e := NewStepExecutor(b, fixedNow)

	result := e.Run(ctx, 7, 45, 1, workPlan())
	if result.Status != 0 {
		t.Fatalf("existing membership must not count as a new enrollment, got status %d", result.Status)
	}
	if result.Message != "User Already Enrolled 1 of 1 courses completed" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestRunGroupEnrollmentFailureShortCircuits(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	b.DenyGroupAccess[7] = true
	e := NewStepExecutor(b, fixedNow)

	result := e.Run(ctx, 7, 45, 1, workPlan())
	if result.Status != 0 || result.Message != "Unable to Enroll" {
		t.Fatalf("unexpected result %+v", result)
	}
	ops := b.Ops()
	if len(ops) != 1 || ops[0] != "set_group_access user=7 group=45" {
		t.Fatalf("course work must not run after a failed group grant, got %v", ops)
	}
}

func TestRunSkipsRefusedCourses(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	b.AddCourse(45, 200, []int64{61}, nil, nil)
	b.RefuseCourses[200] = true
	e := NewStepExecutor(b, fixedNow)

	courses := workPlan()
	courses[200] = models.CourseSteps{Lessons: []int64{61}}

	result := e.Run(ctx, 7, 45, 1, courses)
	if result.Message != "User Enrolled 1 of 1 courses completed" {
		t.Fatalf("refused course should drop out of the work set, got %q", result.Message)
	}
}

func TestRunNoCoursesToComplete(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	e := NewStepExecutor(b, fixedNow)

	result := e.Run(ctx, 7, 45, 1, nil)
	if result.Status != 1 {
		t.Fatalf("expected status 1, got %d", result.Status)
	}
	if result.Message != "User Enrolled no courses to complete" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestRunMissingQuizSettings(t *testing.T) {
	ctx := context.Background()
	b := fixtureBackend(t)
	b.RemoveQuizSettings(31)
	e := NewStepExecutor(b, fixedNow)

	result := e.Run(ctx, 7, 45, 1, workPlan())
	if result.Message != "User Enrolled 1 of 1 courses completed" {
		t.Fatalf("course completion should not depend on the quiz write, got %q", result.Message)
	}
	if history := b.QuizHistory(7); len(history) != 0 {
		t.Fatalf("no attempt should be recorded without quiz settings, got %+v", history)
	}
}
