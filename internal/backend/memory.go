// internal/backend/memory.go
package backend

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory LearningBackend used for local development and
// tests. Fixtures are loaded through the Add* methods; the Deny/Refuse
// maps inject enrollment failures.
type Memory struct {
	mu           sync.Mutex
	users        map[int64]User
	groups       map[int64]Group
	groupCourses map[int64][]int64
	courseSteps  map[int64]map[StepKind][]int64
	quizPro      map[int64]int64
	userGroups   map[int64]map[int64]bool
	userCourses  map[int64]map[int64]bool
	completed    map[string]bool
	quizHistory  map[int64][]QuizAttempt

	// DenyGroupAccess lists user IDs whose group grants silently fail.
	DenyGroupAccess map[int64]bool
	// RefuseCourses lists course IDs the backend refuses to enroll into.
	RefuseCourses map[int64]bool

	ops []string
}

func NewMemory() *Memory {
	return &Memory{
		users:           make(map[int64]User),
		groups:          make(map[int64]Group),
		groupCourses:    make(map[int64][]int64),
		courseSteps:     make(map[int64]map[StepKind][]int64),
		quizPro:         make(map[int64]int64),
		userGroups:      make(map[int64]map[int64]bool),
		userCourses:     make(map[int64]map[int64]bool),
		completed:       make(map[string]bool),
		quizHistory:     make(map[int64][]QuizAttempt),
		DenyGroupAccess: make(map[int64]bool),
		RefuseCourses:   make(map[int64]bool),
	}
}

func (m *Memory) AddUser(id int64, email string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = User{ID: id, Email: email}
}

func (m *Memory) AddGroup(id int64, title string, published bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[id] = Group{ID: id, Title: title, Published: published}
}

// AddCourse attaches a course with its step items to a group. The pro
// quiz ID defaults to quizID+1000 for every quiz, mirroring how the real
// backend pairs each quiz with a completion-settings record.
func (m *Memory) AddCourse(groupID, courseID int64, lessons, topics, quizzes []int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupCourses[groupID] = append(m.groupCourses[groupID], courseID)
	m.courseSteps[courseID] = map[StepKind][]int64{
		StepLesson: lessons,
		StepTopic:  topics,
		StepQuiz:   quizzes,
	}
	for _, q := range quizzes {
		m.quizPro[q] = q + 1000
	}
}

// RemoveQuizSettings drops a quiz's completion settings so that
// WriteQuizCompletion reports nothing was written.
func (m *Memory) RemoveQuizSettings(quizID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quizPro, quizID)
}

// Ops returns the mutating backend calls in invocation order.
func (m *Memory) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

// QuizHistory returns the synthesized attempts recorded for a user.
func (m *Memory) QuizHistory(userID int64) []QuizAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]QuizAttempt(nil), m.quizHistory[userID]...)
}

func completionKey(userID, itemID, courseID int64) string {
	return fmt.Sprintf("%d:%d:%d", userID, itemID, courseID)
}

func (m *Memory) ResolveUser(ctx context.Context, userID int64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) LookupGroup(ctx context.Context, groupID int64) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *Memory) UserGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id := range m.userGroups[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) SetGroupAccess(ctx context.Context, userID, groupID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, fmt.Sprintf("set_group_access user=%d group=%d", userID, groupID))
	if m.DenyGroupAccess[userID] {
		return nil
	}
	if m.userGroups[userID] == nil {
		m.userGroups[userID] = make(map[int64]bool)
	}
	m.userGroups[userID][groupID] = true
	return nil
}

func (m *Memory) IsUserInGroup(ctx context.Context, userID, groupID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userGroups[userID][groupID], nil
}

func (m *Memory) UserCourseIDs(ctx context.Context, userID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id := range m.userCourses[userID] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) SetCourseAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, fmt.Sprintf("set_course_access user=%d course=%d", userID, courseID))
	if m.RefuseCourses[courseID] {
		return false, nil
	}
	if m.userCourses[userID] == nil {
		m.userCourses[userID] = make(map[int64]bool)
	}
	m.userCourses[userID][courseID] = true
	return true, nil
}

func (m *Memory) IsCourseComplete(ctx context.Context, userID, courseID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completed[completionKey(userID, courseID, courseID)], nil
}

func (m *Memory) IsStepComplete(ctx context.Context, userID, itemID, courseID int64, kind StepKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if kind == StepQuiz {
		for _, attempt := range m.quizHistory[userID] {
			if attempt.Quiz == itemID && attempt.Course == courseID && attempt.Pass {
				return true, nil
			}
		}
		return false, nil
	}
	return m.completed[completionKey(userID, itemID, courseID)], nil
}

func (m *Memory) MarkComplete(ctx context.Context, userID, itemID, courseID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, fmt.Sprintf("mark_complete user=%d item=%d course=%d", userID, itemID, courseID))
	m.completed[completionKey(userID, itemID, courseID)] = true
	return true, nil
}

func (m *Memory) WriteQuizCompletion(ctx context.Context, userID, quizID, courseID int64, attempt QuizAttempt) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, fmt.Sprintf("write_quiz user=%d item=%d course=%d", userID, quizID, courseID))
	pro, ok := m.quizPro[quizID]
	if !ok {
		return false, nil
	}
	attempt.ProQuizID = pro
	m.quizHistory[userID] = append(m.quizHistory[userID], attempt)
	return true, nil
}

func (m *Memory) GroupCourses(ctx context.Context, groupID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.groupCourses[groupID]...), nil
}

func (m *Memory) CourseSteps(ctx context.Context, courseID int64, kind StepKind) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps, ok := m.courseSteps[courseID]
	if !ok {
		return nil, nil
	}
	return append([]int64(nil), steps[kind]...), nil
}
