// internal/models/task.go
package models

import (
	"encoding/json"
)

// Status represents the lifecycle state of the enrollment task record
type Status string

const (
	StatusIdle       Status = "idle"
	StatusRun        Status = "run"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// MessageType classifies audit trail entries
type MessageType string

const (
	MessageInfo  MessageType = "info"
	MessageError MessageType = "error"
)

// Message is a single audit trail entry for the current job run
type Message struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// Result records the outcome of processing one user, in completion order
type Result struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Status  int    `json:"status"` // 1 = enrolled, 0 = not enrolled / error
	Message string `json:"message"`
}

// CourseSteps holds the cached item IDs for one course of the work plan
type CourseSteps struct {
	Lessons []int64 `json:"lessons"`
	Topics  []int64 `json:"topics"`
	Quizzes []int64 `json:"quizzes"`
}

// TaskRecord is the single persisted job state. Exactly one record exists
// at a time, stored under a fixed key; callers submit a partial record
// with status "run" and the controller drives it through processing.
type TaskRecord struct {
	Status    Status                `json:"status"`
	UserIDs   []int64               `json:"user_ids"`
	GroupID   int64                 `json:"group_id"`
	AdminID   int64                 `json:"admin_id"`
	Courses   map[int64]CourseSteps `json:"courses"`
	Results   []Result              `json:"results"`
	Title     string                `json:"title"`
	Started   int64                 `json:"started"`
	Completed int64                 `json:"completed"`
	Messaging []Message             `json:"messaging"`
}

// NewTaskRecord returns a record populated with schema defaults
func NewTaskRecord() *TaskRecord {
	return &TaskRecord{
		Status:    StatusIdle,
		UserIDs:   []int64{},
		Courses:   map[int64]CourseSteps{},
		Results:   []Result{},
		Messaging: []Message{},
	}
}

// IsActive reports whether the record describes a job in flight
func (t *TaskRecord) IsActive() bool {
	return t.Status == StatusRun || t.Status == StatusProcessing
}

// IsTerminal reports whether the record has reached a final state
func (t *TaskRecord) IsTerminal() bool {
	return t.Status == StatusCompleted || t.Status == StatusCancelled
}

// AddMessage appends an audit trail entry
func (t *TaskRecord) AddMessage(kind MessageType, msg string) {
	t.Messaging = append(t.Messaging, Message{Type: kind, Message: msg})
}

// EnrolledCount returns the number of results with a truthy status
func (t *TaskRecord) EnrolledCount() int {
	n := 0
	for _, r := range t.Results {
		if r.Status != 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy so callers can mutate without aliasing the
// loaded record
func (t *TaskRecord) Clone() *TaskRecord {
	c := *t
	c.UserIDs = append([]int64(nil), t.UserIDs...)
	c.Results = append([]Result(nil), t.Results...)
	c.Messaging = append([]Message(nil), t.Messaging...)
	c.Courses = make(map[int64]CourseSteps, len(t.Courses))
	for id, steps := range t.Courses {
		c.Courses[id] = CourseSteps{
			Lessons: append([]int64(nil), steps.Lessons...),
			Topics:  append([]int64(nil), steps.Topics...),
			Quizzes: append([]int64(nil), steps.Quizzes...),
		}
	}
	return &c
}

// ToJSON converts the task record to JSON
func (t *TaskRecord) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON populates the task record from JSON
func (t *TaskRecord) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
