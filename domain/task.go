package domain

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Task statuses. Any status may follow any other; only membership is checked.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
)

// Task priorities. An empty priority means "not set".
const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Task is a unit of work optionally delegated to a user.
//
// AssigneeID is a weak reference: the task does not own the user and the
// reference is cleared by storage when the user is deleted. Assignee is a
// read-only snapshot filled when the reference is explicitly resolved.
type Task struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority,omitempty"`
	DueDate     *civil.Date `json:"due_date,omitempty"`
	AssigneeID  string      `json:"assignee_id,omitempty"`
	Assignee    *User       `json:"assignee,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// IsCompleted reports whether the task is DONE.
func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusDone
}

// HasAssignee reports whether the task references a user.
func (t *Task) HasAssignee() bool {
	return t != nil && t.AssigneeID != ""
}

// Touch stamps the task for persistence: CreatedAt is set once, UpdatedAt on every call.
func (t *Task) Touch(now time.Time) {
	if t == nil {
		return
	}
	t.UpdatedAt = now
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
}

// IsValidStatus is a case-sensitive membership check against the canonical statuses.
func IsValidStatus(status string) bool {
	return status == StatusTodo || status == StatusInProgress || status == StatusDone
}

// NormalizeEnum upper-cases status and priority input coming from the API boundary.
func NormalizeEnum(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
