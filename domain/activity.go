package domain

import "time"

// Entities and actions reported to the activity journal.
const (
	EntityUser = "user"
	EntityTask = "task"

	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionAssigned      = "assigned"
	ActionStatusChanged = "status_changed"
)

// Activity records a successful mutation applied to a user or a task.
type Activity struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Action     string            `json:"action"`
	EntityID   string            `json:"entity_id"`
	Summary    string            `json:"summary,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
