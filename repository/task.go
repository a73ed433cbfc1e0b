package repository

import (
	"context"

	"github.com/fastygo/tasktracker/domain"
)

// TaskFilter narrows List results. Empty fields match everything.
type TaskFilter struct {
	Status     string
	Priority   string
	AssigneeID string
	Limit      int
	Offset     int
}

// TaskRepository is the persistence boundary for tasks.
//
// Find methods return (nil, nil) when nothing matches and load the assignee
// snapshot when the task references a user.
type TaskRepository interface {
	FindAll(ctx context.Context) ([]domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	FindByStatus(ctx context.Context, status string) ([]domain.Task, error)
	FindByAssigneeID(ctx context.Context, assigneeID string) ([]domain.Task, error)
	FindByTitleAndAssignee(ctx context.Context, title, assigneeID string) (*domain.Task, error)
	Save(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) (*domain.Task, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByTitleAndAssignee(ctx context.Context, title, assigneeID string) (bool, error)
}

// ClampLimit bounds page sizes shared by every store.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 100
	}
	return limit
}
