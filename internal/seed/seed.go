package seed

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

// Result reports how many records Run inserted.
type Result struct {
	Users int
	Tasks int
}

// Run inserts the demo users and tasks. Each table is only seeded while it is
// empty, so running it against a populated database is a no-op.
func Run(ctx context.Context, users repository.UserRepository, tasks repository.TaskRepository, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var result Result

	existingUsers, err := users.FindAll(ctx)
	if err != nil {
		return result, fmt.Errorf("seed users: %w", err)
	}
	if len(existingUsers) == 0 {
		for _, user := range Users() {
			user := user
			if _, err := users.Save(ctx, &user); err != nil {
				return result, fmt.Errorf("seed user %s: %w", user.Username, err)
			}
			result.Users++
		}
	}

	existingTasks, err := tasks.FindAll(ctx)
	if err != nil {
		return result, fmt.Errorf("seed tasks: %w", err)
	}
	if len(existingTasks) == 0 {
		for _, task := range Tasks() {
			task := task
			if _, err := tasks.Save(ctx, &task); err != nil {
				return result, fmt.Errorf("seed task %s: %w", task.Title, err)
			}
			result.Tasks++
		}
	}

	logger.Info("seed data applied", zap.Int("users", result.Users), zap.Int("tasks", result.Tasks))
	return result, nil
}

// Users returns the demo accounts.
func Users() []domain.User {
	return []domain.User{
		{ID: "550e8400-e29b-41d4-a716-446655440000", Username: "alice", Email: "alice@example.com", Role: domain.RoleAdmin},
		{ID: "550e8400-e29b-41d4-a716-446655440001", Username: "bob", Email: "bob@example.com", Role: domain.RoleUser},
		{ID: "550e8400-e29b-41d4-a716-446655440002", Username: "charlie", Email: "charlie@example.com", Role: domain.RoleUser},
		{ID: "550e8400-e29b-41d4-a716-446655440003", Username: "david", Email: "david@example.com", Role: domain.RoleUser},
		{ID: "550e8400-e29b-41d4-a716-446655440004", Username: "eve", Email: "eve@example.com", Role: domain.RoleAdmin},
	}
}

// Tasks returns the demo tasks, one per demo user. Priorities keep their
// mixed-case spelling, which the estimate treats as an unknown priority.
func Tasks() []domain.Task {
	due := func(day int) *civil.Date {
		d := civil.Date{Year: 2023, Month: 12, Day: day}
		return &d
	}
	return []domain.Task{
		{ID: "550e8400-e29b-41d4-a716-446655440010", Title: "Task 1", Description: "Description for task 1", Status: domain.StatusTodo, Priority: "High", DueDate: due(1), AssigneeID: "550e8400-e29b-41d4-a716-446655440000"},
		{ID: "550e8400-e29b-41d4-a716-446655440011", Title: "Task 2", Description: "Description for task 2", Status: domain.StatusInProgress, Priority: "Medium", DueDate: due(5), AssigneeID: "550e8400-e29b-41d4-a716-446655440001"},
		{ID: "550e8400-e29b-41d4-a716-446655440012", Title: "Task 3", Description: "Description for task 3", Status: domain.StatusDone, Priority: "Low", DueDate: due(10), AssigneeID: "550e8400-e29b-41d4-a716-446655440002"},
		{ID: "550e8400-e29b-41d4-a716-446655440013", Title: "Task 4", Description: "Description for task 4", Status: domain.StatusTodo, Priority: "Medium", DueDate: due(15), AssigneeID: "550e8400-e29b-41d4-a716-446655440003"},
		{ID: "550e8400-e29b-41d4-a716-446655440014", Title: "Task 5", Description: "Description for task 5", Status: domain.StatusInProgress, Priority: "High", DueDate: due(20), AssigneeID: "550e8400-e29b-41d4-a716-446655440004"},
	}
}
