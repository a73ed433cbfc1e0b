// Package logged decorates repositories with structured call logging.
package logged

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

type recorder struct {
	logger *zap.Logger
}

// done logs a finished repository call. Infrastructure failures are logged at
// error level; domain errors such as unique violations only at debug.
func (r recorder) done(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("method", method),
		zap.Duration("took", time.Since(start)),
	)
	if err != nil {
		if isDomain(err) {
			r.logger.Debug("repository call rejected", append(fields, zap.Error(err))...)
			return
		}
		r.logger.Error("repository call failed", append(fields, zap.Error(err))...)
		return
	}
	r.logger.Debug("repository call", fields...)
}

func isDomain(err error) bool {
	for _, code := range []domain.ErrorCode{
		domain.ErrCodeNotFound,
		domain.ErrCodeInvalid,
		domain.ErrCodeConflict,
	} {
		if domain.IsDomainError(err, code) {
			return true
		}
	}
	return false
}

type userRepository struct {
	next repository.UserRepository
	rec  recorder
}

// Users wraps a UserRepository. A nil logger returns next unchanged.
func Users(next repository.UserRepository, logger *zap.Logger) repository.UserRepository {
	if logger == nil {
		return next
	}
	return &userRepository{next: next, rec: recorder{logger: logger.Named("repository.users")}}
}

func (r *userRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	start := time.Now()
	users, err := r.next.FindAll(ctx)
	r.rec.done("FindAll", start, err, zap.Int("count", len(users)))
	return users, err
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	start := time.Now()
	user, err := r.next.FindByID(ctx, id)
	r.rec.done("FindByID", start, err, zap.String("id", id), zap.Bool("found", user != nil))
	return user, err
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	start := time.Now()
	user, err := r.next.FindByUsername(ctx, username)
	r.rec.done("FindByUsername", start, err, zap.String("username", username), zap.Bool("found", user != nil))
	return user, err
}

func (r *userRepository) SearchByUsername(ctx context.Context, term string) ([]domain.User, error) {
	start := time.Now()
	users, err := r.next.SearchByUsername(ctx, term)
	r.rec.done("SearchByUsername", start, err, zap.String("term", term), zap.Int("count", len(users)))
	return users, err
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	start := time.Now()
	saved, err := r.next.Save(ctx, user)
	r.rec.done("Save", start, err, userField(saved))
	return saved, err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	start := time.Now()
	updated, err := r.next.Update(ctx, user)
	r.rec.done("Update", start, err, userField(user))
	return updated, err
}

func (r *userRepository) Delete(ctx context.Context, user *domain.User) error {
	start := time.Now()
	err := r.next.Delete(ctx, user)
	r.rec.done("Delete", start, err, userField(user))
	return err
}

func (r *userRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	exists, err := r.next.ExistsByID(ctx, id)
	r.rec.done("ExistsByID", start, err, zap.String("id", id), zap.Bool("exists", exists))
	return exists, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	start := time.Now()
	exists, err := r.next.ExistsByUsername(ctx, username)
	r.rec.done("ExistsByUsername", start, err, zap.String("username", username), zap.Bool("exists", exists))
	return exists, err
}

func userField(user *domain.User) zap.Field {
	if user == nil {
		return zap.Skip()
	}
	return zap.String("user_id", user.ID)
}

type taskRepository struct {
	next repository.TaskRepository
	rec  recorder
}

// Tasks wraps a TaskRepository. A nil logger returns next unchanged.
func Tasks(next repository.TaskRepository, logger *zap.Logger) repository.TaskRepository {
	if logger == nil {
		return next
	}
	return &taskRepository{next: next, rec: recorder{logger: logger.Named("repository.tasks")}}
}

func (r *taskRepository) FindAll(ctx context.Context) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := r.next.FindAll(ctx)
	r.rec.done("FindAll", start, err, zap.Int("count", len(tasks)))
	return tasks, err
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := r.next.List(ctx, filter)
	r.rec.done("List", start, err,
		zap.String("status", filter.Status),
		zap.String("priority", filter.Priority),
		zap.String("assignee_id", filter.AssigneeID),
		zap.Int("limit", filter.Limit),
		zap.Int("offset", filter.Offset),
		zap.Int("count", len(tasks)),
	)
	return tasks, err
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	start := time.Now()
	task, err := r.next.FindByID(ctx, id)
	r.rec.done("FindByID", start, err, zap.String("id", id), zap.Bool("found", task != nil))
	return task, err
}

func (r *taskRepository) FindByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := r.next.FindByStatus(ctx, status)
	r.rec.done("FindByStatus", start, err, zap.String("status", status), zap.Int("count", len(tasks)))
	return tasks, err
}

func (r *taskRepository) FindByAssigneeID(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	start := time.Now()
	tasks, err := r.next.FindByAssigneeID(ctx, assigneeID)
	r.rec.done("FindByAssigneeID", start, err, zap.String("assignee_id", assigneeID), zap.Int("count", len(tasks)))
	return tasks, err
}

func (r *taskRepository) FindByTitleAndAssignee(ctx context.Context, title, assigneeID string) (*domain.Task, error) {
	start := time.Now()
	task, err := r.next.FindByTitleAndAssignee(ctx, title, assigneeID)
	r.rec.done("FindByTitleAndAssignee", start, err, zap.String("assignee_id", assigneeID), zap.Bool("found", task != nil))
	return task, err
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	start := time.Now()
	saved, err := r.next.Save(ctx, task)
	r.rec.done("Save", start, err, taskField(saved))
	return saved, err
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	start := time.Now()
	updated, err := r.next.Update(ctx, task)
	r.rec.done("Update", start, err, taskField(task))
	return updated, err
}

func (r *taskRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	exists, err := r.next.ExistsByID(ctx, id)
	r.rec.done("ExistsByID", start, err, zap.String("id", id), zap.Bool("exists", exists))
	return exists, err
}

func (r *taskRepository) ExistsByTitleAndAssignee(ctx context.Context, title, assigneeID string) (bool, error) {
	start := time.Now()
	exists, err := r.next.ExistsByTitleAndAssignee(ctx, title, assigneeID)
	r.rec.done("ExistsByTitleAndAssignee", start, err, zap.String("assignee_id", assigneeID), zap.Bool("exists", exists))
	return exists, err
}

func taskField(task *domain.Task) zap.Field {
	if task == nil {
		return zap.Skip()
	}
	return zap.String("task_id", task.ID)
}
