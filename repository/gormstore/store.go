// Package gormstore implements the repositories on top of gorm, used with the
// sqlite and gorm-postgres storage drivers.
package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

const (
	userOrder = "created_at, username"
	taskOrder = "created_at, title"
)

// Store wraps a gorm handle. The handle should be opened with
// TranslateError enabled so unique violations surface as gorm.ErrDuplicatedKey.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store.
func New(db *gorm.DB) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// UserRepository exposes the store as a repository.UserRepository.
func (s *Store) UserRepository() repository.UserRepository {
	return &userRepository{store: s}
}

// TaskRepository exposes the store as a repository.TaskRepository.
func (s *Store) TaskRepository() repository.TaskRepository {
	return &taskRepository{store: s}
}

func (s *Store) later(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

type userRepository struct {
	store *Store
}

func (r *userRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	var models []userModel
	if err := r.store.db.WithContext(ctx).Order(userOrder).Find(&models).Error; err != nil {
		return nil, err
	}
	return usersToDomain(models), nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) SearchByUsername(ctx context.Context, term string) ([]domain.User, error) {
	pattern := "%" + strings.ToLower(escapeLike(term)) + "%"
	var models []userModel
	err := r.store.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, pattern).
		Order("username").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return usersToDomain(models), nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.store.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	model := userFromDomain(user)
	if err := r.store.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}

	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userModel
		if err := tx.First(&existing, "id = ?", user.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		user.CreatedAt = existing.CreatedAt
		user.UpdatedAt = r.store.later(existing.UpdatedAt)

		model := userFromDomain(user)
		return tx.Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, err
	}
	return user, nil
}

// Delete detaches the user's tasks and removes the user in one transaction,
// matching ON DELETE SET NULL on drivers that do not enforce foreign keys.
func (r *userRepository) Delete(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrInvalidPayload
	}
	return r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&taskModel{}).
			Where("assignee_id = ?", user.ID).
			Update("assignee_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&userModel{}, "id = ?", user.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

func (r *userRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.store.db.WithContext(ctx).Model(&userModel{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.store.db.WithContext(ctx).Model(&userModel{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *userRepository) first(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	var model userModel
	if err := r.store.db.WithContext(ctx).Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	user := model.toDomain()
	return &user, nil
}

func usersToDomain(models []userModel) []domain.User {
	users := make([]domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, m.toDomain())
	}
	return users
}

type taskRepository struct {
	store *Store
}

func (r *taskRepository) query(ctx context.Context) *gorm.DB {
	return r.store.db.WithContext(ctx).Preload("Assignee")
}

func (r *taskRepository) FindAll(ctx context.Context) ([]domain.Task, error) {
	return r.find(r.query(ctx).Order(taskOrder))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	q := r.query(ctx)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.AssigneeID != "" {
		q = q.Where("assignee_id = ?", filter.AssigneeID)
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return r.find(q.Order("created_at DESC, title DESC").Limit(repository.ClampLimit(filter.Limit)).Offset(offset))
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	return r.first(r.query(ctx).Where("id = ?", id))
}

func (r *taskRepository) FindByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	return r.find(r.query(ctx).Where("status = ?", status).Order(taskOrder))
}

func (r *taskRepository) FindByAssigneeID(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	if assigneeID == "" {
		return []domain.Task{}, nil
	}
	return r.find(r.query(ctx).Where("assignee_id = ?", assigneeID).Order(taskOrder))
}

func (r *taskRepository) FindByTitleAndAssignee(ctx context.Context, title, assigneeID string) (*domain.Task, error) {
	if assigneeID == "" {
		return nil, nil
	}
	return r.first(r.query(ctx).Where("title = ? AND assignee_id = ?", title, assigneeID))
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.store.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	model := taskFromDomain(task)
	if err := r.store.db.WithContext(ctx).Omit(clause.Associations).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateTaskName
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing taskModel
		if err := tx.First(&existing, "id = ?", task.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrTaskNotFound
			}
			return err
		}
		task.CreatedAt = existing.CreatedAt
		task.UpdatedAt = r.store.later(existing.UpdatedAt)

		model := taskFromDomain(task)
		return tx.Omit(clause.Associations).Save(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateTaskName
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.store.db.WithContext(ctx).Model(&taskModel{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *taskRepository) ExistsByTitleAndAssignee(ctx context.Context, title, assigneeID string) (bool, error) {
	if assigneeID == "" {
		return false, nil
	}
	var count int64
	err := r.store.db.WithContext(ctx).Model(&taskModel{}).
		Where("title = ? AND assignee_id = ?", title, assigneeID).
		Count(&count).Error
	return count > 0, err
}

func (r *taskRepository) first(q *gorm.DB) (*domain.Task, error) {
	var model taskModel
	if err := q.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	task := model.toDomain()
	return &task, nil
}

func (r *taskRepository) find(q *gorm.DB) ([]domain.Task, error) {
	var models []taskModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	tasks := make([]domain.Task, 0, len(models))
	for _, m := range models {
		tasks = append(tasks, m.toDomain())
	}
	return tasks, nil
}
