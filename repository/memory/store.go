// Package memory keeps users and tasks in process memory. It backs tests and
// the STORAGE_DRIVER=memory mode and mirrors the relational constraints of the
// SQL stores: unique usernames, unique (title, assignee) pairs and detaching
// tasks when their assignee is deleted.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

// Store holds both aggregates behind a single lock so the user delete cascade
// is applied atomically.
type Store struct {
	mu    sync.RWMutex
	users map[string]domain.User
	tasks map[string]domain.Task
	now   func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users: make(map[string]domain.User),
		tasks: make(map[string]domain.Task),
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserRepository exposes the store as a repository.UserRepository.
func (s *Store) UserRepository() repository.UserRepository {
	return &userRepository{store: s}
}

// TaskRepository exposes the store as a repository.TaskRepository.
func (s *Store) TaskRepository() repository.TaskRepository {
	return &taskRepository{store: s}
}

// later returns a timestamp strictly after prev even when the clock has not advanced.
func (s *Store) later(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (s *Store) withAssignee(task domain.Task) domain.Task {
	task.Assignee = nil
	if task.AssigneeID == "" {
		return task
	}
	if user, ok := s.users[task.AssigneeID]; ok {
		task.Assignee = &user
	}
	return task
}

func sortUsers(users []domain.User) {
	slices.SortFunc(users, func(a, b domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
}

func sortTasks(tasks []domain.Task) {
	slices.SortFunc(tasks, func(a, b domain.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Title, b.Title)
	})
}

type userRepository struct {
	store *Store
}

func (r *userRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, user)
	}
	sortUsers(users)
	return users, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (r *userRepository) SearchByUsername(ctx context.Context, term string) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	needle := strings.ToLower(term)
	users := make([]domain.User, 0)
	for _, user := range r.store.users {
		if strings.Contains(strings.ToLower(user.Username), needle) {
			users = append(users, user)
		}
	}
	slices.SortFunc(users, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return users, nil
}

func (r *userRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.usernameTaken(user.Username, user.ID) {
		return nil, domain.ErrUsernameTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.store.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.store.users[user.ID] = *user
	return user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.users[user.ID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if r.usernameTaken(user.Username, user.ID) {
		return nil, domain.ErrUsernameTaken
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.store.later(existing.UpdatedAt)

	r.store.users[user.ID] = *user
	return user, nil
}

// Delete removes the user and detaches every task that referenced it.
func (r *userRepository) Delete(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.store.users, user.ID)

	for id, task := range r.store.tasks {
		if task.AssigneeID == user.ID {
			task.AssigneeID = ""
			task.Assignee = nil
			r.store.tasks[id] = task
		}
	}
	return nil
}

func (r *userRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.users[id]
	return ok, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.usernameTaken(username, ""), nil
}

// usernameTaken must be called with the lock held.
func (r *userRepository) usernameTaken(username, exceptID string) bool {
	for id, user := range r.store.users {
		if id != exceptID && user.Username == username {
			return true
		}
	}
	return false
}

type taskRepository struct {
	store *Store
}

func (r *taskRepository) FindAll(ctx context.Context) ([]domain.Task, error) {
	return r.collect(ctx, func(domain.Task) bool { return true })
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	tasks, err := r.collect(ctx, func(task domain.Task) bool {
		return (filter.Status == "" || task.Status == filter.Status) &&
			(filter.Priority == "" || task.Priority == filter.Priority) &&
			(filter.AssigneeID == "" || task.AssigneeID == filter.AssigneeID)
	})
	if err != nil {
		return nil, err
	}

	slices.Reverse(tasks)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tasks) {
		return []domain.Task{}, nil
	}
	end := offset + repository.ClampLimit(filter.Limit)
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[offset:end], nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	task, ok := r.store.tasks[id]
	if !ok {
		return nil, nil
	}
	task = r.store.withAssignee(task)
	return &task, nil
}

func (r *taskRepository) FindByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	return r.collect(ctx, func(task domain.Task) bool { return task.Status == status })
}

func (r *taskRepository) FindByAssigneeID(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	if assigneeID == "" {
		return []domain.Task{}, nil
	}
	return r.collect(ctx, func(task domain.Task) bool { return task.AssigneeID == assigneeID })
}

func (r *taskRepository) FindByTitleAndAssignee(ctx context.Context, title, assigneeID string) (*domain.Task, error) {
	if assigneeID == "" {
		return nil, nil
	}
	tasks, err := r.collect(ctx, func(task domain.Task) bool {
		return task.Title == title && task.AssigneeID == assigneeID
	})
	if err != nil || len(tasks) == 0 {
		return nil, err
	}
	return &tasks[0], nil
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.titleTaken(task.Title, task.AssigneeID, task.ID) {
		return nil, domain.ErrDuplicateTaskName
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := r.store.now()
	task.CreatedAt = now
	task.UpdatedAt = now

	stored := *task
	stored.Assignee = nil
	r.store.tasks[task.ID] = stored
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.tasks[task.ID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if r.titleTaken(task.Title, task.AssigneeID, task.ID) {
		return nil, domain.ErrDuplicateTaskName
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = r.store.later(existing.UpdatedAt)

	stored := *task
	stored.Assignee = nil
	r.store.tasks[task.ID] = stored
	return task, nil
}

func (r *taskRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	_, ok := r.store.tasks[id]
	return ok, nil
}

func (r *taskRepository) ExistsByTitleAndAssignee(ctx context.Context, title, assigneeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.titleTaken(title, assigneeID, ""), nil
}

// titleTaken must be called with the lock held. Unassigned tasks never collide.
func (r *taskRepository) titleTaken(title, assigneeID, exceptID string) bool {
	if assigneeID == "" {
		return false
	}
	for id, task := range r.store.tasks {
		if id != exceptID && task.Title == title && task.AssigneeID == assigneeID {
			return true
		}
	}
	return false
}

func (r *taskRepository) collect(ctx context.Context, match func(domain.Task) bool) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tasks := make([]domain.Task, 0)
	for _, task := range r.store.tasks {
		if match(task) {
			tasks = append(tasks, r.store.withAssignee(task))
		}
	}
	sortTasks(tasks)
	return tasks, nil
}
