package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
)

const taskSelect = `
	SELECT t.id::text, t.title, COALESCE(t.description, ''), t.status, COALESCE(t.priority, ''),
		t.due_date, COALESCE(t.assignee_id::text, ''), t.created_at, t.updated_at,
		u.id::text, u.username, u.email, u.role, u.created_at, u.updated_at
	FROM tasks t
	LEFT JOIN users u ON u.id = t.assignee_id
`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) FindAll(ctx context.Context) ([]domain.Task, error) {
	return r.queryTasks(ctx, taskSelect+` ORDER BY t.created_at, t.title`)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const where = `
	WHERE ($1 = '' OR t.status = $1)
	  AND ($2 = '' OR t.priority = $2)
	  AND ($3 = '' OR t.assignee_id::text = $3)
	ORDER BY t.created_at DESC
	LIMIT $4 OFFSET $5
	`
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	return r.queryTasks(ctx, taskSelect+where,
		filter.Status,
		filter.Priority,
		filter.AssigneeID,
		repository.ClampLimit(filter.Limit),
		offset,
	)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	if !validID(id) {
		return nil, nil
	}
	return scanTask(r.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1::uuid`, id))
}

func (r *taskRepository) FindByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	return r.queryTasks(ctx, taskSelect+` WHERE t.status = $1 ORDER BY t.created_at, t.title`, status)
}

func (r *taskRepository) FindByAssigneeID(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	if !validID(assigneeID) {
		return []domain.Task{}, nil
	}
	return r.queryTasks(ctx, taskSelect+` WHERE t.assignee_id = $1::uuid ORDER BY t.created_at, t.title`, assigneeID)
}

func (r *taskRepository) FindByTitleAndAssignee(ctx context.Context, title, assigneeID string) (*domain.Task, error) {
	if !validID(assigneeID) {
		return nil, nil
	}
	const where = ` WHERE t.title = $1 AND t.assignee_id = $2::uuid LIMIT 1`
	return scanTask(r.pool.QueryRow(ctx, taskSelect+where, title, assigneeID))
}

func (r *taskRepository) Save(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, title, description, status, priority, due_date, assignee_id, created_at, updated_at)
	VALUES ($1::uuid, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, NOW(), NOW())
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullDate(task.DueDate),
		task.AssigneeID,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateTaskName
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || !validID(task.ID) {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		status = $4,
		priority = $5,
		due_date = $6,
		assignee_id = NULLIF($7, '')::uuid,
		updated_at = GREATEST(NOW(), updated_at + INTERVAL '1 microsecond')
	WHERE id = $1::uuid
	RETURNING created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullDate(task.DueDate),
		task.AssigneeID,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateTaskName
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1::uuid)`, id).Scan(&exists)
	return exists, err
}

func (r *taskRepository) ExistsByTitleAndAssignee(ctx context.Context, title, assigneeID string) (bool, error) {
	if !validID(assigneeID) {
		return false, nil
	}
	const query = `SELECT EXISTS (SELECT 1 FROM tasks WHERE title = $1 AND assignee_id = $2::uuid)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, title, assigneeID).Scan(&exists)
	return exists, err
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task                 domain.Task
		due                  *time.Time
		userID, username     *string
		email, role          *string
		userCreated, userUpd *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&due,
		&task.AssigneeID,
		&task.CreatedAt,
		&task.UpdatedAt,
		&userID,
		&username,
		&email,
		&role,
		&userCreated,
		&userUpd,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	task.DueDate = dateOf(due)
	if userID != nil {
		task.Assignee = &domain.User{
			ID:       *userID,
			Username: deref(username),
			Email:    deref(email),
			Role:     deref(role),
		}
		if userCreated != nil {
			task.Assignee.CreatedAt = *userCreated
		}
		if userUpd != nil {
			task.Assignee.UpdatedAt = *userUpd
		}
	}
	return &task, nil
}
