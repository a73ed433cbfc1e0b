package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository"
	"github.com/fastygo/tasktracker/usecase"
)

// AssigneeDirectory is the read-only view of users that task rules depend on.
type AssigneeDirectory interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type UseCase struct {
	tasks     repository.TaskRepository
	assignees AssigneeDirectory
	activity  usecase.ActivityRecorder
	logger    *zap.Logger
}

func New(tasks repository.TaskRepository, assignees AssigneeDirectory, activity usecase.ActivityRecorder, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:     tasks,
		assignees: assignees,
		activity:  activity,
		logger:    logger,
	}
}

func (uc *UseCase) ListAll(ctx context.Context) ([]domain.Task, error) {
	return uc.tasks.FindAll(ctx)
}

// ListByStatus does not validate status; unknown values simply match nothing.
func (uc *UseCase) ListByStatus(ctx context.Context, status string) ([]domain.Task, error) {
	return uc.tasks.FindByStatus(ctx, status)
}

func (uc *UseCase) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	return uc.tasks.List(ctx, filter)
}

// GetByID returns nil without an error when the task does not exist.
func (uc *UseCase) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return uc.tasks.FindByID(ctx, id)
}

func (uc *UseCase) ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Task, error) {
	exists, err := uc.assignees.ExistsByID(ctx, assigneeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.Errorf(domain.ErrCodeNotFound, "user not found with ID: %s", assigneeID)
	}
	return uc.tasks.FindByAssigneeID(ctx, assigneeID)
}

// Create ignores any supplied identifier. Unassigned tasks are saved without
// existence or uniqueness checks.
func (uc *UseCase) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	task.ID = ""

	if task.HasAssignee() {
		if err := uc.requireAssignee(ctx, task.AssigneeID); err != nil {
			return nil, err
		}
		if strings.TrimSpace(task.Title) != "" {
			if err := uc.requireFreeTitle(ctx, task.Title, task.AssigneeID); err != nil {
				return nil, err
			}
		}
	}

	created, err := uc.tasks.Save(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.ActionCreated, created, nil)
	return created, nil
}

// Update overwrites the mutable fields of an existing task. Changing the
// assignee resolves the new user into the snapshot; clearing it drops both.
func (uc *UseCase) Update(ctx context.Context, id string, patch *domain.Task) (*domain.Task, error) {
	if patch == nil {
		return nil, domain.ErrInvalidPayload
	}

	exists, err := uc.tasks.ExistsByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, taskNotFound(id)
	}
	if patch.HasAssignee() {
		if err := uc.requireAssignee(ctx, patch.AssigneeID); err != nil {
			return nil, err
		}
	}

	original, err := uc.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, taskNotFound(id)
	}

	if patch.HasAssignee() &&
		(patch.AssigneeID != original.AssigneeID || patch.Title != original.Title) {
		if err := uc.requireFreeTitle(ctx, patch.Title, patch.AssigneeID); err != nil {
			return nil, err
		}
	}

	original.Title = patch.Title
	original.Description = patch.Description
	original.Priority = patch.Priority
	original.Status = patch.Status
	original.DueDate = patch.DueDate
	if patch.AssigneeID != original.AssigneeID {
		if patch.HasAssignee() {
			assignee, err := uc.assignees.GetByID(ctx, patch.AssigneeID)
			if err != nil {
				return nil, err
			}
			original.AssigneeID = patch.AssigneeID
			original.Assignee = assignee
		} else {
			original.AssigneeID = ""
			original.Assignee = nil
		}
	}

	updated, err := uc.tasks.Update(ctx, original)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.ActionUpdated, updated, nil)
	return updated, nil
}

// Assign moves the task to assigneeID, or unassigns it when assigneeID is empty.
// Only the reference changes; the assignee snapshot is left as loaded.
func (uc *UseCase) Assign(ctx context.Context, taskID, assigneeID string) (*domain.Task, error) {
	task, err := uc.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(taskID)
	}

	if assigneeID != "" {
		if err := uc.requireAssignee(ctx, assigneeID); err != nil {
			return nil, err
		}
		if strings.TrimSpace(task.Title) != "" && assigneeID != task.AssigneeID {
			if err := uc.requireFreeTitle(ctx, task.Title, assigneeID); err != nil {
				return nil, err
			}
		}
	}

	previous := task.AssigneeID
	task.AssigneeID = assigneeID

	updated, err := uc.tasks.Update(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.ActionAssigned, updated, map[string]string{
		"from": previous,
		"to":   assigneeID,
	})
	return updated, nil
}

// UpdateStatus accepts any canonical status from any current status. The
// comparison is case-sensitive; callers normalize input beforehand if needed.
func (uc *UseCase) UpdateStatus(ctx context.Context, taskID, status string) (*domain.Task, error) {
	task, err := uc.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, taskNotFound(taskID)
	}
	if !domain.IsValidStatus(status) {
		return nil, domain.Errorf(domain.ErrCodeInvalid, "invalid status: %s", status)
	}

	previous := task.Status
	task.Status = status

	updated, err := uc.tasks.Update(ctx, task)
	if err != nil {
		return nil, err
	}
	uc.record(ctx, domain.ActionStatusChanged, updated, map[string]string{
		"from": previous,
		"to":   status,
	})
	return updated, nil
}

// EstimateTime returns the estimated effort for the task in hours.
func (uc *UseCase) EstimateTime(ctx context.Context, taskID string) (float64, error) {
	task, err := uc.tasks.FindByID(ctx, taskID)
	if err != nil {
		return 0, err
	}
	if task == nil {
		return 0, taskNotFound(taskID)
	}
	return Estimate(task), nil
}

func (uc *UseCase) requireAssignee(ctx context.Context, assigneeID string) error {
	exists, err := uc.assignees.ExistsByID(ctx, assigneeID)
	if err != nil {
		return err
	}
	if !exists {
		return domain.Errorf(domain.ErrCodeInvalid, "assignee not found with ID: %s", assigneeID)
	}
	return nil
}

func (uc *UseCase) requireFreeTitle(ctx context.Context, title, assigneeID string) error {
	taken, err := uc.tasks.ExistsByTitleAndAssignee(ctx, title, assigneeID)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateTaskName
	}
	return nil
}

func (uc *UseCase) record(ctx context.Context, action string, task *domain.Task, attrs map[string]string) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["status"] = task.Status
	if task.AssigneeID != "" {
		attrs["assignee_id"] = task.AssigneeID
	}
	usecase.RecordActivity(ctx, uc.activity, uc.logger, domain.Activity{
		Entity:     domain.EntityTask,
		Action:     action,
		EntityID:   task.ID,
		Summary:    task.Title,
		Attributes: attrs,
	})
}

func taskNotFound(id string) error {
	return domain.Errorf(domain.ErrCodeInvalid, "task not found with ID: %s", id)
}
