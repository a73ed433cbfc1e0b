package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fastygo/tasktracker/domain"
)

func TestIsValidStatus_IsCaseSensitive(t *testing.T) {
	for _, status := range []string{"TODO", "IN_PROGRESS", "DONE"} {
		assert.True(t, domain.IsValidStatus(status), status)
	}
	for _, status := range []string{"todo", "In_Progress", "done", "", "INVALID", " TODO"} {
		assert.False(t, domain.IsValidStatus(status), status)
	}
}

func TestTask_IsCompleted(t *testing.T) {
	assert.True(t, (&domain.Task{Status: domain.StatusDone}).IsCompleted())
	assert.False(t, (&domain.Task{Status: "done"}).IsCompleted())
	assert.False(t, (&domain.Task{Status: domain.StatusInProgress}).IsCompleted())

	var missing *domain.Task
	assert.False(t, missing.IsCompleted())
}

func TestNormalizeEnum(t *testing.T) {
	assert.Equal(t, "HIGH", domain.NormalizeEnum(" High "))
	assert.Equal(t, "IN_PROGRESS", domain.NormalizeEnum("in_progress"))
	assert.Equal(t, "ADMIN", domain.NormalizeRole("admin"))
	assert.True(t, domain.IsValidRole(domain.NormalizeRole("uSeR")))
	assert.False(t, domain.IsValidRole("user"))
}

func TestTouch_SetsCreatedOnce(t *testing.T) {
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	task := &domain.Task{}
	task.Touch(first)
	task.Touch(second)

	assert.Equal(t, first, task.CreatedAt)
	assert.Equal(t, second, task.UpdatedAt)

	user := &domain.User{}
	user.Touch(first)
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestError_CodeMatching(t *testing.T) {
	err := fmt.Errorf("loading: %w", domain.Errorf(domain.ErrCodeInvalid, "invalid status: %s", "X"))

	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
	assert.False(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
	assert.EqualError(t, err, "loading: invalid status: X")
	assert.False(t, domain.IsDomainError(errors.New("plain"), domain.ErrCodeInternal))
}

func TestError_IsMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create: %w", domain.NewError(domain.ErrCodeConflict, "username already exists"))

	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
	assert.NotErrorIs(t, err, domain.ErrDuplicateTaskName)

	wrapped := domain.WrapError(domain.ErrCodeInternal, "storage", errors.New("boom"))
	assert.Equal(t, "storage: boom", wrapped.Error())
}
