package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository/memory"
	"github.com/fastygo/tasktracker/usecase/task"
)

func TestRun_SeedsEmptyStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	result, err := Run(ctx, store.UserRepository(), store.TaskRepository(), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 5, Tasks: 5}, result)

	alice, err := store.UserRepository().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, domain.RoleAdmin, alice.Role)

	first, err := store.TaskRepository().FindByID(ctx, "550e8400-e29b-41d4-a716-446655440010")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.Assignee)
	assert.Equal(t, "alice", first.Assignee.Username)
	assert.Equal(t, "High", first.Priority)
	assert.Equal(t, 2.0, task.Estimate(first))
}

func TestRun_Idempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	_, err := Run(ctx, store.UserRepository(), store.TaskRepository(), nil)
	require.NoError(t, err)

	again, err := Run(ctx, store.UserRepository(), store.TaskRepository(), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)

	all, err := store.TaskRepository().FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestRun_SkipsPopulatedUsers(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	_, err := store.UserRepository().Save(ctx, &domain.User{Username: "zoe", Role: domain.RoleUser})
	require.NoError(t, err)

	result, err := Run(ctx, store.UserRepository(), store.TaskRepository(), nil)
	require.NoError(t, err)
	assert.Equal(t, Result{Tasks: 5}, result)

	exists, err := store.UserRepository().ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}
