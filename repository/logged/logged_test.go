package logged

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/repository/memory"
	"github.com/fastygo/tasktracker/repository/mocks"
)

func TestUsers_LogsCalls(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	users := Users(memory.NewStore().UserRepository(), zap.New(core))
	ctx := context.Background()

	_, err := users.Save(ctx, &domain.User{Username: "alice", Role: domain.RoleUser})
	require.NoError(t, err)
	_, err = users.Save(ctx, &domain.User{Username: "alice", Role: domain.RoleUser})
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	entries := logs.FilterField(zap.String("method", "Save")).All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "repository call", entries[0].Message)
	assert.Equal(t, "repository call rejected", entries[1].Message)
}

func TestTasks_LogsInfrastructureFailuresAtError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	repo := new(mocks.TaskRepository)
	repo.On("FindByID", context.Background(), "t-1").Return(nil, errors.New("connection reset"))

	tasks := Tasks(repo, zap.New(core))
	_, err := tasks.FindByID(context.Background(), "t-1")
	require.Error(t, err)

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "repository call failed", entries[0].Message)
	repo.AssertExpectations(t)
}

func TestNilLoggerReturnsInner(t *testing.T) {
	inner := memory.NewStore().TaskRepository()
	assert.Same(t, inner, Tasks(inner, nil))
}
