package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
)

var initMigration = filepath.Join("..", "..", "assets", "migrations", "000001_init.up.sql")

func TestInitMigration_OptionalColumnsAcceptNull(t *testing.T) {
	raw, err := os.ReadFile(initMigration)
	require.NoError(t, err)

	columns := map[string]string{}
	for _, line := range strings.Split(string(raw), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			columns[fields[0]] = line
		}
	}

	for _, name := range []string{"email", "description", "priority"} {
		line, ok := columns[name]
		require.True(t, ok, "column %s not declared", name)
		assert.NotContains(t, line, "NOT NULL", "column %s", name)
	}
}

// openTestPool applies the init migration into a throwaway schema of the
// database named by DATABASE_URL.
func openTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := fmt.Sprintf("repo_test_%d", time.Now().UnixNano())
	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile(initMigration)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err)
	return pool
}

func TestRepositories_EmptyOptionalFields(t *testing.T) {
	pool := openTestPool(t)
	ctx := context.Background()
	users := NewUserRepository(pool)
	tasks := NewTaskRepository(pool)

	owner, err := users.Save(ctx, &domain.User{Username: "no-mail", Role: domain.RoleUser})
	require.NoError(t, err)
	require.NotEmpty(t, owner.ID)
	assert.Equal(t, owner.CreatedAt, owner.UpdatedAt)

	loadedUser, err := users.FindByID(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, loadedUser)
	assert.Empty(t, loadedUser.Email)

	owner.Role = domain.RoleAdmin
	updatedUser, err := users.Update(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, updatedUser.Email)
	assert.True(t, updatedUser.UpdatedAt.After(updatedUser.CreatedAt))

	for _, assignee := range []string{"", owner.ID} {
		task, err := tasks.Save(ctx, &domain.Task{Title: "bare", Status: domain.StatusTodo, AssigneeID: assignee})
		require.NoError(t, err, "assignee %q", assignee)

		loaded, err := tasks.FindByID(ctx, task.ID)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Empty(t, loaded.Description)
		assert.Empty(t, loaded.Priority)
		assert.Nil(t, loaded.DueDate)
		assert.Equal(t, assignee, loaded.AssigneeID)

		loaded.Status = domain.StatusDone
		updated, err := tasks.Update(ctx, loaded)
		require.NoError(t, err)
		assert.Empty(t, updated.Description)
		assert.Empty(t, updated.Priority)
	}

	assigned, err := tasks.FindByAssigneeID(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0].Assignee)
	assert.Empty(t, assigned[0].Assignee.Email)

	missing, err := tasks.FindByID(ctx, "00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
