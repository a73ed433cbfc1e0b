package handler_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/journal"
	"github.com/fastygo/tasktracker/internal/infrastructure/monitor"
	"github.com/fastygo/tasktracker/internal/router"
	"github.com/fastygo/tasktracker/internal/services"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	"github.com/fastygo/tasktracker/repository/memory"
	taskUC "github.com/fastygo/tasktracker/usecase/task"
	userUC "github.com/fastygo/tasktracker/usecase/user"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

type api struct {
	t       *testing.T
	handler fasthttp.RequestHandler
	journal *journal.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()

	journalStore, err := journal.Open(filepath.Join(t.TempDir(), "activity.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journalStore.Close() })
	recorder := services.NewActivityBridge(journalStore)

	users := userUC.New(store.UserRepository(), recorder, nil)
	tasks := taskUC.New(store.TaskRepository(), users, recorder, nil)
	adapter := httpcontext.NewAdapter(time.Second)

	mon := monitor.New(0, nil)
	mon.Refresh(context.Background())

	r := router.New(router.Handlers{
		User:     apiHandler.NewUserHandler(users, tasks, adapter, nil),
		Task:     apiHandler.NewTaskHandler(tasks, adapter, nil),
		Activity: apiHandler.NewActivityHandler(journalStore, adapter, nil),
		Health:   apiHandler.NewHealthHandler(mon, adapter, nil),
	}, nil)

	return &api{t: t, handler: r.Handler, journal: journalStore}
}

func (a *api) do(method, uri, body string) (int, envelope) {
	a.t.Helper()
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	a.handler(ctx)

	var env envelope
	if raw := ctx.Response.Body(); len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &env), string(raw))
	}
	return ctx.Response.StatusCode(), env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (a *api) createUser(username string) domain.User {
	a.t.Helper()
	status, env := a.do(fasthttp.MethodPost, "/api/v1/users", `{"username":"`+username+`","email":"`+username+`@example.com","role":"user"}`)
	require.Equal(a.t, fasthttp.StatusCreated, status, env.Error)
	return decode[domain.User](a.t, env.Data)
}

func (a *api) createTask(body string) domain.Task {
	a.t.Helper()
	status, env := a.do(fasthttp.MethodPost, "/api/v1/tasks", body)
	require.Equal(a.t, fasthttp.StatusCreated, status, env.Error)
	return decode[domain.Task](a.t, env.Data)
}

func TestUsers_CreateGetUpdateDelete(t *testing.T) {
	a := newAPI(t)

	alice := a.createUser("alice")
	assert.NotEmpty(t, alice.ID)
	assert.Equal(t, domain.RoleUser, alice.Role)

	status, env := a.do(fasthttp.MethodGet, "/api/v1/users/"+alice.ID, "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "alice", decode[domain.User](t, env.Data).Username)

	status, env = a.do(fasthttp.MethodPut, "/api/v1/users/"+alice.ID, `{"username":"alice2","role":"ADMIN"}`)
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	updated := decode[domain.User](t, env.Data)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, domain.RoleAdmin, updated.Role)

	status, _ = a.do(fasthttp.MethodDelete, "/api/v1/users/"+alice.ID, "")
	assert.Equal(t, fasthttp.StatusNoContent, status)

	status, env = a.do(fasthttp.MethodDelete, "/api/v1/users/"+alice.ID, "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Code)

	status, _ = a.do(fasthttp.MethodGet, "/api/v1/users/"+alice.ID, "")
	assert.Equal(t, fasthttp.StatusNotFound, status)
}

func TestUsers_Errors(t *testing.T) {
	a := newAPI(t)
	a.createUser("bob")

	status, env := a.do(fasthttp.MethodPost, "/api/v1/users", `{"username":"bob","role":"USER"}`)
	assert.Equal(t, fasthttp.StatusConflict, status)
	assert.Equal(t, "username already exists", env.Error)

	meta := decode[map[string]interface{}](t, env.Meta)
	assert.NotEmpty(t, meta["error_id"])
	assert.Equal(t, "/api/v1/users", meta["path"])
	assert.NotEmpty(t, meta["timestamp"])

	status, env = a.do(fasthttp.MethodPost, "/api/v1/users", `{"username":"carol","role":"owner"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Contains(t, env.Error, "role must be one of USER, ADMIN")

	status, _ = a.do(fasthttp.MethodPut, "/api/v1/users/00000000-0000-0000-0000-000000000000", `{"username":"x","role":"USER"}`)
	assert.Equal(t, fasthttp.StatusNotFound, status)
}

func TestUsers_SearchAndUsernames(t *testing.T) {
	a := newAPI(t)
	a.createUser("Alice")
	a.createUser("malicia")
	a.createUser("bob")

	status, env := a.do(fasthttp.MethodGet, "/api/v1/users?username=ALI", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Len(t, decode[[]domain.User](t, env.Data), 2)

	_, env = a.do(fasthttp.MethodGet, "/api/v1/users", "")
	assert.Len(t, decode[[]domain.User](t, env.Data), 3)

	status, env = a.do(fasthttp.MethodGet, "/api/v1/usernames/bob", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "bob", decode[domain.User](t, env.Data).Username)

	status, _ = a.do(fasthttp.MethodGet, "/api/v1/usernames/zed", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)

	_, env = a.do(fasthttp.MethodGet, "/api/v1/usernames/bob/exists", "")
	assert.True(t, decode[map[string]bool](t, env.Data)["exists"])
}

func TestTasks_Lifecycle(t *testing.T) {
	a := newAPI(t)
	alice := a.createUser("alice")
	bob := a.createUser("bob")

	task := a.createTask(`{"title":"Write docs","description":"one two three","status":"todo","priority":"high","due_date":"2024-01-31","assignee_id":"` + alice.ID + `"}`)
	assert.Equal(t, domain.StatusTodo, task.Status)
	assert.Equal(t, domain.PriorityHigh, task.Priority)
	assert.Equal(t, alice.ID, task.AssigneeID)

	status, env := a.do(fasthttp.MethodPost, "/api/v1/tasks", `{"title":"Write docs","status":"TODO","assignee_id":"`+alice.ID+`"}`)
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "a task with this title already exists for this user", env.Error)

	status, env = a.do(fasthttp.MethodPut, "/api/v1/tasks/"+task.ID+"/assign?assigneeId="+bob.ID, "")
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	assert.Equal(t, bob.ID, decode[domain.Task](t, env.Data).AssigneeID)

	status, env = a.do(fasthttp.MethodPut, "/api/v1/tasks/"+task.ID+"/status?status=in_progress", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "invalid status: in_progress", env.Error)

	status, env = a.do(fasthttp.MethodPut, "/api/v1/tasks/"+task.ID+"/status?status=IN_PROGRESS", "")
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	assert.Equal(t, domain.StatusInProgress, decode[domain.Task](t, env.Data).Status)

	status, env = a.do(fasthttp.MethodGet, "/api/v1/tasks/"+task.ID+"/estimate", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.InDelta(t, 2.1, decode[map[string]interface{}](t, env.Data)["hours"], 0.0001)

	status, env = a.do(fasthttp.MethodGet, "/api/v1/users/"+bob.ID+"/tasks", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Len(t, decode[[]domain.Task](t, env.Data), 1)

	status, env = a.do(fasthttp.MethodPut, "/api/v1/tasks/"+task.ID+"/assign", "")
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	assert.Empty(t, decode[domain.Task](t, env.Data).AssigneeID)
}

func TestTasks_UpdateAndNotFound(t *testing.T) {
	a := newAPI(t)
	alice := a.createUser("alice")
	task := a.createTask(`{"title":"Draft","status":"TODO"}`)

	status, env := a.do(fasthttp.MethodPut, "/api/v1/tasks/"+task.ID, `{"title":"Final","status":"DONE","assignee_id":"`+alice.ID+`"}`)
	require.Equal(t, fasthttp.StatusOK, status, env.Error)
	updated := decode[domain.Task](t, env.Data)
	assert.Equal(t, "Final", updated.Title)
	require.NotNil(t, updated.Assignee)
	assert.Equal(t, "alice", updated.Assignee.Username)

	missing := "00000000-0000-0000-0000-000000000000"
	status, _ = a.do(fasthttp.MethodGet, "/api/v1/tasks/"+missing, "")
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, env = a.do(fasthttp.MethodPut, "/api/v1/tasks/"+missing+"/status?status=DONE", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "task not found with ID: "+missing, env.Error)

	status, _ = a.do(fasthttp.MethodGet, "/api/v1/users/"+missing+"/tasks", "")
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, env = a.do(fasthttp.MethodPost, "/api/v1/tasks", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)
	assert.Equal(t, "request body is required", env.Error)
}

func TestTasks_ListFilters(t *testing.T) {
	a := newAPI(t)
	alice := a.createUser("alice")
	a.createTask(`{"title":"A","status":"TODO","priority":"LOW","assignee_id":"` + alice.ID + `"}`)
	a.createTask(`{"title":"B","status":"DONE","priority":"HIGH"}`)
	a.createTask(`{"title":"C","status":"TODO","priority":"HIGH"}`)

	status, env := a.do(fasthttp.MethodGet, "/api/v1/tasks?status=todo", "")
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Len(t, decode[[]domain.Task](t, env.Data), 2)

	_, env = a.do(fasthttp.MethodGet, "/api/v1/tasks?priority=HIGH&limit=1", "")
	assert.Len(t, decode[[]domain.Task](t, env.Data), 1)
	meta := decode[map[string]int](t, env.Meta)
	assert.Equal(t, 1, meta["count"])
	assert.Equal(t, 1, meta["limit"])

	_, env = a.do(fasthttp.MethodGet, "/api/v1/tasks?assigneeId="+alice.ID, "")
	listed := decode[[]domain.Task](t, env.Data)
	require.Len(t, listed, 1)
	assert.Equal(t, "A", listed[0].Title)
}

func TestActivityAndHealth(t *testing.T) {
	a := newAPI(t)
	alice := a.createUser("alice")
	a.createTask(`{"title":"A","status":"TODO","assignee_id":"` + alice.ID + `"}`)

	status, env := a.do(fasthttp.MethodGet, "/api/v1/activity", "")
	require.Equal(t, fasthttp.StatusOK, status)
	entries := decode[[]domain.Activity](t, env.Data)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.EntityTask, entries[0].Entity)

	_, env = a.do(fasthttp.MethodGet, "/api/v1/activity?entity=user", "")
	assert.Len(t, decode[[]domain.Activity](t, env.Data), 1)

	status, _ = a.do(fasthttp.MethodGet, "/api/v1/activity?entity=project", "")
	assert.Equal(t, fasthttp.StatusBadRequest, status)

	status, env = a.do(fasthttp.MethodGet, "/health", "")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "success", env.Status)
}
