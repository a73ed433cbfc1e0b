package handler

import (
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/api/transport"
	"github.com/fastygo/tasktracker/pkg/httpcontext"
	taskUC "github.com/fastygo/tasktracker/usecase/task"
	userUC "github.com/fastygo/tasktracker/usecase/user"
)

type UserHandler struct {
	baseHandler
	users *userUC.UseCase
	tasks *taskUC.UseCase
}

func NewUserHandler(users *userUC.UseCase, tasks *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		baseHandler: newBaseHandler(adapter, logger),
		users:       users,
		tasks:       tasks,
	}
}

// @Summary List users, or search them with ?username=
// @Tags users
// @Router /api/v1/users [get]
func (h *UserHandler) GetUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	var (
		users interface{}
		count int
		err   error
	)
	if ctx.QueryArgs().Has("username") {
		found, searchErr := h.users.Search(stdCtx, queryParam(ctx, "username"))
		users, count, err = found, len(found), searchErr
	} else {
		all, listErr := h.users.ListAll(stdCtx)
		users, count, err = all, len(all), listErr
	}
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, users, transport.ListMeta{Count: count})
}

// @Summary Get user
// @Tags users
// @Router /api/v1/users/{id} [get]
func (h *UserHandler) GetUser(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id := pathParam(ctx, "id")
	user, err := h.users.GetByID(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if user == nil {
		h.notFound(ctx, "user not found with ID: "+id)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Get user by username
// @Tags users
// @Router /api/v1/usernames/{username} [get]
func (h *UserHandler) GetUserByUsername(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	username := pathParam(ctx, "username")
	user, err := h.users.GetByUsername(stdCtx, username)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if user == nil {
		h.notFound(ctx, "user not found with username: "+username)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, user)
}

// @Summary Check username availability
// @Tags users
// @Router /api/v1/usernames/{username}/exists [get]
func (h *UserHandler) UsernameExists(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	exists, err := h.users.ExistsByUsername(stdCtx, pathParam(ctx, "username"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.ExistsResponse{Exists: exists})
}

// @Summary Create user
// @Tags users
// @Router /api/v1/users [post]
func (h *UserHandler) CreateUser(ctx *fasthttp.RequestCtx) {
	var req transport.UserRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.users.Create(stdCtx, req.ToDomain())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/api/v1/users/"+created.ID)
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Update user
// @Tags users
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateUser(ctx *fasthttp.RequestCtx) {
	var req transport.UserRequest
	if err := transport.Decode(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.users.Update(stdCtx, pathParam(ctx, "id"), req.ToDomain())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete user
// @Tags users
// @Router /api/v1/users/{id} [delete]
func (h *UserHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id := pathParam(ctx, "id")
	deleted, err := h.users.Delete(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if !deleted {
		h.notFound(ctx, "user not found with ID: "+id)
		return
	}
	h.log(stdCtx).Info("user removed", zap.String("user_id", id), zap.String("actor", httpcontext.Actor(stdCtx)))
	h.respondNoContent(ctx)
}

// @Summary List tasks assigned to a user
// @Tags users
// @Router /api/v1/users/{id}/tasks [get]
func (h *UserHandler) GetUserTasks(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.tasks.ListByAssignee(stdCtx, strings.TrimSpace(pathParam(ctx, "id")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, tasks, transport.ListMeta{Count: len(tasks)})
}
