package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tasktracker/api/handler"
)

type Handlers struct {
	Auth     *apiHandler.AuthHandler
	User     *apiHandler.UserHandler
	Task     *apiHandler.TaskHandler
	Activity *apiHandler.ActivityHandler
	Health   *apiHandler.HealthHandler
}

// New registers the API routes. When authMiddleware is nil the mutating
// routes are served without authentication and the auth endpoints are absent.
func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()
	protect := authMiddleware
	if protect == nil {
		protect = func(next fasthttp.RequestHandler) fasthttp.RequestHandler { return next }
	}

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	// Auth routes
	if authMiddleware != nil && handlers.Auth != nil {
		api.POST("/auth/login", handlers.Auth.Login)
		api.POST("/auth/refresh", handlers.Auth.Refresh)
		api.POST("/auth/logout", handlers.Auth.Logout)
	}

	// Users
	api.GET("/users", handlers.User.GetUsers)
	api.POST("/users", protect(handlers.User.CreateUser))
	api.GET("/users/{id}", handlers.User.GetUser)
	api.PUT("/users/{id}", protect(handlers.User.UpdateUser))
	api.DELETE("/users/{id}", protect(handlers.User.DeleteUser))
	api.GET("/users/{id}/tasks", handlers.User.GetUserTasks)
	api.GET("/usernames/{username}", handlers.User.GetUserByUsername)
	api.GET("/usernames/{username}/exists", handlers.User.UsernameExists)

	// Tasks
	api.GET("/tasks", handlers.Task.GetTasks)
	api.POST("/tasks", protect(handlers.Task.CreateTask))
	api.GET("/tasks/{id}", handlers.Task.GetTask)
	api.PUT("/tasks/{id}", protect(handlers.Task.UpdateTask))
	api.PUT("/tasks/{id}/assign", protect(handlers.Task.AssignTask))
	api.PUT("/tasks/{id}/status", protect(handlers.Task.UpdateStatus))
	api.GET("/tasks/{id}/estimate", handlers.Task.EstimateTask)

	api.GET("/activity", handlers.Activity.List)

	return r
}
