package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"

	apiHandler "github.com/fastygo/todo/api/handler"
)

type Handlers struct {
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
	// Metrics is mounted on /metrics when set.
	Metrics fasthttp.RequestHandler
}

type Options struct {
	EnablePprof bool
}

func New(handlers Handlers, opts Options) *router.Router {
	r := router.New()
	r.SaveMatchedRoutePath = true

	r.GET("/health", handlers.Health.Check)
	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}
	if opts.EnablePprof {
		r.ANY("/debug/pprof/{profile:*}", pprofhandler.PprofHandler)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/tasks", handlers.Task.ListTasks)
	v1.POST("/tasks", handlers.Task.CreateTask)
	v1.GET("/tasks/{id}", handlers.Task.GetTask)
	v1.PUT("/tasks/{id}", handlers.Task.UpdateTask)
	v1.POST("/tasks/{id}/close", handlers.Task.CloseTask)
	v1.DELETE("/tasks/{id}", handlers.Task.DeleteTask)

	return r
}
