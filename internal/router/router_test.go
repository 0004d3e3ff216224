package router

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/todo/api/handler"
	"github.com/fastygo/todo/internal/infrastructure/monitor"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/metrics"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/memory"
	taskUC "github.com/fastygo/todo/usecase/task"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Meta   json.RawMessage `json:"meta"`
}

type taskBody struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	DueAt     *time.Time `json:"due_at"`
	Completed bool       `json:"completed"`
	Overdue   bool       `json:"overdue"`
}

type testServer struct {
	handler fasthttp.RequestHandler
	store   repository.Store
	monitor *monitor.Monitor
}

var now = time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	store := memory.NewTaskRepository()
	uc := taskUC.New(store, nil, taskUC.WithClock(func() time.Time { return now }))
	adapter := httpcontext.NewAdapter(time.Second)
	m := metrics.New("todo")
	mon := monitor.New(store, "memory", time.Minute, m, nil)
	mon.Refresh(t.Context())

	r := New(Handlers{
		Task:    apiHandler.NewTaskHandler(uc, time.UTC, adapter, nil),
		Health:  apiHandler.NewHealthHandler(mon, adapter, nil),
		Metrics: m.Handler(),
	}, opts)
	return &testServer{handler: r.Handler, store: store, monitor: mon}
}

func (s *testServer) do(t *testing.T, method, uri, body string) (*fasthttp.Response, envelope) {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBodyString(body)
	}
	s.handler(&ctx)

	resp := &fasthttp.Response{}
	ctx.Response.CopyTo(resp)

	var env envelope
	if len(resp.Body()) > 0 && string(resp.Header.ContentType()) == "application/json" {
		require.NoError(t, json.Unmarshal(resp.Body(), &env))
	}
	return resp, env
}

func decodeTask(t *testing.T, env envelope) taskBody {
	t.Helper()
	var task taskBody
	require.NoError(t, json.Unmarshal(env.Data, &task))
	return task
}

func decodeTasks(t *testing.T, env envelope) []taskBody {
	t.Helper()
	var tasks []taskBody
	require.NoError(t, json.Unmarshal(env.Data, &tasks))
	return tasks
}

func TestTaskLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, env := srv.do(t, "POST", "/api/v1/tasks", `{"title":"task1","due_at":"2024-06-30T23:59:59Z"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode())
	created := decodeTask(t, env)
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, created.Overdue)
	assert.False(t, created.Completed)
	assert.Equal(t, "/api/v1/tasks/1", string(resp.Header.Peek("Location")))
	assert.NotEmpty(t, resp.Header.Peek("X-Request-ID"))

	resp, env = srv.do(t, "PUT", "/api/v1/tasks/1", `{"title":"Updated Task","due_at":"2024-08-01T00:00:00+09:00"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	updated := decodeTask(t, env)
	assert.Equal(t, "Updated Task", updated.Title)
	assert.False(t, updated.Overdue)

	resp, env = srv.do(t, "POST", "/api/v1/tasks/1/close", "")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.True(t, decodeTask(t, env).Completed)

	resp, env = srv.do(t, "GET", "/api/v1/tasks/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode())
	got := decodeTask(t, env)
	assert.True(t, got.Completed)
	require.NotNil(t, got.DueAt)
	assert.True(t, time.Date(2024, 7, 31, 15, 0, 0, 0, time.UTC).Equal(*got.DueAt))

	resp, _ = srv.do(t, "DELETE", "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode())
	assert.Empty(t, resp.Body())

	resp, env = srv.do(t, "GET", "/api/v1/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Equal(t, "NOT_FOUND", env.Code)
}

func TestListTasks_Order(t *testing.T) {
	srv := newTestServer(t, Options{})

	srv.do(t, "POST", "/api/v1/tasks", `{"title":"A","due_at":"2024-07-01T00:00:00Z"}`)
	srv.do(t, "POST", "/api/v1/tasks", `{"title":"B","due_at":"2024-08-01T00:00:00Z"}`)
	srv.do(t, "POST", "/api/v1/tasks", `{"title":"C"}`)

	tests := []struct {
		uri  string
		want []string
	}{
		{uri: "/api/v1/tasks?order=due", want: []string{"A", "B", "C"}},
		{uri: "/api/v1/tasks?order=post", want: []string{"C", "B", "A"}},
		{uri: "/api/v1/tasks", want: []string{"C", "B", "A"}},
		{uri: "/api/v1/tasks?order=bogus", want: []string{"C", "B", "A"}},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			resp, env := srv.do(t, "GET", tt.uri, "")
			require.Equal(t, http.StatusOK, resp.StatusCode())

			var titles []string
			for _, task := range decodeTasks(t, env) {
				titles = append(titles, task.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestCreateTask_Validation(t *testing.T) {
	srv := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty title", body: `{"title":"","due_at":null}`},
		{name: "missing title", body: `{}`},
		{name: "bad due date", body: `{"title":"x","due_at":"someday"}`},
		{name: "malformed json", body: `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, env := srv.do(t, "POST", "/api/v1/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode())
			assert.Equal(t, "INVALID", env.Code)
		})
	}

	_, env := srv.do(t, "GET", "/api/v1/tasks", "")
	assert.Empty(t, decodeTasks(t, env))
}

func TestUnknownAndMalformedIDs(t *testing.T) {
	srv := newTestServer(t, Options{})

	for _, uri := range []string{"/api/v1/tasks/999", "/api/v1/tasks/abc", "/api/v1/tasks/-1"} {
		resp, env := srv.do(t, "GET", uri, "")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode(), uri)
		assert.Equal(t, "NOT_FOUND", env.Code, uri)
	}

	resp, _ := srv.do(t, "POST", "/api/v1/tasks/999/close", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, _ = srv.do(t, "PUT", "/api/v1/tasks/999", `{"title":"ghost"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	resp, _ = srv.do(t, "DELETE", "/api/v1/tasks/999", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
}

func TestUpdateTask_NullClearsDueDate(t *testing.T) {
	srv := newTestServer(t, Options{})
	srv.do(t, "POST", "/api/v1/tasks", `{"title":"task","due_at":"2024-06-01"}`)

	resp, env := srv.do(t, "PUT", "/api/v1/tasks/1", `{"title":"task","due_at":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	task := decodeTask(t, env)
	assert.Nil(t, task.DueAt)
	assert.False(t, task.Overdue)
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, Options{})

	resp, env := srv.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "success", env.Status)

	resp, _ = srv.do(t, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "todo_store_up 1")

	require.NoError(t, srv.store.Close())
	srv.monitor.Refresh(t.Context())

	resp, env = srv.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode())
	assert.Equal(t, "DEGRADED", env.Code)
}

func TestPprofIsOptIn(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp, _ := srv.do(t, "GET", "/debug/pprof/", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	srv = newTestServer(t, Options{EnablePprof: true})
	resp, _ = srv.do(t, "GET", "/debug/pprof/cmdline", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode())
}
