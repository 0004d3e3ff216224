package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	taskUC "github.com/fastygo/todo/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc  *taskUC.UseCase
	loc *time.Location
}

// NewTaskHandler builds the task endpoints. Due dates without an offset are read in loc.
func NewTaskHandler(uc *taskUC.UseCase, loc *time.Location, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		loc:         loc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Param order query string false "post (default) or due"
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(ctx *fasthttp.RequestCtx) {
	order := domain.ParseOrder(string(ctx.QueryArgs().Peek("order")))

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.ListTasks(stdCtx, order)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	meta := transport.ListMeta{Order: string(order), Count: len(tasks)}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTaskList(tasks, h.uc.Now()), meta)
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	title, due, err := h.parseTask(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	created, err := h.uc.CreateTask(stdCtx, title, due)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.Response.Header.Set("Location", "/api/v1/tasks/"+strconv.FormatInt(created.ID, 10))
	h.respondSuccess(ctx, http.StatusCreated, transport.NewTaskResponse(created, h.uc.Now()), nil)
}

// @Summary Get task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	task, err := h.uc.GetTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTaskResponse(task, h.uc.Now()), nil)
}

// @Summary Update task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	title, due, err := h.parseTask(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	updated, err := h.uc.UpdateTask(stdCtx, id, title, due)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTaskResponse(updated, h.uc.Now()), nil)
}

// @Summary Close task
// @Tags tasks
// @Router /api/v1/tasks/{id}/close [post]
func (h *TaskHandler) CloseTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	closed, err := h.uc.CloseTask(stdCtx, id)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.NewTaskResponse(closed, h.uc.Now()), nil)
}

// @Summary Delete task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := taskID(ctx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}

	if err := h.uc.DeleteTask(stdCtx, id); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondNoContent(ctx)
}

func (h *TaskHandler) parseTask(ctx *fasthttp.RequestCtx) (string, *time.Time, error) {
	var req transport.TaskRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		return "", nil, domain.WrapError(domain.ErrCodeInvalid, "invalid payload", err)
	}
	due, err := req.ParseDueAt(h.loc)
	if err != nil {
		return "", nil, err
	}
	return req.Title, due, nil
}

// taskID treats ids that cannot name a task as missing tasks.
func taskID(ctx *fasthttp.RequestCtx) (int64, error) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrTaskNotFound
	}
	return id, nil
}
