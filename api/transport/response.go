package transport

import (
	"encoding/json"
	"time"

	"github.com/fastygo/todo/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// TaskResponse is the wire form of a task, including the derived overdue flag.
type TaskResponse struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	DueAt     *time.Time `json:"due_at"`
	Completed bool       `json:"completed"`
	Overdue   bool       `json:"overdue"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func NewTaskResponse(task *domain.Task, now time.Time) TaskResponse {
	return TaskResponse{
		ID:        task.ID,
		Title:     task.Title,
		DueAt:     task.DueAt,
		Completed: task.Completed,
		Overdue:   task.IsOverdue(now),
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

func NewTaskList(tasks []domain.Task, now time.Time) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, NewTaskResponse(&tasks[i], now))
	}
	return out
}

// ListMeta describes how a task list was produced.
type ListMeta struct {
	Order string `json:"order"`
	Count int    `json:"count"`
}
