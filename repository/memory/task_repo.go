package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

type taskRepository struct {
	mu     sync.RWMutex
	seq    int64
	tasks  map[int64]domain.Task
	closed bool
}

// NewTaskRepository returns a map-backed store. Data lives for the lifetime of the process.
func NewTaskRepository() repository.Store {
	return &taskRepository{tasks: make(map[int64]domain.Task)}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return clone(task), nil
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]domain.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, *clone(task))
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	task.ID = r.seq
	r.tasks[task.ID] = *clone(*task)
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[task.ID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	stored.Title = task.Title
	stored.DueAt = copyTime(task.DueAt)
	stored.UpdatedAt = task.UpdatedAt
	r.tasks[task.ID] = stored
	return clone(stored), nil
}

func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	if stored.Close(at) {
		r.tasks[id] = stored
	}
	return clone(stored), nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return domain.NewError(domain.ErrCodeInternal, "memory store closed")
	}
	return nil
}

func (r *taskRepository) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func clone(task domain.Task) *domain.Task {
	task.DueAt = copyTime(task.DueAt)
	return &task
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
