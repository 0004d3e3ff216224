package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
)

type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*UseCase)

// WithClock replaces time.Now as the source of creation, update and overdue timestamps.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		if now != nil {
			uc.now = now
		}
	}
}

func New(tasks repository.TaskRepository, log *zap.Logger, opts ...Option) *UseCase {
	if log == nil {
		log = zap.NewNop()
	}
	uc := &UseCase{
		tasks:  tasks,
		logger: log,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Now is the reference time for overdue checks.
func (uc *UseCase) Now() time.Time {
	return uc.now()
}

// ListTasks returns every task in the requested order.
func (uc *UseCase) ListTasks(ctx context.Context, order domain.Order) ([]domain.Task, error) {
	tasks, err := uc.tasks.List(ctx)
	if err != nil {
		return nil, uc.storeError(ctx, "list tasks", err)
	}
	domain.SortTasks(tasks, order)
	return tasks, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := uc.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, uc.storeError(ctx, "get task", err)
	}
	return task, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, title string, dueAt *time.Time) (*domain.Task, error) {
	task, err := domain.NewTask(title, dueAt)
	if err != nil {
		return nil, err
	}
	task.Touch(uc.now())

	created, err := uc.tasks.Create(ctx, task)
	if err != nil {
		return nil, uc.storeError(ctx, "create task", err)
	}
	logger.WithRequestID(ctx, uc.logger).Debug("task created", zap.Int64("task_id", created.ID))
	return created, nil
}

// UpdateTask overwrites title and due date. A nil dueAt clears the deadline.
func (uc *UseCase) UpdateTask(ctx context.Context, id int64, title string, dueAt *time.Time) (*domain.Task, error) {
	task := &domain.Task{ID: id, Title: title, DueAt: dueAt}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	task.UpdatedAt = uc.now()

	updated, err := uc.tasks.Update(ctx, task)
	if err != nil {
		return nil, uc.storeError(ctx, "update task", err)
	}
	return updated, nil
}

// CloseTask marks the task completed. Closing a closed task succeeds unchanged.
func (uc *UseCase) CloseTask(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := uc.tasks.Complete(ctx, id, uc.now())
	if err != nil {
		return nil, uc.storeError(ctx, "close task", err)
	}
	return task, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id int64) error {
	if err := uc.tasks.Delete(ctx, id); err != nil {
		return uc.storeError(ctx, "delete task", err)
	}
	return nil
}

// storeError passes domain errors through and classifies everything else as internal.
func (uc *UseCase) storeError(ctx context.Context, op string, err error) error {
	if domain.IsNotFound(err) || domain.IsValidation(err) {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Error("task store failure", zap.String("operation", op), zap.Error(err))
	return domain.WrapError(domain.ErrCodeInternal, op, err)
}
