package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const taskColumns = `id, title, due_at, completed, created_at, updated_at`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
// Closing the repository closes the pool.
func NewTaskRepository(pool *pgxpool.Pool) repository.Store {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (title, due_at, completed, created_at, updated_at)
	VALUES ($1, $2, $3, COALESCE($4, NOW()), COALESCE($5, NOW()))
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.Title,
		nullableTime(task.DueAt),
		task.Completed,
		nullTime(task.CreatedAt),
		nullTime(task.UpdatedAt),
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET title = $2,
		due_at = $3,
		updated_at = COALESCE($4, NOW())
	WHERE id = $1
	RETURNING ` + taskColumns

	return scanTask(r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		nullableTime(task.DueAt),
		nullTime(task.UpdatedAt),
	))
}

func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error) {
	// updated_at only moves on the open -> closed transition.
	const query = `
	UPDATE tasks
	SET completed = TRUE,
		updated_at = CASE WHEN completed THEN updated_at ELSE COALESCE($2, NOW()) END
	WHERE id = $1
	RETURNING ` + taskColumns

	return scanTask(r.pool.QueryRow(ctx, query, id, nullTime(at)))
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *taskRepository) Close() error {
	r.pool.Close()
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var due *time.Time

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&due,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.DueAt = due
	return &task, nil
}
