package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const taskColumns = `id, title, due_at, completed, created_at, updated_at`

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository expects a connection opened with parseTime and loc=UTC.
// Closing the repository closes db.
func NewTaskRepository(db *sql.DB) repository.Store {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return getByID(ctx, r.db, id)
}

func (r *taskRepository) List(ctx context.Context) ([]domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
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
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}

	const query = `
	INSERT INTO tasks (title, due_at, completed, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		task.Title,
		utcPtr(task.DueAt),
		task.Completed,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	task.ID = id
	return task, nil
}

// Update runs in a transaction: MySQL reports zero affected rows for no-op updates,
// so existence is decided by the re-read.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = time.Now()
	}

	const query = `UPDATE tasks SET title = ?, due_at = ?, updated_at = ? WHERE id = ?`
	return r.execAndReload(ctx, task.ID, query, task.Title, utcPtr(task.DueAt), task.UpdatedAt.UTC(), task.ID)
}

func (r *taskRepository) Complete(ctx context.Context, id int64, at time.Time) (*domain.Task, error) {
	if at.IsZero() {
		at = time.Now()
	}

	const query = `UPDATE tasks SET completed = TRUE, updated_at = ? WHERE id = ? AND completed = FALSE`
	return r.execAndReload(ctx, id, query, at.UTC(), id)
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *taskRepository) Close() error {
	return r.db.Close()
}

func (r *taskRepository) execAndReload(ctx context.Context, id int64, query string, args ...interface{}) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}
	task, err := getByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return task, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func getByID(ctx context.Context, q queryer, id int64) (*domain.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(q.QueryRowContext(ctx, query, id))
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var (
		task domain.Task
		due  sql.NullTime
	)
	if err := row.Scan(&task.ID, &task.Title, &due, &task.Completed, &task.CreatedAt, &task.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	if due.Valid {
		task.DueAt = &due.Time
	}
	return &task, nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
