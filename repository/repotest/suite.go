// Package repotest holds the behaviour every repository.Store backend must share.
package repotest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) repository.Store

var (
	created = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	july    = time.Date(2024, 7, 1, 0, 0, 0, 0, time.FixedZone("JST", 9*3600))
	august  = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
)

// Run executes the shared store suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAssignsIncreasingIDs", func(t *testing.T) {
		store := newStore(t)

		first := mustCreate(t, store, "task1", &july)
		second := mustCreate(t, store, "task2", nil)

		assert.Greater(t, first.ID, int64(0))
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("GetByIDRoundTrip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		withDue := mustCreate(t, store, "task1", &july)
		withoutDue := mustCreate(t, store, "task2", nil)

		got, err := store.GetByID(ctx, withDue.ID)
		require.NoError(t, err)
		assert.Equal(t, withDue.ID, got.ID)
		assert.Equal(t, "task1", got.Title)
		assert.False(t, got.Completed)
		require.NotNil(t, got.DueAt)
		assertTime(t, july, *got.DueAt)
		assertTime(t, created, got.CreatedAt)

		got, err = store.GetByID(ctx, withoutDue.ID)
		require.NoError(t, err)
		assert.Equal(t, "task2", got.Title)
		assert.Nil(t, got.DueAt)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.GetByID(context.Background(), 999)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
	})

	t.Run("ListReturnsEverything", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		tasks, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)

		a := mustCreate(t, store, "A", &july)
		b := mustCreate(t, store, "B", &august)
		c := mustCreate(t, store, "C", nil)

		tasks, err = store.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 3)

		seen := map[int64]string{}
		for _, task := range tasks {
			seen[task.ID] = task.Title
		}
		assert.Equal(t, map[int64]string{a.ID: "A", b.ID: "B", c.ID: "C"}, seen)
	})

	t.Run("UpdateOverwritesTitleAndDueAt", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		task := mustCreate(t, store, "Sample Task", &july)
		edited := created.Add(time.Hour)

		updated, err := store.Update(ctx, &domain.Task{
			ID:        task.ID,
			Title:     "Updated Task",
			DueAt:     &august,
			UpdatedAt: edited,
		})
		require.NoError(t, err)
		assert.Equal(t, "Updated Task", updated.Title)
		require.NotNil(t, updated.DueAt)
		assertTime(t, august, *updated.DueAt)
		assertTime(t, created, updated.CreatedAt)
		assertTime(t, edited, updated.UpdatedAt)

		cleared, err := store.Update(ctx, &domain.Task{ID: task.ID, Title: "No deadline", UpdatedAt: edited})
		require.NoError(t, err)
		assert.Nil(t, cleared.DueAt)

		got, err := store.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "No deadline", got.Title)
		assert.Nil(t, got.DueAt)
		assert.False(t, got.Completed)
	})

	t.Run("LongTitleRoundTrip", func(t *testing.T) {
		store := newStore(t)
		title := strings.Repeat("long title ", 400)

		task := mustCreate(t, store, title, nil)
		got, err := store.GetByID(context.Background(), task.ID)
		require.NoError(t, err)
		assert.Equal(t, title, got.Title)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Update(context.Background(), &domain.Task{ID: 999, Title: "ghost", UpdatedAt: created})
		assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
	})

	t.Run("CompleteIsIdempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		task := mustCreate(t, store, "task", &july)
		closedAt := created.Add(time.Hour)

		first, err := store.Complete(ctx, task.ID, closedAt)
		require.NoError(t, err)
		assert.True(t, first.Completed)
		assert.Equal(t, "task", first.Title)

		second, err := store.Complete(ctx, task.ID, closedAt.Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, second.Completed)

		got, err := store.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.True(t, got.Completed)
		require.NotNil(t, got.DueAt)
		assertTime(t, july, *got.DueAt)
	})

	t.Run("CompleteMissing", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Complete(context.Background(), 999, created)
		assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		task := mustCreate(t, store, "task", nil)
		require.NoError(t, store.Delete(ctx, task.ID))

		_, err := store.GetByID(ctx, task.ID)
		assert.True(t, errors.Is(err, domain.ErrTaskNotFound))

		err = store.Delete(ctx, task.ID)
		assert.True(t, errors.Is(err, domain.ErrTaskNotFound))
	})

	t.Run("IDsAreNotReused", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		first := mustCreate(t, store, "first", nil)
		require.NoError(t, store.Delete(ctx, first.ID))
		second := mustCreate(t, store, "second", nil)

		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("Ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}

func mustCreate(t *testing.T, store repository.Store, title string, due *time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(title, due)
	require.NoError(t, err)
	task.Touch(created)

	out, err := store.Create(context.Background(), task)
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func assertTime(t *testing.T, expected, actual time.Time) {
	t.Helper()
	assert.True(t, expected.Equal(actual), "expected %s, got %s", expected, actual)
}
