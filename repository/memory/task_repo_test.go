package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
	"github.com/fastygo/todo/repository/repotest"
)

func TestTaskRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		store := NewTaskRepository()
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestTaskRepository_ReturnsCopies(t *testing.T) {
	store := NewTaskRepository()
	ctx := context.Background()
	due := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	created, err := store.Create(ctx, &domain.Task{Title: "task", DueAt: &due})
	require.NoError(t, err)

	got, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	*got.DueAt = due.Add(time.Hour)

	again, err := store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "task", again.Title)
	assert.True(t, due.Equal(*again.DueAt))
}

func TestTaskRepository_PingAfterClose(t *testing.T) {
	store := NewTaskRepository()
	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(context.Background()))
}
