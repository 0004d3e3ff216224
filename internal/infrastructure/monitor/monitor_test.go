package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/todo/pkg/metrics"
	"github.com/fastygo/todo/repository/memory"
)

type flakyStore struct {
	mu  sync.Mutex
	err error
}

func (s *flakyStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *flakyStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func TestMonitor_Refresh(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := metrics.New("todo")
	store := &flakyStore{}
	mon := New(store, "memory", time.Minute, m, zap.New(core))

	status := mon.Refresh(context.Background())
	assert.True(t, status.Store)
	assert.Equal(t, "memory", status.Driver)
	assert.True(t, mon.IsOnline())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreUp))

	store.fail(errors.New("disk I/O error"))
	status = mon.Refresh(context.Background())
	assert.False(t, status.Store)
	assert.Equal(t, "disk I/O error", status.Error)
	assert.False(t, mon.IsOnline())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.StoreUp))
	assert.Equal(t, 1, logs.FilterMessage("task store unreachable").Len())

	mon.Refresh(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("task store unreachable").Len())

	store.fail(nil)
	mon.Refresh(context.Background())
	assert.True(t, mon.GetStatus().Store)
	assert.Equal(t, 1, logs.FilterMessage("task store recovered").Len())
}

func TestMonitor_StartChecksImmediately(t *testing.T) {
	store := memory.NewTaskRepository()
	mon := New(store, "memory", time.Hour, nil, nil)

	mon.Start()
	defer mon.Stop(context.Background())

	status := mon.GetStatus()
	assert.True(t, status.Store)
	assert.False(t, status.LastCheck.IsZero())

	require.NoError(t, store.Close())
	assert.False(t, mon.Refresh(context.Background()).Store)
}

func TestMonitor_NilStore(t *testing.T) {
	mon := New(nil, "none", 0, nil, nil)
	status := mon.Refresh(context.Background())
	assert.False(t, status.Store)
	assert.NotEmpty(t, status.Error)
}
