package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/todo/pkg/metrics"
	"github.com/fastygo/todo/repository"
)

// Pinger is the part of a task store the monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

var _ Pinger = (repository.Store)(nil)

// Monitor pings the task store on a schedule and caches the result for /health.
type Monitor struct {
	store   Pinger
	driver  string
	metrics *metrics.Metrics
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	status Status
}

func New(store Pinger, driver string, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := interval / 2
	if timeout > 3*time.Second {
		timeout = 3 * time.Second
	}

	mon := &Monitor{
		store:   store,
		driver:  driver,
		metrics: m,
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
		logger:  logger,
		status:  Status{Driver: driver},
	}
	mon.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		mon.Refresh(context.Background())
	}))
	return mon
}

// Start runs one check synchronously, then launches the scheduler.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	m.cron.Start()
	m.logger.Info("store monitor started", zap.String("driver", m.driver))
}

// Stop waits for a running check to finish or ctx to expire.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh pings the store once and records the outcome.
func (m *Monitor) Refresh(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	status := Status{Driver: m.driver, LastCheck: time.Now()}
	if m.store == nil {
		status.Error = "store not configured"
	} else if err := m.store.Ping(ctx); err != nil {
		status.Error = err.Error()
	} else {
		status.Store = true
	}

	m.mu.Lock()
	wasOnline := m.status.Store
	first := m.status.LastCheck.IsZero()
	m.status = status
	m.mu.Unlock()

	m.metrics.RecordStoreCheck(status.Store)
	switch {
	case !status.Store && (wasOnline || first):
		m.logger.Warn("task store unreachable", zap.String("driver", m.driver), zap.String("error", status.Error))
	case status.Store && !wasOnline && !first:
		m.logger.Info("task store recovered", zap.String("driver", m.driver))
	}
	return status
}
