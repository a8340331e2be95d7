// Package deadline watches open requests and raises an alert once per
// deadline when delivery falls inside the configured window. Alert state is
// process-local; a restart may re-alert, which is the accepted trade for not
// persisting alert bookkeeping.
package deadline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"prodflow/internal/config"
	"prodflow/internal/logging"
	"prodflow/internal/notifications"
	"prodflow/internal/request"
)

// Monitor periodically scans for approaching deadlines.
type Monitor struct {
	cfg      *config.Config
	store    *request.Store
	notifier notifications.Service
	logger   *slog.Logger

	pollInterval time.Duration
	window       time.Duration
	now          func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	// alerted maps request ID to the deadline instant the alert covered.
	// A changed deadline invalidates the entry and re-arms the alert.
	alerted map[int64]time.Time
}

// NewMonitor constructs a deadline monitor.
func NewMonitor(cfg *config.Config, store *request.Store, notifier notifications.Service, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Monitor{
		cfg:          cfg,
		store:        store,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "deadline"),
		pollInterval: time.Duration(cfg.Workflow.DeadlinePollInterval) * time.Second,
		window:       time.Duration(cfg.Workflow.AlertWindowMinutes) * time.Minute,
		now:          time.Now,
		alerted:      make(map[int64]time.Time),
	}
}

// Start begins background scanning.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(runCtx)
	return nil
}

// Stop terminates background scanning and waits for completion.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the scan loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		m.Scan(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.pollInterval):
		}
	}
}

// Scan performs one pass over open requests with deadlines. Failures are
// logged and retried on the next tick; nothing surfaces to callers.
func (m *Monitor) Scan(ctx context.Context) {
	requests, err := m.store.OpenWithDeadlines(ctx)
	if err != nil {
		m.logger.Error("deadline scan failed",
			logging.Error(err),
			slog.String(logging.FieldEventType, "deadline_scan_failed"),
			slog.String(logging.FieldErrorHint, "check request database access"),
		)
		return
	}

	now := m.now()
	seen := make(map[int64]struct{}, len(requests))
	for _, req := range requests {
		if req.DeliveryDate == nil {
			continue
		}
		seen[req.ID] = struct{}{}
		deadline := *req.DeliveryDate

		m.mu.Lock()
		previous, wasAlerted := m.alerted[req.ID]
		if wasAlerted && previous.UnixMilli() != deadline.UnixMilli() {
			// Deadline moved since the last alert; re-arm.
			delete(m.alerted, req.ID)
			wasAlerted = false
		}
		m.mu.Unlock()

		remaining := deadline.Sub(now)
		if remaining <= 0 || remaining > m.window || wasAlerted {
			continue
		}

		if err := m.notifier.NotifyDeadlineApproaching(ctx, req, remaining); err != nil {
			m.logger.Warn("deadline notification failed",
				logging.Error(err),
				slog.Int64(logging.FieldRequestID, req.ID),
			)
			continue
		}

		m.mu.Lock()
		m.alerted[req.ID] = deadline
		m.mu.Unlock()

		m.logger.Info("deadline alert sent",
			slog.Int64(logging.FieldRequestID, req.ID),
			slog.String(logging.FieldStage, string(req.Stage)),
			slog.Duration("remaining", remaining),
		)
	}

	// Requests that left the open set release their alert state.
	m.mu.Lock()
	for id := range m.alerted {
		if _, ok := seen[id]; !ok {
			delete(m.alerted, id)
		}
	}
	m.mu.Unlock()
}

// NearingDeadline returns the open requests currently inside the alert
// window, soonest deadline first.
func (m *Monitor) NearingDeadline(ctx context.Context) ([]*request.Request, error) {
	requests, err := m.store.OpenWithDeadlines(ctx)
	if err != nil {
		return nil, err
	}
	now := m.now()
	var nearing []*request.Request
	for _, req := range requests {
		if req.DeliveryDate == nil {
			continue
		}
		remaining := req.DeliveryDate.Sub(now)
		if remaining > 0 && remaining <= m.window {
			nearing = append(nearing, req)
		}
	}
	return nearing, nil
}
