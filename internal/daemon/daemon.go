// Package daemon coordinates the background services and enforces
// single-instance execution via a lock file.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"prodflow/internal/audit"
	"prodflow/internal/config"
	"prodflow/internal/deadline"
	"prodflow/internal/logging"
	"prodflow/internal/notifications"
	"prodflow/internal/preflight"
	"prodflow/internal/request"
	"prodflow/internal/transition"
	"prodflow/internal/workflow"
)

// Daemon owns the store, deadline monitor, and orchestrator lifecycles.
type Daemon struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        *request.Store
	monitor      *deadline.Monitor
	orchestrator *workflow.Orchestrator
	notifier     notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	MonitorRunning bool
	DatabasePath   string
	LockFilePath   string
	PID            int
	StageStats     map[request.Stage]int
	Preflight      []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(
	cfg *config.Config,
	store *request.Store,
	monitor *deadline.Monitor,
	orchestrator *workflow.Orchestrator,
	notifier notifications.Service,
	logger *slog.Logger,
) (*Daemon, error) {
	if cfg == nil || store == nil || monitor == nil || orchestrator == nil {
		return nil, errors.New("daemon requires config, store, monitor, and orchestrator")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		monitor:      monitor,
		orchestrator: orchestrator,
		notifier:     notifier,
		lockPath:     lockPath,
		lock:         flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, runs retention sweeps, and starts the
// deadline monitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another prodflow daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.monitor.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start deadline monitor: %w", err)
	}

	d.runRetentionSweep(d.ctx)

	d.running.Store(true)
	d.logger.Info("prodflow daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("prodflow daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime information, including per-stage counts and
// preflight results.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:        d.running.Load(),
		MonitorRunning: d.monitor.Running(),
		DatabasePath:   d.cfg.DatabasePath(),
		LockFilePath:   d.lockPath,
		PID:            os.Getpid(),
		Preflight:      preflight.RunAll(ctx, d.cfg),
	}
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("stage stats unavailable", logging.Error(err))
	} else {
		status.StageStats = stats
	}
	return status
}

// Orchestrator exposes the request operations to the IPC layer.
func (d *Daemon) Orchestrator() *workflow.Orchestrator {
	return d.orchestrator
}

// ListRequests returns requests filtered by optional stages.
func (d *Daemon) ListRequests(ctx context.Context, stages []request.Stage) ([]*request.Request, error) {
	return d.store.List(ctx, stages...)
}

// GetRequest returns one request by ID, or nil when absent.
func (d *Daemon) GetRequest(ctx context.Context, id int64) (*request.Request, error) {
	return d.store.GetByID(ctx, id)
}

// CreateRequest creates an intake request attributed to the actor.
func (d *Daemon) CreateRequest(ctx context.Context, req *request.Request, actorID string) (*request.Request, error) {
	return d.orchestrator.CreateRequest(ctx, req, actorID)
}

// ApplyMutation forwards a field mutation through the orchestrator.
func (d *Daemon) ApplyMutation(ctx context.Context, requestID int64, actorID string, mut audit.Mutation) (*workflow.MutationResult, error) {
	return d.orchestrator.ApplyMutation(ctx, requestID, actorID, mut)
}

// AdvanceStage forwards a stage advance through the orchestrator.
func (d *Daemon) AdvanceStage(ctx context.Context, requestID int64, actorID string, trigger transition.Trigger) (*workflow.TransitionResult, error) {
	return d.orchestrator.AdvanceStage(ctx, requestID, actorID, trigger)
}

// GetHistory returns the audit trail for one request.
func (d *Daemon) GetHistory(ctx context.Context, requestID int64) ([]request.HistoryEntry, error) {
	return d.orchestrator.GetHistory(ctx, requestID)
}

// NearingDeadline returns open requests inside the alert window.
func (d *Daemon) NearingDeadline(ctx context.Context) ([]*request.Request, error) {
	return d.monitor.NearingDeadline(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg.Notifications.NtfyTopic == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// runRetentionSweep purges history entries and log files past their retention
// windows. Failures are logged; they never block startup.
func (d *Daemon) runRetentionSweep(ctx context.Context) {
	if days := d.cfg.Workflow.HistoryRetentionDays; days > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -days)
		purged, err := d.store.PurgeHistoryBefore(ctx, cutoff)
		if err != nil {
			d.logger.Warn("history retention sweep failed", logging.Error(err))
		} else if purged > 0 {
			d.logger.Info("history retention sweep",
				logging.Int64("purged", purged),
				logging.Time("cutoff", cutoff))
		}
	}

	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     d.cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{"prodflow.log"},
	})
}
