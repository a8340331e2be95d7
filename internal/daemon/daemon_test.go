package daemon_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"prodflow/internal/attachments"
	"prodflow/internal/authorize"
	"prodflow/internal/config"
	"prodflow/internal/daemon"
	"prodflow/internal/deadline"
	"prodflow/internal/identity"
	"prodflow/internal/notifications"
	"prodflow/internal/request"
	"prodflow/internal/testsupport"
	"prodflow/internal/workflow"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	d, _ := newDaemonWithConfig(t)
	return d
}

func newDaemonWithConfig(t *testing.T) (*daemon.Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStaticActors(
		config.StaticActor{ID: "admin-1", Name: "Ana", Roles: []string{"admin"}},
	))
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := authorize.NewGate(nil)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	notifier := notifications.NewService(cfg)
	monitor := deadline.NewMonitor(cfg, store, notifier, nil)
	orch := workflow.NewOrchestrator(store, identity.NewService(cfg), gate, attachments.Stub{Present: true}, notifier, monitor, nil)

	d, err := daemon.New(cfg, store, monitor, orch, notifier, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return d, cfg
}

func TestStartStopLifecycle(t *testing.T) {
	d := newDaemon(t)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second start must fail")
	}

	status := d.Status(context.Background())
	if !status.Running || !status.MonitorRunning {
		t.Fatalf("expected running status: %+v", status)
	}
	if status.PID == 0 || status.DatabasePath == "" || status.LockFilePath == "" {
		t.Fatalf("status missing paths: %+v", status)
	}

	d.Stop()
	status = d.Status(context.Background())
	if status.Running || status.MonitorRunning {
		t.Fatal("expected stopped status")
	}
	d.Stop()
}

func TestStatusIncludesStageStats(t *testing.T) {
	d := newDaemon(t)

	if _, err := d.CreateRequest(context.Background(), &request.Request{Name: "uno"}, "admin-1"); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if _, err := d.CreateRequest(context.Background(), &request.Request{Name: "dos"}, "admin-1"); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}

	status := d.Status(context.Background())
	if status.StageStats[request.StageRequest] != 2 {
		t.Fatalf("expected 2 intake requests, got %+v", status.StageStats)
	}
}

func TestStartSweepKeepsLiveLog(t *testing.T) {
	d, cfg := newDaemonWithConfig(t)
	cfg.Logging.RetentionDays = 30

	livePath := filepath.Join(cfg.Paths.LogDir, "prodflow.log")
	stalePath := filepath.Join(cfg.Paths.LogDir, "2026-07-01.log")
	stale := time.Now().AddDate(0, 0, -90)
	for _, p := range []string{livePath, stalePath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
		if err := os.Chtimes(p, stale, stale); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	d.Stop()

	if _, err := os.Stat(livePath); err != nil {
		t.Fatalf("live log must survive the retention sweep: %v", err)
	}
	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Fatalf("stale log should be pruned, stat err: %v", err)
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	d := newDaemon(t)
	sent, message, err := d.TestNotification(context.Background())
	if err != nil || sent {
		t.Fatalf("unconfigured topic: sent=%v err=%v", sent, err)
	}
	if message == "" {
		t.Fatal("expected explanatory message")
	}
}
