package main

import (
	"log/slog"

	"prodflow/internal/attachments"
	"prodflow/internal/authorize"
	"prodflow/internal/config"
	"prodflow/internal/daemon"
	"prodflow/internal/deadline"
	"prodflow/internal/identity"
	"prodflow/internal/notifications"
	"prodflow/internal/request"
	"prodflow/internal/workflow"
)

// bootstrap builds the daemon dependency graph: store, permission gate,
// external service clients, deadline monitor, and orchestrator.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := request.Open(cfg)
	if err != nil {
		return nil, err
	}

	gate, err := authorize.NewGate(logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	notifier := notifications.NewService(cfg)
	monitor := deadline.NewMonitor(cfg, store, notifier, logger)
	orchestrator := workflow.NewOrchestrator(
		store,
		identity.NewService(cfg),
		gate,
		attachments.NewClient(cfg),
		notifier,
		monitor,
		logger,
	)

	return daemon.New(cfg, store, monitor, orchestrator, notifier, logger)
}
