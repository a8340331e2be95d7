// Package testsupport provides shared helpers for package tests: temp-dir
// configs and pre-opened request stores.
package testsupport

import (
	"path/filepath"
	"testing"

	"prodflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAlertWindowMinutes overrides the deadline alert window.
func WithAlertWindowMinutes(minutes int) ConfigOption {
	return func(c *config.Config) {
		c.Workflow.AlertWindowMinutes = minutes
	}
}

// WithStaticActors seeds the static identity directory.
func WithStaticActors(actors ...config.StaticActor) ConfigOption {
	return func(c *config.Config) {
		c.Identity.StaticActors = append(c.Identity.StaticActors, actors...)
	}
}
