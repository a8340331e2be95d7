package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"prodflow/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be reported missing")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Workflow.DeadlinePollInterval != 60 {
		t.Fatalf("expected default poll interval 60, got %d", cfg.Workflow.DeadlinePollInterval)
	}
	if cfg.Workflow.AlertWindowMinutes != 120 {
		t.Fatalf("expected default alert window 120, got %d", cfg.Workflow.AlertWindowMinutes)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console log format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[workflow]
deadline_poll_interval = 5
alert_window_minutes = 30

[identity]
base_url = "https://identity.internal/"

[[identity.static_actors]]
id = " jlopez "
roles = ["Admin", ""]

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Identity.BaseURL != "https://identity.internal" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Identity.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected level lowered, got %q", cfg.Logging.Level)
	}
	if cfg.Workflow.AlertWindowMinutes != 30 {
		t.Fatalf("expected alert window 30, got %d", cfg.Workflow.AlertWindowMinutes)
	}
	actor := cfg.Identity.StaticActors[0]
	if actor.ID != "jlopez" {
		t.Fatalf("expected actor id trimmed, got %q", actor.ID)
	}
	if len(actor.Roles) != 1 || actor.Roles[0] != "admin" {
		t.Fatalf("expected roles normalized to [admin], got %v", actor.Roles)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "zero poll interval",
			mutate:  func(c *config.Config) { c.Workflow.DeadlinePollInterval = 0 },
			wantErr: "deadline_poll_interval",
		},
		{
			name:    "negative alert window",
			mutate:  func(c *config.Config) { c.Workflow.AlertWindowMinutes = -1 },
			wantErr: "alert_window_minutes",
		},
		{
			name:    "bad log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "yaml" },
			wantErr: "logging.format",
		},
		{
			name:    "bad identity url",
			mutate:  func(c *config.Config) { c.Identity.BaseURL = "ftp://example.com" },
			wantErr: "identity.base_url",
		},
		{
			name: "duplicate static actor",
			mutate: func(c *config.Config) {
				c.Identity.StaticActors = []config.StaticActor{{ID: "a"}, {ID: "a"}}
			},
			wantErr: "duplicate",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if _, err := config.WriteSample(path, false); err != nil {
		t.Fatalf("WriteSample: %v", err)
	}
	if _, err := config.WriteSample(path, false); err == nil {
		t.Fatal("expected overwrite refusal")
	}
	if _, err := config.WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample force: %v", err)
	}
}
