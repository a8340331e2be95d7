package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateIdentity(); err != nil {
		return err
	}
	if err := c.validateAttachments(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.DeadlinePollInterval <= 0 {
		return errors.New("workflow.deadline_poll_interval must be positive")
	}
	if c.Workflow.AlertWindowMinutes <= 0 {
		return errors.New("workflow.alert_window_minutes must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Workflow.HistoryRetentionDays < 0 {
		return errors.New("workflow.history_retention_days must not be negative")
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.Identity.BaseURL != "" {
		if err := validateHTTPURL(c.Identity.BaseURL); err != nil {
			return fmt.Errorf("identity.base_url: %w", err)
		}
		return nil
	}
	seen := make(map[string]struct{}, len(c.Identity.StaticActors))
	for _, actor := range c.Identity.StaticActors {
		if actor.ID == "" {
			return errors.New("identity.static_actors entries require an id")
		}
		if _, dup := seen[actor.ID]; dup {
			return fmt.Errorf("identity.static_actors contains duplicate id %q", actor.ID)
		}
		seen[actor.ID] = struct{}{}
	}
	return nil
}

func (c *Config) validateAttachments() error {
	if c.Attachments.BaseURL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Attachments.BaseURL); err != nil {
		return fmt.Errorf("attachments.base_url: %w", err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}
