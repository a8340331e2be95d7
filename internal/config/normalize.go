package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeIdentity()
	c.normalizeAttachments()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.Socket, err = expandPath(c.Paths.Socket); err != nil {
		return fmt.Errorf("paths.socket: %w", err)
	}
	return nil
}

func (c *Config) normalizeIdentity() {
	if c.Identity.Token == "" {
		if value, ok := os.LookupEnv("PRODFLOW_IDENTITY_TOKEN"); ok {
			c.Identity.Token = strings.TrimSpace(value)
		}
	}
	c.Identity.BaseURL = strings.TrimRight(strings.TrimSpace(c.Identity.BaseURL), "/")
	if c.Identity.RequestTimeout <= 0 {
		c.Identity.RequestTimeout = defaultRequestTimeout
	}
	for i := range c.Identity.StaticActors {
		actor := &c.Identity.StaticActors[i]
		actor.ID = strings.TrimSpace(actor.ID)
		actor.Name = strings.TrimSpace(actor.Name)
		roles := actor.Roles[:0]
		for _, role := range actor.Roles {
			role = strings.ToLower(strings.TrimSpace(role))
			if role != "" {
				roles = append(roles, role)
			}
		}
		actor.Roles = roles
	}
}

func (c *Config) normalizeAttachments() {
	if c.Attachments.Token == "" {
		if value, ok := os.LookupEnv("PRODFLOW_ATTACHMENTS_TOKEN"); ok {
			c.Attachments.Token = strings.TrimSpace(value)
		}
	}
	c.Attachments.BaseURL = strings.TrimRight(strings.TrimSpace(c.Attachments.BaseURL), "/")
	if c.Attachments.RequestTimeout <= 0 {
		c.Attachments.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
