// Package preflight runs startup checks before the daemon accepts work:
// directory permissions and reachability of the configured identity and
// attachment services.
package preflight

import (
	"context"

	"prodflow/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Endpoint checks only run when the corresponding service is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Identity.BaseURL != "" {
		results = append(results, CheckEndpoint(ctx, "Identity service", cfg.Identity.BaseURL, cfg.Identity.Token))
	}
	if cfg.Attachments.BaseURL != "" {
		results = append(results, CheckEndpoint(ctx, "Attachment service", cfg.Attachments.BaseURL, cfg.Attachments.Token))
	}

	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
