// Package logging builds the shared slog logger and the structured field
// helpers used across the engine.
package logging
