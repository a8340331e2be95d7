// Package config loads, normalizes, and validates prodflow's TOML
// configuration.
package config
