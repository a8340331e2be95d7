// Package services defines the shared error taxonomy and context carriers
// used across the lifecycle engine.
package services
