package identity

import (
	"context"
	"strings"

	"prodflow/internal/config"
	"prodflow/internal/services"
)

// StaticDirectory is a config-backed identity service for deployments without
// an identity endpoint, and for tests.
type StaticDirectory struct {
	actors map[string]Actor
}

// NewStaticDirectory builds a directory from the configured actor list.
func NewStaticDirectory(entries []config.StaticActor) *StaticDirectory {
	actors := make(map[string]Actor, len(entries))
	for _, entry := range entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			continue
		}
		actors[id] = Actor{ID: id, Name: entry.Name, Roles: entry.Roles}
	}
	return &StaticDirectory{actors: actors}
}

// Lookup returns the configured actor or ErrNotFound.
func (d *StaticDirectory) Lookup(_ context.Context, actorID string) (Actor, error) {
	actor, ok := d.actors[strings.TrimSpace(actorID)]
	if !ok {
		return Actor{}, services.Wrap(services.ErrNotFound, "identity", "lookup",
			"unknown actor "+actorID, nil)
	}
	return actor, nil
}
