// Package identity resolves actors and their roles. The permission gate
// consults it on every mutation attempt; results are never cached across
// calls because roles and assignments change between requests.
package identity

import (
	"context"
	"strings"
)

// Role names recognized by the permission gate.
const (
	RoleAdmin      = "admin"
	RoleSupervisor = "supervisor"
	RoleExecutive  = "executive"
)

// Actor is the resolved identity of a user operating on requests.
type Actor struct {
	ID    string
	Name  string
	Roles []string
}

// HasRole reports whether the actor holds the given role, case-insensitively.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// Privileged reports whether the actor holds a role with unrestricted edit
// rights at every stage.
func (a Actor) Privileged() bool {
	return a.HasRole(RoleAdmin) || a.HasRole(RoleSupervisor)
}

// Service resolves actor identifiers to actors.
type Service interface {
	Lookup(ctx context.Context, actorID string) (Actor, error)
}
