package identity_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"prodflow/internal/config"
	"prodflow/internal/identity"
	"prodflow/internal/services"
)

func TestStaticDirectoryLookup(t *testing.T) {
	dir := identity.NewStaticDirectory([]config.StaticActor{
		{ID: "u-1", Name: "Ana", Roles: []string{"admin"}},
		{ID: "u-2", Name: "Luis", Roles: []string{"executive"}},
	})

	actor, err := dir.Lookup(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !actor.Privileged() {
		t.Fatal("admin should be privileged")
	}

	actor, err = dir.Lookup(context.Background(), "u-2")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if actor.Privileged() || !actor.HasRole(identity.RoleExecutive) {
		t.Fatalf("unexpected roles: %v", actor.Roles)
	}

	if _, err := dir.Lookup(context.Background(), "ghost"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPLookupNormalizesRoles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/actors/u-9" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"id": "u-9", "name": "Sofía", "roles": ["Supervisor", " ", "EXECUTIVE"]}`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Identity.BaseURL = server.URL
	svc := identity.NewService(&cfg)

	actor, err := svc.Lookup(context.Background(), "u-9")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(actor.Roles) != 2 || !actor.HasRole(identity.RoleSupervisor) {
		t.Fatalf("roles not normalized: %v", actor.Roles)
	}

	if _, err := svc.Lookup(context.Background(), "ghost"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewServicePrefersStaticWithoutBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.Identity.BaseURL = ""
	cfg.Identity.StaticActors = []config.StaticActor{{ID: "u-1", Roles: []string{"admin"}}}

	actor, err := identity.NewService(&cfg).Lookup(context.Background(), "u-1")
	if err != nil || actor.ID != "u-1" {
		t.Fatalf("static fallback failed: %+v, %v", actor, err)
	}
}
