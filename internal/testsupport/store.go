package testsupport

import (
	"context"
	"testing"

	"prodflow/internal/config"
	"prodflow/internal/request"
)

// MustOpenStore opens a request.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *request.Store {
	t.Helper()

	store, err := request.Open(cfg)
	if err != nil {
		t.Fatalf("request.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRequest creates a request in the intake stage for tests.
func NewRequest(t testing.TB, store *request.Store, name string) *request.Request {
	t.Helper()

	created, err := store.Create(context.Background(), &request.Request{Name: name}, "test-actor")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return created
}
