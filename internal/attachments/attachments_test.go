package attachments_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"prodflow/internal/attachments"
	"prodflow/internal/config"
	"prodflow/internal/services"
)

func clientFor(baseURL string) attachments.Client {
	cfg := config.Default()
	cfg.Attachments.BaseURL = baseURL
	return attachments.NewClient(&cfg)
}

func TestStubWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Attachments.BaseURL = ""
	client := attachments.NewClient(&cfg)
	ok, err := client.HasDocuments(context.Background(), "ref-1")
	if err != nil || !ok {
		t.Fatalf("stub should report documents present: %v, %v", ok, err)
	}
}

func TestHasDocumentsCounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/requests/ref-full/documents/count":
			w.Write([]byte(`{"count": 2}`))
		case "/requests/ref-empty/documents/count":
			w.Write([]byte(`{"count": 0}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := clientFor(server.URL)
	if ok, err := client.HasDocuments(context.Background(), "ref-full"); err != nil || !ok {
		t.Fatalf("ref-full: %v, %v", ok, err)
	}
	if ok, err := client.HasDocuments(context.Background(), "ref-empty"); err != nil || ok {
		t.Fatalf("ref-empty: %v, %v", ok, err)
	}
	if ok, err := client.HasDocuments(context.Background(), "ref-missing"); err != nil || ok {
		t.Fatalf("unknown references count as no documents: %v, %v", ok, err)
	}
}

func TestHasDocumentsServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := clientFor(server.URL).HasDocuments(context.Background(), "ref-1")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if !services.Retryable(err) {
		t.Fatal("transient attachment failures must be retryable")
	}
}
