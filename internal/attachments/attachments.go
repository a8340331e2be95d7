// Package attachments answers the document precondition for upload-gated
// stages. The real implementation asks the attachment service over HTTP; the
// stub serves offline deployments and tests.
package attachments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"prodflow/internal/config"
	"prodflow/internal/services"
)

const userAgent = "prodflow/0.1.0"

// Client reports whether a request has at least one attached document.
type Client interface {
	HasDocuments(ctx context.Context, reference string) (bool, error)
}

// NewClient builds an attachment client from configuration. Without a base
// URL the stub is returned, which reports documents present so upload gates
// never block offline use.
func NewClient(cfg *config.Config) Client {
	base := strings.TrimSpace(cfg.Attachments.BaseURL)
	if base == "" {
		return Stub{Present: true}
	}

	timeout := time.Duration(cfg.Attachments.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpClient{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Attachments.Token),
		client:  &http.Client{Timeout: timeout},
	}
}

// Stub is a fixed-answer client for tests and offline runs.
type Stub struct {
	Present bool
	Err     error
}

func (s Stub) HasDocuments(context.Context, string) (bool, error) {
	return s.Present, s.Err
}

type httpClient struct {
	baseURL string
	token   string
	client  *http.Client
}

type countPayload struct {
	Count int `json:"count"`
}

func (c *httpClient) HasDocuments(ctx context.Context, reference string) (bool, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return false, services.Wrap(services.ErrValidation, "attachments", "has-documents",
			"request reference is empty", nil)
	}

	endpoint := c.baseURL + "/requests/" + url.PathEscape(reference) + "/documents/count"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build attachment request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, services.Wrap(services.ErrTransient, "attachments", "has-documents",
			"attachment service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return false, services.Wrap(services.ErrTransient, "attachments", "has-documents",
			fmt.Sprintf("attachment service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload countPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, fmt.Errorf("decode attachment response: %w", err)
	}
	return payload.Count > 0, nil
}
