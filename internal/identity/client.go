package identity

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

// NewService builds an identity service from configuration: an HTTP client
// when a base URL is set, otherwise the static directory.
func NewService(cfg *config.Config) Service {
	base := strings.TrimSpace(cfg.Identity.BaseURL)
	if base == "" {
		return NewStaticDirectory(cfg.Identity.StaticActors)
	}

	timeout := time.Duration(cfg.Identity.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpService{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Identity.Token),
		client:  &http.Client{Timeout: timeout},
	}
}

type httpService struct {
	baseURL string
	token   string
	client  *http.Client
}

type actorPayload struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

func (s *httpService) Lookup(ctx context.Context, actorID string) (Actor, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return Actor{}, services.Wrap(services.ErrValidation, "identity", "lookup", "actor id is empty", nil)
	}

	endpoint := s.baseURL + "/actors/" + url.PathEscape(actorID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Actor{}, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Actor{}, services.Wrap(services.ErrTransient, "identity", "lookup", "identity service unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Actor{}, services.Wrap(services.ErrNotFound, "identity", "lookup", "unknown actor "+actorID, nil)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return Actor{}, services.Wrap(services.ErrTransient, "identity", "lookup",
			fmt.Sprintf("identity service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var payload actorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Actor{}, fmt.Errorf("decode identity response: %w", err)
	}
	roles := make([]string, 0, len(payload.Roles))
	for _, role := range payload.Roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			roles = append(roles, role)
		}
	}
	return Actor{ID: payload.ID, Name: payload.Name, Roles: roles}, nil
}
