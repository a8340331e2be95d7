package ipc

import "prodflow/internal/api"

// Request mirrors the API request DTO for IPC callers.
type Request = api.Request

// HistoryEntry mirrors the API history DTO for IPC callers.
type HistoryEntry = api.HistoryEntry

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// PreflightResult describes one startup check.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// StatusResponse represents combined daemon status information.
type StatusResponse struct {
	Running        bool              `json:"running"`
	MonitorRunning bool              `json:"monitor_running"`
	DatabasePath   string            `json:"database_path"`
	LockPath       string            `json:"lock_path"`
	PID            int               `json:"pid"`
	StageStats     map[string]int    `json:"stage_stats"`
	Preflight      []PreflightResult `json:"preflight"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// CreateRequestRequest creates an intake request.
type CreateRequestRequest struct {
	ActorID       string `json:"actor_id"`
	Name          string `json:"name"`
	Department    string `json:"department"`
	ContactPerson string `json:"contact_person"`
	CustomerName  string `json:"customer_name"`
	CampaignName  string `json:"campaign_name"`
	Budget        string `json:"budget"`
}

// CreateRequestResponse returns the created request.
type CreateRequestResponse struct {
	Request Request `json:"request"`
}

// ListRequest filters request listing by stage.
type ListRequest struct {
	Stages []string `json:"stages"`
}

// ListResponse contains request entries.
type ListResponse struct {
	Requests []Request `json:"requests"`
}

// DescribeRequest fetches a single request by id.
type DescribeRequest struct {
	ID int64 `json:"id"`
}

// DescribeResponse contains a single request.
type DescribeResponse struct {
	Request Request `json:"request"`
}

// HistoryRequest fetches the audit trail of a request.
type HistoryRequest struct {
	ID int64 `json:"id"`
}

// HistoryResponse contains audit entries, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// MutateRequest applies a partial field update. Nil pointers mean the field
// is not part of the mutation.
type MutateRequest struct {
	ID      int64  `json:"id"`
	ActorID string `json:"actor_id"`

	Name            *string `json:"name,omitempty"`
	Department      *string `json:"department,omitempty"`
	ContactPerson   *string `json:"contact_person,omitempty"`
	AssignedActorID *string `json:"assigned_actor_id,omitempty"`
	DeliveryDate    *string `json:"delivery_date,omitempty"`
	Observations    *string `json:"observations,omitempty"`

	PreparationState *string `json:"preparation_state,omitempty"`
	Pieces           *string `json:"pieces,omitempty"`
	Formats          *string `json:"formats,omitempty"`
	TechnicalNotes   *string `json:"technical_notes,omitempty"`
	DeliveryChannel  *string `json:"delivery_channel,omitempty"`
}

// MutateResponse reports the applied and dropped fields.
type MutateResponse struct {
	Request Request        `json:"request"`
	Entries []HistoryEntry `json:"entries"`
	Dropped []string       `json:"dropped,omitempty"`
}

// AdvanceRequest drives a stage transition.
type AdvanceRequest struct {
	ID      int64  `json:"id"`
	ActorID string `json:"actor_id"`
	Trigger string `json:"trigger"`
}

// AdvanceResponse reports the transition outcome.
type AdvanceResponse struct {
	Request Request `json:"request"`
	From    string  `json:"from"`
	To      string  `json:"to"`
	Changed bool    `json:"changed"`
}

// DeadlinesRequest fetches requests inside the alert window.
type DeadlinesRequest struct{}

// DeadlinesResponse contains requests nearing their deadline.
type DeadlinesResponse struct {
	Requests []Request `json:"requests"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
