package api_test

import (
	"testing"
	"time"

	"prodflow/internal/api"
	"prodflow/internal/request"
)

func TestFromRequest(t *testing.T) {
	due := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	req := &request.Request{
		ID:              4,
		Reference:       "ref-4",
		Stage:           request.StageInSell,
		Name:            "Campaña Q4",
		DeliveryDate:    &due,
		RequestDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		AssignedActorID: "u-2",
	}
	req.CampaignDetail.Budget = "45.000.000"

	view := api.FromRequest(req)
	if view.Stage != "in_sell" || view.StageLabel == "" {
		t.Fatalf("stage fields wrong: %+v", view)
	}
	if view.DeliveryDate != "2026-09-15T10:00:00Z" {
		t.Fatalf("delivery date wrong: %s", view.DeliveryDate)
	}
	if view.BudgetDisplay == "" {
		t.Fatal("budget display should be formatted")
	}
}

func TestFromRequestNilSafe(t *testing.T) {
	view := api.FromRequest(nil)
	if view.ID != 0 || view.DeliveryDate != "" {
		t.Fatalf("nil request should yield zero view: %+v", view)
	}
}

func TestFromHistory(t *testing.T) {
	entries := []request.HistoryEntry{{
		ID:           1,
		RequestID:    4,
		ChangedField: "stage",
		OldValue:     "request",
		NewValue:     "in_sell",
		ActorID:      "u-1",
		ChangeType:   request.ChangeStatusChange,
		CreatedAt:    time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
	}}
	views := api.FromHistory(entries)
	if len(views) != 1 || views[0].ChangeType != "status_change" {
		t.Fatalf("unexpected views: %+v", views)
	}
}
