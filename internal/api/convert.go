package api

import (
	"time"

	"prodflow/internal/request"
)

// FromRequest converts a stored request into its wire view.
func FromRequest(req *request.Request) Request {
	if req == nil {
		return Request{}
	}
	view := Request{
		ID:               req.ID,
		Reference:        req.Reference,
		Stage:            string(req.Stage),
		StageLabel:       req.Stage.Label(),
		Name:             req.Name,
		Department:       req.Department,
		ContactPerson:    req.ContactPerson,
		AssignedActorID:  req.AssignedActorID,
		RequestDate:      formatTime(&req.RequestDate),
		DeliveryDate:     formatTime(req.DeliveryDate),
		Observations:     req.Observations,
		CustomerName:     req.Customer.CompanyName,
		CampaignName:     req.CampaignDetail.CampaignName,
		Budget:           req.CampaignDetail.Budget,
		PreparationState: req.ProductionInfo.PreparationState,
		CreatedAt:        formatTime(&req.CreatedAt),
		UpdatedAt:        formatTime(&req.UpdatedAt),
	}
	if view.Budget != "" {
		view.BudgetDisplay = request.BudgetAmount(view.Budget).Display()
	}
	return view
}

// FromRequests converts a slice of stored requests, skipping nils.
func FromRequests(reqs []*request.Request) []Request {
	views := make([]Request, 0, len(reqs))
	for _, req := range reqs {
		if req == nil {
			continue
		}
		views = append(views, FromRequest(req))
	}
	return views
}

// FromHistoryEntry converts a stored history entry into its wire view.
func FromHistoryEntry(entry request.HistoryEntry) HistoryEntry {
	created := entry.CreatedAt
	return HistoryEntry{
		ID:           entry.ID,
		RequestID:    entry.RequestID,
		ChangedField: entry.ChangedField,
		OldValue:     entry.OldValue,
		NewValue:     entry.NewValue,
		ActorID:      entry.ActorID,
		ChangeType:   string(entry.ChangeType),
		CreatedAt:    formatTime(&created),
	}
}

// FromHistory converts a slice of history entries.
func FromHistory(entries []request.HistoryEntry) []HistoryEntry {
	views := make([]HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		views = append(views, FromHistoryEntry(entry))
	}
	return views
}

func formatTime(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
