package api

// Request is the wire view of a production request.
type Request struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	Stage           string `json:"stage"`
	StageLabel      string `json:"stage_label"`
	Name            string `json:"name"`
	Department      string `json:"department"`
	ContactPerson   string `json:"contact_person"`
	AssignedActorID string `json:"assigned_actor_id"`
	RequestDate     string `json:"request_date"`
	DeliveryDate    string `json:"delivery_date,omitempty"`
	Observations    string `json:"observations,omitempty"`

	CustomerName     string `json:"customer_name,omitempty"`
	CampaignName     string `json:"campaign_name,omitempty"`
	Budget           string `json:"budget,omitempty"`
	BudgetDisplay    string `json:"budget_display,omitempty"`
	PreparationState string `json:"preparation_state,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// HistoryEntry is the wire view of an audit record.
type HistoryEntry struct {
	ID           int64  `json:"id"`
	RequestID    int64  `json:"request_id"`
	ChangedField string `json:"changed_field"`
	OldValue     string `json:"old_value"`
	NewValue     string `json:"new_value"`
	ActorID      string `json:"actor_id"`
	ChangeType   string `json:"change_type"`
	CreatedAt    string `json:"created_at"`
}
