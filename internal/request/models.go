package request

import "time"

// Preparation states reported by the material-preparation sub-flow.
const (
	PreparationDraft     = "DRAFT"
	PreparationCompleted = "COMPLETED"
)

// Customer is the advertiser placing the production request.
type Customer struct {
	CompanyName  string `json:"company_name"`
	TaxID        string `json:"tax_id"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	City         string `json:"city"`
}

// Audience describes the campaign target audience.
type Audience struct {
	Segment  string   `json:"segment"`
	AgeRange string   `json:"age_range"`
	Gender   string   `json:"gender"`
	Regions  []string `json:"regions,omitempty"`
}

// CampaignProduct is one line item of the campaign detail.
type CampaignProduct struct {
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	MediaType   string `json:"media_type"`
}

// CampaignDetail holds campaign-level business data. Budget stays free text
// as entered by sales; ParseBudget derives the numeric amount.
type CampaignDetail struct {
	CampaignName string            `json:"campaign_name"`
	Budget       string            `json:"budget"`
	StartDate    string            `json:"start_date,omitempty"`
	EndDate      string            `json:"end_date,omitempty"`
	Products     []CampaignProduct `json:"products,omitempty"`
}

// ProductionInfo holds the production-detail sub-record. Its free-text fields
// are the ones a restricted assignee may edit.
type ProductionInfo struct {
	PreparationState string `json:"preparation_state"`
	Pieces           string `json:"pieces"`
	Formats          string `json:"formats"`
	TechnicalNotes   string `json:"technical_notes"`
	DeliveryChannel  string `json:"delivery_channel"`
}

// Request is the durable production-request entity.
type Request struct {
	ID              int64
	Reference       string
	Stage           Stage
	Name            string
	Department      string
	ContactPerson   string
	AssignedActorID string
	RequestDate     time.Time
	DeliveryDate    *time.Time
	Observations    string
	Customer        Customer
	Audience        Audience
	CampaignDetail  CampaignDetail
	ProductionInfo  ProductionInfo
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Open reports whether the request is still in the open set scanned by the
// deadline monitor.
func (r *Request) Open() bool {
	return r != nil && !r.Stage.IsTerminal()
}

// ChangeType classifies a history entry.
type ChangeType string

const (
	ChangeCreate       ChangeType = "create"
	ChangeUpdate       ChangeType = "update"
	ChangeDelete       ChangeType = "delete"
	ChangeStatusChange ChangeType = "status_change"
)

// HistoryEntry is one immutable audit record of a single field's before and
// after value. Entries are written only by the orchestrator, inside the same
// transaction as the field write.
type HistoryEntry struct {
	ID           int64
	RequestID    int64
	ChangedField string
	OldValue     string
	NewValue     string
	ActorID      string
	ChangeType   ChangeType
	CreatedAt    time.Time
}
