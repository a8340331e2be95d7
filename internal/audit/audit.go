// Package audit computes field-level change entries between a stored request
// and a proposed mutation. The diff is type-aware: times compare on the
// millisecond instant, optional values treat nil and absent alike.
package audit

import (
	"strings"
	"time"

	"prodflow/internal/request"
	"prodflow/internal/services"
)

// Mutation is a partial update to a request. Nil pointers mean "not
// provided"; present pointers are compared against the stored value, even
// when they carry an empty string. DeliveryDate takes the raw user input and
// is parsed before diffing; an empty string clears the date.
type Mutation struct {
	Name            *string
	Department      *string
	ContactPerson   *string
	AssignedActorID *string
	DeliveryDate    *string
	Observations    *string
	Stage           *request.Stage

	PreparationState *string
	Pieces           *string
	Formats          *string
	TechnicalNotes   *string
	DeliveryChannel  *string
}

// Empty reports whether the mutation provides no fields at all.
func (m Mutation) Empty() bool {
	return m.Name == nil && m.Department == nil && m.ContactPerson == nil &&
		m.AssignedActorID == nil && m.DeliveryDate == nil && m.Observations == nil &&
		m.Stage == nil && m.PreparationState == nil && m.Pieces == nil &&
		m.Formats == nil && m.TechnicalNotes == nil && m.DeliveryChannel == nil
}

// Provided lists the field names the mutation carries, in declaration order,
// using the gate's naming.
func (m *Mutation) Provided() []string {
	var fields []string
	for _, field := range m.fieldSlots() {
		if *field.slot != nil {
			fields = append(fields, field.name)
		}
	}
	if m.Stage != nil {
		fields = append(fields, "stage")
	}
	return fields
}

// Clear removes the named field from the mutation. Unknown names are ignored.
func (m *Mutation) Clear(field string) {
	if field == "stage" {
		m.Stage = nil
		return
	}
	for _, candidate := range m.fieldSlots() {
		if candidate.name == field {
			*candidate.slot = nil
			return
		}
	}
}

type fieldSlot struct {
	name string
	slot **string
}

// fieldSlots maps gate field names to mutation slots. The slice order is the
// order Provided reports, so dropped-field output stays stable.
func (m *Mutation) fieldSlots() []fieldSlot {
	return []fieldSlot{
		{"name", &m.Name},
		{"department", &m.Department},
		{"contactPerson", &m.ContactPerson},
		{"assignedActorId", &m.AssignedActorID},
		{"deliveryDate", &m.DeliveryDate},
		{"observations", &m.Observations},
		{"productionInfo.preparationState", &m.PreparationState},
		{"productionInfo.pieces", &m.Pieces},
		{"productionInfo.formats", &m.Formats},
		{"productionInfo.technicalNotes", &m.TechnicalNotes},
		{"productionInfo.deliveryChannel", &m.DeliveryChannel},
	}
}

// deliveryDateLayouts are accepted deadline input formats, tried in order.
var deliveryDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDeliveryDate converts raw deadline input into a time. An empty string
// returns (nil, nil), which clears the date.
func ParseDeliveryDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range deliveryDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			ts = ts.UTC()
			return &ts, nil
		}
	}
	return nil, services.Wrap(services.ErrValidation, "audit", "parse-delivery-date",
		"unrecognized deadline format "+raw, nil)
}

// Diff returns one history entry per real change the mutation would make to
// the request. Fields the mutation does not provide are skipped; provided
// fields equal to the stored value produce nothing. Stage changes are
// classified status_change, a cleared delivery date is a delete, everything
// else an update. The caller has already filtered the mutation through the
// permission gate.
func Diff(prev *request.Request, mut Mutation, actorID string) ([]request.HistoryEntry, error) {
	var entries []request.HistoryEntry
	add := func(field, oldValue, newValue string, ct request.ChangeType) {
		entries = append(entries, request.HistoryEntry{
			RequestID:    prev.ID,
			ChangedField: field,
			OldValue:     oldValue,
			NewValue:     newValue,
			ActorID:      actorID,
			ChangeType:   ct,
		})
	}

	diffString := func(field, old string, proposed *string) {
		if proposed == nil || *proposed == old {
			return
		}
		add(field, old, *proposed, request.ChangeUpdate)
	}

	diffString("name", prev.Name, mut.Name)
	diffString("department", prev.Department, mut.Department)
	diffString("contactPerson", prev.ContactPerson, mut.ContactPerson)
	diffString("assignedActorId", prev.AssignedActorID, mut.AssignedActorID)
	diffString("observations", prev.Observations, mut.Observations)

	if mut.DeliveryDate != nil {
		proposed, err := ParseDeliveryDate(*mut.DeliveryDate)
		if err != nil {
			return nil, err
		}
		if !sameInstant(prev.DeliveryDate, proposed) {
			ct := request.ChangeUpdate
			if proposed == nil {
				ct = request.ChangeDelete
			}
			add("deliveryDate", formatTime(prev.DeliveryDate), formatTime(proposed), ct)
		}
	}

	if mut.Stage != nil && *mut.Stage != prev.Stage {
		add("stage", string(prev.Stage), string(*mut.Stage), request.ChangeStatusChange)
	}

	diffString("productionInfo.preparationState", prev.ProductionInfo.PreparationState, mut.PreparationState)
	diffString("productionInfo.pieces", prev.ProductionInfo.Pieces, mut.Pieces)
	diffString("productionInfo.formats", prev.ProductionInfo.Formats, mut.Formats)
	diffString("productionInfo.technicalNotes", prev.ProductionInfo.TechnicalNotes, mut.TechnicalNotes)
	diffString("productionInfo.deliveryChannel", prev.ProductionInfo.DeliveryChannel, mut.DeliveryChannel)

	return entries, nil
}

// sameInstant compares two optional times at millisecond precision, treating
// two nils as equal.
func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.UnixMilli() == b.UnixMilli()
}

func formatTime(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}

// Apply writes the mutation's provided fields onto the request, leaving
// absent fields untouched. DeliveryDate must already have parsed cleanly via
// Diff. Stage is deliberately not applied here: transitions go through the
// engine and the compare-on-stage store update.
func Apply(req *request.Request, mut Mutation) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setString(&req.Name, mut.Name)
	setString(&req.Department, mut.Department)
	setString(&req.ContactPerson, mut.ContactPerson)
	setString(&req.AssignedActorID, mut.AssignedActorID)
	setString(&req.Observations, mut.Observations)
	setString(&req.ProductionInfo.PreparationState, mut.PreparationState)
	setString(&req.ProductionInfo.Pieces, mut.Pieces)
	setString(&req.ProductionInfo.Formats, mut.Formats)
	setString(&req.ProductionInfo.TechnicalNotes, mut.TechnicalNotes)
	setString(&req.ProductionInfo.DeliveryChannel, mut.DeliveryChannel)

	if mut.DeliveryDate != nil {
		if parsed, err := ParseDeliveryDate(*mut.DeliveryDate); err == nil {
			req.DeliveryDate = parsed
		}
	}
}
