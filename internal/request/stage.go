package request

import "strings"

// Stage represents a state in the production-request lifecycle.
type Stage string

const (
	StageRequest         Stage = "request"
	StageQuotation       Stage = "quotation"
	StageCreateProposal  Stage = "create_proposal"
	StageGetData         Stage = "get_data"
	StageInSell          Stage = "in_sell"
	StageMaterialPrep    Stage = "material_preparation"
	StageValMobile       Stage = "val_materiales_mobile"
	StageValProgramatica Stage = "val_materiales_programatica"
	StageValRedPlus      Stage = "val_materiales_red_plus"
	StageGestionOp       Stage = "gestion_operativa"
	StageCierre          Stage = "cierre"
	StageCompleted       Stage = "completed"
)

type stageInfo struct {
	code  Stage
	label string
}

// allStages is the ordered stage table. The position doubles as the fallback
// ordering index for stages without an explicit transition rule.
var allStages = []stageInfo{
	{StageRequest, "Request"},
	{StageQuotation, "Quotation"},
	{StageCreateProposal, "Create Proposal"},
	{StageGetData, "Get Data"},
	{StageInSell, "In Sell"},
	{StageMaterialPrep, "Material Preparation"},
	{StageValMobile, "Material Validation (Mobile)"},
	{StageValProgramatica, "Material Validation (Programmatic)"},
	{StageValRedPlus, "Material Validation (Red Plus)"},
	{StageGestionOp, "Operational Management"},
	{StageCierre, "Closing"},
	{StageCompleted, "Completed"},
}

var stageIndex = func() map[Stage]int {
	idx := make(map[Stage]int, len(allStages))
	for i, info := range allStages {
		idx[info.code] = i
	}
	return idx
}()

// Stages returns the ordered list of known stages.
func Stages() []Stage {
	out := make([]Stage, len(allStages))
	for i, info := range allStages {
		out[i] = info.code
	}
	return out
}

// OpenStages returns every non-terminal stage.
func OpenStages() []Stage {
	out := make([]Stage, 0, len(allStages)-1)
	for _, info := range allStages {
		if info.code != StageCompleted {
			out = append(out, info.code)
		}
	}
	return out
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stageIndex[normalized]
	return normalized, ok
}

// Label returns the human-readable stage name, or the raw code for unknown
// stages.
func (s Stage) Label() string {
	if i, ok := stageIndex[s]; ok {
		return allStages[i].label
	}
	return string(s)
}

// IsTerminal reports whether the stage has no outgoing transitions.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted
}

// Known reports whether the stage is a member of the stage table.
func (s Stage) Known() bool {
	_, ok := stageIndex[s]
	return ok
}

// NextInOrder returns the stage that follows s in the stage table. The second
// return is false when s is unknown or already last.
func (s Stage) NextInOrder() (Stage, bool) {
	i, ok := stageIndex[s]
	if !ok || i+1 >= len(allStages) {
		return "", false
	}
	return allStages[i+1].code, true
}

// assigneeRequiredStages are working stages where the restricted edit policy
// applies, so an assignee must exist.
var assigneeRequiredStages = map[Stage]struct{}{
	StageCreateProposal:  {},
	StageGetData:         {},
	StageInSell:          {},
	StageMaterialPrep:    {},
	StageValMobile:       {},
	StageValProgramatica: {},
	StageValRedPlus:      {},
	StageGestionOp:       {},
	StageCierre:          {},
}

// RequiresAssignee reports whether the stage demands an assigned actor.
func (s Stage) RequiresAssignee() bool {
	_, ok := assigneeRequiredStages[s]
	return ok
}
