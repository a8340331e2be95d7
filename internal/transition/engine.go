// Package transition computes the next lifecycle stage for a production
// request. The rules live in one policy table so callers cannot drift apart
// on what each stage does.
package transition

import (
	"errors"

	"prodflow/internal/request"
	"prodflow/internal/services"
)

// BudgetThreshold is the campaign budget cutoff, in currency minor units,
// that routes intake requests to the proposal branch instead of direct sale.
const BudgetThreshold int64 = 50_000_000

// Trigger is an actor-supplied action requesting a stage transition.
type Trigger string

const (
	// TriggerAdvance asks for the stage's default forward move.
	TriggerAdvance Trigger = "advance"
	// TriggerSold records a positive sale decision on in_sell.
	TriggerSold Trigger = "sold"
	// TriggerNotSold records a lost sale on in_sell.
	TriggerNotSold Trigger = "not_sold"
	// TriggerCancel aborts the in_sell decision; the stage stays put.
	TriggerCancel Trigger = "cancel"
)

// ParseTrigger converts a string into a known Trigger.
func ParseTrigger(value string) (Trigger, bool) {
	switch Trigger(value) {
	case TriggerAdvance, TriggerSold, TriggerNotSold, TriggerCancel:
		return Trigger(value), true
	case "":
		return TriggerAdvance, true
	default:
		return "", false
	}
}

// Context carries the business data transitions branch on. The engine trusts
// these flags; verifying them against external services is the orchestrator's
// job.
type Context struct {
	// Budget is the parsed campaign budget in minor units.
	Budget int64
	// PreparationComplete reports whether the material-preparation sub-flow
	// finished (COMPLETED rather than DRAFT).
	PreparationComplete bool
}

// ErrNoChange is returned when a trigger deliberately leaves the stage
// unchanged (the in_sell cancel decision). Callers must not persist a
// transition or append history for it.
var ErrNoChange = errors.New("stage unchanged")

// Next computes the stage that follows current for the given trigger. It is a
// pure function over the policy table; unknown stages fall back to the stage
// table ordering.
func Next(current request.Stage, trigger Trigger, tctx Context) (request.Stage, error) {
	if current.IsTerminal() {
		return "", services.Wrap(services.ErrInvalidTransition, "transition", "next",
			"request is completed and cannot advance", nil)
	}

	switch current {
	case request.StageRequest, request.StageQuotation:
		// quotation is a legacy alias of request; both route on budget.
		if tctx.Budget >= BudgetThreshold {
			return request.StageCreateProposal, nil
		}
		return request.StageInSell, nil

	case request.StageCreateProposal:
		// The upload precondition is enforced by the orchestrator before
		// this call is made.
		return request.StageGetData, nil

	case request.StageGetData:
		return request.StageInSell, nil

	case request.StageInSell:
		switch trigger {
		case TriggerSold:
			return request.StageMaterialPrep, nil
		case TriggerNotSold:
			return request.StageCompleted, nil
		case TriggerCancel:
			return current, ErrNoChange
		default:
			return "", services.Wrap(services.ErrInvalidTransition, "transition", "next",
				"in_sell requires a sold, not_sold, or cancel decision", nil)
		}

	case request.StageMaterialPrep:
		if !tctx.PreparationComplete {
			return "", services.Wrap(services.ErrInvalidTransition, "transition", "next",
				"material preparation is still in draft", nil)
		}
		return request.StageGestionOp, nil

	case request.StageValMobile, request.StageValProgramatica, request.StageValRedPlus:
		return request.StageGestionOp, nil

	case request.StageGestionOp:
		return request.StageCierre, nil

	case request.StageCierre:
		return request.StageCompleted, nil
	}

	// Unmapped stage: advance along the stage table ordering.
	next, ok := current.NextInOrder()
	if !ok {
		return "", services.Wrap(services.ErrInvalidTransition, "transition", "next",
			"no rule or ordering successor for stage "+string(current), nil)
	}
	return next, nil
}

// RequiresUpload reports whether advancing out of the stage is gated on the
// request having at least one attached document.
func RequiresUpload(stage request.Stage) bool {
	switch stage {
	case request.StageCreateProposal, request.StageGetData:
		return true
	default:
		return false
	}
}
