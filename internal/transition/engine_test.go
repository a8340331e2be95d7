package transition_test

import (
	"errors"
	"testing"

	"prodflow/internal/request"
	"prodflow/internal/services"
	"prodflow/internal/transition"
)

func TestBudgetRouting(t *testing.T) {
	cases := []struct {
		name   string
		stage  request.Stage
		budget string
		want   request.Stage
	}{
		{"low budget goes to direct sale", request.StageRequest, "45.000.000", request.StageInSell},
		{"high budget goes to proposal", request.StageRequest, "55,000,000", request.StageCreateProposal},
		{"threshold exactly routes to proposal", request.StageRequest, "50000000", request.StageCreateProposal},
		{"empty budget defaults to direct sale", request.StageRequest, "", request.StageInSell},
		{"malformed budget defaults to direct sale", request.StageRequest, "por definir", request.StageInSell},
		{"legacy quotation alias uses the same rule", request.StageQuotation, "55,000,000", request.StageCreateProposal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := transition.Next(tc.stage, transition.TriggerAdvance, transition.Context{
				Budget: request.ParseBudget(tc.budget),
			})
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestSellDecision(t *testing.T) {
	if got, err := transition.Next(request.StageInSell, transition.TriggerSold, transition.Context{}); err != nil || got != request.StageMaterialPrep {
		t.Fatalf("sold: got %s, %v", got, err)
	}
	if got, err := transition.Next(request.StageInSell, transition.TriggerNotSold, transition.Context{}); err != nil || got != request.StageCompleted {
		t.Fatalf("not_sold: got %s, %v", got, err)
	}

	got, err := transition.Next(request.StageInSell, transition.TriggerCancel, transition.Context{})
	if !errors.Is(err, transition.ErrNoChange) {
		t.Fatalf("cancel: expected ErrNoChange, got %v", err)
	}
	if got != request.StageInSell {
		t.Fatalf("cancel: expected stage unchanged, got %s", got)
	}

	if _, err := transition.Next(request.StageInSell, transition.TriggerAdvance, transition.Context{}); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("generic advance on in_sell must fail, got %v", err)
	}
}

func TestMaterialPreparationGate(t *testing.T) {
	if _, err := transition.Next(request.StageMaterialPrep, transition.TriggerAdvance, transition.Context{}); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("draft preparation must not advance, got %v", err)
	}
	got, err := transition.Next(request.StageMaterialPrep, transition.TriggerAdvance, transition.Context{PreparationComplete: true})
	if err != nil || got != request.StageGestionOp {
		t.Fatalf("completed preparation: got %s, %v", got, err)
	}
}

func TestValidationStagesConverge(t *testing.T) {
	for _, stage := range []request.Stage{request.StageValMobile, request.StageValProgramatica, request.StageValRedPlus} {
		got, err := transition.Next(stage, transition.TriggerAdvance, transition.Context{})
		if err != nil || got != request.StageGestionOp {
			t.Fatalf("%s: got %s, %v", stage, got, err)
		}
	}
}

func TestClosingChain(t *testing.T) {
	got, err := transition.Next(request.StageGestionOp, transition.TriggerAdvance, transition.Context{})
	if err != nil || got != request.StageCierre {
		t.Fatalf("gestion_operativa: got %s, %v", got, err)
	}
	got, err = transition.Next(request.StageCierre, transition.TriggerAdvance, transition.Context{})
	if err != nil || got != request.StageCompleted {
		t.Fatalf("cierre: got %s, %v", got, err)
	}
}

func TestCompletedIsAbsorbing(t *testing.T) {
	for _, trigger := range []transition.Trigger{transition.TriggerAdvance, transition.TriggerSold, transition.TriggerCancel} {
		if _, err := transition.Next(request.StageCompleted, trigger, transition.Context{}); !errors.Is(err, services.ErrInvalidTransition) {
			t.Fatalf("trigger %s on completed: expected ErrInvalidTransition, got %v", trigger, err)
		}
	}
}

func TestNextAlwaysYieldsKnownStage(t *testing.T) {
	for _, stage := range request.Stages() {
		for _, trigger := range []transition.Trigger{transition.TriggerAdvance, transition.TriggerSold, transition.TriggerNotSold} {
			got, err := transition.Next(stage, trigger, transition.Context{Budget: 60_000_000, PreparationComplete: true})
			if err != nil {
				continue
			}
			if !got.Known() {
				t.Fatalf("Next(%s, %s) produced unlisted stage %q", stage, trigger, got)
			}
		}
	}
}

func TestParseTrigger(t *testing.T) {
	if got, ok := transition.ParseTrigger(""); !ok || got != transition.TriggerAdvance {
		t.Fatalf("empty trigger should default to advance, got %q, %v", got, ok)
	}
	if _, ok := transition.ParseTrigger("approve"); ok {
		t.Fatal("unknown trigger must not parse")
	}
}

func TestRequiresUpload(t *testing.T) {
	if !transition.RequiresUpload(request.StageCreateProposal) || !transition.RequiresUpload(request.StageGetData) {
		t.Fatal("proposal and data stages are upload-gated")
	}
	if transition.RequiresUpload(request.StageInSell) {
		t.Fatal("in_sell is not upload-gated")
	}
}
