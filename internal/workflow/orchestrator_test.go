package workflow_test

import (
	"context"
	"errors"
	"testing"

	"prodflow/internal/attachments"
	"prodflow/internal/audit"
	"prodflow/internal/authorize"
	"prodflow/internal/config"
	"prodflow/internal/identity"
	"prodflow/internal/notifications"
	"prodflow/internal/request"
	"prodflow/internal/services"
	"prodflow/internal/testsupport"
	"prodflow/internal/transition"
	"prodflow/internal/workflow"
)

func strptr(s string) *string { return &s }

type fixture struct {
	store *request.Store
	orch  *workflow.Orchestrator
}

func newFixture(t *testing.T, docs attachments.Client) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithStaticActors(
		config.StaticActor{ID: "admin-1", Name: "Ana", Roles: []string{"admin"}},
		config.StaticActor{ID: "exec-1", Name: "Luis", Roles: []string{"executive"}},
		config.StaticActor{ID: "exec-2", Name: "Rosa", Roles: []string{"executive"}},
	))
	store := testsupport.MustOpenStore(t, cfg)
	gate, err := authorize.NewGate(nil)
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	if docs == nil {
		docs = attachments.Stub{Present: true}
	}
	notifier := notifications.NewService(cfg)
	orch := workflow.NewOrchestrator(store, identity.NewService(cfg), gate, docs, notifier, nil, nil)
	return &fixture{store: store, orch: orch}
}

func (f *fixture) create(t *testing.T, name string) *request.Request {
	t.Helper()
	created, err := f.orch.CreateRequest(context.Background(), &request.Request{Name: name}, "admin-1")
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return created
}

func TestApplyMutationWritesFieldsAndHistory(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "Campaña Q4")

	result, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		Department:   strptr("comercial"),
		Observations: strptr("pendiente brief"),
	})
	if err != nil {
		t.Fatalf("ApplyMutation: %v", err)
	}
	if len(result.Entries) != 2 || len(result.Dropped) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	stored, err := f.store.GetByID(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Department != "comercial" || stored.Observations != "pendiente brief" {
		t.Fatalf("fields not persisted: %+v", stored)
	}

	history, err := f.orch.GetHistory(context.Background(), req.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	// Two updates plus the create entry.
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
}

func TestApplyMutationDropsForbiddenFields(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "Campaña Q4")
	if _, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		AssignedActorID: strptr("exec-1"),
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	result, err := f.orch.ApplyMutation(context.Background(), req.ID, "exec-1", audit.Mutation{
		Name:         strptr("renombrada"),
		Observations: strptr("nota del ejecutivo"),
	})
	if err != nil {
		t.Fatalf("ApplyMutation: %v", err)
	}
	if len(result.Dropped) != 1 || result.Dropped[0] != "name" {
		t.Fatalf("expected name dropped, got %v", result.Dropped)
	}
	if len(result.Entries) != 1 || result.Entries[0].ChangedField != "observations" {
		t.Fatalf("expected only observations entry, got %+v", result.Entries)
	}

	stored, _ := f.store.GetByID(context.Background(), req.ID)
	if stored.Name != "Campaña Q4" {
		t.Fatal("forbidden field must not change")
	}
}

func TestApplyMutationForbiddenForUnassigned(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "Campaña Q4")

	_, err := f.orch.ApplyMutation(context.Background(), req.ID, "exec-2", audit.Mutation{
		Observations: strptr("no debería entrar"),
	})
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestApplyMutationNoChangesIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "Campaña Q4")

	result, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		Name: strptr("Campaña Q4"),
	})
	if err != nil {
		t.Fatalf("ApplyMutation: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Fatalf("identical values must not write history: %+v", result.Entries)
	}

	history, _ := f.orch.GetHistory(context.Background(), req.ID)
	if len(history) != 1 {
		t.Fatalf("only the create entry should exist, got %d", len(history))
	}
}

func TestApplyMutationCannotClearAssigneeInWorkingStage(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "Campaña Q4")
	if _, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		AssignedActorID: strptr("exec-1"),
	}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerAdvance); err != nil {
		t.Fatalf("advance: %v", err)
	}

	_, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		AssignedActorID: strptr(""),
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("clearing the assignee in in_sell must fail, got %v", err)
	}
	stored, _ := f.store.GetByID(context.Background(), req.ID)
	if stored.AssignedActorID != "exec-1" {
		t.Fatalf("assignee must be unchanged, got %q", stored.AssignedActorID)
	}

	// Reassignment to another actor stays allowed.
	if _, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		AssignedActorID: strptr("exec-2"),
	}); err != nil {
		t.Fatalf("reassign: %v", err)
	}

	// Intake has no restricted edit policy, so clearing there is fine.
	fresh := f.create(t, "sin asignar")
	if _, err := f.orch.ApplyMutation(context.Background(), fresh.ID, "admin-1", audit.Mutation{
		AssignedActorID: strptr(""),
	}); err != nil {
		t.Fatalf("clearing in intake: %v", err)
	}
}

func TestAdvanceStageBudgetRouting(t *testing.T) {
	f := newFixture(t, nil)

	low := f.create(t, "presupuesto bajo")
	result, err := f.orch.AdvanceStage(context.Background(), low.ID, "admin-1", transition.TriggerAdvance)
	if err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if result.To != request.StageInSell {
		t.Fatalf("empty budget should route to in_sell, got %s", result.To)
	}

	high := f.create(t, "presupuesto alto")
	high.CampaignDetail.Budget = "55.000.000"
	if err := f.store.UpdateFields(context.Background(), high, nil); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	result, err = f.orch.AdvanceStage(context.Background(), high.ID, "admin-1", transition.TriggerAdvance)
	if err != nil {
		t.Fatalf("AdvanceStage: %v", err)
	}
	if result.To != request.StageCreateProposal {
		t.Fatalf("high budget should route to create_proposal, got %s", result.To)
	}
}

func TestAdvanceStageUploadGate(t *testing.T) {
	f := newFixture(t, attachments.Stub{Present: false})

	req := f.create(t, "sin documentos")
	req.CampaignDetail.Budget = "60000000"
	if err := f.store.UpdateFields(context.Background(), req, nil); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if _, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerAdvance); err != nil {
		t.Fatalf("advance to proposal: %v", err)
	}

	_, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerAdvance)
	if !errors.Is(err, services.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}

	stored, _ := f.store.GetByID(context.Background(), req.ID)
	if stored.Stage != request.StageCreateProposal {
		t.Fatalf("failed precondition must not move the stage, got %s", stored.Stage)
	}
	history, _ := f.orch.GetHistory(context.Background(), req.ID)
	for _, entry := range history {
		if entry.NewValue == string(request.StageGetData) {
			t.Fatal("failed precondition must not write history")
		}
	}
}

func TestAdvanceStageCancelIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "venta en curso")
	if _, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerAdvance); err != nil {
		t.Fatalf("advance: %v", err)
	}

	before, _ := f.orch.GetHistory(context.Background(), req.ID)
	result, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerCancel)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if result.Changed || result.To != request.StageInSell {
		t.Fatalf("cancel must leave the stage, got %+v", result)
	}
	after, _ := f.orch.GetHistory(context.Background(), req.ID)
	if len(after) != len(before) {
		t.Fatal("cancel must not append history")
	}
}

func TestAdvanceStageForbiddenActor(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "sin permisos")

	_, err := f.orch.AdvanceStage(context.Background(), req.ID, "exec-2", transition.TriggerAdvance)
	if !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAdvanceStageFullLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	req := f.create(t, "ciclo completo")

	advance := func(trigger transition.Trigger) request.Stage {
		t.Helper()
		result, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", trigger)
		if err != nil {
			t.Fatalf("AdvanceStage(%s): %v", trigger, err)
		}
		return result.To
	}

	if got := advance(transition.TriggerAdvance); got != request.StageInSell {
		t.Fatalf("intake: %s", got)
	}
	if got := advance(transition.TriggerSold); got != request.StageMaterialPrep {
		t.Fatalf("sold: %s", got)
	}

	// Preparation must be completed before material_preparation advances.
	if _, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerAdvance); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("draft preparation should block: %v", err)
	}
	if _, err := f.orch.ApplyMutation(context.Background(), req.ID, "admin-1", audit.Mutation{
		PreparationState: strptr(request.PreparationCompleted),
	}); err != nil {
		t.Fatalf("complete preparation: %v", err)
	}

	if got := advance(transition.TriggerAdvance); got != request.StageGestionOp {
		t.Fatalf("material prep: %s", got)
	}
	if got := advance(transition.TriggerAdvance); got != request.StageCierre {
		t.Fatalf("gestion operativa: %s", got)
	}
	if got := advance(transition.TriggerAdvance); got != request.StageCompleted {
		t.Fatalf("cierre: %s", got)
	}

	if _, err := f.orch.AdvanceStage(context.Background(), req.ID, "admin-1", transition.TriggerAdvance); !errors.Is(err, services.ErrInvalidTransition) {
		t.Fatalf("completed must be terminal: %v", err)
	}
}

func TestGetHistoryUnknownRequest(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.orch.GetHistory(context.Background(), 9999)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
