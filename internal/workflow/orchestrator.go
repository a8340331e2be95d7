// Package workflow coordinates every request operation: it loads state,
// resolves the actor, applies the permission gate, runs the audit diff and
// the transition engine, and persists outcomes atomically.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"prodflow/internal/attachments"
	"prodflow/internal/audit"
	"prodflow/internal/authorize"
	"prodflow/internal/deadline"
	"prodflow/internal/identity"
	"prodflow/internal/logging"
	"prodflow/internal/notifications"
	"prodflow/internal/request"
	"prodflow/internal/services"
	"prodflow/internal/transition"
)

// Orchestrator composes the store, identity service, permission gate, audit
// diff, transition engine, attachment client, and notifier.
type Orchestrator struct {
	store       *request.Store
	identity    identity.Service
	gate        *authorize.Gate
	attachments attachments.Client
	notifier    notifications.Service
	monitor     *deadline.Monitor
	logger      *slog.Logger
}

// NewOrchestrator wires the orchestrator. The monitor may be nil when no
// deadline loop runs (CLI one-shots).
func NewOrchestrator(
	store *request.Store,
	identitySvc identity.Service,
	gate *authorize.Gate,
	attClient attachments.Client,
	notifier notifications.Service,
	monitor *deadline.Monitor,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		store:       store,
		identity:    identitySvc,
		gate:        gate,
		attachments: attClient,
		notifier:    notifier,
		monitor:     monitor,
		logger:      logging.NewComponentLogger(logger, "workflow"),
	}
}

// MutationResult reports what a mutation actually did.
type MutationResult struct {
	Request *request.Request
	// Entries are the history records written, one per changed field.
	Entries []request.HistoryEntry
	// Dropped lists fields the actor provided but was not allowed to change.
	// They are removed from the mutation rather than failing it.
	Dropped []string
}

// TransitionResult reports the outcome of a stage advance.
type TransitionResult struct {
	Request *request.Request
	From    request.Stage
	To      request.Stage
	// Changed is false for the cancel trigger, which leaves the stage alone.
	Changed bool
}

// CreateRequest creates a request in the intake stage, attributed to the
// actor.
func (o *Orchestrator) CreateRequest(ctx context.Context, req *request.Request, actorID string) (*request.Request, error) {
	ctx = o.operationContext(ctx, 0, actorID)
	if _, err := o.identity.Lookup(ctx, actorID); err != nil {
		return nil, err
	}
	created, err := o.store.Create(ctx, req, actorID)
	if err != nil {
		return nil, err
	}
	o.logger.InfoContext(ctx, "request created",
		slog.Int64(logging.FieldRequestID, created.ID),
		slog.String("reference", created.Reference),
	)
	return created, nil
}

// ApplyMutation applies the permitted parts of a partial update. Fields
// outside the actor's scope are dropped silently and reported in the result.
// Stage never moves through this path; use AdvanceStage.
func (o *Orchestrator) ApplyMutation(ctx context.Context, requestID int64, actorID string, mut audit.Mutation) (*MutationResult, error) {
	ctx = o.operationContext(ctx, requestID, actorID)

	req, err := o.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	actor, err := o.identity.Lookup(ctx, actorID)
	if err != nil {
		return nil, err
	}

	scope := o.gate.Scope(actor, req, false)
	if scope.ReadOnly() {
		return nil, services.Wrap(services.ErrForbidden, "workflow", "apply-mutation",
			"actor "+actorID+" has no edit rights on this request", nil)
	}

	var dropped []string
	for _, field := range mut.Provided() {
		if field == authorize.FieldStage || !scope.CanMutate(field) {
			mut.Clear(field)
			dropped = append(dropped, field)
		}
	}
	if len(dropped) > 0 {
		o.logger.WarnContext(ctx, "mutation fields dropped",
			slog.Any("fields", dropped),
		)
	}

	// Working stages run under the restricted edit policy, which needs an
	// assignee to restrict to.
	if mut.AssignedActorID != nil && strings.TrimSpace(*mut.AssignedActorID) == "" && req.Stage.RequiresAssignee() {
		return nil, services.Wrap(services.ErrValidation, "workflow", "apply-mutation",
			"stage "+string(req.Stage)+" requires an assigned actor", nil)
	}

	entries, err := audit.Diff(req, mut, actorID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return &MutationResult{Request: req, Dropped: dropped}, nil
	}

	audit.Apply(req, mut)
	if err := o.store.UpdateFields(ctx, req, entries); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "mutation applied",
		slog.Int("changes", len(entries)),
	)
	return &MutationResult{Request: req, Entries: entries, Dropped: dropped}, nil
}

// AdvanceStage drives a transition for the request. Upload-gated stages
// require at least one attached document; material preparation requires the
// production sub-flow to be completed; in_sell requires a decision trigger.
func (o *Orchestrator) AdvanceStage(ctx context.Context, requestID int64, actorID string, trigger transition.Trigger) (*TransitionResult, error) {
	ctx = o.operationContext(ctx, requestID, actorID)

	req, err := o.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	actor, err := o.identity.Lookup(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !o.gate.Scope(actor, req, false).CanTransition() {
		return nil, services.Wrap(services.ErrForbidden, "workflow", "advance-stage",
			"actor "+actorID+" may not change the stage of this request", nil)
	}

	if transition.RequiresUpload(req.Stage) {
		has, err := o.attachments.HasDocuments(ctx, req.Reference)
		if err != nil {
			return nil, err
		}
		if !has {
			return nil, services.Wrap(services.ErrPreconditionFailed, "workflow", "advance-stage",
				"attach at least one document before advancing", nil)
		}
	}

	tctx := transition.Context{
		Budget:              request.ParseBudget(req.CampaignDetail.Budget),
		PreparationComplete: req.ProductionInfo.PreparationState == request.PreparationCompleted,
	}
	next, err := transition.Next(req.Stage, trigger, tctx)
	if errors.Is(err, transition.ErrNoChange) {
		// Cancel decision: no stage write, no history.
		return &TransitionResult{Request: req, From: req.Stage, To: req.Stage}, nil
	}
	if err != nil {
		return nil, err
	}

	from := req.Stage
	entry := request.HistoryEntry{
		RequestID:    req.ID,
		ChangedField: "stage",
		OldValue:     string(from),
		NewValue:     string(next),
		ActorID:      actorID,
		ChangeType:   request.ChangeStatusChange,
	}
	if err := o.store.Transition(ctx, req.ID, from, next, entry); err != nil {
		return nil, err
	}
	req.Stage = next

	o.logger.InfoContext(ctx, "stage advanced",
		slog.String("from", string(from)),
		slog.String("to", string(next)),
	)
	o.notifyTransition(ctx, req, from, next)

	return &TransitionResult{Request: req, From: from, To: next, Changed: true}, nil
}

// GetHistory returns the request's audit trail, newest first.
func (o *Orchestrator) GetHistory(ctx context.Context, requestID int64) ([]request.HistoryEntry, error) {
	if _, err := o.loadRequest(ctx, requestID); err != nil {
		return nil, err
	}
	return o.store.History(ctx, requestID)
}

// OpenRequestsNearingDeadline returns open requests inside the alert window.
func (o *Orchestrator) OpenRequestsNearingDeadline(ctx context.Context) ([]*request.Request, error) {
	if o.monitor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "workflow", "nearing-deadline",
			"no deadline monitor configured", nil)
	}
	return o.monitor.NearingDeadline(ctx)
}

func (o *Orchestrator) loadRequest(ctx context.Context, requestID int64) (*request.Request, error) {
	req, err := o.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, services.Wrap(services.ErrNotFound, "workflow", "load-request",
			"request not found", nil)
	}
	return req, nil
}

func (o *Orchestrator) notifyTransition(ctx context.Context, req *request.Request, from, to request.Stage) {
	if o.notifier == nil {
		return
	}
	if to == request.StageCompleted {
		if err := o.notifier.NotifyRequestCompleted(ctx, req); err != nil {
			o.logger.WarnContext(ctx, "completion notification failed", logging.Error(err))
		}
		return
	}
	if err := o.notifier.NotifyStageAdvanced(ctx, req, from, to); err != nil {
		o.logger.WarnContext(ctx, "stage notification failed", logging.Error(err))
	}
}

// operationContext stamps the context with a fresh correlation ID plus the
// request and actor, so every log line in the operation carries them.
func (o *Orchestrator) operationContext(ctx context.Context, requestID int64, actorID string) context.Context {
	ctx = services.WithCorrelationID(ctx, uuid.NewString())
	if requestID > 0 {
		ctx = services.WithRequestID(ctx, requestID)
	}
	if actorID != "" {
		ctx = services.WithActorID(ctx, actorID)
	}
	return ctx
}
