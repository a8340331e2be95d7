// Package authorize decides which request fields an actor may change and
// whether the actor may drive stage transitions. Decisions are evaluated
// fresh on every call; a permission change applies to the next mutation.
package authorize

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"prodflow/internal/identity"
	"prodflow/internal/logging"
	"prodflow/internal/request"
	"prodflow/internal/services"
)

// Field names accepted from mutation payloads. Restricted editors (the
// assigned actor without a privileged role) may touch only the subset below.
const (
	FieldName            = "name"
	FieldDepartment      = "department"
	FieldContactPerson   = "contactPerson"
	FieldAssignedActorID = "assignedActorId"
	FieldDeliveryDate    = "deliveryDate"
	FieldObservations    = "observations"
	FieldStage           = "stage"

	FieldPreparationState = "productionInfo.preparationState"
	FieldPieces           = "productionInfo.pieces"
	FieldFormats          = "productionInfo.formats"
	FieldTechnicalNotes   = "productionInfo.technicalNotes"
	FieldDeliveryChannel  = "productionInfo.deliveryChannel"
)

const (
	roleAssignee = "assignee"

	objectAll    = "request/*"
	actionEdit   = "edit"
	actionAnyAll = "*"
)

// restrictedFields is the editable surface of an assigned, non-privileged
// actor. Everything else on the record stays read-only for them.
var restrictedFields = []string{
	FieldObservations,
	FieldStage,
	FieldDepartment,
	FieldAssignedActorID,
	FieldPreparationState,
	FieldPieces,
	FieldFormats,
	FieldTechnicalNotes,
	FieldDeliveryChannel,
}

const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Gate evaluates edit scopes against the casbin policy set.
type Gate struct {
	enforcer *casbin.Enforcer
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewGate builds the gate with its built-in model and policies.
func NewGate(logger *slog.Logger) (*Gate, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("parse authorization model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("initialize enforcer: %w", err)
	}

	policies := [][]string{
		{roleSubject(identity.RoleAdmin), objectAll, actionAnyAll},
		{roleSubject(identity.RoleSupervisor), objectAll, actionAnyAll},
	}
	for _, field := range restrictedFields {
		policies = append(policies, []string{roleSubject(roleAssignee), fieldObject(field), actionEdit})
	}
	if _, err := enf.AddPolicies(policies); err != nil {
		return nil, fmt.Errorf("load authorization policies: %w", err)
	}

	return &Gate{
		enforcer: enf,
		logger:   logging.NewComponentLogger(logger, "authorize"),
	}, nil
}

// Scope describes what the actor may do to one request right now.
type Scope struct {
	// FullEdit grants mutation of every field regardless of stage.
	FullEdit bool
	// Fields is the allowed field set when FullEdit is false.
	Fields map[string]struct{}
}

// CanMutate reports whether the scope allows changing the named field.
func (s Scope) CanMutate(field string) bool {
	if s.FullEdit {
		return true
	}
	_, ok := s.Fields[field]
	return ok
}

// CanTransition reports whether the scope allows driving stage transitions.
func (s Scope) CanTransition() bool {
	return s.CanMutate(FieldStage)
}

// ReadOnly reports whether the scope permits no mutation at all.
func (s Scope) ReadOnly() bool {
	return !s.FullEdit && len(s.Fields) == 0
}

// Scope computes the actor's edit scope for the given request. readOnlyView
// marks a presentation context where edits are disabled for everyone; it wins
// over any role.
func (g *Gate) Scope(actor identity.Actor, req *request.Request, readOnlyView bool) Scope {
	if readOnlyView || req == nil {
		return Scope{}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, role := range actor.Roles {
		if g.allowed(roleSubject(role), objectAll, actionEdit) {
			return Scope{FullEdit: true}
		}
	}

	if actor.ID == "" || actor.ID != req.AssignedActorID {
		return Scope{}
	}

	fields := make(map[string]struct{}, len(restrictedFields))
	for _, field := range restrictedFields {
		if g.allowed(roleSubject(roleAssignee), fieldObject(field), actionEdit) {
			fields[field] = struct{}{}
		}
	}
	return Scope{Fields: fields}
}

// Authorize returns ErrForbidden unless the actor may mutate the named field
// on the request.
func (g *Gate) Authorize(actor identity.Actor, req *request.Request, field string) error {
	if g.Scope(actor, req, false).CanMutate(field) {
		return nil
	}
	g.logger.Warn("mutation denied",
		slog.String(logging.FieldActorID, actor.ID),
		slog.String("field", field))
	return services.Wrap(services.ErrForbidden, "authorize", "mutate",
		fmt.Sprintf("actor %s may not change %s", actor.ID, field), nil)
}

func (g *Gate) allowed(subject, object, action string) bool {
	ok, err := g.enforcer.Enforce(subject, object, action)
	if err != nil {
		g.logger.Error("enforce failed", logging.Error(err))
		return false
	}
	return ok
}

func roleSubject(role string) string {
	return "role:" + strings.ToLower(strings.TrimSpace(role))
}

func fieldObject(field string) string {
	return "request/field/" + strings.ReplaceAll(field, ".", "/")
}
