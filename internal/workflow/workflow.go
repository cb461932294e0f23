// Package workflow gates quotation status transitions. The transition table
// below is the single source of truth: an action is valid only from its listed
// source states, and only for actors the injected gate policy accepts. Every
// applied transition yields an immutable audit entry.
package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/tooldesk/quoteflow/internal/gate"
	"github.com/tooldesk/quoteflow/internal/models"
)

// Actor is the authenticated subject a transition is attempted by.
type Actor struct {
	ID   uint
	Name string
	Role string
}

// ResourceQuotation is the gate resource type for quotation policies.
const ResourceQuotation = "quotation"

// Workflow actions. The generic CRUD actions come from the gate package.
const (
	ActionSubmit            gate.Action = "submit"
	ActionEngineerApprove   gate.Action = "engineer_approve"
	ActionManagementApprove gate.Action = "management_approve"
	ActionReject            gate.Action = "reject"
	ActionIssue             gate.Action = "issue"
	ActionRevertToDraft     gate.Action = "revert_to_draft"
)

type transition struct {
	from []models.Status
	to   models.Status
}

var transitions = map[gate.Action]transition{
	ActionSubmit:            {from: []models.Status{models.StatusDraft}, to: models.StatusSubmitted},
	ActionEngineerApprove:   {from: []models.Status{models.StatusSubmitted}, to: models.StatusEngineerApproved},
	ActionManagementApprove: {from: []models.Status{models.StatusEngineerApproved}, to: models.StatusManagementApproved},
	ActionReject:            {from: []models.Status{models.StatusSubmitted, models.StatusEngineerApproved, models.StatusManagementApproved}, to: models.StatusRejected},
	ActionIssue:             {from: []models.Status{models.StatusManagementApproved}, to: models.StatusIssued},
	ActionRevertToDraft:     {from: []models.Status{models.StatusRejected}, to: models.StatusDraft},
}

// Actions lists every known workflow action.
func Actions() []gate.Action {
	out := make([]gate.Action, 0, len(transitions))
	for a := range transitions {
		out = append(out, a)
	}
	return out
}

// ParseAction maps a wire string onto a known workflow action.
func ParseAction(s string) (gate.Action, error) {
	a := gate.Action(strings.TrimSpace(s))
	if _, ok := transitions[a]; !ok {
		return "", fmt.Errorf("unknown workflow action %q: %w", s, models.ErrValidation)
	}
	return a, nil
}

// Machine validates and applies workflow transitions.
type Machine struct {
	gate *gate.Gate[*Actor]
}

// NewMachine builds a Machine with the default role policy registered.
func NewMachine() *Machine {
	return NewMachineWithPolicy(NewRolePolicy())
}

// NewMachineWithPolicy builds a Machine around a custom quotation policy.
func NewMachineWithPolicy(p gate.Policy[*Actor]) *Machine {
	g := gate.NewGate[*Actor]()
	g.Register(ResourceQuotation, p)
	return &Machine{gate: g}
}

// Authorize runs only the policy check for action on q, without applying
// anything. Services use it to gate structural operations (update, delete).
func (m *Machine) Authorize(ctx context.Context, actor *Actor, action gate.Action, q *models.Quotation) error {
	if err := m.gate.Authorize(ctx, actor, action, ResourceQuotation, q); err != nil {
		return fmt.Errorf("%s not permitted for role %q: %w", action, roleOf(actor), models.ErrForbidden)
	}
	return nil
}

// Apply validates action against q's current status and the actor's
// permissions, then mutates q.Status and returns the audit entry to persist.
// On any error q is left unchanged. The caller persists the status change and
// the audit row in one transaction.
func (m *Machine) Apply(ctx context.Context, actor *Actor, q *models.Quotation, action gate.Action, comment string) (*models.QuotationAudit, error) {
	tr, ok := transitions[action]
	if !ok {
		return nil, fmt.Errorf("unknown workflow action %q: %w", action, models.ErrInvalidTransition)
	}
	if !statusIn(q.Status, tr.from) {
		return nil, fmt.Errorf("%s not allowed from status %s: %w", action, q.Status, models.ErrInvalidTransition)
	}
	if action == ActionReject && strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("reject requires a comment: %w", models.ErrValidation)
	}
	if err := m.Authorize(ctx, actor, action, q); err != nil {
		return nil, err
	}
	audit := &models.QuotationAudit{
		QuotationID: q.ID,
		Action:      string(action),
		FromStatus:  q.Status,
		ToStatus:    tr.to,
		ActorID:     actor.ID,
		ActorName:   actor.Name,
		Comment:     strings.TrimSpace(comment),
	}
	q.Status = tr.to
	return audit, nil
}

func statusIn(s models.Status, set []models.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func roleOf(a *Actor) string {
	if a == nil {
		return ""
	}
	return a.Role
}
