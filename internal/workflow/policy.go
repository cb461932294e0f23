package workflow

import (
	"context"

	"github.com/tooldesk/quoteflow/internal/gate"
	"github.com/tooldesk/quoteflow/internal/models"
)

// rolePermissions grants workflow actions by role name. Admin holds the
// superadmin wildcard; sales has no role grants and acts only as author on
// its own quotations.
var rolePermissions = map[string][]gate.Permission{
	models.RoleAdmin: {gate.PermissionSuperAdmin},
	models.RoleEngineer: {
		gate.NewPermission(ResourceQuotation, ActionEngineerApprove),
		gate.NewPermission(ResourceQuotation, ActionReject),
	},
	models.RoleManagement: {
		gate.NewPermission(ResourceQuotation, ActionManagementApprove),
		gate.NewPermission(ResourceQuotation, ActionIssue),
		gate.NewPermission(ResourceQuotation, ActionReject),
	},
}

// authorActions may additionally be performed by the quotation's author,
// whatever their role: authors drive their own drafts through submission and
// back, and manage the part tree while it is editable.
var authorActions = map[gate.Action]bool{
	ActionSubmit:        true,
	ActionRevertToDraft: true,
	gate.ActionView:     true,
	gate.ActionCreate:   true,
	gate.ActionList:     true,
	gate.ActionUpdate:   true,
	gate.ActionDelete:   true,
}

// RolePolicy implements the quotation authorization rules as a gate policy,
// combining role grants with author ownership.
type RolePolicy struct{}

func NewRolePolicy() *RolePolicy { return &RolePolicy{} }

func (p *RolePolicy) Can(_ context.Context, actor *Actor, action gate.Action, resource any) bool {
	if actor == nil {
		return false
	}
	if gate.AnyMatches(rolePermissions[actor.Role], gate.NewPermission(ResourceQuotation, action)) {
		return true
	}
	if !authorActions[action] {
		return false
	}
	q, ok := resource.(*models.Quotation)
	if !ok || q == nil {
		// create/list checks carry no resource; any authenticated actor may
		// start and browse quotations.
		return action == gate.ActionCreate || action == gate.ActionList
	}
	return q.CreatedByID == actor.ID
}
