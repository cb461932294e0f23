// Package gate is a small Gate/Policy authorization layer. The Gate is a
// registry of policies keyed by resource type; each Policy decides whether a
// subject may perform an action on a resource. The package knows nothing about
// domain models, so the workflow engine can inject whatever policy it needs.
//
// U is the subject type and uses generics so callers can authorize by plain
// user ID or by a richer actor struct.
package gate

import (
	"context"
	"errors"
)

// Action names the operation a subject wants to perform. Workflow actions
// (submit, reject, ...) are declared next to the state machine; the generic
// CRUD actions live here.
type Action string

func (a Action) String() string { return string(a) }

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Policy decides authorization for one resource type.
type Policy[U any] interface {
	// Can returns true if subject may perform action on resource.
	// For list/create checks, resource may be nil.
	Can(ctx context.Context, subject U, action Action, resource any) bool
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc[U any] func(ctx context.Context, subject U, action Action, resource any) bool

func (f PolicyFunc[U]) Can(ctx context.Context, subject U, action Action, resource any) bool {
	return f(ctx, subject, action, resource)
}

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	policies map[string]Policy[U]
}

// NewGate creates an empty Gate ready to register policies.
func NewGate[U comparable]() *Gate[U] {
	return &Gate[U]{policies: make(map[string]Policy[U])}
}

// Register adds a policy for a resource type (e.g. "quotation"), replacing any
// existing one.
func (g *Gate[U]) Register(resourceType string, p Policy[U]) {
	g.policies[resourceType] = p
}

// Authorize returns nil if subject may perform action on the resource,
// ErrUnauthorized for a zero-value subject or a denied action, and
// ErrNoPolicyDefined when resourceType has no registered policy.
func (g *Gate[U]) Authorize(ctx context.Context, subject U, action Action, resourceType string, resource any) error {
	var zero U
	if subject == zero {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, subject, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, subject U, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, subject, action, resourceType, resource) == nil
}
