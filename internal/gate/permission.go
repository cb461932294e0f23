package gate

import "strings"

// Permission is an allowed action on a resource type, written
// "resource:action" (e.g. "quotation:submit").
type Permission string

// NewPermission builds a permission from resource type and action.
func NewPermission(resourceType string, action Action) Permission {
	return Permission(resourceType + ":" + string(action))
}

// Parse splits a permission into resource type and action.
func (p Permission) Parse() (resourceType string, action Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], Action(parts[1])
}

// Wildcards for super permissions.
const (
	WildcardAll                     = "*"
	PermissionSuperAdmin Permission = "*:*"
)

// Matches reports whether this permission grants the requested one.
// "*:*" grants everything; "quotation:*" grants every quotation action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionSuperAdmin {
		return true
	}
	if p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res == reqRes && string(act) == WildcardAll
}

// AnyMatches reports whether at least one permission in the set grants the
// requested one.
func AnyMatches(perms []Permission, requested Permission) bool {
	for _, p := range perms {
		if p.Matches(requested) {
			return true
		}
	}
	return false
}
