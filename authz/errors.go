package authz

import (
	"errors"
	"fmt"
)

var (
	// ErrParameterNotFound means the declared tenant parameter was not
	// present in the call arguments.
	ErrParameterNotFound = errors.New("authz: tenant parameter not found")

	// ErrReferenceNotFound means an indirect tenant reference (a
	// membership id) did not resolve to a membership.
	ErrReferenceNotFound = errors.New("authz: tenant reference not found")

	// ErrMissingTenantID means the tenant parameter was present but
	// empty or unparsable. Maps to a bad request.
	ErrMissingTenantID = errors.New("authz: missing tenant id")

	// ErrNotAMember means the caller has no membership in the tenant
	// and therefore no standing at all.
	ErrNotAMember = errors.New("authz: caller is not a member of this business")
)

// PermissionDeniedError carries the detail of a failed evaluation for
// internal logs. Handlers must not echo it to clients verbatim.
type PermissionDeniedError struct {
	Role      Role         // role the caller holds
	WantRoles []Role       // non-empty for role requirements
	Missing   []Permission // permissions absent from the effective set
}

func (e *PermissionDeniedError) Error() string {
	if len(e.WantRoles) > 0 {
		return fmt.Sprintf("authz: role %q is not one of %v", e.Role, e.WantRoles)
	}
	return fmt.Sprintf("authz: missing permissions %v", e.Missing)
}
