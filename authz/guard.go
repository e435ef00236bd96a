package authz

import (
	"context"
	"strconv"
)

// Membership is the guard's view of a caller's standing in a business.
// It is a transient copy of the persisted record, never written back.
type Membership struct {
	ID         uint
	UserID     uint
	BusinessID uint
	Role       Role
	Overrides  []Permission
}

// EffectivePermissions returns the override set when one is present,
// otherwise the catalog set for the membership's role.
func (m *Membership) EffectivePermissions() []Permission {
	if len(m.Overrides) > 0 {
		return m.Overrides
	}
	return PermissionsFor(m.Role)
}

// MembershipFinder loads membership records. Lookups are read-only; a
// nil membership with a nil error means "not found".
type MembershipFinder interface {
	FindMembership(ctx context.Context, userID, businessID uint) (*Membership, error)
	FindMembershipByID(ctx context.Context, membershipID uint) (*Membership, error)
}

// Guard enforces a Declaration before a guarded operation runs. It
// holds no mutable state; all I/O goes through the membership finder.
type Guard struct {
	memberships MembershipFinder
}

func NewGuard(memberships MembershipFinder) *Guard {
	return &Guard{memberships: memberships}
}

// Check resolves the tenant from args, loads the caller's membership
// and evaluates the declaration. A nil return means the operation may
// proceed; any error means it must not run.
func (g *Guard) Check(ctx context.Context, callerID uint, decl *Declaration, args Args) error {
	businessID, err := ResolveTenant(ctx, g.memberships, decl, args)
	if err != nil {
		return err
	}
	if businessID == 0 {
		return ErrMissingTenantID
	}

	membership, err := g.memberships.FindMembership(ctx, callerID, businessID)
	if err != nil {
		return err
	}
	if membership == nil {
		return ErrNotAMember
	}

	return evaluate(decl, membership)
}

// evaluate is the pure decision step: no I/O, no clock.
func evaluate(decl *Declaration, membership *Membership) error {
	if len(decl.roles) > 0 {
		for _, role := range decl.roles {
			if membership.Role == role {
				return nil
			}
		}
		return &PermissionDeniedError{Role: membership.Role, WantRoles: decl.roles}
	}

	effective := membership.EffectivePermissions()
	held := make(map[Permission]bool, len(effective))
	for _, p := range effective {
		held[p] = true
	}

	if decl.matchAll {
		var missing []Permission
		for _, p := range decl.perms {
			if !held[p] {
				missing = append(missing, p)
			}
		}
		if len(missing) > 0 {
			return &PermissionDeniedError{Role: membership.Role, Missing: missing}
		}
		return nil
	}

	for _, p := range decl.perms {
		if held[p] {
			return nil
		}
	}
	return &PermissionDeniedError{Role: membership.Role, Missing: decl.perms}
}

// ResolveTenant extracts the business id from args using the
// declaration's tenant parameter. With ViaMembership the value is a
// membership id and the business id is taken from that membership.
func ResolveTenant(ctx context.Context, memberships MembershipFinder, decl *Declaration, args Args) (uint, error) {
	raw, ok := args[decl.tenantParam]
	if !ok {
		return 0, ErrParameterNotFound
	}
	if raw == "" {
		return 0, ErrMissingTenantID
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, ErrMissingTenantID
	}

	if !decl.viaMembership {
		return uint(id), nil
	}

	membership, err := memberships.FindMembershipByID(ctx, uint(id))
	if err != nil {
		return 0, err
	}
	if membership == nil {
		return 0, ErrReferenceNotFound
	}
	return membership.BusinessID, nil
}
