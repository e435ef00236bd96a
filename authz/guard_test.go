package authz

import (
	"context"
	"errors"
	"testing"
)

type pair struct {
	userID     uint
	businessID uint
}

// fakeFinder serves memberships from maps, standing in for the
// database during guard tests.
type fakeFinder struct {
	byPair map[pair]*Membership
	byID   map[uint]*Membership
}

func (f *fakeFinder) FindMembership(ctx context.Context, userID, businessID uint) (*Membership, error) {
	return f.byPair[pair{userID, businessID}], nil
}

func (f *fakeFinder) FindMembershipByID(ctx context.Context, membershipID uint) (*Membership, error) {
	return f.byID[membershipID], nil
}

func TestGuardCheck_NotAMember(t *testing.T) {
	guard := NewGuard(&fakeFinder{})

	declarations := []*Declaration{
		RequireRole(RoleOwner),
		RequirePermission(PermViewSchedule),
		RequirePermission(PermViewSchedule, PermEditBookings).MatchAll(),
	}

	for _, decl := range declarations {
		err := guard.Check(context.Background(), 7, decl, Args{"business_id": "3"})
		if !errors.Is(err, ErrNotAMember) {
			t.Errorf("Check without membership = %v, want ErrNotAMember", err)
		}
	}
}

func TestGuardCheck_RoleRequirement(t *testing.T) {
	finder := &fakeFinder{byPair: map[pair]*Membership{
		{7, 3}: {ID: 1, UserID: 7, BusinessID: 3, Role: RoleReceptionist},
	}}
	guard := NewGuard(finder)

	tests := []struct {
		name      string
		decl      *Declaration
		wantAllow bool
	}{
		{"exact role allowed", RequireRole(RoleReceptionist), true},
		{"role in set allowed", RequireRole(RoleOwner, RoleReceptionist), true},
		{"other role denied", RequireRole(RoleOwner), false},
		{"empty role never matches", RequireRole(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.Check(context.Background(), 7, tt.decl, Args{"business_id": "3"})
			assertDecision(t, err, tt.wantAllow)
		})
	}
}

func TestGuardCheck_PermissionMatching(t *testing.T) {
	// Effective permissions come from the override set when present,
	// which lets each case pin the caller's exact permission set.
	withPerms := func(perms ...Permission) *fakeFinder {
		return &fakeFinder{byPair: map[pair]*Membership{
			{7, 3}: {ID: 1, UserID: 7, BusinessID: 3, Role: RoleStaff, Overrides: perms},
		}}
	}

	tests := []struct {
		name      string
		held      []Permission
		decl      *Declaration
		wantAllow bool
	}{
		{
			name:      "any with one overlap",
			held:      []Permission{PermViewSchedule, PermEditBookings},
			decl:      RequirePermission(PermEditBookings, PermManageBusiness),
			wantAllow: true,
		},
		{
			name:      "any with no overlap",
			held:      []Permission{PermViewSchedule},
			decl:      RequirePermission(PermManageEmployees, PermManageBusiness),
			wantAllow: false,
		},
		{
			name:      "all with full subset",
			held:      []Permission{PermViewSchedule, PermEditBookings, PermManageServices},
			decl:      RequirePermission(PermViewSchedule, PermManageServices).MatchAll(),
			wantAllow: true,
		},
		{
			name:      "all with one missing",
			held:      []Permission{PermViewSchedule, PermEditBookings},
			decl:      RequirePermission(PermViewSchedule, PermManageBusiness).MatchAll(),
			wantAllow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := NewGuard(withPerms(tt.held...))
			err := guard.Check(context.Background(), 7, tt.decl, Args{"business_id": "3"})
			assertDecision(t, err, tt.wantAllow)
		})
	}
}

func TestGuardCheck_OwnerScenario(t *testing.T) {
	// Owner's catalog set contains edit_bookings, so requiring it with
	// ANY semantics allows; requiring a permission outside the set
	// denies with the missing permission recorded.
	finder := &fakeFinder{byPair: map[pair]*Membership{
		{7, 3}: {ID: 1, UserID: 7, BusinessID: 3, Role: RoleOwner},
	}}
	guard := NewGuard(finder)

	if err := guard.Check(context.Background(), 7, RequirePermission(PermEditBookings), Args{"business_id": "3"}); err != nil {
		t.Fatalf("owner requiring edit_bookings = %v, want allow", err)
	}

	err := guard.Check(context.Background(), 7, RequirePermission(Permission("export_ledger")), Args{"business_id": "3"})
	var pd *PermissionDeniedError
	if !errors.As(err, &pd) {
		t.Fatalf("owner requiring unknown permission = %v, want PermissionDeniedError", err)
	}
	if len(pd.Missing) != 1 || pd.Missing[0] != Permission("export_ledger") {
		t.Errorf("denied error carries %v, want the missing permission", pd.Missing)
	}
	if pd.Role != RoleOwner {
		t.Errorf("denied error role = %q, want owner", pd.Role)
	}
}

func TestGuardCheck_OverridesReplaceCatalog(t *testing.T) {
	// An override set narrows an owner down to exactly those
	// permissions; the catalog set no longer applies.
	finder := &fakeFinder{byPair: map[pair]*Membership{
		{7, 3}: {ID: 1, UserID: 7, BusinessID: 3, Role: RoleOwner, Overrides: []Permission{PermViewSchedule}},
	}}
	guard := NewGuard(finder)

	if err := guard.Check(context.Background(), 7, RequirePermission(PermViewSchedule), Args{"business_id": "3"}); err != nil {
		t.Errorf("override-held permission = %v, want allow", err)
	}

	err := guard.Check(context.Background(), 7, RequirePermission(PermManageBusiness), Args{"business_id": "3"})
	var pd *PermissionDeniedError
	if !errors.As(err, &pd) {
		t.Errorf("catalog permission outside overrides = %v, want PermissionDeniedError", err)
	}
}

func TestGuardCheck_Deterministic(t *testing.T) {
	finder := &fakeFinder{byPair: map[pair]*Membership{
		{7, 3}: {ID: 1, UserID: 7, BusinessID: 3, Role: RoleStaff},
	}}
	guard := NewGuard(finder)
	decl := RequirePermission(PermManageBusiness)

	first := guard.Check(context.Background(), 7, decl, Args{"business_id": "3"})
	for i := 0; i < 10; i++ {
		again := guard.Check(context.Background(), 7, decl, Args{"business_id": "3"})
		if (first == nil) != (again == nil) {
			t.Fatalf("decision flipped between identical checks: %v vs %v", first, again)
		}
	}
}

func assertDecision(t *testing.T, err error, wantAllow bool) {
	t.Helper()
	if wantAllow && err != nil {
		t.Errorf("Check = %v, want allow", err)
	}
	if !wantAllow {
		var pd *PermissionDeniedError
		if !errors.As(err, &pd) {
			t.Errorf("Check = %v, want PermissionDeniedError", err)
		}
	}
}
