package authz

import "testing"

func TestPermissionsFor(t *testing.T) {
	tests := []struct {
		name string
		role Role
		want []Permission
	}{
		{
			name: "owner holds every permission",
			role: RoleOwner,
			want: []Permission{
				PermViewSchedule,
				PermEditBookings,
				PermManageEmployees,
				PermManageServices,
				PermManageBusiness,
			},
		},
		{
			name: "staff holds schedule and bookings",
			role: RoleStaff,
			want: []Permission{PermViewSchedule, PermEditBookings},
		},
		{
			name: "receptionist holds services on top of staff set",
			role: RoleReceptionist,
			want: []Permission{PermViewSchedule, PermEditBookings, PermManageServices},
		},
		{
			name: "unknown role holds nothing",
			role: Role("janitor"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PermissionsFor(tt.role)
			if len(got) != len(tt.want) {
				t.Fatalf("PermissionsFor(%q) = %v, want %v", tt.role, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("PermissionsFor(%q)[%d] = %q, want %q", tt.role, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPermissionsForReturnsACopy(t *testing.T) {
	perms := PermissionsFor(RoleStaff)
	perms[0] = Permission("tampered")

	again := PermissionsFor(RoleStaff)
	if again[0] != PermViewSchedule {
		t.Errorf("catalog was mutated through the returned slice: %v", again)
	}
}

func TestKnownRole(t *testing.T) {
	if !KnownRole(RoleOwner) {
		t.Error("KnownRole(owner) = false, want true")
	}
	if KnownRole(Role("janitor")) {
		t.Error("KnownRole(janitor) = true, want false")
	}
}
