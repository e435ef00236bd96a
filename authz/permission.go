package authz

// Permission is an atomic capability inside a single business.
type Permission string

const (
	PermViewSchedule    Permission = "view_schedule"
	PermEditBookings    Permission = "edit_bookings"
	PermManageEmployees Permission = "manage_employees"
	PermManageServices  Permission = "manage_services"
	PermManageBusiness  Permission = "manage_business"
)

// Role is a named category of staff inside a business.
type Role string

const (
	RoleOwner        Role = "owner"
	RoleStaff        Role = "staff"
	RoleReceptionist Role = "receptionist"
)

// catalog is the fixed role -> permission mapping. It is built once and
// never mutated after startup; per-member overrides live on the
// membership record, not here.
var catalog = map[Role][]Permission{
	RoleOwner: {
		PermViewSchedule,
		PermEditBookings,
		PermManageEmployees,
		PermManageServices,
		PermManageBusiness,
	},
	RoleStaff: {
		PermViewSchedule,
		PermEditBookings,
	},
	RoleReceptionist: {
		PermViewSchedule,
		PermEditBookings,
		PermManageServices,
	},
}

// PermissionsFor returns the catalog permission set for a role. Unknown
// roles get an empty set.
func PermissionsFor(role Role) []Permission {
	perms, ok := catalog[role]
	if !ok {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// KnownRole reports whether the role exists in the catalog.
func KnownRole(role Role) bool {
	_, ok := catalog[role]
	return ok
}
