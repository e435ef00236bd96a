package authz

// DefaultTenantParam is the argument name a declaration looks up when
// no explicit TenantParam is configured.
const DefaultTenantParam = "business_id"

// Args holds the named argument values of a guarded call, as resolved
// by the transport adapter (route params, query values).
type Args map[string]string

// Declaration is the static requirement attached to a guarded
// operation at registration time. Build one with RequireRole or
// RequirePermission and chain the option methods; declarations are not
// mutated after startup.
type Declaration struct {
	roles         []Role
	perms         []Permission
	matchAll      bool
	tenantParam   string
	viaMembership bool
}

// RequireRole declares that the caller's membership role must be one
// of the given roles.
func RequireRole(roles ...Role) *Declaration {
	return &Declaration{roles: roles, tenantParam: DefaultTenantParam}
}

// RequirePermission declares that the caller's effective permission
// set must contain at least one of the given permissions (ANY
// semantics). Chain MatchAll for ALL semantics.
func RequirePermission(perms ...Permission) *Declaration {
	return &Declaration{perms: perms, tenantParam: DefaultTenantParam}
}

// MatchAll switches a permission requirement from ANY to ALL.
func (d *Declaration) MatchAll() *Declaration {
	d.matchAll = true
	return d
}

// TenantParam sets the argument name the tenant id is resolved from.
func (d *Declaration) TenantParam(name string) *Declaration {
	d.tenantParam = name
	return d
}

// ViaMembership marks the tenant parameter as an indirect reference: a
// membership id whose business the call is scoped to.
func (d *Declaration) ViaMembership() *Declaration {
	d.viaMembership = true
	return d
}
