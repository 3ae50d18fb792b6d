// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

/*
Package authz implements role-based authorization for the Lumera platform.

It contains the two halves of every access decision:

  - Catalog: the static role → permission grant table.
  - Evaluator: the single place where allow/deny decisions are rendered.

All permission checks in the application flow through [Evaluator.Authorize];
handlers never test role or permission membership themselves. This keeps the
check ordering (revocation → account status → IP allow-list → permission)
enforced in exactly one place.
*/
package authz

// # Permissions

// Permission is an atomic capability tag. The set is flat: hierarchy exists
// only at the role level, never between permissions.
type Permission string

const (
	// PermUserManagement covers account provisioning, suspension, role
	// assignment, and session administration.
	PermUserManagement Permission = "user-management"

	// PermOrderManagement covers order status transitions and refund flows.
	PermOrderManagement Permission = "order-management"

	// PermProductManagement covers product, category, and media catalogue writes.
	PermProductManagement Permission = "product-management"

	// PermAnalyticsView covers read access to sales and traffic dashboards.
	PermAnalyticsView Permission = "analytics-view"

	// PermSystemSettings covers mutation of platform-wide configuration.
	PermSystemSettings Permission = "system-settings"

	// PermSecurityLogs covers read access to authentication and audit trails.
	PermSecurityLogs Permission = "security-logs"
)

// AllPermissions lists every known permission, for validation of
// per-account overrides.
func AllPermissions() []Permission {
	return []Permission{
		PermUserManagement,
		PermOrderManagement,
		PermProductManagement,
		PermAnalyticsView,
		PermSystemSettings,
		PermSecurityLogs,
	}
}

// IsValid reports whether the permission is one of the known tags.
func (p Permission) IsValid() bool {
	for _, known := range AllPermissions() {
		if p == known {
			return true
		}
	}
	return false
}

// # Roles

// Role represents the authorization level granted to an account.
type Role string

const (
	// RoleCustomer is the default role for registered shoppers.
	RoleCustomer Role = "customer"

	// RoleModerator can manage orders and view analytics.
	RoleModerator Role = "moderator"

	// RoleAdmin additionally manages users and the product catalogue.
	RoleAdmin Role = "admin"

	// RoleSuperAdmin holds every permission, including system settings
	// and security log access.
	RoleSuperAdmin Role = "super_admin"
)

// IsValid reports whether the role is one of the four known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleModerator, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// # Grant Table

// grants is the literal role → permission table.
//
// # Structural Invariant
//
// super_admin's set is a strict superset of admin's, which is a strict
// superset of moderator's. The invariant is enforced here at definition
// time (and pinned by tests against this literal table), never computed
// at runtime.
var grants = map[Role][]Permission{
	RoleCustomer: {},
	RoleModerator: {
		PermOrderManagement,
		PermAnalyticsView,
	},
	RoleAdmin: {
		PermOrderManagement,
		PermAnalyticsView,
		PermUserManagement,
		PermProductManagement,
	},
	RoleSuperAdmin: {
		PermOrderManagement,
		PermAnalyticsView,
		PermUserManagement,
		PermProductManagement,
		PermSystemSettings,
		PermSecurityLogs,
	},
}

// GrantsFor returns the permission set held by a role.
//
// # Fail-Closed Default
//
// Unrecognized roles receive the empty set rather than an error: an unknown
// role authenticates fine but can do nothing.
func GrantsFor(role Role) []Permission {
	set, ok := grants[role]
	if !ok {
		return []Permission{}
	}

	// Return a copy so callers can never mutate the catalog.
	out := make([]Permission, len(set))
	copy(out, set)
	return out
}

// Granted reports whether the role's grant set contains the permission.
func Granted(role Role, permission Permission) bool {
	for _, p := range grants[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// Strings converts a permission slice to plain strings for token embedding.
func Strings(permissions []Permission) []string {
	out := make([]string, len(permissions))
	for i, p := range permissions {
		out[i] = string(p)
	}
	return out
}
