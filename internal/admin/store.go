// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package admin

import (
	"context"

	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
)

// Filter narrows the user listing.
type Filter struct {
	Query  string
	Role   authz.Role
	Status authz.PrincipalStatus
}

// Repository defines the data access contract for user administration.
//
// It deliberately reuses [auth.User] as its entity: admin is a management
// view over the same account rows, not a separate aggregate.
type Repository interface {
	// List returns a filtered, paginated slice of accounts and the total
	// count, newest first.
	List(ctx context.Context, f Filter, limit, offset int) ([]*auth.User, int, error)

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*auth.User, error)

	// SetStatus updates only the account's lifecycle status.
	SetStatus(ctx context.Context, id string, status authz.PrincipalStatus) error

	// SetRole updates only the account's role.
	SetRole(ctx context.Context, id string, role authz.Role) error

	// SetPermissionOverrides replaces the account's explicit permission
	// set. An empty slice clears overrides, restoring role-derived grants.
	SetPermissionOverrides(ctx context.Context, id string, permissions []authz.Permission) error

	// SetAllowedIPs replaces the account's IP allow-list. An empty slice
	// clears the restriction.
	SetAllowedIPs(ctx context.Context, id string, ips []string) error
}
