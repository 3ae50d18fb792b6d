// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package authz_test

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/sec"
)

// # Test Doubles

type fakeRegistry struct {
	revoked map[string]bool
	err     error
}

func (f *fakeRegistry) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[tokenID], nil
}

type fakeDirectory struct {
	states map[string]*authz.PrincipalState
	err    error
}

func (f *fakeDirectory) LookupPrincipal(_ context.Context, principalID string) (*authz.PrincipalState, error) {
	if f.err != nil {
		return nil, f.err
	}
	if state, ok := f.states[principalID]; ok {
		return state, nil
	}
	return &authz.PrincipalState{Status: authz.StatusInactive}, nil
}

func claimsFor(userID, tokenID string) *sec.AuthClaims {
	return &sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{ID: tokenID, Subject: userID},
		UserID:           userID,
		Kind:             sec.KindAccess,
	}
}

func activeModerator() *authz.PrincipalState {
	return &authz.PrincipalState{
		Status: authz.StatusActive,
		Role:   authz.RoleModerator,
	}
}

// # Tests

/*
TestAuthorize_HappyPath checks the single allow outcome: live token,
active account, no IP restriction, permission granted by role.
*/
func TestAuthorize_HappyPath(t *testing.T) {
	registry := &fakeRegistry{revoked: map[string]bool{}}
	directory := &fakeDirectory{states: map[string]*authz.PrincipalState{
		"user-1": activeModerator(),
	}}
	evaluator := authz.NewEvaluator(registry, directory)

	decision := evaluator.Authorize(context.Background(),
		claimsFor("user-1", "token-1"), authz.PermOrderManagement, authz.RequestContext{IP: "10.0.0.1"})

	assert.True(t, decision.Allowed)
	assert.Equal(t, authz.ReasonAuthorized, decision.Reason)
}

/*
TestAuthorize_CheckOrder verifies that the checks short-circuit in their
fixed order: a request failing several checks at once reports the
earliest one.
*/
func TestAuthorize_CheckOrder(t *testing.T) {
	tests := []struct {
		name      string
		registry  *fakeRegistry
		directory *fakeDirectory
		ip        string
		required  authz.Permission
		want      authz.Reason
	}{
		{
			name:     "revoked_wins_over_everything",
			registry: &fakeRegistry{revoked: map[string]bool{"token-1": true}},
			directory: &fakeDirectory{states: map[string]*authz.PrincipalState{
				"user-1": {Status: authz.StatusSuspended, Role: authz.RoleCustomer, AllowedIPs: []string{"1.1.1.1"}},
			}},
			ip:       "9.9.9.9",
			required: authz.PermSystemSettings,
			want:     authz.ReasonRevoked,
		},
		{
			name:     "status_wins_over_ip_and_permission",
			registry: &fakeRegistry{},
			directory: &fakeDirectory{states: map[string]*authz.PrincipalState{
				"user-1": {Status: authz.StatusSuspended, Role: authz.RoleCustomer, AllowedIPs: []string{"1.1.1.1"}},
			}},
			ip:       "9.9.9.9",
			required: authz.PermSystemSettings,
			want:     authz.ReasonInactiveAccount,
		},
		{
			name:     "ip_wins_over_permission",
			registry: &fakeRegistry{},
			directory: &fakeDirectory{states: map[string]*authz.PrincipalState{
				"user-1": {Status: authz.StatusActive, Role: authz.RoleCustomer, AllowedIPs: []string{"1.1.1.1"}},
			}},
			ip:       "9.9.9.9",
			required: authz.PermSystemSettings,
			want:     authz.ReasonIPNotAllowed,
		},
		{
			name:     "permission_is_the_last_gate",
			registry: &fakeRegistry{},
			directory: &fakeDirectory{states: map[string]*authz.PrincipalState{
				"user-1": activeModerator(),
			}},
			ip:       "9.9.9.9",
			required: authz.PermSystemSettings,
			want:     authz.ReasonInsufficientPermissions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := authz.NewEvaluator(tt.registry, tt.directory)
			decision := evaluator.Authorize(context.Background(),
				claimsFor("user-1", "token-1"), tt.required, authz.RequestContext{IP: tt.ip})

			assert.False(t, decision.Allowed)
			assert.Equal(t, tt.want, decision.Reason)
		})
	}
}

/*
TestAuthorizeSession covers the permission-less gate: revocation, fresh
account status, and the IP allow-list all still apply, but no permission
is required, so an active customer with an empty grant set is admitted.
*/
func TestAuthorizeSession(t *testing.T) {
	activeCustomer := func() *authz.PrincipalState {
		return &authz.PrincipalState{Status: authz.StatusActive, Role: authz.RoleCustomer}
	}

	t.Run("active_customer_admitted", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{},
			&fakeDirectory{states: map[string]*authz.PrincipalState{"user-1": activeCustomer()}},
		)

		decision := evaluator.AuthorizeSession(context.Background(),
			claimsFor("user-1", "token-1"), authz.RequestContext{IP: "10.0.0.1"})

		assert.True(t, decision.Allowed)
		assert.Equal(t, authz.ReasonAuthorized, decision.Reason)
	})

	t.Run("revoked_token_denied", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{revoked: map[string]bool{"token-1": true}},
			&fakeDirectory{states: map[string]*authz.PrincipalState{"user-1": activeCustomer()}},
		)

		decision := evaluator.AuthorizeSession(context.Background(),
			claimsFor("user-1", "token-1"), authz.RequestContext{})

		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonRevoked, decision.Reason)
	})

	t.Run("suspended_account_denied", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{},
			&fakeDirectory{states: map[string]*authz.PrincipalState{
				"user-1": {Status: authz.StatusSuspended, Role: authz.RoleCustomer},
			}},
		)

		decision := evaluator.AuthorizeSession(context.Background(),
			claimsFor("user-1", "token-1"), authz.RequestContext{})

		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonInactiveAccount, decision.Reason)
	})

	t.Run("unlisted_ip_denied", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{},
			&fakeDirectory{states: map[string]*authz.PrincipalState{
				"user-1": {Status: authz.StatusActive, Role: authz.RoleCustomer, AllowedIPs: []string{"10.0.0.1"}},
			}},
		)

		decision := evaluator.AuthorizeSession(context.Background(),
			claimsFor("user-1", "token-1"), authz.RequestContext{IP: "203.0.113.7"})

		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonIPNotAllowed, decision.Reason)
	})

	t.Run("registry_outage_fails_closed", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{err: authz.ErrRegistryUnavailable},
			&fakeDirectory{states: map[string]*authz.PrincipalState{"user-1": activeCustomer()}},
		)

		decision := evaluator.AuthorizeSession(context.Background(),
			claimsFor("user-1", "token-1"), authz.RequestContext{})

		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonRegistryUnavailable, decision.Reason)
	})
}

/*
TestAuthorize_FailClosed verifies that infrastructure failures deny with
the registry-unavailable reason rather than erroring or allowing.
*/
func TestAuthorize_FailClosed(t *testing.T) {
	t.Run("registry_outage", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{err: authz.ErrRegistryUnavailable},
			&fakeDirectory{states: map[string]*authz.PrincipalState{"user-1": activeModerator()}},
		)

		decision := evaluator.Authorize(context.Background(),
			claimsFor("user-1", "token-1"), authz.PermOrderManagement, authz.RequestContext{})

		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonRegistryUnavailable, decision.Reason)
	})

	t.Run("directory_outage", func(t *testing.T) {
		evaluator := authz.NewEvaluator(
			&fakeRegistry{},
			&fakeDirectory{err: authz.ErrRegistryUnavailable},
		)

		decision := evaluator.Authorize(context.Background(),
			claimsFor("user-1", "token-1"), authz.PermOrderManagement, authz.RequestContext{})

		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonRegistryUnavailable, decision.Reason)
	})
}

/*
TestAuthorize_Deterministic runs the same authorization twice against
unchanged state and expects byte-identical decisions.
*/
func TestAuthorize_Deterministic(t *testing.T) {
	evaluator := authz.NewEvaluator(
		&fakeRegistry{},
		&fakeDirectory{states: map[string]*authz.PrincipalState{"user-1": activeModerator()}},
	)
	claims := claimsFor("user-1", "token-1")

	first := evaluator.Authorize(context.Background(), claims, authz.PermOrderManagement, authz.RequestContext{IP: "10.0.0.1"})
	second := evaluator.Authorize(context.Background(), claims, authz.PermOrderManagement, authz.RequestContext{IP: "10.0.0.1"})

	assert.Equal(t, first, second)
}

/*
TestAuthorize_CurrentRoleNotTokenSnapshot verifies that a role change
takes effect immediately: the token's embedded snapshot is ignored in
favor of the directory's current role.
*/
func TestAuthorize_CurrentRoleNotTokenSnapshot(t *testing.T) {
	directory := &fakeDirectory{states: map[string]*authz.PrincipalState{
		"user-1": {Status: authz.StatusActive, Role: authz.RoleCustomer},
	}}
	evaluator := authz.NewEvaluator(&fakeRegistry{}, directory)

	// Token still claims super_admin from before the downgrade.
	claims := claimsFor("user-1", "token-1")
	claims.Role = string(authz.RoleSuperAdmin)
	claims.Permissions = []string{string(authz.PermSystemSettings)}

	decision := evaluator.Authorize(context.Background(), claims, authz.PermSystemSettings, authz.RequestContext{})

	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonInsufficientPermissions, decision.Reason)
}

/*
TestAuthorize_PermissionOverrides verifies that a non-empty override set
replaces the role grants entirely, in both directions.
*/
func TestAuthorize_PermissionOverrides(t *testing.T) {
	t.Run("override_grants_beyond_role", func(t *testing.T) {
		directory := &fakeDirectory{states: map[string]*authz.PrincipalState{
			"user-1": {
				Status:              authz.StatusActive,
				Role:                authz.RoleCustomer,
				PermissionOverrides: []authz.Permission{authz.PermAnalyticsView},
			},
		}}
		evaluator := authz.NewEvaluator(&fakeRegistry{}, directory)

		decision := evaluator.Authorize(context.Background(),
			claimsFor("user-1", "token-1"), authz.PermAnalyticsView, authz.RequestContext{})
		assert.True(t, decision.Allowed)
	})

	t.Run("override_removes_role_grant", func(t *testing.T) {
		directory := &fakeDirectory{states: map[string]*authz.PrincipalState{
			"user-1": {
				Status:              authz.StatusActive,
				Role:                authz.RoleAdmin,
				PermissionOverrides: []authz.Permission{authz.PermAnalyticsView},
			},
		}}
		evaluator := authz.NewEvaluator(&fakeRegistry{}, directory)

		decision := evaluator.Authorize(context.Background(),
			claimsFor("user-1", "token-1"), authz.PermUserManagement, authz.RequestContext{})
		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonInsufficientPermissions, decision.Reason)
	})
}

/*
TestAuthorize_RevocationIsFinal verifies revocation monotonicity at the
evaluator level: once the registry reports a token revoked, every
subsequent decision for it denies.
*/
func TestAuthorize_RevocationIsFinal(t *testing.T) {
	registry := &fakeRegistry{revoked: map[string]bool{}}
	directory := &fakeDirectory{states: map[string]*authz.PrincipalState{"user-1": activeModerator()}}
	evaluator := authz.NewEvaluator(registry, directory)
	claims := claimsFor("user-1", "token-1")

	before := evaluator.Authorize(context.Background(), claims, authz.PermOrderManagement, authz.RequestContext{})
	require.True(t, before.Allowed)

	registry.revoked["token-1"] = true

	for i := 0; i < 3; i++ {
		after := evaluator.Authorize(context.Background(), claims, authz.PermOrderManagement, authz.RequestContext{})
		assert.False(t, after.Allowed)
		assert.Equal(t, authz.ReasonRevoked, after.Reason)
	}
}

/*
TestAuthorize_IPAllowList covers the allow-list gate: empty list means
unrestricted, a populated list is exact-match membership.
*/
func TestAuthorize_IPAllowList(t *testing.T) {
	directory := &fakeDirectory{states: map[string]*authz.PrincipalState{
		"open":   {Status: authz.StatusActive, Role: authz.RoleModerator},
		"locked": {Status: authz.StatusActive, Role: authz.RoleModerator, AllowedIPs: []string{"10.0.0.1", "10.0.0.2"}},
	}}
	evaluator := authz.NewEvaluator(&fakeRegistry{}, directory)

	t.Run("no_list_admits_any_ip", func(t *testing.T) {
		decision := evaluator.Authorize(context.Background(),
			claimsFor("open", "t1"), authz.PermOrderManagement, authz.RequestContext{IP: "203.0.113.7"})
		assert.True(t, decision.Allowed)
	})

	t.Run("listed_ip_admitted", func(t *testing.T) {
		decision := evaluator.Authorize(context.Background(),
			claimsFor("locked", "t2"), authz.PermOrderManagement, authz.RequestContext{IP: "10.0.0.2"})
		assert.True(t, decision.Allowed)
	})

	t.Run("unlisted_ip_denied", func(t *testing.T) {
		decision := evaluator.Authorize(context.Background(),
			claimsFor("locked", "t3"), authz.PermOrderManagement, authz.RequestContext{IP: "10.0.0.3"})
		assert.False(t, decision.Allowed)
		assert.Equal(t, authz.ReasonIPNotAllowed, decision.Reason)
	})
}

/*
TestAuthorize_MissingPrincipal verifies that a token whose subject no
longer exists is treated as an inactive account.
*/
func TestAuthorize_MissingPrincipal(t *testing.T) {
	evaluator := authz.NewEvaluator(&fakeRegistry{}, &fakeDirectory{states: map[string]*authz.PrincipalState{}})

	decision := evaluator.Authorize(context.Background(),
		claimsFor("ghost", "token-1"), authz.PermOrderManagement, authz.RequestContext{})

	assert.False(t, decision.Allowed)
	assert.Equal(t, authz.ReasonInactiveAccount, decision.Reason)
}
