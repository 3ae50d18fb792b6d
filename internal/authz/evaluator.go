// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package authz

import (
	"context"
	"errors"

	"github.com/dovanminh/lumera/internal/platform/sec"
)

// # Decisions

// Reason is the machine-readable explanation attached to every decision.
type Reason string

const (
	// ReasonAuthorized is the single allow reason.
	ReasonAuthorized Reason = "authorized"

	// ReasonRevoked means the token identifier was explicitly revoked.
	ReasonRevoked Reason = "revoked"

	// ReasonInactiveAccount means the principal's current status is not active.
	ReasonInactiveAccount Reason = "inactive_account"

	// ReasonIPNotAllowed means the request IP is outside the principal's allow-list.
	ReasonIPNotAllowed Reason = "ip_not_allowed"

	// ReasonInsufficientPermissions means the required permission is not in the
	// principal's current effective set.
	ReasonInsufficientPermissions Reason = "insufficient_permissions"

	// ReasonRegistryUnavailable means a backing store could not be consulted.
	// Uncertainty is never resolved in the caller's favor.
	ReasonRegistryUnavailable Reason = "registry_unavailable"
)

// Decision is the outcome of an authorization check.
//
// Denial is an expected business outcome, NOT an error: [Evaluator.Authorize]
// always returns a Decision, reserving panics and error values for nothing.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
}

var (
	allow = Decision{Allowed: true, Reason: ReasonAuthorized}
)

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// # Collaborator Contracts

// ErrRegistryUnavailable is returned by [SessionRegistry] and
// [PrincipalDirectory] implementations when their backing store cannot be
// reached. The evaluator converts it into a fail-closed deny; the transport
// layer should treat the resulting 503 as retryable.
var ErrRegistryUnavailable = errors.New("authz: registry unavailable")

// SessionRegistry is the evaluator's view of issued-token bookkeeping.
//
// Unknown token identifiers are reported as not revoked — the token codec's
// expiry check is the backstop for tokens never recorded (e.g. across a
// registry restart without persistence).
type SessionRegistry interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// PrincipalStatus is the lifecycle state of an account. Accounts are never
// physically deleted, only deactivated.
type PrincipalStatus string

const (
	StatusActive    PrincipalStatus = "active"
	StatusInactive  PrincipalStatus = "inactive"
	StatusSuspended PrincipalStatus = "suspended"
)

// PrincipalState is the freshly looked-up slice of an account that decisions
// depend on. Nothing here is trusted from the token.
type PrincipalState struct {
	Status PrincipalStatus

	// Role is the CURRENT role, which may differ from the role snapshot
	// embedded in a still-valid token.
	Role Role

	// AllowedIPs, when non-empty, restricts the principal to these source
	// addresses.
	AllowedIPs []string

	// PermissionOverrides, when non-empty, REPLACES the role's grant set for
	// this principal.
	PermissionOverrides []Permission
}

// EffectivePermissions returns the principal's current permission set:
// the override set when present, otherwise the catalog grant for the role.
func (s PrincipalState) EffectivePermissions() []Permission {
	if len(s.PermissionOverrides) > 0 {
		return s.PermissionOverrides
	}
	return GrantsFor(s.Role)
}

// PrincipalDirectory resolves a principal's current state by id.
type PrincipalDirectory interface {
	LookupPrincipal(ctx context.Context, principalID string) (*PrincipalState, error)
}

// RequestContext carries the per-request facts the evaluator needs beyond
// the claims themselves.
type RequestContext struct {
	// IP is the client address as resolved by the transport layer.
	IP string
}

// # Evaluator

// Evaluator renders allow/deny decisions for authenticated principals.
//
// # Determinism
//
// For fixed inputs and fixed registry/directory state, Authorize is pure:
// identical calls in immediate succession return identical decisions.
type Evaluator struct {
	registry  SessionRegistry
	directory PrincipalDirectory
}

// NewEvaluator constructs an Evaluator with its collaborators.
func NewEvaluator(registry SessionRegistry, directory PrincipalDirectory) *Evaluator {
	return &Evaluator{registry: registry, directory: directory}
}

// Authorize decides whether the caller may perform an operation requiring
// the given permission.
//
// # Check Order
//
// The checks run in a fixed order and short-circuit on the first failure:
//
//  1. Token revocation (session registry).
//  2. Account status, freshly looked up — never trusted from the token.
//  3. IP allow-list membership, when the principal has one.
//  4. Permission membership, re-derived from the CURRENT role via the
//     catalog. Re-deriving (rather than trusting the token's embedded
//     snapshot) makes a role downgrade effective before the old token's
//     natural expiry, even though its signature is still valid.
//
// Infrastructure failures in steps 1–2 produce a fail-closed deny with
// [ReasonRegistryUnavailable].
func (e *Evaluator) Authorize(ctx context.Context, claims *sec.AuthClaims, required Permission, reqCtx RequestContext) Decision {
	state, decision := e.sessionState(ctx, claims, reqCtx)
	if !decision.Allowed {
		return decision
	}

	// ── 4. Permission Membership ──────────────────────────────────────────
	if !hasPermission(state.EffectivePermissions(), required) {
		return deny(ReasonInsufficientPermissions)
	}

	return allow
}

// AuthorizeSession decides whether the caller's session is still usable,
// independent of any permission. It is the gate for authenticated endpoints
// with no permission requirement — a customer acting on their own resources
// must still lose access the moment their token is revoked or their account
// leaves the active status, not at the token's natural expiry.
func (e *Evaluator) AuthorizeSession(ctx context.Context, claims *sec.AuthClaims, reqCtx RequestContext) Decision {
	_, decision := e.sessionState(ctx, claims, reqCtx)
	return decision
}

// sessionState runs checks 1–3 (revocation, fresh account status, IP
// allow-list) and, on allow, hands the looked-up state to the caller so the
// permission gate never needs a second directory round-trip.
func (e *Evaluator) sessionState(ctx context.Context, claims *sec.AuthClaims, reqCtx RequestContext) (*PrincipalState, Decision) {

	// ── 1. Revocation ─────────────────────────────────────────────────────
	revoked, err := e.registry.IsRevoked(ctx, claims.TokenID())
	if err != nil {
		return nil, deny(ReasonRegistryUnavailable)
	}
	if revoked {
		return nil, deny(ReasonRevoked)
	}

	// ── 2. Account Status ─────────────────────────────────────────────────
	state, err := e.directory.LookupPrincipal(ctx, claims.UserID)
	if err != nil {
		return nil, deny(ReasonRegistryUnavailable)
	}
	if state.Status != StatusActive {
		return nil, deny(ReasonInactiveAccount)
	}

	// ── 3. IP Allow-List ──────────────────────────────────────────────────
	if len(state.AllowedIPs) > 0 && !contains(state.AllowedIPs, reqCtx.IP) {
		return nil, deny(ReasonIPNotAllowed)
	}

	return state, allow
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func hasPermission(set []Permission, required Permission) bool {
	for _, p := range set {
		if p == required {
			return true
		}
	}
	return false
}
