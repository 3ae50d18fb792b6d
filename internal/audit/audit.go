// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

// Package audit records security-relevant events into an append-only trail.
//
// Writes are best-effort: a failed audit insert is logged but never fails
// the action that produced it.
package audit

import (
	"context"
	"time"
)

// Action identifies what happened. Kept coarse on purpose; the Detail
// field carries the specifics.
type Action string

const (
	ActionLogin           Action = "auth.login"
	ActionLoginFailed     Action = "auth.login_failed"
	ActionLogout          Action = "auth.logout"
	ActionTokenRefresh    Action = "auth.token_refresh"
	ActionPasswordChange  Action = "auth.password_change"
	ActionSessionRevoked  Action = "auth.session_revoked"
	ActionUserStatusSet   Action = "admin.user_status_set"
	ActionUserRoleSet     Action = "admin.user_role_set"
	ActionUserPermsSet    Action = "admin.user_permissions_set"
	ActionUserIPAllowSet  Action = "admin.user_ip_allowlist_set"
	ActionOrderTransition Action = "order.status_changed"
)

// Event is one recorded entry in the audit trail.
type Event struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     Action    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	IPAddress  string    `json:"ip_address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder is the write side of the trail, consumed by the auth and
// admin services.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Filter narrows trail listings.
type Filter struct {
	ActorID string
	Action  Action
}

// Repository defines the data access contract for the trail.
type Repository interface {
	Insert(ctx context.Context, event *Event) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Event, int, error)
}
