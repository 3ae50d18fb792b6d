// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package admin_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dovanminh/lumera/internal/admin"
	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
)

// # Test Doubles

type memoryAdminRepo struct {
	users map[string]*auth.User
}

func newMemoryAdminRepo(users ...*auth.User) *memoryAdminRepo {
	repo := &memoryAdminRepo{users: map[string]*auth.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (r *memoryAdminRepo) List(_ context.Context, _ admin.Filter, _, _ int) ([]*auth.User, int, error) {
	out := make([]*auth.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, len(out), nil
}

func (r *memoryAdminRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := r.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *memoryAdminRepo) SetStatus(_ context.Context, id string, status authz.PrincipalStatus) error {
	user, ok := r.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Status = status
	return nil
}

func (r *memoryAdminRepo) SetRole(_ context.Context, id string, role authz.Role) error {
	user, ok := r.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.Role = role
	return nil
}

func (r *memoryAdminRepo) SetPermissionOverrides(_ context.Context, id string, permissions []authz.Permission) error {
	user, ok := r.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.PermissionOverrides = permissions
	return nil
}

func (r *memoryAdminRepo) SetAllowedIPs(_ context.Context, id string, ips []string) error {
	user, ok := r.users[id]
	if !ok {
		return apperr.NotFound("User")
	}
	user.AllowedIPs = ips
	return nil
}

type recordingAudit struct {
	events []audit.Event
}

func (r *recordingAudit) Record(_ context.Context, event audit.Event) {
	r.events = append(r.events, event)
}

// # Fixture

const (
	actorID  = "0198ff3a-0000-7000-8000-00000000a001"
	targetID = "0198ff3a-0000-7000-8000-00000000b001"
)

type fixture struct {
	service  *admin.Service
	repo     *memoryAdminRepo
	registry *auth.RedisSessionRegistry
	recorder *recordingAudit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := newMemoryAdminRepo(
		&auth.User{ID: actorID, Email: "root@lumera.shop", Role: authz.RoleSuperAdmin, Status: authz.StatusActive},
		&auth.User{ID: targetID, Email: "moderator@lumera.shop", Role: authz.RoleModerator, Status: authz.StatusActive},
	)
	registry := auth.NewSessionRegistry(client)
	recorder := &recordingAudit{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		service:  admin.NewService(repo, registry, recorder, logger),
		repo:     repo,
		registry: registry,
		recorder: recorder,
	}
}

func (f *fixture) recordSession(t *testing.T, tokenID string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, f.registry.Record(context.Background(), &auth.SessionRecord{
		TokenID:     tokenID,
		PrincipalID: targetID,
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}))
}

// # Tests

/*
TestSetStatus_SuspensionRevokesSessions verifies the immediate-lockout
side effect: suspending an account kills all of its live sessions.
*/
func TestSetStatus_SuspensionRevokesSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.recordSession(t, "token-1")
	f.recordSession(t, "token-2")

	require.NoError(t, f.service.SetStatus(ctx, actorID, targetID, authz.StatusSuspended))

	assert.Equal(t, authz.StatusSuspended, f.repo.users[targetID].Status)
	for _, tokenID := range []string{"token-1", "token-2"} {
		revoked, err := f.registry.IsRevoked(ctx, tokenID)
		require.NoError(t, err)
		assert.True(t, revoked, tokenID)
	}

	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, audit.ActionUserStatusSet, f.recorder.events[0].Action)
	assert.Equal(t, actorID, f.recorder.events[0].ActorID)
}

func TestSetStatus_ReactivationKeepsSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.repo.users[targetID].Status = authz.StatusSuspended
	f.recordSession(t, "token-1")

	require.NoError(t, f.service.SetStatus(ctx, actorID, targetID, authz.StatusActive))

	revoked, err := f.registry.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestSetStatus_SelfChangeRejected(t *testing.T) {
	f := newFixture(t)

	err := f.service.SetStatus(context.Background(), actorID, actorID, authz.StatusSuspended)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "UNPROCESSABLE", appErr.Code)
	assert.Equal(t, authz.StatusActive, f.repo.users[actorID].Status)
}

func TestSetStatus_UnknownStatusRejected(t *testing.T) {
	f := newFixture(t)

	err := f.service.SetStatus(context.Background(), actorID, targetID, "banished")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestSetRole(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.SetRole(context.Background(), actorID, targetID, authz.RoleAdmin))

	assert.Equal(t, authz.RoleAdmin, f.repo.users[targetID].Role)
	require.Len(t, f.recorder.events, 1)
	assert.Equal(t, audit.ActionUserRoleSet, f.recorder.events[0].Action)
}

func TestSetRole_SelfChangeRejected(t *testing.T) {
	f := newFixture(t)

	err := f.service.SetRole(context.Background(), actorID, actorID, authz.RoleCustomer)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "UNPROCESSABLE", appErr.Code)
	assert.Equal(t, authz.RoleSuperAdmin, f.repo.users[actorID].Role)
}

func TestSetRole_UnknownRoleRejected(t *testing.T) {
	f := newFixture(t)

	err := f.service.SetRole(context.Background(), actorID, targetID, "warlord")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestSetPermissionOverrides(t *testing.T) {
	f := newFixture(t)

	overrides := []authz.Permission{authz.PermAnalyticsView, authz.PermOrderManagement}
	require.NoError(t, f.service.SetPermissionOverrides(context.Background(), actorID, targetID, overrides))
	assert.Equal(t, overrides, f.repo.users[targetID].PermissionOverrides)

	// Clearing restores role-derived grants.
	require.NoError(t, f.service.SetPermissionOverrides(context.Background(), actorID, targetID, []authz.Permission{}))
	assert.Empty(t, f.repo.users[targetID].PermissionOverrides)
}

func TestSetPermissionOverrides_UnknownPermission(t *testing.T) {
	f := newFixture(t)

	err := f.service.SetPermissionOverrides(context.Background(), actorID, targetID,
		[]authz.Permission{"time-travel"})

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Empty(t, f.repo.users[targetID].PermissionOverrides)
}

func TestSetAllowedIPs(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.service.SetAllowedIPs(context.Background(), actorID, targetID,
		[]string{"10.0.0.1", "10.0.0.2"}))
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, f.repo.users[targetID].AllowedIPs)

	err := f.service.SetAllowedIPs(context.Background(), actorID, targetID, []string{"10.0.0.1", "  "})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestRevokeUserSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.recordSession(t, "token-1")
	f.recordSession(t, "token-2")

	require.NoError(t, f.service.RevokeUserSession(ctx, actorID, targetID, "token-1"))

	revoked, err := f.registry.IsRevoked(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	survivor, err := f.registry.IsRevoked(ctx, "token-2")
	require.NoError(t, err)
	assert.False(t, survivor)
}

func TestRevokeUserSession_UnknownToken(t *testing.T) {
	f := newFixture(t)

	err := f.service.RevokeUserSession(context.Background(), actorID, targetID, "no-such-token")

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestRevokeAllUserSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.recordSession(t, "token-1")
	f.recordSession(t, "token-2")

	require.NoError(t, f.service.RevokeAllUserSessions(ctx, actorID, targetID))

	sessions, err := f.registry.ListActiveSessions(ctx, targetID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
