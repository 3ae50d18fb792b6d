// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package admin

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dovanminh/lumera/internal/audit"
	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/internal/platform/validate"
)

// # Service Layer

// Service implements the user-administration use cases.
//
// Every mutation is attributed to the acting administrator and lands in
// the audit trail; suspension additionally kills the target's live
// sessions so the lockout takes effect on the very next request.
type Service struct {
	repo     Repository
	sessions auth.SessionRegistry
	recorder audit.Recorder
	logger   *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repo Repository, sessions auth.SessionRegistry, recorder audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		sessions: sessions,
		recorder: recorder,
		logger:   logger,
	}
}

// # Queries

// ListUsers returns accounts for the management console.
func (service *Service) ListUsers(ctx context.Context, f Filter, limit, offset int) ([]*auth.User, int, error) {
	return service.repo.List(ctx, f, limit, offset)
}

// GetUser returns one account with its authorization attributes.
func (service *Service) GetUser(ctx context.Context, id string) (*auth.User, error) {
	return service.repo.FindByID(ctx, id)
}

// ListUserSessions returns the target account's live sessions.
func (service *Service) ListUserSessions(ctx context.Context, userID string) ([]*auth.SessionRecord, error) {
	if _, err := service.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	records, err := service.sessions.ListActiveSessions(ctx, userID)
	if err != nil {
		return nil, service.registryFailure(err)
	}
	return records, nil
}

// # Mutations

// SetStatus changes an account's lifecycle status.
//
// Suspending or deactivating revokes every live session for the target.
// Administrators cannot change their own status; locking yourself out
// is always a mistake.
func (service *Service) SetStatus(ctx context.Context, actorID, userID string, status authz.PrincipalStatus) error {
	if actorID == userID {
		return apperr.Unprocessable("You cannot change your own account status")
	}

	validator := &validate.Validator{}
	validator.OneOf("status", string(status),
		string(authz.StatusActive),
		string(authz.StatusInactive),
		string(authz.StatusSuspended),
	)
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repo.SetStatus(ctx, userID, status); err != nil {
		return err
	}

	if status != authz.StatusActive {
		if err := service.sessions.RevokeAllForPrincipal(ctx, userID); err != nil {
			return service.registryFailure(err)
		}
	}

	service.record(ctx, actorID, audit.ActionUserStatusSet, userID, string(status))
	service.logger.Info("user_status_set",
		slog.String("actor_id", actorID),
		slog.String("user_id", userID),
		slog.String("status", string(status)),
	)
	return nil
}

// SetRole changes an account's role. Self-demotion is rejected for the
// same lockout reason as [SetStatus].
func (service *Service) SetRole(ctx context.Context, actorID, userID string, role authz.Role) error {
	if actorID == userID {
		return apperr.Unprocessable("You cannot change your own role")
	}
	if !role.IsValid() {
		return validate.RequiredError("role", "Unknown role")
	}

	if err := service.repo.SetRole(ctx, userID, role); err != nil {
		return err
	}

	service.record(ctx, actorID, audit.ActionUserRoleSet, userID, string(role))
	service.logger.Info("user_role_set",
		slog.String("actor_id", actorID),
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

// SetPermissionOverrides replaces an account's explicit permission set.
//
// When overrides are present they replace the role-derived grants
// entirely; an empty list clears them and the role table applies again.
func (service *Service) SetPermissionOverrides(ctx context.Context, actorID, userID string, permissions []authz.Permission) error {
	for _, p := range permissions {
		if !p.IsValid() {
			return validate.RequiredError("permissions", "Unknown permission: "+string(p))
		}
	}

	if err := service.repo.SetPermissionOverrides(ctx, userID, permissions); err != nil {
		return err
	}

	service.record(ctx, actorID, audit.ActionUserPermsSet, userID, strings.Join(authz.Strings(permissions), ","))
	return nil
}

// SetAllowedIPs replaces an account's IP allow-list. An empty list lifts
// the restriction.
func (service *Service) SetAllowedIPs(ctx context.Context, actorID, userID string, ips []string) error {
	validator := &validate.Validator{}
	for _, ip := range ips {
		validator.IPAddress("allowed_ips", ip)
	}
	if err := validator.Err(); err != nil {
		return err
	}

	if err := service.repo.SetAllowedIPs(ctx, userID, ips); err != nil {
		return err
	}

	service.record(ctx, actorID, audit.ActionUserIPAllowSet, userID, strings.Join(ips, ","))
	return nil
}

// RevokeUserSession revokes a single session belonging to the target.
func (service *Service) RevokeUserSession(ctx context.Context, actorID, userID, tokenID string) error {
	records, err := service.ListUserSessions(ctx, userID)
	if err != nil {
		return err
	}

	for _, record := range records {
		if record.TokenID == tokenID {
			if err := service.sessions.Revoke(ctx, tokenID); err != nil {
				return service.registryFailure(err)
			}
			service.record(ctx, actorID, audit.ActionSessionRevoked, userID, tokenID)
			return nil
		}
	}
	return apperr.NotFound("Session")
}

// RevokeAllUserSessions force-logs-out the target everywhere.
func (service *Service) RevokeAllUserSessions(ctx context.Context, actorID, userID string) error {
	if _, err := service.repo.FindByID(ctx, userID); err != nil {
		return err
	}

	if err := service.sessions.RevokeAllForPrincipal(ctx, userID); err != nil {
		return service.registryFailure(err)
	}

	service.record(ctx, actorID, audit.ActionSessionRevoked, userID, "all")
	return nil
}

// # Internal Helpers

func (service *Service) record(ctx context.Context, actorID string, action audit.Action, userID, detail string) {
	service.recorder.Record(ctx, audit.Event{
		ActorID:    actorID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		Detail:     detail,
	})
}

func (service *Service) registryFailure(err error) error {
	if errors.Is(err, authz.ErrRegistryUnavailable) {
		return apperr.ServiceUnavailable("Session storage is temporarily unavailable")
	}
	return apperr.Internal(err)
}
