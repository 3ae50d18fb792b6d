// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package audit

import (
	"context"
	"log/slog"
)

// Service is the [Recorder] implementation plus the read side for the
// security logs endpoint.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Record appends one event to the trail. Insert failures are logged and
// swallowed so audit outages never block logins or admin actions.
func (service *Service) Record(ctx context.Context, event Event) {
	if err := service.repo.Insert(ctx, &event); err != nil {
		service.logger.Error("audit_record_failed",
			slog.String("action", string(event.Action)),
			slog.String("error", err.Error()),
		)
	}
}

// List returns trail entries, newest first.
func (service *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Event, int, error) {
	return service.repo.List(ctx, f, limit, offset)
}

var _ Recorder = (*Service)(nil)
