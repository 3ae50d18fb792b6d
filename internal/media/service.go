// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

// Package media handles catalogue image uploads.
//
// Bytes go to a [Storage] (disk by default); metadata goes to Postgres.
// The public URL of an upload is the configured base path plus the
// generated file name.
package media

import (
	"context"
	"io"
	"log/slog"
	"path"

	"github.com/dovanminh/lumera/internal/platform/apperr"
	"github.com/dovanminh/lumera/pkg/uuid"
)

// # Service Layer

// Service orchestrates upload validation, blob persistence, and metadata
// bookkeeping.
type Service struct {
	repo    Repository
	storage Storage
	baseURL string
	logger  *slog.Logger
}

// NewService constructs a new [Service]. baseURL is the public path
// prefix uploads are served from, e.g. "/media".
func NewService(repo Repository, storage Storage, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		storage: storage,
		baseURL: baseURL,
		logger:  logger,
	}
}

/*
Upload validates and stores one file.

Description: The declared content type must be on the image allow-list
and the stream must not exceed [MaxUploadBytes]. The stored file name is
a fresh UUID v7 plus the canonical extension, so uploads never collide
and client-supplied names never reach the filesystem.

Parameters:
  - ctx: context.Context
  - ownerID: string (The uploading account)
  - contentType: string (Declared MIME type)
  - size: int64 (Declared size in bytes)
  - reader: io.Reader (The file stream)

Returns:
  - *Media: Stored metadata including the public URL
  - error: Validation, storage, or persistence errors
*/
func (service *Service) Upload(ctx context.Context, ownerID, contentType string, size int64, reader io.Reader) (*Media, error) {
	extension, ok := ExtensionFor(contentType)
	if !ok {
		return nil, apperr.Unprocessable("Unsupported file type: " + contentType)
	}
	if size > MaxUploadBytes {
		return nil, apperr.Unprocessable("File exceeds the upload size limit")
	}

	id := uuid.New()
	fileName := id + extension

	// Belt and braces on top of the declared size: never write more than
	// the limit even if the client lied.
	written, err := service.storage.Save(fileName, io.LimitReader(reader, MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if written > MaxUploadBytes {
		_ = service.storage.Remove(fileName)
		return nil, apperr.Unprocessable("File exceeds the upload size limit")
	}

	m := &Media{
		ID:          id,
		OwnerID:     ownerID,
		FileName:    fileName,
		ContentType: contentType,
		SizeBytes:   written,
		URL:         path.Join(service.baseURL, fileName),
	}

	if err := service.repo.Insert(ctx, m); err != nil {
		// Keep disk and metadata consistent on the failure path.
		_ = service.storage.Remove(fileName)
		return nil, err
	}

	service.logger.Info("media_uploaded",
		slog.String("media_id", m.ID),
		slog.String("owner_id", ownerID),
		slog.Int64("size_bytes", written),
	)

	return m, nil
}

// List returns upload metadata, newest first.
func (service *Service) List(ctx context.Context, limit, offset int) ([]*Media, int, error) {
	return service.repo.List(ctx, limit, offset)
}

// Delete removes an upload's metadata and its bytes.
func (service *Service) Delete(ctx context.Context, id string) error {
	m, err := service.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := service.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := service.storage.Remove(m.FileName); err != nil {
		// The row is gone; an orphaned file is only a cleanup concern.
		service.logger.Warn("media_blob_remove_failed",
			slog.String("media_id", id),
			slog.String("error", err.Error()),
		)
	}

	service.logger.Info("media_deleted", slog.String("media_id", id))
	return nil
}
