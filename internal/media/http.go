// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package media

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/middleware"
	requestutil "github.com/dovanminh/lumera/internal/platform/request"
	"github.com/dovanminh/lumera/internal/platform/respond"
	"github.com/dovanminh/lumera/pkg/pagination"
)

type Handler struct {
	service   *Service
	evaluator *authz.Evaluator
}

func NewHandler(service *Service, evaluator *authz.Evaluator) *Handler {
	return &Handler{service: service, evaluator: evaluator}
}

// Routes returns the media management surface. Uploads feed product
// imagery, so the whole router sits behind the product management
// permission.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequirePermission(handler.evaluator, authz.PermProductManagement))

	router.Post("/", handler.upload)
	router.Get("/", handler.list)
	router.Delete("/{id}", handler.remove)

	return router
}

/*
POST /api/v1/media.

Description: Accepts one multipart upload under the "file" field.

Response:
  - 201: Media: Stored metadata including the public URL
  - 422: Unsupported type or oversized file
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	request.Body = http.MaxBytesReader(writer, request.Body, MaxUploadBytes+4096)
	if err := request.ParseMultipartForm(MaxUploadBytes); err != nil {
		respond.Error(writer, request, err)
		return
	}

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	m, err := handler.service.Upload(request.Context(), userID,
		header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, m)
}

// GET /api/v1/media.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	paginationParams := pagination.FromRequest(request)

	items, total, err := handler.service.List(request.Context(),
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, items,
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// DELETE /api/v1/media/{id}.
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Delete(request.Context(), requestutil.ID(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
