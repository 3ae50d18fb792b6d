// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/middleware"
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

// Routes returns the security-logs surface, visible only to principals
// holding the security logs permission.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequirePermission(handler.evaluator, authz.PermSecurityLogs))

	router.Get("/", handler.listEvents)

	return router
}

// GET /api/v1/security-logs.
//
// Request:
//   - actor: string (Filter by actor UUID)
//   - action: string (Filter by action key, e.g. auth.login)
//   - limit: int
//   - page: int
func (handler *Handler) listEvents(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()
	filter := Filter{
		ActorID: queryParams.Get("actor"),
		Action:  Action(queryParams.Get("action")),
	}

	paginationParams := pagination.FromRequest(request)
	events, total, err := handler.service.List(request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, events,
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}
