// Copyright (c) 2026 Lumera. All rights reserved.
// Author: do.vanminh.dev@gmail.com

/*
Package admin provides the HTTP interface for user administration.

Every endpoint is guarded by the user management permission; the acting
administrator is always taken from the verified request claims, never
from the payload.
*/
package admin

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dovanminh/lumera/internal/auth"
	"github.com/dovanminh/lumera/internal/authz"
	"github.com/dovanminh/lumera/internal/platform/middleware"
	requestutil "github.com/dovanminh/lumera/internal/platform/request"
	"github.com/dovanminh/lumera/internal/platform/respond"
	"github.com/dovanminh/lumera/pkg/pagination"
	"github.com/dovanminh/lumera/pkg/slice"
)

// # Handler Implementation

// Handler implements the HTTP layer for user administration.
type Handler struct {
	service   *Service
	evaluator *authz.Evaluator
}

// NewHandler constructs a new admin [Handler].
func NewHandler(service *Service, evaluator *authz.Evaluator) *Handler {
	return &Handler{service: service, evaluator: evaluator}
}

// Routes returns a [chi.Router] with the user-administration endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequirePermission(handler.evaluator, authz.PermUserManagement))

	router.Get("/", handler.listUsers)
	router.Get("/{id}", handler.getUser)
	router.Put("/{id}/status", handler.setStatus)
	router.Put("/{id}/role", handler.setRole)
	router.Put("/{id}/permissions", handler.setPermissions)
	router.Put("/{id}/allowed-ips", handler.setAllowedIPs)
	router.Get("/{id}/sessions", handler.listUserSessions)
	router.Delete("/{id}/sessions", handler.revokeAllUserSessions)
	router.Delete("/{id}/sessions/{tokenID}", handler.revokeUserSession)

	return router
}

// userView is the management projection of an account. The password hash
// never crosses this boundary.
type userView struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	DisplayName         string    `json:"display_name"`
	Role                string    `json:"role"`
	Status              string    `json:"status"`
	AllowedIPs          []string  `json:"allowed_ips"`
	PermissionOverrides []string  `json:"permission_overrides"`
	EffectiveGrants     []string  `json:"effective_grants"`
	CreatedAt           time.Time `json:"created_at"`
}

func toUserView(user *auth.User) userView {
	effective := authz.GrantsFor(user.Role)
	if len(user.PermissionOverrides) > 0 {
		effective = user.PermissionOverrides
	}

	return userView{
		ID:                  user.ID,
		Email:               user.Email,
		DisplayName:         user.DisplayName,
		Role:                string(user.Role),
		Status:              string(user.Status),
		AllowedIPs:          user.AllowedIPs,
		PermissionOverrides: authz.Strings(user.PermissionOverrides),
		EffectiveGrants:     authz.Strings(effective),
		CreatedAt:           user.CreatedAt,
	}
}

// # User Endpoints

/*
GET /api/v1/admin/users.

Request:
  - q: string (Email or display-name search)
  - role: string (customer, moderator, admin, super_admin)
  - status: string (active, inactive, suspended)
  - limit: int
  - page: int
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	queryParams := request.URL.Query()
	filter := Filter{
		Query:  queryParams.Get("q"),
		Role:   authz.Role(queryParams.Get("role")),
		Status: authz.PrincipalStatus(queryParams.Get("status")),
	}

	paginationParams := pagination.FromRequest(request)
	users, total, err := handler.service.ListUsers(request.Context(), filter,
		paginationParams.Limit, paginationParams.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	views := slice.Map(users, toUserView)
	respond.Paginated(writer, views,
		pagination.NewMeta(paginationParams.Page, paginationParams.Limit, total))
}

// GET /api/v1/admin/users/{id}.
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.service.GetUser(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, toUserView(user))
}

// PUT /api/v1/admin/users/{id}/status.
func (handler *Handler) setStatus(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.SetStatus(request.Context(), actorID,
		requestutil.ID(request, "id"), authz.PrincipalStatus(payload.Status))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// PUT /api/v1/admin/users/{id}/role.
func (handler *Handler) setRole(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload struct {
		Role string `json:"role"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.SetRole(request.Context(), actorID,
		requestutil.ID(request, "id"), authz.Role(payload.Role))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// PUT /api/v1/admin/users/{id}/permissions.
func (handler *Handler) setPermissions(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload struct {
		Permissions []string `json:"permissions"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	permissions := slice.Map(payload.Permissions, func(s string) authz.Permission {
		return authz.Permission(s)
	})

	err = handler.service.SetPermissionOverrides(request.Context(), actorID,
		requestutil.ID(request, "id"), permissions)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// PUT /api/v1/admin/users/{id}/allowed-ips.
func (handler *Handler) setAllowedIPs(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var payload struct {
		AllowedIPs []string `json:"allowed_ips"`
	}
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.SetAllowedIPs(request.Context(), actorID,
		requestutil.ID(request, "id"), payload.AllowedIPs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Session Endpoints

// GET /api/v1/admin/users/{id}/sessions.
func (handler *Handler) listUserSessions(writer http.ResponseWriter, request *http.Request) {
	records, err := handler.service.ListUserSessions(request.Context(), requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, records)
}

// DELETE /api/v1/admin/users/{id}/sessions/{tokenID}.
func (handler *Handler) revokeUserSession(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.RevokeUserSession(request.Context(), actorID,
		requestutil.ID(request, "id"), requestutil.Param(request, "tokenID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// DELETE /api/v1/admin/users/{id}/sessions.
func (handler *Handler) revokeAllUserSessions(writer http.ResponseWriter, request *http.Request) {
	actorID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.RevokeAllUserSessions(request.Context(), actorID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
