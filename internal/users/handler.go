package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
	"github.com/ultra-bms/ultra-bms/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    authz.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermUserRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/properties", h.AssignedProperties)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermUserCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermUserUpdate))
		r.Put("/{id}", h.Update)
		r.Post("/{id}/activate", h.Activate)
		r.Post("/{id}/deactivate", h.Deactivate)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermSystemAdmin))
		r.Put("/{id}/role", h.ChangeRole)
		r.Put("/{id}/properties", h.AssignProperties)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "user not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) &&
		!errors.Is(err, httpx.ErrConflict) && !errors.Is(err, httpx.ErrDuplicate) {
		h.logger.Error("users request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListUsersRequest{
		Role:   authz.Role(q.Get("role")),
		Search: q.Get("search"),
	}
	if v := q.Get("is_active"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}
	req.Limit, _ = strconv.Atoi(q.Get("limit"))
	req.Offset, _ = strconv.Atoi(q.Get("offset"))

	list, total, err := h.service.List(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users":      list,
		"pagination": shared.NewPagination(req.Offset/max(req.Limit, 1)+1, req.Limit, total),
	})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	u, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	u, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	u, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	var req ChangeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	u, err := h.service.ChangeRole(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	u, err := h.service.SetActive(r.Context(), authz.PrincipalFromContext(r.Context()), id, active)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, u)
}

func (h *Handler) AssignedProperties(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	ids, err := h.service.AssignedProperties(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"property_ids": ids})
}

func (h *Handler) AssignProperties(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}
	var req AssignPropertiesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	ids, err := h.service.AssignProperties(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"property_ids": ids})
}
