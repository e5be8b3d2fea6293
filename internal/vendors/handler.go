package vendors

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    authz.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers vendor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermVendorRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermVendorCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermVendorUpdate))
		r.Put("/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermVendorDelete))
		r.Delete("/{id}", h.Delete)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermVendorPerformance))
		r.Get("/{id}/performance", h.Performance)
		r.Post("/{id}/ratings", h.Rate)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "vendor not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error("vendors request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	vendors, err := h.service.List(r.Context(), authz.PrincipalFromContext(r.Context()), activeOnly)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, vendors)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid vendor id")
		return
	}
	v, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	v, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid vendor id")
		return
	}
	var req UpdateVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	v, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid vendor id")
		return
	}
	if err := h.service.Delete(r.Context(), authz.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid vendor id")
		return
	}
	var req RateVendorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	perf, err := h.service.Rate(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, perf)
}

func (h *Handler) Performance(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid vendor id")
		return
	}
	perf, err := h.service.Performance(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, perf)
}
