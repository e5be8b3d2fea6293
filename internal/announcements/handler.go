package announcements

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

// MountRoutes registers announcement routes. Reading is open to any
// authenticated portal user; writing needs the manage grant.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermAmenityBook, authz.PermAmenityManage))
		r.Get("/property/{propertyID}", h.ListByProperty)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermAmenityManage))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Post("/{id}/publish", h.Publish)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "announcement not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
		h.logger.Error("announcements request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func (h *Handler) ListByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	list, err := h.service.ListByProperty(r.Context(), propertyID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid announcement id")
		return
	}
	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	a, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid announcement id")
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	a, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid announcement id")
		return
	}
	a, err := h.service.Publish(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}
