package properties

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

// MountRoutes registers property routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPropertyRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/units", h.ListUnits)
		r.Get("/{id}/parking", h.ListParkingSpots)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPropertyCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPropertyUpdate))
		r.Put("/{id}", h.Update)
		r.Post("/{id}/units", h.CreateUnit)
		r.Put("/{id}/units/{unitID}", h.UpdateUnit)
		r.Post("/{id}/parking", h.CreateParkingSpot)
		r.Put("/{id}/parking/{spotID}/assign", h.AssignParkingSpot)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPropertyDelete))
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "property not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error("properties request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListPropertiesRequest{}
	if v := r.URL.Query().Get("is_active"); v != "" {
		b := v == "true"
		req.IsActive = &b
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			req.Limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			req.Offset = parsed
		}
	}

	props, total, err := h.service.List(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListPropertiesResponse{Properties: props, Total: total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	prop, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prop)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	prop, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, prop)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	var req UpdatePropertyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	prop, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, prop)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	if err := h.service.Delete(r.Context(), authz.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	units, err := h.service.ListUnits(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, units)
}

func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	var req CreateUnitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	unit, err := h.service.CreateUnit(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, unit)
}

func (h *Handler) UpdateUnit(w http.ResponseWriter, r *http.Request) {
	unitID, err := urlID(r, "unitID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid unit id")
		return
	}
	var req UpdateUnitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	unit, err := h.service.UpdateUnit(r.Context(), authz.PrincipalFromContext(r.Context()), unitID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func (h *Handler) ListParkingSpots(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	spots, err := h.service.ListParkingSpots(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, spots)
}

func (h *Handler) CreateParkingSpot(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	var req CreateParkingSpotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	spot, err := h.service.CreateParkingSpot(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, spot)
}

func (h *Handler) AssignParkingSpot(w http.ResponseWriter, r *http.Request) {
	spotID, err := urlID(r, "spotID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid spot id")
		return
	}
	var req AssignParkingSpotRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	spot, err := h.service.AssignParkingSpot(r.Context(), authz.PrincipalFromContext(r.Context()), spotID, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, spot)
}
