package amenities

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

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

// MountRoutes registers amenity and booking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermAmenityBook, authz.PermAmenityManage))
		r.Get("/property/{propertyID}", h.ListByProperty)
		r.Get("/{id}/bookings", h.Bookings)
		r.Delete("/bookings/{bookingID}", h.CancelBooking)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermAmenityBook))
		r.Post("/{id}/bookings", h.Book)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermAmenityManage))
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "amenity not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
		h.logger.Error("amenities request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func (h *Handler) ListByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "propertyID"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	amenities, err := h.service.ListByProperty(r.Context(), propertyID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, amenities)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAmenityRequest
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
		httpx.Error(w, r, http.StatusBadRequest, "invalid amenity id")
		return
	}
	var req UpdateAmenityRequest
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

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid amenity id")
		return
	}
	var req BookAmenityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	b, err := h.service.Book(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, b)
}

func (h *Handler) Bookings(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid amenity id")
		return
	}
	q := r.URL.Query()
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		from = time.Now().UTC()
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		to = from.AddDate(0, 0, 7)
	}
	bookings, err := h.service.Bookings(r.Context(), id, from, to)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bookings)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "bookingID"), 10, 64)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid booking id")
		return
	}
	if err := h.service.CancelBooking(r.Context(), authz.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
