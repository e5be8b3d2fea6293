package dashboard

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

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPropertyRead))
		r.Get("/overview", h.Overview)
		r.Get("/occupancy", h.Occupancy)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderRead))
		r.Get("/maintenance", h.Maintenance)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermFinancialReport))
		r.Get("/finance", h.Finance)
		r.Get("/depreciation", h.Depreciation)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermSystemAdmin))
		r.Post("/refresh", h.Refresh)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error("dashboard request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

// reportPeriod reads year/month query params, defaulting to the
// current month.
func reportPeriod(r *http.Request) (int, int) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && v > 0 {
		year = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && v >= 1 && v <= 12 {
		month = v
	}
	return year, month
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	year, month := reportPeriod(r)
	overview, err := h.service.Overview(r.Context(), authz.PrincipalFromContext(r.Context()), year, month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) Occupancy(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Occupancy(r.Context(), authz.PrincipalFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Maintenance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Maintenance(r.Context(), authz.PrincipalFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Finance(w http.ResponseWriter, r *http.Request) {
	year, month := reportPeriod(r)
	report, err := h.service.Finance(r.Context(), authz.PrincipalFromContext(r.Context()), year, month)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) Depreciation(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now().UTC()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "invalid as_of date")
			return
		}
		asOf = parsed
	}
	summary, err := h.service.Depreciation(r.Context(), authz.PrincipalFromContext(r.Context()), asOf)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Invalidate(r.Context()); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
