package tenants

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

// MountRoutes registers tenant, lead and lease routes.
func (h *Handler) MountRoutes(r chi.Router) {
	// The tenant portal endpoint is admitted by the scoped variant.
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermTenantRead))
		r.Get("/me", h.Me)
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/leases", h.ListLeases)
		r.Get("/leads", h.ListLeads)
		r.Get("/leases/{leaseID}", h.ShowLease)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermTenantCreate))
		r.Post("/", h.Create)
		r.Post("/leads", h.CreateLead)
		r.Post("/leads/{leadID}/convert", h.ConvertLead)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermTenantUpdate))
		r.Put("/{id}", h.Update)
		r.Put("/leads/{leadID}", h.UpdateLead)
		r.Post("/leases", h.CreateLease)
		r.Post("/leases/{leaseID}/renew", h.RenewLease)
		r.Post("/leases/{leaseID}/terminate", h.TerminateLease)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "record not found")
		return
	}
	if errors.Is(err, ErrDuplicate) {
		httpx.Error(w, r, http.StatusConflict, "record already exists")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
		h.logger.Error("tenants request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Me(r.Context(), authz.PrincipalFromContext(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListTenantsRequest{}
	q := r.URL.Query()
	if v := q.Get("property_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.PropertyID = &id
		}
	}
	if v := q.Get("is_active"); v != "" {
		b := v == "true"
		req.IsActive = &b
	}
	if v := q.Get("search"); v != "" {
		req.Search = &v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		req.Offset = v
	}

	tenants, total, err := h.service.List(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListTenantsResponse{Tenants: tenants, Total: total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	t, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	t, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, t)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	var req UpdateTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	t, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	var status *LeadStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := LeadStatus(v)
		status = &s
	}
	leads, err := h.service.ListLeads(r.Context(), authz.PrincipalFromContext(r.Context()), status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leads)
}

func (h *Handler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req CreateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	lead, err := h.service.CreateLead(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "leadID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid lead id")
		return
	}
	var req UpdateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	lead, err := h.service.UpdateLead(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

func (h *Handler) ConvertLead(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "leadID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid lead id")
		return
	}
	var req ConvertLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	resp, err := h.service.ConvertLead(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) ShowLease(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "leaseID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid lease id")
		return
	}
	lease, err := h.service.GetLease(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lease)
}

func (h *Handler) ListLeases(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	leases, err := h.service.ListLeases(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leases)
}

func (h *Handler) CreateLease(w http.ResponseWriter, r *http.Request) {
	var req CreateLeaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	lease, err := h.service.CreateLease(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lease)
}

func (h *Handler) RenewLease(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "leaseID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid lease id")
		return
	}
	var req RenewLeaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	lease, err := h.service.RenewLease(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lease)
}

func (h *Handler) TerminateLease(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "leaseID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid lease id")
		return
	}
	lease, err := h.service.TerminateLease(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lease)
}
