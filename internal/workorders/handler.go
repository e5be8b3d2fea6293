package workorders

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

// MountRoutes registers work order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderRead))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderCreate))
		r.Post("/", h.Create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderUpdate))
		r.Put("/{id}", h.Update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderAssign))
		r.Post("/{id}/assign", h.Assign)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderApprove))
		r.Post("/{id}/approve", h.Approve)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermWorkOrderDelete))
		r.Delete("/{id}", h.Delete)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "work order not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
		h.logger.Error("workorders request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListWorkOrdersRequest{}
	q := r.URL.Query()
	if v := q.Get("property_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.PropertyID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := Status(v)
		req.Status = &s
	}
	if v := q.Get("priority"); v != "" {
		p := Priority(v)
		req.Priority = &p
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		req.Offset = v
	}

	orders, total, err := h.service.List(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListWorkOrdersResponse{WorkOrders: orders, Total: total})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid work order id")
		return
	}
	wo, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	wo, err := h.service.Create(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, wo)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid work order id")
		return
	}
	var req UpdateWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	wo, err := h.service.Update(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid work order id")
		return
	}
	var req AssignWorkOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	wo, err := h.service.Assign(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid work order id")
		return
	}
	wo, err := h.service.Approve(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, wo)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid work order id")
		return
	}
	if err := h.service.Delete(r.Context(), authz.PrincipalFromContext(r.Context()), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
