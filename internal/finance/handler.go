package finance

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

// MountRoutes registers invoice, payment, cheque and report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermFinancialRead))
		r.Get("/invoices", h.ListInvoices)
		r.Get("/invoices/{id}", h.ShowInvoice)
		r.Get("/invoices/{id}/pdf", h.InvoicePDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermFinancialCreate))
		r.Post("/invoices", h.CreateInvoice)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermFinancialUpdate))
		r.Put("/invoices/{id}", h.UpdateInvoice)
		r.Put("/cheques/{id}/status", h.SetChequeStatus)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermFinancialReport))
		r.Get("/reports/monthly", h.MonthlyReport)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPaymentMake))
		r.Post("/payments", h.MakePayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPaymentProcess))
		r.Post("/payments/{id}/process", h.ProcessPayment)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPaymentRefund))
		r.Post("/payments/{id}/refund", h.RefundPayment)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "record not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) && !errors.Is(err, httpx.ErrConflict) {
		h.logger.Error("finance request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{}
	q := r.URL.Query()
	if v := q.Get("property_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.PropertyID = &id
		}
	}
	if v := q.Get("tenant_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.TenantID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		s := InvoiceStatus(v)
		req.Status = &s
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		req.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		req.Offset = v
	}

	invoices, total, err := h.service.ListInvoices(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ListInvoicesResponse{Invoices: invoices, Total: total})
}

func (h *Handler) ShowInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid invoice id")
		return
	}
	inv, err := h.service.GetInvoice(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid invoice id")
		return
	}
	pdf, err := h.service.InvoicePDF(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice.pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	inv, err := h.service.CreateInvoice(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *Handler) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid invoice id")
		return
	}
	var req UpdateInvoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	inv, err := h.service.UpdateInvoice(r.Context(), authz.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *Handler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req MakePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	pay, err := h.service.MakePayment(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, pay)
}

func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid payment id")
		return
	}
	pay, err := h.service.ProcessPayment(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pay)
}

func (h *Handler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid payment id")
		return
	}
	pay, err := h.service.RefundPayment(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pay)
}

func (h *Handler) SetChequeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid cheque id")
		return
	}
	var req struct {
		Status ChequeStatus `json:"status"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	c, err := h.service.SetChequeStatus(r.Context(), authz.PrincipalFromContext(r.Context()), id, req.Status)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	year, _ := strconv.Atoi(q.Get("year"))
	month, _ := strconv.Atoi(q.Get("month"))
	report, err := h.service.MonthlyReport(r.Context(), authz.PrincipalFromContext(r.Context()), ReportRequest{Year: year, Month: month})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}
