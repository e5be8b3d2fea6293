package documents

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/httpx"
)

// Uploads larger than this are rejected before touching storage.
const maxUploadBytes = 20 << 20

type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    authz.Middleware
}

func NewHandler(logger *slog.Logger, service *Service, rbac authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermTenantRead))
		r.Get("/{id}", h.Get)
		r.Get("/{id}/download", h.Download)
		r.Get("/tenant/{tenantID}", h.ListByTenant)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermPropertyRead))
		r.Get("/property/{propertyID}", h.ListByProperty)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(authz.PermTenantUpdate))
		r.Post("/", h.Upload)
	})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Error(w, r, http.StatusNotFound, "document not found")
		return
	}
	if !errors.Is(err, httpx.ErrForbidden) && !errors.Is(err, httpx.ErrValidation) {
		h.logger.Error("documents request failed", slog.Any("error", err))
	}
	httpx.RespondError(w, r, err)
}

func urlID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// Upload accepts multipart form data: a "file" part plus optional
// category, property_id, tenant_id fields.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "malformed multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "unreadable file part")
		return
	}

	req := UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        body,
		Category:    CategoryOther,
	}
	if c := r.FormValue("category"); c != "" {
		req.Category = Category(c)
	}
	if v := r.FormValue("property_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
			return
		}
		req.PropertyID = &id
	}
	if v := r.FormValue("tenant_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Error(w, r, http.StatusBadRequest, "invalid tenant id")
			return
		}
		req.TenantID = &id
	}

	doc, err := h.service.Upload(r.Context(), authz.PrincipalFromContext(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.service.Get(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid document id")
		return
	}
	url, err := h.service.DownloadURL(r.Context(), authz.PrincipalFromContext(r.Context()), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) ListByTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, err := urlID(r, "tenantID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid tenant id")
		return
	}
	docs, err := h.service.ListByTenant(r.Context(), authz.PrincipalFromContext(r.Context()), tenantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}

func (h *Handler) ListByProperty(w http.ResponseWriter, r *http.Request) {
	propertyID, err := urlID(r, "propertyID")
	if err != nil {
		httpx.Error(w, r, http.StatusBadRequest, "invalid property id")
		return
	}
	docs, err := h.service.ListByProperty(r.Context(), authz.PrincipalFromContext(r.Context()), propertyID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, docs)
}
