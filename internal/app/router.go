package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ultra-bms/ultra-bms/internal/amenities"
	"github.com/ultra-bms/ultra-bms/internal/announcements"
	"github.com/ultra-bms/ultra-bms/internal/auth"
	"github.com/ultra-bms/ultra-bms/internal/dashboard"
	"github.com/ultra-bms/ultra-bms/internal/documents"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/observability"
	"github.com/ultra-bms/ultra-bms/internal/properties"
	"github.com/ultra-bms/ultra-bms/internal/shared"
	"github.com/ultra-bms/ultra-bms/internal/tenants"
	"github.com/ultra-bms/ultra-bms/internal/users"
	"github.com/ultra-bms/ultra-bms/internal/vendors"
	"github.com/ultra-bms/ultra-bms/internal/workorders"
	"github.com/ultra-bms/ultra-bms/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthService *auth.Service

	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	PropertiesHandler    *properties.Handler
	TenantsHandler       *tenants.Handler
	WorkOrdersHandler    *workorders.Handler
	FinanceHandler       *finance.Handler
	VendorsHandler       *vendors.Handler
	AmenitiesHandler     *amenities.Handler
	AnnouncementsHandler *announcements.Handler
	DocumentsHandler     *documents.Handler
	DashboardHandler     *dashboard.Handler
	JobHandler           *jobs.Handler
}

// NewRouter constructs the chi.Router for the API server.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(auth.PrincipalMiddleware(params.AuthService, params.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/properties", params.PropertiesHandler.MountRoutes)
		r.Route("/tenants", params.TenantsHandler.MountRoutes)
		r.Route("/workorders", params.WorkOrdersHandler.MountRoutes)
		r.Route("/finance", params.FinanceHandler.MountRoutes)
		r.Route("/vendors", params.VendorsHandler.MountRoutes)
		r.Route("/amenities", params.AmenitiesHandler.MountRoutes)
		r.Route("/announcements", params.AnnouncementsHandler.MountRoutes)
		r.Route("/documents", params.DocumentsHandler.MountRoutes)
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
