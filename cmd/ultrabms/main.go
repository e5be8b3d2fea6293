package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ultra-bms/ultra-bms/internal/amenities"
	"github.com/ultra-bms/ultra-bms/internal/announcements"
	"github.com/ultra-bms/ultra-bms/internal/app"
	"github.com/ultra-bms/ultra-bms/internal/auth"
	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/dashboard"
	"github.com/ultra-bms/ultra-bms/internal/documents"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/observability"
	"github.com/ultra-bms/ultra-bms/internal/platform/db"
	"github.com/ultra-bms/ultra-bms/internal/properties"
	"github.com/ultra-bms/ultra-bms/internal/shared"
	"github.com/ultra-bms/ultra-bms/internal/tenants"
	"github.com/ultra-bms/ultra-bms/internal/users"
	"github.com/ultra-bms/ultra-bms/internal/vendors"
	"github.com/ultra-bms/ultra-bms/internal/workorders"
	"github.com/ultra-bms/ultra-bms/jobs"
	"github.com/ultra-bms/ultra-bms/report"
)

const dashboardCacheTTL = 5 * time.Minute

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "ultrabms_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	gate := authz.NewGate(authz.NewMatrix(), logger)
	rbac := authz.Middleware{Gate: gate}
	audit := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	invoiceRenderer := report.NewRenderer(report.NewClient(cfg.GotenbergURL))

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersService := users.NewService(logger, users.NewRepository(dbpool), gate, audit)
	usersHandler := users.NewHandler(logger, usersService, rbac)

	propertiesService := properties.NewService(properties.NewRepository(dbpool), gate, audit)
	propertiesHandler := properties.NewHandler(logger, propertiesService, rbac)

	tenantsService := tenants.NewService(tenants.NewRepository(dbpool), gate, audit)
	tenantsHandler := tenants.NewHandler(logger, tenantsService, rbac)

	vendorsService := vendors.NewService(vendors.NewRepository(dbpool), gate, audit)
	vendorsHandler := vendors.NewHandler(logger, vendorsService, rbac)

	workOrdersService := workorders.NewService(workorders.NewRepository(dbpool), gate, audit, jobClient, vendorsService)
	workOrdersHandler := workorders.NewHandler(logger, workOrdersService, rbac)

	financeService := finance.NewService(finance.NewRepository(dbpool), gate, audit, invoiceRenderer)
	financeHandler := finance.NewHandler(logger, financeService, rbac)

	amenitiesService := amenities.NewService(amenities.NewRepository(dbpool), gate)
	amenitiesHandler := amenities.NewHandler(logger, amenitiesService, rbac)

	announcementsService := announcements.NewService(announcements.NewRepository(dbpool), gate, jobClient, logger)
	announcementsHandler := announcements.NewHandler(logger, announcementsService, rbac)

	objectStore, err := documents.NewS3Store(ctx, documents.S3Config{
		Region:    cfg.AWSRegion,
		Bucket:    cfg.DocumentBucket,
		AccessKey: cfg.AWSAccessKeyID,
		SecretKey: cfg.AWSSecretAccessKey,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		logger.Error("document store", slog.Any("error", err))
		os.Exit(1)
	}
	extractor, err := documents.NewTextractExtractor(ctx, cfg.AWSRegion, cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey)
	if err != nil {
		logger.Error("textract client", slog.Any("error", err))
		os.Exit(1)
	}
	documentsService := documents.NewService(logger, documents.NewRepository(dbpool), objectStore, extractor, jobClient, financeService, gate)
	documentsHandler := documents.NewHandler(logger, documentsService, rbac)

	dashboardCache := dashboard.NewCache(redisClient, dashboardCacheTTL)
	if err := dashboardCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("dashboard invalidation listener", slog.Any("error", err))
	}
	dashboardService := dashboard.NewService(logger, dashboard.NewRepository(dbpool), dashboardCache, workOrdersService, financeService, gate)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, rbac)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Metrics:              metrics,
		AuthService:          authService,
		AuthHandler:          authHandler,
		UsersHandler:         usersHandler,
		PropertiesHandler:    propertiesHandler,
		TenantsHandler:       tenantsHandler,
		WorkOrdersHandler:    workOrdersHandler,
		FinanceHandler:       financeHandler,
		VendorsHandler:       vendorsHandler,
		AmenitiesHandler:     amenitiesHandler,
		AnnouncementsHandler: announcementsHandler,
		DocumentsHandler:     documentsHandler,
		DashboardHandler:     dashboardHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
