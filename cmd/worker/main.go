package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ultra-bms/ultra-bms/internal/app"
	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/dashboard"
	"github.com/ultra-bms/ultra-bms/internal/documents"
	"github.com/ultra-bms/ultra-bms/internal/finance"
	"github.com/ultra-bms/ultra-bms/internal/observability"
	"github.com/ultra-bms/ultra-bms/internal/platform/db"
	"github.com/ultra-bms/ultra-bms/internal/shared"
	"github.com/ultra-bms/ultra-bms/internal/tenants"
	"github.com/ultra-bms/ultra-bms/internal/vendors"
	"github.com/ultra-bms/ultra-bms/internal/workorders"
	"github.com/ultra-bms/ultra-bms/jobs"
	"github.com/ultra-bms/ultra-bms/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	gate := authz.NewGate(authz.NewMatrix(), logger)
	audit := shared.NewAuditLogger(pool)
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
	financeService := finance.NewService(finance.NewRepository(pool), gate, audit, invoiceRenderer)
	tenantsService := tenants.NewService(tenants.NewRepository(pool), gate, audit)

	vendorsService := vendors.NewService(vendors.NewRepository(pool), gate, audit)
	workOrdersService := workorders.NewService(workorders.NewRepository(pool), gate, audit, jobClient, vendorsService)

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
	documentsService := documents.NewService(logger, documents.NewRepository(pool), objectStore, extractor, jobClient, financeService, gate)

	dashboardCache := dashboard.NewCache(redisClient, 5*time.Minute)
	dashboardService := dashboard.NewService(logger, dashboard.NewRepository(pool), dashboardCache, workOrdersService, financeService, gate)

	mailer := jobs.NewSMTPMailer(jobs.SMTPConfig{
		Addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		From: cfg.SMTPFrom,
	})

	sendEmailJob := jobs.NewSendEmailJob(mailer, logger, metrics)
	ocrJob := jobs.NewOCRExtractJob(documentsService, logger, metrics)
	rentJob := jobs.NewGenerateRentInvoicesJob(financeService, dashboardService, logger, metrics)
	leaseScanJob := jobs.NewLeaseExpiryScanJob(tenantsService, jobClient, logger, metrics)

	rentTask, err := jobs.NewGenerateRentInvoicesTask(time.Time{})
	if err != nil {
		logger.Error("build rent invoice task", slog.Any("error", err))
		os.Exit(1)
	}
	leaseScanTask, err := jobs.NewLeaseExpiryScanTask(0)
	if err != nil {
		logger.Error("build lease scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: sendEmailJob.Handle},
			{Type: jobs.TaskTypeOCRExtract, Handler: ocrJob.Handle},
			{Type: jobs.TaskTypeGenerateRentInvoices, Handler: rentJob.Handle},
			{Type: jobs.TaskTypeLeaseExpiryScan, Handler: leaseScanJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 6 1 * *", Task: rentTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 7 * * *", Task: leaseScanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
