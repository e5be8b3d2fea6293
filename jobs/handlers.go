package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ultra-bms/ultra-bms/internal/observability"
	"github.com/ultra-bms/ultra-bms/internal/tenants"
)

// SendEmailJob delivers queued mail through the configured Mailer.
// Delivery failures return the error so asynq retries with backoff.
type SendEmailJob struct {
	mailer  Mailer
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewSendEmailJob(mailer Mailer, logger *slog.Logger, metrics *observability.Metrics) *SendEmailJob {
	return &SendEmailJob{mailer: mailer, logger: logger, metrics: metrics}
}

func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	err := j.mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	j.metrics.ObserveTask(TaskTypeSendEmail, err)
	if err != nil {
		j.logger.Error("mail delivery failed", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	j.logger.Info("mail delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

// OCRRunner is satisfied by the documents service.
type OCRRunner interface {
	RunOCR(ctx context.Context, documentID int64) error
}

// OCRExtractJob runs the document extraction pipeline.
type OCRExtractJob struct {
	runner  OCRRunner
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewOCRExtractJob(runner OCRRunner, logger *slog.Logger, metrics *observability.Metrics) *OCRExtractJob {
	return &OCRExtractJob{runner: runner, logger: logger, metrics: metrics}
}

func (j *OCRExtractJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OCRExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	err := j.runner.RunOCR(ctx, payload.DocumentID)
	j.metrics.ObserveTask(TaskTypeOCRExtract, err)
	if err != nil {
		j.logger.Error("ocr extraction failed", slog.Int64("document_id", payload.DocumentID), slog.Any("error", err))
		return err
	}
	return nil
}

// RentBiller is satisfied by the finance service.
type RentBiller interface {
	GenerateRentInvoices(ctx context.Context, asOf time.Time) (int, error)
}

// CacheInvalidator is satisfied by the dashboard service.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// GenerateRentInvoicesJob bills active leases once a month.
type GenerateRentInvoicesJob struct {
	biller    RentBiller
	dashboard CacheInvalidator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func NewGenerateRentInvoicesJob(biller RentBiller, dashboard CacheInvalidator, logger *slog.Logger, metrics *observability.Metrics) *GenerateRentInvoicesJob {
	return &GenerateRentInvoicesJob{biller: biller, dashboard: dashboard, logger: logger, metrics: metrics}
}

func (j *GenerateRentInvoicesJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GenerateRentInvoicesPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	count, err := j.biller.GenerateRentInvoices(ctx, asOf)
	j.metrics.ObserveTask(TaskTypeGenerateRentInvoices, err)
	if err != nil {
		j.logger.Error("rent invoice generation failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("rent invoices generated", slog.Int("count", count), slog.Time("as_of", asOf))
	if j.dashboard != nil {
		if err := j.dashboard.Invalidate(ctx); err != nil {
			j.logger.Warn("dashboard invalidation failed", slog.Any("error", err))
		}
	}
	return nil
}

// LeaseDirectory is satisfied by the tenants service.
type LeaseDirectory interface {
	LeasesExpiringBefore(ctx context.Context, cutoff time.Time) ([]tenants.Lease, error)
	TenantEmail(ctx context.Context, tenantID int64) (string, error)
}

// EmailEnqueuer queues notification mail; the worker's own Client
// satisfies it.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// LeaseExpiryScanJob notifies tenants whose lease ends within the
// horizon. Per-tenant failures are logged and skipped so one bad
// address does not starve the rest.
type LeaseExpiryScanJob struct {
	leases   LeaseDirectory
	enqueuer EmailEnqueuer
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func NewLeaseExpiryScanJob(leases LeaseDirectory, enqueuer EmailEnqueuer, logger *slog.Logger, metrics *observability.Metrics) *LeaseExpiryScanJob {
	return &LeaseExpiryScanJob{leases: leases, enqueuer: enqueuer, logger: logger, metrics: metrics}
}

func (j *LeaseExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload LeaseExpiryScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	horizon := payload.HorizonDays
	if horizon <= 0 {
		horizon = 60
	}
	cutoff := time.Now().UTC().AddDate(0, 0, horizon)

	leases, err := j.leases.LeasesExpiringBefore(ctx, cutoff)
	j.metrics.ObserveTask(TaskTypeLeaseExpiryScan, err)
	if err != nil {
		j.logger.Error("lease expiry scan failed", slog.Any("error", err))
		return err
	}

	notified := 0
	for _, lease := range leases {
		email, err := j.leases.TenantEmail(ctx, lease.TenantID)
		if err != nil {
			j.logger.Warn("tenant lookup failed", slog.Int64("lease_id", lease.ID), slog.Any("error", err))
			continue
		}
		subject := "Your lease is approaching its end date"
		body := fmt.Sprintf(
			"Your lease ends on %s. Please contact the property office to discuss renewal options.",
			lease.EndDate.Format("2 January 2006"))
		if err := j.enqueuer.EnqueueEmail(ctx, email, subject, body); err != nil {
			j.logger.Warn("expiry notification enqueue failed", slog.Int64("lease_id", lease.ID), slog.Any("error", err))
			continue
		}
		notified++
	}
	j.logger.Info("lease expiry scan finished", slog.Int("expiring", len(leases)), slog.Int("notified", notified))
	return nil
}
