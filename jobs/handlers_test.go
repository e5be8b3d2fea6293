package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultra-bms/ultra-bms/internal/tenants"
)

type stubMailer struct {
	sent []SendEmailPayload
	err  error
}

func (m *stubMailer) Send(_ context.Context, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return nil
}

func mustTask(t *testing.T, task *asynq.Task, err error) *asynq.Task {
	t.Helper()
	require.NoError(t, err)
	return task
}

func TestSendEmailJob(t *testing.T) {
	mailer := &stubMailer{}
	job := NewSendEmailJob(mailer, slog.Default(), nil)

	sendTask, sendErr := NewSendEmailTask(SendEmailPayload{To: "t@example.com", Subject: "hi", Body: "hello"})
	task := mustTask(t, sendTask, sendErr)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "t@example.com", mailer.sent[0].To)

	mailer.err = errors.New("relay down")
	err := job.Handle(context.Background(), task)
	require.Error(t, err, "delivery failure is returned for retry")
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	badPayload := asynq.NewTask(TaskTypeSendEmail, []byte("{not json"))
	assert.ErrorIs(t, job.Handle(context.Background(), badPayload), asynq.SkipRetry)
}

type stubRunner struct {
	ran []int64
	err error
}

func (r *stubRunner) RunOCR(_ context.Context, documentID int64) error {
	r.ran = append(r.ran, documentID)
	return r.err
}

func TestOCRExtractJob(t *testing.T) {
	runner := &stubRunner{}
	job := NewOCRExtractJob(runner, slog.Default(), nil)

	ocrTask, ocrErr := NewOCRExtractTask(55)
	task := mustTask(t, ocrTask, ocrErr)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int64{55}, runner.ran)

	runner.err = errors.New("textract throttled")
	assert.Error(t, job.Handle(context.Background(), task))
}

type stubBiller struct {
	asOf  time.Time
	count int
	err   error
}

func (b *stubBiller) GenerateRentInvoices(_ context.Context, asOf time.Time) (int, error) {
	b.asOf = asOf
	return b.count, b.err
}

type stubInvalidator struct {
	calls int
}

func (i *stubInvalidator) Invalidate(context.Context) error {
	i.calls++
	return nil
}

func TestGenerateRentInvoicesJobInvalidatesDashboard(t *testing.T) {
	biller := &stubBiller{count: 12}
	dash := &stubInvalidator{}
	job := NewGenerateRentInvoicesJob(biller, dash, slog.Default(), nil)

	asOf := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	invTask, invErr := NewGenerateRentInvoicesTask(asOf)
	task := mustTask(t, invTask, invErr)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, asOf, biller.asOf)
	assert.Equal(t, 1, dash.calls)

	biller.err = errors.New("db down")
	assert.Error(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, dash.calls, "no invalidation after a failed run")
}

type stubLeaseDirectory struct {
	leases []tenants.Lease
	emails map[int64]string
}

func (d *stubLeaseDirectory) LeasesExpiringBefore(_ context.Context, cutoff time.Time) ([]tenants.Lease, error) {
	var out []tenants.Lease
	for _, l := range d.leases {
		if l.EndDate.Before(cutoff) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (d *stubLeaseDirectory) TenantEmail(_ context.Context, tenantID int64) (string, error) {
	email, ok := d.emails[tenantID]
	if !ok {
		return "", errors.New("tenant missing")
	}
	return email, nil
}

type stubEnqueuer struct {
	sent []SendEmailPayload
}

func (e *stubEnqueuer) EnqueueEmail(_ context.Context, to, subject, body string) error {
	e.sent = append(e.sent, SendEmailPayload{To: to, Subject: subject, Body: body})
	return nil
}

func TestLeaseExpiryScanSkipsBrokenTenants(t *testing.T) {
	soon := time.Now().UTC().AddDate(0, 0, 30)
	far := time.Now().UTC().AddDate(0, 6, 0)
	dir := &stubLeaseDirectory{
		leases: []tenants.Lease{
			{ID: 1, TenantID: 10, EndDate: soon},
			{ID: 2, TenantID: 11, EndDate: soon},
			{ID: 3, TenantID: 12, EndDate: far},
		},
		emails: map[int64]string{10: "ten@example.com"},
	}
	enqueuer := &stubEnqueuer{}
	job := NewLeaseExpiryScanJob(dir, enqueuer, slog.Default(), nil)

	scanTask, scanErr := NewLeaseExpiryScanTask(60)
	task := mustTask(t, scanTask, scanErr)
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, enqueuer.sent, 1, "far lease ignored, unknown tenant skipped")
	assert.Equal(t, "ten@example.com", enqueuer.sent[0].To)
	assert.Contains(t, enqueuer.sent[0].Body, soon.Format("2 January 2006"))
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	zeroTask, zeroErr := NewLeaseExpiryScanTask(0)
	task := mustTask(t, zeroTask, zeroErr)
	var payload LeaseExpiryScanPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, 60, payload.HorizonDays, "zero horizon falls back to the default")
}
