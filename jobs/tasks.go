package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail delivers a transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeOCRExtract runs text extraction on an uploaded document.
	TaskTypeOCRExtract = "ocr:extract"
	// TaskTypeGenerateRentInvoices bills every active lease for the
	// coming month. Scheduled monthly.
	TaskTypeGenerateRentInvoices = "invoice:generate_rent"
	// TaskTypeLeaseExpiryScan finds leases approaching their end date
	// and notifies the tenants. Scheduled daily.
	TaskTypeLeaseExpiryScan = "lease:expiry_scan"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs the mail delivery task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// OCRExtractPayload identifies the document to process.
type OCRExtractPayload struct {
	DocumentID int64 `json:"document_id"`
}

// NewOCRExtractTask constructs the OCR pipeline task.
func NewOCRExtractTask(documentID int64) (*asynq.Task, error) {
	data, err := json.Marshal(OCRExtractPayload{DocumentID: documentID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeOCRExtract, data), nil
}

// GenerateRentInvoicesPayload carries the billing reference date. Zero
// means "now" at execution time.
type GenerateRentInvoicesPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// NewGenerateRentInvoicesTask constructs the monthly billing task.
func NewGenerateRentInvoicesTask(asOf time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(GenerateRentInvoicesPayload{AsOf: asOf})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeGenerateRentInvoices, data), nil
}

// LeaseExpiryScanPayload sets the notification horizon.
type LeaseExpiryScanPayload struct {
	HorizonDays int `json:"horizon_days"`
}

// NewLeaseExpiryScanTask constructs the daily expiry scan task.
func NewLeaseExpiryScanTask(horizonDays int) (*asynq.Task, error) {
	if horizonDays <= 0 {
		horizonDays = 60
	}
	data, err := json.Marshal(LeaseExpiryScanPayload{HorizonDays: horizonDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLeaseExpiryScan, data), nil
}
