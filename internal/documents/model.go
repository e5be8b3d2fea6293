package documents

import "time"

type Category string

const (
	CategoryLease   Category = "LEASE"
	CategoryCheque  Category = "CHEQUE"
	CategoryInvoice Category = "INVOICE"
	CategoryPhoto   Category = "PHOTO"
	CategoryOther   Category = "OTHER"
)

type OCRStatus string

const (
	OCRNone      OCRStatus = "NONE"
	OCRPending   OCRStatus = "PENDING"
	OCRCompleted OCRStatus = "COMPLETED"
	OCRPartial   OCRStatus = "PARTIAL"
	OCRFailed    OCRStatus = "FAILED"
)

type Document struct {
	ID          int64     `json:"id"`
	PropertyID  *int64    `json:"property_id,omitempty"`
	TenantID    *int64    `json:"tenant_id,omitempty"`
	FileName    string    `json:"file_name"`
	StorageKey  string    `json:"storage_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	Category    Category  `json:"category"`
	OCRStatus   OCRStatus `json:"ocr_status"`
	OCRText     string    `json:"ocr_text,omitempty"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChequeFields is what OCR recovers from a scanned cheque. Zero-value
// fields mean extraction failed for that field.
type ChequeFields struct {
	ChequeNumber string     `json:"cheque_number,omitempty"`
	AmountCents  int64      `json:"amount_cents,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
}

// Complete reports whether every cheque field was recovered.
func (c ChequeFields) Complete() bool {
	return c.ChequeNumber != "" && c.AmountCents > 0 && c.Date != nil
}
