package finance

import "time"

type InvoiceType string

const (
	InvoiceRent        InvoiceType = "RENT"
	InvoiceUtility     InvoiceType = "UTILITY"
	InvoiceMaintenance InvoiceType = "MAINTENANCE"
)

type InvoiceStatus string

const (
	InvoiceIssued  InvoiceStatus = "ISSUED"
	InvoicePartial InvoiceStatus = "PARTIAL"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceVoid    InvoiceStatus = "VOID"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// ChequeStatus tracks scanned cheques. PARTIAL means OCR could not
// extract every required field and manual review is needed.
type ChequeStatus string

const (
	ChequePending ChequeStatus = "PENDING"
	ChequeCleared ChequeStatus = "CLEARED"
	ChequePartial ChequeStatus = "PARTIAL"
	ChequeBounced ChequeStatus = "BOUNCED"
)

// Amounts are integer cents throughout.
type Invoice struct {
	ID            int64         `json:"id"`
	InvoiceNumber string        `json:"invoice_number"`
	PropertyID    int64         `json:"property_id"`
	TenantID      int64         `json:"tenant_id"`
	LeaseID       *int64        `json:"lease_id,omitempty"`
	Type          InvoiceType   `json:"type"`
	AmountCents   int64         `json:"amount_cents"`
	PaidCents     int64         `json:"paid_cents"`
	DueDate       time.Time     `json:"due_date"`
	Status        InvoiceStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Outstanding returns the unpaid remainder.
func (i Invoice) Outstanding() int64 {
	return i.AmountCents - i.PaidCents
}

type Payment struct {
	ID          int64         `json:"id"`
	InvoiceID   int64         `json:"invoice_id"`
	AmountCents int64         `json:"amount_cents"`
	Method      string        `json:"method"`
	Reference   string        `json:"reference,omitempty"`
	Status      PaymentStatus `json:"status"`
	PaidBy      int64         `json:"paid_by"`
	ProcessedBy *int64        `json:"processed_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type Cheque struct {
	ID           int64        `json:"id"`
	DocumentID   *int64       `json:"document_id,omitempty"`
	InvoiceID    *int64       `json:"invoice_id,omitempty"`
	ChequeNumber string       `json:"cheque_number,omitempty"`
	AmountCents  int64        `json:"amount_cents"`
	ChequeDate   *time.Time   `json:"cheque_date,omitempty"`
	Status       ChequeStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// AgingBuckets groups outstanding receivables by days overdue.
type AgingBuckets struct {
	Current      int64 `json:"current_cents"`        // 0-30 days
	ThirtyPlus   int64 `json:"days_31_60_cents"`     // 31-60
	SixtyPlus    int64 `json:"days_61_90_cents"`     // 61-90
	NinetyPlus   int64 `json:"days_over_90_cents"`   // 90+
	TotalOverdue int64 `json:"total_overdue_cents"`
}

// MonthlyReport is the financial summary for one calendar month.
type MonthlyReport struct {
	Month          string       `json:"month"`
	BilledCents    int64        `json:"billed_cents"`
	CollectedCents int64        `json:"collected_cents"`
	CollectionRate float64      `json:"collection_rate"`
	Aging          AgingBuckets `json:"aging"`
}
