package finance

import "time"

type CreateInvoiceRequest struct {
	PropertyID  int64       `json:"property_id" validate:"required"`
	TenantID    int64       `json:"tenant_id" validate:"required"`
	LeaseID     *int64      `json:"lease_id,omitempty"`
	Type        InvoiceType `json:"type" validate:"required,oneof=RENT UTILITY MAINTENANCE"`
	AmountCents int64       `json:"amount_cents" validate:"required,gt=0"`
	DueDate     time.Time   `json:"due_date" validate:"required"`
}

type UpdateInvoiceRequest struct {
	AmountCents *int64     `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Void        bool       `json:"void,omitempty"`
}

type ListInvoicesRequest struct {
	PropertyID *int64         `json:"property_id,omitempty"`
	TenantID   *int64         `json:"tenant_id,omitempty"`
	Status     *InvoiceStatus `json:"status,omitempty"`
	Limit      int            `json:"limit"`
	Offset     int            `json:"offset"`

	restrictToPropertyIDs []int64
}

type ListInvoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
	Total    int       `json:"total"`
}

type MakePaymentRequest struct {
	InvoiceID   int64  `json:"invoice_id" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
	Method      string `json:"method" validate:"required,oneof=card bank_transfer cheque cash"`
	Reference   string `json:"reference,omitempty" validate:"max=128"`
}

type RecordChequeRequest struct {
	DocumentID   *int64     `json:"document_id,omitempty"`
	InvoiceID    *int64     `json:"invoice_id,omitempty"`
	ChequeNumber string     `json:"cheque_number,omitempty"`
	AmountCents  int64      `json:"amount_cents"`
	ChequeDate   *time.Time `json:"cheque_date,omitempty"`
}

type ReportRequest struct {
	Year  int `json:"year" validate:"required,gte=2000,lte=2100"`
	Month int `json:"month" validate:"required,gte=1,lte=12"`
}
