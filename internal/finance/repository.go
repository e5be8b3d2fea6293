package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultra-bms/ultra-bms/internal/platform/db"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error
	NextInvoiceNumber(ctx context.Context, prefix string) (string, error)
	TenantsWithActiveLeases(ctx context.Context, asOf time.Time) ([]RentCharge, error)

	GetPayment(ctx context.Context, id int64) (*Payment, error)
	CreatePayment(ctx context.Context, pay Payment) (int64, error)
	ApplyPayment(ctx context.Context, paymentID int64, processedBy int64) (*Payment, error)
	RefundPayment(ctx context.Context, paymentID int64, processedBy int64) (*Payment, error)

	GetCheque(ctx context.Context, id int64) (*Cheque, error)
	CreateCheque(ctx context.Context, c Cheque) (int64, error)
	UpdateChequeStatus(ctx context.Context, id int64, status ChequeStatus) error

	Aging(ctx context.Context, asOf time.Time, propertyIDs []int64) (AgingBuckets, error)
	MonthlyTotals(ctx context.Context, from, to time.Time, propertyIDs []int64) (billed, collected int64, err error)
}

// RentCharge is one active lease the monthly generator bills.
type RentCharge struct {
	LeaseID    int64
	TenantID   int64
	PropertyID int64
	RentCents  int64
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const invoiceColumns = `id, invoice_number, property_id, tenant_id, lease_id, type,
	amount_cents, paid_cents, due_date, status, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv     Invoice
		leaseID pgtype.Int8
	)
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.PropertyID, &inv.TenantID, &leaseID,
		&inv.Type, &inv.AmountCents, &inv.PaidCents, &inv.DueDate, &inv.Status,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if leaseID.Valid {
		inv.LeaseID = &leaseID.Int64
	}
	return &inv, nil
}

func (r *pgRepository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *pgRepository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1
	if req.PropertyID != nil {
		where = append(where, fmt.Sprintf("property_id = $%d", idx))
		args = append(args, *req.PropertyID)
		idx++
	}
	if req.TenantID != nil {
		where = append(where, fmt.Sprintf("tenant_id = $%d", idx))
		args = append(args, *req.TenantID)
		idx++
	}
	if req.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, *req.Status)
		idx++
	}
	if req.restrictToPropertyIDs != nil {
		where = append(where, fmt.Sprintf("property_id = ANY($%d)", idx))
		args = append(args, req.restrictToPropertyIDs)
		idx++
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("finance: count invoices: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY due_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, cond, idx, idx+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("finance: list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *inv)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoices (invoice_number, property_id, tenant_id, lease_id, type, amount_cents, paid_cents, due_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, now(), now())
		RETURNING id`,
		inv.InvoiceNumber, inv.PropertyID, inv.TenantID, inv.LeaseID, inv.Type,
		inv.AmountCents, inv.DueDate, inv.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("finance: create invoice: %w", err)
	}
	return id, nil
}

func (r *pgRepository) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices
		SET amount_cents = $2, paid_cents = $3, due_date = $4, status = $5, updated_at = now()
		WHERE id = $1`,
		inv.ID, inv.AmountCents, inv.PaidCents, inv.DueDate, inv.Status)
	if err != nil {
		return fmt.Errorf("finance: update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextInvoiceNumber issues INV-<prefix>-<seq> from a per-prefix
// sequence row so numbers stay gapless per billing period.
func (r *pgRepository) NextInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoice_sequences (prefix, last_value)
		VALUES ($1, 1)
		ON CONFLICT (prefix) DO UPDATE SET last_value = invoice_sequences.last_value + 1
		RETURNING last_value`, prefix).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("finance: next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%s-%05d", prefix, seq), nil
}

func (r *pgRepository) TenantsWithActiveLeases(ctx context.Context, asOf time.Time) ([]RentCharge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, property_id, monthly_rent_cents
		FROM leases
		WHERE status = 'ACTIVE' AND start_date <= $1 AND end_date >= $1`, asOf)
	if err != nil {
		return nil, fmt.Errorf("finance: active leases: %w", err)
	}
	defer rows.Close()

	var out []RentCharge
	for rows.Next() {
		var c RentCharge
		if err := rows.Scan(&c.LeaseID, &c.TenantID, &c.PropertyID, &c.RentCents); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const paymentColumns = `id, invoice_id, amount_cents, method, reference, status,
	paid_by, processed_by, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var (
		pay       Payment
		reference pgtype.Text
		processed pgtype.Int8
	)
	err := row.Scan(&pay.ID, &pay.InvoiceID, &pay.AmountCents, &pay.Method, &reference,
		&pay.Status, &pay.PaidBy, &processed, &pay.CreatedAt, &pay.UpdatedAt)
	if err != nil {
		return nil, err
	}
	pay.Reference = reference.String
	if processed.Valid {
		pay.ProcessedBy = &processed.Int64
	}
	return &pay, nil
}

func (r *pgRepository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	pay, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return pay, err
}

func (r *pgRepository) CreatePayment(ctx context.Context, pay Payment) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO payments (invoice_id, amount_cents, method, reference, status, paid_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id`,
		pay.InvoiceID, pay.AmountCents, pay.Method, pay.Reference, pay.Status, pay.PaidBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("finance: create payment: %w", err)
	}
	return id, nil
}

// ApplyPayment marks the payment COMPLETED and settles it against the
// invoice in one transaction.
func (r *pgRepository) ApplyPayment(ctx context.Context, paymentID int64, processedBy int64) (*Payment, error) {
	var out *Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
		pay, err := scanPayment(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if pay.Status != PaymentPending {
			return fmt.Errorf("payment %d is %s, not pending", paymentID, pay.Status)
		}

		row = tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, pay.InvoiceID)
		inv, err := scanInvoice(row)
		if err != nil {
			return err
		}
		inv.PaidCents += pay.AmountCents
		switch {
		case inv.PaidCents >= inv.AmountCents:
			inv.Status = InvoicePaid
		case inv.PaidCents > 0:
			inv.Status = InvoicePartial
		}
		if _, err := tx.Exec(ctx,
			`UPDATE invoices SET paid_cents = $2, status = $3, updated_at = now() WHERE id = $1`,
			inv.ID, inv.PaidCents, inv.Status); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE payments SET status = 'COMPLETED', processed_by = $2, updated_at = now() WHERE id = $1`,
			paymentID, processedBy); err != nil {
			return err
		}
		pay.Status = PaymentCompleted
		pay.ProcessedBy = &processedBy
		out = pay
		return nil
	})
	return out, err
}

// RefundPayment reverses a completed payment and backs its amount out
// of the invoice.
func (r *pgRepository) RefundPayment(ctx context.Context, paymentID int64, processedBy int64) (*Payment, error) {
	var out *Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
		pay, err := scanPayment(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if pay.Status != PaymentCompleted {
			return fmt.Errorf("payment %d is %s, not completed", paymentID, pay.Status)
		}

		row = tx.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, pay.InvoiceID)
		inv, err := scanInvoice(row)
		if err != nil {
			return err
		}
		inv.PaidCents -= pay.AmountCents
		switch {
		case inv.PaidCents <= 0:
			inv.PaidCents = 0
			inv.Status = InvoiceIssued
		case inv.PaidCents < inv.AmountCents:
			inv.Status = InvoicePartial
		}
		if _, err := tx.Exec(ctx,
			`UPDATE invoices SET paid_cents = $2, status = $3, updated_at = now() WHERE id = $1`,
			inv.ID, inv.PaidCents, inv.Status); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE payments SET status = 'REFUNDED', processed_by = $2, updated_at = now() WHERE id = $1`,
			paymentID, processedBy); err != nil {
			return err
		}
		pay.Status = PaymentRefunded
		pay.ProcessedBy = &processedBy
		out = pay
		return nil
	})
	return out, err
}

const chequeColumns = `id, document_id, invoice_id, cheque_number, amount_cents,
	cheque_date, status, created_at, updated_at`

func scanCheque(row pgx.Row) (*Cheque, error) {
	var (
		c      Cheque
		docID  pgtype.Int8
		invID  pgtype.Int8
		number pgtype.Text
		date   pgtype.Timestamptz
	)
	err := row.Scan(&c.ID, &docID, &invID, &number, &c.AmountCents, &date, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if docID.Valid {
		c.DocumentID = &docID.Int64
	}
	if invID.Valid {
		c.InvoiceID = &invID.Int64
	}
	c.ChequeNumber = number.String
	if date.Valid {
		c.ChequeDate = &date.Time
	}
	return &c, nil
}

func (r *pgRepository) GetCheque(ctx context.Context, id int64) (*Cheque, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+chequeColumns+` FROM cheques WHERE id = $1`, id)
	c, err := scanCheque(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *pgRepository) CreateCheque(ctx context.Context, c Cheque) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cheques (document_id, invoice_id, cheque_number, amount_cents, cheque_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id`,
		c.DocumentID, c.InvoiceID, c.ChequeNumber, c.AmountCents, c.ChequeDate, c.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("finance: create cheque: %w", err)
	}
	return id, nil
}

func (r *pgRepository) UpdateChequeStatus(ctx context.Context, id int64, status ChequeStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cheques SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("finance: update cheque: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) Aging(ctx context.Context, asOf time.Time, propertyIDs []int64) (AgingBuckets, error) {
	query := `
		SELECT
			COALESCE(SUM(CASE WHEN $1::date - due_date::date BETWEEN 0 AND 30 THEN amount_cents - paid_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN $1::date - due_date::date BETWEEN 31 AND 60 THEN amount_cents - paid_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN $1::date - due_date::date BETWEEN 61 AND 90 THEN amount_cents - paid_cents ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN $1::date - due_date::date > 90 THEN amount_cents - paid_cents ELSE 0 END), 0)
		FROM invoices
		WHERE status IN ('ISSUED', 'PARTIAL') AND due_date <= $1`
	args := []any{asOf}
	if propertyIDs != nil {
		query += ` AND property_id = ANY($2)`
		args = append(args, propertyIDs)
	}

	var b AgingBuckets
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.Current, &b.ThirtyPlus, &b.SixtyPlus, &b.NinetyPlus); err != nil {
		return AgingBuckets{}, fmt.Errorf("finance: aging: %w", err)
	}
	b.TotalOverdue = b.Current + b.ThirtyPlus + b.SixtyPlus + b.NinetyPlus
	return b, nil
}

func (r *pgRepository) MonthlyTotals(ctx context.Context, from, to time.Time, propertyIDs []int64) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0), COALESCE(SUM(paid_cents), 0)
		FROM invoices
		WHERE status <> 'VOID' AND due_date >= $1 AND due_date < $2`
	args := []any{from, to}
	if propertyIDs != nil {
		query += ` AND property_id = ANY($3)`
		args = append(args, propertyIDs)
	}

	var billed, collected int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&billed, &collected); err != nil {
		return 0, 0, fmt.Errorf("finance: monthly totals: %w", err)
	}
	return billed, collected, nil
}
