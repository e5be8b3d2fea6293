package tenants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultra-bms/ultra-bms/internal/platform/db"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// NewTenantUser is the credential payload for the user account created
// during lead conversion.
type NewTenantUser struct {
	Email        string
	PasswordHash string
	FullName     string
}

type Repository interface {
	GetTenant(ctx context.Context, id int64) (*Tenant, error)
	GetTenantByUser(ctx context.Context, userID int64) (*Tenant, error)
	ListTenants(ctx context.Context, req ListTenantsRequest) ([]Tenant, int, error)
	CreateTenant(ctx context.Context, t Tenant) (int64, error)
	UpdateTenant(ctx context.Context, t Tenant) error

	GetLead(ctx context.Context, id int64) (*Lead, error)
	ListLeads(ctx context.Context, status *LeadStatus) ([]Lead, error)
	CreateLead(ctx context.Context, l Lead) (int64, error)
	UpdateLead(ctx context.Context, l Lead) error
	ConvertLead(ctx context.Context, leadID int64, user NewTenantUser, lease Lease) (*Tenant, *Lease, int64, error)

	GetLease(ctx context.Context, id int64) (*Lease, error)
	ListLeasesByTenant(ctx context.Context, tenantID int64) ([]Lease, error)
	LeasesExpiringBefore(ctx context.Context, cutoff time.Time) ([]Lease, error)
	CreateLease(ctx context.Context, l Lease) (int64, error)
	UpdateLease(ctx context.Context, l Lease) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const tenantColumns = `id, user_id, first_name, last_name, email, phone,
	property_id, unit_id, move_in_date, is_active, created_at, updated_at`

func scanTenant(row pgx.Row) (*Tenant, error) {
	var (
		t        Tenant
		userID   pgtype.Int8
		propID   pgtype.Int8
		unitID   pgtype.Int8
		moveIn   pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &userID, &t.FirstName, &t.LastName, &t.Email, &t.Phone,
		&propID, &unitID, &moveIn, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		t.UserID = &userID.Int64
	}
	if propID.Valid {
		t.PropertyID = &propID.Int64
	}
	if unitID.Valid {
		t.UnitID = &unitID.Int64
	}
	if moveIn.Valid {
		t.MoveInDate = &moveIn.Time
	}
	return &t, nil
}

func (r *pgRepository) GetTenant(ctx context.Context, id int64) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *pgRepository) GetTenantByUser(ctx context.Context, userID int64) (*Tenant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE user_id = $1`, userID)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *pgRepository) ListTenants(ctx context.Context, req ListTenantsRequest) ([]Tenant, int, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1
	if req.PropertyID != nil {
		where = append(where, fmt.Sprintf("property_id = $%d", idx))
		args = append(args, *req.PropertyID)
		idx++
	}
	if req.IsActive != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", idx))
		args = append(args, *req.IsActive)
		idx++
	}
	if req.Search != nil {
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", idx, idx, idx))
		args = append(args, "%"+*req.Search+"%")
		idx++
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tenants: count: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE %s ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`,
		tenantColumns, cond, idx, idx+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("tenants: list: %w", err)
	}
	defer rows.Close()

	var out []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *t)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) CreateTenant(ctx context.Context, t Tenant) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tenants (user_id, first_name, last_name, email, phone, property_id, unit_id, move_in_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id`,
		t.UserID, t.FirstName, t.LastName, t.Email, t.Phone, t.PropertyID, t.UnitID, t.MoveInDate, t.IsActive,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("tenants: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) UpdateTenant(ctx context.Context, t Tenant) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE tenants
		SET first_name = $2, last_name = $3, phone = $4, property_id = $5,
		    unit_id = $6, move_in_date = $7, is_active = $8, updated_at = now()
		WHERE id = $1`,
		t.ID, t.FirstName, t.LastName, t.Phone, t.PropertyID, t.UnitID, t.MoveInDate, t.IsActive)
	if err != nil {
		return fmt.Errorf("tenants: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const leadColumns = `id, first_name, last_name, email, phone, property_id, unit_id,
	status, source, notes, converted_tenant_id, created_at, updated_at`

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		l      Lead
		propID pgtype.Int8
		unitID pgtype.Int8
		conv   pgtype.Int8
		notes  pgtype.Text
	)
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Email, &l.Phone,
		&propID, &unitID, &l.Status, &l.Source, &notes, &conv, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if propID.Valid {
		l.PropertyID = &propID.Int64
	}
	if unitID.Valid {
		l.UnitID = &unitID.Int64
	}
	if conv.Valid {
		l.ConvertedTenantID = &conv.Int64
	}
	l.Notes = notes.String
	return &l, nil
}

func (r *pgRepository) GetLead(ctx context.Context, id int64) (*Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	l, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (r *pgRepository) ListLeads(ctx context.Context, status *LeadStatus) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("tenants: list leads: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *pgRepository) CreateLead(ctx context.Context, l Lead) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (first_name, last_name, email, phone, property_id, unit_id, status, source, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id`,
		l.FirstName, l.LastName, l.Email, l.Phone, l.PropertyID, l.UnitID, l.Status, l.Source, l.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("tenants: create lead: %w", err)
	}
	return id, nil
}

func (r *pgRepository) UpdateLead(ctx context.Context, l Lead) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leads SET status = $2, notes = $3, updated_at = now() WHERE id = $1`,
		l.ID, l.Status, l.Notes)
	if err != nil {
		return fmt.Errorf("tenants: update lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConvertLead creates the user account, the tenant record and a draft
// lease atomically and marks the lead CONVERTED. Either all four rows
// land or none do.
func (r *pgRepository) ConvertLead(ctx context.Context, leadID int64, user NewTenantUser, lease Lease) (*Tenant, *Lease, int64, error) {
	var (
		tenant  *Tenant
		created *Lease
		userID  int64
	)
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, leadID)
		lead, err := scanLead(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if lead.Status == LeadConverted {
			return ErrDuplicate
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO users (email, password_hash, full_name, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, 'TENANT', TRUE, now(), now())
			RETURNING id`,
			user.Email, user.PasswordHash, user.FullName,
		).Scan(&userID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("tenants: convert: create user: %w", err)
		}

		var tenantID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO tenants (user_id, first_name, last_name, email, phone, property_id, unit_id, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now(), now())
			RETURNING id`,
			userID, lead.FirstName, lead.LastName, lead.Email, lead.Phone, lease.PropertyID, lease.UnitID,
		).Scan(&tenantID)
		if err != nil {
			return fmt.Errorf("tenants: convert: create tenant: %w", err)
		}

		lease.TenantID = tenantID
		lease.Status = LeaseDraft
		var leaseID int64
		err = tx.QueryRow(ctx, `
			INSERT INTO leases (tenant_id, property_id, unit_id, start_date, end_date, monthly_rent_cents, security_deposit_cents, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
			RETURNING id`,
			lease.TenantID, lease.PropertyID, lease.UnitID, lease.StartDate, lease.EndDate,
			lease.MonthlyRent, lease.SecurityDeposit, lease.Status,
		).Scan(&leaseID)
		if err != nil {
			return fmt.Errorf("tenants: convert: create lease: %w", err)
		}
		lease.ID = leaseID

		if _, err := tx.Exec(ctx,
			`UPDATE leads SET status = 'CONVERTED', converted_tenant_id = $2, updated_at = now() WHERE id = $1`,
			leadID, tenantID); err != nil {
			return fmt.Errorf("tenants: convert: mark lead: %w", err)
		}

		row = tx.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, tenantID)
		tenant, err = scanTenant(row)
		if err != nil {
			return err
		}
		created = &lease
		return nil
	})
	if err != nil {
		return nil, nil, 0, err
	}
	return tenant, created, userID, nil
}

const leaseColumns = `id, tenant_id, property_id, unit_id, start_date, end_date,
	monthly_rent_cents, security_deposit_cents, status, created_at, updated_at`

func scanLease(row pgx.Row) (*Lease, error) {
	var l Lease
	err := row.Scan(&l.ID, &l.TenantID, &l.PropertyID, &l.UnitID, &l.StartDate, &l.EndDate,
		&l.MonthlyRent, &l.SecurityDeposit, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *pgRepository) GetLease(ctx context.Context, id int64) (*Lease, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = $1`, id)
	l, err := scanLease(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (r *pgRepository) ListLeasesByTenant(ctx context.Context, tenantID int64) ([]Lease, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leaseColumns+` FROM leases WHERE tenant_id = $1 ORDER BY start_date DESC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenants: list leases: %w", err)
	}
	defer rows.Close()

	var out []Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *pgRepository) LeasesExpiringBefore(ctx context.Context, cutoff time.Time) ([]Lease, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+leaseColumns+` FROM leases WHERE status = 'ACTIVE' AND end_date <= $1 ORDER BY end_date`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("tenants: expiring leases: %w", err)
	}
	defer rows.Close()

	var out []Lease
	for rows.Next() {
		l, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *pgRepository) CreateLease(ctx context.Context, l Lease) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leases (tenant_id, property_id, unit_id, start_date, end_date, monthly_rent_cents, security_deposit_cents, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id`,
		l.TenantID, l.PropertyID, l.UnitID, l.StartDate, l.EndDate, l.MonthlyRent, l.SecurityDeposit, l.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("tenants: create lease: %w", err)
	}
	return id, nil
}

func (r *pgRepository) UpdateLease(ctx context.Context, l Lease) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leases
		SET end_date = $2, monthly_rent_cents = $3, status = $4, updated_at = now()
		WHERE id = $1`,
		l.ID, l.EndDate, l.MonthlyRent, l.Status)
	if err != nil {
		return fmt.Errorf("tenants: update lease: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
