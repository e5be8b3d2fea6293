package vendors

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Vendor, error)
	List(ctx context.Context, activeOnly bool) ([]Vendor, error)
	Create(ctx context.Context, v Vendor) (int64, error)
	Update(ctx context.Context, v Vendor) error
	ContactEmail(ctx context.Context, id int64) (string, error)

	CreateRating(ctx context.Context, rating Rating) (int64, error)
	Performance(ctx context.Context, vendorID int64) (*Performance, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const columns = `id, name, contact_name, email, phone, category, is_active, created_at, updated_at`

func scanVendor(row pgx.Row) (*Vendor, error) {
	var v Vendor
	err := row.Scan(&v.ID, &v.Name, &v.ContactName, &v.Email, &v.Phone, &v.Category,
		&v.IsActive, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Vendor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM vendors WHERE id = $1`, id)
	v, err := scanVendor(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *pgRepository) List(ctx context.Context, activeOnly bool) ([]Vendor, error) {
	query := `SELECT ` + columns + ` FROM vendors`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("vendors: list: %w", err)
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, v Vendor) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vendors (name, contact_name, email, phone, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id`,
		v.Name, v.ContactName, v.Email, v.Phone, v.Category, v.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("vendors: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Update(ctx context.Context, v Vendor) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE vendors
		SET name = $2, contact_name = $3, phone = $4, category = $5, is_active = $6, updated_at = now()
		WHERE id = $1`,
		v.ID, v.Name, v.ContactName, v.Phone, v.Category, v.IsActive)
	if err != nil {
		return fmt.Errorf("vendors: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) ContactEmail(ctx context.Context, id int64) (string, error) {
	var email string
	err := r.pool.QueryRow(ctx, `SELECT email FROM vendors WHERE id = $1`, id).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}

func (r *pgRepository) CreateRating(ctx context.Context, rating Rating) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vendor_ratings (vendor_id, work_order_id, score, comment, rated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id`,
		rating.VendorID, rating.WorkOrderID, rating.Score, rating.Comment, rating.RatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("vendors: create rating: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Performance(ctx context.Context, vendorID int64) (*Performance, error) {
	perf := Performance{VendorID: vendorID}
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'APPROVED'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - assigned_at)) / 86400.0)
				FILTER (WHERE status = 'APPROVED' AND completed_at IS NOT NULL AND assigned_at IS NOT NULL), 0)
		FROM work_orders
		WHERE vendor_id = $1`, vendorID,
	).Scan(&perf.CompletedOrders, &perf.AvgCompletionDays)
	if err != nil {
		return nil, fmt.Errorf("vendors: performance: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(score), 0), COUNT(*)
		FROM vendor_ratings
		WHERE vendor_id = $1`, vendorID,
	).Scan(&perf.AvgRating, &perf.RatingCount)
	if err != nil {
		return nil, fmt.Errorf("vendors: ratings: %w", err)
	}
	return &perf, nil
}
