package announcements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Announcement, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]Announcement, error)
	Create(ctx context.Context, a Announcement) (int64, error)
	Update(ctx context.Context, a Announcement) error
	MarkPublished(ctx context.Context, id int64, at time.Time) error
	TenantEmails(ctx context.Context, propertyID int64) ([]string, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const columns = `id, property_id, title, body, status, created_by, published_at, created_at, updated_at`

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var (
		a         Announcement
		published pgtype.Timestamptz
	)
	err := row.Scan(&a.ID, &a.PropertyID, &a.Title, &a.Body, &a.Status, &a.CreatedBy,
		&published, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if published.Valid {
		a.PublishedAt = &published.Time
	}
	return &a, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Announcement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM announcements WHERE id = $1`, id)
	a, err := scanAnnouncement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *pgRepository) ListByProperty(ctx context.Context, propertyID int64) ([]Announcement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM announcements WHERE property_id = $1 ORDER BY created_at DESC`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("announcements: list: %w", err)
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, a Announcement) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO announcements (property_id, title, body, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id`,
		a.PropertyID, a.Title, a.Body, a.Status, a.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("announcements: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Update(ctx context.Context, a Announcement) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements SET title = $2, body = $3, updated_at = now() WHERE id = $1`,
		a.ID, a.Title, a.Body)
	if err != nil {
		return fmt.Errorf("announcements: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements SET status = 'PUBLISHED', published_at = $2, updated_at = now() WHERE id = $1`,
		id, at)
	if err != nil {
		return fmt.Errorf("announcements: publish: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) TenantEmails(ctx context.Context, propertyID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT email FROM tenants WHERE property_id = $1 AND is_active`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("announcements: tenant emails: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}
