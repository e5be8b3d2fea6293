package amenities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultra-bms/ultra-bms/internal/platform/db"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrOverlap  = errors.New("booking overlaps an existing reservation")
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Amenity, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]Amenity, error)
	Create(ctx context.Context, a Amenity) (int64, error)
	Update(ctx context.Context, a Amenity) error

	GetBooking(ctx context.Context, id int64) (*Booking, error)
	ListBookings(ctx context.Context, amenityID int64, from, to time.Time) ([]Booking, error)
	Book(ctx context.Context, b Booking) (int64, error)
	CancelBooking(ctx context.Context, id int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const columns = `id, property_id, name, description, capacity, is_active, created_at, updated_at`

func scanAmenity(row pgx.Row) (*Amenity, error) {
	var a Amenity
	err := row.Scan(&a.ID, &a.PropertyID, &a.Name, &a.Description, &a.Capacity,
		&a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Amenity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM amenities WHERE id = $1`, id)
	a, err := scanAmenity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *pgRepository) ListByProperty(ctx context.Context, propertyID int64) ([]Amenity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+columns+` FROM amenities WHERE property_id = $1 ORDER BY name`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("amenities: list: %w", err)
	}
	defer rows.Close()

	var out []Amenity
	for rows.Next() {
		a, err := scanAmenity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, a Amenity) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO amenities (property_id, name, description, capacity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id`,
		a.PropertyID, a.Name, a.Description, a.Capacity, a.IsActive,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("amenities: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Update(ctx context.Context, a Amenity) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE amenities
		SET name = $2, description = $3, capacity = $4, is_active = $5, updated_at = now()
		WHERE id = $1`,
		a.ID, a.Name, a.Description, a.Capacity, a.IsActive)
	if err != nil {
		return fmt.Errorf("amenities: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const bookingColumns = `id, amenity_id, tenant_id, starts_at, ends_at, status, created_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.AmenityID, &b.TenantID, &b.StartsAt, &b.EndsAt, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgRepository) GetBooking(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM amenity_bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *pgRepository) ListBookings(ctx context.Context, amenityID int64, from, to time.Time) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM amenity_bookings
		WHERE amenity_id = $1 AND status = 'CONFIRMED' AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at`, amenityID, from, to)
	if err != nil {
		return nil, fmt.Errorf("amenities: list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// Book inserts the reservation after an overlap check inside one
// transaction, so two concurrent requests for the same slot cannot
// both succeed.
func (r *pgRepository) Book(ctx context.Context, b Booking) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var clashes int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*)
			FROM amenity_bookings
			WHERE amenity_id = $1 AND status = 'CONFIRMED' AND starts_at < $3 AND ends_at > $2`,
			b.AmenityID, b.StartsAt, b.EndsAt,
		).Scan(&clashes)
		if err != nil {
			return err
		}
		if clashes > 0 {
			return ErrOverlap
		}
		return tx.QueryRow(ctx, `
			INSERT INTO amenity_bookings (amenity_id, tenant_id, starts_at, ends_at, status, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
			RETURNING id`,
			b.AmenityID, b.TenantID, b.StartsAt, b.EndsAt, b.Status,
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *pgRepository) CancelBooking(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE amenity_bookings SET status = 'CANCELLED' WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("amenities: cancel booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
