package properties

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type Repository interface {
	Get(ctx context.Context, id int64) (*Property, error)
	List(ctx context.Context, req ListPropertiesRequest) ([]Property, int, error)
	Create(ctx context.Context, p Property) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	Delete(ctx context.Context, id int64) error

	GetUnit(ctx context.Context, id int64) (*Unit, error)
	ListUnits(ctx context.Context, propertyID int64) ([]Unit, error)
	CreateUnit(ctx context.Context, u Unit) (int64, error)
	UpdateUnit(ctx context.Context, id int64, updates map[string]interface{}) error
	CountUnitsByStatus(ctx context.Context, propertyID int64) (map[string]int, error)

	GetParkingSpot(ctx context.Context, id int64) (*ParkingSpot, error)
	ListParkingSpots(ctx context.Context, propertyID int64) ([]ParkingSpot, error)
	CreateParkingSpot(ctx context.Context, s ParkingSpot) (int64, error)
	SetParkingSpotTenant(ctx context.Context, id int64, tenantID *int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const propertyColumns = `id, name, address_line1, address_line2, city, state, postal_code, country,
	property_type, total_units, is_active, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	return scanProperty(row)
}

func (r *repository) List(ctx context.Context, req ListPropertiesRequest) ([]Property, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		pattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR city ILIKE $%d)", argPos, argPos))
		args = append(args, pattern)
		argPos++
	}
	if len(req.restrictToIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("id = ANY($%d)", argPos))
		args = append(args, req.restrictToIDs)
		argPos++
	}

	whereClause := ""
	for i, cond := range conditions {
		if i == 0 {
			whereClause = "WHERE " + cond
		} else {
			whereClause += " AND " + cond
		}
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM properties %s", whereClause), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT `+propertyColumns+` FROM properties %s ORDER BY name LIMIT $%d OFFSET $%d`, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p Property) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO properties
		(name, address_line1, address_line2, city, state, postal_code, country, property_type, is_active, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10) RETURNING id`,
		p.Name, p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, p.Country, p.PropertyType, p.Notes, p.CreatedBy,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE properties SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{"name", "address_line1", "address_line2", "city", "state", "postal_code", "country", "property_type", "is_active", "notes"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GetUnit(ctx context.Context, id int64) (*Unit, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, property_id, unit_number, floor, bedrooms, bathrooms, area_sqm, monthly_rent, status, created_at, updated_at
		FROM units WHERE id = $1`, id)
	return scanUnit(row)
}

func (r *repository) ListUnits(ctx context.Context, propertyID int64) ([]Unit, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, property_id, unit_number, floor, bedrooms, bathrooms, area_sqm, monthly_rent, status, created_at, updated_at
		FROM units WHERE property_id = $1 ORDER BY unit_number`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *repository) CreateUnit(ctx context.Context, u Unit) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO units
		(property_id, unit_number, floor, bedrooms, bathrooms, area_sqm, monthly_rent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		u.PropertyID, u.UnitNumber, u.Floor, u.Bedrooms, u.Bathrooms, u.AreaSqm, u.MonthlyRent, UnitStatusVacant,
	).Scan(&id)
	return id, err
}

func (r *repository) UpdateUnit(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE units SET updated_at = NOW()"
	var args []interface{}
	argPos := 1
	for _, col := range []string{"floor", "bedrooms", "bathrooms", "area_sqm", "monthly_rent", "status"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CountUnitsByStatus(ctx context.Context, propertyID int64) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM units WHERE property_id = $1 GROUP BY status`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *repository) GetParkingSpot(ctx context.Context, id int64) (*ParkingSpot, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, property_id, spot_number, level, status, tenant_id, created_at, updated_at
		FROM parking_spots WHERE id = $1`, id)
	return scanParkingSpot(row)
}

func (r *repository) ListParkingSpots(ctx context.Context, propertyID int64) ([]ParkingSpot, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, property_id, spot_number, level, status, tenant_id, created_at, updated_at
		FROM parking_spots WHERE property_id = $1 ORDER BY spot_number`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParkingSpot
	for rows.Next() {
		s, err := scanParkingSpot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *repository) CreateParkingSpot(ctx context.Context, s ParkingSpot) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO parking_spots (property_id, spot_number, level, status)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		s.PropertyID, s.SpotNumber, s.Level, SpotStatusAvailable,
	).Scan(&id)
	return id, err
}

func (r *repository) SetParkingSpotTenant(ctx context.Context, id int64, tenantID *int64) error {
	status := SpotStatusAssigned
	if tenantID == nil {
		status = SpotStatusAvailable
	}
	tag, err := r.pool.Exec(ctx, `UPDATE parking_spots SET tenant_id = $1, status = $2, updated_at = NOW() WHERE id = $3`, tenantID, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProperty(row pgx.Row) (*Property, error) {
	var p Property
	var addr2, state, postal, notes pgtype.Text
	err := row.Scan(&p.ID, &p.Name, &p.AddressLine1, &addr2, &p.City, &state, &postal, &p.Country,
		&p.PropertyType, &p.TotalUnits, &p.IsActive, &notes, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if addr2.Valid {
		p.AddressLine2 = &addr2.String
	}
	if state.Valid {
		p.State = &state.String
	}
	if postal.Valid {
		p.PostalCode = &postal.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	return &p, nil
}

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	err := row.Scan(&u.ID, &u.PropertyID, &u.UnitNumber, &u.Floor, &u.Bedrooms, &u.Bathrooms, &u.AreaSqm, &u.MonthlyRent, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func scanParkingSpot(row pgx.Row) (*ParkingSpot, error) {
	var s ParkingSpot
	var tenantID pgtype.Int8
	err := row.Scan(&s.ID, &s.PropertyID, &s.SpotNumber, &s.Level, &s.Status, &tenantID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tenantID.Valid {
		s.TenantID = &tenantID.Int64
	}
	return &s, nil
}
