package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Occupancy(ctx context.Context, propertyIDs []int64) ([]PropertyOccupancy, error)
	Assets(ctx context.Context, propertyIDs []int64) ([]Asset, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) Occupancy(ctx context.Context, propertyIDs []int64) ([]PropertyOccupancy, error) {
	query := `
		SELECT p.id, p.name,
			COUNT(u.id),
			COUNT(u.id) FILTER (WHERE u.status = 'OCCUPIED'),
			COUNT(u.id) FILTER (WHERE u.status = 'VACANT'),
			COUNT(u.id) FILTER (WHERE u.status = 'MAINTENANCE')
		FROM properties p
		LEFT JOIN units u ON u.property_id = p.id
		WHERE p.is_active`
	args := []any{}
	if len(propertyIDs) > 0 {
		query += ` AND p.id = ANY($1)`
		args = append(args, propertyIDs)
	}
	query += ` GROUP BY p.id, p.name ORDER BY p.name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: occupancy: %w", err)
	}
	defer rows.Close()

	var out []PropertyOccupancy
	for rows.Next() {
		var po PropertyOccupancy
		if err := rows.Scan(&po.PropertyID, &po.PropertyName, &po.TotalUnits,
			&po.OccupiedUnits, &po.VacantUnits, &po.MaintenanceUnits); err != nil {
			return nil, err
		}
		if po.TotalUnits > 0 {
			po.OccupancyRate = float64(po.OccupiedUnits) / float64(po.TotalUnits)
		}
		out = append(out, po)
	}
	return out, rows.Err()
}

func (r *pgRepository) Assets(ctx context.Context, propertyIDs []int64) ([]Asset, error) {
	query := `
		SELECT id, property_id, name, cost_cents, salvage_cents, useful_life_years, acquired_at
		FROM assets`
	args := []any{}
	if len(propertyIDs) > 0 {
		query += ` WHERE property_id = ANY($1)`
		args = append(args, propertyIDs)
	}
	query += ` ORDER BY property_id, name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard: assets: %w", err)
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.PropertyID, &a.Name, &a.CostCents,
			&a.SalvageCents, &a.UsefulLifeYears, &a.AcquiredAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
