package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*WorkOrder, error)
	List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error)
	Create(ctx context.Context, wo WorkOrder) (int64, error)
	Update(ctx context.Context, wo WorkOrder) error
	CountOpenByPriority(ctx context.Context) (map[Priority]int, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const columns = `id, property_id, unit_id, tenant_id, vendor_id, title, description,
	category, priority, status, created_by, assigned_at, completed_at, approved_by,
	created_at, updated_at`

func scanWorkOrder(row pgx.Row) (*WorkOrder, error) {
	var (
		wo          WorkOrder
		unitID      pgtype.Int8
		tenantID    pgtype.Int8
		vendorID    pgtype.Int8
		approvedBy  pgtype.Int8
		assignedAt  pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)
	err := row.Scan(&wo.ID, &wo.PropertyID, &unitID, &tenantID, &vendorID, &wo.Title,
		&wo.Description, &wo.Category, &wo.Priority, &wo.Status, &wo.CreatedBy,
		&assignedAt, &completedAt, &approvedBy, &wo.CreatedAt, &wo.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if unitID.Valid {
		wo.UnitID = &unitID.Int64
	}
	if tenantID.Valid {
		wo.TenantID = &tenantID.Int64
	}
	if vendorID.Valid {
		wo.VendorID = &vendorID.Int64
	}
	if approvedBy.Valid {
		wo.ApprovedBy = &approvedBy.Int64
	}
	if assignedAt.Valid {
		wo.AssignedAt = &assignedAt.Time
	}
	if completedAt.Valid {
		wo.CompletedAt = &completedAt.Time
	}
	return &wo, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM work_orders WHERE id = $1`, id)
	wo, err := scanWorkOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return wo, err
}

func (r *pgRepository) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrder, int, error) {
	where := []string{"1=1"}
	args := []any{}
	idx := 1
	if req.PropertyID != nil {
		where = append(where, fmt.Sprintf("property_id = $%d", idx))
		args = append(args, *req.PropertyID)
		idx++
	}
	if req.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, *req.Status)
		idx++
	}
	if req.Priority != nil {
		where = append(where, fmt.Sprintf("priority = $%d", idx))
		args = append(args, *req.Priority)
		idx++
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM work_orders WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("workorders: count: %w", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM work_orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		columns, cond, idx, idx+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("workorders: list: %w", err)
	}
	defer rows.Close()

	var out []WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *wo)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, wo WorkOrder) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO work_orders (property_id, unit_id, tenant_id, title, description, category, priority, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id`,
		wo.PropertyID, wo.UnitID, wo.TenantID, wo.Title, wo.Description, wo.Category,
		wo.Priority, wo.Status, wo.CreatedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("workorders: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Update(ctx context.Context, wo WorkOrder) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE work_orders
		SET title = $2, description = $3, priority = $4, status = $5, vendor_id = $6,
		    assigned_at = $7, completed_at = $8, approved_by = $9, updated_at = now()
		WHERE id = $1`,
		wo.ID, wo.Title, wo.Description, wo.Priority, wo.Status, wo.VendorID,
		wo.AssignedAt, wo.CompletedAt, wo.ApprovedBy)
	if err != nil {
		return fmt.Errorf("workorders: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) CountOpenByPriority(ctx context.Context) (map[Priority]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT priority, COUNT(*)
		FROM work_orders
		WHERE status NOT IN ('APPROVED', 'CANCELLED')
		GROUP BY priority`)
	if err != nil {
		return nil, fmt.Errorf("workorders: count by priority: %w", err)
	}
	defer rows.Close()

	out := make(map[Priority]int)
	for rows.Next() {
		var p Priority
		var n int
		if err := rows.Scan(&p, &n); err != nil {
			return nil, err
		}
		out[p] = n
	}
	return out, rows.Err()
}

func (r *pgRepository) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM work_orders
		WHERE status NOT IN ('APPROVED', 'CANCELLED')
		  AND created_at < $1 - CASE priority
			WHEN 'CRITICAL' THEN INTERVAL '1 day'
			WHEN 'HIGH' THEN INTERVAL '3 days'
			WHEN 'MEDIUM' THEN INTERVAL '7 days'
			ELSE INTERVAL '14 days'
		END`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("workorders: count overdue: %w", err)
	}
	return n, nil
}
