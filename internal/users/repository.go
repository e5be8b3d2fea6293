package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ultra-bms/ultra-bms/internal/authz"
	"github.com/ultra-bms/ultra-bms/internal/platform/db"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Repository interface {
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, req ListUsersRequest) ([]User, int, error)
	Create(ctx context.Context, u User) (int64, error)
	Update(ctx context.Context, u User) error
	SetRole(ctx context.Context, id int64, role authz.Role) error
	SetActive(ctx context.Context, id int64, active bool) error
	AssignedPropertyIDs(ctx context.Context, userID int64) ([]int64, error)
	ReplacePropertyAssignments(ctx context.Context, userID int64, propertyIDs []int64) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const userColumns = `id, email, full_name, password_hash, role, phone, is_active, tenant_id, vendor_id, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var (
		u                  User
		role               string
		phone              pgtype.Text
		tenantID, vendorID pgtype.Int8
	)
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &phone,
		&u.IsActive, &tenantID, &vendorID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = authz.Role(role)
	if phone.Valid {
		u.Phone = &phone.String
	}
	if tenantID.Valid {
		u.TenantID = &tenantID.Int64
	}
	if vendorID.Valid {
		u.VendorID = &vendorID.Int64
	}
	return &u, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *pgRepository) List(ctx context.Context, req ListUsersRequest) ([]User, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argPos))
		args = append(args, string(req.Role))
		argPos++
	}
	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}
	if req.Search != "" {
		pattern := "%" + req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(email ILIKE $%d OR full_name ILIKE $%d)", argPos, argPos))
		args = append(args, pattern)
		argPos++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("users: count: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users%s ORDER BY full_name LIMIT $%d OFFSET $%d`,
		where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (r *pgRepository) Create(ctx context.Context, u User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash, role, phone, is_active, tenant_id, vendor_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id`,
		u.Email, u.FullName, u.PasswordHash, string(u.Role), u.Phone, u.IsActive, u.TenantID, u.VendorID,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("users: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) Update(ctx context.Context, u User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET full_name = $2, phone = $3, updated_at = now() WHERE id = $1`,
		u.ID, u.FullName, u.Phone)
	if err != nil {
		return fmt.Errorf("users: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) SetRole(ctx context.Context, id int64, role authz.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, string(role))
	if err != nil {
		return fmt.Errorf("users: set role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepository) AssignedPropertyIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT property_id FROM property_managers WHERE user_id = $1 ORDER BY property_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("users: assignments: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *pgRepository) ReplacePropertyAssignments(ctx context.Context, userID int64, propertyIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM property_managers WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, propertyID := range propertyIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO property_managers (user_id, property_id, created_at) VALUES ($1, $2, now())`,
				userID, propertyID); err != nil {
				return err
			}
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
