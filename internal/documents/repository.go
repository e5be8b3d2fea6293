package documents

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("record not found")

type Repository interface {
	Get(ctx context.Context, id int64) (*Document, error)
	ListByTenant(ctx context.Context, tenantID int64) ([]Document, error)
	ListByProperty(ctx context.Context, propertyID int64) ([]Document, error)
	Create(ctx context.Context, d Document) (int64, error)
	SetOCRResult(ctx context.Context, id int64, status OCRStatus, text string) error
}

type pgRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const columns = `id, property_id, tenant_id, file_name, storage_key, content_type,
	size_bytes, category, ocr_status, ocr_text, uploaded_by, created_at, updated_at`

func scanDocument(row pgx.Row) (*Document, error) {
	var (
		d        Document
		propID   pgtype.Int8
		tenantID pgtype.Int8
		ocrText  pgtype.Text
	)
	err := row.Scan(&d.ID, &propID, &tenantID, &d.FileName, &d.StorageKey, &d.ContentType,
		&d.SizeBytes, &d.Category, &d.OCRStatus, &ocrText, &d.UploadedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if propID.Valid {
		d.PropertyID = &propID.Int64
	}
	if tenantID.Valid {
		d.TenantID = &tenantID.Int64
	}
	d.OCRText = ocrText.String
	return &d, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (*Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *pgRepository) list(ctx context.Context, query string, arg any) ([]Document, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("documents: list: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *pgRepository) ListByTenant(ctx context.Context, tenantID int64) ([]Document, error) {
	return r.list(ctx, `SELECT `+columns+` FROM documents WHERE tenant_id = $1 ORDER BY created_at DESC`, tenantID)
}

func (r *pgRepository) ListByProperty(ctx context.Context, propertyID int64) ([]Document, error) {
	return r.list(ctx, `SELECT `+columns+` FROM documents WHERE property_id = $1 ORDER BY created_at DESC`, propertyID)
}

func (r *pgRepository) Create(ctx context.Context, d Document) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO documents (property_id, tenant_id, file_name, storage_key, content_type, size_bytes, category, ocr_status, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id`,
		d.PropertyID, d.TenantID, d.FileName, d.StorageKey, d.ContentType,
		d.SizeBytes, d.Category, d.OCRStatus, d.UploadedBy,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("documents: create: %w", err)
	}
	return id, nil
}

func (r *pgRepository) SetOCRResult(ctx context.Context, id int64, status OCRStatus, text string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE documents SET ocr_status = $2, ocr_text = $3, updated_at = now() WHERE id = $1`,
		id, status, text)
	if err != nil {
		return fmt.Errorf("documents: set ocr result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
