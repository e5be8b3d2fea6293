package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const auditInsert = `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`

// AuditLog is one row destined for audit_logs. Meta holds whatever the
// caller wants preserved alongside the action, serialized as JSONB.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

func (a AuditLog) validate() error {
	if a.Action == "" || a.Entity == "" || a.EntityID == "" {
		return errors.New("audit log requires action, entity and entity_id")
	}
	return nil
}

// AuditLogger appends entries to the audit trail. Entity mutations and
// permission-sensitive operations all route through here.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the entry. A zero At timestamps the row server-side.
func (l *AuditLogger) Record(ctx context.Context, entry AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if err := entry.validate(); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	var at any
	if !entry.At.IsZero() {
		at = entry.At
	}
	_, err = l.pool.Exec(ctx, auditInsert, entry.ActorID, entry.Action, entry.Entity, entry.EntityID, metaJSON, at)
	return err
}
