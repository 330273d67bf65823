package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Actor identifies who performed a mutation. Callers resolve it from
// their own session handling and pass it into every mutating call;
// nothing in the engine reads ambient user state.
type Actor struct {
	ID   int64
	Name string
}

// AuditLog represents a record stored in audit_logs.
type AuditLog struct {
	ActorID   int64
	ActorName string
	Action    string
	Entity    string
	EntityID  string
	Meta      map[string]any
	At        time.Time
}

// AuditSink receives audit records after successful mutations.
// Recording is best-effort: a sink failure never rolls back the
// business transaction that produced the record.
type AuditSink interface {
	Record(ctx context.Context, log AuditLog) error
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	at := log.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, actor_name, action, entity, entity_id, meta, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		log.ActorID, log.ActorName, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
