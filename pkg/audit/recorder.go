// Package audit persists one record per pipeline outcome in the engine's
// own store. Raw model candidates are never stored; only SQL that passed
// validation appears in the trail.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/models"
)

// Recorder writes audit records.
type Recorder struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewRecorder creates a recorder over the engine store. If logger is nil,
// a no-op logger is used.
func NewRecorder(pool *pgxpool.Pool, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{pool: pool, logger: logger}
}

// Record inserts one audit record. The record's ID is assigned here when
// unset.
func (r *Recorder) Record(ctx context.Context, rec *models.AuditRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	const query = `
		INSERT INTO engine_query_audit
			(id, tenant_id, question, rewritten_sql, referenced_tables,
			 display_limit, fetch_limit, error_code, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.TenantID,
		rec.Question,
		rec.SQL,
		rec.Tables,
		rec.DisplayLimit,
		rec.FetchLimit,
		rec.ErrorCode,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}
