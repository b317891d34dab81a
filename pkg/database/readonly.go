package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
	"github.com/querygate-io/querygate-engine/pkg/logging"
	"github.com/querygate-io/querygate-engine/pkg/models"
	enginesql "github.com/querygate-io/querygate-engine/pkg/sql"
)

// schemaErrorCodes are the PostgreSQL SQLSTATEs that mean the generated
// query disagrees with the live schema (undefined column/table, ambiguous
// column, unknown function, invalid reference, syntax).
var schemaErrorCodes = map[string]struct{}{
	"42703": {},
	"42P01": {},
	"42702": {},
	"42883": {},
	"42P10": {},
	"42601": {},
}

// ReadOnlyExecutor runs rewritten queries inside a read-only transaction
// with a statement timeout. The transaction's access mode is the last
// line of defense: even if every rewrite stage were bypassed, the server
// rejects writes.
type ReadOnlyExecutor struct {
	pool             *pgxpool.Pool
	statementTimeout time.Duration
	logger           *zap.Logger
}

// NewReadOnlyExecutor creates an executor over the datasource pool. If
// logger is nil, a no-op logger is used.
func NewReadOnlyExecutor(pool *pgxpool.Pool, statementTimeout time.Duration, logger *zap.Logger) *ReadOnlyExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadOnlyExecutor{pool: pool, statementTimeout: statementTimeout, logger: logger}
}

// Execute runs a parameterized query and returns up to fetch-limit rows.
// The lexical guard is re-applied first: the executor refuses anything the
// orchestrator would have refused, no matter who constructed the SQL.
func (e *ReadOnlyExecutor) Execute(ctx context.Context, sqlText string, params []any) (*models.ExecutionResult, error) {
	if err := enginesql.Guard(sqlText); err != nil {
		return nil, err
	}

	conn, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, mapDBError(err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		// Rollback failures are swallowed; the connection release above
		// resets session state either way.
		_ = tx.Rollback(context.WithoutCancel(ctx))
	}()

	timeoutMs := e.statementTimeout.Milliseconds()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", timeoutMs)); err != nil {
		return nil, mapDBError(err)
	}

	rows, err := tx.Query(ctx, sqlText, params...)
	if err != nil {
		return nil, mapDBError(err)
	}

	result, err := collectRows(rows)
	if err != nil {
		e.logger.Warn("query failed", zap.String("error", logging.SanitizeError(err)))
		return nil, mapDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, mapDBError(err)
	}
	committed = true

	return result, nil
}

func collectRows(rows pgx.Rows) (*models.ExecutionResult, error) {
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	collected := make([]models.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		collected = append(collected, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &models.ExecutionResult{Columns: columns, Rows: collected}, nil
}

// mapDBError classifies database failures: schema disagreements become
// DB_SCHEMA_ERROR (the caller may feed those back to the model), anything
// else DB_OTHER. Errors that already carry a pipeline code pass through.
func mapDBError(err error) error {
	if code := apperrors.CodeOf(err); code != "" {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := schemaErrorCodes[pgErr.Code]; ok {
			return apperrors.Wrap(apperrors.CodeDBSchemaError, pgErr.Message, err)
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "column") || strings.Contains(msg, "relation") || strings.Contains(msg, "syntax error") {
		return apperrors.Wrap(apperrors.CodeDBSchemaError, "query disagrees with the database schema", err)
	}
	return apperrors.Wrap(apperrors.CodeDBOther, "query execution failed", err)
}
