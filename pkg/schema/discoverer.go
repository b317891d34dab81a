package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Discoverer introspects the target datasource and builds snapshots.
type Discoverer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewDiscoverer creates a discoverer over the datasource pool. If logger is
// nil, a no-op logger is used.
func NewDiscoverer(pool *pgxpool.Pool, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{pool: pool, logger: logger}
}

// Snapshot reads every user table and view with its columns and builds an
// immutable snapshot. Views sort ahead of base tables so snapshot order
// matches the prompt order.
func (d *Discoverer) Snapshot(ctx context.Context) (*Snapshot, error) {
	const query = `
		SELECT
			c.table_schema,
			c.table_name,
			t.table_type = 'VIEW' AS is_view,
			c.column_name
		FROM information_schema.columns c
		JOIN information_schema.tables t
			ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
		  AND t.table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY (t.table_type = 'VIEW') DESC, c.table_schema, c.table_name, c.ordinal_position
	`

	rows, err := d.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query schema columns: %w", err)
	}
	defer rows.Close()

	var (
		tables  []*Table
		curKey  string
		curCols []string
		curMeta struct {
			schemaName string
			tableName  string
			isView     bool
		}
	)
	flush := func() {
		if curKey == "" {
			return
		}
		tables = append(tables, NewTable(curMeta.schemaName, curMeta.tableName, curMeta.isView, curCols))
	}

	for rows.Next() {
		var schemaName, tableName, columnName string
		var isView bool
		if err := rows.Scan(&schemaName, &tableName, &isView, &columnName); err != nil {
			return nil, fmt.Errorf("scan schema column: %w", err)
		}
		key := schemaName + "." + tableName
		if key != curKey {
			flush()
			curKey = key
			curCols = nil
			curMeta.schemaName = schemaName
			curMeta.tableName = tableName
			curMeta.isView = isView
		}
		curCols = append(curCols, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema columns: %w", err)
	}
	flush()

	snap := NewSnapshot(time.Now().UTC(), tables)
	d.logger.Info("schema snapshot built",
		zap.Int("tables", len(tables)),
		zap.Time("refreshed_at", snap.RefreshedAt))
	return snap, nil
}
