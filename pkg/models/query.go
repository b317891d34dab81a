package models

import (
	"time"

	"github.com/google/uuid"
)

// Row is a single result row keyed by output column name.
type Row map[string]any

// RewriteOutput is the result of a successful validate-and-rewrite pass.
// FetchLimit is always DisplayLimit+1 so the executor's caller can detect
// that more rows exist without a second COUNT query.
type RewriteOutput struct {
	SQL          string   `json:"sql"`
	Params       []any    `json:"params"`
	DisplayLimit int      `json:"display_limit"`
	FetchLimit   int      `json:"fetch_limit"`
	Tables       []string `json:"tables"` // fully-qualified referenced tables, for audit
}

// ExecutionResult is what the read-only executor returns: the output
// columns in SELECT order and up to FetchLimit rows.
type ExecutionResult struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// AuditRecord captures one pipeline outcome for the audit trail. The raw
// model candidate is deliberately absent; only SQL that passed validation
// is recorded.
type AuditRecord struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     string        `json:"tenant_id"`
	Question     string        `json:"question"`
	SQL          string        `json:"sql,omitempty"`
	Tables       []string      `json:"tables,omitempty"`
	DisplayLimit int           `json:"display_limit,omitempty"`
	FetchLimit   int           `json:"fetch_limit,omitempty"`
	ErrorCode    string        `json:"error_code,omitempty"`
	Duration     time.Duration `json:"duration"`
	CreatedAt    time.Time     `json:"created_at"`
}
