package sql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/querygate-io/querygate-engine/pkg/schema"
)

// testSnapshot mirrors the canonical fixture: two tenant-bearing tables
// with mixed-case columns.
func testSnapshot() *schema.Snapshot {
	return schema.NewSnapshot(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), []*schema.Table{
		schema.NewTable("public", "users", false, []string{"id", "name", "companyId", "organizationId", "password"}),
		schema.NewTable("public", "payments", false, []string{"id", "userId", "amount", "organizationId"}),
		schema.NewTable("public", "countries", false, []string{"code", "name"}),
	})
}

// mustParse parses a known-good statement for stage-level tests.
func mustParse(t *testing.T, query string) *Statement {
	t.Helper()
	stmt, err := Parse(query)
	require.NoError(t, err)
	return stmt
}
