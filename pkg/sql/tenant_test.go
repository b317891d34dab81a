package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolveFixture(t *testing.T, query string) (*Statement, *Resolution) {
	t.Helper()
	stmt := mustParse(t, query)
	res, err := Resolve(stmt, testSnapshot())
	require.NoError(t, err)
	return stmt, res
}

func TestInjectTenantFilters_LeadingTableGoesToWhere(t *testing.T) {
	stmt, res := resolveFixture(t, "SELECT u.id FROM users u")
	targets := InjectTenantFilters(stmt, res)
	require.Len(t, targets, 1)
	assert.Equal(t, "u", targets[0].Alias)
	assert.Equal(t, "organizationId", targets[0].Column)

	rendered, err := Serialize(stmt)
	require.NoError(t, err)
	assert.Contains(t, rendered, `WHERE u."organizationId" = $1`)
}

func TestInjectTenantFilters_PreservesExistingWhere(t *testing.T) {
	stmt, res := resolveFixture(t, "SELECT u.id FROM users u WHERE u.id > 10")
	InjectTenantFilters(stmt, res)

	rendered, err := Serialize(stmt)
	require.NoError(t, err)
	assert.Contains(t, rendered, "u.id > 10")
	assert.Contains(t, rendered, `"organizationId" = $1`)
	assert.Contains(t, rendered, " AND ")
}

func TestInjectTenantFilters_LeftJoinGoesToOn(t *testing.T) {
	stmt, res := resolveFixture(t, "SELECT u.id, p.amount FROM users u LEFT JOIN payments p ON p.userid = u.id")
	targets := InjectTenantFilters(stmt, res)
	require.Len(t, targets, 2)

	rendered, err := Serialize(stmt)
	require.NoError(t, err)

	wherePos := strings.Index(rendered, " WHERE ")
	require.Positive(t, wherePos, "rendered SQL must have a WHERE clause: %s", rendered)
	joinPart := rendered[:wherePos]
	wherePart := rendered[wherePos:]

	assert.Contains(t, joinPart, `p."organizationId" = $1`)
	assert.Contains(t, wherePart, `u."organizationId" = $1`)
	assert.NotContains(t, wherePart, `p."organizationId"`)
}

func TestInjectTenantFilters_InnerJoinGoesToWhere(t *testing.T) {
	stmt, res := resolveFixture(t, "SELECT u.id, p.amount FROM users u INNER JOIN payments p ON p.userid = u.id")
	targets := InjectTenantFilters(stmt, res)
	require.Len(t, targets, 2)

	rendered, err := Serialize(stmt)
	require.NoError(t, err)

	wherePos := strings.Index(rendered, " WHERE ")
	require.Positive(t, wherePos)
	wherePart := rendered[wherePos:]
	assert.Contains(t, wherePart, `u."organizationId" = $1`)
	assert.Contains(t, wherePart, `p."organizationId" = $1`)
}

func TestTenantParams_SingleValueRegardlessOfTargets(t *testing.T) {
	stmt, res := resolveFixture(t, "SELECT u.id, p.amount FROM users u INNER JOIN payments p ON p.userid = u.id")
	targets := InjectTenantFilters(stmt, res)
	require.Len(t, targets, 2)

	params := TenantParams(targets, "org_1")
	assert.Equal(t, []any{"org_1"}, params)
}

func TestTenantParams_EmptyWithoutTargets(t *testing.T) {
	assert.Nil(t, TenantParams(nil, "org_1"))
}
