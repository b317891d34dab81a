package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

const (
	testTenant  = "org_1"
	testHardCap = 100
)

func runPipeline(t *testing.T, candidate string, page, pageSize int) (*Pipeline, string, []any, int, int) {
	t.Helper()
	p := NewPipeline(0, nil)
	out, err := p.ValidateAndRewrite(candidate, testSnapshot(), testTenant, page, pageSize, testHardCap)
	require.NoError(t, err)
	return p, out.SQL, out.Params, out.DisplayLimit, out.FetchLimit
}

func TestPipeline_SimpleSelect(t *testing.T) {
	_, rendered, params, display, fetch := runPipeline(t,
		"SELECT u.id, u.name FROM users u ORDER BY u.id", 1, 2)

	assert.Contains(t, rendered, `"organizationId" = $1`)
	assert.True(t, strings.HasSuffix(rendered, "LIMIT 3 OFFSET 0"), "got %s", rendered)
	assert.Equal(t, []any{"org_1"}, params)
	assert.Equal(t, 2, display)
	assert.Equal(t, 3, fetch)
}

func TestPipeline_CanonicalizesTenantColumn(t *testing.T) {
	_, rendered, _, _, _ := runPipeline(t,
		"SELECT u.organizationid FROM users u ORDER BY u.organizationid", 1, 5)

	assert.Contains(t, rendered, `"organizationId"`)
	assert.NotContains(t, rendered, "organizationid")
}

func TestPipeline_LeftJoinTenantPlacement(t *testing.T) {
	_, rendered, params, _, _ := runPipeline(t,
		"SELECT u.id, p.amount FROM users u LEFT JOIN payments p ON p.userId = u.id ORDER BY u.id", 1, 10)

	wherePos := strings.Index(rendered, " WHERE ")
	require.Positive(t, wherePos, "rendered SQL must have a WHERE clause: %s", rendered)
	joinPart := rendered[:wherePos]
	wherePart := rendered[wherePos:]

	assert.Contains(t, joinPart, `p."organizationId" = $1`)
	assert.Contains(t, wherePart, `u."organizationId" = $1`)
	assert.NotContains(t, wherePart, `p."organizationId" = $1`)
	assert.Equal(t, []any{"org_1"}, params)
}

func TestPipeline_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		code      apperrors.Code
	}{
		{"wildcard", "SELECT * FROM users", apperrors.CodeWildcard},
		{"sensitive column", "SELECT u.password FROM users u", apperrors.CodeSensitiveColumn},
		{"offset", "SELECT u.id FROM users u LIMIT 10 OFFSET 20", apperrors.CodeOffsetNotAllowed},
		{"side effect function", "SELECT nextval('public.seq_users') FROM users", apperrors.CodeSideEffectFn},
		{"right join", "SELECT p.id FROM users u RIGHT JOIN payments p ON p.userId = u.id", apperrors.CodeJoinUnsupported},
		{"multi statement", "SELECT u.id FROM users u; SELECT 1", apperrors.CodeSemicolon},
		{"cte", "WITH t AS (SELECT id FROM users) SELECT id FROM t", apperrors.CodeCTENotSupported},
		{"unknown table", "SELECT o.id FROM orders o", apperrors.CodeTableUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPipeline(0, nil)
			_, err := p.ValidateAndRewrite(tt.candidate, testSnapshot(), testTenant, 1, 10, testHardCap)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err), "got %v", err)
		})
	}
}

func TestPipeline_TenantValidation(t *testing.T) {
	p := NewPipeline(0, nil)

	_, err := p.ValidateAndRewrite("SELECT u.id FROM users u", testSnapshot(), "", 1, 10, testHardCap)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTenantInvalid, apperrors.CodeOf(err))

	_, err = p.ValidateAndRewrite("SELECT u.id FROM users u", testSnapshot(), "' OR '1'='1", 1, 10, testHardCap)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeTenantInvalid, apperrors.CodeOf(err))
}

func TestPipeline_ModelLimitOneWithLargePageSize(t *testing.T) {
	_, rendered, _, display, fetch := runPipeline(t,
		"SELECT u.id FROM users u LIMIT 1", 1, 100)

	assert.Equal(t, 1, display)
	assert.Equal(t, 2, fetch)
	assert.True(t, strings.HasSuffix(rendered, "LIMIT 2 OFFSET 0"), "got %s", rendered)
}

func TestPipeline_TrailingSemicolonTolerated(t *testing.T) {
	_, rendered, _, _, _ := runPipeline(t, "SELECT u.id FROM users u;", 1, 10)
	assert.NotContains(t, rendered, ";")
}

func TestPipeline_Deterministic(t *testing.T) {
	p := NewPipeline(0, nil)
	first, err := p.ValidateAndRewrite("SELECT u.id FROM users u ORDER BY u.id", testSnapshot(), testTenant, 2, 10, testHardCap)
	require.NoError(t, err)
	second, err := p.ValidateAndRewrite("SELECT u.id FROM users u ORDER BY u.id", testSnapshot(), testTenant, 2, 10, testHardCap)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Re-running the pipeline on its own output always rejects: the injected
// tenant parameter reads as a model-supplied placeholder, and for queries
// without one the injected OFFSET trips the pagination rule. That is the
// documented policy for the idempotence question.
func TestPipeline_OutputRejectedOnSecondPass(t *testing.T) {
	t.Run("tenant parameter trips first", func(t *testing.T) {
		p, rendered, _, _, _ := runPipeline(t, "SELECT u.id FROM users u ORDER BY u.id", 1, 10)

		_, err := p.ValidateAndRewrite(rendered, testSnapshot(), testTenant, 1, 10, testHardCap)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeParameterNotAllowed, apperrors.CodeOf(err))
	})

	t.Run("injected offset trips without tenant targets", func(t *testing.T) {
		p, rendered, params, _, _ := runPipeline(t, "SELECT c.code FROM countries c ORDER BY c.code", 1, 10)
		require.Empty(t, params)

		_, err := p.ValidateAndRewrite(rendered, testSnapshot(), testTenant, 1, 10, testHardCap)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeOffsetNotAllowed, apperrors.CodeOf(err))
	})
}

func TestPipeline_EmittedSQLSatisfiesInvariants(t *testing.T) {
	_, rendered, params, display, fetch := runPipeline(t,
		"SELECT u.id, p.amount FROM users u INNER JOIN payments p ON p.userId = u.id WHERE p.amount > 0 ORDER BY u.id", 3, 25)

	// No guard tokens survive rewriting.
	assert.NotContains(t, rendered, ";")
	assert.NotContains(t, rendered, "--")
	assert.NotContains(t, rendered, "/*")

	// Exactly one positional parameter exists; both predicates share it.
	assert.Equal(t, []any{"org_1"}, params)
	assert.Contains(t, rendered, "$1")
	assert.NotContains(t, rendered, "$2")

	// Both tenant-bearing aliases filtered.
	assert.Contains(t, rendered, `u."organizationId" = $1`)
	assert.Contains(t, rendered, `p."organizationId" = $1`)

	// Pagination contract.
	assert.Equal(t, display+1, fetch)
	assert.True(t, strings.HasSuffix(rendered, "LIMIT 26 OFFSET 50"), "got %s", rendered)

	// The output still parses as a single SELECT.
	reparsed, err := Parse(rendered)
	require.NoError(t, err)
	require.NotNil(t, reparsed.Select())
}
