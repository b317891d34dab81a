package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.Code
	}{
		{"undefined column", &pgconn.PgError{Code: "42703", Message: "column does not exist"}, apperrors.CodeDBSchemaError},
		{"undefined table", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, apperrors.CodeDBSchemaError},
		{"ambiguous column", &pgconn.PgError{Code: "42702", Message: "column reference is ambiguous"}, apperrors.CodeDBSchemaError},
		{"unknown function", &pgconn.PgError{Code: "42883", Message: "function does not exist"}, apperrors.CodeDBSchemaError},
		{"invalid column reference", &pgconn.PgError{Code: "42P10", Message: "invalid reference"}, apperrors.CodeDBSchemaError},
		{"syntax error", &pgconn.PgError{Code: "42601", Message: "syntax error"}, apperrors.CodeDBSchemaError},
		{"permission denied", &pgconn.PgError{Code: "42501", Message: "permission denied for function"}, apperrors.CodeDBOther},
		{"message mentions relation", errors.New(`relation "users" is gone`), apperrors.CodeDBSchemaError},
		{"message mentions syntax error", errors.New("syntax error at or near FROM"), apperrors.CodeDBSchemaError},
		{"connection failure", errors.New("connection refused"), apperrors.CodeDBOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := mapDBError(tt.err)
			assert.Equal(t, tt.code, apperrors.CodeOf(mapped))
			assert.ErrorIs(t, mapped, tt.err, "cause is preserved")
		})
	}
}

func TestMapDBError_PassesThroughPipelineErrors(t *testing.T) {
	original := apperrors.New(apperrors.CodeSemicolon, "semicolons are not allowed")
	assert.Same(t, error(original), mapDBError(original))
}

func TestExecute_RefusesGuardedSQLBeforeTouchingPool(t *testing.T) {
	// A nil pool proves the guard runs first: reaching the pool would
	// panic.
	exec := NewReadOnlyExecutor(nil, 0, nil)

	_, err := exec.Execute(context.Background(), "DELETE FROM users", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeDisallowedKeyword, apperrors.CodeOf(err))

	_, err = exec.Execute(context.Background(), "SELECT 1; SELECT 2", nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSemicolon, apperrors.CodeOf(err))
}
