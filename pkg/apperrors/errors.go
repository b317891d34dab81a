// Package apperrors defines the structured error type shared by the query
// pipeline. Every failure carries a machine-readable code so the outer
// caller can route on it without matching message strings.
package apperrors

import (
	"errors"
	"fmt"
)

// Code identifies a pipeline failure kind.
type Code string

// Guard codes.
const (
	CodeSemicolon           Code = "SEMICOLON"
	CodeComment             Code = "COMMENT"
	CodeDisallowedKeyword   Code = "DISALLOWED_KEYWORD"
	CodeRowLock             Code = "ROW_LOCK"
	CodeSideEffectFn        Code = "SIDE_EFFECT_FN"
	CodeInternalRewriteLeak Code = "INTERNAL_REWRITE_LEAK"
)

// Parse codes.
const (
	CodeParseError      Code = "PARSE_ERROR"
	CodeMultiStatement  Code = "MULTI_STATEMENT"
	CodeNotSelect       Code = "NOT_SELECT"
	CodeCTENotSupported Code = "CTE_NOT_SUPPORTED"
	CodeSelectInto      Code = "SELECT_INTO"
)

// Resolve codes.
const (
	CodeFromUnsupported      Code = "FROM_UNSUPPORTED"
	CodeSubqueryNotSupported Code = "SUBQUERY_NOT_SUPPORTED"
	CodeTableMissing         Code = "TABLE_MISSING"
	CodeTableUnknown         Code = "TABLE_UNKNOWN"
	CodeJoinUnsupported      Code = "JOIN_UNSUPPORTED"
	CodeAliasUnknown         Code = "ALIAS_UNKNOWN"
	CodeColumnUnsupported    Code = "COLUMN_UNSUPPORTED"
	CodeWildcard             Code = "WILDCARD"
	CodeParameterNotAllowed  Code = "PARAMETER_NOT_ALLOWED"
	CodeSensitiveColumn      Code = "SENSITIVE_COLUMN"
	CodeColumnUnknown        Code = "COLUMN_UNKNOWN"
	CodeColumnAmbiguous      Code = "COLUMN_AMBIGUOUS"
	CodeColumnNoSource       Code = "COLUMN_NO_SOURCE"
)

// Pagination codes.
const (
	CodeOffsetNotAllowed Code = "OFFSET_NOT_ALLOWED"
	CodeLimitNotNumeric  Code = "LIMIT_NOT_NUMERIC"
	CodeLimitInvalid     Code = "LIMIT_INVALID"
)

// Input and execution codes.
const (
	CodeTenantInvalid Code = "TENANT_INVALID"
	CodeDBSchemaError Code = "DB_SCHEMA_ERROR"
	CodeDBOther       Code = "DB_OTHER"
)

// QueryError is the single structured error variant used across the
// pipeline. The cause, when present, is preserved for %w unwrapping but is
// never part of the caller-facing message.
type QueryError struct {
	Code    Code
	Message string
	cause   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.cause
}

// New creates a QueryError with the given code and message.
func New(code Code, message string) *QueryError {
	return &QueryError{Code: code, Message: message}
}

// Newf creates a QueryError with a formatted message.
func Newf(code Code, format string, args ...any) *QueryError {
	return &QueryError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a QueryError that preserves cause for errors.Is/As chains.
func Wrap(code Code, message string, cause error) *QueryError {
	return &QueryError{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from err, or empty string when err is not a
// QueryError.
func CodeOf(err error) Code {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsExecution reports whether the code belongs to the execution stage.
// Everything else is a validation failure the caller may feed back to the
// model for a corrected candidate.
func IsExecution(code Code) bool {
	return code == CodeDBSchemaError || code == CodeDBOther
}
