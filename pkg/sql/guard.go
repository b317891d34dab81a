// Package sql implements the candidate-to-executable safety pipeline:
// lexical guard, parse, reference resolution, tenant-filter injection,
// pagination rewrite, and serialization. Stages run strictly forward; the
// same inputs always produce the same rewritten SQL and parameter list.
package sql

import (
	"regexp"
	"strings"

	"github.com/querygate-io/querygate-engine/pkg/apperrors"
)

var (
	commentPattern = regexp.MustCompile(`--|/\*`)

	// Word-boundary match keeps columns like create_time out of scope: the
	// underscore is a word character, so "create" inside it never matches.
	disallowedKeywordPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|truncate|create|grant|revoke|exec|execute|copy|call|do|merge|replace|upsert|vacuum|analyze|reindex|cluster|discard|checkpoint)\b`)

	rowLockPattern = regexp.MustCompile(`(?i)\bfor\s+(no\s+key\s+update|key\s+share|update|share)\b`)

	sideEffectFnPattern = regexp.MustCompile(`(?i)\b(nextval|setval|pg_advisory_lock|pg_advisory_xact_lock|pg_sleep)\s*\(`)
)

// Normalize trims whitespace and strips a single trailing semicolon, the
// one semicolon a well-behaved model legitimately emits. Any semicolon
// that survives normalization is treated as a second statement.
func Normalize(candidate string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(candidate), " \t\n\r")
	if strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimRight(strings.TrimSuffix(trimmed, ";"), " \t\n\r")
	}
	return trimmed
}

// Guard is the coarse token-level filter applied before parsing and again
// after serialization. It may reject SQL that would have been safe; it
// must never pass SQL that is not.
func Guard(query string) error {
	if strings.Contains(query, ";") {
		return apperrors.New(apperrors.CodeSemicolon, "semicolons are not allowed")
	}
	if loc := commentPattern.FindString(query); loc != "" {
		return apperrors.Newf(apperrors.CodeComment, "comment marker %q is not allowed", loc)
	}
	// Row locks are checked before keywords: "FOR UPDATE" contains the
	// disallowed keyword "update" and would otherwise never report ROW_LOCK.
	if lock := rowLockPattern.FindString(query); lock != "" {
		return apperrors.Newf(apperrors.CodeRowLock, "row locking clause %q is not allowed", strings.ToUpper(lock))
	}
	if kw := disallowedKeywordPattern.FindString(query); kw != "" {
		return apperrors.Newf(apperrors.CodeDisallowedKeyword, "keyword %q is not allowed in read-only queries", strings.ToUpper(kw))
	}
	if fn := sideEffectFnPattern.FindString(query); fn != "" {
		name := strings.TrimSpace(strings.TrimSuffix(fn, "("))
		return apperrors.Newf(apperrors.CodeSideEffectFn, "function %q has side effects", strings.ToLower(name))
	}
	return nil
}

// GuardRewritten re-applies the guard to serializer output. A violation
// here is a rewriter bug, not user input, so every kind collapses into
// INTERNAL_REWRITE_LEAK.
func GuardRewritten(query string) error {
	if err := Guard(query); err != nil {
		return apperrors.Wrap(apperrors.CodeInternalRewriteLeak, "rewritten SQL failed the lexical guard", err)
	}
	return nil
}
