// Package logging holds the sanitizers applied before SQL text or
// connection strings reach a log line.
package logging

import "regexp"

const (
	// MaxQueryLogLength caps how much of a query is logged.
	MaxQueryLogLength = 200
	// RedactedText replaces anything that looks like a credential.
	RedactedText = "[REDACTED]"
)

var (
	// password=..., pwd=..., pass=... up to the next delimiter
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host inside a URL-style DSN
	dsnCredentialsPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// quoted string literals inside SQL; row values never belong in logs
	stringLiteralPattern = regexp.MustCompile(`'(?:[^']|'')*'`)
)

// SanitizeDSN removes credentials from a connection string before logging.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	out := passwordPattern.ReplaceAllString(dsn, "${1}="+RedactedText)
	return dsnCredentialsPattern.ReplaceAllString(out, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeQuery truncates a SQL query and blanks its string literals. The
// query shape is what matters for debugging; literal values may carry
// tenant data.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	out := stringLiteralPattern.ReplaceAllString(query, "'"+RedactedText+"'")
	if len(out) > MaxQueryLogLength {
		out = out[:MaxQueryLogLength] + "..."
	}
	return out
}

// SanitizeError scrubs an error message that may embed a DSN or SQL
// fragment.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	out := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	return dsnCredentialsPattern.ReplaceAllString(out, "://"+RedactedText+"@"+RedactedText)
}
