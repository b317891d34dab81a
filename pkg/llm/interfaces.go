// Package llm turns natural-language questions into candidate SQL via a
// configured model provider. Candidates are untrusted input; everything a
// generator returns goes through the safety pipeline before it can touch
// the database.
package llm

import "context"

// SQLGenerator produces a candidate SQL string for a question given the
// schema context. Implementations must not execute anything.
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, question, schemaContext string) (string, error)
}

// Ensure implementations satisfy SQLGenerator at compile time.
var (
	_ SQLGenerator = (*AnthropicGenerator)(nil)
	_ SQLGenerator = (*OpenAIGenerator)(nil)
	_ SQLGenerator = (*MockGenerator)(nil)
)
