package llm

import (
	"fmt"
	"strings"
)

const systemPromptTemplate = `You translate questions into PostgreSQL SELECT statements.

Rules:
- Produce exactly one SELECT statement, nothing else.
- Use only these tables and columns:
%s
- Name every output column explicitly; never use *.
- Use INNER JOIN or LEFT JOIN only, always with an ON condition.
- Do not add OFFSET. A LIMIT is optional.
- Do not use semicolons, comments, CTEs, or subqueries.

Reply with the SQL only.`

// BuildSystemPrompt renders the system prompt with the snapshot's schema
// context.
func BuildSystemPrompt(schemaContext string) string {
	return fmt.Sprintf(systemPromptTemplate, schemaContext)
}

// ExtractSQL strips the markdown fences models like to wrap SQL in and
// returns the bare candidate.
func ExtractSQL(raw string) string {
	out := strings.TrimSpace(raw)
	if strings.HasPrefix(out, "```") {
		out = strings.TrimPrefix(out, "```sql")
		out = strings.TrimPrefix(out, "```")
		if idx := strings.LastIndex(out, "```"); idx >= 0 {
			out = out[:idx]
		}
	}
	return strings.TrimSpace(out)
}
