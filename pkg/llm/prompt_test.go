package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt_EmbedsSchemaContext(t *testing.T) {
	out := BuildSystemPrompt("public.users (id, name)")
	assert.Contains(t, out, "public.users (id, name)")
	assert.Contains(t, out, "SELECT")
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare sql",
			input: "SELECT u.id FROM users u",
			want:  "SELECT u.id FROM users u",
		},
		{
			name:  "sql fence",
			input: "```sql\nSELECT u.id FROM users u\n```",
			want:  "SELECT u.id FROM users u",
		},
		{
			name:  "plain fence",
			input: "```\nSELECT 1\n```",
			want:  "SELECT 1",
		},
		{
			name:  "surrounding whitespace",
			input: "\n  SELECT 1  \n",
			want:  "SELECT 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractSQL(tt.input))
		})
	}
}
