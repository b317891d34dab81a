package logging

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeDSN(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "keyword form",
			input: "host=db port=5432 user=app password=hunter2 dbname=prod",
			want:  "host=db port=5432 user=app password=[REDACTED] dbname=prod",
		},
		{
			name:  "url form",
			input: "postgres://app:hunter2@db:5432/prod",
			want:  "postgres://[REDACTED]@[REDACTED]/prod",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeDSN(tt.input))
		})
	}
}

func TestSanitizeQuery_BlanksLiteralsAndTruncates(t *testing.T) {
	out := SanitizeQuery("SELECT u.id FROM users u WHERE u.name = 'Ada Lovelace'")
	assert.NotContains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "[REDACTED]")

	long := "SELECT " + strings.Repeat("u.id, ", 100) + "u.id FROM users u"
	out = SanitizeQuery(long)
	assert.LessOrEqual(t, len(out), MaxQueryLogLength+3)
	assert.True(t, strings.HasSuffix(out, "..."))
}

func TestSanitizeError(t *testing.T) {
	assert.Equal(t, "", SanitizeError(nil))

	err := errors.New("connect to postgres://app:hunter2@db/prod failed")
	assert.NotContains(t, SanitizeError(err), "hunter2")
}
