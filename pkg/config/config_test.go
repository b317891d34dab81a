package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 5000, cfg.Guardrails.StatementTimeoutMs)
	assert.Equal(t, 100, cfg.Guardrails.HardRowCap)
	assert.Equal(t, 100, cfg.Guardrails.MaxPageSize)
	assert.Equal(t, 300, cfg.Schema.RefreshPeriodSeconds)
	assert.Equal(t, "anthropic", cfg.AI.Provider)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STATEMENT_TIMEOUT_MS", "2500")
	t.Setenv("HARD_ROW_CAP", "50")
	t.Setenv("MAX_PAGE_SIZE", "25")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("PGPASSWORD", "hunter2")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, 2500, cfg.Guardrails.StatementTimeoutMs)
	assert.Equal(t, 50, cfg.Guardrails.HardRowCap)
	assert.Equal(t, 25, cfg.Guardrails.MaxPageSize)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestLoad_RejectsInvalidGuardrails(t *testing.T) {
	t.Setenv("HARD_ROW_CAP", "0")
	_, err := Load("test")
	assert.Error(t, err)
}

func TestConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", db.ConnectionString())

	ds := DatasourceConfig{Host: "h2", Port: 5433, User: "ro", Password: "p2", Database: "warehouse", SSLMode: "require"}
	assert.Equal(t, "host=h2 port=5433 user=ro password=p2 dbname=warehouse sslmode=require", ds.ConnectionString())
}
