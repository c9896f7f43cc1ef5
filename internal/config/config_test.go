package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "/api/CampaignDailyReports", cfg.Upstream.ReportsPath)
	assert.Equal(t, 10, cfg.Report.PageSize)
	assert.Equal(t, 10, cfg.Report.DefaultRangeDays)
	assert.Equal(t, "$5.00", cfg.Report.DefaultBudget)
	assert.Equal(t, "$3.00", cfg.Report.BudgetOverrides[123459])
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INSIGHT_HTTP_ADDR", ":9090")
	t.Setenv("INSIGHT_REPORT_PAGE_SIZE", "25")
	t.Setenv("INSIGHT_REPORT_BUDGET_OVERRIDES", "111=$1.00, 222=$2.50")
	t.Setenv("INSIGHT_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Report.PageSize)
	assert.Equal(t, "$1.00", cfg.Report.BudgetOverrides[111])
	assert.Equal(t, "$2.50", cfg.Report.BudgetOverrides[222])
	assert.False(t, cfg.IsDevelopment())
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("INSIGHT_REPORT_PAGE_SIZE", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "u", Password: "p",
		DBName: "insight", SSLMode: "require",
	}
	assert.Equal(t, "postgres://u:p@db.internal:5433/insight?sslmode=require", d.DSN())
}
