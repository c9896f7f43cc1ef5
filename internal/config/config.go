package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the Insight reporting service.
type Config struct {
	Server    ServerConfig
	Upstream  UpstreamConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Report    ReportConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

// UpstreamConfig points at the backend REST API that serves the two raw
// collections.
type UpstreamConfig struct {
	BaseURL     string
	ReportsPath string
	ClientsPath string
	Timeout     time.Duration
	MaxRetries  int
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ReportConfig carries the aggregation-pipeline knobs: pagination, the
// default date window, the budget display policy and the KPI preference key.
type ReportConfig struct {
	PageSize         int
	DefaultRangeDays int
	DefaultBudget    string
	BudgetOverrides  map[int64]string
	KPIKey           string
}

type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("INSIGHT_HTTP_ADDR", ":8080"),
			Env:             getEnv("INSIGHT_ENV", "development"),
			ShutdownTimeout: getDurationEnv("INSIGHT_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL:     getEnv("INSIGHT_UPSTREAM_URL", "http://localhost:5655"),
			ReportsPath: getEnv("INSIGHT_UPSTREAM_REPORTS_PATH", "/api/CampaignDailyReports"),
			ClientsPath: getEnv("INSIGHT_UPSTREAM_CLIENTS_PATH", "/api/Clients"),
			Timeout:     getDurationEnv("INSIGHT_UPSTREAM_TIMEOUT", 15*time.Second),
			MaxRetries:  getIntEnv("INSIGHT_UPSTREAM_RETRIES", 3),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolEnv("INSIGHT_DB_ENABLED", true),
			Host:     getEnv("INSIGHT_DB_HOST", "localhost"),
			Port:     getIntEnv("INSIGHT_DB_PORT", 5432),
			User:     getEnv("INSIGHT_DB_USER", "insight"),
			Password: getEnv("INSIGHT_DB_PASSWORD", "insight_secret"),
			DBName:   getEnv("INSIGHT_DB_NAME", "insight"),
			SSLMode:  getEnv("INSIGHT_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("INSIGHT_DB_MAX_CONNS", 10),
			MinConns: getIntEnv("INSIGHT_DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("INSIGHT_REDIS_ENABLED", true),
			Addr:     getEnv("INSIGHT_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("INSIGHT_REDIS_PASSWORD", ""),
			DB:       getIntEnv("INSIGHT_REDIS_DB", 0),
		},
		Report: ReportConfig{
			PageSize:         getIntEnv("INSIGHT_REPORT_PAGE_SIZE", 10),
			DefaultRangeDays: getIntEnv("INSIGHT_REPORT_RANGE_DAYS", 10),
			DefaultBudget:    getEnv("INSIGHT_REPORT_DEFAULT_BUDGET", "$5.00"),
			BudgetOverrides:  getBudgetOverrides("INSIGHT_REPORT_BUDGET_OVERRIDES", map[int64]string{123459: "$3.00"}),
			KPIKey:           getEnv("INSIGHT_REPORT_KPI_KEY", "insight:kpi_target"),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBoolEnv("INSIGHT_RATE_LIMIT_ENABLED", true),
			RPS:     getFloatEnv("INSIGHT_RATE_LIMIT_RPS", 100),
			Burst:   getIntEnv("INSIGHT_RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("INSIGHT_LOG_LEVEL", "info"),
			Format: getEnv("INSIGHT_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("INSIGHT_METRICS_ENABLED", true),
			Path:    getEnv("INSIGHT_METRICS_PATH", "/metrics"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present and coherent.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("INSIGHT_UPSTREAM_URL is required")
	}
	if c.Report.PageSize <= 0 {
		return fmt.Errorf("INSIGHT_REPORT_PAGE_SIZE must be positive, got %d", c.Report.PageSize)
	}
	if c.Report.DefaultRangeDays <= 0 {
		return fmt.Errorf("INSIGHT_REPORT_RANGE_DAYS must be positive, got %d", c.Report.DefaultRangeDays)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// getBudgetOverrides parses "id=label" pairs separated by commas, e.g.
// "123459=$3.00,123460=$4.00".
func getBudgetOverrides(key string, def map[int64]string) map[int64]string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	out := make(map[int64]string)
	for _, pair := range strings.Split(v, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
		if err != nil {
			continue
		}
		out[id] = strings.TrimSpace(parts[1])
	}
	if len(out) == 0 {
		return def
	}
	return out
}
