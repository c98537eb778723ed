package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.True(t, cfg.Server.IsDevelopment())
	assert.Equal(t, 30, cfg.Reports.TopSellingWindowDays)
	assert.Equal(t, 5, cfg.Reports.TopSellingLimit)
	assert.Equal(t, 30*time.Second, cfg.Redis.ReportTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t,
		"host=localhost user=postgres password= dbname=inventory port=5432 sslmode=disable TimeZone=UTC",
		cfg.Database.DSN())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/inventory")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REPORT_CACHE_TTL", "2m")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("TOP_SELLING_WINDOW_DAYS", "7")
	t.Setenv("TOP_SELLING_LIMIT", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Server.IsDevelopment())
	assert.Equal(t, "postgres://u:p@db/inventory", cfg.Database.DSN())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Minute, cfg.Redis.ReportTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, ReportsConfig{TopSellingWindowDays: 7, TopSellingLimit: 10}, cfg.Reports)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"JWT_SECRET": ""}},
		{"zero window", map[string]string{"JWT_SECRET": "s", "TOP_SELLING_WINDOW_DAYS": "0"}},
		{"negative limit", map[string]string{"JWT_SECRET": "s", "TOP_SELLING_LIMIT": "-1"}},
		{"negative ttl", map[string]string{"JWT_SECRET": "s", "REPORT_CACHE_TTL": "-5s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDatabase_NeedsNoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_NAME", "audit")

	db := LoadDatabase()
	assert.Equal(t, "audit", db.Name)
}
