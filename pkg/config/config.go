package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Tracing  TracingConfig
	Reports  ReportsConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

// IsDevelopment switches the logger to console output.
func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// DSN prefers DATABASE_URL and otherwise builds a key/value DSN from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode, d.TimeZone,
	)
}

type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// ReportTTL bounds how stale a cached dashboard may be.
	ReportTTL time.Duration
}

// Enabled is false when no address is configured; the service then runs without a cache.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type TracingConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

type ReportsConfig struct {
	TopSellingWindowDays int
	TopSellingLimit      int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "inventory")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("JWT_ISSUER", "stockledger")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REPORT_CACHE_TTL", "30s")
	v.SetDefault("KAFKA_TOPIC", "stock-movements")
	v.SetDefault("OTEL_SERVICE_NAME", "stockledger")
	v.SetDefault("TOP_SELLING_WINDOW_DAYS", 30)
	v.SetDefault("TOP_SELLING_LIMIT", 5)
}

// Load reads an optional .env file, then the process environment.
// Environment variables always win over .env entries.
func Load() (*Config, error) {
	v := newViper()

	ttl := v.GetDuration("REPORT_CACHE_TTL")
	if ttl < 0 {
		return nil, fmt.Errorf("REPORT_CACHE_TTL must not be negative, got %s", ttl)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("PORT"),
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Database: databaseConfig(v),
		Auth: AuthConfig{
			JWTSecret: v.GetString("JWT_SECRET"),
			JWTIssuer: v.GetString("JWT_ISSUER"),
		},
		Redis: RedisConfig{
			Addr:      v.GetString("REDIS_ADDR"),
			Password:  v.GetString("REDIS_PASSWORD"),
			DB:        v.GetInt("REDIS_DB"),
			ReportTTL: ttl,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Tracing: TracingConfig{
			ServiceName:  v.GetString("OTEL_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
		Reports: ReportsConfig{
			TopSellingWindowDays: v.GetInt("TOP_SELLING_WINDOW_DAYS"),
			TopSellingLimit:      v.GetInt("TOP_SELLING_LIMIT"),
		},
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Reports.TopSellingWindowDays <= 0 || cfg.Reports.TopSellingLimit <= 0 {
		return nil, fmt.Errorf("TOP_SELLING_WINDOW_DAYS and TOP_SELLING_LIMIT must be positive")
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools that need nothing else.
func LoadDatabase() DatabaseConfig {
	return databaseConfig(newViper())
}

func newViper() *viper.Viper {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return v
}

func databaseConfig(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		URL:      v.GetString("DATABASE_URL"),
		Host:     v.GetString("DB_HOST"),
		Port:     v.GetString("DB_PORT"),
		User:     v.GetString("DB_USER"),
		Password: v.GetString("DB_PASSWORD"),
		Name:     v.GetString("DB_NAME"),
		SSLMode:  v.GetString("DB_SSLMODE"),
		TimeZone: v.GetString("DB_TIMEZONE"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
