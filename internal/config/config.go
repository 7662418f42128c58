package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/pricepulse/wbradar/pkg/config"
)

// Config holds all configuration for the crawler service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"wbradar"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"wbradar_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"wbradar_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Crawler
	WorkerCount        int  `env:"CRAWLER_WORKER_COUNT" envDefault:"100"`
	RequestLimit       int  `env:"CRAWLER_REQUEST_LIMIT" envDefault:"200"`
	QueueSize          int  `env:"CRAWLER_QUEUE_SIZE" envDefault:"1000"`
	HTTPTimeoutSeconds int  `env:"CRAWLER_HTTP_TIMEOUT_SECONDS" envDefault:"30"`
	RetryAttempts      int  `env:"CRAWLER_RETRY_ATTEMPTS" envDefault:"10"`
	InsecureTLS        bool `env:"CRAWLER_INSECURE_TLS" envDefault:"false"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load crawler config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}
	if cfg.PostgresHost == "" {
		return nil, fmt.Errorf("POSTGRES_HOST is required")
	}
	if cfg.PostgresUser == "" {
		return nil, fmt.Errorf("POSTGRES_USER is required")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("CRAWLER_WORKER_COUNT must be positive, got %d", cfg.WorkerCount)
	}
	if cfg.RequestLimit < 1 {
		return nil, fmt.Errorf("CRAWLER_REQUEST_LIMIT must be positive, got %d", cfg.RequestLimit)
	}
	if cfg.RetryAttempts < 1 {
		return nil, fmt.Errorf("CRAWLER_RETRY_ATTEMPTS must be positive, got %d", cfg.RetryAttempts)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS is required")
	}
	if cfg.OTELSampleRate < 0 || cfg.OTELSampleRate > 1.0 {
		return nil, fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", cfg.OTELSampleRate)
	}
	return cfg, nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}

// HTTPTimeout returns the marketplace HTTP client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
