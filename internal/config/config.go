package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPPort    string `yaml:"http_port"`
	BackendURL  string `yaml:"backend_url"`
	CORSOrigins string `yaml:"cors_origins"`
	// Empty keeps the operator action log in memory.
	DatabaseDSN string `yaml:"database_dsn"`

	CookieSecure  bool `yaml:"cookie_secure"`
	CookieMaxDays int  `yaml:"cookie_max_days"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // text | json

	// Zero means no client-side timeout.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	Polling Polling `yaml:"polling"`

	AggregatePolicy      string `yaml:"aggregate_policy"` // fail_fast | best_effort
	DefaultPaymentMethod string `yaml:"default_payment_method"`
}

type Polling struct {
	Orders       time.Duration `yaml:"orders"`
	KiosQueue    time.Duration `yaml:"kios_queue"`
	MonitorQueue time.Duration `yaml:"monitor_queue"`
}

func Defaults() *Config {
	return &Config{
		HTTPPort:      "3000",
		BackendURL:    "http://localhost:8080/api/v1",
		CORSOrigins:   "http://localhost:3000",
		CookieMaxDays: 7,
		LogLevel:      "info",
		LogFormat:     "text",
		Polling: Polling{
			Orders:       5 * time.Second,
			KiosQueue:    3 * time.Second,
			MonitorQueue: 2 * time.Second,
		},
		AggregatePolicy:      "fail_fast",
		DefaultPaymentMethod: "cash",
	}
}

// Load reads CONFIG_FILE (optional YAML) over the defaults, then applies
// environment overrides.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.BackendURL = getEnv("BACKEND_URL", cfg.BackendURL)
	cfg.CORSOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.AggregatePolicy = getEnv("AGGREGATE_POLICY", cfg.AggregatePolicy)
	cfg.DefaultPaymentMethod = getEnv("DEFAULT_PAYMENT_METHOD", cfg.DefaultPaymentMethod)

	var err error
	if cfg.CookieSecure, err = getEnvBool("COOKIE_SECURE", cfg.CookieSecure); err != nil {
		return nil, err
	}
	if cfg.CookieMaxDays, err = getEnvInt("COOKIE_MAX_DAYS", cfg.CookieMaxDays); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	if cfg.Polling.Orders, err = getEnvDuration("POLL_ORDERS", cfg.Polling.Orders); err != nil {
		return nil, err
	}
	if cfg.Polling.KiosQueue, err = getEnvDuration("POLL_KIOS_QUEUE", cfg.Polling.KiosQueue); err != nil {
		return nil, err
	}
	if cfg.Polling.MonitorQueue, err = getEnvDuration("POLL_MONITOR_QUEUE", cfg.Polling.MonitorQueue); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if !cfg.CookieSecure {
		log.Println("[WARN] COOKIE_SECURE is off, session cookies are sent over plain HTTP.")
	}
	if cfg.DatabaseDSN == "" {
		log.Println("[WARN] DATABASE_DSN is empty, operator action log is kept in memory only.")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("config: backend_url is required")
	}
	if c.Polling.Orders <= 0 || c.Polling.KiosQueue <= 0 || c.Polling.MonitorQueue <= 0 {
		return fmt.Errorf("config: polling intervals must be positive")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config: request_timeout must not be negative")
	}
	if c.CookieMaxDays <= 0 {
		return fmt.Errorf("config: cookie_max_days must be positive")
	}
	switch c.AggregatePolicy {
	case "fail_fast", "best_effort":
	default:
		return fmt.Errorf("config: unknown aggregate_policy %q", c.AggregatePolicy)
	}
	switch c.DefaultPaymentMethod {
	case "cash", "card", "digital":
	default:
		return fmt.Errorf("config: unknown default_payment_method %q", c.DefaultPaymentMethod)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
