package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"

	devSecretKey = "dev-secret-key-change-in-production"
)

type AppConfig struct {
	Environment string
	SecretKey   string

	DatabaseURL  string
	DBLogQueries bool
	RedisURL     string

	Host        string
	Port        string
	MetricsPort string

	SessionTTL    time.Duration
	SecureCookies bool

	OTLPEndpoint string
	LogLevel     string
	AuditLogPath string

	RateLimitEnabled bool
	RateLimitConfigs map[string]RateLimitConfig

	EnforceHTTPS bool
	MaxBodyBytes int64

	// TrustedProxies lists proxy CIDRs whose forwarding headers gin honours
	// for ClientIP. Empty trusts none.
	TrustedProxies []string
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment:      EnvDevelopment,
		SecretKey:        devSecretKey,
		DatabaseURL:      "sqlite://todo.db",
		Host:             "127.0.0.1",
		Port:             "5000",
		MetricsPort:      "9091",
		SessionTTL:       time.Hour,
		LogLevel:         "info",
		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"POST /register": {Requests: 5, Window: time.Minute},
			"POST /login":    {Requests: 10, Window: time.Minute},
			"default":        {Requests: 120, Window: time.Minute},
		},
		MaxBodyBytes: 16 * 1024,
	}
}

// Load reads envFile when it exists, then the environment. Values already
// present in the environment win over the file.
func Load(envFile string) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	return FromEnv(os.LookupEnv)
}

func FromEnv(lookup func(string) (string, bool)) (*AppConfig, error) {
	cfg := GetDefaultConfig()

	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("APP_ENV"); ok {
		cfg.Environment = strings.ToLower(v)
	}

	switch cfg.Environment {
	case EnvDevelopment, EnvTesting:
	case EnvProduction:
		cfg.SecureCookies = true
		cfg.EnforceHTTPS = true
		cfg.SecretKey = ""
	default:
		return nil, fmt.Errorf("unknown APP_ENV %q", cfg.Environment)
	}

	if cfg.Environment == EnvTesting {
		cfg.DatabaseURL = "sqlite://:memory:"
		cfg.RateLimitEnabled = false
		cfg.MetricsPort = ""
	}

	if v, ok := get("SECRET_KEY"); ok {
		cfg.SecretKey = v
	}

	if cfg.SecretKey == "" {
		return nil, errors.New("SECRET_KEY must be set in production")
	}

	if v, ok := get("DATABASE_URL"); ok {
		cfg.DatabaseURL = v
	}

	if _, _, err := ParseDatabaseURL(cfg.DatabaseURL); err != nil {
		return nil, err
	}

	if v, ok := get("REDIS_URL"); ok {
		cfg.RedisURL = v
	}

	if v, ok := get("HOST"); ok {
		cfg.Host = v
	}

	if v, ok := get("PORT"); ok {
		cfg.Port = v
	}

	if v, ok := lookup("METRICS_PORT"); ok {
		cfg.MetricsPort = strings.TrimSpace(v)
	}

	if v, ok := get("SESSION_TTL"); ok {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL %q", v)
		}
		cfg.SessionTTL = ttl
	}

	if v, ok := get("OTLP_ENDPOINT"); ok {
		cfg.OTLPEndpoint = v
	}

	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}

	if v, ok := get("AUDIT_LOG_PATH"); ok {
		cfg.AuditLogPath = v
	}

	if v, ok := get("TRUSTED_PROXIES"); ok {
		for _, proxy := range strings.Split(v, ",") {
			if proxy = strings.TrimSpace(proxy); proxy != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, proxy)
			}
		}
	}

	boolVars := map[string]*bool{
		"DB_LOG_QUERIES":     &cfg.DBLogQueries,
		"ENFORCE_HTTPS":      &cfg.EnforceHTTPS,
		"RATE_LIMIT_ENABLED": &cfg.RateLimitEnabled,
		"SECURE_COOKIES":     &cfg.SecureCookies,
	}

	for key, target := range boolVars {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s %q", key, v)
			}
			*target = b
		}
	}

	return cfg, nil
}

func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *AppConfig) MetricsAddr() string {
	if c.MetricsPort == "" {
		return ""
	}

	return net.JoinHostPort(c.Host, c.MetricsPort)
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == EnvProduction
}

// ParseDatabaseURL splits sqlite://path and postgres:// URLs into a
// dialect and the driver-level data source.
func ParseDatabaseURL(raw string) (dialect string, dsn string, err error) {
	switch {
	case strings.HasPrefix(raw, "sqlite://"):
		path := strings.TrimPrefix(raw, "sqlite://")
		if path == "" {
			return "", "", errors.New("DATABASE_URL: sqlite path is empty")
		}
		return "sqlite", path, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return "postgres", raw, nil
	default:
		return "", "", fmt.Errorf("DATABASE_URL: unsupported scheme in %q", raw)
	}
}
