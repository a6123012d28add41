package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	RegisterTestingT(t)

	cfg, err := FromEnv(lookupFrom(nil))
	require.NoError(t, err)

	Expect(cfg.Environment).To(Equal(EnvDevelopment))
	Expect(cfg.Addr()).To(Equal("127.0.0.1:5000"))
	Expect(cfg.MetricsAddr()).To(Equal("127.0.0.1:9091"))
	Expect(cfg.DatabaseURL).To(Equal("sqlite://todo.db"))
	Expect(cfg.SessionTTL).To(Equal(time.Hour))
	Expect(cfg.SecureCookies).To(BeFalse())
	Expect(cfg.RateLimitConfigs).To(HaveKey("POST /login"))
}

func TestFromEnv_ProductionRequiresSecret(t *testing.T) {
	_, err := FromEnv(lookupFrom(map[string]string{"APP_ENV": "production"}))
	assert.Error(t, err)

	cfg, err := FromEnv(lookupFrom(map[string]string{"APP_ENV": "production", "SECRET_KEY": "s3cret"}))
	require.NoError(t, err)
	assert.True(t, cfg.SecureCookies)
	assert.True(t, cfg.EnforceHTTPS)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"DATABASE_URL":       "postgres://u:p@localhost/todo",
		"PORT":               "8080",
		"METRICS_PORT":       "",
		"SESSION_TTL":        "30m",
		"RATE_LIMIT_ENABLED": "false",
		"TRUSTED_PROXIES":    "10.0.0.0/8, ,192.168.1.1",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr())
	assert.Equal(t, "", cfg.MetricsAddr())
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.False(t, cfg.RateLimitEnabled)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1"}, cfg.TrustedProxies)
}

func TestFromEnv_Invalid(t *testing.T) {
	for _, env := range []map[string]string{
		{"APP_ENV": "staging"},
		{"SESSION_TTL": "soon"},
		{"DATABASE_URL": "mysql://x"},
		{"ENFORCE_HTTPS": "maybe"},
	} {
		_, err := FromEnv(lookupFrom(env))
		assert.Error(t, err, env)
	}
}

func TestParseDatabaseURL(t *testing.T) {
	dialect, dsn, err := ParseDatabaseURL("sqlite://data/todo.db")
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", dialect)
	assert.Equal(t, "data/todo.db", dsn)

	dialect, _, err = ParseDatabaseURL("postgresql://localhost/db")
	assert.NoError(t, err)
	assert.Equal(t, "postgres", dialect)

	_, _, err = ParseDatabaseURL("sqlite://")
	assert.Error(t, err)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=6001\n"), 0o600))

	t.Setenv("PORT", "")
	os.Unsetenv("PORT")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "6001", cfg.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
