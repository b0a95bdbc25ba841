package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("NEAR_EXPIRY_DAYS", "")
	t.Setenv("ADMIN_PIN", "")
	t.Setenv("DATABASE_URL", "")
	os.Unsetenv("ADMIN_PIN")
	os.Unsetenv("DATABASE_URL")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Tracker.NearExpiryDays)
	assert.Equal(t, DefaultAdminPIN, cfg.Auth.AdminPIN)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.NoError(t, cfg.Validate())
}

func TestNew_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tracker:
  near_expiry_days: 14
auth:
  admin_pin: "9999"
storage:
  driver: memory
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("NEAR_EXPIRY_DAYS", "7")
	os.Unsetenv("ADMIN_PIN")
	os.Unsetenv("STORAGE_DRIVER")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Tracker.NearExpiryDays, "env wins over file")
	assert.Equal(t, "9999", cfg.Auth.AdminPIN, "file wins over defaults")
	assert.Equal(t, StorageDriverMemory, cfg.Storage.Driver)
}

func TestNew_BadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := New()
	assert.Error(t, err)
}

func TestNormalizeDSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@h/db", normalizeDSN("postgresql://u:p@h/db"))
	assert.Equal(t, "postgres://u:p@h/db", normalizeDSN("postgres://u:p@h/db"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: true},
		{name: "negative threshold", mutate: func(c *Config) { c.Tracker.NearExpiryDays = -1 }, wantErr: true},
		{name: "empty pin", mutate: func(c *Config) { c.Auth.AdminPIN = " " }, wantErr: true},
		{
			name: "production with placeholders",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
			},
			wantErr: true,
		},
		{
			name: "production with real secrets",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Auth.SessionSecret = "a-long-random-secret"
				c.Auth.AdminPIN = "482913"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_TrustProxy(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TRUST_PROXY", "")
	cfg, err := New()
	require.NoError(t, err)
	assert.False(t, cfg.Server.TrustProxy)

	t.Setenv("TRUST_PROXY", "true")
	cfg, err = New()
	require.NoError(t, err)
	assert.True(t, cfg.Server.TrustProxy)
}
