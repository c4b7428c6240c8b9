package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yummyfi/yummyfi-backend/models"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.MonitorInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", loc.String())

	policy, err := cfg.CancelPolicy()
	require.NoError(t, err)
	assert.True(t, policy.Allows(models.ActorUser, models.StatusPending))
	assert.False(t, policy.Allows(models.ActorUser, models.StatusConfirmed))
	assert.True(t, policy.Allows(models.ActorAdmin, models.StatusReady))
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yamlFile := filepath.Join(dir, "yummyfi.yaml")
	require.NoError(t, os.WriteFile(yamlFile, []byte(`
port: "9000"
admin_emails:
  - owner@yummyfi.in
sheets_web_app_url: https://script.google.com/macros/s/abc/exec
sweep_interval: 5m
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PORT=9100\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("CONFIG_FILE", yamlFile)
	t.Setenv("PORT", "9200")
	t.Setenv("CUSTOMER_CANCEL_STATES", "pending, confirmed")
	// Registered for restore, then removed so .env can supply it.
	t.Setenv("LOG_LEVEL", "info")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9200", cfg.Port, "environment wins over .env and file")
	assert.Equal(t, "debug", cfg.LogLevel, ".env fills unset keys")
	assert.Equal(t, []string{"owner@yummyfi.in"}, cfg.AdminEmails)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "https://script.google.com/macros/s/abc/exec", cfg.SheetsWebAppURL)

	policy, err := cfg.CancelPolicy()
	require.NoError(t, err)
	assert.True(t, policy.Allows(models.ActorUser, models.StatusConfirmed))
	assert.False(t, policy.Allows(models.ActorUser, models.StatusReady))
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"time zone":     {"BUSINESS_TZ", "Mars/Olympus"},
		"cancel states": {"CUSTOMER_CANCEL_STATES", "completed"},
		"driver":        {"DB_DRIVER", "postgres"},
		"duration":      {"TOKEN_TTL", "a while"},
		"redis db":      {"REDIS_DB", "zero"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("CONFIG_FILE", "")
			t.Setenv(kv[0], kv[1])

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEmptyCancelStatesDisablesCustomerCancel(t *testing.T) {
	cfg := Defaults()
	cfg.CustomerCancelStates = nil

	policy, err := cfg.CancelPolicy()
	require.NoError(t, err)
	assert.False(t, policy.Allows(models.ActorUser, models.StatusPending))
}

func TestOpenDBSQLite(t *testing.T) {
	cfg := Defaults()
	cfg.DBDSN = filepath.Join(t.TempDir(), "test.db")
	cfg.GinMode = "test"

	db, err := OpenDB(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
	assert.NoError(t, sqlDB.Close())
}
