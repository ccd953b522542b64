package config

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "root:@tcp(localhost:3306)/hospital?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Database.DSN)
	assert.Equal(t, 90, cfg.Booking.MaxAdvanceDays)
	assert.Equal(t, time.Minute, cfg.SlotCacheTTL())
	assert.True(t, cfg.IsDevelopment())

	level, err := cfg.Isolation()
	require.NoError(t, err)
	assert.Equal(t, sql.LevelSerializable, level)
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file:test.db")
	t.Setenv("CLINIC_TIMEZONE", "Europe/Berlin")
	t.Setenv("BOOKING_MAX_ADVANCE_DAYS", "30")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.DSN)
	assert.Equal(t, 30, cfg.Booking.MaxAdvanceDays)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"8080\"\nbooking:\n  max_advance_days: 14\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 14, cfg.Booking.MaxAdvanceDays)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("CLINIC_TIMEZONE", "Mars/Olympus")
	_, err := LoadConfig("")
	assert.Error(t, err)

	t.Setenv("CLINIC_TIMEZONE", "UTC")
	t.Setenv("DB_TX_ISOLATION", "chaos")
	_, err = LoadConfig("")
	assert.Error(t, err)

	t.Setenv("DB_TX_ISOLATION", "read-committed")
	t.Setenv("DB_DRIVER", "postgres")
	_, err = LoadConfig("")
	assert.Error(t, err)
}
