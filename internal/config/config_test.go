package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envVars = []string{
	"PORT", "DB_TYPE", "DB_DSN", "STORAGE_TYPE", "STORAGE_ROOT",
	"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_PREFIX", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"REDIS_ADDR", "REDIS_PASSWORD", "RENDER_QUALITY",
}

// clearEnv sets every variable Load reads to "", which envOrDefault
// treats as unset.
func clearEnv(t *testing.T) {
	for _, key := range envVars {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, 92, cfg.Render.Quality)
	assert.Equal(t, 0.5, cfg.Editor.NormalMoveAmount)
	assert.Equal(t, 1.0, cfg.Editor.ShiftMoveAmount)
	assert.True(t, cfg.Editor.DefaultBackgroundVisible)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: "8081"
cache:
  ttl: 90s
  redis_addr: localhost:6379
editor:
  normal_move_amount: 0.25
  shift_move_amount: 2
  default_background_visible: false
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.RenderTTL)
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 0.25, cfg.Editor.NormalMoveAmount)
	assert.Equal(t, 2.0, cfg.Editor.ShiftMoveAmount)
	assert.False(t, cfg.Editor.DefaultBackgroundVisible)
	// untouched sections keep their defaults
	assert.Equal(t, "sqlite", cfg.Database.Type)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server:\n  port: \"8081\"\n")
	t.Setenv("PORT", "9000")
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_DSN", "user:pw@tcp(db:3306)/certs")
	t.Setenv("RENDER_QUALITY", "75")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, "user:pw@tcp(db:3306)/certs", cfg.Database.DSN)
	assert.Equal(t, 75, cfg.Render.Quality)
}

func TestInvalidConfig(t *testing.T) {
	clearEnv(t)

	_, err := LoadFile(writeConfig(t, "server: [oops"))
	assert.Error(t, err)

	_, err = LoadFile(writeConfig(t, "storage:\n  type: s3\n"))
	assert.ErrorContains(t, err, "bucket")

	_, err = LoadFile(writeConfig(t, "editor:\n  normal_move_amount: 0\n"))
	assert.ErrorContains(t, err, "editor settings")

	t.Setenv("RENDER_QUALITY", "high")
	_, err = LoadFile(writeConfig(t, ""))
	assert.ErrorContains(t, err, "RENDER_QUALITY")
}
