package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctors-portal-api/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := config.Load("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Zero(t, cfg.CatalogTTL)
	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "8080", cfg.WebPort)
	assert.Equal(t, config.SinkLog, cfg.Notify.Sink)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	_, err := config.Load("testdata/missing.env")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadRejectsUnknownChoices(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")

	t.Run("store", func(t *testing.T) {
		t.Setenv("STORE", "sqlite")
		_, err := config.Load("testdata/missing.env")
		assert.Error(t, err)
	})
	t.Run("sink", func(t *testing.T) {
		t.Setenv("NOTIFY_SINK", "pager")
		_, err := config.Load("testdata/missing.env")
		assert.Error(t, err)
	})
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("STORE", "memory")
	t.Setenv("CATALOG_CACHE_TTL", "15s")
	t.Setenv("NOTIFY_WORKERS", "4")

	cfg, err := config.Load("testdata/missing.env")
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, 15*time.Second, cfg.CatalogTTL)
	assert.Equal(t, 4, cfg.Notify.Workers)
}
