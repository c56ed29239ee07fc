package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "API_KEY", "SEED_ENABLED", "SEED_CUSTOMERS", "SEED_RANDOM_SEED"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, DefaultAPIKey, cfg.APIKey)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, 10, cfg.Seed.Customers)
	assert.Equal(t, int64(0), cfg.Seed.RandomSeed)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("API_KEY", " secret ")
	t.Setenv("SEED_ENABLED", "off")
	t.Setenv("SEED_CUSTOMERS", "25")
	t.Setenv("SEED_MAX_INVOICES", "-1")
	t.Setenv("SEED_RANDOM_SEED", "42")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.False(t, cfg.Seed.Enabled)
	assert.Equal(t, 25, cfg.Seed.Customers)
	assert.Equal(t, 5, cfg.Seed.MaxInvoices)
	assert.Equal(t, int64(42), cfg.Seed.RandomSeed)
}

func newTestViper(t *testing.T, dir string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigName("security")
	v.SetConfigType("yml")
	v.AddConfigPath(dir)
	return v
}

func TestSecurityHolderFallsBackWithoutFile(t *testing.T) {
	t.Setenv("CUSTOMERDESK_SECURITY_APIKEY", "")

	holder, err := newSecurityHolder(newTestViper(t, t.TempDir()), "fallback-key", zap.NewNop(), false)
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", holder.APIKey())
}

func TestSecurityHolderReadsFile(t *testing.T) {
	t.Setenv("CUSTOMERDESK_SECURITY_APIKEY", "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "security.yml"), []byte("security:\n  apiKey: from-file\n"), 0o600))

	holder, err := newSecurityHolder(newTestViper(t, dir), "fallback-key", zap.NewNop(), false)
	require.NoError(t, err)
	assert.Equal(t, "from-file", holder.APIKey())
}

func TestSecurityHolderEnvOverride(t *testing.T) {
	t.Setenv("CUSTOMERDESK_SECURITY_APIKEY", "from-env")

	holder, err := newSecurityHolder(newTestViper(t, t.TempDir()), "fallback-key", zap.NewNop(), false)
	require.NoError(t, err)
	assert.Equal(t, "from-env", holder.APIKey())
}

func TestSecurityHolderRejectsEmptyKey(t *testing.T) {
	_, err := NewStaticSecurityHolder("  ")
	assert.ErrorIs(t, err, ErrEmptyAPIKey)

	holder, err := NewStaticSecurityHolder("first")
	require.NoError(t, err)
	assert.ErrorIs(t, holder.Store(""), ErrEmptyAPIKey)
	assert.Equal(t, "first", holder.APIKey())

	require.NoError(t, holder.Store("second"))
	assert.Equal(t, "second", holder.APIKey())
}
