package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Ranking.TopK)
	assert.Equal(t, 15*time.Second, cfg.Formatter.Timeout)
	assert.Equal(t, "badger", cfg.Pantry.Backend)
	assert.Equal(t, "file", cfg.Audit.Backend)
	assert.Equal(t, "match_logs", cfg.Audit.Dir)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	assert.False(t, cfg.OpenRouter.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PANTRY_BACKEND", "Memory")
	t.Setenv("APP_RANKING_TOP_K", "5")
	t.Setenv("OPENROUTER_API_KEY", "sk-test-1234567890")
	t.Setenv("OPENROUTER_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Pantry.Backend)
	assert.Equal(t, 5, cfg.Ranking.TopK)
	assert.True(t, cfg.OpenRouter.Enabled)
	assert.Equal(t, "sk-t...7890", MaskAPIKey(cfg.OpenRouter.APIKey))
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("APP_AUDIT_DIR=custom_logs\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("APP_AUDIT_DIR") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom_logs", cfg.Audit.Dir)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad port", "PORT", "0"},
		{"bad backend", "PANTRY_BACKEND", "mongo"},
		{"bad top_k", "APP_RANKING_TOP_K", "0"},
		{"bad audit backend", "APP_AUDIT_BACKEND", "s3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "abcd...wxyz", MaskAPIKey("abcdefghijklmnopqrstuvwxyz"))
}
