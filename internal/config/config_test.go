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

	assert.Equal(t, "ws://localhost:8080", cfg.ServerURL)
	assert.Equal(t, "duelclient.db", cfg.StorePath)
	assert.Equal(t, "127.0.0.1:8090", cfg.ControlAddr)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.BubbleFade)
	assert.Equal(t, 1900*time.Millisecond, cfg.BubbleHide)
	assert.Equal(t, time.Second, cfg.JoinLock)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DUEL_SERVER_URL", "https://duel.example")
	t.Setenv("DUEL_GAME_CODE", "ABC")
	t.Setenv("DUEL_LOG_DEV", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://duel.example", cfg.ServerURL)
	assert.Equal(t, "ABC", cfg.GameCode)
	assert.True(t, cfg.LogDev)
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DUEL_STORE_PATH=/tmp/from-file.db\n"), 0o600))
	// godotenv only fills unset variables; t.Setenv restores the original after.
	t.Setenv("DUEL_STORE_PATH", "")
	os.Unsetenv("DUEL_STORE_PATH")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-file.db", cfg.StorePath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration":   {"DUEL_WRITE_TIMEOUT": "soon"},
		"bad scheme":     {"DUEL_SERVER_URL": "ftp://x"},
		"no host":        {"DUEL_SERVER_URL": "ws://"},
		"hide too short": {"DUEL_BUBBLE_FADE": "2s", "DUEL_BUBBLE_HIDE": "1s"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
