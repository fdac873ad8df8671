package poolconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileFailsValidationOfDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadAppliesDefaultsAndKeepsExtra(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"remotes": ["r1:", "r2:"],
		"use_crypt": false,
		"future_field": "kept"
	}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1:", "r2:"}, cfg.Remotes)
	assert.EqualValues(t, 104857600, cfg.ChunkSize)
	assert.Equal(t, "rclonepool_data", cfg.DataPrefix)
	assert.Equal(t, StrategyLeastUsed, cfg.BalancingStrategy)
	require.Contains(t, cfg.Extra, "future_field")
}

func TestActiveRemotesPrefersCrypt(t *testing.T) {
	cfg := defaults()
	cfg.Remotes = []string{"base:"}
	cfg.CryptRemotes = []string{"crypt:"}
	cfg.UseCrypt = true
	assert.Equal(t, []string{"crypt:"}, cfg.ActiveRemotes())

	cfg.UseCrypt = false
	assert.Equal(t, []string{"base:"}, cfg.ActiveRemotes())
}

func TestValidateRejectsBadRemoteName(t *testing.T) {
	cfg := defaults()
	cfg.Remotes = []string{"no-colon"}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestSaveRoundTripsExtra(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"remotes":["a:"],"custom_key":42}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	out := filepath.Join(dir, "out.json")
	require.NoError(t, cfg.Save(out))

	reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Remotes, reloaded.Remotes)
	require.Contains(t, reloaded.Extra, "custom_key")
}
