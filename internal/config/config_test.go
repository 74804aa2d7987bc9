package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chesshash/internal/logger"
)

// isolate runs the test from an empty directory with no home config and no
// CHESSHASH_* variables.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			require.NoError(t, os.Unsetenv(name))
		}
	}
	return dir
}

func TestDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("", logger.Void())
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Hash)
	assert.Equal(t, 1, cfg.Threads)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "dev", cfg.LogHandler)
	assert.True(t, cfg.Persist)
	assert.False(t, cfg.Explicit(KeyHash))
}

func TestYAMLFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hash: 128\nthreads: 4\npersist: false\n"), 0o644))

	cfg, err := Load(path, logger.Void())
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Hash)
	assert.Equal(t, 4, cfg.Threads)
	assert.False(t, cfg.Persist)
	assert.True(t, cfg.Explicit(KeyHash))
	assert.False(t, cfg.Explicit(KeyLogLevel))
}

func TestSearchedJSONFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chesshash.json"),
		[]byte(`{"log-level": "debug", "threads": 2}`), 0o644))

	cfg, err := Load("", logger.Void())
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2, cfg.Threads)
}

func TestExtensionlessJSON(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "engine")
	require.NoError(t, os.WriteFile(path, []byte(`{"hash": 64}`), 0o644))

	cfg, err := Load(path, logger.Void())
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Hash)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "engine.yml")
	require.NoError(t, os.WriteFile(path, []byte("hash: 128\nlog-handler: json\n"), 0o644))
	t.Setenv("CHESSHASH_HASH", "256")
	t.Setenv("CHESSHASH_DATA_DIR", "/var/lib/chesshash")

	cfg, err := Load(path, logger.Void())
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.Hash)
	assert.Equal(t, "json", cfg.LogHandler)
	assert.Equal(t, "/var/lib/chesshash", cfg.DataDir)
	assert.True(t, cfg.Explicit(KeyDataDir))
}

func TestMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"), logger.Void())
	require.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	isolate(t)
	t.Setenv("CHESSHASH_THREADS", "0")
	_, err := Load("", logger.Void())
	require.ErrorIs(t, err, ErrInvalid)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "log-level", envKey("CHESSHASH_LOG_LEVEL"))
	assert.Equal(t, "hash", envKey("CHESSHASH_HASH"))
}
