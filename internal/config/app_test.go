package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppConfig_Defaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CODE_RUNTIME_PATH", "")

	c, err := ParseAppConfig()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".dissonance"), c.RuntimePath)
	assert.Equal(t, "http://127.0.0.1:11434", c.OllamaBaseURL)
	assert.Equal(t, "llama3:8b", c.Model)
	assert.Equal(t, 2*time.Minute, c.OllamaTimeout)
	assert.Equal(t, "logician", c.DefaultPersona)
	assert.InDelta(t, 0.7, c.Temperature, 1e-9)
	assert.Equal(t, 50, c.MemorySize)
	assert.Equal(t, 100, c.ResponseCache)
	assert.Equal(t, 3, c.RetryAttempts)
	assert.Equal(t, filepath.Join(home, ".dissonance", "dissonance.db"), c.GetDatabasePath())
	assert.Equal(t, filepath.Join(home, ".dissonance", "exports"), c.GetExportDir())
	assert.Empty(t, c.MetricsAddr)
}

func TestParseAppConfig_Overrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODE_RUNTIME_PATH", dir)
	t.Setenv("CODE_MODEL", "mistral:7b")
	t.Setenv("CODE_MEMORY_SIZE", "10")
	t.Setenv("CODE_RETRY_BASE_DELAY", "250ms")
	t.Setenv("CODE_EXPORT_DIR", "/tmp/out")
	t.Setenv("CODE_METRICS_ADDR", ":9090")

	c, err := ParseAppConfig()
	require.NoError(t, err)

	assert.Equal(t, dir, c.RuntimePath)
	assert.Equal(t, "mistral:7b", c.Model)
	assert.Equal(t, 10, c.MemorySize)
	assert.Equal(t, 250*time.Millisecond, c.RetryBaseDelay)
	assert.Equal(t, "/tmp/out", c.GetExportDir())
	assert.Equal(t, ":9090", c.MetricsAddr)
}

func TestParseAppConfig_Invalid(t *testing.T) {
	t.Setenv("CODE_MEMORY_SIZE", "lots")

	_, err := ParseAppConfig()
	assert.Error(t, err)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CODE_RUNTIME_PATH", dir)
	t.Setenv("CODE_DEFAULT_PERSONA", "")
	require.NoError(t, os.Unsetenv("CODE_DEFAULT_PERSONA"))

	// missing file is fine
	require.NoError(t, LoadEnv())

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CODE_DEFAULT_PERSONA=five_whys\n"), 0o600))
	require.NoError(t, LoadEnv())
	t.Cleanup(func() { os.Unsetenv("CODE_DEFAULT_PERSONA") })

	c, err := ParseAppConfig()
	require.NoError(t, err)
	assert.Equal(t, "five_whys", c.DefaultPersona)
}
