package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	c := NewDefaultConfig()

	assert.Equal(t, DefaultAPIPrefix, c.Server.APIPrefix)
	assert.Equal(t, 30*time.Second, c.RequestTimeout())
	assert.Equal(t, 4, c.Sync.Concurrency)
	assert.Equal(t, 1000, c.Sync.PageSize)
	assert.Equal(t, "search", c.Sync.IncidentSource)
	assert.Zero(t, c.Server.RateLimit)
	assert.True(t, c.LogsToFile())
	assert.False(t, c.LogsToConsole())
	assert.NoError(t, c.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
timeout = "5s"

[sync]
concurrency = 2

[logging]
level = "debug"
output = ["console"]
`)

	c, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.RequestTimeout())
	assert.Equal(t, 2, c.Sync.Concurrency)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.True(t, c.LogsToConsole())
	// Untouched keys keep their defaults
	assert.Equal(t, DefaultAPIPrefix, c.Server.APIPrefix)
	assert.Equal(t, 1000, c.Sync.PageSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[sync]\nconcurrency = 2\n")
	t.Setenv("SPIRA_SYNC_CONCURRENCY", "8")
	t.Setenv("SPIRA_LOG_OUTPUT", "file, console")
	t.Setenv("SPIRA_TIMEOUT", "0")
	t.Setenv("SPIRA_RATE_LIMIT", "5")
	t.Setenv("SPIRA_INCIDENT_SOURCE", "assigned")

	c, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, 8, c.Sync.Concurrency)
	assert.Equal(t, []string{"file", "console"}, c.Logging.Output)
	assert.Equal(t, time.Duration(0), c.RequestTimeout())
	assert.Equal(t, 5, c.Server.RateLimit)
	assert.Equal(t, "assigned", c.Sync.IncidentSource)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, "[sync\nconcurrency = ")

	_, err := Load(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{"zero concurrency", "[sync]\nconcurrency = 0\n", "Concurrency"},
		{"bad level", "[logging]\nlevel = \"loud\"\n", "Level"},
		{"bad output", "[logging]\noutput = [\"syslog\"]\n", "Output"},
		{"bad timeout", "[server]\ntimeout = \"soon\"\n", "Timeout"},
		{"negative rate limit", "[server]\nrate_limit = -1\n", "RateLimit"},
		{"bad incident source", "[sync]\nincident_source = \"magic\"\n", "IncidentSource"},
		{"prefix without slash", "[server]\napi_prefix = \"services\"\n", "APIPrefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	c := NewDefaultConfig()

	ApplyFlagOverrides(c, "", nil)
	assert.Equal(t, "info", c.Logging.Level)

	ApplyFlagOverrides(c, "error", []string{"console"})
	assert.Equal(t, "error", c.Logging.Level)
	assert.Equal(t, []string{"console"}, c.Logging.Output)
}
