package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stepcheck.yml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultLogsDir, cfg.LogsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Empty(t, cfg.BaseURL)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
base_url: http://localhost:8080
timeout: 5s
log_level: DEBUG
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultLogsDir, cfg.LogsDir)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "base_url: http://from-file.test\ntimeout: 5s\n")
	t.Setenv("STEPCHECK_BASE_URL", "http://from-env.test")
	t.Setenv("STEPCHECK_TIMEOUT", "12s")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://from-env.test", cfg.BaseURL)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "bad log level",
			env:     map[string]string{"STEPCHECK_LOG_LEVEL": "verbose"},
			wantErr: "LogLevel",
		},
		{
			name:    "bad base url",
			env:     map[string]string{"STEPCHECK_BASE_URL": "not a url"},
			wantErr: "BaseURL",
		},
		{
			name:    "zero timeout",
			env:     map[string]string{"STEPCHECK_TIMEOUT": "0s"},
			wantErr: "Timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load("")

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
