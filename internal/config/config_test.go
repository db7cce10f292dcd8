package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"BANKCHAT_SERVER_URL",
	"BANKCHAT_CLIENT_TIMEOUT",
	"BANKCHAT_MAX_FILE_BYTES",
	"BANKCHAT_ORDERING",
	"BANKCHAT_LOG_FILE",
	"BANKCHAT_LOG_LEVEL",
}

// isolate clears the environment and points BANKCHAT_CONFIG at path.
func isolate(t *testing.T, path string) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("BANKCHAT_CONFIG", path)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.ClientTimeout)
	assert.Equal(t, int64(20<<20), cfg.MaxFileBytes)
	assert.Equal(t, OrderingArrival, cfg.Ordering)
	assert.Equal(t, "/tmp/bankchat.log", cfg.LogFile)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server_url: http://engine.internal:9000/
client_timeout: 5s
max_file_bytes: 1024
ordering: submission
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	isolate(t, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://engine.internal:9000", cfg.ServerURL, "trailing slash trimmed")
	assert.Equal(t, 5*time.Second, cfg.ClientTimeout)
	assert.Equal(t, int64(1024), cfg.MaxFileBytes)
	assert.Equal(t, OrderingSubmission, cfg.Ordering)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)

	t.Setenv("BANKCHAT_SERVER_URL", "http://override:1")
	t.Setenv("BANKCHAT_CLIENT_TIMEOUT", "12s")
	t.Setenv("BANKCHAT_MAX_FILE_BYTES", "2048")
	t.Setenv("BANKCHAT_ORDERING", "ARRIVAL")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "http://override:1", cfg.ServerURL)
	assert.Equal(t, 12*time.Second, cfg.ClientTimeout)
	assert.Equal(t, int64(2048), cfg.MaxFileBytes)
	assert.Equal(t, OrderingArrival, cfg.Ordering)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"timeout not a duration", "BANKCHAT_CLIENT_TIMEOUT", "soon"},
		{"negative timeout", "BANKCHAT_CLIENT_TIMEOUT", "-1s"},
		{"max bytes not a number", "BANKCHAT_MAX_FILE_BYTES", "lots"},
		{"unknown ordering", "BANKCHAT_ORDERING", "random"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t, filepath.Join(t.TempDir(), "missing.yaml"))
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_url: [unclosed"), 0o600))
	isolate(t, path)

	_, err := Load()
	assert.ErrorContains(t, err, "parse config")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("exchange settled", "kind", "server")

	assert.Contains(t, stderr.String(), "exchange settled")
	assert.NotContains(t, stderr.String(), "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &rec))
	assert.Equal(t, "exchange settled", rec["msg"])
	assert.Equal(t, "server", rec["kind"])
}

func TestSetupLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankchat.log")
	logger, cleanup := SetupLogger(path, slog.LevelWarn)
	logger.Info("below level")
	logger.Warn("exchange failed", "kind", "network")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below level")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "exchange failed", rec["msg"])
	assert.Equal(t, "network", rec["kind"])
}

func TestSetupFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	logger, cleanup := SetupFileLogger(path, slog.LevelInfo)
	logger.Info("hello")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}

func TestSetupFileLoggerUnwritable(t *testing.T) {
	logger, cleanup := SetupFileLogger(filepath.Join(t.TempDir(), "no", "such", "dir.log"), slog.LevelInfo)
	assert.NotPanics(t, func() { logger.Info("dropped") })
	assert.NoError(t, cleanup())
}
