package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadSettings_MissingFileIsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.NoError(t, s.Validate())
}

func TestLoadSettings_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"
workers = 3
history = false
`), 0644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, zapcore.DebugLevel, s.Level())
	assert.Equal(t, 3, s.Workers)
	assert.False(t, s.History)
	// Untouched keys keep their defaults.
	assert.Equal(t, "127.0.0.1:8088", s.HTTPAddr)
	assert.Equal(t, 1000, s.HistoryLimit)
	assert.Equal(t, "pecas", s.DefaultSystem)
}

func TestLoadSettings_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("log_levle = \"debug\"\n"), 0644))

	_, err := LoadSettings(path)
	var strict *toml.StrictMissingError
	assert.ErrorAs(t, err, &strict)
}

func TestLoadSettings_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "loud"
workers = 0
history_limit = -1
http_addr = "nowhere"
`), 0644))

	_, err := LoadSettings(path)
	require.Error(t, err)
	for _, key := range []string{"log_level", "workers", "history_limit", "http_addr"} {
		assert.Contains(t, err.Error(), key+": invalid value")
	}
}

func TestSettings_EncodeRoundTrip(t *testing.T) {
	want := DefaultSettings()
	want.Workers = 7
	data, err := want.Encode()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, data, 0644))
	got, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewLogger(t *testing.T) {
	for _, jsonOut := range []bool{false, true} {
		log, err := NewLogger(zapcore.WarnLevel, jsonOut)
		require.NoError(t, err)
		assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
	}
}
