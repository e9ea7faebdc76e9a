package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, filepath.Join("/project", ".mamdani"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "config.toml"), p.Config)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "runs.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "systems"), p.SystemsDir)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "log"), p.LogDir)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "log", "mamdani.log"), p.Log)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "run"), p.RunDir)
	assert.Equal(t, filepath.Join("/project", ".mamdani", "run", "http.addr"), p.AddrFile)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	// First call creates directories.
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.SystemsDir, p.LogDir, p.RunDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}

func TestAddrFile(t *testing.T) {
	p := NewPaths(t.TempDir())

	require.NoError(t, p.WriteAddr("127.0.0.1:8088"))
	data, err := os.ReadFile(p.AddrFile)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8088\n", string(data))

	p.CleanEphemeral()
	_, err = os.Stat(p.AddrFile)
	assert.True(t, os.IsNotExist(err))

	// Nothing to remove is fine.
	p.CleanEphemeral()
}
