package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fen.yml")
	require.NoError(t, os.WriteFile(path, []byte("max_call_depth: 64\nstdlib_path: ./vendor/stdlib\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.MaxCallDepth)
	assert.Equal(t, "./vendor/stdlib", cfg.StdlibPath)
	assert.Equal(t, Default().MaxOperandStack, cfg.MaxOperandStack)
}
