package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_missingDefaultPath(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	m := &Miniserver{}
	cfg, err := m.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "nixos-unstable", cfg.Channel)
	assert.Equal(t, "default.nix", cfg.NixFile)
}

func TestLoadConfig_missingExplicitPath(t *testing.T) {
	t.Parallel()

	m := &Miniserver{ConfigPath: filepath.Join(t.TempDir(), "nope.toml")}
	_, err := m.loadConfig()
	require.Error(t, err)
}

func TestLoadConfig_explicitPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "miniserver.toml")
	require.NoError(t, os.WriteFile(path, []byte("host = \"example.org\"\n"), 0o644))

	m := &Miniserver{ConfigPath: path}
	cfg, err := m.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "example.org", cfg.Host)
}
