package config_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruuda/miniserver/config"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "miniserver.toml")
	require.NoError(t, os.WriteFile(path, []byte(
		"host = \"miniserver.example.org\"\nchannel = \"nixos-24.05\"\n"), 0o644))

	c, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Config{
		Host:     "miniserver.example.org",
		Channel:  "nixos-24.05",
		NixFile:  "default.nix",
		StateDir: "/var/lib/miniserver",
	}, c)
}

func TestLoad_missing(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestConfig_Default(t *testing.T) {
	t.Parallel()

	var c config.Config
	c.Default()
	assert.Empty(t, c.Host)
	assert.Equal(t, "nixos-unstable", c.Channel)
	assert.Equal(t, "default.nix", c.NixFile)
	assert.Equal(t, "/var/lib/miniserver", c.StateDir)
}
