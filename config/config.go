// Package config loads the optional miniserver.toml that holds deployment
// defaults. notlogin reads no configuration at all.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DefaultPath is where Load looks when no config path is given.
const DefaultPath = "miniserver.toml"

type Config struct {
	// Host to deploy to, must be an ssh hostname.
	Host string `toml:"host"`
	// Nixpkgs channel that updates track.
	Channel string `toml:"channel"`
	// Nix file that builds the image.
	NixFile string `toml:"nix_file"`
	// Directory on the deploy host that holds images and state.
	StateDir string `toml:"state_dir"`
}

// Default fills in the zero fields.
func (c *Config) Default() {
	if c.Channel == "" {
		c.Channel = "nixos-unstable"
	}
	if c.NixFile == "" {
		c.NixFile = "default.nix"
	}
	if c.StateDir == "" {
		c.StateDir = "/var/lib/miniserver"
	}
}

// Load reads the config file at path and applies defaults. The caller decides
// whether a missing file is an error; the fs.ErrNotExist is wrapped, not
// swallowed.
func Load(path string) (Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	c.Default()
	return c, nil
}
