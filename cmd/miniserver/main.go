// Miniserver is the admin tool for the miniserver image: it deploys the
// image to a host, updates the nixpkgs pin, and inspects store closures.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/ruuda/miniserver/config"
)

type Miniserver struct {
	ConfigPath string `long:"config" description:"Config file path."`

	DeployCommand  *DeployCommand  `command:"deploy" description:"Deploy the image to the configured host."`
	UpdateCommand  *UpdateCommand  `command:"update" description:"Update the nixpkgs pin to the latest channel commit."`
	DiffCommand    *DiffCommand    `command:"diff" description:"Diff the package closures of two commits."`
	ClosureCommand *ClosureCommand `command:"closure" description:"Print the packages in the runtime closure."`
	UUIDCommand    *UUIDCommand    `command:"uuid" description:"Print the deterministic filesystem UUID for a file."`
	SaltCommand    *SaltCommand    `command:"salt" description:"Print the deterministic verity salt for a file."`
}

func (m *Miniserver) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// loadConfig tolerates a missing file on the default path, a path given
// explicitly has to exist.
func (m *Miniserver) loadConfig() (config.Config, error) {
	path := m.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && m.ConfigPath == "" {
		cfg = config.Config{}
		cfg.Default()
		return cfg, nil
	}
	return cfg, err
}

func main() {
	root := &Miniserver{}
	root.DeployCommand = &DeployCommand{root: root}
	root.UpdateCommand = &UpdateCommand{root: root}
	root.DiffCommand = &DiffCommand{root: root}
	root.ClosureCommand = &ClosureCommand{root: root}
	root.UUIDCommand = &UUIDCommand{root: root}
	root.SaltCommand = &SaltCommand{root: root}

	parser := flags.NewParser(root, flags.Default)
	_, err := parser.Parse()
	if flags.WroteHelp(err) {
		return
	}
	mustNot(err)
}

func mustNot(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// rootContext is canceled when the tool gets asked to stop.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
