package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ruuda/miniserver/deploy"
	"github.com/ruuda/miniserver/nix"
	"github.com/ruuda/miniserver/sh"
	"github.com/ruuda/miniserver/verity"
)

type DeployCommand struct {
	root *Miniserver

	Args struct {
		Host string `positional-arg-name:"host" description:"Deploy host, defaults to the configured one."`
	} `positional-args:"true"`
}

func (c *DeployCommand) Execute([]string) error {
	ctx, cancel := rootContext()
	defer cancel()

	cfg, err := c.root.loadConfig()
	if err != nil {
		return err
	}
	host := cfg.Host
	if c.Args.Host != "" {
		host = c.Args.Host
	}
	if host == "" {
		return errors.New("no deploy host, set host in miniserver.toml or pass one")
	}

	logger := c.root.logger()
	run := sh.New(sh.WithLogger{Logger: logger})
	store := nix.NewStore(run, nix.WithLogger{Logger: logger})
	mounter := deploy.NewMounter(run, deploy.WithStateDir(cfg.StateDir))
	d := deploy.NewDeployer(run, store, mounter.Mount,
		deploy.WithLogger{Logger: logger},
		deploy.WithNixFile(cfg.NixFile),
	)

	err = d.Deploy(ctx, host)
	fmt.Fprint(os.Stderr, d.Report())
	return err
}

type UpdateCommand struct {
	root *Miniserver

	Commit bool `long:"commit" description:"Commit the new pin with the package diff as message."`

	Args struct {
		Channel string `positional-arg-name:"channel" description:"Nixpkgs channel, defaults to the configured one."`
	} `positional-args:"true"`
}

func (c *UpdateCommand) Execute([]string) error {
	ctx, cancel := rootContext()
	defer cancel()

	cfg, err := c.root.loadConfig()
	if err != nil {
		return err
	}
	channel := cfg.Channel
	if c.Args.Channel != "" {
		channel = c.Args.Channel
	}

	logger := c.root.logger()
	run := sh.New(sh.WithLogger{Logger: logger})
	updater := nix.NewUpdater(run, nix.WithLogger{Logger: logger})

	deltas, err := updater.TryUpdate(ctx, channel)
	if err != nil {
		return err
	}
	if len(deltas) == 0 {
		fmt.Fprintln(os.Stderr, "pin already up to date")
		return nil
	}
	for _, line := range nix.FormatDeltas(deltas) {
		fmt.Println(line)
	}
	if c.Commit {
		return updater.CommitPin(ctx, channel, deltas)
	}
	return nil
}

type DiffCommand struct {
	root *Miniserver

	Git bool `long:"git" description:"Treat the arguments as git refs instead of store paths."`

	Args struct {
		Before string `positional-arg-name:"before" required:"true" description:"Old store path, or git ref with --git."`
		After  string `positional-arg-name:"after" required:"true" description:"New store path, or git ref with --git."`
	} `positional-args:"true"`
}

func (c *DiffCommand) Execute([]string) error {
	ctx, cancel := rootContext()
	defer cancel()

	logger := c.root.logger()
	run := sh.New(sh.WithLogger{Logger: logger})
	updater := nix.NewUpdater(run, nix.WithLogger{Logger: logger})

	diff := updater.DiffStorePaths
	if c.Git {
		diff = updater.DiffCommits
	}
	deltas, err := diff(ctx, c.Args.Before, c.Args.After)
	if err != nil {
		return err
	}
	// Stderr, so redirecting the diff itself stays clean.
	if len(deltas) == 0 {
		fmt.Fprintln(os.Stderr, "No differences found.")
		return nil
	}
	for _, line := range nix.FormatDeltas(deltas) {
		fmt.Println(line)
	}
	return nil
}

type ClosureCommand struct {
	root *Miniserver

	Build bool `long:"build" description:"Show the build closure instead of the runtime closure."`

	Args struct {
		Path string `positional-arg-name:"path" description:"Store path to inspect, defaults to what the nix file builds."`
	} `positional-args:"true"`
}

func (c *ClosureCommand) Execute([]string) error {
	ctx, cancel := rootContext()
	defer cancel()

	cfg, err := c.root.loadConfig()
	if err != nil {
		return err
	}

	logger := c.root.logger()
	run := sh.New(sh.WithLogger{Logger: logger})
	store := nix.NewStore(run, nix.WithLogger{Logger: logger})

	path := c.Args.Path
	if path == "" {
		if err := store.EnsurePinned(ctx); err != nil {
			return err
		}
		paths, err := store.PathInfo(ctx, cfg.NixFile)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("%s produces no store path", cfg.NixFile)
		}
		path = paths[0]
	}

	closure := store.RuntimeClosure
	if c.Build {
		closure = store.BuildClosure
	}
	packages, err := closure(ctx, path)
	if err != nil {
		return err
	}
	for _, pkg := range packages {
		fmt.Println(pkg)
	}
	return nil
}

type UUIDCommand struct {
	root *Miniserver

	Args struct {
		File string `positional-arg-name:"file" description:"File to hash, defaults to stdin."`
	} `positional-args:"true"`
}

func (c *UUIDCommand) Execute([]string) error {
	r, err := openInput(c.Args.File)
	if err != nil {
		return err
	}
	defer r.Close()

	id, err := verity.UUID(r)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

type SaltCommand struct {
	root *Miniserver

	Args struct {
		File string `positional-arg-name:"file" description:"File to hash, defaults to stdin."`
	} `positional-args:"true"`
}

func (c *SaltCommand) Execute([]string) error {
	r, err := openInput(c.Args.File)
	if err != nil {
		return err
	}
	defer r.Close()

	salt, err := verity.Salt(r)
	if err != nil {
		return err
	}
	fmt.Println(salt)
	return nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
