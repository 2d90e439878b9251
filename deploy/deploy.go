package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruuda/miniserver/steps"
)

// Runner issues external commands. Satisfied by *sh.Runner.
type Runner interface {
	Run(ctx context.Context, cmd string, args ...string) error
	Output(ctx context.Context, cmd string, args ...string) (string, error)
}

// Store resolves image paths in the local Nix store. Satisfied by *nix.Store.
type Store interface {
	EnsurePinned(ctx context.Context) error
	PathInfo(ctx context.Context, nixFile string) ([]string, error)
}

// MountFunc mounts the state directory of a host. Satisfied by Mounter.Mount.
type MountFunc func(ctx context.Context, host string) (*Mount, error)

type DeployerOption interface {
	ApplyToDeployer(d *Deployer)
}

// Deployer copies the current image to a host and activates it there.
type Deployer struct {
	run     Runner
	store   Store
	mount   MountFunc
	tracker *steps.Tracker
	logger  *slog.Logger
	nixFile string
}

func NewDeployer(run Runner, store Store, mount MountFunc, opts ...DeployerOption) *Deployer {
	d := &Deployer{
		run:     run,
		store:   store,
		mount:   mount,
		tracker: steps.NewTracker(),
		nixFile: "default.nix",
	}
	for _, opt := range opts {
		opt.ApplyToDeployer(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Deploy builds nothing itself: it ships the image the local store already
// holds for the Nix file, then flips the current symlink on the host.
func (d *Deployer) Deploy(ctx context.Context, host string) error {
	root := "deploy:" + host
	return d.tracker.Serial(ctx, ".", steps.Fn(root, func(ctx context.Context) error {
		return d.deploy(ctx, root, host)
	}))
}

func (d *Deployer) deploy(ctx context.Context, parent, host string) (err error) {
	var (
		imagePath string
		mnt       *Mount
	)

	err = d.tracker.Serial(ctx, parent,
		steps.Fn("nix:ensure-pinned", d.store.EnsurePinned),
		steps.Fn("nix:path-info", func(ctx context.Context) error {
			paths, err := d.store.PathInfo(ctx, d.nixFile)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no store path for %s", d.nixFile)
			}
			imagePath = paths[0]
			return nil
		}),
		steps.Fn("sshfs:mount", func(ctx context.Context) error {
			m, err := d.mount(ctx, host)
			mnt = m
			return err
		}),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := mnt.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("unmounting: %w", cerr))
		}
	}()

	return d.tracker.Serial(ctx, parent,
		steps.Fn("image:copy", func(ctx context.Context) error {
			return d.copyImage(ctx, imagePath, mnt.Path)
		}),
		steps.Fn("image:activate", func(ctx context.Context) error {
			return activate(imagePath, mnt.Path)
		}),
	)
}

// Report renders what ran during Deploy.
func (d *Deployer) Report() string {
	return d.tracker.Report()
}

func (d *Deployer) copyImage(ctx context.Context, imagePath, mountPath string) error {
	dst := filepath.Join(mountPath, "store", filepath.Base(imagePath))
	if _, err := os.Stat(dst); err == nil {
		// Store paths are content addressed, same name means same image.
		d.logger.Info("image already on host", slog.String("path", dst))
		return nil
	}
	if err := os.MkdirAll(filepath.Join(mountPath, "store"), 0o755); err != nil {
		return fmt.Errorf("creating remote store dir: %w", err)
	}
	return d.run.Run(ctx, "cp", "-r", "--no-preserve=mode,ownership", imagePath, dst)
}

// activate points the current symlink at the new image. The rename makes the
// switch atomic for readers on the host.
func activate(imagePath, mountPath string) error {
	tmp := filepath.Join(mountPath, ".current.tmp")
	_ = os.Remove(tmp)
	if err := os.Symlink(filepath.Join("store", filepath.Base(imagePath)), tmp); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(mountPath, "current")); err != nil {
		return fmt.Errorf("activating image: %w", err)
	}
	return nil
}
