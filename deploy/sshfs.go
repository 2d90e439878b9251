// Package deploy pushes the current miniserver image to a host through an
// sshfs mount of its state directory.
package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/google/uuid"

	"github.com/ruuda/miniserver/sh"
)

// The filesystem type stat reports for a mounted sshfs.
const fuseFSType = "fuseblk"

// Proc is the handle of a started sshfs process.
type Proc interface {
	Terminate(timeout time.Duration) error
	Wait() error
}

// StartFunc starts the sshfs process for host in the foreground.
type StartFunc func(ctx context.Context, host, stateDir, mountpoint string) (Proc, error)

// ProbeFunc reports the filesystem type of the given path.
type ProbeFunc func(ctx context.Context, path string) (string, error)

type MountConfig struct {
	// Directory on the host that gets mounted.
	StateDir string
	// Directory the mountpoint is created under.
	TempRoot string
	// Poll interval and total wait for the mount to appear.
	Interval time.Duration
	Timeout  time.Duration
	// How long to wait for sshfs to exit on unmount.
	StopTimeout time.Duration

	Clock clock.Clock
	Start StartFunc
	Probe ProbeFunc
}

func (c *MountConfig) Default(run *sh.Runner) {
	if c.StateDir == "" {
		c.StateDir = "/var/lib/miniserver"
	}
	if c.TempRoot == "" {
		c.TempRoot = os.TempDir()
	}
	if c.Interval == 0 {
		c.Interval = 100 * time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = 10 * time.Second
	}
	if c.Clock == nil {
		c.Clock = clock.NewClock()
	}
	if c.Start == nil {
		c.Start = func(ctx context.Context, host, stateDir, mountpoint string) (Proc, error) {
			return run.Start(ctx, "sshfs", "-f", host+":"+stateDir, mountpoint)
		}
	}
	if c.Probe == nil {
		c.Probe = func(ctx context.Context, path string) (string, error) {
			return run.Output(ctx, "stat", "--format", "%T", "--file-system", path)
		}
	}
}

type MountOption interface {
	ApplyToMountConfig(c *MountConfig)
}

// Mounter mounts the state directory of a host on a temporary directory.
type Mounter struct {
	cfg MountConfig
}

func NewMounter(run *sh.Runner, opts ...MountOption) *Mounter {
	var cfg MountConfig
	for _, opt := range opts {
		opt.ApplyToMountConfig(&cfg)
	}
	cfg.Default(run)
	return &Mounter{cfg: cfg}
}

// Mount starts sshfs and waits until the mount shows up.
func (m *Mounter) Mount(ctx context.Context, host string) (*Mount, error) {
	path := filepath.Join(m.cfg.TempRoot, "miniserver-"+uuid.NewString())
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint: %w", err)
	}

	proc, err := m.cfg.Start(ctx, host, m.cfg.StateDir, path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("starting sshfs: %w", err)
	}

	deadline := m.cfg.Clock.Now().Add(m.cfg.Timeout)
	for {
		// A probe failure means the mount is not there yet, keep polling.
		fstype, err := m.cfg.Probe(ctx, path)
		if err == nil && fstype == fuseFSType {
			break
		}

		if ctx.Err() != nil || m.cfg.Clock.Now().After(deadline) {
			_ = proc.Terminate(m.cfg.StopTimeout)
			_ = os.Remove(path)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("sshfs did not mount %s within %s", path, m.cfg.Timeout)
		}
		m.cfg.Clock.Sleep(m.cfg.Interval)
	}

	return &Mount{Path: path, proc: proc, stopTimeout: m.cfg.StopTimeout}, nil
}

// Mount is an sshfs-mounted remote state directory.
type Mount struct {
	Path string

	proc        Proc
	stopTimeout time.Duration
}

// Close unmounts by stopping sshfs. The mountpoint is removed best effort,
// the temp root gets cleaned up by the OS anyway.
func (m *Mount) Close() error {
	err := m.proc.Terminate(m.stopTimeout)
	_ = os.Remove(m.Path)
	return err
}
