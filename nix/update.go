package nix

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DefaultChannel is the Nixpkgs channel updates track by default.
const DefaultChannel = "nixos-unstable"

// Closures resolves the package closure of a store path. Satisfied by *Store.
type Closures interface {
	RuntimeClosure(ctx context.Context, path string) ([]Package, error)
}

// Updater bumps the pinned Nixpkgs revision when that changes the build
// output, and records the closure diff in the commit message.
type Updater struct {
	run      Runner
	closures Closures
	github   *GitHub
	logger   *slog.Logger
	workDir  string
}

type UpdaterOption interface {
	ApplyToUpdater(u *Updater)
}

func (l WithLogger) ApplyToUpdater(u *Updater) {
	u.logger = l.Logger
}

type WithGitHub struct{ *GitHub }

func (g WithGitHub) ApplyToUpdater(u *Updater) {
	u.github = g.GitHub
}

type WithClosures struct{ Closures }

func (c WithClosures) ApplyToUpdater(u *Updater) {
	u.closures = c.Closures
}

// WithWorkDir sets the directory holding the pinned file. Defaults to the
// current directory.
type WithWorkDir string

func (wd WithWorkDir) ApplyToUpdater(u *Updater) {
	u.workDir = string(wd)
}

func NewUpdater(run Runner, opts ...UpdaterOption) *Updater {
	u := &Updater{run: run}
	for _, opt := range opts {
		opt.ApplyToUpdater(u)
	}
	if u.closures == nil {
		u.closures = NewStore(run)
	}
	if u.github == nil {
		u.github = &GitHub{}
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u
}

func (u *Updater) pinnedPath() string {
	return filepath.Join(u.workDir, PinnedFile)
}

// TryUpdate replaces the pinned file with one that fetches the latest commit
// in the given channel and builds the default expression. When that produces
// no changes, the previous pinned revision is restored in order to not
// introduce unnecessary churn; the store paths can still change, which might
// mean that e.g. the compiler changed.
func (u *Updater) TryUpdate(ctx context.Context, channel string) ([]Delta, error) {
	tmp := filepath.Join(os.TempDir(), "nix-"+uuid.NewString())
	beforeLink := tmp + "-before"
	afterLink := tmp + "-after"

	u.logger.Info("[1/3] building before", slog.String("channel", channel))
	if err := u.build(ctx, beforeLink); err != nil {
		return nil, err
	}

	backup := u.pinnedPath() + ".bak"
	if err := os.Rename(u.pinnedPath(), backup); err != nil {
		return nil, fmt.Errorf("backing up pinned file: %w", err)
	}
	restore := func() {
		if err := os.Rename(backup, u.pinnedPath()); err != nil {
			u.logger.Error("restoring pinned file", slog.String("error", err.Error()))
		}
	}

	u.logger.Info("[2/3] fetching latest nixpkgs", slog.String("channel", channel))
	commitHash, err := u.github.LatestRevision(ctx, channel)
	if err != nil {
		restore()
		return nil, err
	}
	sha, err := Prefetch(ctx, u.run, NixpkgsTarballURL(commitHash))
	if err != nil {
		restore()
		return nil, err
	}
	expr := FetchTarballExpr(commitHash, sha)
	if err := os.WriteFile(u.pinnedPath(), []byte(expr), 0o644); err != nil {
		restore()
		return nil, fmt.Errorf("writing pinned file: %w", err)
	}

	u.logger.Info("[3/3] building after", slog.String("commit", commitHash))
	if err := u.build(ctx, afterLink); err != nil {
		restore()
		return nil, err
	}

	deltas, err := u.DiffStorePaths(ctx, beforeLink, afterLink)
	if err != nil {
		restore()
		return nil, err
	}

	if len(deltas) == 0 {
		restore()
		return nil, nil
	}
	if err := os.Remove(backup); err != nil {
		return nil, fmt.Errorf("removing pinned backup: %w", err)
	}
	return deltas, nil
}

// CommitPin commits the pinned file with the closure diff in the message.
func (u *Updater) CommitPin(ctx context.Context, channel string, deltas []Delta) error {
	if err := u.git(ctx, "add", PinnedFile); err != nil {
		return err
	}
	subject := fmt.Sprintf("Upgrade to latest commit in %s channel", channel)
	body := strings.Join(FormatDeltas(deltas), "\n")
	message := subject + "\n\n" + body + "\n"
	return u.git(ctx, "commit", "--message", message)
}

// git runs in the directory that holds the pinned file, so that the repo git
// operates on cannot diverge from where the pin is written. An empty -C path
// leaves the working directory unchanged.
func (u *Updater) git(ctx context.Context, args ...string) error {
	return u.run.Run(ctx, "git", append([]string{"-C", u.workDir}, args...)...)
}

// DiffStorePaths returns the closure diff between two store paths, assuming
// they exist.
func (u *Updater) DiffStorePaths(ctx context.Context, before, after string) ([]Delta, error) {
	befores, err := u.closures.RuntimeClosure(ctx, before)
	if err != nil {
		return nil, err
	}
	afters, err := u.closures.RuntimeClosure(ctx, after)
	if err != nil {
		return nil, err
	}
	return DiffPackages(befores, afters), nil
}

// DiffCommits returns the closure diff between the default expression in two
// commits. Beware, this does run "git checkout".
func (u *Updater) DiffCommits(ctx context.Context, beforeRef, afterRef string) ([]Delta, error) {
	tmp := filepath.Join(os.TempDir(), "nix-"+uuid.NewString())
	beforeLink := tmp + "-before"
	afterLink := tmp + "-after"

	if err := u.git(ctx, "checkout", beforeRef, "--"); err != nil {
		return nil, err
	}
	u.logger.Info("[1/2] building before", slog.String("ref", beforeRef))
	if err := u.build(ctx, beforeLink); err != nil {
		return nil, err
	}

	if err := u.git(ctx, "checkout", afterRef, "--"); err != nil {
		return nil, err
	}
	u.logger.Info("[2/2] building after", slog.String("ref", afterRef))
	if err := u.build(ctx, afterLink); err != nil {
		return nil, err
	}

	return u.DiffStorePaths(ctx, beforeLink, afterLink)
}

func (u *Updater) build(ctx context.Context, outLink string) error {
	if err := u.run.Run(ctx, "nix", "build", "--out-link", outLink); err != nil {
		return fmt.Errorf("building: %w", err)
	}
	return nil
}
