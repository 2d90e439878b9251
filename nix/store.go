// Package nix inspects Nix store paths: which packages make up the closure of
// a path, and how two closures differ.
package nix

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// Nix 2.4 has breaking changes in its CLI interface, use Nix 2.3 instead.
const PinnedBin = "/nix/store/9hkh1fx8z1frgbz2nawr0mnyvizrb8yk-nix-2.3.15/bin"

// Runner issues external commands. Satisfied by *sh.Runner.
type Runner interface {
	Run(ctx context.Context, cmd string, args ...string) error
	Output(ctx context.Context, cmd string, args ...string) (string, error)
}

// Store queries a local Nix store through the pinned Nix CLI.
type Store struct {
	run    Runner
	logger *slog.Logger
	bin    string
}

type StoreOption interface {
	ApplyToStore(s *Store)
}

type WithLogger struct{ *slog.Logger }

func (l WithLogger) ApplyToStore(s *Store) {
	s.logger = l.Logger
}

// Use a different Nix installation than the pinned one.
type WithBin string

func (b WithBin) ApplyToStore(s *Store) {
	s.bin = string(b)
}

func NewStore(run Runner, opts ...StoreOption) *Store {
	s := &Store{run: run, bin: PinnedBin}
	for _, opt := range opts {
		opt.ApplyToStore(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// EnsurePinned realises the pinned Nix version into the local store when it
// is not there yet.
func (s *Store) EnsurePinned(ctx context.Context) error {
	if _, err := os.Stat(filepath.Join(s.bin, "nix")); err == nil {
		s.logger.Debug("pinned nix already present", slog.String("bin", s.bin))
		return nil
	}
	s.logger.Info("realising pinned nix", slog.String("bin", s.bin))
	return s.run.Run(ctx, "nix-store", "--realise", filepath.Dir(s.bin))
}

// PathInfo returns the store paths that the given Nix file builds.
func (s *Store) PathInfo(ctx context.Context, nixFile string) ([]string, error) {
	args := []string{"path-info"}
	if nixFile != "" {
		args = append(args, "--file", nixFile)
	}
	out, err := s.run.Output(ctx, filepath.Join(s.bin, "nix"), args...)
	if err != nil {
		return nil, fmt.Errorf("querying path info: %w", err)
	}
	return splitLines(out), nil
}

// RuntimeClosure returns the packages in the closure of runtime dependencies
// of the store path.
func (s *Store) RuntimeClosure(ctx context.Context, path string) ([]Package, error) {
	deps, err := s.query(ctx, "--requisites", path)
	if err != nil {
		return nil, fmt.Errorf("querying requisites: %w", err)
	}
	drvs, err := s.query(ctx, "--deriver", deps...)
	if err != nil {
		return nil, fmt.Errorf("querying derivers: %w", err)
	}
	return s.packagesFromDerivations(ctx, drvs)
}

// BuildClosure returns the packages in the closure of build time dependencies
// of the store path.
func (s *Store) BuildClosure(ctx context.Context, path string) ([]Package, error) {
	drvs, err := s.query(ctx, "--deriver", path)
	if err != nil {
		return nil, fmt.Errorf("querying deriver: %w", err)
	}
	if len(drvs) == 0 {
		return nil, fmt.Errorf("no deriver for %s", path)
	}
	closure, err := s.query(ctx, "--requisites", drvs[0])
	if err != nil {
		return nil, fmt.Errorf("querying deriver requisites: %w", err)
	}
	var depDrvs []string
	for _, p := range closure {
		if strings.HasSuffix(p, ".drv") {
			depDrvs = append(depDrvs, p)
		}
	}
	return s.packagesFromDerivations(ctx, depDrvs)
}

func (s *Store) query(ctx context.Context, query string, paths ...string) ([]string, error) {
	args := append([]string{"--query", query}, paths...)
	out, err := s.run.Output(ctx, filepath.Join(s.bin, "nix-store"), args...)
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// packagesFromDerivations extracts package names and versions from each of
// the derivation files.
func (s *Store) packagesFromDerivations(ctx context.Context, drvPaths []string) ([]Package, error) {
	var existing, missing []string
	for _, path := range drvPaths {
		if _, err := os.Stat(path); err == nil {
			existing = append(existing, path)
		} else {
			missing = append(missing, path)
		}
	}

	var packages []Package
	if len(existing) > 0 {
		args := append([]string{"show-derivation"}, existing...)
		out, err := s.run.Output(ctx, filepath.Join(s.bin, "nix"), args...)
		if err != nil {
			return nil, fmt.Errorf("showing derivations: %w", err)
		}

		// "nix show-derivation" produces a map from store path to derivation.
		pathToDrv := map[string]Derivation{}
		if err := json.Unmarshal([]byte(out), &pathToDrv); err != nil {
			return nil, fmt.Errorf("parsing derivations: %w", err)
		}
		for _, drv := range pathToDrv {
			if pkg, ok := PackageFromDerivation(drv); ok {
				packages = append(packages, pkg)
			}
		}
	}

	// A .drv file that is not in the local store cannot be obtained anymore,
	// fall back to parsing the package from the store file name.
	for _, drvPath := range missing {
		_, name, found := strings.Cut(filepath.Base(drvPath), "-")
		if !found {
			continue
		}
		pkg := ParsePackage(strings.TrimSuffix(name, ".drv"))
		if pkg.Name != "" && pkg.Version != "" {
			packages = append(packages, pkg)
		}
	}

	return sortedUnique(packages), nil
}

func sortedUnique(packages []Package) []Package {
	slices.SortFunc(packages, comparePackages)
	return slices.Compact(packages)
}

func comparePackages(a, b Package) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := strings.Compare(a.Version, b.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Group, b.Group)
}

func splitLines(out string) []string {
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func startsWithDigit(s string) bool {
	return s != "" && unicode.IsDigit(rune(s[0]))
}
