// Package manifest produces the set of crate names a Cargo project depends on.
//
// The primary source is `cargo metadata`. By default it runs with --no-deps, so
// only the workspace's own packages contribute dependencies. When cargo is not
// installed, Cargo.toml files are read directly.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
)

// DependencySet is a sorted list of unique crate names.
type DependencySet []string

// NewDependencySet dedupes and sorts names, dropping blanks.
func NewDependencySet(names ...string) DependencySet {
	seen := make(map[string]struct{}, len(names))
	out := make(DependencySet, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

type Options struct {
	// ManifestPath points at a Cargo.toml. Empty means ./Cargo.toml.
	ManifestPath string

	// Transitive also collects the dependencies of every third-party package in
	// the resolved graph. It needs cargo.
	Transitive bool

	// Cargo is the cargo executable. Empty means "cargo" looked up on PATH.
	Cargo string

	Logger *log.Logger
}

// ErrNoManifest is returned when neither cargo nor a Cargo.toml is available.
var ErrNoManifest = errors.New("no Cargo.toml found")

// Load returns the project's dependency set.
func Load(ctx context.Context, opts Options) (DependencySet, error) {
	if ctx == nil {
		return nil, fmt.Errorf("manifest: ctx is nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	cargo := opts.Cargo
	if cargo == "" {
		cargo = "cargo"
	}
	if bin, err := exec.LookPath(cargo); err == nil {
		logger.Debug("reading cargo metadata", "cargo", bin, "transitive", opts.Transitive)
		return fromCargoMetadata(ctx, bin, opts)
	}

	manifestPath := opts.ManifestPath
	if manifestPath == "" {
		manifestPath = "Cargo.toml"
	}
	if opts.Transitive {
		logger.Warn("cargo not found on PATH; transitive dependencies are not included", "manifest", manifestPath)
	}
	return fromCargoToml(manifestPath)
}

// Exclude removes names matching any of the path.Match patterns.
func Exclude(set DependencySet, patterns []string) (DependencySet, error) {
	if len(patterns) == 0 {
		return set, nil
	}
	out := make(DependencySet, 0, len(set))
	for _, name := range set {
		excluded := false
		for _, p := range patterns {
			ok, err := path.Match(p, name)
			if err != nil {
				return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
			}
			if ok {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, name)
		}
	}
	return out, nil
}
