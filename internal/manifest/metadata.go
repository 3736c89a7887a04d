package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

type cargoMetadata struct {
	Packages []struct {
		Name         string `json:"name"`
		Dependencies []struct {
			Name string `json:"name"`
		} `json:"dependencies"`
	} `json:"packages"`
}

func cargoMetadataArgs(opts Options) []string {
	args := []string{"metadata", "--format-version", "1"}
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	if !opts.Transitive {
		args = append(args, "--no-deps")
	}
	return args
}

func fromCargoMetadata(ctx context.Context, cargo string, opts Options) (DependencySet, error) {
	cmd := exec.CommandContext(ctx, cargo, cargoMetadataArgs(opts)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("cargo metadata: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("cargo metadata: %w", err)
	}
	return parseCargoMetadata(stdout.Bytes())
}

func parseCargoMetadata(raw []byte) (DependencySet, error) {
	var md cargoMetadata
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("cargo metadata: decode output: %w", err)
	}
	var names []string
	for _, pkg := range md.Packages {
		for _, dep := range pkg.Dependencies {
			names = append(names, dep.Name)
		}
	}
	return NewDependencySet(names...), nil
}
