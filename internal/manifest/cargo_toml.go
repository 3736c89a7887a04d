package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var dependencyTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

func fromCargoToml(manifestPath string) (DependencySet, error) {
	root, err := readCargoToml(manifestPath)
	if err != nil {
		return nil, err
	}

	names := collectDependencies(root)

	ws, _ := root["workspace"].(map[string]any)
	if ws != nil {
		names = append(names, tableKeys(ws["dependencies"])...)
		members, err := workspaceMembers(filepath.Dir(manifestPath), ws)
		if err != nil {
			return nil, err
		}
		for _, member := range members {
			doc, err := readCargoToml(member)
			if err != nil {
				return nil, err
			}
			names = append(names, collectDependencies(doc)...)
		}
	}

	return NewDependencySet(names...), nil
}

func readCargoToml(p string) (map[string]any, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, p)
		}
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	var doc map[string]any
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", p, err)
	}
	return doc, nil
}

func workspaceMembers(dir string, ws map[string]any) ([]string, error) {
	raw, _ := ws["members"].([]any)
	excluded := make(map[string]struct{})
	if ex, ok := ws["exclude"].([]any); ok {
		for _, e := range ex {
			if s, ok := e.(string); ok {
				excluded[filepath.Clean(filepath.Join(dir, s))] = struct{}{}
			}
		}
	}

	var out []string
	for _, m := range raw {
		pattern, ok := m.(string)
		if !ok {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("workspace member %q: %w", pattern, err)
		}
		for _, match := range matches {
			if _, skip := excluded[filepath.Clean(match)]; skip {
				continue
			}
			manifest := filepath.Join(match, "Cargo.toml")
			if _, err := os.Stat(manifest); err != nil {
				continue
			}
			out = append(out, manifest)
		}
	}
	return out, nil
}

// collectDependencies returns the crate names declared in every dependency
// table of doc, including target-specific tables.
func collectDependencies(doc map[string]any) []string {
	var names []string
	for _, table := range dependencyTables {
		names = append(names, tableKeys(doc[table])...)
	}
	if targets, ok := doc["target"].(map[string]any); ok {
		for _, cfg := range targets {
			t, ok := cfg.(map[string]any)
			if !ok {
				continue
			}
			for _, table := range dependencyTables {
				names = append(names, tableKeys(t[table])...)
			}
		}
	}
	return names
}

// tableKeys returns the published crate names of a dependency table, honouring
// `alias = { package = "real-name" }` renames.
func tableKeys(v any) []string {
	table, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(table))
	for key, spec := range table {
		name := key
		if detail, ok := spec.(map[string]any); ok {
			if pkg, ok := detail["package"].(string); ok && pkg != "" {
				name = pkg
			}
		}
		out = append(out, name)
	}
	return out
}
