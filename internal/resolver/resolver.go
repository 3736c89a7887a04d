// Package resolver maps registry metadata onto repositories hosted on a forge.
package resolver

import (
	"net/url"
	"strings"

	"cargo-thanks/internal/registry"
)

// DefaultHost is the forge whose repositories get starred.
const DefaultHost = "github.com"

// Target is a dependency whose repository lives on the forge.
// Owner and Repo are never empty.
type Target struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Path returns "owner/repo".
func (t Target) Path() string { return t.Owner + "/" + t.Repo }

// URL returns the host-qualified repository path, e.g. "github.com/serde-rs/serde".
func (t Target) URL(host string) string {
	if host == "" {
		host = DefaultHost
	}
	return host + "/" + t.Path()
}

// Resolve returns the forge target declared by c, or false when the crate has no
// repository, the repository lives on another host, or its path has no owner/repo pair.
func Resolve(c registry.Crate, host string) (Target, bool) {
	if host == "" {
		host = DefaultHost
	}
	raw := strings.TrimSpace(c.Repository)
	if raw == "" {
		return Target{}, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != host {
		return Target{}, false
	}
	owner, repo, ok := SplitPath(u.Path)
	if !ok {
		return Target{}, false
	}
	return Target{Name: c.Name, Owner: owner, Repo: repo}, true
}

// SplitPath splits a repository URL path into owner and repository name. The
// remainder after the first separator is kept whole, minus one ".git" suffix.
func SplitPath(p string) (owner, repo string, ok bool) {
	p = strings.Trim(p, "/")
	owner, rest, found := strings.Cut(p, "/")
	if !found {
		return "", "", false
	}
	repo = strings.TrimSuffix(rest, ".git")
	if owner == "" || repo == "" {
		return "", "", false
	}
	return owner, repo, true
}
