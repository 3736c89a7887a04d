package config

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cargo-thanks/internal/flags"
)

type Config struct {
	Manifest Manifest
	Registry Registry
	Forge    Forge
	Output   Output
	Runtime  Runtime
}

type Manifest struct {
	// Path is the Cargo.toml to read (see --manifest-path). Empty means ./Cargo.toml.
	Path string

	// Transitive extends thanks from the workspace's declared dependencies to the
	// whole resolved graph (see --transitive).
	Transitive bool

	// Exclude drops crates matching any path.Match pattern (see --exclude).
	Exclude []string
}

type Registry struct {
	// URL is the registry root serving /api/v1/crates/{name} (see --registry).
	URL string
}

type Forge struct {
	// Token authenticates star requests (see --token; falls back to GITHUB_TOKEN, then gh).
	Token string

	// Host is the repository host whose crates get starred (see --forge-host).
	Host string

	// APIURL overrides the GitHub API root, for GitHub Enterprise Server (see --github-url).
	APIURL string
}

type Output struct {
	// ConsoleFormat controls the stdout sink (see --console-format).
	// Allowed values: text, json, ndjson.
	ConsoleFormat string

	// Out writes structured output to this path (see --out).
	Out string

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string

	// Emit writes an additional structured stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency caps in-flight registry lookups and in-flight star requests,
	// each stage separately (see --concurrency). 0 means unbounded.
	Concurrency int

	// Timeout bounds the whole run (see --timeout). Must be > 0.
	Timeout time.Duration

	// RequestTimeout bounds each HTTP request (see --request-timeout). 0 disables it.
	RequestTimeout time.Duration

	// DryRun resolves repositories without starring them (see --dry-run).
	DryRun bool

	// Verbose enables debug logging, including every HTTP call.
	Verbose bool
}

func New() *Config {
	return &Config{
		Registry: Registry{
			URL: "https://crates.io",
		},
		Forge: Forge{
			Host: "github.com",
		},
		Output: Output{
			ConsoleFormat: "text",
		},
		Runtime: Runtime{
			Concurrency:    16,
			Timeout:        10 * time.Minute,
			RequestTimeout: 30 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	c.Manifest.Exclude = splitCommaList(c.Manifest.Exclude)
	for _, p := range c.Manifest.Exclude {
		if _, err := path.Match(p, ""); err != nil {
			return fmt.Errorf("invalid --%s pattern %q: %w", flags.FlagExclude, p, err)
		}
	}
	c.Manifest.Path = strings.TrimSpace(c.Manifest.Path)

	c.Registry.URL = strings.TrimSpace(c.Registry.URL)
	if c.Registry.URL == "" {
		c.Registry.URL = "https://crates.io"
	}
	if err := validateHTTPURL(c.Registry.URL); err != nil {
		return fmt.Errorf("invalid --%s value: %w", flags.FlagRegistry, err)
	}

	c.Forge.Host = strings.ToLower(strings.TrimSpace(c.Forge.Host))
	if c.Forge.Host == "" {
		c.Forge.Host = "github.com"
	}
	if strings.ContainsAny(c.Forge.Host, "/ ") {
		return fmt.Errorf("invalid --%s value %q: expected a bare host name", flags.FlagForgeHost, c.Forge.Host)
	}
	c.Forge.APIURL = strings.TrimSpace(c.Forge.APIURL)
	if c.Forge.APIURL != "" {
		if err := validateHTTPURL(c.Forge.APIURL); err != nil {
			return fmt.Errorf("invalid --%s value: %w", flags.FlagGitHubURL, err)
		}
		if !strings.HasSuffix(c.Forge.APIURL, "/") {
			c.Forge.APIURL += "/"
		}
	}

	c.Output.ConsoleFormat = normalizeEnumValue(c.Output.ConsoleFormat)
	if c.Output.ConsoleFormat == "" {
		c.Output.ConsoleFormat = "text"
	}
	if c.Output.ConsoleFormat != "text" && c.Output.ConsoleFormat != "json" && c.Output.ConsoleFormat != "ndjson" {
		return fmt.Errorf("unsupported --%s: %s (must be one of: text, json, ndjson)", flags.FlagConsoleFormat, c.Output.ConsoleFormat)
	}

	c.Output.Emit = splitCommaList(c.Output.Emit)
	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --%s value: %s (must be one of: json, ndjson)", flags.FlagEmit, emit)
		}
		c.Output.Emit[i] = v
	}

	if c.Runtime.Concurrency < 0 {
		return fmt.Errorf("--%s must be >= 0", flags.FlagConcurrency)
	}
	if c.Runtime.Timeout <= 0 {
		return fmt.Errorf("--%s must be > 0", flags.FlagTimeout)
	}
	if c.Runtime.RequestTimeout < 0 {
		return fmt.Errorf("--%s must be >= 0", flags.FlagRequestTimeout)
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson", ".jsonl":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return fmt.Errorf("cannot infer output format from file extension (missing extension); use --%s", flags.FlagOutFormat)
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --%s", ext, flags.FlagOutFormat)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	} else if c.Output.OutFormat != "" {
		return errors.New("--" + flags.FlagOutFormat + " requires --" + flags.FlagOut)
	}

	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q: missing host", raw)
	}
	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
