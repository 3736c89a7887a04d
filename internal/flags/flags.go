package flags

// Package flags defines canonical CLI flag names shared across the CLI and config
// validation messages.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Forge.Token, flags.FlagToken, "", "...")
//	arg := "--" + flags.FlagToken
const (
	// Manifest
	FlagManifestPath = "manifest-path"
	FlagTransitive   = "transitive"
	FlagExclude      = "exclude"

	// Registry
	FlagRegistry = "registry"

	// Forge
	FlagToken     = "token"
	FlagForgeHost = "forge-host"
	FlagGitHubURL = "github-url"

	// Output
	FlagConsoleFormat = "console-format"
	FlagOut           = "out"
	FlagOutFormat     = "out-format"
	FlagEmit          = "emit"
	FlagNoConsole     = "no-console"

	// Runtime
	FlagConcurrency    = "concurrency"
	FlagTimeout        = "timeout"
	FlagRequestTimeout = "request-timeout"
	FlagDryRun         = "dry-run"
	FlagVerbose        = "verbose"
)
