package cli

import (
	"context"
	"fmt"
	"os"

	"cargo-thanks/internal/flags"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cargo",
	Short: "Star the GitHub repositories of your Rust dependencies",
	Long: `cargo-thanks says thank you to the crates your project depends on by starring
their GitHub repositories.

It is installed as a cargo subcommand: cargo runs it as "cargo thanks".

Examples:
	# Star every dependency of the project in the current directory
	cargo thanks

	# See what would be starred without touching GitHub
	cargo thanks --dry-run

	# Print build info
	cargo thanks version`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if cfg.Runtime.Verbose {
			level = log.DebugLevel
		}
		cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&cfg.Runtime.Verbose, flags.FlagVerbose, "v", false, "Enable verbose logging (prints every registry and GitHub API call and full error details)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// userAgent identifies this build to crates.io and GitHub.
func userAgent() string {
	return "cargo-thanks/" + buildVersion
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
