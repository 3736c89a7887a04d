package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cargo-thanks/internal/config"
	"cargo-thanks/internal/engine"
	"cargo-thanks/internal/flags"
	gh "cargo-thanks/internal/github"
	"cargo-thanks/internal/manifest"
	"cargo-thanks/internal/registry"

	"github.com/spf13/cobra"
)

var cfg = config.New()

const thanksHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Environment:
  cargo-thanks stars repositories with a GitHub access token.

  Sources (in order):
  1) --token
  2) GITHUB_TOKEN environment variable
  3) GitHub CLI (gh) authentication via gh auth token (if gh is installed and logged in)

  A classic PAT needs the public_repo scope. A fine-grained PAT needs
  "Starring: Read and write" under account permissions.

  --dry-run needs no token.

  Examples:
    # macOS/Linux
    export GITHUB_TOKEN="<your_token>"
    cargo thanks

    # GitHub CLI auth
    gh auth login
    cargo thanks

    # Windows PowerShell
    $env:GITHUB_TOKEN = "<your_token>"
    cargo thanks

{{if .HasAvailableSubCommands}}Available Commands:
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}`

var thanksCmd = &cobra.Command{
	Use:   "thanks",
	Short: "Star the GitHub repository of every crate this project depends on",
	Long: `Star the GitHub repository of every crate this project depends on.

Dependencies are those declared by the packages of your workspace, as reported
by "cargo metadata --no-deps". --transitive widens this to every package in the
resolved graph. When cargo is not on PATH, Cargo.toml files are read instead.
Each crate is looked up on crates.io; crates whose repository is not on GitHub
are skipped silently.

Output:
	Console output is controlled by --console-format (default: text). In text mode
	every thanked crate prints one line:

	  💖 serde github.com/serde-rs/serde
	  💔 some-crate <reason>

	Structured outputs can be written via:
	- --out / --out-format: write an aggregate JSON array or NDJSON stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --no-console: suppress the console sink (use with --emit/--out for machine output)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, outcome, run.finished).

Exit codes:
	0 = every repository was starred (or there was nothing to star)
	2 = partial failure (some registry lookups or star requests failed)
	3 = fatal error (nothing was attempted)

Examples:
	cargo thanks --manifest-path ../other/Cargo.toml
	cargo thanks --exclude 'tokio-*' --concurrency 4
	cargo thanks --no-console --emit ndjson
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runThanks(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr()))
	},
}

// runThanks performs one run and returns the process exit code. Setup failures
// are printed to stderr and yield engine.ExitFatal.
func runThanks(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := loggerFromContext(ctx)

	fatal := func(err error) int {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return engine.ExitFatal
	}

	if err := cfg.Validate(); err != nil {
		return fatal(err)
	}

	var starrer engine.Starrer
	if !cfg.Runtime.DryRun {
		token, err := gh.RequireToken(ctx, cfg.Forge.Token, cfg.Forge.Host)
		if errors.Is(err, gh.ErrNoToken) {
			fmt.Fprintf(stderr, "Error: %v (use --%s, set %s, or run 'gh auth login')\n", err, flags.FlagToken, gh.TokenEnv)
			return engine.ExitFatal
		}
		if err != nil {
			return fatal(&engine.SetupError{Op: "resolve GitHub token", Err: err})
		}
		logger.Debug("resolved GitHub token", "source", token.Source)

		client, err := gh.NewClient(ctx, token.Value,
			gh.WithLogger(logger),
			gh.WithUserAgent(userAgent()),
			gh.WithBaseURL(cfg.Forge.APIURL),
			gh.WithTimeout(cfg.Runtime.RequestTimeout),
		)
		if err != nil {
			return fatal(&engine.SetupError{Op: "create GitHub client", Err: err})
		}
		starrer = client
	}

	deps, err := manifest.Load(ctx, manifest.Options{
		ManifestPath: cfg.Manifest.Path,
		Transitive:   cfg.Manifest.Transitive,
		Logger:       logger,
	})
	if err != nil {
		return fatal(&engine.SetupError{Op: "read dependencies", Err: err})
	}
	deps, err = manifest.Exclude(deps, cfg.Manifest.Exclude)
	if err != nil {
		return fatal(&engine.SetupError{Op: "apply --" + flags.FlagExclude, Err: err})
	}

	reg, err := registry.NewClient(cfg.Registry.URL,
		registry.WithUserAgent(userAgent()),
		registry.WithTimeout(cfg.Runtime.RequestTimeout),
		registry.WithConcurrency(cfg.Runtime.Concurrency),
		registry.WithLogger(logger),
	)
	if err != nil {
		return fatal(&engine.SetupError{Op: "create registry client", Err: err})
	}

	eng := engine.NewEngine(reg, starrer, cfg, logger)
	eng.Stdout = stdout
	return eng.Run(ctx, cfg, deps)
}

func init() {
	rootCmd.AddCommand(thanksCmd)
	thanksCmd.SetHelpTemplate(thanksHelpTemplate)

	// Manifest
	thanksCmd.Flags().StringVar(&cfg.Manifest.Path, flags.FlagManifestPath, "", "Path to Cargo.toml (default: ./Cargo.toml)")
	thanksCmd.Flags().BoolVar(&cfg.Manifest.Transitive, flags.FlagTransitive, false, "Also thank the dependencies of your dependencies (needs cargo)")
	thanksCmd.Flags().StringSliceVar(&cfg.Manifest.Exclude, flags.FlagExclude, nil, "Skip crates matching pattern(s) (repeatable; comma-separated accepted). Go path.Match style")

	// Registry
	thanksCmd.Flags().StringVar(&cfg.Registry.URL, flags.FlagRegistry, cfg.Registry.URL, "Registry root serving /api/v1/crates/{name}")

	// Forge
	thanksCmd.Flags().StringVarP(&cfg.Forge.Token, flags.FlagToken, "t", "", "GitHub OAuth token (default: GITHUB_TOKEN, then gh auth token)")
	thanksCmd.Flags().StringVar(&cfg.Forge.Host, flags.FlagForgeHost, cfg.Forge.Host, "Repository host whose crates get starred")
	thanksCmd.Flags().StringVar(&cfg.Forge.APIURL, flags.FlagGitHubURL, "", "GitHub API root for GitHub Enterprise Server (e.g. https://ghe.example.com/api/v3/)")

	// Output
	thanksCmd.Flags().StringVar(&cfg.Output.ConsoleFormat, flags.FlagConsoleFormat, "text", "Console output format: text|json|ndjson (default: text)")
	thanksCmd.Flags().StringVar(&cfg.Output.Out, flags.FlagOut, "", "Write structured output to this path")
	thanksCmd.Flags().StringVar(&cfg.Output.OutFormat, flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	thanksCmd.Flags().StringSliceVar(&cfg.Output.Emit, flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	thanksCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress console output (use with --emit/--out)")

	// Runtime
	thanksCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Maximum in-flight requests per stage (0 = unbounded)")
	thanksCmd.Flags().DurationVar(&cfg.Runtime.Timeout, flags.FlagTimeout, cfg.Runtime.Timeout, "Global timeout")
	thanksCmd.Flags().DurationVar(&cfg.Runtime.RequestTimeout, flags.FlagRequestTimeout, cfg.Runtime.RequestTimeout, "Per-request timeout (0 = none)")
	thanksCmd.Flags().BoolVar(&cfg.Runtime.DryRun, flags.FlagDryRun, false, "Resolve repositories and print them without starring (no token needed)")
}
