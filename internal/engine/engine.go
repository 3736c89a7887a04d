package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cargo-thanks/internal/config"
	"cargo-thanks/internal/output"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Exit code contract:
//
//	0 = every dependency was thanked (or there was nothing to do)
//	2 = partial failure (at least one registry lookup or star request failed)
//	3 = fatal error (the run did not start)
const (
	ExitOK      = 0
	ExitPartial = 2
	ExitFatal   = 3
)

func exitCodeForRun(fatal, partial bool) int {
	if fatal {
		return ExitFatal
	}
	if partial {
		return ExitPartial
	}
	return ExitOK
}

// Engine wires the pipeline stages together. Fetcher and Starrer are shared by
// every concurrent task and must be safe for concurrent use.
type Engine struct {
	Fetcher Fetcher
	Starrer Starrer

	// Host is the forge host repositories must live on.
	Host string

	// Concurrency caps in-flight star requests. Zero or less means unbounded.
	Concurrency int

	DryRun  bool
	Verbose bool
	Logger  *log.Logger

	// Stdout receives console and --emit output. Nil means os.Stdout.
	Stdout io.Writer
}

func NewEngine(f Fetcher, s Starrer, cfg *config.Config, logger *log.Logger) *Engine {
	return &Engine{
		Fetcher:     f,
		Starrer:     s,
		Host:        cfg.Forge.Host,
		Concurrency: cfg.Runtime.Concurrency,
		DryRun:      cfg.Runtime.DryRun,
		Verbose:     cfg.Runtime.Verbose,
		Logger:      logger,
	}
}

func (e *Engine) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func setupOutputManager(cfg *config.Config, stdout io.Writer) (*output.Manager, error) {
	outMgr := output.NewManager()

	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(stdout, cfg.Output.ConsoleFormat)); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(stdout, emit)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

func (e *Engine) validate() error {
	if e == nil {
		return errors.New("engine is nil")
	}
	if e.Fetcher == nil {
		return errors.New("engine fetcher is nil")
	}
	if e.Starrer == nil && !e.DryRun {
		return errors.New("engine starrer is nil")
	}
	return nil
}

// Summary tallies a drained outcome stream.
type Summary struct {
	Outcomes int
	Starred  int
	DryRun   int
	Failed   int
}

// Report drains outcomes into outMgr as outcome events of run runID and tallies
// them. Sink write errors are logged, never fatal.
func (e *Engine) Report(runID string, outcomes <-chan Outcome, outMgr *output.Manager) Summary {
	var sum Summary
	for o := range outcomes {
		sum.Outcomes++
		switch {
		case o.Failed():
			sum.Failed++
		case o.DryRun:
			sum.DryRun++
		default:
			sum.Starred++
		}
		ev := output.OutcomeEvent(runID, o.result(e.Host, e.Verbose))
		if err := outMgr.Write(ev); err != nil {
			e.logger().Warn("writing result", "crate", o.Dependency, "err", err)
		}
	}
	return sum
}

// Run thanks every dependency in names and returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config, names []string) int {
	logger := e.logger()
	if err := e.validate(); err != nil {
		logger.Error("cannot start", "err", err)
		return exitCodeForRun(true, false)
	}

	outMgr, err := setupOutputManager(cfg, e.stdout())
	if err != nil {
		logger.Error("creating output sinks", "err", err)
		return exitCodeForRun(true, false)
	}
	defer func() {
		if err := outMgr.Close(); err != nil {
			logger.Warn("closing output sinks", "err", err)
		}
	}()

	if cfg.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Runtime.Timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	_ = outMgr.Write(output.Event{Type: output.EventRunStarted, RunID: runID, Dependencies: len(names)})
	logger.Info(fmt.Sprintf("Thanking %d dependencies...", len(names)))

	sum := e.Report(runID, e.Execute(ctx, names), outMgr)

	code := exitCodeForRun(false, sum.Failed > 0)
	_ = outMgr.Write(output.Event{Type: output.EventRunFinished, RunID: runID, Starred: sum.Starred, Failed: sum.Failed, ExitCode: code})
	logger.Debug("run finished", "outcomes", sum.Outcomes, "starred", sum.Starred, "failed", sum.Failed, "skipped", len(names)-sum.Outcomes)
	return code
}
