package engine

import (
	"context"

	"cargo-thanks/internal/registry"
	"cargo-thanks/internal/resolver"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher streams registry metadata for a set of crate names, one result per
// name, in completion order.
type Fetcher interface {
	FetchAll(ctx context.Context, names []string) <-chan registry.FetchResult
}

// Starrer performs the thank-you action against the forge.
type Starrer interface {
	Star(ctx context.Context, owner, repo string) error
}

// Execute runs the enrich → resolve → act pipeline over names and streams one
// Outcome per registry failure and per resolved target, in completion order.
//
// Per-item failures become Outcome values; nothing short of the caller
// abandoning the channel stops the remaining items. The channel is closed once
// every in-flight star request has finished. The caller must drain it.
func (e *Engine) Execute(ctx context.Context, names []string) <-chan Outcome {
	out := make(chan Outcome)

	go func() {
		defer close(out)

		logger := e.logger()
		var actors errgroup.Group
		if e.Concurrency > 0 {
			actors.SetLimit(e.Concurrency)
		}

		for res := range e.Fetcher.FetchAll(ctx, names) {
			if res.Err != nil {
				logger.Debug("registry lookup failed", "crate", res.Name, "err", res.Err)
				out <- Outcome{Dependency: res.Name, Err: res.Err}
				continue
			}

			target, ok := resolver.Resolve(res.Crate, e.Host)
			if !ok {
				logger.Debug("no forge repository", "crate", res.Name, "repository", res.Crate.Repository)
				continue
			}

			actors.Go(func() error {
				out <- e.act(ctx, target)
				return nil
			})
		}
		_ = actors.Wait()
	}()

	return out
}

func (e *Engine) act(ctx context.Context, target resolver.Target) Outcome {
	o := Outcome{Dependency: target.Name, Target: &target}
	if e.DryRun {
		e.logger().Debug("dry run, not starring", "repo", target.Path())
		o.DryRun = true
		return o
	}

	e.logger().Debug("starring", "repo", target.Path())
	if err := e.Starrer.Star(ctx, target.Owner, target.Repo); err != nil {
		o.Err = &ActionError{
			Dependency: target.Name,
			Owner:      target.Owner,
			Repo:       target.Repo,
			StatusCode: statusCodeOf(err),
			Err:        err,
		}
	}
	return o
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}
