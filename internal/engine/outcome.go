package engine

import (
	"cargo-thanks/internal/output"
	"cargo-thanks/internal/resolver"
)

// Outcome is the terminal result for one dependency that reached a stage
// boundary: a registry failure (Target nil) or a star attempt.
//
// Dependencies without a forge repository produce no Outcome.
type Outcome struct {
	Dependency string
	Target     *resolver.Target
	Err        error
	DryRun     bool
}

func (o Outcome) Failed() bool { return o.Err != nil }

// Stage reports where a failed outcome failed, or "" on success.
func (o Outcome) Stage() Stage { return StageOf(o.Err) }

func (o Outcome) result(host string, verbose bool) output.Result {
	r := output.Result{Dependency: o.Dependency}
	if o.Target != nil {
		r.Repository = o.Target.URL(host)
	}
	switch {
	case o.Err != nil:
		r.Status = output.StatusFailed
		r.Stage = string(o.Stage())
		r.Message = presentError(o.Err, verbose)
	case o.DryRun:
		r.Status = output.StatusDryRun
	default:
		r.Status = output.StatusStarred
	}
	return r
}
