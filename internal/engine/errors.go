package engine

import (
	"errors"
	"fmt"

	"cargo-thanks/internal/registry"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageSetup  Stage = "setup"
	StageFetch  Stage = "fetch"
	StageAction Stage = "action"
)

// SetupError aborts a run before any dependency is processed: a missing token,
// an unreadable manifest, a client that cannot be built.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *SetupError) Unwrap() error { return e.Err }

// ActionError reports a rejected or failed star request for one target.
// StatusCode is zero when the forge was never reached.
type ActionError struct {
	Dependency string
	Owner      string
	Repo       string
	StatusCode int
	Err        error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("star %s/%s (%s): %v", e.Owner, e.Repo, e.Dependency, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// StageOf classifies err by the pipeline stage that produced it, or "" when err
// is nil or untyped.
func StageOf(err error) Stage {
	var (
		setup  *SetupError
		fetch  *registry.FetchError
		action *ActionError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &action):
		return StageAction
	case errors.As(err, &fetch):
		return StageFetch
	case errors.As(err, &setup):
		return StageSetup
	default:
		return ""
	}
}
