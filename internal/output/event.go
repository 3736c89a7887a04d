package output

// Event types in NDJSON streams.
const (
	EventRunStarted  = "run.started"
	EventOutcome     = "outcome"
	EventRunFinished = "run.finished"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// Every event of one run carries the same RunID. JSON mode remains an
// aggregate of Result values.
type Event struct {
	Type  string `json:"type"`
	RunID string `json:"run_id,omitempty"`
	*Result
	Dependencies int `json:"dependencies,omitempty"`
	Starred      int `json:"starred,omitempty"`
	Failed       int `json:"failed,omitempty"`
	ExitCode     int `json:"exit_code,omitempty"`
}

// OutcomeEvent wraps r as an outcome event of run runID.
func OutcomeEvent(runID string, r Result) Event {
	return Event{Type: EventOutcome, RunID: runID, Result: &r}
}

// resultOf returns the Result carried by v, either directly or inside an
// outcome Event.
func resultOf(v any) (Result, bool) {
	switch t := v.(type) {
	case Result:
		return t, true
	case Event:
		if t.Type == EventOutcome && t.Result != nil {
			return *t.Result, true
		}
	}
	return Result{}, false
}
