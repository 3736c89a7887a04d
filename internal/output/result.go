package output

// Status is the terminal state of one dependency.
type Status string

const (
	StatusStarred Status = "STARRED"
	StatusDryRun  Status = "DRY_RUN"
	StatusFailed  Status = "FAILED"
)

// Result is the reportable form of one pipeline outcome.
//
// Repository is "github.com/owner/repo" when the dependency resolved to a forge
// repository; it is empty for registry failures.
type Result struct {
	Dependency string `json:"dependency"`
	Repository string `json:"repository,omitempty"`
	Status     Status `json:"status"`
	Stage      string `json:"stage,omitempty"`
	Message    string `json:"message,omitempty"`
}
