package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v81/github"

	"cargo-thanks/internal/registry"
)

// presentError renders a per-item failure for the console. Without verbose it
// avoids echoing full request URLs and the star target, which the line already
// names.
func presentError(err error, verbose bool) string {
	if err == nil {
		return "unknown error"
	}
	if verbose {
		return err.Error()
	}

	var ae *ActionError
	if errors.As(err, &ae) && ae.Err != nil {
		err = ae.Err
	}
	full := err.Error()

	var er *github.ErrorResponse
	if errors.As(err, &er) {
		msg := strings.TrimSpace(er.Message)
		if msg == "" {
			msg = "GitHub API request failed"
		}
		if er.Response != nil {
			return fmt.Sprintf("GitHub API request failed (%d %s): %s", er.Response.StatusCode, http.StatusText(er.Response.StatusCode), msg)
		}
		return fmt.Sprintf("GitHub API request failed: %s", msg)
	}

	var rl *github.RateLimitError
	if errors.As(err, &rl) {
		return fmt.Sprintf("GitHub API rate limit exceeded (resets %s)", rl.Rate.Reset.Format("15:04:05"))
	}

	var fe *registry.FetchError
	if errors.As(err, &fe) {
		if fe.StatusCode != 0 {
			return fmt.Sprintf("registry returned %d %s", fe.StatusCode, http.StatusText(fe.StatusCode))
		}
		if scrubbed := scrubRequestFromErrorString(fe.Err.Error()); scrubbed != "" {
			return scrubbed
		}
		return fe.Err.Error()
	}

	if scrubbed := scrubRequestFromErrorString(strings.TrimSpace(full)); scrubbed != "" {
		return scrubbed
	}
	return full
}

// scrubRequestFromErrorString drops the leading `Method "url": ` (net/http) or
// `METHOD https://...: ` (go-github) prefix from an error string. It returns ""
// when s has no such prefix.
func scrubRequestFromErrorString(s string) string {
	method, rest, ok := strings.Cut(s, " ")
	if !ok || !isHTTPMethod(method) {
		return ""
	}
	if strings.HasPrefix(rest, `"`) {
		if end := strings.Index(rest[1:], `"`); end >= 0 {
			return strings.TrimSpace(strings.TrimPrefix(rest[end+2:], ":"))
		}
	}
	if i := strings.Index(rest, "://"); i >= 0 {
		if j := strings.Index(rest[i:], ": "); j >= 0 {
			return strings.TrimSpace(rest[i+j+2:])
		}
	}
	return ""
}

func isHTTPMethod(s string) bool {
	switch strings.ToUpper(s) {
	case http.MethodGet, http.MethodPut, http.MethodPost, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func statusCodeOf(err error) int {
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode
	}
	var rl *github.RateLimitError
	if errors.As(err, &rl) && rl.Response != nil {
		return rl.Response.StatusCode
	}
	return 0
}
