package transport

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// loggingRoundTripper wraps an underlying transport and emits one debug line per
// request and response (including latency).
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger *log.Logger
	label  string
}

// Logging returns base wrapped so every round trip is logged at debug level under
// label (e.g. "crates.io", "github api"). A nil logger returns base unchanged.
func Logging(base http.RoundTripper, logger *log.Logger, label string) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		return base
	}
	return &loggingRoundTripper{base: base, logger: logger, label: label}
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debug(t.label, "method", req.Method, "url", req.URL.Redacted())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debug(t.label, "error", err, "after", dur)
		return resp, err
	}
	t.logger.Debug(t.label, "status", resp.StatusCode, "text", http.StatusText(resp.StatusCode), "took", dur)
	return resp, err
}
