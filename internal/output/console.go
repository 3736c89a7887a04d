package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

const (
	glyphThanks = "💖"
	glyphFailed = "💔"
)

// ConsoleSink prints results to the terminal.
//
// In text mode every Result becomes one line: a glyph, the dependency name, and
// either the repository path or the failure detail in grey.
type ConsoleSink struct {
	writer  io.Writer
	format  string // "text", "json", "ndjson"
	detail  *color.Color
	mu      sync.Mutex
	results []Result
}

func NewConsoleSink(w io.Writer, format string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}
	return &ConsoleSink{
		writer: w,
		format: format,
		detail: color.RGB(128, 128, 128),
	}
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		if r, ok := resultOf(v); ok {
			s.results = append(s.results, r)
		}
		return nil
	case "ndjson":
		return writeNDJSON(s.writer, v)
	case "text":
		r, ok := resultOf(v)
		if !ok {
			return nil
		}
		if _, err := fmt.Fprintln(s.writer, s.line(r)); err != nil {
			return err
		}
		return flushIfPossible(s.writer)
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func (s *ConsoleSink) line(r Result) string {
	switch r.Status {
	case StatusFailed:
		return fmt.Sprintf("%s %s %s", glyphFailed, r.Dependency, s.detail.Sprint(r.Message))
	case StatusDryRun:
		return fmt.Sprintf("%s %s %s (dry run)", glyphThanks, r.Dependency, s.detail.Sprint(r.Repository))
	default:
		return fmt.Sprintf("%s %s %s", glyphThanks, r.Dependency, s.detail.Sprint(r.Repository))
	}
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		return writeJSONArray(s.writer, s.results)
	case "text", "ndjson":
		return nil
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}

func writeNDJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	switch t := v.(type) {
	case Event:
		if err := encoder.Encode(t); err != nil {
			return err
		}
	case Result:
		if err := encoder.Encode(OutcomeEvent("", t)); err != nil {
			return err
		}
	default:
		return nil
	}
	return flushIfPossible(w)
}

func writeJSONArray(w io.Writer, results []Result) error {
	if results == nil {
		results = []Result{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return flushIfPossible(w)
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
