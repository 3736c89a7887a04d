package registry

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is wrapped by FetchError when the registry answers 404.
	ErrNotFound = errors.New("crate not found")

	// ErrDecode is wrapped by FetchError when the response body is not a crate document.
	ErrDecode = errors.New("malformed registry response")
)

// FetchError reports a registry lookup failure for a single dependency.
// StatusCode is zero for transport and decode failures.
type FetchError struct {
	Dependency string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: registry returned %d %s: %v", e.Dependency, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Dependency, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
