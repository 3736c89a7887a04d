package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cargo-thanks/internal/transport"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultURL       = "https://crates.io"
	DefaultUserAgent = "cargo-thanks"
)

// Client queries a crates.io compatible registry.
//
// A Client is safe for concurrent use; its configuration is fixed at construction.
type Client struct {
	http        *http.Client
	baseURL     *url.URL
	userAgent   string
	concurrency int
	group       singleflight.Group
}

type options struct {
	userAgent   string
	timeout     time.Duration
	concurrency int
	logger      *log.Logger
	base        http.RoundTripper
}

type Option func(*options)

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithConcurrency caps in-flight requests made by FetchAll. Zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithLogger enables debug logging of every registry round trip.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTransport replaces the underlying round tripper (tests).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultURL
	}
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("registry url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("registry url %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")

	o := &options{userAgent: DefaultUserAgent}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	return &Client{
		http: &http.Client{
			Transport: transport.Logging(o.base, o.logger, "registry"),
			Timeout:   o.timeout,
		},
		baseURL:     u,
		userAgent:   o.userAgent,
		concurrency: o.concurrency,
	}, nil
}

func (c *Client) crateURL(name string) string {
	u := *c.baseURL
	u.Path = u.Path + "/api/v1/crates/" + url.PathEscape(name)
	return u.String()
}

// FetchCrate looks up one crate. Concurrent calls for the same name share a
// single request. Every failure is returned as a *FetchError.
func (c *Client) FetchCrate(ctx context.Context, name string) (Crate, error) {
	v, err, _ := c.group.Do(name, func() (interface{}, error) {
		return c.fetch(ctx, name)
	})
	if err != nil {
		return Crate{}, err
	}
	return v.(Crate), nil
}

func (c *Client) fetch(ctx context.Context, name string) (Crate, error) {
	if strings.TrimSpace(name) == "" {
		return Crate{}, &FetchError{Dependency: name, Err: fmt.Errorf("empty crate name")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.crateURL(name), nil)
	if err != nil {
		return Crate{}, &FetchError{Dependency: name, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Crate{}, &FetchError{Dependency: name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		cause := fmt.Errorf("unexpected status")
		if resp.StatusCode == http.StatusNotFound {
			cause = ErrNotFound
		}
		return Crate{}, &FetchError{Dependency: name, StatusCode: resp.StatusCode, Err: cause}
	}

	var body crateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Crate{}, &FetchError{Dependency: name, Err: fmt.Errorf("%w: %v", ErrDecode, err)}
	}
	if body.Crate == nil {
		return Crate{}, &FetchError{Dependency: name, Err: fmt.Errorf("%w: missing crate object", ErrDecode)}
	}
	if body.Crate.ID == "" || body.Crate.Name == "" {
		return Crate{}, &FetchError{Dependency: name, Err: fmt.Errorf("%w: missing id or name", ErrDecode)}
	}

	out := Crate{ID: body.Crate.ID, Name: body.Crate.Name}
	if body.Crate.Repository != nil {
		out.Repository = strings.TrimSpace(*body.Crate.Repository)
	}
	return out, nil
}
