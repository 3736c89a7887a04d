package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cargo-thanks/internal/transport"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v81/github"
	"golang.org/x/oauth2"
)

// Client is the authenticated forge client shared by every star action.
type Client struct {
	Client *github.Client
	HTTP   *http.Client
}

type options struct {
	logger    *log.Logger
	userAgent string
	baseURL   string
	timeout   time.Duration
}

type Option func(*options)

// WithLogger logs every GitHub API call at debug level.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithBaseURL points the client at a GitHub Enterprise Server API root
// (e.g. https://ghe.example.com/api/v3/). Empty keeps api.github.com.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = strings.TrimSpace(u) }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func NewClient(ctx context.Context, token string, opts ...Option) (*Client, error) {
	if ctx == nil {
		return nil, fmt.Errorf("github client: ctx is nil")
	}

	o := &options{}
	for _, apply := range opts {
		if apply != nil {
			apply(o)
		}
	}

	rt := transport.Logging(http.DefaultTransport, o.logger, "github api")
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		rt = &oauth2.Transport{Source: ts, Base: rt}
	}
	tc := &http.Client{Transport: rt, Timeout: o.timeout}

	gc := github.NewClient(tc)
	if o.baseURL != "" {
		var err error
		gc, err = gc.WithEnterpriseURLs(o.baseURL, o.baseURL)
		if err != nil {
			return nil, fmt.Errorf("github client: base url: %w", err)
		}
	}
	if o.userAgent != "" {
		gc.UserAgent = o.userAgent
	}

	return &Client{
		Client: gc,
		HTTP:   tc,
	}, nil
}

// Star stars owner/repo for the authenticated user.
func (c *Client) Star(ctx context.Context, owner, repo string) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("github client is nil")
	}
	_, err := c.Client.Activity.Star(ctx, owner, repo)
	return err
}
