package github

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode"
)

// TokenEnv is the environment variable consulted when --token is empty.
const TokenEnv = "GITHUB_TOKEN"

// ghTimeout bounds `gh auth token` when ctx has no deadline.
const ghTimeout = 5 * time.Second

// TokenSource names where a token came from. It is safe to log.
type TokenSource string

const (
	TokenFromFlag      TokenSource = "--token"
	TokenFromEnv       TokenSource = TokenEnv
	TokenFromGitHubCLI TokenSource = "gh auth token"
)

// ErrNoToken is returned by RequireToken when no source yields a token.
var ErrNoToken = errors.New("no token provided")

type Token struct {
	Value  string
	Source TokenSource
}

// ResolveToken looks for a token in flagValue, then $GITHUB_TOKEN, then the
// gh CLI session for host. A zero Token with a nil error means none was found.
func ResolveToken(ctx context.Context, flagValue, host string) (Token, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return Token{Value: v, Source: TokenFromFlag}, nil
	}
	if v := strings.TrimSpace(os.Getenv(TokenEnv)); v != "" {
		return Token{Value: v, Source: TokenFromEnv}, nil
	}

	v, err := ghAuthToken(ctx, host)
	if err != nil || v == "" {
		return Token{}, err
	}
	return Token{Value: v, Source: TokenFromGitHubCLI}, nil
}

// RequireToken is ResolveToken that fails with ErrNoToken when nothing is found.
func RequireToken(ctx context.Context, flagValue, host string) (Token, error) {
	tok, err := ResolveToken(ctx, flagValue, host)
	if err != nil {
		return Token{}, err
	}
	if tok.Value == "" {
		return Token{}, ErrNoToken
	}
	return tok, nil
}

// ghAuthToken asks a logged-in gh for its token. A missing or logged-out gh
// yields "", nil; gh's own output is never surfaced.
func ghAuthToken(ctx context.Context, host string) (string, error) {
	if _, err := exec.LookPath("gh"); err != nil {
		return "", nil
	}
	if host == "" {
		host = "github.com"
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ghTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "gh", "auth", "token", "--hostname", host)
	cmd.Env = append(os.Environ(), "GH_PAGER=cat")
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("gh auth token: %w", ctx.Err())
		}
		return "", nil
	}

	v := strings.TrimSpace(string(out))
	if strings.ContainsFunc(v, unicode.IsSpace) {
		return "", errors.New("gh auth token: output is not a single token")
	}
	return v, nil
}
