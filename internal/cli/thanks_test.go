package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cargo-thanks/internal/config"
	"cargo-thanks/internal/engine"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// writeProject creates a Cargo project without a lockfile and hides cargo from
// PATH so the Cargo.toml reader is used.
func writeProject(t *testing.T, deps ...string) string {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("[package]\nname = \"demo\"\nversion = \"0.1.0\"\n\n[dependencies]\n")
	for _, d := range deps {
		fmt.Fprintf(&b, "%s = \"1\"\n", d)
	}
	p := filepath.Join(dir, "Cargo.toml")
	if err := os.WriteFile(p, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write Cargo.toml: %v", err)
	}
	t.Setenv("PATH", t.TempDir())
	return p
}

func cratesServer(t *testing.T, repos map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/v1/crates/")
		repo, ok := repos[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if repo == "" {
			fmt.Fprintf(w, `{"crate":{"id":%q,"name":%q,"repository":null}}`, name, name)
			return
		}
		fmt.Fprintf(w, `{"crate":{"id":%q,"name":%q,"repository":%q}}`, name, name, repo)
	}))
	t.Cleanup(server.Close)
	return server
}

func quietContext() context.Context {
	return withLogger(context.Background(), newLogger(io.Discard, log.InfoLevel))
}

func TestRunThanks_DryRunNeedsNoToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	crates := cratesServer(t, map[string]string{
		"serde":          "https://github.com/serde-rs/serde",
		"left-pad-clone": "",
	})

	cfg := config.New()
	cfg.Manifest.Path = writeProject(t, "serde", "left-pad-clone")
	cfg.Registry.URL = crates.URL
	cfg.Runtime.DryRun = true

	var stdout, stderr bytes.Buffer
	code := runThanks(quietContext(), cfg, &stdout, &stderr)
	if code != engine.ExitOK {
		t.Fatalf("expected exit %d, got %d; stderr=%s", engine.ExitOK, code, stderr.String())
	}
	if want := "💖 serde github.com/serde-rs/serde (dry run)\n"; stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestRunThanks_StarsThroughGitHubAPI(t *testing.T) {
	crates := cratesServer(t, map[string]string{
		"serde": "https://github.com/serde-rs/serde",
		"rand":  "https://github.com/rust-random/rand.git",
		"ghost": "https://github.com/nobody/ghost",
	})

	var mu sync.Mutex
	var starred []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/v3/user/starred/")
		if path == "nobody/ghost" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
			return
		}
		mu.Lock()
		starred = append(starred, path)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(api.Close)

	cfg := config.New()
	cfg.Manifest.Path = writeProject(t, "serde", "rand", "ghost")
	cfg.Registry.URL = crates.URL
	cfg.Forge.Token = "test-token"
	cfg.Forge.APIURL = api.URL + "/api/v3/"

	var stdout, stderr bytes.Buffer
	code := runThanks(quietContext(), cfg, &stdout, &stderr)
	if code != engine.ExitPartial {
		t.Fatalf("expected exit %d, got %d; stderr=%s", engine.ExitPartial, code, stderr.String())
	}

	out := stdout.String()
	for _, want := range []string{
		"💖 serde github.com/serde-rs/serde\n",
		"💖 rand github.com/rust-random/rand\n",
		"💔 ghost GitHub API request failed (404 Not Found): Not Found\n",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(starred) != 2 {
		t.Fatalf("expected 2 stars, got %v", starred)
	}
}

func TestRunThanks_ExitCode3_WhenTokenMissing(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	cfg := config.New()
	cfg.Manifest.Path = writeProject(t, "serde")

	var stdout, stderr bytes.Buffer
	code := runThanks(quietContext(), cfg, &stdout, &stderr)
	if code != engine.ExitFatal {
		t.Fatalf("expected exit %d, got %d", engine.ExitFatal, code)
	}
	if !strings.Contains(stderr.String(), "no token provided") {
		t.Fatalf("expected token message, got %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("expected no stdout, got %q", stdout.String())
	}
}

func TestRunThanks_ExitCode3_WhenManifestMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.New()
	cfg.Manifest.Path = filepath.Join(t.TempDir(), "Cargo.toml")
	cfg.Runtime.DryRun = true

	var stdout, stderr bytes.Buffer
	code := runThanks(quietContext(), cfg, &stdout, &stderr)
	if code != engine.ExitFatal {
		t.Fatalf("expected exit %d, got %d", engine.ExitFatal, code)
	}
	if !strings.Contains(stderr.String(), "read dependencies") {
		t.Fatalf("expected setup stage in message, got %q", stderr.String())
	}
}

func TestRunThanks_ExitCode3_OnInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Output.Out = "results.unknown"
	cfg.Runtime.DryRun = true

	var stdout, stderr bytes.Buffer
	if code := runThanks(quietContext(), cfg, &stdout, &stderr); code != engine.ExitFatal {
		t.Fatalf("expected exit %d, got %d", engine.ExitFatal, code)
	}
	if !strings.Contains(stderr.String(), "cannot infer output format") {
		t.Fatalf("expected output format inference error, got %q", stderr.String())
	}
}

func TestRunThanks_ExcludeDropsCrates(t *testing.T) {
	crates := cratesServer(t, map[string]string{
		"serde":        "https://github.com/serde-rs/serde",
		"serde_json":   "https://github.com/serde-rs/json",
		"tokio-macros": "https://github.com/tokio-rs/tokio",
	})

	cfg := config.New()
	cfg.Manifest.Path = writeProject(t, "serde", "serde_json", "tokio-macros")
	cfg.Manifest.Exclude = []string{"tokio-*,serde_*"}
	cfg.Registry.URL = crates.URL
	cfg.Runtime.DryRun = true

	var stdout, stderr bytes.Buffer
	if code := runThanks(quietContext(), cfg, &stdout, &stderr); code != engine.ExitOK {
		t.Fatalf("expected exit %d, got %d; stderr=%s", engine.ExitOK, code, stderr.String())
	}
	if want := "💖 serde github.com/serde-rs/serde (dry run)\n"; stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Fatalf("expected default logger without attachment")
	}
	l := newLogger(io.Discard, log.DebugLevel)
	if loggerFromContext(withLogger(context.Background(), l)) != l {
		t.Fatalf("expected attached logger")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", buf.String())
	}
	newLogger(&buf, log.DebugLevel).Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug output, got %q", buf.String())
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	version, commit, _ := BuildInfo()
	if !strings.HasPrefix(out.String(), "cargo-thanks "+version+"\n") || !strings.Contains(out.String(), "commit: "+commit) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}
