package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cargo-thanks/internal/registry"

	"github.com/charmbracelet/log"
)

type starCall struct{ owner, repo string }

type fakeStarrer struct {
	mu    sync.Mutex
	calls []starCall
	fail  map[string]error // keyed by owner/repo
	delay time.Duration

	inFlight, peak int32
}

func (f *fakeStarrer) Star(ctx context.Context, owner, repo string) error {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if cur <= p || atomic.CompareAndSwapInt32(&f.peak, p, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, starCall{owner, repo})
	return f.fail[owner+"/"+repo]
}

func (f *fakeStarrer) starred() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.owner+"/"+c.repo)
	}
	sort.Strings(out)
	return out
}

// fakeRegistry serves crate documents from a name → repository map. A nil
// repository is served as JSON null; names listed in broken get a 500.
func fakeRegistry(t *testing.T, repos map[string]*string, broken ...string) *registry.Client {
	t.Helper()
	brokenSet := make(map[string]bool, len(broken))
	for _, b := range broken {
		brokenSet[b] = true
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/v1/crates/")
		if brokenSet[name] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		repo, ok := repos[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if repo == nil {
			fmt.Fprintf(w, `{"crate":{"id":%q,"name":%q,"repository":null}}`, name, name)
			return
		}
		fmt.Fprintf(w, `{"crate":{"id":%q,"name":%q,"repository":%q}}`, name, name, *repo)
	}))
	t.Cleanup(server.Close)

	c, err := registry.NewClient(server.URL)
	if err != nil {
		t.Fatalf("registry.NewClient: %v", err)
	}
	return c
}

func strPtr(s string) *string { return &s }

func testEngine(f Fetcher, s Starrer) *Engine {
	return &Engine{
		Fetcher: f,
		Starrer: s,
		Host:    "github.com",
		Logger:  log.New(io.Discard),
	}
}

func collect(ch <-chan Outcome) []Outcome {
	var out []Outcome
	for o := range ch {
		out = append(out, o)
	}
	return out
}

func TestExecute_Scenario_SerdeAndRepolessCrate(t *testing.T) {
	reg := fakeRegistry(t, map[string]*string{
		"serde":          strPtr("https://github.com/serde-rs/serde"),
		"left-pad-clone": nil,
	})
	starrer := &fakeStarrer{}

	outcomes := collect(testEngine(reg, starrer).Execute(context.Background(), []string{"serde", "left-pad-clone"}))

	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d: %+v", len(outcomes), outcomes)
	}
	o := outcomes[0]
	if o.Failed() {
		t.Fatalf("unexpected failure: %v", o.Err)
	}
	if o.Dependency != "serde" || o.Target == nil || o.Target.Owner != "serde-rs" || o.Target.Repo != "serde" {
		t.Fatalf("unexpected outcome: %+v", o)
	}
	if got := starrer.starred(); len(got) != 1 || got[0] != "serde-rs/serde" {
		t.Fatalf("unexpected stars: %v", got)
	}
}

func TestExecute_FetchFailureIsIsolated(t *testing.T) {
	reg := fakeRegistry(t, map[string]*string{
		"a": strPtr("https://github.com/o/a"),
		"b": strPtr("https://github.com/o/b.git"),
		"c": strPtr("https://github.com/o/c"),
		"d": strPtr("https://github.com/o/d"),
	}, "b")
	starrer := &fakeStarrer{}

	names := []string{"a", "b", "c", "d"}
	outcomes := collect(testEngine(reg, starrer).Execute(context.Background(), names))

	if len(outcomes) != len(names) {
		t.Fatalf("expected %d outcomes, got %d", len(names), len(outcomes))
	}
	var failed []Outcome
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	if len(failed) != 1 {
		t.Fatalf("expected exactly 1 failure, got %d", len(failed))
	}
	f := failed[0]
	if f.Dependency != "b" || f.Target != nil {
		t.Fatalf("unexpected failure outcome: %+v", f)
	}
	if f.Stage() != StageFetch {
		t.Fatalf("Stage = %q, want %q", f.Stage(), StageFetch)
	}
	var fe *registry.FetchError
	if !errors.As(f.Err, &fe) || fe.Dependency != "b" || fe.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected FetchError for b with 500, got %v", f.Err)
	}
	if got := strings.Join(starrer.starred(), ","); got != "o/a,o/c,o/d" {
		t.Fatalf("unexpected stars: %s", got)
	}
}

func TestExecute_ActionFailureIsIsolated(t *testing.T) {
	reg := fakeRegistry(t, map[string]*string{
		"a": strPtr("https://github.com/o/a"),
		"b": strPtr("https://github.com/o/b"),
		"c": strPtr("https://github.com/o/c"),
	})
	starrer := &fakeStarrer{fail: map[string]error{"o/b": errors.New("forbidden")}}

	outcomes := collect(testEngine(reg, starrer).Execute(context.Background(), []string{"a", "b", "c"}))
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if o.Dependency == "b" {
			var ae *ActionError
			if !errors.As(o.Err, &ae) {
				t.Fatalf("expected ActionError, got %v", o.Err)
			}
			if ae.Owner != "o" || ae.Repo != "b" || ae.Dependency != "b" {
				t.Fatalf("unexpected ActionError context: %+v", ae)
			}
			if o.Stage() != StageAction {
				t.Fatalf("Stage = %q", o.Stage())
			}
			continue
		}
		if o.Failed() {
			t.Fatalf("unexpected failure for %s: %v", o.Dependency, o.Err)
		}
	}
}

func TestExecute_EmptySetProducesNoOutcomes(t *testing.T) {
	reg := fakeRegistry(t, nil)
	starrer := &fakeStarrer{}
	if outcomes := collect(testEngine(reg, starrer).Execute(context.Background(), nil)); len(outcomes) != 0 {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
	if len(starrer.starred()) != 0 {
		t.Fatalf("expected no stars")
	}
}

func TestExecute_ForeignHostsAreDroppedSilently(t *testing.T) {
	reg := fakeRegistry(t, map[string]*string{
		"gl":    strPtr("https://gitlab.com/o/gl"),
		"owner": strPtr("https://github.com/justowner"),
		"gh":    strPtr("https://github.com/o/gh"),
	})
	starrer := &fakeStarrer{}

	outcomes := collect(testEngine(reg, starrer).Execute(context.Background(), []string{"gl", "owner", "gh"}))
	if len(outcomes) != 1 || outcomes[0].Dependency != "gh" {
		t.Fatalf("expected only gh outcome, got %+v", outcomes)
	}
}

func TestExecute_DryRunDoesNotStar(t *testing.T) {
	reg := fakeRegistry(t, map[string]*string{"serde": strPtr("https://github.com/serde-rs/serde")})
	e := testEngine(reg, nil)
	e.DryRun = true

	outcomes := collect(e.Execute(context.Background(), []string{"serde"}))
	if len(outcomes) != 1 || !outcomes[0].DryRun || outcomes[0].Failed() {
		t.Fatalf("unexpected outcomes: %+v", outcomes)
	}
}

func TestExecute_ActorConcurrencyLimit(t *testing.T) {
	repos := make(map[string]*string)
	var names []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("crate%d", i)
		repos[name] = strPtr("https://github.com/o/" + name)
		names = append(names, name)
	}
	reg := fakeRegistry(t, repos)
	starrer := &fakeStarrer{delay: 20 * time.Millisecond}
	e := testEngine(reg, starrer)
	e.Concurrency = 2

	outcomes := collect(e.Execute(context.Background(), names))
	if len(outcomes) != len(names) {
		t.Fatalf("expected %d outcomes, got %d", len(names), len(outcomes))
	}
	if peak := atomic.LoadInt32(&starrer.peak); peak > 2 {
		t.Fatalf("expected at most 2 concurrent stars, saw %d", peak)
	}
}

// chanFetcher lets a test control the order results arrive in.
type chanFetcher struct {
	results []registry.FetchResult
}

func (f chanFetcher) FetchAll(ctx context.Context, names []string) <-chan registry.FetchResult {
	ch := make(chan registry.FetchResult)
	go func() {
		defer close(ch)
		for _, r := range f.results {
			ch <- r
		}
	}()
	return ch
}

func TestExecute_EveryInputYieldsOneTerminalResult(t *testing.T) {
	f := chanFetcher{results: []registry.FetchResult{
		{Name: "z", Crate: registry.Crate{ID: "z", Name: "z", Repository: "https://github.com/o/z"}},
		{Name: "y", Err: &registry.FetchError{Dependency: "y", Err: errors.New("connection refused")}},
		{Name: "x", Crate: registry.Crate{ID: "x", Name: "x"}},
		{Name: "w", Crate: registry.Crate{ID: "w", Name: "w", Repository: "https://github.com/o/w"}},
	}}
	starrer := &fakeStarrer{}

	seen := make(map[string]int)
	for o := range testEngine(f, starrer).Execute(context.Background(), []string{"w", "x", "y", "z"}) {
		seen[o.Dependency]++
	}
	if len(seen) != 3 || seen["w"] != 1 || seen["y"] != 1 || seen["z"] != 1 {
		t.Fatalf("unexpected outcome counts: %v", seen)
	}
}
