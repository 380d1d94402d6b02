package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/petfriends/internal/config"
	"github.com/samvad-hq/petfriends/internal/fakeapi"
	"github.com/samvad-hq/petfriends/pkg/publishers"
)

const (
	testEmail    = "checker@example.com"
	testPassword = "pa55"
)

func newFakeAPI(t *testing.T) (*fakeapi.Server, string) {
	t.Helper()
	fake := fakeapi.New(fakeapi.Options{
		Users:    []fakeapi.User{{Email: testEmail, Password: testPassword}},
		SeedPets: 2,
	})
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, srv.URL
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		BaseURL:                baseURL,
		RequestTimeout:         5 * time.Second,
		PhotoContentType:       "image/jpeg",
		ValidEmail:             testEmail,
		ValidPassword:          testPassword,
		InvalidEmail:           "nobody@example.invalid",
		InvalidPassword:        "nope",
		StorageType:            "bbolt",
		BBoltPath:              filepath.Join(dir, "ledger.db"),
		StorageTTL:             time.Hour,
		StorageCleanupInterval: time.Hour,
		PublishersFile:         filepath.Join(dir, "publishers.yaml"),
	}
}

type sink struct {
	mu     sync.Mutex
	events []publishers.Event
}

func (s *sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var evt publishers.Event
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.events = append(s.events, evt)
	s.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func TestCheckerRunsSuiteAndPublishes(t *testing.T) {
	fake, baseURL := newFakeAPI(t)
	cfg := testConfig(t, baseURL)

	hook := &sink{}
	hookSrv := httptest.NewServer(hook)
	defer hookSrv.Close()
	raw := "publishers:\n  - id: hook\n    type: http\n    http:\n      url: " + hookSrv.URL + "\n"
	if err := os.WriteFile(cfg.PublishersFile, []byte(raw), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}

	checker, err := NewChecker(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	defer checker.Close()

	report, err := checker.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !report.OK() {
		t.Fatalf("unexpected failures: %v", report.FailedNames())
	}

	if len(hook.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(hook.events))
	}
	if got := hook.events[0]; got.Report.RunID != report.RunID || got.Outcome != publishers.OutcomePassed {
		t.Fatalf("unexpected event %+v", got)
	}

	tracked, err := checker.Store().TrackedPets()
	if err != nil {
		t.Fatalf("TrackedPets: %v", err)
	}
	if len(tracked) != len(fake.PetsOf(testEmail)) || len(tracked) == 0 {
		t.Fatalf("ledger tracks %d pets, account has %d", len(tracked), len(fake.PetsOf(testEmail)))
	}
}

func TestCheckerWithoutPublishersFile(t *testing.T) {
	_, baseURL := newFakeAPI(t)
	cfg := testConfig(t, baseURL)

	checker, err := NewChecker(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	defer checker.Close()

	report, err := checker.Run(context.Background(), "api_key_valid_user", "list_pets_invalid_key")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Passed != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestCheckerRejectsUnknownScenario(t *testing.T) {
	_, baseURL := newFakeAPI(t)
	checker, err := NewChecker(context.Background(), testConfig(t, baseURL), nil)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	defer checker.Close()

	if _, err := checker.Run(context.Background(), "walk_the_dog"); err == nil {
		t.Fatalf("expected error for unknown scenario")
	}
}

func TestCheckerRejectsBrokenPublishersFile(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	if err := os.WriteFile(cfg.PublishersFile, []byte("publishers:\n  - type: http\n"), 0o644); err != nil {
		t.Fatalf("write publishers file: %v", err)
	}
	if _, err := NewChecker(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for invalid publishers file")
	}
}

func TestSweeperDeletesTrackedPets(t *testing.T) {
	fake, baseURL := newFakeAPI(t)
	cfg := testConfig(t, baseURL)

	checker, err := NewChecker(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	defer checker.Close()
	if _, err := checker.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(fake.PetsOf(testEmail)) == 0 {
		t.Fatalf("expected the run to leave pets behind")
	}

	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sweeper, err := NewSweeper(client, Credentials(cfg), checker.Store(), nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	res, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if res.Deleted != res.Tracked || res.Failed != 0 {
		t.Fatalf("unexpected sweep result %+v", res)
	}
	if left := fake.PetsOf(testEmail); len(left) != 0 {
		t.Fatalf("expected account to be empty, %d pets left", len(left))
	}
	tracked, _ := checker.Store().TrackedPets()
	if len(tracked) != 0 {
		t.Fatalf("expected ledger to be empty, got %v", tracked)
	}
}

func TestSweeperKeepsRejectedPets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/api/key"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"key":"k"}`))
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/stuck"):
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	store, err := OpenStore(cfg, nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()
	for _, id := range []string{"gone", "stuck"} {
		if err := store.RecordPet(id); err != nil {
			t.Fatalf("RecordPet: %v", err)
		}
	}

	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sweeper, err := NewSweeper(client, Credentials(cfg), store, nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}

	res, err := sweeper.Sweep(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status 500 error, got %v", err)
	}
	if res.Deleted != 1 || res.Failed != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}
	tracked, _ := store.TrackedPets()
	if len(tracked) != 1 || tracked[0] != "stuck" {
		t.Fatalf("expected only stuck to remain tracked, got %v", tracked)
	}
}

func TestSweeperWithEmptyLedgerSkipsLogin(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:1")
	store, err := OpenStore(cfg, nil)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	defer store.Close()

	client, err := NewClient(cfg, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sweeper, err := NewSweeper(client, Credentials(cfg), store, nil)
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	res, err := sweeper.Sweep(context.Background())
	if err != nil || res.Tracked != 0 {
		t.Fatalf("expected empty sweep, got %+v, %v", res, err)
	}
}
