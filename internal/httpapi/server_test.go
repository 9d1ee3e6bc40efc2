package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/job"
	"reelsmith/internal/media"
	"reelsmith/internal/testsupport"
)

type memoryStore struct {
	mu      sync.Mutex
	results map[string]job.Result
}

func newMemoryStore() *memoryStore {
	return &memoryStore{results: map[string]job.Result{}}
}

func (m *memoryStore) Save(_ context.Context, result job.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.JobID] = result
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*job.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result, ok := m.results[id]
	if !ok {
		return nil, nil
	}
	return &result, nil
}

func (m *memoryStore) List(_ context.Context, limit int, states ...job.State) ([]job.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []job.Result
	for _, result := range m.results {
		if len(states) > 0 && !containsState(states, result.State) {
			continue
		}
		out = append(out, result)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsState(states []job.State, s job.State) bool {
	for _, candidate := range states {
		if candidate == s {
			return true
		}
	}
	return false
}

// doneRunner marks every job done and records it.
type doneRunner struct {
	store *memoryStore
	ran   chan string
}

func (r doneRunner) Run(ctx context.Context, j *job.Job) job.Result {
	j.Result.State = job.StateDone
	j.Result.Success = true
	_ = r.store.Save(ctx, j.Result)
	r.ran <- j.ID
	return j.Result
}

func newTestServer(t *testing.T, token string) (*Server, *memoryStore, chan string) {
	t.Helper()
	store := newMemoryStore()
	ran := make(chan string, 8)
	srv, err := New(Options{
		Runner: doneRunner{store: store, ran: ran},
		Store:  store,
		Defaults: job.Defaults{
			MusicMood:        "tension",
			SubtitleStyle:    "viral",
			MaxSubtitleWords: 5,
			BackgroundStyle:  "stock_video",
			Resolution:       media.Vertical9x16,
			OutputDir:        t.TempDir(),
		},
		Token: token,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv, store, ran
}

func do(t *testing.T, srv *Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(t, "secret")
	rec := do(t, srv, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitRunsJob(t *testing.T) {
	srv, store, ran := newTestServer(t, "")
	rec := do(t, srv, http.MethodPost, "/jobs", `{"id":"faro","script":"El faro se apagó."}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rec.Code, rec.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID != "faro" || resp.Location != "/jobs/faro" {
		t.Fatalf("unexpected response %+v", resp)
	}

	select {
	case id := <-ran:
		if id != "faro" {
			t.Fatalf("ran %s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job never ran")
	}
	srv.Wait()

	got, _ := store.Get(context.Background(), "faro")
	if got == nil || got.State != job.StateDone {
		t.Fatalf("unexpected stored result %+v", got)
	}
	rec = do(t, srv, http.MethodGet, "/jobs/faro", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"state":"done"`) {
		t.Fatalf("unexpected get response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitValidation(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	cases := map[string]string{
		"malformed":    `{"script":`,
		"empty script": `{"script":"  "}`,
		"bad style":    `{"script":"x","background_style":"vhs"}`,
		"script file":  `{"script_file":"/etc/passwd"}`,
		"output dir":   `{"script":"x","output_dir":"/tmp/elsewhere"}`,
	}
	for name, body := range cases {
		if rec := do(t, srv, http.MethodPost, "/jobs", body, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d %s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestSubmitConflictsWithRunningJob(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	running := job.NewResult("busy")
	running.State = job.StateMixed
	_ = store.Save(context.Background(), running)

	if rec := do(t, srv, http.MethodPost, "/jobs", `{"id":"busy","script":"x"}`, ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestListAndGet(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	for _, id := range []string{"a", "b", "c"} {
		r := job.NewResult(id)
		r.State = job.StateDone
		_ = store.Save(context.Background(), r)
	}
	failed := job.NewResult("d")
	failed.State = job.StateFailed
	_ = store.Save(context.Background(), failed)

	rec := do(t, srv, http.MethodGet, "/jobs?limit=2", "", "")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Jobs) != 2 {
		t.Fatalf("unexpected list %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, srv, http.MethodGet, "/jobs?state=failed", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Jobs) != 1 || resp.Jobs[0].JobID != "d" {
		t.Fatalf("state filter ignored: %s", rec.Body.String())
	}
	if rec := do(t, srv, http.MethodGet, "/jobs?limit=zero", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs?state=paused", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad state, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs/missing", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv, _, _ := newTestServer(t, "secret")
	if rec := do(t, srv, http.MethodGet, "/jobs", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs", "", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs", "", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
}

func TestJobLog(t *testing.T) {
	srv, store, _ := newTestServer(t, "")
	logPath := filepath.Join(t.TempDir(), "faro.log")
	content := strings.Join([]string{
		`{"ts":"2026-03-01T10:00:00Z","level":"info","msg":"stage started","stage":"speech"}`,
		`{"ts":"2026-03-01T10:00:01Z","level":"info","msg":"stage started","stage":"mix"}`,
		`{"ts":"2026-03-01T10:00:02Z","level":"warn","msg":"stage degraded","stage":"mix"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	r := job.NewResult("faro")
	r.SetArtifact(job.ArtifactLog, logPath)
	_ = store.Save(context.Background(), r)
	_ = store.Save(context.Background(), job.NewResult("quiet"))

	rec := do(t, srv, http.MethodGet, "/jobs/faro/log?limit=2", "", "")
	var resp logResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("unexpected log response %d %s", rec.Code, rec.Body.String())
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Stage != "mix" || resp.Offset != int64(len(content)) {
		t.Fatalf("unexpected tail %+v", resp)
	}

	rec = do(t, srv, http.MethodGet, "/jobs/faro/log?offset=0&limit=1", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	firstLine := strings.SplitAfter(content, "\n")[0]
	if len(resp.Entries) != 1 || resp.Entries[0].Stage != "speech" || resp.Offset != int64(len(firstLine)) {
		t.Fatalf("unexpected paged response %+v", resp)
	}

	rec = do(t, srv, http.MethodGet, "/jobs/faro/log?level=warn", "", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || len(resp.Entries) != 1 || resp.Entries[0].Message != "stage degraded" {
		t.Fatalf("level filter ignored: %s", rec.Body.String())
	}

	if rec := do(t, srv, http.MethodGet, "/jobs/faro/log?level=loud", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad level, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs/faro/log?offset=-5", "", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad offset, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs/quiet/log", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for job without log, got %d", rec.Code)
	}
	if rec := do(t, srv, http.MethodGet, "/jobs/missing/log", "", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing job, got %d", rec.Code)
	}
}

type storeRunner struct {
	store Store
}

func (r storeRunner) Run(ctx context.Context, j *job.Job) job.Result {
	j.Result.State = job.StateDone
	j.Result.Success = true
	_ = r.store.Save(ctx, j.Result)
	return j.Result
}

func TestSubmitWithJobStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	srv, err := New(Options{
		Runner:   storeRunner{store: store},
		Store:    store,
		Defaults: job.DefaultsFromConfig(cfg),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := do(t, srv, http.MethodPost, "/jobs", `{"id":"marea","script":"La marea sube."}`, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d %s", rec.Code, rec.Body.String())
	}
	srv.Wait()

	rec = do(t, srv, http.MethodGet, "/jobs?state=done", "", "")
	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 1 || resp.Jobs[0].JobID != "marea" || !resp.Jobs[0].Success {
		t.Fatalf("unexpected stored jobs %s", rec.Body.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// holdingRunner occupies the only run slot until the server shuts down and
// the test lets it go.
type holdingRunner struct {
	started chan string
	hold    chan struct{}
}

func (r holdingRunner) Run(ctx context.Context, j *job.Job) job.Result {
	r.started <- j.ID
	<-ctx.Done()
	<-r.hold
	return j.Result
}

// failedSaveStore rejects saving any failed result and reports each attempt.
type failedSaveStore struct {
	*memoryStore
	attempts chan string
}

func (s failedSaveStore) Save(ctx context.Context, result job.Result) error {
	if result.State == job.StateFailed {
		s.attempts <- result.JobID
		return errors.New("disk full")
	}
	return s.memoryStore.Save(ctx, result)
}

func TestShutdownLogsQueuedJobSaveFailure(t *testing.T) {
	var logs lockedBuffer
	runner := holdingRunner{started: make(chan string, 1), hold: make(chan struct{})}
	store := failedSaveStore{memoryStore: newMemoryStore(), attempts: make(chan string, 1)}
	srv, err := New(Options{
		Runner:      runner,
		Store:       store,
		Defaults:    job.Defaults{MusicMood: "tension", SubtitleStyle: "viral", MaxSubtitleWords: 5, BackgroundStyle: "stock_video", Resolution: media.Vertical9x16, OutputDir: t.TempDir()},
		Parallelism: 1,
		Logger:      slog.New(slog.NewJSONHandler(&logs, nil)),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rec := do(t, srv, http.MethodPost, "/jobs", `{"id":"first","script":"uno"}`, ""); rec.Code != http.StatusAccepted {
		t.Fatalf("first submit: %d %s", rec.Code, rec.Body.String())
	}
	<-runner.started
	if rec := do(t, srv, http.MethodPost, "/jobs", `{"id":"queued","script":"dos"}`, ""); rec.Code != http.StatusAccepted {
		t.Fatalf("second submit: %d %s", rec.Code, rec.Body.String())
	}

	srv.cancel()
	select {
	case id := <-store.attempts:
		if id != "queued" {
			t.Fatalf("unexpected failed save for %s", id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("queued job was never failed")
	}
	close(runner.hold)
	srv.Wait()

	out := logs.String()
	if !strings.Contains(out, `"event_type":"job_persist_failed"`) || !strings.Contains(out, "disk full") {
		t.Fatalf("expected save failure in log:\n%s", out)
	}
}
