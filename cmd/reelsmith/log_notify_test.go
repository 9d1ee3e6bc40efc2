package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"reelsmith/internal/job"
)

func TestJobsLogPrintsFormattedEntries(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)

	logPath := filepath.Join(env.baseDir, "logs", "clip.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	lines := strings.Join([]string{
		`{"ts":"2026-10-18T10:00:00Z","level":"info","msg":"narration synthesized","stage":"speech"}`,
		`{"ts":"2026-10-18T10:00:01Z","level":"warn","msg":"stock search failed","stage":"background","event_type":"fallback"}`,
		`{"ts":"2026-10-18T10:00:02Z","level":"info","msg":"video composed","stage":"compose"}`,
	}, "\n") + "\n"
	if err := os.WriteFile(logPath, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	result := job.NewResult("clip")
	result.State = job.StateDone
	result.Success = true
	result.SetArtifact(job.ArtifactLog, logPath)
	if err := store.Save(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = store.Close()

	out, _, err := runCLI(t, []string{"jobs", "log", "clip"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs log: %v", err)
	}
	requireContains(t, out, "narration synthesized")
	requireContains(t, out, "video composed")

	out, _, err = runCLI(t, []string{"jobs", "log", "clip", "--level", "warn"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs log --level: %v", err)
	}
	requireContains(t, out, "stock search failed")
	if strings.Contains(out, "video composed") {
		t.Fatalf("level filter leaked info entry:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"jobs", "log", "clip", "--stage", "compose", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs log --stage: %v", err)
	}
	if strings.Contains(out, "narration") || !strings.Contains(out, "video composed") {
		t.Fatalf("unexpected stage output:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"jobs", "log", "clip", "--raw", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs log --raw: %v", err)
	}
	requireContains(t, out, `"msg":"video composed"`)

	if _, _, err := runCLI(t, []string{"jobs", "log", "clip", "--level", "loud"}, env.configPath); err == nil {
		t.Fatal("expected unknown level error")
	}
	if _, _, err := runCLI(t, []string{"jobs", "log", "missing"}, env.configPath); err == nil {
		t.Fatal("expected missing job error")
	}
}

func TestJobsLogWithoutLogArtifact(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	if err := store.Save(context.Background(), job.NewResult("quiet")); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = store.Close()

	_, _, err := runCLI(t, []string{"jobs", "log", "quiet"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "has no log") {
		t.Fatalf("expected no-log error, got %v", err)
	}
}

func TestNotifyTestSendsMessage(t *testing.T) {
	var mu sync.Mutex
	var title, body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		title = r.Header.Get("Title")
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	env := setupCLITestEnv(t)
	appendConfig(t, env.configPath, "\n[notifications]\nntfy_topic = \""+server.URL+"/reelsmith\"\n")

	out, _, err := runCLI(t, []string{"notify-test"}, env.configPath)
	if err != nil {
		t.Fatalf("notify-test: %v", err)
	}
	requireContains(t, out, "Test notification sent")

	mu.Lock()
	defer mu.Unlock()
	if title != "Reelsmith - Test" {
		t.Fatalf("unexpected title %q", title)
	}
	requireContains(t, body, "Notification system test")
}

func TestNotifyTestRequiresTopic(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"notify-test"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "ntfy_topic") {
		t.Fatalf("expected missing topic error, got %v", err)
	}
}

func appendConfig(t *testing.T, path, extra string) {
	t.Helper()
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	defer file.Close()
	if _, err := file.WriteString(extra); err != nil {
		t.Fatalf("append config: %v", err)
	}
}
