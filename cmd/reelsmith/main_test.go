package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/config"
	"reelsmith/internal/job"
	"reelsmith/internal/jobstore"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("PEXELS_API_KEY", "")
	t.Setenv("REELSMITH_API_TOKEN", "")

	binDir := filepath.Join(base, "bin")
	makeStubExecutables(t, binDir, "edge-tts", "ffmpeg", "ffprobe")

	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "output"),
		stateDir:   filepath.Join(base, "state"),
	}
	content := fmt.Sprintf(`[paths]
output_dir = %q
music_dir = %q
log_dir = %q
state_dir = %q

[speech]
binary = %q

[engine]
ffmpeg_binary = %q
ffprobe_binary = %q

[logging]
level = "error"
`,
		env.outputDir,
		filepath.Join(base, "music"),
		filepath.Join(base, "logs"),
		env.stateDir,
		filepath.Join(binDir, "edge-tts"),
		filepath.Join(binDir, "ffmpeg"),
		filepath.Join(binDir, "ffprobe"),
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, _, _, err := config.Load(e.configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}

func (e *cliTestEnv) openStore(t *testing.T) *jobstore.Store {
	t.Helper()
	store, err := jobstore.Open(e.loadConfig(t).JobStorePath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func makeStubExecutables(t *testing.T, dir string, names ...string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create stub bin dir: %v", err)
	}
	for _, name := range names {
		var script string
		switch name {
		case "edge-tts":
			script = `#!/bin/sh
while [ $# -gt 0 ]; do
    case "$1" in
        --write-media) shift; printf 'ID3narration' > "$1" ;;
        --list-voices) printf 'Name: es-ES-AlvaroNeural\nGender: Male\n\nName: en-US-JennyNeural\nGender: Female\n' ;;
    esac
    shift
done
exit 0
`
		case "ffmpeg":
			script = `#!/bin/sh
for last; do :; done
printf 'rendered' > "$last"
exit 0
`
		case "ffprobe":
			script = `#!/bin/sh
printf '{"format":{"duration":"12.500000","size":"8"}}'
exit 0
`
		default:
			script = "#!/bin/sh\nexit 0\n"
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestProduceRunsJobWithStubbedTools(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"produce",
		"--script", "La niebla llegó de noche. Nadie volvió a ver el faro encendido.",
		"--id", "Faro 1",
		"--keywords", "faro,niebla",
		"--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("produce: %v\n%s", err, out)
	}

	var result job.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if !result.Success || result.State != job.StateDone {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.JobID != "faro_1" {
		t.Fatalf("expected sanitized id, got %q", result.JobID)
	}
	final := result.Artifacts[job.ArtifactFinal]
	if final != filepath.Join(env.outputDir, "video", "final", "faro_1-final.mp4") {
		t.Fatalf("unexpected final path %q", final)
	}
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("expected final video: %v", err)
	}
	if result.Duration != 12.5 {
		t.Fatalf("expected probed duration, got %v", result.Duration)
	}

	stored, err := env.openStore(t).Get(context.Background(), "faro_1")
	if err != nil || stored == nil {
		t.Fatalf("expected stored result, got %v (%v)", stored, err)
	}
	if stored.State != job.StateDone {
		t.Fatalf("expected stored state done, got %s", stored.State)
	}
}

func TestProduceRequiresScript(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"produce", "--id", "x"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "a script is required") {
		t.Fatalf("expected missing script error, got %v", err)
	}
}

func TestProduceRejectsUnknownStyle(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"produce", "--script", "hola", "--subtitle-style", "comic"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown subtitle style "comic"`) {
		t.Fatalf("expected style validation error, got %v", err)
	}
}

func TestBuildProduceRequestFlagsOverrideJobFile(t *testing.T) {
	dir := t.TempDir()
	jobPath := filepath.Join(dir, "job.yaml")
	jobYAML := "id: from-file\nscript: Texto del archivo.\nkeywords: [bosque]\nmusic_mood: epic\n"
	if err := os.WriteFile(jobPath, []byte(jobYAML), 0o644); err != nil {
		t.Fatalf("write job: %v", err)
	}

	cmd := &cobra.Command{Use: "produce"}
	var flags produceFlags
	bindProduceFlags(cmd, &flags)
	if err := cmd.ParseFlags([]string{"--job", jobPath, "--id", "override", "--no-music", "--keywords", "mar,ola"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	req, err := buildProduceRequest(cmd, flags)
	if err != nil {
		t.Fatalf("buildProduceRequest: %v", err)
	}
	if req.ID != "override" {
		t.Fatalf("expected flag id, got %q", req.ID)
	}
	if req.Script != "Texto del archivo." {
		t.Fatalf("expected script from file, got %q", req.Script)
	}
	if strings.Join(req.Keywords, ",") != "mar,ola" {
		t.Fatalf("expected flag keywords, got %v", req.Keywords)
	}
	if req.MusicMood != "epic" {
		t.Fatalf("expected mood from file, got %q", req.MusicMood)
	}
	if req.Music == nil || *req.Music {
		t.Fatalf("expected music disabled, got %v", req.Music)
	}
}

func TestJobsListShowAndStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	ctx := context.Background()

	done := job.NewResult("noche-1")
	done.State = job.StateDone
	done.Success = true
	done.Duration = 21.4
	done.StartedAt = time.Now().Add(-time.Hour)
	done.SetArtifact(job.ArtifactFinal, "/tmp/noche-1-final.mp4")
	failed := job.NewResult("noche-2")
	failed.StartedAt = time.Now()
	failed.Fail("compose", fmt.Errorf("ffmpeg failed"))
	for _, r := range []job.Result{done, failed} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.JobID, err)
		}
	}
	_ = store.Close()

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "noche-1")
	requireContains(t, out, "noche-2")
	if strings.Index(out, "noche-2") > strings.Index(out, "noche-1") {
		t.Fatalf("expected newest job first:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"jobs", "list", "--state", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list failed: %v", err)
	}
	if strings.Contains(out, "noche-1") {
		t.Fatalf("state filter leaked done job:\n%s", out)
	}

	if _, _, err := runCLI(t, []string{"jobs", "list", "--state", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown state error")
	}

	out, _, err = runCLI(t, []string{"jobs", "show", "noche-2"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "ffmpeg failed")
	requireContains(t, out, "compose")

	out, _, err = runCLI(t, []string{"jobs", "show", "noche-1", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show json: %v", err)
	}
	requireContains(t, out, `"job_id": "noche-1"`)

	if _, _, err := runCLI(t, []string{"jobs", "show", "missing"}, env.configPath); err == nil {
		t.Fatal("expected error for missing job")
	}

	out, _, err = runCLI(t, []string{"jobs", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs status: %v", err)
	}
	requireContains(t, out, "done")
	requireContains(t, out, "failed")
}

func TestJobsResetStuck(t *testing.T) {
	env := setupCLITestEnv(t)
	store := env.openStore(t)
	stuck := job.NewResult("stuck")
	stuck.State = job.StateMixed
	if err := store.Save(context.Background(), stuck); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = store.Close()

	out, _, err := runCLI(t, []string{"jobs", "reset-stuck"}, env.configPath)
	if err != nil {
		t.Fatalf("reset-stuck: %v", err)
	}
	requireContains(t, out, "Marked 1 job(s) as failed")

	got, err := env.openStore(t).Get(context.Background(), "stuck")
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != job.StateFailed {
		t.Fatalf("expected failed, got %s", got.State)
	}
}

func TestJobsListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "No jobs recorded")
}

func TestDoctorWithStubbedTools(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v\n%s", err, out)
	}
	requireContains(t, out, "edge-tts")
	requireContains(t, out, "Output directory")
	requireContains(t, out, "Disabled (no api key")
}

func TestDoctorFailsWithoutSpeechEngine(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.Remove(filepath.Join(env.baseDir, "bin", "edge-tts")); err != nil {
		t.Fatalf("remove stub: %v", err)
	}
	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatalf("expected doctor failure, got:\n%s", out)
	}
	requireContains(t, out, "ERROR")
}

func TestVoicesCommand(t *testing.T) {
	out, _, err := runCLI(t, []string{"voices", "--language", "es"}, "")
	if err != nil {
		t.Fatalf("voices: %v", err)
	}
	requireContains(t, out, "es-ES-AlvaroNeural")
	requireContains(t, out, "es-MX-DaliaNeural")
	if strings.Contains(out, "en-US-GuyNeural") {
		t.Fatalf("language filter leaked english voices:\n%s", out)
	}

	out, _, err = runCLI(t, []string{"voices", "--language", "Español"}, "")
	if err != nil {
		t.Fatalf("voices by name: %v", err)
	}
	requireContains(t, out, "Spanish")
	requireContains(t, out, "es-ES-AlvaroNeural")

	if _, _, err := runCLI(t, []string{"voices", "--language", "xx"}, ""); err == nil {
		t.Fatal("expected error for unknown language")
	}
}

func TestVoicesLiveUsesEngine(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"voices", "--live", "--language", "es"}, env.configPath)
	if err != nil {
		t.Fatalf("voices --live: %v", err)
	}
	requireContains(t, out, "es-ES-AlvaroNeural")
	if strings.Contains(out, "en-US-JennyNeural") {
		t.Fatalf("language filter leaked voices:\n%s", out)
	}
}

func TestIsLoopback(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:7490": true,
		"localhost:80":   true,
		"[::1]:7490":     true,
		"0.0.0.0:7490":   false,
		":7490":          false,
		"garbage":        false,
	}
	for address, want := range cases {
		if got := isLoopback(address); got != want {
			t.Fatalf("isLoopback(%q) = %v, want %v", address, got, want)
		}
	}
}
