package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"reelsmith/internal/config"
)

func TestLoadDefaultConfigUsesEnvPexelsKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "reelsmith", "output")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Pexels.APIKey != "test-key" {
		t.Fatalf("expected Pexels key from env, got %q", cfg.Pexels.APIKey)
	}
	if cfg.Video.Width != 1080 || cfg.Video.Height != 1920 || cfg.Video.FPS != 30 {
		t.Fatalf("unexpected resolution: %+v", cfg.Video)
	}
	if cfg.Speech.Voice != "es-ES-AlvaroNeural" || cfg.Speech.Rate != "+20%" || cfg.Speech.Pitch != "+5Hz" {
		t.Fatalf("unexpected speech defaults: %+v", cfg.Speech)
	}
	if cfg.Subtitles.Style != "viral" || cfg.Subtitles.MaxWords != 5 {
		t.Fatalf("unexpected subtitle defaults: %+v", cfg.Subtitles)
	}
	if cfg.Engine.ProbeFallbackSeconds != 30 {
		t.Fatalf("unexpected probe fallback: %v", cfg.Engine.ProbeFallbackSeconds)
	}
	if strings.Join(cfg.Background.GenericKeywords, ",") != "abstract,nature,sky" {
		t.Fatalf("unexpected generic keywords: %v", cfg.Background.GenericKeywords)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir, cfg.Paths.StateDir, cfg.Paths.MusicDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if cfg.JobStorePath() != filepath.Join(cfg.Paths.StateDir, "jobs.db") {
		t.Fatalf("unexpected job store path: %q", cfg.JobStorePath())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "reelsmith.toml")

	type payload struct {
		Pexels struct {
			APIKey  string `toml:"api_key"`
			BaseURL string `toml:"base_url"`
		} `toml:"pexels"`
		Music struct {
			Mood string `toml:"mood"`
		} `toml:"music"`
		Background struct {
			Style           string   `toml:"style"`
			GenericKeywords []string `toml:"generic_keywords"`
		} `toml:"background"`
	}
	custom := payload{}
	custom.Pexels.APIKey = "abc123"
	custom.Pexels.BaseURL = "https://example.com/pexels/"
	custom.Music.Mood = "  Epic "
	custom.Background.Style = "space"
	custom.Background.GenericKeywords = []string{"Ocean", "ocean", " ", "city"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("PEXELS_API_KEY", "env-key")
	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Pexels.APIKey != "abc123" {
		t.Fatalf("expected file key to win over env, got %q", cfg.Pexels.APIKey)
	}
	if cfg.Pexels.BaseURL != "https://example.com/pexels" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Pexels.BaseURL)
	}
	if cfg.Music.Mood != "epic" {
		t.Fatalf("expected normalized mood, got %q", cfg.Music.Mood)
	}
	if cfg.Background.Style != "space" {
		t.Fatalf("unexpected background style %q", cfg.Background.Style)
	}
	if strings.Join(cfg.Background.GenericKeywords, ",") != "ocean,city" {
		t.Fatalf("unexpected keywords: %v", cfg.Background.GenericKeywords)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"unknown style":      "[subtitles]\nstyle = \"comic\"\n",
		"unknown mood":       "[music]\nmood = \"polka\"\n",
		"zero max words":     "[subtitles]\nmax_words = 0\n",
		"odd width":          "[video]\nwidth = 1081\n",
		"negative timeout":   "[engine]\ntimeout_seconds = -1\n",
		"unknown backdrop":   "[background]\nstyle = \"lava\"\n",
		"music too loud":     "[music]\nvolume = 1.5\n",
		"bad orientation":    "[pexels]\norientation = \"diagonal\"\n",
		"parallel jobs zero": "[workflow]\nparallel_jobs = 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "reelsmith.toml")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected validation error for %q", body)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config should load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Video.CRF != 23 || cfg.Video.Preset != "fast" {
		t.Fatalf("unexpected sample video section: %+v", cfg.Video)
	}
}
