package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	MusicDir  string `toml:"music_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	APIBind   string `toml:"api_bind"`
	// APIToken, when set, is required as a bearer token by the HTTP API.
	APIToken string `toml:"api_token"`
}

// Video contains output resolution and encoder settings for the final render.
type Video struct {
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	FPS          int    `toml:"fps"`
	VideoCodec   string `toml:"video_codec"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioCodec   string `toml:"audio_codec"`
	AudioBitrate string `toml:"audio_bitrate"`
}

// Speech contains the speech engine invocation settings.
type Speech struct {
	Binary         string `toml:"binary"`
	Voice          string `toml:"voice"`
	Rate           string `toml:"rate"`
	Pitch          string `toml:"pitch"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pexels contains stock media provider credentials and limits.
type Pexels struct {
	APIKey                 string `toml:"api_key"`
	BaseURL                string `toml:"base_url"`
	Orientation            string `toml:"orientation"`
	PerKeyword             int    `toml:"per_keyword"`
	TimeoutSeconds         int    `toml:"timeout_seconds"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
	DownloadWorkers        int    `toml:"download_workers"`
}

// Music contains background music selection and ducking parameters.
type Music struct {
	Enabled     bool    `toml:"enabled"`
	Mood        string  `toml:"mood"`
	Volume      float64 `toml:"volume"`
	VoiceVolume float64 `toml:"voice_volume"`
	FadeIn      float64 `toml:"fade_in"`
	FadeOut     float64 `toml:"fade_out"`
}

// Subtitles contains burned-in caption settings.
type Subtitles struct {
	Enabled  bool   `toml:"enabled"`
	Style    string `toml:"style"`
	MaxWords int    `toml:"max_words"`
}

// Background selects the visual sourcing ladder.
type Background struct {
	Style           string   `toml:"style"`
	GenericKeywords []string `toml:"generic_keywords"`
}

// Engine contains media engine binaries and invocation limits.
type Engine struct {
	FFmpegBinary         string  `toml:"ffmpeg_binary"`
	FFprobeBinary        string  `toml:"ffprobe_binary"`
	TimeoutSeconds       int     `toml:"timeout_seconds"`
	ProbeFallbackSeconds float64 `toml:"probe_fallback_seconds"`
}

// Workflow contains job scheduling settings.
type Workflow struct {
	ParallelJobs int  `toml:"parallel_jobs"`
	KeepScratch  bool `toml:"keep_scratch"`
}

// Notifications contains ntfy settings for job completion messages.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifySuccess         bool   `toml:"notify_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for Reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: output tree, music library, logs, job history and API bind address
//   - Video: output resolution and encoder settings
//   - Speech: edge-tts binary and default voice parameters
//   - Pexels: stock media credentials and request limits
//   - Music: mood track selection and ducking
//   - Subtitles: caption style and fragment size
//   - Background: visual sourcing ladder selection
//   - Engine: ffmpeg/ffprobe binaries and timeouts
//   - Workflow: job parallelism and scratch retention
//   - Notifications: ntfy topic for finished jobs
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Video         Video         `toml:"video"`
	Speech        Speech        `toml:"speech"`
	Pexels        Pexels        `toml:"pexels"`
	Music         Music         `toml:"music"`
	Subtitles     Subtitles     `toml:"subtitles"`
	Background    Background    `toml:"background"`
	Engine        Engine        `toml:"engine"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsmith/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output tree, log and state directories.
// The music directory is created on a best-effort basis; a missing library
// only degrades the music ladder to synthesized tones.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MusicDir) != "" {
		_ = os.MkdirAll(c.Paths.MusicDir, 0o755)
	}
	return nil
}

// JobStorePath returns the SQLite file holding job history.
func (c *Config) JobStorePath() string {
	return filepath.Join(c.Paths.StateDir, "jobs.db")
}

// SpeechTimeout returns the per-invocation speech engine timeout.
func (c *Config) SpeechTimeout() time.Duration {
	return time.Duration(c.Speech.TimeoutSeconds) * time.Second
}

// EngineTimeout returns the per-invocation ffmpeg timeout.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Engine.TimeoutSeconds) * time.Second
}

// PexelsTimeout returns the stock search request timeout.
func (c *Config) PexelsTimeout() time.Duration {
	return time.Duration(c.Pexels.TimeoutSeconds) * time.Second
}

// NotificationTimeout returns the ntfy request timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// PexelsDownloadTimeout returns the per-file stock download timeout.
func (c *Config) PexelsDownloadTimeout() time.Duration {
	return time.Duration(c.Pexels.DownloadTimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
