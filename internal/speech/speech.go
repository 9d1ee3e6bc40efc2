package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

const (
	// DefaultVoice is used when a request names no voice.
	DefaultVoice = "es-ES-AlvaroNeural"
	// DefaultRate speeds narration up slightly for short-form pacing.
	DefaultRate = "+20%"
	// DefaultPitch raises pitch slightly.
	DefaultPitch   = "+5Hz"
	defaultBinary  = "edge-tts"
	defaultTimeout = 120 * time.Second
	stageName      = "speech"
)

// Caption is one timed line from the engine's caption track. Timestamps keep
// the engine's "HH:MM:SS,mmm" form.
type Caption struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Text  string `json:"text"`
}

// Request describes a single synthesis.
type Request struct {
	Text        string
	Voice       string
	Rate        string
	Pitch       string
	AudioPath   string
	CaptionPath string
}

// Output locates the synthesized files. CaptionPath is empty when the engine
// produced no caption track.
type Output struct {
	AudioPath   string
	CaptionPath string
}

// Synthesizer renders narration audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (Output, error)
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "speech")
	}
}

// Client wraps edge-tts CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// New constructs an edge-tts client.
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = defaultBinary
	}
	c := &Client{
		binary:  binary,
		timeout: defaultTimeout,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the configured executable name.
func (c *Client) Binary() string {
	return c.binary
}

// Synthesize renders req.Text to req.AudioPath and, when requested, the
// caption track to req.CaptionPath.
func (c *Client) Synthesize(ctx context.Context, req Request) (Output, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Output{}, services.Wrap(services.ErrInvalidArgument, stageName, "synthesize", "empty narration text", nil)
	}
	if strings.TrimSpace(req.AudioPath) == "" {
		return Output{}, services.Wrap(services.ErrInvalidArgument, stageName, "synthesize", "audio path required", nil)
	}
	for _, path := range []string{req.AudioPath, req.CaptionPath} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Output{}, services.Wrap(services.ErrConfiguration, stageName, "synthesize", "create output directory", err)
		}
	}

	args := BuildArgs(req)
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	output, err := c.exec.Run(runCtx, c.binary, args)
	if err != nil {
		if ctxErr := services.FromContext(ctx, stageName); ctxErr != nil {
			return Output{}, ctxErr
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Output{}, services.Wrap(services.ErrTimeout, stageName, "synthesize",
				fmt.Sprintf("%s exceeded %s", c.binary, c.timeout), err)
		}
		return Output{}, services.Wrap(services.ErrExternalTool, stageName, "synthesize",
			strings.TrimSpace(string(output)), err)
	}

	if info, statErr := os.Stat(req.AudioPath); statErr != nil || info.Size() == 0 {
		return Output{}, services.Wrap(services.ErrExternalTool, stageName, "synthesize",
			"engine exited cleanly but wrote no audio", statErr)
	}

	result := Output{AudioPath: req.AudioPath}
	if req.CaptionPath != "" {
		if info, statErr := os.Stat(req.CaptionPath); statErr == nil && info.Size() > 0 {
			result.CaptionPath = req.CaptionPath
		} else {
			c.logger.Debug("caption track missing after synthesis", logging.String("path", req.CaptionPath))
		}
	}
	c.logger.Info("narration synthesized",
		logging.String("voice", voiceOrDefault(req.Voice)),
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("captions", result.CaptionPath != ""),
	)
	return result, nil
}

// BuildArgs renders the edge-tts argument vector for req. Values that may
// start with "-" (rates like -10%, scripts opening with a bullet) use the
// --flag=value form so the engine's argument parser never reads them as flags.
func BuildArgs(req Request) []string {
	args := []string{
		"--voice=" + voiceOrDefault(req.Voice),
		"--rate=" + valueOr(req.Rate, DefaultRate),
		"--pitch=" + valueOr(req.Pitch, DefaultPitch),
		"--text=" + strings.TrimSpace(req.Text),
		"--write-media", req.AudioPath,
	}
	if req.CaptionPath != "" {
		args = append(args, "--write-subtitles", req.CaptionPath)
	}
	return args
}

func voiceOrDefault(voice string) string {
	return valueOr(voice, DefaultVoice)
}

func valueOr(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.Output()
	if err != nil {
		return stderr.Bytes(), err
	}
	return stdout, nil
}
