package composition

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

	"reelsmith/internal/fileutil"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// DefaultTimeout bounds a single media engine invocation.
const DefaultTimeout = 10 * time.Minute

const stderrTailBytes = 2048

// Runner executes the media engine and returns its stderr.
type Runner interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, binary string, args []string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	return f(ctx, binary, args)
}

type commandRunner struct{}

func (commandRunner) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// Engine renders plans and runs them through ffmpeg.
type Engine struct {
	binary   string
	encoding Encoding
	runner   Runner
	timeout  time.Duration
	logger   *slog.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithRunner injects the command runner.
func WithRunner(r Runner) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logging.NewComponentLogger(logger, "composition")
	}
}

// NewEngine constructs an engine for the given ffmpeg binary.
func NewEngine(binary string, enc Encoding, opts ...EngineOption) *Engine {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	e := &Engine{
		binary:   binary,
		encoding: enc,
		runner:   commandRunner{},
		timeout:  DefaultTimeout,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Binary returns the ffmpeg executable the engine invokes.
func (e *Engine) Binary() string {
	return e.binary
}

// Run validates plan, renders it against a temporary sibling of output and
// renames the result into place. output is never left half written.
func (e *Engine) Run(ctx context.Context, plan Plan, output string) error {
	stage, _ := services.StageFromContext(ctx)
	if err := services.FromContext(ctx, stage); err != nil {
		return err
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrInvalidArgument, stage, "render "+planName(plan), "output path is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return services.Wrap(services.ErrResourceUnavailable, stage, "render "+planName(plan), "create output directory", err)
	}

	temp := fileutil.TempSibling(output)
	_ = os.Remove(temp)
	enc := e.encoding
	if enc.Container == "" {
		enc.Container = ContainerForPath(output)
	}
	args, err := FFmpegArgs(plan, temp, enc)
	if err != nil {
		return err
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("media engine invocation",
		logging.String("plan", plan.Name),
		logging.String("output", output),
		logging.String("args", strings.Join(args, " ")),
	)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	started := time.Now()
	stderr, runErr := e.runner.Run(runCtx, e.binary, args)
	if runErr != nil {
		_ = os.Remove(temp)
		if err := services.FromContext(ctx, stage); err != nil {
			return err
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, stage, "render "+planName(plan),
				fmt.Sprintf("ffmpeg exceeded %s", e.timeout), runErr)
		}
		return services.Wrap(services.ErrExternalTool, stage, "render "+planName(plan),
			fmt.Sprintf("ffmpeg failed: %s", stderrTail(stderr)), runErr)
	}

	info, err := os.Stat(temp)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(temp)
		return services.Wrap(services.ErrExternalTool, stage, "render "+planName(plan), "ffmpeg produced no output", err)
	}
	if err := os.Rename(temp, output); err != nil {
		_ = os.Remove(temp)
		return services.Wrap(services.ErrResourceUnavailable, stage, "render "+planName(plan), "publish output", err)
	}
	logger.Debug("media engine finished",
		logging.String("plan", plan.Name),
		logging.Duration("elapsed", time.Since(started)),
		logging.SizeBytes(info.Size()),
	)
	return nil
}

func stderrTail(stderr []byte) string {
	text := strings.TrimSpace(string(stderr))
	if text == "" {
		return "no stderr"
	}
	if len(text) > stderrTailBytes {
		text = "..." + text[len(text)-stderrTailBytes:]
	}
	return text
}
