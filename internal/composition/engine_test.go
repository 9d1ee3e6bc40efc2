package composition

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
)

func gradientPlan(t *testing.T) Plan {
	t.Helper()
	plan, err := BuildGradientPlan(3, media.Vertical9x16, "")
	if err != nil {
		t.Fatalf("BuildGradientPlan: %v", err)
	}
	return plan
}

func TestEngineRunPublishesAtomically(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "video", "bg.mp4")
	var seen []string
	runner := RunnerFunc(func(_ context.Context, binary string, args []string) ([]byte, error) {
		if binary != "ffmpeg-test" {
			t.Fatalf("unexpected binary %q", binary)
		}
		seen = args
		target := args[len(args)-1]
		if target == output {
			t.Fatal("engine must not write the final path directly")
		}
		if _, err := os.Stat(output); err == nil {
			t.Fatal("final path exists before rename")
		}
		return nil, os.WriteFile(target, []byte("frames"), 0o644)
	})
	engine := NewEngine("ffmpeg-test", DefaultEncoding(), WithRunner(runner))
	if err := engine.Run(context.Background(), gradientPlan(t), output); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil || string(data) != "frames" {
		t.Fatalf("unexpected output %q err=%v", data, err)
	}
	if _, err := os.Stat(fileutil.TempSibling(output)); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
	if idx := slices.Index(seen, "-f"); idx < 0 || seen[idx+1] != "mp4" {
		t.Fatalf("expected container hint for temp path, got %v", seen)
	}
}

func TestEngineRunFailureCarriesStderr(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.mp4")
	runner := RunnerFunc(func(_ context.Context, _ string, args []string) ([]byte, error) {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return []byte("Invalid filter geq\n"), errors.New("exit status 1")
	})
	engine := NewEngine("", DefaultEncoding(), WithRunner(runner))
	err := engine.Run(context.Background(), gradientPlan(t), output)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "Invalid filter geq") {
		t.Fatalf("stderr missing from error: %v", err)
	}
	if _, statErr := os.Stat(output); !os.IsNotExist(statErr) {
		t.Fatal("failed run must not publish output")
	}
	if _, statErr := os.Stat(fileutil.TempSibling(output)); !os.IsNotExist(statErr) {
		t.Fatal("failed run must remove partial output")
	}
}

func TestEngineRunEmptyOutputIsFailure(t *testing.T) {
	runner := RunnerFunc(func(context.Context, string, []string) ([]byte, error) { return nil, nil })
	engine := NewEngine("ffmpeg", DefaultEncoding(), WithRunner(runner))
	err := engine.Run(context.Background(), gradientPlan(t), filepath.Join(t.TempDir(), "x.mp4"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool failure, got %v", err)
	}
}

func TestEngineRunTimeout(t *testing.T) {
	runner := RunnerFunc(func(ctx context.Context, _ string, _ []string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	engine := NewEngine("ffmpeg", DefaultEncoding(), WithRunner(runner), WithTimeout(20*time.Millisecond))
	err := engine.Run(context.Background(), gradientPlan(t), filepath.Join(t.TempDir(), "x.mp4"))
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestEngineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	runner := RunnerFunc(func(ctx context.Context, _ string, _ []string) ([]byte, error) {
		cancel()
		<-ctx.Done()
		return nil, ctx.Err()
	})
	engine := NewEngine("ffmpeg", DefaultEncoding(), WithRunner(runner))
	err := engine.Run(services.WithStage(ctx, "background"), gradientPlan(t), filepath.Join(t.TempDir(), "x.mp4"))
	if !errors.Is(err, services.ErrStageAborted) {
		t.Fatalf("expected stage aborted, got %v", err)
	}
}

func TestEngineRunRejectsInvalidPlan(t *testing.T) {
	called := false
	runner := RunnerFunc(func(context.Context, string, []string) ([]byte, error) {
		called = true
		return nil, nil
	})
	engine := NewEngine("ffmpeg", DefaultEncoding(), WithRunner(runner))
	err := engine.Run(context.Background(), Plan{Name: "broken"}, filepath.Join(t.TempDir(), "x.mp4"))
	if !errors.Is(err, services.ErrInvalidArgument) || called {
		t.Fatalf("expected validation failure before invocation, got %v called=%v", err, called)
	}
}

func TestContainerForPath(t *testing.T) {
	cases := map[string]string{"a.MP4": "mp4", "b.m4a": "ipod", "c.mkv": "matroska", "d.wav": "wav", "e.ass": ""}
	for path, want := range cases {
		if got := ContainerForPath(path); got != want {
			t.Fatalf("ContainerForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
