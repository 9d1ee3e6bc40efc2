package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelsmith/internal/services"
)

func TestOpenCreatesLayout(t *testing.T) {
	root := t.TempDir()
	w, err := Open(root, "abc", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	for _, dir := range []string{"audio", "video", "video/final", "subtitles", "logs", ".temp/abc", ".locks"} {
		if info, err := os.Stat(filepath.Join(root, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if got := w.FinalPath(); got != filepath.Join(root, "video", "final", "abc-final.mp4") {
		t.Fatalf("unexpected final path %s", got)
	}
}

func TestOpenRejectsSecondHolder(t *testing.T) {
	root := t.TempDir()
	first, err := Open(root, "same", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := Open(root, "same", nil); !errors.Is(err, ErrLocked) || !errors.Is(err, services.ErrResourceUnavailable) {
		t.Fatalf("expected lock contention, got %v", err)
	}
	other, err := Open(root, "different", nil)
	if err != nil {
		t.Fatalf("different job ids must not contend: %v", err)
	}
	other.Close()

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	again, err := Open(root, "same", nil)
	if err != nil {
		t.Fatalf("lock should be free after Close: %v", err)
	}
	again.Close()
}

func TestPublishAndCleanup(t *testing.T) {
	root := t.TempDir()
	w, err := Open(root, "job", nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer w.Close()

	rendered := w.Scratch("final.mp4")
	if err := os.WriteFile(rendered, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst, err := w.Publish(rendered)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if data, err := os.ReadFile(dst); err != nil || string(data) != "video" {
		t.Fatalf("published content mismatch: %q %v", data, err)
	}

	empty := w.Scratch("empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Publish(empty); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected empty output rejection, got %v", err)
	}

	if err := w.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if _, err := os.Stat(w.ScratchDir()); !os.IsNotExist(err) {
		t.Fatalf("scratch should be gone: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("final output must survive cleanup: %v", err)
	}
}

func TestOpenValidatesArguments(t *testing.T) {
	if _, err := Open("", "x", nil); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}
