package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAssetValidate(t *testing.T) {
	good := Asset{Kind: KindClip, Origin: OriginFetched, Path: "/tmp/a.mp4", Width: 1080, Height: 1920, Duration: 6}
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !good.Vertical() {
		t.Fatal("expected vertical clip")
	}
	cases := []Asset{
		{Kind: KindClip},
		{Kind: "hologram", Path: "/tmp/x"},
		{Kind: KindAudio, Path: "/tmp/x", Duration: -1},
		{Kind: KindImage, Path: "/tmp/x", Width: -5},
	}
	for _, asset := range cases {
		if err := asset.Validate(); err == nil {
			t.Fatalf("expected error for %+v", asset)
		}
	}
}

func TestAssetExists(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "full.mp3")
	if err := os.WriteFile(full, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if (Asset{Path: empty}).Exists() {
		t.Fatal("empty file should not count as existing asset")
	}
	if !(Asset{Path: full}).Exists() {
		t.Fatal("expected asset to exist")
	}
	if (Asset{Path: dir}).Exists() {
		t.Fatal("directory should not count as asset")
	}
	if got := Paths([]Asset{{Path: "a"}, {Path: "b"}}); len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected paths %v", got)
	}
}

func TestResolution(t *testing.T) {
	if err := Vertical9x16.Validate(); err != nil {
		t.Fatalf("default resolution invalid: %v", err)
	}
	if Vertical9x16.Orientation() != OrientationPortrait || Vertical9x16.Size() != "1080x1920" {
		t.Fatalf("unexpected geometry %s %s", Vertical9x16.Orientation(), Vertical9x16.Size())
	}
	if (Resolution{Width: 1920, Height: 1080, FPS: 30}).Orientation() != OrientationLandscape {
		t.Fatal("expected landscape")
	}
	if (Resolution{Width: 1080, Height: 1080, FPS: 30}).Orientation() != OrientationSquare {
		t.Fatal("expected square")
	}
	for _, bad := range []Resolution{{Width: 1081, Height: 1920, FPS: 30}, {Width: 0, Height: 1920, FPS: 30}, {Width: 1080, Height: 1920}} {
		if err := bad.Validate(); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}
