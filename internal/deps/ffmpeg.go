package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultFFprobe = "ffprobe"

// ResolveFFprobe picks the ffprobe binary that matches the configured ffmpeg.
//
// An explicitly configured path wins. Otherwise an ffprobe sitting next to the
// resolved ffmpeg executable is preferred over whatever PATH yields, so a
// static ffmpeg bundle is probed with its own ffprobe.
func ResolveFFprobe(ffmpegCommand, ffprobeCommand string) string {
	ffprobe := strings.TrimSpace(ffprobeCommand)
	if ffprobe != "" && ffprobe != defaultFFprobe {
		return ffprobe
	}
	if ffmpeg := strings.TrimSpace(ffmpegCommand); ffmpeg != "" {
		if resolved, err := exec.LookPath(ffmpeg); err == nil {
			candidate := filepath.Join(filepath.Dir(resolved), executableName(defaultFFprobe))
			if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
				return candidate
			}
		}
	}
	return defaultFFprobe
}

// MediaRequirements lists the binaries every production needs.
func MediaRequirements(speechCommand, ffmpegCommand, ffprobeCommand string) []Requirement {
	return []Requirement{
		{
			Name:        "edge-tts",
			Command:     speechCommand,
			Description: "Required for narration synthesis",
		},
		{
			Name:        "FFmpeg",
			Command:     ffmpegCommand,
			Description: "Required for rendering and mixing",
		},
		{
			Name:        "FFprobe",
			Command:     ResolveFFprobe(ffmpegCommand, ffprobeCommand),
			Description: "Required for duration probing",
		},
	}
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
