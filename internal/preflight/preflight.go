package preflight

import (
	"context"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
	// Optional marks checks whose failure degrades output instead of
	// failing jobs.
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))

	if cfg.Music.Enabled && strings.TrimSpace(cfg.Paths.MusicDir) != "" {
		music := CheckDirectoryAccess("Music library", cfg.Paths.MusicDir)
		// Missing tracks fall back to a synthesized tone.
		music.Optional = true
		results = append(results, music)
	}

	results = append(results, CheckPexelsFromConfig(ctx, cfg))
	return results
}

// Failed reports whether any mandatory check failed.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed && !r.Optional {
			return true
		}
	}
	return false
}

func fromStatus(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Command
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Detail:   detail,
		Optional: status.Optional,
	}
}
