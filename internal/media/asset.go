package media

import (
	"fmt"
	"os"
	"strings"
)

// Kind classifies what an asset carries.
type Kind string

const (
	KindClip     Kind = "clip"
	KindImage    Kind = "image"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
	KindVideo    Kind = "video"
)

// Origin records how an asset came to exist.
type Origin string

const (
	OriginFetched     Origin = "fetched"
	OriginCached      Origin = "cached"
	OriginSynthesized Origin = "synthesized"
	OriginPassthrough Origin = "passthrough"
)

// Asset is a media file on local disk together with what is known about it.
type Asset struct {
	Kind     Kind    `json:"kind"`
	Origin   Origin  `json:"origin"`
	Path     string  `json:"path"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
	// Final marks artifacts that survive job cleanup.
	Final bool `json:"final,omitempty"`
	// Source names the strategy or provider that produced the asset.
	Source string `json:"source,omitempty"`
}

// Vertical reports whether the asset is taller than it is wide.
func (a Asset) Vertical() bool {
	return a.Height > a.Width
}

// Exists reports whether the asset path refers to a non-empty regular file.
func (a Asset) Exists() bool {
	if strings.TrimSpace(a.Path) == "" {
		return false
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// Validate checks the invariants every produced asset must satisfy.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Path) == "" {
		return fmt.Errorf("asset %s: empty path", a.Kind)
	}
	switch a.Kind {
	case KindClip, KindImage, KindAudio, KindSubtitle, KindVideo:
	default:
		return fmt.Errorf("asset %s: unknown kind", a.Kind)
	}
	if a.Duration < 0 {
		return fmt.Errorf("asset %s: negative duration %.3f", a.Path, a.Duration)
	}
	if a.Width < 0 || a.Height < 0 {
		return fmt.Errorf("asset %s: negative dimensions", a.Path)
	}
	return nil
}

// Paths returns the local paths of the given assets in order.
func Paths(assets []Asset) []string {
	out := make([]string, 0, len(assets))
	for _, asset := range assets {
		out = append(out, asset.Path)
	}
	return out
}
