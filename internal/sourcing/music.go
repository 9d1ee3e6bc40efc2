package sourcing

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"reelsmith/internal/composition"
	"reelsmith/internal/fallback"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
)

// toneTail pads synthesized music past the narration so the fade-out has
// material to work with.
const toneTail = 5.0

// MusicLadder returns mood track -> synthesized ambient tone. reference is
// the narration duration in seconds.
func (s *Sourcer) MusicLadder(mood string, reference float64, dir string) (fallback.Ladder[media.Asset], error) {
	if reference <= 0 || math.IsNaN(reference) || math.IsInf(reference, 0) {
		return fallback.Ladder[media.Asset]{}, services.Wrap(services.ErrInvalidArgument, LadderMusic, "build ladder", "reference duration must be positive", nil)
	}
	mood = strings.ToLower(strings.TrimSpace(mood))
	if mood == "" {
		mood = DefaultMood
	}
	return fallback.Ladder[media.Asset]{
		Name: LadderMusic,
		Strategies: []fallback.Strategy[media.Asset]{
			s.moodTrackStrategy(mood),
			s.ambientToneStrategy(mood, reference, dir),
		},
	}, nil
}

func (s *Sourcer) moodTrackStrategy(mood string) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: StrategyMoodTrack,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			if strings.TrimSpace(s.opts.MusicDir) == "" {
				return media.Asset{}, fmt.Errorf("%w: music directory not configured", fallback.ErrNoAsset)
			}
			track := s.catalog.Track(mood)
			asset := media.Asset{
				Kind:   media.KindAudio,
				Origin: media.OriginCached,
				Path:   filepath.Join(s.opts.MusicDir, track.File),
				Source: StrategyMoodTrack + ":" + mood,
			}
			if !asset.Exists() {
				return media.Asset{}, fmt.Errorf("%w: %s not found", fallback.ErrNoAsset, asset.Path)
			}
			if s.prober != nil {
				asset.Duration = s.prober.Duration(ctx, asset.Path)
			}
			return asset, nil
		},
	}
}

func (s *Sourcer) ambientToneStrategy(mood string, reference float64, dir string) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: StrategyAmbientTone,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			duration := reference + toneTail
			plan, err := composition.BuildAmbientTonePlan(s.catalog.Tone(mood), duration)
			if err != nil {
				return media.Asset{}, err
			}
			output := filepath.Join(dir, "tone_"+mood+".m4a")
			if err := s.renderer.Run(ctx, plan, output); err != nil {
				return media.Asset{}, err
			}
			return media.Asset{
				Kind:     media.KindAudio,
				Origin:   media.OriginSynthesized,
				Path:     output,
				Duration: duration,
				Source:   StrategyAmbientTone + ":" + mood,
			}, nil
		},
	}
}
