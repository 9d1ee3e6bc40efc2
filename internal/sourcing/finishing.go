package sourcing

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"reelsmith/internal/composition"
	"reelsmith/internal/fallback"
	"reelsmith/internal/fileutil"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
)

// SubtitleLadder returns burn overlay -> pass-through copy. Both rungs
// write output.
func (s *Sourcer) SubtitleLadder(video media.Asset, subtitlePath, output string) fallback.Ladder[media.Asset] {
	return fallback.Ladder[media.Asset]{
		Name: LadderSubtitles,
		Strategies: []fallback.Strategy[media.Asset]{
			{
				Name: StrategyBurn,
				Resolve: func(ctx context.Context) (media.Asset, error) {
					if strings.TrimSpace(subtitlePath) == "" {
						return media.Asset{}, fmt.Errorf("%w: no subtitle document", fallback.ErrNoAsset)
					}
					plan, err := composition.BuildOverlaySubtitlePlan(video, subtitlePath)
					if err != nil {
						return media.Asset{}, err
					}
					if err := s.renderer.Run(ctx, plan, output); err != nil {
						return media.Asset{}, err
					}
					return derived(video, output, media.OriginSynthesized, StrategyBurn), nil
				},
			},
			copyStrategy(StrategySubtitlePassthrough, video, output),
		},
	}
}

// MixLadder returns ducked mix -> narration pass-through. A nil music asset
// skips straight to the pass-through rung.
func (s *Sourcer) MixLadder(voice media.Asset, music *media.Asset, dir string) fallback.Ladder[media.Asset] {
	passthroughPath := filepath.Join(dir, "narration_passthrough"+filepath.Ext(voice.Path))
	return fallback.Ladder[media.Asset]{
		Name: LadderMix,
		Strategies: []fallback.Strategy[media.Asset]{
			{
				Name: StrategyDuckedMix,
				Resolve: func(ctx context.Context) (media.Asset, error) {
					if music == nil {
						return media.Asset{}, fmt.Errorf("%w: no background music", fallback.ErrNoAsset)
					}
					plan, err := composition.BuildDuckedMixPlan(voice, *music, s.opts.Levels)
					if err != nil {
						return media.Asset{}, err
					}
					output := filepath.Join(dir, "mixed.m4a")
					if err := s.renderer.Run(ctx, plan, output); err != nil {
						return media.Asset{}, err
					}
					return derived(voice, output, media.OriginSynthesized, StrategyDuckedMix), nil
				},
			},
			copyStrategy(StrategyNarrationPassthrough, voice, passthroughPath),
		},
	}
}

func copyStrategy(name string, source media.Asset, output string) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: name,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			stage, _ := services.StageFromContext(ctx)
			if err := services.FromContext(ctx, stage); err != nil {
				return media.Asset{}, err
			}
			if err := fileutil.CopyFileVerified(source.Path, output); err != nil {
				return media.Asset{}, services.Wrap(services.ErrResourceUnavailable, stage, name, "copy "+source.Path, err)
			}
			return derived(source, output, media.OriginPassthrough, name), nil
		},
	}
}

func derived(from media.Asset, path string, origin media.Origin, source string) media.Asset {
	out := from
	out.Path = path
	out.Origin = origin
	out.Source = source
	out.Final = false
	return out
}
