package sourcing

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"path/filepath"
	"strings"

	"reelsmith/internal/composition"
	"reelsmith/internal/fallback"
	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/stock"
	"reelsmith/internal/textutil"
	"reelsmith/internal/timing"
)

const defaultPhotoQuery = "nature landscape"

// BackgroundRequest describes the background a job needs.
type BackgroundRequest struct {
	JobID    string
	Keywords []string
	Style    string
	// Duration is the narration length the background must cover.
	Duration float64
	Dir      string
	// Resolution and Orientation default to the sourcer options.
	Resolution  media.Resolution
	Orientation string
}

// BackgroundLadder returns the ordered strategies for style. Stock rungs
// always lead to the gradient and starfield generators.
func (s *Sourcer) BackgroundLadder(req BackgroundRequest) (fallback.Ladder[media.Asset], error) {
	if req.Duration <= 0 || math.IsNaN(req.Duration) || math.IsInf(req.Duration, 0) {
		return fallback.Ladder[media.Asset]{}, services.Wrap(services.ErrInvalidArgument, LadderBackground, "build ladder", "duration must be positive", nil)
	}
	if req.Resolution == (media.Resolution{}) {
		req.Resolution = s.opts.Resolution
		if strings.TrimSpace(req.Orientation) == "" {
			req.Orientation = s.opts.Orientation
		}
	}
	if strings.TrimSpace(req.Orientation) == "" {
		req.Orientation = req.Resolution.Orientation()
	}
	keywords := textutil.NormalizeKeywords(req.Keywords)
	gradient := s.gradientStrategy(req)
	starfield := s.starfieldStrategy(req)

	var strategies []fallback.Strategy[media.Asset]
	switch strings.TrimSpace(req.Style) {
	case "", StyleStockVideo:
		strategies = []fallback.Strategy[media.Asset]{
			s.stockClipStrategy(StrategyStockKeywords, keywords, req),
			s.stockClipStrategy(StrategyStockGeneric, textutil.NormalizeKeywords(s.opts.GenericKeywords), req),
			gradient,
			starfield,
		}
	case StyleStockImages:
		strategies = []fallback.Strategy[media.Asset]{s.kenBurnsStrategy(keywords, req), gradient, starfield}
	case StyleAnimated:
		strategies = []fallback.Strategy[media.Asset]{gradient, starfield}
	case StyleSpace:
		strategies = []fallback.Strategy[media.Asset]{starfield, gradient}
	default:
		return fallback.Ladder[media.Asset]{}, services.Wrap(services.ErrInvalidArgument, LadderBackground, "build ladder",
			fmt.Sprintf("unknown background style %q", req.Style), nil)
	}
	return fallback.Ladder[media.Asset]{Name: LadderBackground, Strategies: strategies}, nil
}

func (s *Sourcer) stockClipStrategy(name string, keywords []string, req BackgroundRequest) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: name,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			if s.provider == nil {
				return media.Asset{}, fmt.Errorf("%w: stock provider not configured", fallback.ErrNoAsset)
			}
			if len(keywords) == 0 {
				return media.Asset{}, fmt.Errorf("%w: no keywords", fallback.ErrNoAsset)
			}
			need := timing.ClipCount(req.Duration)
			perKeyword := make([][]stock.Candidate, 0, len(keywords))
			var searchErrs []error
			for _, keyword := range keywords {
				found, err := s.provider.SearchVideos(ctx, keyword, req.Orientation, s.opts.PerKeyword)
				if err != nil {
					if services.Aborted(err) {
						return media.Asset{}, err
					}
					searchErrs = append(searchErrs, err)
					continue
				}
				s.logger.Debug("stock search",
					logging.String("strategy", name),
					logging.String("keyword", keyword),
					logging.Int("results", len(found)),
				)
				perKeyword = append(perKeyword, found)
			}
			candidates, owners := interleave(perKeyword, need)
			if len(candidates) == 0 {
				if len(searchErrs) > 0 {
					return media.Asset{}, errors.Join(searchErrs...)
				}
				return media.Asset{}, fmt.Errorf("%w: no stock videos for %s", fallback.ErrNoAsset, strings.Join(keywords, ","))
			}

			clips, err := s.downloadAll(ctx, candidates, req.Dir, "clip_"+name, media.KindClip)
			if err != nil {
				return media.Asset{}, err
			}
			if len(clips) == 0 {
				return media.Asset{}, fmt.Errorf("%w: every stock download failed", fallback.ErrNoAsset)
			}
			window := timing.Window{Start: 0, End: req.Duration}
			var plan composition.Plan
			if weights := keywordWeights(clips, owners); uniform(weights) {
				plan, err = composition.BuildConcatPlan(clips, window, req.Resolution)
			} else {
				plan, err = composition.BuildWeightedConcatPlan(clips, weights, window, req.Resolution)
			}
			if err != nil {
				return media.Asset{}, err
			}
			return s.renderVideo(ctx, plan, req, name, media.OriginFetched)
		},
	}
}

// interleave takes candidates round-robin across keyword result lists,
// skipping duplicates, until limit are collected. owners maps each picked
// candidate's source name to the index of the list it came from.
func interleave(lists [][]stock.Candidate, limit int) ([]stock.Candidate, map[string]int) {
	out := make([]stock.Candidate, 0, limit)
	owners := make(map[string]int, limit)
	seen := make(map[int64]struct{})
	for depth := 0; len(out) < limit; depth++ {
		progressed := false
		for owner, list := range lists {
			if depth >= len(list) {
				continue
			}
			progressed = true
			candidate := list[depth]
			if _, dup := seen[candidate.ID]; dup {
				continue
			}
			seen[candidate.ID] = struct{}{}
			owners[stockSource(candidate.ID)] = owner
			out = append(out, candidate)
			if len(out) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return out, owners
}

// keywordWeights gives every keyword an equal share of the background: a
// keyword that contributed two clips gets half-width slices for each. Clips
// with no known keyword count as their own group.
func keywordWeights(clips []media.Asset, owners map[string]int) []float64 {
	counts := make(map[int]int)
	groups := make([]int, len(clips))
	for i, c := range clips {
		owner, ok := owners[c.Source]
		if !ok {
			owner = -1 - i
		}
		groups[i] = owner
		counts[owner]++
	}
	weights := make([]float64, len(clips))
	for i, owner := range groups {
		weights[i] = 1 / float64(counts[owner])
	}
	return weights
}

func uniform(weights []float64) bool {
	for _, w := range weights[1:] {
		if w != weights[0] {
			return false
		}
	}
	return true
}

func (s *Sourcer) kenBurnsStrategy(keywords []string, req BackgroundRequest) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: StrategyKenBurns,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			if s.provider == nil {
				return media.Asset{}, fmt.Errorf("%w: stock provider not configured", fallback.ErrNoAsset)
			}
			query := strings.Join(keywords, " ")
			if query == "" {
				query = defaultPhotoQuery
			}
			need := timing.ImageCount(req.Duration)
			photos, err := s.provider.SearchPhotos(ctx, query, req.Orientation, need)
			if err != nil {
				return media.Asset{}, err
			}
			if len(photos) < 2 {
				return media.Asset{}, fmt.Errorf("%w: %d photos for %q", fallback.ErrNoAsset, len(photos), query)
			}
			if len(photos) > need {
				photos = photos[:need]
			}
			images, err := s.downloadAll(ctx, photos, req.Dir, "img", media.KindImage)
			if err != nil {
				return media.Asset{}, err
			}
			if len(images) < 2 {
				return media.Asset{}, fmt.Errorf("%w: only %d photos downloaded", fallback.ErrNoAsset, len(images))
			}
			plan, err := composition.BuildKenBurnsPlan(images, timing.Window{Start: 0, End: req.Duration}, req.Resolution)
			if err != nil {
				return media.Asset{}, err
			}
			return s.renderVideo(ctx, plan, req, StrategyKenBurns, media.OriginFetched)
		},
	}
}

func (s *Sourcer) gradientStrategy(req BackgroundRequest) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: StrategyGradient,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			plan, err := composition.BuildGradientPlan(req.Duration, req.Resolution, GradientColorFor(req.JobID))
			if err != nil {
				return media.Asset{}, err
			}
			return s.renderVideo(ctx, plan, req, StrategyGradient, media.OriginSynthesized)
		},
	}
}

func (s *Sourcer) starfieldStrategy(req BackgroundRequest) fallback.Strategy[media.Asset] {
	return fallback.Strategy[media.Asset]{
		Name: StrategyStarfield,
		Resolve: func(ctx context.Context) (media.Asset, error) {
			plan, err := composition.BuildStarfieldPlan(req.Duration, req.Resolution)
			if err != nil {
				return media.Asset{}, err
			}
			return s.renderVideo(ctx, plan, req, StrategyStarfield, media.OriginSynthesized)
		},
	}
}

func (s *Sourcer) renderVideo(ctx context.Context, plan composition.Plan, req BackgroundRequest, name string, origin media.Origin) (media.Asset, error) {
	output := filepath.Join(req.Dir, "background_"+name+".mp4")
	if err := s.renderer.Run(ctx, plan, output); err != nil {
		return media.Asset{}, err
	}
	return media.Asset{
		Kind:     media.KindVideo,
		Origin:   origin,
		Path:     output,
		Width:    req.Resolution.Width,
		Height:   req.Resolution.Height,
		Duration: req.Duration,
		Source:   name,
	}, nil
}

// GradientColorFor picks a gradient colour deterministically from key so a
// rerun of the same job renders the same background.
func GradientColorFor(key string) string {
	colors := composition.GradientColors()
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return colors[h.Sum32()%uint32(len(colors))]
}
