package sourcing

import (
	"context"
	"log/slog"
	"strings"

	"reelsmith/internal/composition"
	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/stock"
)

// Ladder names.
const (
	LadderBackground = "background"
	LadderMusic      = "music"
	LadderSubtitles  = "subtitles"
	LadderMix        = "mix"
)

// Strategy names recorded in job results.
const (
	StrategyStockKeywords        = "stock_keywords"
	StrategyStockGeneric         = "stock_generic"
	StrategyKenBurns             = "ken_burns"
	StrategyGradient             = "gradient"
	StrategyStarfield            = "starfield"
	StrategyMoodTrack            = "mood_track"
	StrategyAmbientTone          = "ambient_tone"
	StrategyBurn                 = "burn"
	StrategySubtitlePassthrough  = "passthrough"
	StrategyDuckedMix            = "ducked_mix"
	StrategyNarrationPassthrough = "narration_passthrough"
)

// Background styles select the head of the background ladder.
const (
	StyleStockVideo  = "stock_video"
	StyleStockImages = "stock_images"
	StyleAnimated    = "animated"
	StyleSpace       = "space"
)

// Renderer runs a composition plan to an output path.
type Renderer interface {
	Run(ctx context.Context, plan composition.Plan, output string) error
}

// DurationProber reports media duration in seconds, never failing.
type DurationProber interface {
	Duration(ctx context.Context, path string) float64
}

// Options tune strategy behaviour.
type Options struct {
	Resolution      media.Resolution
	Orientation     string
	PerKeyword      int
	GenericKeywords []string
	DownloadWorkers int
	MusicDir        string
	Levels          composition.MixLevels
}

// Sourcer assembles ladders from a stock provider, the media engine and the
// mood catalog. A nil provider makes every stock rung report no asset.
type Sourcer struct {
	provider stock.Provider
	renderer Renderer
	prober   DurationProber
	catalog  Catalog
	opts     Options
	logger   *slog.Logger
}

// New constructs a Sourcer.
func New(provider stock.Provider, renderer Renderer, prober DurationProber, catalog Catalog, opts Options, logger *slog.Logger) *Sourcer {
	if opts.Resolution == (media.Resolution{}) {
		opts.Resolution = media.Vertical9x16
	}
	if strings.TrimSpace(opts.Orientation) == "" {
		opts.Orientation = opts.Resolution.Orientation()
	}
	if opts.PerKeyword <= 0 {
		opts.PerKeyword = 2
	}
	if opts.DownloadWorkers <= 0 {
		opts.DownloadWorkers = 3
	}
	if len(opts.GenericKeywords) == 0 {
		opts.GenericKeywords = []string{"abstract", "nature", "sky"}
	}
	return &Sourcer{
		provider: provider,
		renderer: renderer,
		prober:   prober,
		catalog:  catalog,
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "sourcing"),
	}
}

// Catalog returns the mood catalog in use.
func (s *Sourcer) Catalog() Catalog {
	return s.catalog
}
