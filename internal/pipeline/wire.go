package pipeline

import (
	"log/slog"
	"strings"

	"reelsmith/internal/composition"
	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/media/ffprobe"
	"reelsmith/internal/notifications"
	"reelsmith/internal/sourcing"
	"reelsmith/internal/speech"
	"reelsmith/internal/stock"
	"reelsmith/internal/stock/pexels"
)

// FromConfig assembles an orchestrator backed by edge-tts, Pexels and
// ffmpeg. Without a Pexels key the stock rungs report no asset and
// backgrounds come from the generators.
func FromConfig(cfg *config.Config, recorder Recorder, logger *slog.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	enc := composition.DefaultEncoding()
	enc.VideoCodec = cfg.Video.VideoCodec
	enc.Preset = cfg.Video.Preset
	enc.CRF = cfg.Video.CRF
	enc.AudioCodec = cfg.Video.AudioCodec
	enc.AudioBitrate = cfg.Video.AudioBitrate
	enc.FPS = cfg.Video.FPS

	engine := composition.NewEngine(cfg.Engine.FFmpegBinary, enc,
		composition.WithTimeout(cfg.EngineTimeout()),
		composition.WithLogger(logger),
	)
	prober := ffprobe.Prober{
		Binary:   deps.ResolveFFprobe(cfg.Engine.FFmpegBinary, cfg.Engine.FFprobeBinary),
		Fallback: cfg.Engine.ProbeFallbackSeconds,
		Logger:   logger,
	}
	synth := speech.New(cfg.Speech.Binary,
		speech.WithTimeout(cfg.SpeechTimeout()),
		speech.WithLogger(logger),
	)

	var provider stock.Provider
	if strings.TrimSpace(cfg.Pexels.APIKey) != "" {
		client, err := pexels.New(pexels.Config{
			APIKey:          cfg.Pexels.APIKey,
			BaseURL:         cfg.Pexels.BaseURL,
			Timeout:         cfg.PexelsTimeout(),
			DownloadTimeout: cfg.PexelsDownloadTimeout(),
			Logger:          logger,
		})
		if err != nil {
			return nil, err
		}
		provider = client
	} else {
		logging.WarnWithContext(logger, "pexels api key not configured", "stock_disabled",
			logging.String(logging.FieldErrorHint, "set pexels.api_key or PEXELS_API_KEY"),
			logging.String(logging.FieldImpact, "backgrounds fall back to synthesized visuals"),
		)
	}

	sourcer := sourcing.New(provider, engine, prober, sourcing.DefaultCatalog(), sourcing.Options{
		Resolution:      media.Resolution{Width: cfg.Video.Width, Height: cfg.Video.Height, FPS: cfg.Video.FPS},
		Orientation:     cfg.Pexels.Orientation,
		PerKeyword:      cfg.Pexels.PerKeyword,
		GenericKeywords: cfg.Background.GenericKeywords,
		DownloadWorkers: cfg.Pexels.DownloadWorkers,
		MusicDir:        cfg.Paths.MusicDir,
		Levels: composition.MixLevels{
			VoiceGain: cfg.Music.VoiceVolume,
			MusicGain: cfg.Music.Volume,
			FadeIn:    cfg.Music.FadeIn,
			FadeOut:   cfg.Music.FadeOut,
		},
	}, logger)

	return New(Deps{
		Speech:   synth,
		Sourcer:  sourcer,
		Renderer: engine,
		Prober:   prober,
		Recorder: recorder,
		Notifier: notifications.NewService(cfg),
		Logger:   logger,
	}, Options{
		KeepScratch: cfg.Workflow.KeepScratch,
		LogLevel:    cfg.Logging.Level,
	})
}
