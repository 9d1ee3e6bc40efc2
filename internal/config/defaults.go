package config

const (
	defaultOutputDir             = "~/.local/share/reelsmith/output"
	defaultMusicDir              = "~/.local/share/reelsmith/music"
	defaultLogDir                = "~/.local/share/reelsmith/logs"
	defaultStateDir              = "~/.local/share/reelsmith"
	defaultAPIBind               = "127.0.0.1:7490"
	defaultVideoWidth            = 1080
	defaultVideoHeight           = 1920
	defaultVideoFPS              = 30
	defaultVideoCodec            = "libx264"
	defaultVideoPreset           = "fast"
	defaultVideoCRF              = 23
	defaultAudioCodec            = "aac"
	defaultAudioBitrate          = "192k"
	defaultSpeechBinary          = "edge-tts"
	defaultSpeechVoice           = "es-ES-AlvaroNeural"
	defaultSpeechRate            = "+20%"
	defaultSpeechPitch           = "+5Hz"
	defaultSpeechTimeoutSeconds  = 120
	defaultPexelsBaseURL         = "https://api.pexels.com"
	defaultPexelsOrientation     = "portrait"
	defaultPexelsPerKeyword      = 2
	defaultPexelsTimeoutSeconds  = 15
	defaultPexelsDownloadTimeout = 120
	defaultPexelsDownloadWorkers = 3
	defaultMusicMood             = "tension"
	defaultMusicVolume           = 0.12
	defaultVoiceVolume           = 1.0
	defaultMusicFadeIn           = 0.5
	defaultMusicFadeOut          = 1.5
	defaultSubtitleStyle         = "viral"
	defaultSubtitleMaxWords      = 5
	defaultBackgroundStyle       = "stock_video"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultEngineTimeoutSeconds  = 600
	defaultProbeFallbackSeconds  = 30.0
	defaultParallelJobs          = 1
	defaultNtfyTimeoutSeconds    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var defaultGenericKeywords = []string{"abstract", "nature", "sky"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			MusicDir:  defaultMusicDir,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			APIBind:   defaultAPIBind,
		},
		Video: Video{
			Width:        defaultVideoWidth,
			Height:       defaultVideoHeight,
			FPS:          defaultVideoFPS,
			VideoCodec:   defaultVideoCodec,
			Preset:       defaultVideoPreset,
			CRF:          defaultVideoCRF,
			AudioCodec:   defaultAudioCodec,
			AudioBitrate: defaultAudioBitrate,
		},
		Speech: Speech{
			Binary:         defaultSpeechBinary,
			Voice:          defaultSpeechVoice,
			Rate:           defaultSpeechRate,
			Pitch:          defaultSpeechPitch,
			TimeoutSeconds: defaultSpeechTimeoutSeconds,
		},
		Pexels: Pexels{
			BaseURL:                defaultPexelsBaseURL,
			Orientation:            defaultPexelsOrientation,
			PerKeyword:             defaultPexelsPerKeyword,
			TimeoutSeconds:         defaultPexelsTimeoutSeconds,
			DownloadTimeoutSeconds: defaultPexelsDownloadTimeout,
			DownloadWorkers:        defaultPexelsDownloadWorkers,
		},
		Music: Music{
			Enabled:     true,
			Mood:        defaultMusicMood,
			Volume:      defaultMusicVolume,
			VoiceVolume: defaultVoiceVolume,
			FadeIn:      defaultMusicFadeIn,
			FadeOut:     defaultMusicFadeOut,
		},
		Subtitles: Subtitles{
			Enabled:  true,
			Style:    defaultSubtitleStyle,
			MaxWords: defaultSubtitleMaxWords,
		},
		Background: Background{
			Style:           defaultBackgroundStyle,
			GenericKeywords: append([]string(nil), defaultGenericKeywords...),
		},
		Engine: Engine{
			FFmpegBinary:         defaultFFmpegBinary,
			FFprobeBinary:        defaultFFprobeBinary,
			TimeoutSeconds:       defaultEngineTimeoutSeconds,
			ProbeFallbackSeconds: defaultProbeFallbackSeconds,
		},
		Workflow: Workflow{
			ParallelJobs: defaultParallelJobs,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
			NotifySuccess:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
