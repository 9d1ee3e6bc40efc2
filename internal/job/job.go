package job

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"reelsmith/internal/config"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/textutil"
)

// Defaults are the configured values a request falls back to.
type Defaults struct {
	Voice            string
	Rate             string
	Pitch            string
	MusicMood        string
	MusicEnabled     bool
	SubtitleStyle    string
	SubtitlesEnabled bool
	MaxSubtitleWords int
	BackgroundStyle  string
	Resolution       media.Resolution
	OutputDir        string
}

// DefaultsFromConfig maps configuration onto job defaults.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		Voice:            cfg.Speech.Voice,
		Rate:             cfg.Speech.Rate,
		Pitch:            cfg.Speech.Pitch,
		MusicMood:        cfg.Music.Mood,
		MusicEnabled:     cfg.Music.Enabled,
		SubtitleStyle:    cfg.Subtitles.Style,
		SubtitlesEnabled: cfg.Subtitles.Enabled,
		MaxSubtitleWords: cfg.Subtitles.MaxWords,
		BackgroundStyle:  cfg.Background.Style,
		Resolution:       media.Resolution{Width: cfg.Video.Width, Height: cfg.Video.Height, FPS: cfg.Video.FPS},
		OutputDir:        cfg.Paths.OutputDir,
	}
}

// Job is one production run. The orchestrator owns it for its lifetime.
type Job struct {
	ID               string
	Script           string
	Keywords         []string
	Voice            string
	Rate             string
	Pitch            string
	MusicMood        string
	MusicEnabled     bool
	SubtitleStyle    string
	SubtitlesEnabled bool
	MaxSubtitleWords int
	BackgroundStyle  string
	Resolution       media.Resolution
	OutputDir        string
	// Duration is the narration length once speech is synthesized.
	Duration float64
	State    State
	Result   Result
}

// New merges req over d and validates the outcome.
func New(req Request, d Defaults) (*Job, error) {
	script, err := req.ResolveScript()
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	} else {
		id = textutil.SanitizeToken(id)
	}

	j := &Job{
		ID:               id,
		Script:           script,
		Keywords:         textutil.NormalizeKeywords(req.Keywords),
		Voice:            pick(req.Voice, d.Voice),
		Rate:             pick(req.Rate, d.Rate),
		Pitch:            pick(req.Pitch, d.Pitch),
		MusicMood:        strings.ToLower(pick(req.MusicMood, d.MusicMood)),
		MusicEnabled:     pickBool(req.Music, d.MusicEnabled),
		SubtitleStyle:    strings.ToLower(pick(req.SubtitleStyle, d.SubtitleStyle)),
		SubtitlesEnabled: pickBool(req.Subtitles, d.SubtitlesEnabled),
		MaxSubtitleWords: d.MaxSubtitleWords,
		BackgroundStyle:  strings.ToLower(pick(req.BackgroundStyle, d.BackgroundStyle)),
		Resolution:       d.Resolution,
		OutputDir:        pick(req.OutputDir, d.OutputDir),
		State:            StateInit,
		Result:           NewResult(id),
	}
	if req.MaxSubtitleWords > 0 {
		j.MaxSubtitleWords = req.MaxSubtitleWords
	}
	if req.Resolution != nil {
		j.Resolution = *req.Resolution
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Validate checks the merged job settings.
func (j *Job) Validate() error {
	var problems []string
	if strings.TrimSpace(j.Script) == "" {
		problems = append(problems, "script is empty")
	}
	if strings.TrimSpace(j.OutputDir) == "" {
		problems = append(problems, "output directory is required")
	}
	if err := j.Resolution.Validate(); err != nil {
		problems = append(problems, err.Error())
	}
	if !slices.Contains(config.MusicMoods, j.MusicMood) {
		problems = append(problems, fmt.Sprintf("unknown music mood %q", j.MusicMood))
	}
	if !slices.Contains(config.SubtitleStyles, j.SubtitleStyle) {
		problems = append(problems, fmt.Sprintf("unknown subtitle style %q", j.SubtitleStyle))
	}
	if !slices.Contains(config.BackgroundStyles, j.BackgroundStyle) {
		problems = append(problems, fmt.Sprintf("unknown background style %q", j.BackgroundStyle))
	}
	if j.MaxSubtitleWords < 1 {
		problems = append(problems, "max subtitle words must be at least 1")
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrInvalidArgument, "job", "validate", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Transition moves the job to next, keeping the result state in step.
func (j *Job) Transition(next State) error {
	if !CanTransition(j.State, next) {
		return services.Wrap(services.ErrInvalidArgument, "job", "transition",
			fmt.Sprintf("%s -> %s not permitted", j.State, next), nil)
	}
	j.State = next
	j.Result.State = next
	return nil
}

func pick(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func pickBool(value *bool, fallback bool) bool {
	if value != nil {
		return *value
	}
	return fallback
}
