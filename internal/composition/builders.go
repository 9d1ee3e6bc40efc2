package composition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/timing"
)

// Sink labels used by the builders.
const (
	SinkConcat  = "outv"
	SinkMix     = "mix"
	SinkOverlay = "subbed"
	SinkMux     = "final"
)

func invalidBuild(op, format string, args ...any) error {
	return services.Wrap(services.ErrInvalidArgument, "composition", op, fmt.Sprintf(format, args...), nil)
}

// BuildConcatPlan trims each asset to an equal slice of window, fits it to
// res by scale-to-cover and centre crop, and concatenates the slices.
func BuildConcatPlan(assets []media.Asset, window timing.Window, res media.Resolution) (Plan, error) {
	if len(assets) == 0 {
		return Plan{}, invalidBuild("build concat", "no assets")
	}
	windows, err := timing.Allocate(window.Length(), len(assets))
	if err != nil {
		return Plan{}, err
	}
	return buildConcat("concat", assets, windows, res)
}

// BuildWeightedConcatPlan is BuildConcatPlan with slice widths proportional
// to weights.
func BuildWeightedConcatPlan(assets []media.Asset, weights []float64, window timing.Window, res media.Resolution) (Plan, error) {
	if len(assets) == 0 {
		return Plan{}, invalidBuild("build weighted concat", "no assets")
	}
	if len(weights) != len(assets) {
		return Plan{}, invalidBuild("build weighted concat", "%d weights for %d assets", len(weights), len(assets))
	}
	windows, err := timing.AllocateWeighted(window.Length(), weights)
	if err != nil {
		return Plan{}, err
	}
	return buildConcat("weighted_concat", assets, windows, res)
}

func buildConcat(name string, assets []media.Asset, slices []timing.Window, res media.Resolution) (Plan, error) {
	if err := res.Validate(); err != nil {
		return Plan{}, invalidBuild("build "+name, "%v", err)
	}
	plan := Plan{
		Name:    name,
		Sources: make([]Source, 0, len(assets)),
		Sink:    SinkConcat,
		Hints:   Hints{Duration: slices[len(slices)-1].End, VideoOnly: true},
	}
	w, h := strconv.Itoa(res.Width), strconv.Itoa(res.Height)
	concatInputs := make([]string, 0, len(assets))
	for i, asset := range assets {
		if strings.TrimSpace(asset.Path) == "" {
			return Plan{}, invalidBuild("build "+name, "asset %d has no path", i)
		}
		slice := slices[i].Length()
		plan.Sources = append(plan.Sources, Source{
			Path: asset.Path,
			Loop: asset.Duration > 0 && asset.Duration < slice,
		})
		prefix := "s" + strconv.Itoa(i)
		plan.Operations = append(plan.Operations,
			Operation{Inputs: []string{RawVideo(i)}, Output: prefix + "_trim", Filter: F("trim", KV("start", "0"), KV("duration", Seconds(slice)))},
			Operation{Inputs: []string{prefix + "_trim"}, Output: prefix + "_pts", Filter: F("setpts", Pos("PTS-STARTPTS"))},
			Operation{Inputs: []string{prefix + "_pts"}, Output: prefix + "_scale", Filter: F("scale", Pos(w), Pos(h), KV("force_original_aspect_ratio", "increase"))},
			Operation{Inputs: []string{prefix + "_scale"}, Output: prefix + "_crop", Filter: F("crop", Pos(w), Pos(h))},
			Operation{Inputs: []string{prefix + "_crop"}, Output: "v" + strconv.Itoa(i), Filter: F("setsar", Pos("1"))},
		)
		concatInputs = append(concatInputs, "v"+strconv.Itoa(i))
	}
	plan.Operations = append(plan.Operations, Operation{
		Inputs: concatInputs,
		Output: SinkConcat,
		Filter: F("concat", KV("n", strconv.Itoa(len(assets))), KV("v", "1"), KV("a", "0")),
	})
	return plan, nil
}

// MixLevels are the gains and music fades for a ducked mix.
type MixLevels struct {
	VoiceGain float64
	MusicGain float64
	FadeIn    float64
	FadeOut   float64
}

// BuildDuckedMixPlan lays music under voice. Only the music track is faded;
// the mix lasts as long as the voice.
func BuildDuckedMixPlan(voice, music media.Asset, levels MixLevels) (Plan, error) {
	switch {
	case strings.TrimSpace(voice.Path) == "" || strings.TrimSpace(music.Path) == "":
		return Plan{}, invalidBuild("build ducked mix", "voice and music paths are required")
	case voice.Duration <= 0 || math.IsNaN(voice.Duration) || math.IsInf(voice.Duration, 0):
		return Plan{}, invalidBuild("build ducked mix", "voice duration must be positive")
	case levels.VoiceGain < 0 || levels.MusicGain < 0:
		return Plan{}, invalidBuild("build ducked mix", "gains must be non-negative")
	case levels.FadeIn < 0 || levels.FadeOut < 0:
		return Plan{}, invalidBuild("build ducked mix", "fades must be non-negative")
	}
	fadeOutStart := math.Max(0, voice.Duration-levels.FadeOut)
	return Plan{
		Name:    "ducked_mix",
		Sources: []Source{{Path: voice.Path}, {Path: music.Path}},
		Operations: []Operation{
			{Inputs: []string{RawAudio(0)}, Output: "voice", Filter: F("volume", Pos(Seconds(levels.VoiceGain)))},
			{Inputs: []string{RawAudio(1)}, Output: "music_gain", Filter: F("volume", Pos(Seconds(levels.MusicGain)))},
			{Inputs: []string{"music_gain"}, Output: "music_in", Filter: F("afade", KV("t", "in"), KV("st", "0"), KV("d", Seconds(levels.FadeIn)))},
			{Inputs: []string{"music_in"}, Output: "music", Filter: F("afade", KV("t", "out"), KV("st", Seconds(fadeOutStart)), KV("d", Seconds(levels.FadeOut)))},
			{Inputs: []string{"voice", "music"}, Output: SinkMix, Filter: F("amix", KV("inputs", "2"), KV("duration", "first"), KV("dropout_transition", "2"))},
		},
		Sink:  SinkMix,
		Hints: Hints{Duration: voice.Duration, AudioOnly: true},
	}, nil
}

// BuildOverlaySubtitlePlan burns an ASS subtitle file into video. Any audio
// on the input passes through.
func BuildOverlaySubtitlePlan(video media.Asset, subtitlePath string) (Plan, error) {
	if strings.TrimSpace(video.Path) == "" || strings.TrimSpace(subtitlePath) == "" {
		return Plan{}, invalidBuild("build overlay", "video and subtitle paths are required")
	}
	return Plan{
		Name:    "subtitle_overlay",
		Sources: []Source{{Path: video.Path}},
		Operations: []Operation{
			{Inputs: []string{RawVideo(0)}, Output: SinkOverlay, Filter: F("ass", KV("filename", EscapeFilterPath(subtitlePath)))},
		},
		Sink:        SinkOverlay,
		Passthrough: []string{RawAudio(0) + "?"},
		Hints:       Hints{Duration: video.Duration},
	}, nil
}

// BuildMuxPlan combines the picture of video with the audio of audio into
// the final deliverable, capped at duration.
func BuildMuxPlan(video, audio media.Asset, duration float64) (Plan, error) {
	if strings.TrimSpace(video.Path) == "" || strings.TrimSpace(audio.Path) == "" {
		return Plan{}, invalidBuild("build mux", "video and audio paths are required")
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Plan{}, invalidBuild("build mux", "duration must be positive")
	}
	return Plan{
		Name:    "mux",
		Sources: []Source{{Path: video.Path}, {Path: audio.Path}},
		Operations: []Operation{
			{Inputs: []string{RawVideo(0)}, Output: SinkMux, Filter: F("format", KV("pix_fmts", "yuv420p"))},
		},
		Sink:        SinkMux,
		Passthrough: []string{RawAudio(1)},
		Hints:       Hints{Duration: duration},
	}, nil
}

var filterPathEscaper = strings.NewReplacer(
	`\`, `\\\\`,
	`'`, `\\\'`,
	`:`, `\\:`,
	`,`, `\,`,
	`;`, `\;`,
	`[`, `\[`,
	`]`, `\]`,
)

// EscapeFilterPath escapes a file path for use as a filter option value
// inside a filtergraph.
func EscapeFilterPath(path string) string {
	return filterPathEscaper.Replace(path)
}
