package composition

import (
	"math"
	"strconv"
	"strings"

	"reelsmith/internal/media"
	"reelsmith/internal/timing"
)

// Sink labels for generator plans.
const (
	SinkGradient  = "gradient"
	SinkStarfield = "stars"
	SinkTone      = "tone"
	SinkKenBurns  = "kenburns"
)

const starfieldColor = "0x050510"

// GradientColors returns the base colours used for animated backgrounds.
func GradientColors() []string {
	return []string{"0x1a0a2e", "0x1e3a5f", "0x2d132c", "0x1b1b2f"}
}

// Tone parameterizes a synthesized ambient bed.
type Tone struct {
	Low   float64 `json:"low_hz"`
	High  float64 `json:"high_hz"`
	Noise float64 `json:"noise_amplitude"`
}

func checkGenerator(op string, duration float64, res media.Resolution) error {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return invalidBuild(op, "duration must be positive")
	}
	if err := res.Validate(); err != nil {
		return invalidBuild(op, "%v", err)
	}
	return nil
}

func colorSource(color string, duration float64, res media.Resolution) Filter {
	return F("color",
		KV("c", color),
		KV("s", res.Size()),
		KV("d", Seconds(duration)),
		KV("r", strconv.Itoa(res.FPS)),
	)
}

// noiseOps builds color -> rgb24 -> geq -> yuv420p with no file inputs.
func noiseOps(prefix, sink string, base Filter, geq Filter) []Operation {
	return []Operation{
		{Output: prefix + "_base", Filter: base},
		{Inputs: []string{prefix + "_base"}, Output: prefix + "_rgb", Filter: F("format", Pos("rgb24"))},
		{Inputs: []string{prefix + "_rgb"}, Output: prefix + "_geq", Filter: geq},
		{Inputs: []string{prefix + "_geq"}, Output: sink, Filter: F("format", Pos("yuv420p"))},
	}
}

// BuildGradientPlan renders a noisy animated colour field. color picks one
// of GradientColors; a blank value uses the first.
func BuildGradientPlan(duration float64, res media.Resolution, color string) (Plan, error) {
	if err := checkGenerator("build gradient", duration, res); err != nil {
		return Plan{}, err
	}
	if strings.TrimSpace(color) == "" {
		color = GradientColors()[0]
	}
	geq := F("geq",
		KV("r", "'clip(r(X,Y)+random(1)*20,0,255)'"),
		KV("g", "'clip(g(X,Y)+random(1)*15,0,255)'"),
		KV("b", "'clip(b(X,Y)+random(1)*25,0,255)'"),
	)
	return Plan{
		Name:       "gradient",
		Operations: noiseOps("grad", SinkGradient, colorSource(color, duration, res), geq),
		Sink:       SinkGradient,
		Hints:      Hints{Duration: duration, VideoOnly: true},
	}, nil
}

// BuildStarfieldPlan renders a dark field with sparse twinkling stars.
func BuildStarfieldPlan(duration float64, res media.Resolution) (Plan, error) {
	if err := checkGenerator("build starfield", duration, res); err != nil {
		return Plan{}, err
	}
	geq := F("geq",
		KV("r", "'if(lt(random(1),0.0008),255,r(X,Y)+random(1)*3)'"),
		KV("g", "'if(lt(random(1),0.0008),255,g(X,Y)+random(1)*2)'"),
		KV("b", "'if(lt(random(1),0.0008),255,b(X,Y)+random(1)*8)'"),
	)
	return Plan{
		Name:       "starfield",
		Operations: noiseOps("star", SinkStarfield, colorSource(starfieldColor, duration, res), geq),
		Sink:       SinkStarfield,
		Hints:      Hints{Duration: duration, VideoOnly: true},
	}, nil
}

// BuildAmbientTonePlan synthesizes two sine layers over pink noise, low
// passed at 500 Hz.
func BuildAmbientTonePlan(tone Tone, duration float64) (Plan, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return Plan{}, invalidBuild("build ambient tone", "duration must be positive")
	}
	if tone.Low <= 0 || tone.High <= 0 || tone.Noise < 0 {
		return Plan{}, invalidBuild("build ambient tone", "tone frequencies must be positive")
	}
	d := Seconds(duration)
	return Plan{
		Name: "ambient_tone",
		Operations: []Operation{
			{Output: "low_src", Filter: F("sine", KV("f", Seconds(tone.Low)), KV("d", d))},
			{Inputs: []string{"low_src"}, Output: "low", Filter: F("volume", Pos("0.3"))},
			{Output: "high_src", Filter: F("sine", KV("f", Seconds(tone.High)), KV("d", d))},
			{Inputs: []string{"high_src"}, Output: "high", Filter: F("volume", Pos("0.2"))},
			{Output: "noise", Filter: F("anoisesrc", KV("d", d), KV("c", "pink"), KV("a", Seconds(tone.Noise)))},
			{Inputs: []string{"low", "high", "noise"}, Output: "bed", Filter: F("amix", KV("inputs", "3"), KV("duration", "longest"))},
			{Inputs: []string{"bed"}, Output: "bed_lp", Filter: F("lowpass", KV("f", "500"))},
			{Inputs: []string{"bed_lp"}, Output: SinkTone, Filter: F("volume", Pos("0.5"))},
		},
		Sink:  SinkTone,
		Hints: Hints{Duration: duration, AudioOnly: true},
	}, nil
}

// BuildKenBurnsPlan pans slowly over still images, alternating zoom in and
// zoom out, and concatenates the segments across window.
func BuildKenBurnsPlan(images []media.Asset, window timing.Window, res media.Resolution) (Plan, error) {
	if len(images) == 0 {
		return Plan{}, invalidBuild("build ken burns", "no images")
	}
	if err := checkGenerator("build ken burns", window.Length(), res); err != nil {
		return Plan{}, err
	}
	slices, err := timing.Allocate(window.Length(), len(images))
	if err != nil {
		return Plan{}, err
	}
	plan := Plan{
		Name:    "ken_burns",
		Sources: make([]Source, 0, len(images)),
		Sink:    SinkKenBurns,
		Hints:   Hints{Duration: window.Length(), VideoOnly: true},
	}
	segments := make([]string, 0, len(images))
	for i, image := range images {
		if strings.TrimSpace(image.Path) == "" {
			return Plan{}, invalidBuild("build ken burns", "image %d has no path", i)
		}
		zoom, err := timing.ZoomExpression(timing.AlternatingDirection(i))
		if err != nil {
			return Plan{}, err
		}
		frames := int(slices[i].Length() * float64(res.FPS))
		if frames < 1 {
			frames = 1
		}
		plan.Sources = append(plan.Sources, Source{Path: image.Path})
		prefix := "k" + strconv.Itoa(i)
		segment := "seg" + strconv.Itoa(i)
		plan.Operations = append(plan.Operations,
			Operation{Inputs: []string{RawVideo(i)}, Output: prefix + "_up", Filter: F("scale", Pos("8000"), Pos("-1"))},
			Operation{Inputs: []string{prefix + "_up"}, Output: prefix + "_zoom", Filter: F("zoompan",
				KV("z", "'"+zoom+"'"),
				KV("d", strconv.Itoa(frames)),
				KV("x", "'iw/2-(iw/zoom/2)'"),
				KV("y", "'ih/2-(ih/zoom/2)'"),
				KV("s", res.Size()),
				KV("fps", strconv.Itoa(res.FPS)),
			)},
			Operation{Inputs: []string{prefix + "_zoom"}, Output: segment, Filter: F("setsar", Pos("1"))},
		)
		segments = append(segments, segment)
	}
	plan.Operations = append(plan.Operations, Operation{
		Inputs: segments,
		Output: SinkKenBurns,
		Filter: F("concat", KV("n", strconv.Itoa(len(images))), KV("v", "1"), KV("a", "0")),
	})
	return plan, nil
}
