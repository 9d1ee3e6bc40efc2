package composition

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/timing"
)

func graphOf(t *testing.T, plan Plan) string {
	t.Helper()
	args, err := FFmpegArgs(plan, "/out/file.mp4", Encoding{})
	if err != nil {
		t.Fatalf("FFmpegArgs: %v", err)
	}
	idx := slices.Index(args, "-filter_complex")
	if idx < 0 || idx+1 >= len(args) {
		t.Fatalf("no filter_complex in %v", args)
	}
	return args[idx+1]
}

func TestConcatPlanGraph(t *testing.T) {
	assets := []media.Asset{
		{Kind: media.KindClip, Path: "/clips/a.mp4", Duration: 10},
		{Kind: media.KindClip, Path: "/clips/b.mp4", Duration: 2},
	}
	plan, err := BuildConcatPlan(assets, timing.Window{Start: 0, End: 12}, media.Vertical9x16)
	if err != nil {
		t.Fatalf("BuildConcatPlan: %v", err)
	}
	want := "[0:v]trim=start=0:duration=6,setpts=PTS-STARTPTS,scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920,setsar=1[v0];" +
		"[1:v]trim=start=0:duration=6,setpts=PTS-STARTPTS,scale=1080:1920:force_original_aspect_ratio=increase,crop=1080:1920,setsar=1[v1];" +
		"[v0][v1]concat=n=2:v=1:a=0[outv]"
	if got := graphOf(t, plan); got != want {
		t.Fatalf("graph mismatch\n got: %s\nwant: %s", got, want)
	}
	if plan.Sources[0].Loop || !plan.Sources[1].Loop {
		t.Fatalf("only the short clip should loop: %+v", plan.Sources)
	}
	if !plan.Hints.VideoOnly || plan.Hints.Duration != 12 {
		t.Fatalf("unexpected hints %+v", plan.Hints)
	}
	if assets[1].Path != "/clips/b.mp4" || assets[1].Duration != 2 {
		t.Fatal("builder mutated its input")
	}
}

func TestConcatPlanLoopFlagRendered(t *testing.T) {
	plan, err := BuildConcatPlan([]media.Asset{{Path: "/clips/short.mp4", Duration: 1}}, timing.Window{End: 5}, media.Vertical9x16)
	if err != nil {
		t.Fatalf("BuildConcatPlan: %v", err)
	}
	args, err := FFmpegArgs(plan, "/out/bg.mp4", DefaultEncoding())
	if err != nil {
		t.Fatalf("FFmpegArgs: %v", err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-stream_loop -1 -i /clips/short.mp4") {
		t.Fatalf("expected loop input, got %s", joined)
	}
	if !strings.Contains(joined, " -an ") || strings.Contains(joined, "-c:a") {
		t.Fatalf("video-only plan should drop audio: %s", joined)
	}
	if !strings.HasSuffix(joined, "-t 5 -movflags +faststart /out/bg.mp4") {
		t.Fatalf("unexpected tail: %s", joined)
	}
}

func TestWeightedConcatPlan(t *testing.T) {
	assets := []media.Asset{{Path: "/a.mp4", Duration: 30}, {Path: "/b.mp4", Duration: 30}}
	plan, err := BuildWeightedConcatPlan(assets, []float64{1, 3}, timing.Window{End: 8}, media.Vertical9x16)
	if err != nil {
		t.Fatalf("BuildWeightedConcatPlan: %v", err)
	}
	graph := graphOf(t, plan)
	if !strings.Contains(graph, "[0:v]trim=start=0:duration=2,") || !strings.Contains(graph, "[1:v]trim=start=0:duration=6,") {
		t.Fatalf("unexpected weighted slices: %s", graph)
	}
	if _, err := BuildWeightedConcatPlan(assets, []float64{1}, timing.Window{End: 8}, media.Vertical9x16); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for weight mismatch, got %v", err)
	}
}

func TestDuckedMixPlanGraph(t *testing.T) {
	voice := media.Asset{Kind: media.KindAudio, Path: "/audio/voice.mp3", Duration: 30}
	music := media.Asset{Kind: media.KindAudio, Path: "/music/tension.mp3"}
	plan, err := BuildDuckedMixPlan(voice, music, MixLevels{VoiceGain: 1, MusicGain: 0.12, FadeIn: 0.5, FadeOut: 1.5})
	if err != nil {
		t.Fatalf("BuildDuckedMixPlan: %v", err)
	}
	want := "[0:a]volume=1[voice];" +
		"[1:a]volume=0.12,afade=t=in:st=0:d=0.5,afade=t=out:st=28.5:d=1.5[music];" +
		"[voice][music]amix=inputs=2:duration=first:dropout_transition=2[mix]"
	if got := graphOf(t, plan); got != want {
		t.Fatalf("graph mismatch\n got: %s\nwant: %s", got, want)
	}
	if !plan.Hints.AudioOnly {
		t.Fatal("mix plan should be audio only")
	}

	short := voice
	short.Duration = 1
	plan, err = BuildDuckedMixPlan(short, music, MixLevels{VoiceGain: 1, MusicGain: 0.12, FadeIn: 0.5, FadeOut: 1.5})
	if err != nil {
		t.Fatalf("BuildDuckedMixPlan: %v", err)
	}
	if !strings.Contains(graphOf(t, plan), "afade=t=out:st=0:d=1.5") {
		t.Fatal("fade-out start should clamp at zero")
	}

	if _, err := BuildDuckedMixPlan(media.Asset{Path: "/v.mp3"}, music, MixLevels{}); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument without voice duration, got %v", err)
	}
}

func TestOverlaySubtitlePlan(t *testing.T) {
	plan, err := BuildOverlaySubtitlePlan(media.Asset{Path: "/v/bg.mp4", Duration: 20}, "/subs/job:1.ass")
	if err != nil {
		t.Fatalf("BuildOverlaySubtitlePlan: %v", err)
	}
	if got := graphOf(t, plan); got != `[0:v]ass=filename=/subs/job\\:1.ass[subbed]` {
		t.Fatalf("unexpected graph %s", got)
	}
	if !slices.Equal(plan.Passthrough, []string{"0:a?"}) {
		t.Fatalf("expected optional audio passthrough, got %v", plan.Passthrough)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := EscapeFilterPath(`/tmp/a:b/it's,[x].ass`)
	want := `/tmp/a\\:b/it\\\'s\,\[x\].ass`
	if got != want {
		t.Fatalf("EscapeFilterPath = %s, want %s", got, want)
	}
}

func TestMuxPlanArgs(t *testing.T) {
	plan, err := BuildMuxPlan(media.Asset{Path: "/v/subbed.mp4"}, media.Asset{Path: "/a/mix.m4a"}, 42.5)
	if err != nil {
		t.Fatalf("BuildMuxPlan: %v", err)
	}
	args, err := FFmpegArgs(plan, "/final/x.mp4", DefaultEncoding())
	if err != nil {
		t.Fatalf("FFmpegArgs: %v", err)
	}
	want := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error", "-y",
		"-i", "/v/subbed.mp4", "-i", "/a/mix.m4a",
		"-filter_complex", "[0:v]format=pix_fmts=yuv420p[final]",
		"-map", "[final]", "-map", "1:a",
		"-c:v", "libx264", "-preset", "fast", "-crf", "23", "-pix_fmt", "yuv420p", "-r", "30",
		"-c:a", "aac", "-b:a", "192k",
		"-t", "42.5", "-movflags", "+faststart",
		"/final/x.mp4",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("args mismatch\n got: %v\nwant: %v", args, want)
	}
	if _, err := BuildMuxPlan(media.Asset{Path: "/v"}, media.Asset{Path: "/a"}, 0); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestGeneratorPlans(t *testing.T) {
	res := media.Vertical9x16
	gradient, err := BuildGradientPlan(12, res, "")
	if err != nil {
		t.Fatalf("BuildGradientPlan: %v", err)
	}
	want := "color=c=0x1a0a2e:s=1080x1920:d=12:r=30,format=rgb24," +
		"geq=r='clip(r(X,Y)+random(1)*20,0,255)':g='clip(g(X,Y)+random(1)*15,0,255)':b='clip(b(X,Y)+random(1)*25,0,255)'," +
		"format=yuv420p[gradient]"
	if got := graphOf(t, gradient); got != want {
		t.Fatalf("gradient graph\n got: %s\nwant: %s", got, want)
	}
	if len(gradient.Sources) != 0 {
		t.Fatal("generator plans declare no sources")
	}

	stars, err := BuildStarfieldPlan(12, res)
	if err != nil {
		t.Fatalf("BuildStarfieldPlan: %v", err)
	}
	if got := graphOf(t, stars); !strings.HasPrefix(got, "color=c=0x050510:s=1080x1920:d=12:r=30,format=rgb24,geq=r='if(lt(random(1),0.0008),255,r(X,Y)+random(1)*3)'") {
		t.Fatalf("unexpected starfield graph %s", got)
	}

	tone, err := BuildAmbientTonePlan(Tone{Low: 80, High: 120, Noise: 0.02}, 35)
	if err != nil {
		t.Fatalf("BuildAmbientTonePlan: %v", err)
	}
	wantTone := "sine=f=80:d=35,volume=0.3[low];sine=f=120:d=35,volume=0.2[high];" +
		"anoisesrc=d=35:c=pink:a=0.02[noise];" +
		"[low][high][noise]amix=inputs=3:duration=longest,lowpass=f=500,volume=0.5[tone]"
	if got := graphOf(t, tone); got != wantTone {
		t.Fatalf("tone graph\n got: %s\nwant: %s", got, wantTone)
	}

	if _, err := BuildGradientPlan(0, res, ""); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := BuildAmbientTonePlan(Tone{}, 10); !errors.Is(err, services.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestKenBurnsPlan(t *testing.T) {
	images := []media.Asset{{Kind: media.KindImage, Path: "/img/0.jpg"}, {Kind: media.KindImage, Path: "/img/1.jpg"}}
	plan, err := BuildKenBurnsPlan(images, timing.Window{End: 10}, media.Vertical9x16)
	if err != nil {
		t.Fatalf("BuildKenBurnsPlan: %v", err)
	}
	graph := graphOf(t, plan)
	wantFirst := "[0:v]scale=8000:-1,zoompan=z='min(zoom+0.0015,1.5)':d=150:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':s=1080x1920:fps=30,setsar=1[seg0]"
	if !strings.HasPrefix(graph, wantFirst) {
		t.Fatalf("unexpected first segment\n got: %s\nwant prefix: %s", graph, wantFirst)
	}
	if !strings.Contains(graph, "z='if(lte(zoom,1.0),1.5,max(1.001,zoom-0.0015))'") {
		t.Fatalf("second segment should zoom out: %s", graph)
	}
	if !strings.HasSuffix(graph, "[seg0][seg1]concat=n=2:v=1:a=0[kenburns]") {
		t.Fatalf("unexpected concat: %s", graph)
	}
}

func TestValidateRejectsBrokenGraphs(t *testing.T) {
	src := []Source{{Path: "/in.mp4"}}
	cases := []struct {
		name string
		plan Plan
		want error
	}{
		{"empty", Plan{Name: "empty"}, ErrMissingInput},
		{"undeclared label", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"ghost"}, Output: "out", Filter: F("null")},
		}}, ErrMissingInput},
		{"raw index out of range", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"1:v"}, Output: "out", Filter: F("null")},
		}}, ErrMissingInput},
		{"cycle", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"b"}, Output: "a", Filter: F("null")},
			{Inputs: []string{"a"}, Output: "b", Filter: F("null")},
		}}, ErrCycle},
		{"two sinks", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"0:v"}, Output: "a", Filter: F("null")},
			{Inputs: []string{"0:v"}, Output: "b", Filter: F("null")},
		}}, ErrMultipleSinks},
		{"wrong declared sink", Plan{Sources: src, Sink: "nope", Operations: []Operation{
			{Inputs: []string{"0:v"}, Output: "a", Filter: F("null")},
		}}, ErrMultipleSinks},
		{"duplicate producer", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"0:v"}, Output: "a", Filter: F("null")},
			{Inputs: []string{"a"}, Output: "a", Filter: F("null")},
		}}, ErrDuplicateLabel},
		{"double consumption", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"0:v"}, Output: "a", Filter: F("null")},
			{Inputs: []string{"a", "a"}, Output: "b", Filter: F("hstack")},
		}}, ErrDuplicateLabel},
		{"shadowed raw label", Plan{Sources: src, Operations: []Operation{
			{Inputs: []string{"0:v"}, Output: "0:a", Filter: F("null")},
		}}, ErrDuplicateLabel},
		{"bad passthrough", Plan{Sources: src, Passthrough: []string{"3:a"}, Operations: []Operation{
			{Inputs: []string{"0:v"}, Output: "a", Filter: F("null")},
		}}, ErrMissingInput},
	}
	for _, tc := range cases {
		err := tc.plan.Validate()
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		if !errors.Is(err, services.ErrInvalidArgument) {
			t.Fatalf("%s: expected invalid argument marker, got %v", tc.name, err)
		}
	}
}

func TestValidateOrdersOutOfOrderOperations(t *testing.T) {
	plan := Plan{
		Sources: []Source{{Path: "/in.mp4"}},
		Operations: []Operation{
			{Inputs: []string{"mid"}, Output: "out", Filter: F("setsar", Pos("1"))},
			{Inputs: []string{"0:v"}, Output: "mid", Filter: F("null")},
		},
	}
	if err := plan.Validate(); err != nil {
		t.Fatalf("acyclic plan should validate: %v", err)
	}
	if plan.SinkLabel() != "out" {
		t.Fatalf("expected computed sink out, got %q", plan.SinkLabel())
	}
	if got := graphOf(t, plan); got != "[0:v]null,setsar=1[out]" {
		t.Fatalf("unexpected graph %s", got)
	}
}
