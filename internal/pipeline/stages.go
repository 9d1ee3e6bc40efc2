package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"reelsmith/internal/composition"
	"reelsmith/internal/fallback"
	"reelsmith/internal/job"
	"reelsmith/internal/logging"
	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/sourcing"
	"reelsmith/internal/speech"
	"reelsmith/internal/stage"
	"reelsmith/internal/subtitles"
)

// binaryHolder is implemented by collaborators backed by an executable.
type binaryHolder interface {
	Binary() string
}

func binaryHealth(name string, dep any) stage.Health {
	holder, ok := dep.(binaryHolder)
	if !ok {
		return stage.Healthy(name)
	}
	binary := strings.TrimSpace(holder.Binary())
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("%s not found in PATH", binary))
	}
	return stage.Healthy(name)
}

// stageBase carries the orchestrator, the shared production record and the
// stage-scoped logger.
type stageBase struct {
	o      *Orchestrator
	p      *production
	logger *slog.Logger
}

func (b *stageBase) SetLogger(logger *slog.Logger) { b.logger = logger }

func (b *stageBase) log() *slog.Logger {
	if b.logger == nil {
		return logging.NewNop()
	}
	return b.logger
}

func requireState(stageName string, j *job.Job, want job.State) error {
	if j.State != want {
		return services.Wrap(services.ErrInvalidArgument, stageName, "prepare",
			fmt.Sprintf("job is %s, expected %s", j.State, want), nil)
	}
	return nil
}

// resolve runs ladder and records the winner and any degradation on the job.
func (b *stageBase) resolve(ctx context.Context, j *job.Job, ladder fallback.Ladder[media.Asset]) (media.Asset, error) {
	outcome, err := fallback.ResolveWith(ctx, b.o.resolver, ladder)
	if err != nil {
		return media.Asset{}, err
	}
	j.Result.RecordFallback(ladder.Name, outcome.Strategy)
	if outcome.Degraded() {
		stageName, _ := services.StageFromContext(ctx)
		j.Result.AddNote(stageName, sourcing.DegradationNote(ladder.Name, outcome.Strategy))
	}
	return outcome.Value, nil
}

type speechStage struct{ stageBase }

func (s *speechStage) Prepare(_ context.Context, j *job.Job) error {
	if err := requireState("speech", j, job.StateInit); err != nil {
		return err
	}
	if strings.TrimSpace(j.Script) == "" {
		return services.Wrap(services.ErrInvalidArgument, "speech", "prepare", "script text is empty", nil)
	}
	return nil
}

func (s *speechStage) Execute(ctx context.Context, j *job.Job) error {
	ws := s.p.ws
	out, err := s.o.deps.Speech.Synthesize(ctx, speech.Request{
		Text:        j.Script,
		Voice:       j.Voice,
		Rate:        j.Rate,
		Pitch:       j.Pitch,
		AudioPath:   ws.NarrationPath(),
		CaptionPath: ws.CaptionPath(),
	})
	if err != nil {
		return err
	}
	j.Duration = s.o.deps.Prober.Duration(ctx, out.AudioPath)
	s.p.narration = media.Asset{
		Kind:     media.KindAudio,
		Origin:   media.OriginSynthesized,
		Path:     out.AudioPath,
		Duration: j.Duration,
		Final:    true,
		Source:   "speech",
	}
	s.p.audio = s.p.narration
	s.p.captions = out.CaptionPath
	j.Result.SetArtifact(job.ArtifactNarration, out.AudioPath)
	j.Result.SetArtifact(job.ArtifactCaptions, out.CaptionPath)
	s.log().Info("narration ready",
		logging.Seconds("duration_seconds", j.Duration),
		logging.Bool("captions", out.CaptionPath != ""),
	)
	return nil
}

func (s *speechStage) HealthCheck(context.Context) stage.Health {
	return binaryHealth("speech", s.o.deps.Speech)
}

type backgroundStage struct{ stageBase }

func (s *backgroundStage) Prepare(_ context.Context, j *job.Job) error {
	if err := requireState("background", j, job.StateSpeechSynthesized); err != nil {
		return err
	}
	if j.Duration <= 0 {
		return services.Wrap(services.ErrInvalidArgument, "background", "prepare", "narration duration unknown", nil)
	}
	return nil
}

func (s *backgroundStage) Execute(ctx context.Context, j *job.Job) error {
	ladder, err := s.o.deps.Sourcer.BackgroundLadder(sourcing.BackgroundRequest{
		JobID:      j.ID,
		Keywords:   j.Keywords,
		Style:      j.BackgroundStyle,
		Duration:   j.Duration,
		Dir:        s.p.ws.ScratchDir(),
		Resolution: j.Resolution,
	})
	if err != nil {
		return err
	}
	asset, err := s.resolve(ctx, j, ladder)
	if err != nil {
		return err
	}
	s.p.background = asset
	s.p.video = asset
	if s.o.opts.KeepScratch {
		j.Result.SetArtifact(job.ArtifactVideo, asset.Path)
	}
	return nil
}

func (s *backgroundStage) HealthCheck(context.Context) stage.Health {
	return binaryHealth("background", s.o.deps.Renderer)
}

type subtitlesStage struct{ stageBase }

func (s *subtitlesStage) SoftFail() bool { return true }

func (s *subtitlesStage) Prepare(_ context.Context, j *job.Job) error {
	if err := requireState("subtitles", j, job.StateBackgroundResolved); err != nil {
		return err
	}
	if s.p.video.Path == "" {
		return services.Wrap(services.ErrInvalidArgument, "subtitles", "prepare", "no background video", nil)
	}
	return nil
}

func (s *subtitlesStage) Execute(ctx context.Context, j *job.Job) error {
	if !j.SubtitlesEnabled {
		s.log().Info("subtitles disabled", logging.Args(logging.DecisionAttrs("subtitles", "skipped", "disabled for job")...)...)
		return nil
	}
	cues, source, err := s.cues(j)
	if err != nil {
		return err
	}
	style, err := subtitles.LookupStyle(j.SubtitleStyle)
	if err != nil {
		return err
	}
	path := s.p.ws.SubtitlePath()
	if err := subtitles.WriteDocument(path, cues, style); err != nil {
		return services.Wrap(services.ErrResourceUnavailable, "subtitles", "write document", path, err)
	}
	j.Result.SetArtifact(job.ArtifactSubtitles, path)
	s.log().Info("subtitle document written",
		logging.Args(append(logging.DecisionAttrs("cue_source", source, "caption track preferred over even split"),
			logging.Int("cues", len(cues)),
			logging.String("style", j.SubtitleStyle),
		)...)...,
	)

	ladder := s.o.deps.Sourcer.SubtitleLadder(s.p.video, path, s.p.ws.SubtitledVideoPath())
	asset, err := s.resolve(ctx, j, ladder)
	if err != nil {
		return err
	}
	s.p.video = asset
	return nil
}

// cues prefers the engine's caption track and falls back to an even split of
// the script across the narration.
func (s *subtitlesStage) cues(j *job.Job) ([]subtitles.Cue, string, error) {
	if s.p.captions != "" {
		track, err := subtitles.ParseCaptionFile(s.p.captions)
		if err == nil && len(track) > 0 {
			cues, convErr := subtitles.FromExternal(track)
			if convErr == nil && len(cues) > 0 {
				return cues, "caption_track", nil
			}
			err = convErr
		}
		if err != nil {
			j.Result.AddError("subtitles", err)
			logging.WarnWithContext(s.log(), "caption track unusable", "caption_track_invalid",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the speech engine caption output"),
				logging.String(logging.FieldImpact, "cues split evenly across the narration"),
			)
		}
	}
	cues, err := subtitles.FromText(j.Script, j.Duration, j.MaxSubtitleWords)
	if err != nil {
		return nil, "", err
	}
	if len(cues) == 0 {
		return nil, "", services.Wrap(services.ErrInvalidArgument, "subtitles", "cues", "script produced no cues", nil)
	}
	return cues, "script_text", nil
}

func (s *subtitlesStage) HealthCheck(context.Context) stage.Health {
	return binaryHealth("subtitles", s.o.deps.Renderer)
}

type mixStage struct{ stageBase }

func (s *mixStage) SoftFail() bool { return true }

func (s *mixStage) Prepare(_ context.Context, j *job.Job) error {
	if err := requireState("mix", j, job.StateSubtitlesComposed); err != nil {
		return err
	}
	if s.p.narration.Path == "" {
		return services.Wrap(services.ErrInvalidArgument, "mix", "prepare", "no narration", nil)
	}
	return nil
}

func (s *mixStage) Execute(ctx context.Context, j *job.Job) error {
	if !j.MusicEnabled {
		s.log().Info("music disabled", logging.Args(logging.DecisionAttrs("music", "skipped", "disabled for job")...)...)
		return nil
	}
	var music *media.Asset
	ladder, err := s.o.deps.Sourcer.MusicLadder(j.MusicMood, j.Duration, s.p.ws.ScratchDir())
	if err != nil {
		return err
	}
	track, err := s.resolve(ctx, j, ladder)
	if err != nil {
		if services.Aborted(err) {
			return err
		}
		j.Result.AddError("mix", err)
	} else {
		music = &track
		j.Result.SetArtifact(job.ArtifactMusic, track.Path)
	}

	mixed, err := s.resolve(ctx, j, s.o.deps.Sourcer.MixLadder(s.p.narration, music, s.p.ws.ScratchDir()))
	if err != nil {
		return err
	}
	s.p.audio = mixed
	if s.o.opts.KeepScratch {
		j.Result.SetArtifact(job.ArtifactMix, mixed.Path)
	}
	return nil
}

func (s *mixStage) HealthCheck(context.Context) stage.Health {
	return binaryHealth("mix", s.o.deps.Renderer)
}

type composeStage struct{ stageBase }

func (s *composeStage) Prepare(_ context.Context, j *job.Job) error {
	if err := requireState("compose", j, job.StateMixed); err != nil {
		return err
	}
	if s.p.video.Path == "" || s.p.audio.Path == "" {
		return services.Wrap(services.ErrInvalidArgument, "compose", "prepare", "video and audio are required", nil)
	}
	return nil
}

func (s *composeStage) Execute(ctx context.Context, j *job.Job) error {
	plan, err := composition.BuildMuxPlan(s.p.video, s.p.audio, j.Duration)
	if err != nil {
		return err
	}
	rendered := s.p.ws.Scratch("final.mp4")
	if err := s.o.deps.Renderer.Run(ctx, plan, rendered); err != nil {
		return err
	}
	final, err := s.p.ws.Publish(rendered)
	if err != nil {
		return err
	}
	s.p.final = final
	j.Result.SetArtifact(job.ArtifactFinal, final)
	s.log().Info("final video published", logging.String("path", final))
	return nil
}

func (s *composeStage) HealthCheck(context.Context) stage.Health {
	return binaryHealth("compose", s.o.deps.Renderer)
}
