package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/fallback"
	"reelsmith/internal/job"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
	"reelsmith/internal/sourcing"
	"reelsmith/internal/speech"
	"reelsmith/internal/stage"
	"reelsmith/internal/workspace"
)

// Recorder persists job results as they change.
type Recorder interface {
	Save(ctx context.Context, result job.Result) error
}

// Notifier announces finished jobs.
type Notifier interface {
	NotifyJobFinished(ctx context.Context, result job.Result) error
}

// Deps are the collaborators the orchestrator drives.
type Deps struct {
	Speech   speech.Synthesizer
	Sourcer  *sourcing.Sourcer
	Renderer sourcing.Renderer
	Prober   sourcing.DurationProber
	// Recorder is optional.
	Recorder Recorder
	// Notifier is optional.
	Notifier Notifier
	Logger   *slog.Logger
}

// Options tune orchestration.
type Options struct {
	// KeepScratch leaves .temp/<id> in place after the job ends.
	KeepScratch bool
	// LogLevel is the level of the per-job log file; empty disables it.
	LogLevel string
}

// Orchestrator runs production jobs.
type Orchestrator struct {
	deps     Deps
	opts     Options
	logger   *slog.Logger
	resolver *fallback.Resolver
}

// New constructs an orchestrator.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Speech == nil || deps.Sourcer == nil || deps.Renderer == nil || deps.Prober == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "speech, sourcer, renderer and prober are required", nil)
	}
	logger := logging.NewComponentLogger(deps.Logger, "pipeline")
	return &Orchestrator{
		deps:     deps,
		opts:     opts,
		logger:   logger,
		resolver: fallback.NewResolver(deps.Logger),
	}, nil
}

type step struct {
	name    string
	target  job.State
	handler stage.Handler
}

func (o *Orchestrator) steps(p *production) []step {
	return []step{
		{name: "speech", target: job.StateSpeechSynthesized, handler: &speechStage{stageBase{o: o, p: p}}},
		{name: "background", target: job.StateBackgroundResolved, handler: &backgroundStage{stageBase{o: o, p: p}}},
		{name: "subtitles", target: job.StateSubtitlesComposed, handler: &subtitlesStage{stageBase{o: o, p: p}}},
		{name: "mix", target: job.StateMixed, handler: &mixStage{stageBase{o: o, p: p}}},
		{name: "compose", target: job.StateComposed, handler: &composeStage{stageBase{o: o, p: p}}},
	}
}

// HealthCheck reports readiness of every stage.
func (o *Orchestrator) HealthCheck(ctx context.Context) []stage.Health {
	steps := o.steps(&production{})
	out := make([]stage.Health, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.handler.HealthCheck(ctx))
	}
	return out
}

// Run drives j to done or failed and returns its result. The result is also
// left on j.Result.
func (o *Orchestrator) Run(ctx context.Context, j *job.Job) job.Result {
	j.Result.StartedAt = time.Now().UTC()
	ctx = services.WithJobID(ctx, j.ID)
	logger := logging.WithContext(ctx, o.logger)

	ws, err := workspace.Open(j.OutputDir, j.ID, logger)
	if err != nil {
		j.Result.Fail("init", err)
		return o.finish(ctx, logger, j, nil)
	}
	defer ws.Close()

	if closer := o.attachJobLog(ws, &logger); closer != nil {
		defer closer.Close()
		j.Result.SetArtifact(job.ArtifactLog, ws.LogPath())
	}

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("background_style", j.BackgroundStyle),
		logging.String("music_mood", j.MusicMood),
		logging.String("subtitle_style", j.SubtitleStyle),
		logging.String("output_dir", j.OutputDir),
	)
	o.record(ctx, logger, j)

	p := &production{ws: ws}
	for _, s := range o.steps(p) {
		if err := services.FromContext(ctx, s.name); err != nil {
			o.abort(logger, j, s.name, err)
			return o.finish(ctx, logger, j, ws)
		}
		if err := o.runStage(ctx, logger, j, s); err != nil {
			if services.Aborted(err) || ctx.Err() != nil {
				o.abort(logger, j, s.name, err)
				return o.finish(ctx, logger, j, ws)
			}
			if stage.Fatal(s.handler) {
				j.Result.Fail(s.name, err)
				return o.finish(ctx, logger, j, ws)
			}
			j.Result.AddError(s.name, err)
			logging.WarnWithContext(logger, "stage degraded", "stage_soft_failure",
				logging.String(logging.FieldStage, s.name),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "inspect the job log for the failing invocation"),
				logging.String(logging.FieldImpact, "output produced without this stage's contribution"),
			)
		}
		if err := j.Transition(s.target); err != nil {
			j.Result.Fail(s.name, err)
			return o.finish(ctx, logger, j, ws)
		}
		o.record(ctx, logger, j)
	}

	o.complete(ctx, logger, j, p)
	return o.finish(ctx, logger, j, ws)
}

func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, j *job.Job, s step) error {
	stageCtx := services.WithRequestID(services.WithStage(ctx, s.name), uuid.NewString())
	stageLogger := logging.WithContext(stageCtx, logger)
	if aware, ok := s.handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	started := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("from_state", string(j.State)),
	)
	if err := s.handler.Prepare(stageCtx, j); err != nil {
		o.logStageFailure(stageLogger, s, err)
		return err
	}
	if err := s.handler.Execute(stageCtx, j); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("stage interrupted by cancellation")
			return err
		}
		o.logStageFailure(stageLogger, s, err)
		return err
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_state", string(s.target)),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func (o *Orchestrator) logStageFailure(logger *slog.Logger, s step, err error) {
	if !stage.Fatal(s.handler) {
		return
	}
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String("error_kind", services.Classify(err)),
		logging.Error(err),
		logging.Alert("stage_failure"),
		logging.String(logging.FieldImpact, "job will not produce a video"),
	)
}

func (o *Orchestrator) abort(logger *slog.Logger, j *job.Job, stageName string, err error) {
	if !errors.Is(err, services.ErrStageAborted) {
		err = services.Wrap(services.ErrStageAborted, stageName, "run", "job cancelled", err)
	}
	j.Result.Fail(stageName, err)
	logger.Warn("job cancelled",
		logging.String(logging.FieldEventType, "job_cancelled"),
		logging.String(logging.FieldStage, stageName),
		logging.String(logging.FieldErrorHint, "resubmit the job to produce it"),
		logging.String(logging.FieldImpact, "scratch discarded, no output published"),
	)
}

// complete probes the published file and moves the job to done.
func (o *Orchestrator) complete(ctx context.Context, logger *slog.Logger, j *job.Job, p *production) {
	j.Result.Duration = o.deps.Prober.Duration(ctx, p.final)
	if info, err := os.Stat(p.final); err == nil {
		j.Result.SizeBytes = info.Size()
	}
	if err := j.Transition(job.StateDone); err != nil {
		j.Result.Fail("done", err)
		return
	}
	j.Result.Success = true
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("output", p.final),
		logging.Seconds("duration_seconds", j.Result.Duration),
		logging.SizeBytes(j.Result.SizeBytes),
		logging.Int("notes", len(j.Result.Notes())),
	)
}

func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, j *job.Job, ws *workspace.Workspace) job.Result {
	if ws != nil && !o.opts.KeepScratch {
		_ = ws.Cleanup()
	}
	j.Result.FinishedAt = time.Now().UTC()
	if j.State == job.StateFailed || j.Result.State == job.StateFailed {
		j.State = job.StateFailed
		if note, ok := j.Result.FatalError(); ok {
			logger.Error("job failed",
				logging.String(logging.FieldEventType, "job_failed"),
				logging.String(logging.FieldStage, note.Stage),
				logging.String("error_kind", note.Kind),
				logging.String("error_message", note.Message),
				logging.String(logging.FieldErrorHint, "see the job log for the failing stage"),
			)
		}
	}
	// Persist even when the caller's context is gone.
	detached := context.WithoutCancel(ctx)
	o.record(detached, logger, j)
	o.notify(detached, logger, j)
	return j.Result
}

func (o *Orchestrator) record(ctx context.Context, logger *slog.Logger, j *job.Job) {
	if o.deps.Recorder == nil {
		return
	}
	if err := o.deps.Recorder.Save(ctx, j.Result); err != nil {
		logger.Warn("failed to persist job result",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_persist_failed"),
			logging.String(logging.FieldErrorHint, "check the job history database"),
			logging.String(logging.FieldImpact, "job history may be stale"),
		)
	}
}

func (o *Orchestrator) notify(ctx context.Context, logger *slog.Logger, j *job.Job) {
	if o.deps.Notifier == nil {
		return
	}
	if err := o.deps.Notifier.NotifyJobFinished(ctx, j.Result); err != nil {
		logging.WarnWithContext(logger, "job notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "the job finished without an alert"),
		)
	}
}

func (o *Orchestrator) attachJobLog(ws *workspace.Workspace, logger **slog.Logger) io.Closer {
	if strings.TrimSpace(o.opts.LogLevel) == "" {
		return nil
	}
	handler, closer, err := logging.NewJobHandler(ws.LogPath(), o.opts.LogLevel)
	if err != nil {
		(*logger).Warn("job log unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_log_unavailable"),
			logging.String(logging.FieldErrorHint, "check output_dir permissions"),
			logging.String(logging.FieldImpact, "job events only reach the main log"),
		)
		return nil
	}
	*logger = logging.TeeLogger(*logger, handler)
	return closer
}

// RunMany runs jobs with at most parallelism in flight. Results are returned
// in input order.
func (o *Orchestrator) RunMany(ctx context.Context, jobs []*job.Job, parallelism int) []job.Result {
	if parallelism <= 0 {
		parallelism = 1
	}
	results := make([]job.Result, len(jobs))
	sem := make(chan struct{}, parallelism)
	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Go(func() {
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = o.Run(ctx, j)
		})
	}
	wg.Wait()
	return results
}
