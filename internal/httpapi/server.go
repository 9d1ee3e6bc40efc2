package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"reelsmith/internal/job"
	"reelsmith/internal/logging"
	"reelsmith/internal/logs"
	"reelsmith/internal/services"
)

// Runner produces one job. pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, j *job.Job) job.Result
}

// Store is the job history the API reads and seeds.
type Store interface {
	Save(ctx context.Context, result job.Result) error
	Get(ctx context.Context, id string) (*job.Result, error)
	List(ctx context.Context, limit int, states ...job.State) ([]job.Result, error)
}

// Options configure the server.
type Options struct {
	Runner      Runner
	Store       Store
	Defaults    job.Defaults
	Parallelism int
	Token       string
	Logger      *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	echo     *echo.Echo
	runner   Runner
	store    Store
	defaults job.Defaults
	token    string
	logger   *slog.Logger

	sem     chan struct{}
	jobs    sync.WaitGroup
	baseCtx context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	running map[string]struct{}
}

// New builds the server and registers its routes.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil || opts.Store == nil {
		return nil, errors.New("http api requires a runner and a job store")
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		echo:     echo.New(),
		runner:   opts.Runner,
		store:    opts.Store,
		defaults: opts.Defaults,
		token:    strings.TrimSpace(opts.Token),
		logger:   logging.NewComponentLogger(opts.Logger, "httpapi"),
		sem:      make(chan struct{}, opts.Parallelism),
		baseCtx:  baseCtx,
		cancel:   cancel,
		running:  make(map[string]struct{}),
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())

	s.echo.GET("/health", s.health)
	jobs := s.echo.Group("/jobs", s.bearerAuth())
	jobs.POST("", s.submit)
	jobs.GET("", s.list)
	jobs.GET("/:id", s.get)
	jobs.GET("/:id/log", s.jobLog)
	return s, nil
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on bind until ctx is cancelled, then stops accepting
// requests, cancels running jobs and waits for them to record their result.
func (s *Server) ListenAndServe(ctx context.Context, bind string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", logging.String("address", bind))
		errCh <- s.echo.Start(bind)
	}()

	select {
	case err := <-errCh:
		s.cancel()
		s.jobs.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.echo.Shutdown(shutdownCtx)
	s.cancel()
	s.jobs.Wait()
	return err
}

// Wait blocks until every submitted job has finished.
func (s *Server) Wait() {
	s.jobs.Wait()
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type submitResponse struct {
	JobID    string    `json:"job_id"`
	State    job.State `json:"state"`
	Location string    `json:"location"`
}

func (s *Server) submit(c echo.Context) error {
	var req job.Request
	if err := c.Bind(&req); err != nil {
		return writeError(c, http.StatusBadRequest, "invalid job request: "+err.Error())
	}
	// Remote callers must not read or write arbitrary server paths.
	if strings.TrimSpace(req.ScriptFile) != "" || strings.TrimSpace(req.OutputDir) != "" {
		return writeError(c, http.StatusBadRequest, "script_file and output_dir are not accepted over HTTP")
	}
	j, err := job.New(req, s.defaults)
	if err != nil {
		return writeError(c, statusFor(err), err.Error())
	}

	if !s.claim(j.ID) {
		return writeError(c, http.StatusConflict, fmt.Sprintf("job %s is already running", j.ID))
	}
	ctx := c.Request().Context()
	if existing, err := s.store.Get(ctx, j.ID); err != nil {
		s.release(j.ID)
		return writeError(c, http.StatusInternalServerError, err.Error())
	} else if existing != nil && !existing.State.Terminal() {
		s.release(j.ID)
		return writeError(c, http.StatusConflict, fmt.Sprintf("job %s is already running", j.ID))
	}
	if err := s.store.Save(ctx, j.Result); err != nil {
		s.release(j.ID)
		return writeError(c, http.StatusInternalServerError, err.Error())
	}

	s.jobs.Add(1)
	go s.run(j)

	s.logger.Info("job accepted",
		logging.String(logging.FieldJobID, j.ID),
		logging.String(logging.FieldEventType, "job_accepted"),
	)
	return c.JSON(http.StatusAccepted, submitResponse{JobID: j.ID, State: j.State, Location: "/jobs/" + j.ID})
}

func (s *Server) run(j *job.Job) {
	defer s.jobs.Done()
	defer s.release(j.ID)
	select {
	case s.sem <- struct{}{}:
	case <-s.baseCtx.Done():
		j.Result.Fail("init", services.FromContext(s.baseCtx, "init"))
		j.Result.FinishedAt = time.Now().UTC()
		if err := s.store.Save(context.Background(), j.Result); err != nil {
			logging.WarnWithContext(s.logger, "failed to persist cancelled job", "job_persist_failed",
				logging.String(logging.FieldJobID, j.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the job history database"),
				logging.String(logging.FieldImpact, "job stays queued in history until jobs reset-stuck"),
			)
		}
		return
	}
	defer func() { <-s.sem }()
	s.runner.Run(s.baseCtx, j)
}

func (s *Server) claim(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[id]; busy {
		return false
	}
	s.running[id] = struct{}{}
	return true
}

func (s *Server) release(id string) {
	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()
}

type listResponse struct {
	Jobs []job.Result `json:"jobs"`
}

func (s *Server) list(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return writeError(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	var states []job.State
	for _, raw := range c.QueryParams()["state"] {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		state, err := job.ParseState(raw)
		if err != nil {
			return writeError(c, http.StatusBadRequest, err.Error())
		}
		states = append(states, state)
	}
	results, err := s.store.List(c.Request().Context(), limit, states...)
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	if results == nil {
		results = []job.Result{}
	}
	return c.JSON(http.StatusOK, listResponse{Jobs: results})
}

func (s *Server) get(c echo.Context) error {
	result, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	if result == nil {
		return writeError(c, http.StatusNotFound, "job not found")
	}
	return c.JSON(http.StatusOK, result)
}

type logResponse struct {
	Entries []logs.Entry `json:"entries"`
	Offset  int64        `json:"offset"`
}

const defaultLogLimit = 200

// jobLog serves the job's JSON log. offset=-1 (the default) returns the last
// limit entries; the returned offset resumes from there.
func (s *Server) jobLog(c echo.Context) error {
	offset := int64(-1)
	if raw := strings.TrimSpace(c.QueryParam("offset")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < -1 {
			return writeError(c, http.StatusBadRequest, "offset must be -1 or a byte position")
		}
		offset = parsed
	}
	limit := defaultLogLimit
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return writeError(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	filter := logs.Filter{Stage: c.QueryParam("stage"), MinLevel: c.QueryParam("level")}
	if !logs.ValidLevel(filter.MinLevel) {
		return writeError(c, http.StatusBadRequest, "level must be debug, info, warn or error")
	}

	result, err := s.store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	if result == nil {
		return writeError(c, http.StatusNotFound, "job not found")
	}
	path := result.Artifacts[job.ArtifactLog]
	if path == "" {
		return writeError(c, http.StatusNotFound, "job has no log")
	}
	tail, err := logs.Tail(c.Request().Context(), path, logs.TailOptions{Offset: offset, Limit: limit})
	if err != nil {
		return writeError(c, http.StatusInternalServerError, err.Error())
	}
	lines := tail.Lines
	if offset >= 0 && len(lines) > limit {
		lines = lines[:limit]
		// Resuming from the reported offset would skip the dropped lines,
		// so report the position after the last returned line instead.
		tail.Offset = offset
		for _, line := range lines {
			tail.Offset += int64(len(line)) + 1
		}
	}
	return c.JSON(http.StatusOK, logResponse{Entries: logs.ParseEntries(lines, filter), Offset: tail.Offset})
}

func writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrResourceUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
