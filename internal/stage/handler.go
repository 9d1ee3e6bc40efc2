package stage

import (
	"context"
	"log/slog"

	"reelsmith/internal/job"
)

// Handler describes the contract the orchestrator needs from each stage.
// Prepare checks preconditions on the job; Execute does the work and may
// record artifacts and notes on job.Result.
type Handler interface {
	Prepare(context.Context, *job.Job) error
	Execute(context.Context, *job.Job) error
	HealthCheck(context.Context) Health
}

// LoggerAware handlers receive the stage-scoped logger before Prepare.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}

// Fatal reports whether a stage failure ends the job. Handlers that do not
// implement SoftFailer are fatal.
func Fatal(h Handler) bool {
	if soft, ok := h.(SoftFailer); ok {
		return !soft.SoftFail()
	}
	return true
}

// SoftFailer is implemented by stages whose failure only degrades the output.
type SoftFailer interface {
	SoftFail() bool
}
