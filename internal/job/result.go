package job

import (
	"strings"
	"time"

	"reelsmith/internal/services"
)

// Artifact kinds recorded in Result.Artifacts.
const (
	ArtifactNarration = "narration"
	ArtifactCaptions  = "captions"
	ArtifactSubtitles = "subtitles"
	ArtifactMusic     = "music"
	ArtifactMix       = "mix"
	ArtifactVideo     = "video"
	ArtifactFinal     = "final"
	ArtifactLog       = "log"
)

// Note is a non-fatal remark or the fatal error of a job.
type Note struct {
	Stage   string `json:"stage,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}

// Result is the fixed-shape record returned for every job, successful or
// not. Maps are never nil.
type Result struct {
	JobID      string            `json:"job_id"`
	Success    bool              `json:"success"`
	State      State             `json:"state"`
	Artifacts  map[string]string `json:"artifacts"`
	Errors     []Note            `json:"errors"`
	Fallbacks  map[string]string `json:"fallbacks"`
	Duration   float64           `json:"duration_seconds"`
	SizeBytes  int64             `json:"size_bytes"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

// NewResult creates an empty result for id.
func NewResult(id string) Result {
	return Result{
		JobID:     id,
		State:     StateInit,
		Artifacts: map[string]string{},
		Errors:    []Note{},
		Fallbacks: map[string]string{},
	}
}

// SetArtifact records the path of an artifact kind.
func (r *Result) SetArtifact(kind, path string) {
	if r.Artifacts == nil {
		r.Artifacts = map[string]string{}
	}
	if strings.TrimSpace(path) == "" {
		return
	}
	r.Artifacts[kind] = path
}

// RecordFallback records which strategy won a ladder.
func (r *Result) RecordFallback(ladder, strategy string) {
	if r.Fallbacks == nil {
		r.Fallbacks = map[string]string{}
	}
	r.Fallbacks[ladder] = strategy
}

// AddNote appends a non-fatal remark.
func (r *Result) AddNote(stage, message string) {
	r.Errors = append(r.Errors, Note{Stage: stage, Message: message})
}

// AddError appends a non-fatal error with its taxonomy label.
func (r *Result) AddError(stage string, err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, Note{Stage: stage, Kind: services.Classify(err), Message: err.Error()})
}

// Fail records the fatal error and marks the result failed.
func (r *Result) Fail(stage string, err error) {
	message := "job failed"
	if err != nil {
		message = err.Error()
	}
	r.Errors = append(r.Errors, Note{Stage: stage, Kind: services.Classify(err), Message: message, Fatal: true})
	r.Success = false
	r.State = StateFailed
}

// FatalError returns the fatal note, if any.
func (r Result) FatalError() (Note, bool) {
	for _, note := range r.Errors {
		if note.Fatal {
			return note, true
		}
	}
	return Note{}, false
}

// Notes returns the non-fatal remarks.
func (r Result) Notes() []Note {
	out := make([]Note, 0, len(r.Errors))
	for _, note := range r.Errors {
		if !note.Fatal {
			out = append(out, note)
		}
	}
	return out
}

// Elapsed is the wall time the job took.
func (r Result) Elapsed() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
