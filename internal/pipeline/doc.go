// Package pipeline drives a production job through its stages.
//
// The orchestrator walks a job from init through speech_synthesized,
// background_resolved, subtitles_composed, mixed and composed to done. Each
// transition is gated on the stage before it. Speech, background and compose
// failures end the job; subtitle and mix failures degrade the output and are
// recorded as result notes.
//
// Stage handlers are built per job around a private production record, so
// RunMany can drive independent jobs concurrently without shared mutable
// state.
package pipeline
