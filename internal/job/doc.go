// Package job defines a production job, its lifecycle states and the fixed
// shape result record every run returns.
//
// A job moves forward through init, speech_synthesized, background_resolved,
// subtitles_composed, mixed, composed and done. Any state except done may
// move to failed. Requests arrive as YAML files or JSON bodies and are
// merged over configured defaults by New.
package job
