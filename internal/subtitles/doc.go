// Package subtitles turns narration text or a speech engine caption track into
// timed cues and renders them as an Advanced SubStation Alpha document.
//
// Cue text is NFC-normalized, split into sentences and then into word groups
// no longer than the configured maximum. Timing comes from the timing
// package so cues always tile the narration exactly. Uppercase words are
// wrapped in colour toggles by Highlight; the transform scans its input once
// and is not idempotent on its own output because the closing colour token
// (HFFFFFF) is itself an uppercase run.
//
// Style presets are immutable values returned by Presets.
package subtitles
