// Package speech drives the edge-tts command-line speech engine.
//
// Client.Synthesize renders narration audio plus a caption track with word
// timings. The caption track is optional: callers that cannot parse it fall
// back to evenly distributed subtitles. The recommended voice catalogue is an
// immutable value returned by RecommendedVoices.
package speech
