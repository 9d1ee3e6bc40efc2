// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//   - Prober: bound binary plus the duration fallback used by the pipeline
//
// Inspect executes ffprobe and returns a parsed Result. Prober.Duration never
// fails: when the probe errors or reports no usable duration it returns the
// configured fallback so timing can proceed.
package ffprobe
