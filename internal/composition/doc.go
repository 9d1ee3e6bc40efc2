// Package composition describes media-engine work as typed filter graphs.
//
// A Plan declares its input sources, an ordered list of filter operations
// connected by string labels, and the single sink label that becomes the
// output. Builders produce plans without touching the filesystem. FFmpegArgs
// is the only place that knows how a plan turns into an ffmpeg argument
// vector, and Engine runs that vector with a timeout and publishes the
// result through a temporary sibling path.
package composition
