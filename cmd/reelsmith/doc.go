// Package main hosts the reelsmith CLI entrypoint and command graph.
//
// The Cobra command tree runs single productions in the foreground, serves
// the HTTP API, inspects the job history and scaffolds configuration. It
// centralizes configuration resolution, logger construction and job store
// access so subcommands only deal with flags and output.
//
// Keep this package lean: new behaviour belongs in the internal packages
// first and is surfaced here through a command or flag.
package main
