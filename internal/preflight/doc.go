// Package preflight provides readiness checks for the binaries, directories
// and stock media credentials a production depends on.
//
// The "reelsmith doctor" command renders RunAll as a table, and "serve"
// logs failing checks at startup so a misconfigured host is visible before
// the first job is accepted. Each check is gated by its config section:
// Pexels is skipped without an API key and the music library only when
// music is enabled.
package preflight
