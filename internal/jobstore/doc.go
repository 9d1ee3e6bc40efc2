// Package jobstore keeps the history of production job results in SQLite.
//
// Each job is one row keyed by job ID and rewritten on every state change,
// so the store always reflects the latest known result. The full result is
// kept as JSON beside a few indexed columns used for listing.
package jobstore
