// Package logs reads per-job JSON log files.
//
// Tail streams a log with bounded memory: a negative offset returns the last
// N lines, a positive offset resumes where a previous call stopped and
// Follow waits for new lines. ParseEntry turns one JSON line into an Entry
// that the CLI prints and the HTTP API returns, and Filter narrows entries by
// stage and minimum level.
package logs
