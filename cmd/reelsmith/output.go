package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"reelsmith/internal/job"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusLabel(kind statusKind, colorize bool) string {
	var label, color string
	switch kind {
	case statusOK:
		label, color = "OK", ansiGreen
	case statusWarn:
		label, color = "WARN", ansiYellow
	case statusError:
		label, color = "ERROR", ansiRed
	default:
		label, color = "INFO", ansiBlue
	}
	if colorize {
		return color + label + ansiReset
	}
	return label
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func stateKind(state job.State) statusKind {
	switch state {
	case job.StateDone:
		return statusOK
	case job.StateFailed:
		return statusError
	default:
		return statusInfo
	}
}

// renderResult prints the summary, artifacts, fallbacks and notes of one job.
func renderResult(out io.Writer, result job.Result, colorize bool) {
	summary := [][]string{
		{"Job", result.JobID},
		{"State", statusLabel(stateKind(result.State), colorize) + " " + string(result.State)},
		{"Success", yesNo(result.Success)},
		{"Duration", formatSeconds(result.Duration)},
		{"Size", formatBytes(result.SizeBytes)},
		{"Elapsed", formatElapsed(result.Elapsed())},
	}
	if !result.StartedAt.IsZero() {
		summary = append(summary, []string{"Started", result.StartedAt.Local().Format(time.DateTime)})
	}
	fmt.Fprint(out, renderTable([]string{"Field", "Value"}, summary, nil))

	if len(result.Artifacts) > 0 {
		fmt.Fprint(out, renderTable([]string{"Artifact", "Path"}, sortedPairs(result.Artifacts), nil))
	}
	if len(result.Fallbacks) > 0 {
		fmt.Fprint(out, renderTable([]string{"Ladder", "Strategy"}, sortedPairs(result.Fallbacks), nil))
	}
	if len(result.Errors) > 0 {
		rows := make([][]string, 0, len(result.Errors))
		for _, note := range result.Errors {
			kind := statusWarn
			if note.Fatal {
				kind = statusError
			}
			rows = append(rows, []string{statusLabel(kind, colorize), note.Stage, note.Kind, note.Message})
		}
		fmt.Fprint(out, renderTable([]string{"Level", "Stage", "Kind", "Message"}, rows, nil))
	}
}

func sortedPairs(values map[string]string) [][]string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, values[k]})
	}
	return rows
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2fs", seconds)
}

func formatBytes(size int64) string {
	if size <= 0 {
		return "-"
	}
	return humanize.IBytes(uint64(size))
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(100 * time.Millisecond).String()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
