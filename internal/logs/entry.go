package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded line of a job log.
type Entry struct {
	Time    string         `json:"ts,omitempty"`
	Level   string         `json:"level,omitempty"`
	Message string         `json:"msg"`
	Stage   string         `json:"stage,omitempty"`
	Event   string         `json:"event_type,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// Keys lifted out of Fields, plus keys that repeat on every line of a job log.
var reservedKeys = map[string]struct{}{
	"ts": {}, "level": {}, "msg": {}, "stage": {}, "event_type": {},
	"job_id": {}, "component": {},
}

// ParseEntry decodes a JSON log line. Lines that are not JSON objects come
// back as a message-only entry so nothing the engine printed is lost.
func ParseEntry(line string) Entry {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{Message: strings.TrimSpace(line)}
	}
	entry := Entry{
		Time:    stringField(raw, "ts"),
		Level:   strings.ToLower(stringField(raw, "level")),
		Message: stringField(raw, "msg"),
		Stage:   stringField(raw, "stage"),
		Event:   stringField(raw, "event_type"),
	}
	for key, value := range raw {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = map[string]any{}
		}
		entry.Fields[key] = value
	}
	return entry
}

// ParseEntries decodes lines and keeps the entries f accepts.
func ParseEntries(lines []string, f Filter) []Entry {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := ParseEntry(line)
		if f.Match(entry) {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Format renders the entry as a single console line.
func (e Entry) Format() string {
	var b strings.Builder
	if e.Time != "" {
		if ts, err := time.Parse(time.RFC3339, e.Time); err == nil {
			b.WriteString(ts.Local().Format(time.TimeOnly))
		} else {
			b.WriteString(e.Time)
		}
		b.WriteByte(' ')
	}
	if e.Level != "" {
		fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level))
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, "[%s] ", e.Stage)
	}
	b.WriteString(e.Message)
	if e.Event != "" {
		fmt.Fprintf(&b, " event=%s", e.Event)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

// Filter narrows entries. Empty fields match everything.
type Filter struct {
	Stage    string
	MinLevel string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e Entry) bool {
	if stage := strings.TrimSpace(f.Stage); stage != "" && !strings.EqualFold(stage, e.Stage) {
		return false
	}
	if floor := levelRank(f.MinLevel); floor > 0 && levelRank(e.Level) < floor {
		return false
	}
	return true
}

// ValidLevel reports whether level is empty or a known level name.
func ValidLevel(level string) bool {
	return strings.TrimSpace(level) == "" || levelRank(level) > 0
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 1
	case "info":
		return 2
	case "warn", "warning":
		return 3
	case "error":
		return 4
	default:
		return 0
	}
}

func stringField(raw map[string]any, key string) string {
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
