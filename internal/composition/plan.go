package composition

import (
	"regexp"
	"strconv"
	"strings"
)

// Source is one declared input file.
type Source struct {
	Path string `json:"path"`
	// Loop repeats the input indefinitely so short clips can cover a slice.
	Loop bool `json:"loop,omitempty"`
}

// Arg is one filter option. An empty Key renders a positional value.
type Arg struct {
	Key   string `json:"key,omitempty"`
	Value string `json:"value"`
}

// Filter is a single ffmpeg filter with its options.
type Filter struct {
	Name string `json:"name"`
	Args []Arg  `json:"args,omitempty"`
}

// Operation applies Filter to the Inputs labels and produces Output.
type Operation struct {
	Inputs []string `json:"inputs,omitempty"`
	Output string   `json:"output"`
	Filter Filter   `json:"filter"`
}

// Hints carry output-level settings that are not part of the graph.
type Hints struct {
	// Duration caps the output length in seconds when positive.
	Duration  float64 `json:"duration,omitempty"`
	AudioOnly bool    `json:"audio_only,omitempty"`
	VideoOnly bool    `json:"video_only,omitempty"`
}

// Plan is a declarative filter graph with one sink.
type Plan struct {
	Name       string      `json:"name"`
	Sources    []Source    `json:"sources,omitempty"`
	Operations []Operation `json:"operations"`
	Sink       string      `json:"sink"`
	// Passthrough lists raw stream labels mapped beside the sink unchanged.
	// A trailing "?" marks the stream optional.
	Passthrough []string `json:"passthrough,omitempty"`
	Hints       Hints    `json:"hints"`
}

// KV builds a keyed filter option.
func KV(key, value string) Arg {
	return Arg{Key: key, Value: value}
}

// Pos builds a positional filter option.
func Pos(value string) Arg {
	return Arg{Value: value}
}

// F builds a filter.
func F(name string, args ...Arg) Filter {
	return Filter{Name: name, Args: args}
}

// String renders the filter in ffmpeg filtergraph syntax.
func (f Filter) String() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	parts := make([]string, 0, len(f.Args))
	for _, arg := range f.Args {
		if arg.Key == "" {
			parts = append(parts, arg.Value)
			continue
		}
		parts = append(parts, arg.Key+"="+arg.Value)
	}
	return f.Name + "=" + strings.Join(parts, ":")
}

var rawLabelPattern = regexp.MustCompile(`^(\d+):([av])(\?)?$`)

// rawStream parses labels such as "0:v" or "1:a?".
func rawStream(label string) (index int, optional bool, ok bool) {
	m := rawLabelPattern.FindStringSubmatch(label)
	if m == nil {
		return 0, false, false
	}
	index, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false, false
	}
	return index, m[3] == "?", true
}

// RawVideo returns the raw video stream label for source index.
func RawVideo(index int) string {
	return strconv.Itoa(index) + ":v"
}

// RawAudio returns the raw audio stream label for source index.
func RawAudio(index int) string {
	return strconv.Itoa(index) + ":a"
}

// Seconds formats a duration value for filter options.
func Seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
