package subtitles

import (
	"fmt"
	"sort"
	"strings"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/services"
)

// Render serializes cues into an ASS document. Cues are emitted in ascending
// start order; a cue that overlaps its successor is cut at the successor's
// start and dropped if nothing remains.
func Render(cues []Cue, style Style) string {
	ordered := Normalize(cues)
	var b strings.Builder
	b.WriteString(style.header())
	for _, cue := range ordered {
		text := escapeText(cue.Text)
		if cue.Emphasis {
			text = Highlight(text)
		}
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
			formatSeconds(cue.Window.Start), formatSeconds(cue.Window.End), text)
	}
	return b.String()
}

// Normalize returns a sorted copy of cues with overlaps clamped. The input is
// not modified.
func Normalize(cues []Cue) []Cue {
	ordered := append([]Cue(nil), cues...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Window.Start < ordered[j].Window.Start
	})
	out := ordered[:0]
	for i := range ordered {
		if i+1 < len(ordered) && ordered[i].Window.End > ordered[i+1].Window.Start {
			ordered[i].Window.End = ordered[i+1].Window.Start
		}
		if ordered[i].Window.End <= ordered[i].Window.Start {
			continue
		}
		out = append(out, ordered[i])
	}
	return out
}

// WriteDocument renders cues and writes the document to path atomically.
func WriteDocument(path string, cues []Cue, style Style) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrInvalidArgument, stageName, "write document", "empty path", nil)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(Render(cues, style)), 0o644); err != nil {
		return services.Wrap(services.ErrResourceUnavailable, stageName, "write document", path, err)
	}
	return nil
}
