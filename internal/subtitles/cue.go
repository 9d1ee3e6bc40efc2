package subtitles

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"reelsmith/internal/services"
	"reelsmith/internal/speech"
	"reelsmith/internal/timing"
)

const stageName = "subtitles"

// Cue is one timed subtitle line.
type Cue struct {
	Text   string        `json:"text"`
	Window timing.Window `json:"window"`
	// Emphasis records that Text contains at least one highlighted keyword.
	Emphasis bool `json:"emphasis,omitempty"`
}

// FromText splits text into cues of at most maxWords words and spreads them
// evenly across total seconds.
func FromText(text string, total float64, maxWords int) ([]Cue, error) {
	if maxWords < 1 {
		return nil, services.Wrap(services.ErrInvalidArgument, stageName, "from text",
			fmt.Sprintf("max words must be >= 1, got %d", maxWords), nil)
	}
	fragments := Fragments(text, maxWords)
	if len(fragments) == 0 {
		return nil, nil
	}
	windows, err := timing.Allocate(total, len(fragments))
	if err != nil {
		return nil, err
	}
	cues := make([]Cue, len(fragments))
	for i, fragment := range fragments {
		cues[i] = Cue{Text: fragment, Window: windows[i], Emphasis: HasEmphasis(fragment)}
	}
	return cues, nil
}

// FromExternal converts a caption track into cues. Timestamps are truncated to
// hundredths of a second. Zero-length captions and captions with no text are
// dropped; a caption ending before it starts is rejected.
func FromExternal(track []speech.Caption) ([]Cue, error) {
	cues := make([]Cue, 0, len(track))
	for i, caption := range track {
		start, err := parseCentiseconds(caption.Start)
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidArgument, stageName, "from external",
				fmt.Sprintf("caption %d start", i+1), err)
		}
		end, err := parseCentiseconds(caption.End)
		if err != nil {
			return nil, services.Wrap(services.ErrInvalidArgument, stageName, "from external",
				fmt.Sprintf("caption %d end", i+1), err)
		}
		if end < start {
			return nil, services.Wrap(services.ErrInvalidArgument, stageName, "from external",
				fmt.Sprintf("caption %d ends before it starts", i+1), nil)
		}
		text := cleanText(caption.Text)
		if text == "" || end == start {
			continue
		}
		cues = append(cues, Cue{
			Text:     text,
			Window:   timing.Window{Start: float64(start) / 100, End: float64(end) / 100},
			Emphasis: HasEmphasis(text),
		})
	}
	return cues, nil
}

// Fragments returns the caption-sized pieces of text in reading order.
func Fragments(text string, maxWords int) []string {
	if maxWords < 1 {
		return nil
	}
	var fragments []string
	for _, sentence := range Sentences(text) {
		words := strings.Fields(sentence)
		if len(words) <= maxWords {
			fragments = append(fragments, sentence)
			continue
		}
		for i := 0; i < len(words); i += maxWords {
			fragments = append(fragments, strings.Join(words[i:min(i+maxWords, len(words))], " "))
		}
	}
	return fragments
}

// Sentences splits text after '.', '!' or '?' when followed by whitespace.
func Sentences(text string) []string {
	words := strings.Fields(norm.NFC.String(text))
	var (
		sentences []string
		current   []string
	)
	for _, word := range words {
		current = append(current, word)
		if strings.ContainsRune(".!?", lastRune(word)) {
			sentences = append(sentences, strings.Join(current, " "))
			current = current[:0]
		}
	}
	if len(current) > 0 {
		sentences = append(sentences, strings.Join(current, " "))
	}
	return sentences
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

func lastRune(word string) rune {
	runes := []rune(word)
	if len(runes) == 0 {
		return 0
	}
	return runes[len(runes)-1]
}
