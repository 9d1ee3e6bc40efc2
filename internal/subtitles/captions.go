package subtitles

import (
	"fmt"
	"os"
	"strings"

	"reelsmith/internal/services"
	"reelsmith/internal/speech"
)

// ParseCaptionFile reads an SRT or WebVTT caption track.
func ParseCaptionFile(path string) ([]speech.Caption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrResourceUnavailable, stageName, "read captions", path, err)
	}
	return ParseCaptions(string(data))
}

// ParseCaptions parses SRT or WebVTT content. Index lines, the WEBVTT header,
// NOTE blocks and cue settings are ignored.
func ParseCaptions(content string) ([]speech.Caption, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	var captions []speech.Caption
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		timeIdx := -1
		for i, line := range lines {
			if strings.Contains(line, "-->") {
				timeIdx = i
				break
			}
		}
		if timeIdx < 0 {
			continue
		}
		startText, endText, _ := strings.Cut(lines[timeIdx], "-->")
		start := strings.TrimSpace(startText)
		endFields := strings.Fields(endText)
		if start == "" || len(endFields) == 0 {
			return nil, services.Wrap(services.ErrInvalidArgument, stageName, "parse captions",
				fmt.Sprintf("malformed timing line %q", lines[timeIdx]), nil)
		}
		text := strings.TrimSpace(strings.Join(lines[timeIdx+1:], " "))
		if text == "" {
			continue
		}
		captions = append(captions, speech.Caption{Start: start, End: endFields[0], Text: text})
	}
	return captions, nil
}
