package subtitles

import (
	"fmt"
	"sort"
	"strings"

	"reelsmith/internal/services"
)

// Style is one ASS style preset.
type Style struct {
	Name         string
	Title        string
	FontName     string
	FontSize     int
	PrimaryColor string
	OutlineColor string
	BackColor    string
	Bold         int
	Outline      int
	Shadow       int
	Alignment    int
	MarginV      int
}

const defaultTitle = "Short Video Subtitles"

// Presets returns a fresh copy of the built-in style presets keyed by name.
func Presets() map[string]Style {
	return map[string]Style{
		"default": {
			Name: "default", Title: defaultTitle,
			FontName: "Montserrat", FontSize: 72,
			PrimaryColor: "&H00FFFFFF", OutlineColor: "&H00000000", BackColor: "&H80000000",
			Bold: 1, Outline: 4, Shadow: 2, Alignment: 2, MarginV: 400,
		},
		"bold_center": {
			Name: "bold_center", Title: defaultTitle,
			FontName: "Impact", FontSize: 80,
			PrimaryColor: "&H00FFFFFF", OutlineColor: "&H00000000", BackColor: "&H00000000",
			Bold: 1, Outline: 5, Shadow: 3, Alignment: 5, MarginV: 50,
		},
		"minimal": {
			Name: "minimal", Title: defaultTitle,
			FontName: "Arial", FontSize: 64,
			PrimaryColor: "&H00FFFFFF", OutlineColor: "&H00000000", BackColor: "&H00000000",
			Bold: 0, Outline: 2, Shadow: 1, Alignment: 2, MarginV: 300,
		},
		"neon": {
			Name: "neon", Title: defaultTitle,
			FontName: "Bebas Neue", FontSize: 76,
			PrimaryColor: "&H0000FFFF", OutlineColor: "&H00FF00FF", BackColor: "&H00000000",
			Bold: 1, Outline: 3, Shadow: 0, Alignment: 5, MarginV: 50,
		},
		"viral": {
			Name: "viral", Title: "TikTok Subtitles",
			FontName: "Montserrat ExtraBold", FontSize: 72,
			PrimaryColor: "&H00FFFFFF", OutlineColor: "&H00000000", BackColor: "&H80000000",
			Bold: 1, Outline: 4, Shadow: 0, Alignment: 2, MarginV: 400,
		},
	}
}

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	presets := Presets()
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupStyle returns the named preset.
func LookupStyle(name string) (Style, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "default"
	}
	style, ok := Presets()[key]
	if !ok {
		return Style{}, services.Wrap(services.ErrInvalidArgument, stageName, "lookup style",
			fmt.Sprintf("unknown style %q (want one of %s)", name, strings.Join(PresetNames(), ", ")), nil)
	}
	return style, nil
}

func (s Style) header() string {
	title := s.Title
	if title == "" {
		title = defaultTitle
	}
	var b strings.Builder
	b.WriteString("[Script Info]\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	b.WriteString("ScriptType: v4.00+\n")
	b.WriteString("PlayResX: 1080\n")
	b.WriteString("PlayResY: 1920\n")
	b.WriteString("WrapStyle: 0\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,%s,%d,0,0,0,100,100,0,0,1,%d,%d,%d,50,50,%d,1\n\n",
		s.FontName, s.FontSize, s.PrimaryColor, s.OutlineColor, s.BackColor,
		s.Bold, s.Outline, s.Shadow, s.Alignment, s.MarginV)
	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	return b.String()
}
