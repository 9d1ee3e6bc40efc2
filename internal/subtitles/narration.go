package subtitles

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	boldPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicPattern = regexp.MustCompile(`\*(.+?)\*`)
	linkPattern   = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
)

// ExtractNarration returns the speakable text of a markdown script. Headings,
// code fences, rules, bracketed stage directions and "LABEL:" metadata lines
// are skipped; bold, italic and link markup is reduced to its text.
func ExtractNarration(markdown string) string {
	var lines []string
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "#"),
			strings.HasPrefix(line, "```"),
			strings.HasPrefix(line, "---"),
			strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			continue
		}
		if label, _, ok := strings.Cut(line, ":"); ok && isUpperLabel(label) {
			continue
		}
		line = boldPattern.ReplaceAllString(line, "$1")
		line = italicPattern.ReplaceAllString(line, "$1")
		line = linkPattern.ReplaceAllString(line, "$1")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " ")
}

// isUpperLabel reports whether s has at least one cased letter and no
// lowercase letters.
func isUpperLabel(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
