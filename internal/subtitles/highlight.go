package subtitles

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	highlightOn  = `{\c&H00FFFF&}`
	highlightOff = `{\c&HFFFFFF&}`
)

// Highlight wraps every uppercase keyword in a colour toggle pair. A keyword
// is a maximal run of word characters (letters, digits, underscore) at least
// two runes long made only of A-Z and ÁÉÍÓÚÑ. Emitted markup is never
// rescanned within a call.
func Highlight(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordRune(r) {
			b.WriteString(text[i : i+size])
			i += size
			continue
		}
		j := i
		for j < len(text) {
			rr, sz := utf8.DecodeRuneInString(text[j:])
			if !isWordRune(rr) {
				break
			}
			j += sz
		}
		word := text[i:j]
		if isKeyword(word) {
			b.WriteString(highlightOn)
			b.WriteString(word)
			b.WriteString(highlightOff)
		} else {
			b.WriteString(word)
		}
		i = j
	}
	return b.String()
}

// HasEmphasis reports whether Highlight would change text.
func HasEmphasis(text string) bool {
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return !isWordRune(r) }) {
		if isKeyword(word) {
			return true
		}
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

func isKeyword(word string) bool {
	if utf8.RuneCountInString(word) < 2 {
		return false
	}
	for _, r := range word {
		if !isKeywordRune(r) {
			return false
		}
	}
	return true
}

func isKeywordRune(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	switch r {
	case 'Á', 'É', 'Í', 'Ó', 'Ú', 'Ñ':
		return true
	}
	return false
}

var assEscaper = strings.NewReplacer(`\`, `\\`, `{`, `\{`, `}`, `\}`)

// escapeText neutralizes ASS override characters in plain cue text.
func escapeText(text string) string {
	return assEscaper.Replace(text)
}
