package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeToken turns a title or job name into a lowercase ASCII token safe
// for file names. Accents are folded ("Ñandú" becomes "nandu"), runs of any
// other character collapse to one underscore, and empty results become
// "unknown".
func SanitizeToken(value string) string {
	value = norm.NFD.String(strings.TrimSpace(value))
	var b strings.Builder
	pendingSep := false
	for _, r := range value {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		default:
			pendingSep = true
			continue
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingSep = false
		b.WriteRune(r)
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}
