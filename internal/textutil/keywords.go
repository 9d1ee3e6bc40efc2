package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var keywordCaser = cases.Lower(language.Und)

// NormalizeKeyword NFC-normalizes, lowercases and whitespace-collapses a
// stock search keyword.
func NormalizeKeyword(keyword string) string {
	fields := strings.Fields(norm.NFC.String(keyword))
	if len(fields) == 0 {
		return ""
	}
	return keywordCaser.String(strings.Join(fields, " "))
}

// NormalizeKeywords normalizes every keyword, dropping blanks and duplicates
// while preserving first-seen order.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]struct{}, len(keywords))
	for _, keyword := range keywords {
		normalized := NormalizeKeyword(keyword)
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// SplitKeywords parses a comma separated keyword list.
func SplitKeywords(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return NormalizeKeywords(strings.Split(raw, ","))
}
