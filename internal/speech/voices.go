package speech

import (
	"context"
	"sort"
	"strings"

	"reelsmith/internal/services"
)

// VoiceSet lists recommended voices for one language.
type VoiceSet struct {
	Male   []string
	Female []string
}

// Catalog maps a language code to its recommended voices.
type Catalog map[string]VoiceSet

// RecommendedVoices returns a fresh copy of the recommended voice catalogue.
func RecommendedVoices() Catalog {
	return Catalog{
		"es": {
			Male:   []string{"es-ES-AlvaroNeural", "es-MX-JorgeNeural", "es-AR-TomasNeural"},
			Female: []string{"es-ES-ElviraNeural", "es-MX-DaliaNeural", "es-AR-ElenaNeural"},
		},
		"en": {
			Male:   []string{"en-US-GuyNeural", "en-GB-RyanNeural", "en-AU-WilliamNeural"},
			Female: []string{"en-US-JennyNeural", "en-GB-SoniaNeural", "en-AU-NatashaNeural"},
		},
		"pt": {
			Male:   []string{"pt-BR-AntonioNeural", "pt-PT-DuarteNeural"},
			Female: []string{"pt-BR-FranciscaNeural", "pt-PT-RaquelNeural"},
		},
		"fr": {
			Male:   []string{"fr-FR-HenriNeural", "fr-CA-AntoineNeural"},
			Female: []string{"fr-FR-DeniseNeural", "fr-CA-SylvieNeural"},
		},
		"de": {
			Male:   []string{"de-DE-ConradNeural", "de-AT-JonasNeural"},
			Female: []string{"de-DE-KatjaNeural", "de-AT-IngridNeural"},
		},
	}
}

// Languages returns the catalogue's language codes in sorted order.
func (c Catalog) Languages() []string {
	langs := make([]string, 0, len(c))
	for lang := range c {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Recommend returns the first recommended voice for language and gender,
// falling back to DefaultVoice.
func (c Catalog) Recommend(language, gender string) string {
	set, ok := c[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return DefaultVoice
	}
	voices := set.Male
	if strings.EqualFold(strings.TrimSpace(gender), "female") {
		voices = set.Female
	}
	if len(voices) == 0 {
		return DefaultVoice
	}
	return voices[0]
}

// Voice is one entry from the engine's voice listing.
type Voice struct {
	ID       string
	Language string
	Region   string
}

// ListVoices asks the engine for every available voice, optionally filtered
// by a language prefix such as "es".
func (c *Client) ListVoices(ctx context.Context, language string) ([]Voice, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	output, err := c.exec.Run(runCtx, c.binary, []string{"--list-voices"})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, stageName, "list voices", strings.TrimSpace(string(output)), err)
	}
	return ParseVoiceList(string(output), language), nil
}

// ParseVoiceList extracts voice IDs from "Name: xx-YY-VoiceNeural" lines and
// from the tabular listing newer engine releases print.
func ParseVoiceList(listing, language string) []Voice {
	language = strings.ToLower(strings.TrimSpace(language))
	var voices []Voice
	seen := map[string]struct{}{}
	for _, line := range strings.Split(listing, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var id string
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "name") {
			id = strings.TrimSpace(value)
		} else if fields := strings.Fields(line); len(fields) > 0 && strings.HasSuffix(fields[0], "Neural") {
			id = fields[0]
		}
		if id == "" {
			continue
		}
		if language != "" && !strings.HasPrefix(strings.ToLower(id), language) {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		parts := strings.Split(id, "-")
		voice := Voice{ID: id, Language: parts[0]}
		if len(parts) > 1 {
			voice.Region = parts[1]
		}
		voices = append(voices, voice)
	}
	return voices
}
