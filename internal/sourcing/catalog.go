package sourcing

import (
	"slices"

	"reelsmith/internal/composition"
)

// Track describes a bundled mood track expected in the music directory.
type Track struct {
	Name string
	File string
	BPM  int
	Feel string
}

// Catalog maps moods to library tracks and synthesized tone parameters.
type Catalog struct {
	tracks map[string]Track
	tones  map[string]composition.Tone
}

// DefaultMood is used when a mood has no entry of its own.
const DefaultMood = "tension"

// DefaultCatalog returns a fresh copy of the built-in mood tables.
func DefaultCatalog() Catalog {
	return Catalog{
		tracks: map[string]Track{
			"tension":   {Name: "Tension Dark Ambient", File: "tension_ambient.mp3", BPM: 80, Feel: "suspense, mystery"},
			"dramatic":  {Name: "Dramatic Cinematic", File: "dramatic_cinematic.mp3", BPM: 90, Feel: "epic, powerful"},
			"curiosity": {Name: "Wonder Discovery", File: "curiosity_wonder.mp3", BPM: 100, Feel: "curious, intriguing"},
			"epic":      {Name: "Epic Trailer", File: "epic_trailer.mp3", BPM: 120, Feel: "powerful, motivating"},
			"chill":     {Name: "Lo-Fi Chill", File: "lofi_chill.mp3", BPM: 85, Feel: "relaxed, calm"},
			"happy":     {Name: "Upbeat Positive", File: "happy_upbeat.mp3", BPM: 120, Feel: "happy, energetic"},
		},
		tones: map[string]composition.Tone{
			"tension":   {Low: 80, High: 120, Noise: 0.02},
			"dramatic":  {Low: 60, High: 90, Noise: 0.03},
			"curiosity": {Low: 200, High: 300, Noise: 0.01},
			"epic":      {Low: 50, High: 100, Noise: 0.04},
			"chill":     {Low: 150, High: 180, Noise: 0.01},
		},
	}
}

// Track returns the library track for mood, falling back to the default
// mood's track.
func (c Catalog) Track(mood string) Track {
	if track, ok := c.tracks[mood]; ok {
		return track
	}
	return c.tracks[DefaultMood]
}

// Tone returns the synthesis parameters for mood, falling back to the
// default mood's tone.
func (c Catalog) Tone(mood string) composition.Tone {
	if tone, ok := c.tones[mood]; ok {
		return tone
	}
	return c.tones[DefaultMood]
}

// Moods lists the moods with library tracks, sorted.
func (c Catalog) Moods() []string {
	moods := make([]string, 0, len(c.tracks))
	for mood := range c.tracks {
		moods = append(moods, mood)
	}
	slices.Sort(moods)
	return moods
}
