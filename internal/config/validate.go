package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// SubtitleStyles lists the accepted subtitles.style values.
var SubtitleStyles = []string{"default", "bold_center", "minimal", "neon", "viral"}

// MusicMoods lists the accepted music.mood values.
var MusicMoods = []string{"tension", "dramatic", "curiosity", "epic", "chill", "happy"}

// BackgroundStyles lists the accepted background.style values.
var BackgroundStyles = []string{"stock_video", "stock_images", "animated", "space"}

var orientations = []string{"portrait", "landscape", "square"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validatePexels(); err != nil {
		return err
	}
	if err := c.validateMusic(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateBackground(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return errors.New("notifications.ntfy_topic must be an http(s) URL")
	}
	if c.Workflow.ParallelJobs < 1 {
		return errors.New("workflow.parallel_jobs must be >= 1")
	}
	return nil
}

func (c *Config) validateVideo() error {
	if err := ensurePositiveMap(map[string]int{
		"video.width":  c.Video.Width,
		"video.height": c.Video.Height,
		"video.fps":    c.Video.FPS,
	}); err != nil {
		return err
	}
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return errors.New("video.width and video.height must be even")
	}
	if c.Video.CRF < 0 || c.Video.CRF > 51 {
		return errors.New("video.crf must be between 0 and 51")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"speech.timeout_seconds":          c.Speech.TimeoutSeconds,
		"engine.timeout_seconds":          c.Engine.TimeoutSeconds,
		"pexels.timeout_seconds":          c.Pexels.TimeoutSeconds,
		"pexels.download_timeout_seconds": c.Pexels.DownloadTimeoutSeconds,
	})
}

func (c *Config) validatePexels() error {
	if !slices.Contains(orientations, c.Pexels.Orientation) {
		return fmt.Errorf("pexels.orientation must be one of %v", orientations)
	}
	if c.Pexels.PerKeyword < 1 || c.Pexels.PerKeyword > 80 {
		return errors.New("pexels.per_keyword must be between 1 and 80")
	}
	return nil
}

func (c *Config) validateMusic() error {
	if !slices.Contains(MusicMoods, c.Music.Mood) {
		return fmt.Errorf("music.mood must be one of %v", MusicMoods)
	}
	if c.Music.Volume < 0 || c.Music.Volume > 1 {
		return errors.New("music.volume must be between 0 and 1")
	}
	if c.Music.VoiceVolume < 0 || c.Music.VoiceVolume > 2 {
		return errors.New("music.voice_volume must be between 0 and 2")
	}
	if c.Music.FadeIn < 0 || c.Music.FadeOut < 0 {
		return errors.New("music.fade_in and music.fade_out must be >= 0")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if !slices.Contains(SubtitleStyles, c.Subtitles.Style) {
		return fmt.Errorf("subtitles.style must be one of %v", SubtitleStyles)
	}
	if c.Subtitles.MaxWords < 1 {
		return errors.New("subtitles.max_words must be >= 1")
	}
	return nil
}

func (c *Config) validateBackground() error {
	if !slices.Contains(BackgroundStyles, c.Background.Style) {
		return fmt.Errorf("background.style must be one of %v", BackgroundStyles)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
