package job

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"reelsmith/internal/media"
	"reelsmith/internal/services"
	"reelsmith/internal/subtitles"
)

// Request is the user-facing description of a job. Empty fields inherit the
// configured defaults.
type Request struct {
	ID               string            `yaml:"id" json:"id,omitempty"`
	Script           string            `yaml:"script" json:"script,omitempty"`
	ScriptFile       string            `yaml:"script_file" json:"script_file,omitempty"`
	Keywords         []string          `yaml:"keywords" json:"keywords,omitempty"`
	Voice            string            `yaml:"voice" json:"voice,omitempty"`
	Rate             string            `yaml:"rate" json:"rate,omitempty"`
	Pitch            string            `yaml:"pitch" json:"pitch,omitempty"`
	MusicMood        string            `yaml:"music_mood" json:"music_mood,omitempty"`
	Music            *bool             `yaml:"music" json:"music,omitempty"`
	SubtitleStyle    string            `yaml:"subtitle_style" json:"subtitle_style,omitempty"`
	Subtitles        *bool             `yaml:"subtitles" json:"subtitles,omitempty"`
	BackgroundStyle  string            `yaml:"background_style" json:"background_style,omitempty"`
	Resolution       *media.Resolution `yaml:"resolution" json:"resolution,omitempty"`
	OutputDir        string            `yaml:"output_dir" json:"output_dir,omitempty"`
	MaxSubtitleWords int               `yaml:"max_subtitle_words" json:"max_subtitle_words,omitempty"`
}

// LoadRequest reads a YAML job file. A relative script_file resolves
// against the job file's directory.
func LoadRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, services.Wrap(services.ErrInvalidArgument, "job", "load request", "read "+path, err)
	}
	req, err := ParseRequest(data)
	if err != nil {
		return Request{}, err
	}
	if req.ScriptFile != "" && !filepath.IsAbs(req.ScriptFile) {
		req.ScriptFile = filepath.Join(filepath.Dir(path), req.ScriptFile)
	}
	return req, nil
}

// ParseRequest decodes YAML, rejecting unknown keys.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return Request{}, services.Wrap(services.ErrInvalidArgument, "job", "parse request", "invalid yaml", err)
	}
	return req, nil
}

// ResolveScript returns the narration text, reading ScriptFile when Script
// is empty. Markdown scripts are reduced to their spoken narration.
func (r Request) ResolveScript() (string, error) {
	script := strings.TrimSpace(r.Script)
	if script == "" && strings.TrimSpace(r.ScriptFile) != "" {
		data, err := os.ReadFile(r.ScriptFile)
		if err != nil {
			return "", services.Wrap(services.ErrInvalidArgument, "job", "resolve script", "read "+r.ScriptFile, err)
		}
		script = string(data)
		if ext := strings.ToLower(filepath.Ext(r.ScriptFile)); ext == ".md" || ext == ".markdown" {
			script = subtitles.ExtractNarration(script)
		}
		script = strings.TrimSpace(script)
	}
	if script == "" {
		return "", services.Wrap(services.ErrInvalidArgument, "job", "resolve script", "script text is empty", nil)
	}
	return script, nil
}

// Encode renders the request as YAML.
func (r Request) Encode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(r); err != nil {
		return nil, fmt.Errorf("encode job request: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode job request: %w", err)
	}
	return buf.Bytes(), nil
}
