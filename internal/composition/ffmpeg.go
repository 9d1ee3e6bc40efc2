package composition

import (
	"path/filepath"
	"strconv"
	"strings"

	"reelsmith/internal/services"
)

// Encoding holds the codec settings applied to every rendered plan.
type Encoding struct {
	VideoCodec   string
	Preset       string
	CRF          int
	PixelFormat  string
	AudioCodec   string
	AudioBitrate string
	FPS          int
	// Container forces the muxer; blank lets ffmpeg infer it from the path.
	Container string
	FastStart bool
}

// DefaultEncoding matches the short-form delivery settings.
func DefaultEncoding() Encoding {
	return Encoding{
		VideoCodec:   "libx264",
		Preset:       "fast",
		CRF:          23,
		PixelFormat:  "yuv420p",
		AudioCodec:   "aac",
		AudioBitrate: "192k",
		FPS:          30,
		FastStart:    true,
	}
}

// FFmpegArgs renders plan as an ffmpeg argument vector writing to output.
// Linear chains of single-input operations are fused with commas.
func FFmpegArgs(plan Plan, output string, enc Encoding) ([]string, error) {
	ordered, err := plan.order()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(output) == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, "composition", "render "+planName(plan), "output path is required", nil)
	}

	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error", "-y"}
	for _, src := range plan.Sources {
		if src.Loop {
			args = append(args, "-stream_loop", "-1")
		}
		args = append(args, "-i", src.Path)
	}
	args = append(args, "-filter_complex", renderGraph(plan, ordered))
	args = append(args, "-map", "["+plan.SinkLabel()+"]")
	for _, label := range plan.Passthrough {
		args = append(args, "-map", label)
	}

	if !plan.Hints.AudioOnly {
		if enc.VideoCodec != "" {
			args = append(args, "-c:v", enc.VideoCodec)
		}
		if enc.Preset != "" {
			args = append(args, "-preset", enc.Preset)
		}
		if enc.CRF > 0 {
			args = append(args, "-crf", strconv.Itoa(enc.CRF))
		}
		if enc.PixelFormat != "" {
			args = append(args, "-pix_fmt", enc.PixelFormat)
		}
		if enc.FPS > 0 {
			args = append(args, "-r", strconv.Itoa(enc.FPS))
		}
	}
	switch {
	case plan.Hints.VideoOnly:
		args = append(args, "-an")
	default:
		if enc.AudioCodec != "" {
			args = append(args, "-c:a", enc.AudioCodec)
		}
		if enc.AudioBitrate != "" {
			args = append(args, "-b:a", enc.AudioBitrate)
		}
	}
	if plan.Hints.AudioOnly {
		args = append(args, "-vn")
	}
	if plan.Hints.Duration > 0 {
		args = append(args, "-t", Seconds(plan.Hints.Duration))
	}
	if enc.FastStart && !plan.Hints.AudioOnly {
		args = append(args, "-movflags", "+faststart")
	}
	if enc.Container != "" {
		args = append(args, "-f", enc.Container)
	}
	return append(args, output), nil
}

// renderGraph emits the filter_complex string for a validated plan.
func renderGraph(plan Plan, ordered []int) string {
	producer := make(map[string]int, len(plan.Operations))
	for i, op := range plan.Operations {
		producer[op.Output] = i
	}

	chainOf := make([]int, len(plan.Operations))
	var chains [][]int
	for _, idx := range ordered {
		op := plan.Operations[idx]
		if len(op.Inputs) == 1 {
			if from, ok := producer[op.Inputs[0]]; ok {
				c := chainOf[from]
				chains[c] = append(chains[c], idx)
				chainOf[idx] = c
				continue
			}
		}
		chainOf[idx] = len(chains)
		chains = append(chains, []int{idx})
	}

	parts := make([]string, 0, len(chains))
	for _, chain := range chains {
		var b strings.Builder
		for _, in := range plan.Operations[chain[0]].Inputs {
			b.WriteString("[" + in + "]")
		}
		for i, idx := range chain {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(plan.Operations[idx].Filter.String())
		}
		b.WriteString("[" + plan.Operations[chain[len(chain)-1]].Output + "]")
		parts = append(parts, b.String())
	}
	return strings.Join(parts, ";")
}

// ContainerForPath maps an output extension to an ffmpeg muxer name so
// temporary paths without a recognizable extension still mux correctly.
func ContainerForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4v":
		return "mp4"
	case ".m4a":
		return "ipod"
	case ".mov":
		return "mov"
	case ".mkv", ".mka":
		return "matroska"
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".aac":
		return "adts"
	default:
		return ""
	}
}
