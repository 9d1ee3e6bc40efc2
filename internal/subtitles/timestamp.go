package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"reelsmith/internal/services"
)

// ConvertTimestamp rewrites an engine timestamp ("HH:MM:SS,mmm" or
// "HH:MM:SS.mmm") into the ASS form "H:MM:SS.cc", truncating milliseconds.
func ConvertTimestamp(value string) (string, error) {
	centis, err := parseCentiseconds(value)
	if err != nil {
		return "", services.Wrap(services.ErrInvalidArgument, stageName, "convert timestamp", "", err)
	}
	return formatCentiseconds(centis), nil
}

// parseCentiseconds parses a caption timestamp into whole hundredths of a
// second. Hours are optional as in WebVTT.
func parseCentiseconds(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	clock, frac, ok := strings.Cut(strings.ReplaceAll(value, ",", "."), ".")
	if !ok || frac == "" || len(frac) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(clock, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var fields [3]int64
	for i, part := range parts {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil || n < 0 || part == "" {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	millis, err := strconv.ParseInt((frac + "00")[:3], 10, 64)
	if err != nil || millis < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	total := (fields[0]*3600+fields[1]*60+fields[2])*100 + millis/10
	return total, nil
}

func formatCentiseconds(centis int64) string {
	if centis < 0 {
		centis = 0
	}
	hours := centis / 360000
	minutes := (centis / 6000) % 60
	seconds := (centis / 100) % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, seconds, centis%100)
}

// formatSeconds renders seconds as "H:MM:SS.cc" rounded to the nearest
// hundredth.
func formatSeconds(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	return formatCentiseconds(int64(math.Round(seconds * 100)))
}
