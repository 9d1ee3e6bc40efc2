package timing

import (
	"fmt"
	"math"

	"reelsmith/internal/services"
)

// Window is a half-open time span in seconds.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Length returns End-Start.
func (w Window) Length() float64 {
	return w.End - w.Start
}

const (
	clipSeconds  = 8.0
	imageSeconds = 5.0
	minVisuals   = 3
)

// Allocate splits total into count equal contiguous windows.
func Allocate(total float64, count int) ([]Window, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, invalid("allocate", fmt.Sprintf("count must be positive, got %d", count))
	}
	width := total / float64(count)
	windows := make([]Window, count)
	for i := range windows {
		windows[i] = Window{Start: float64(i) * width, End: float64(i+1) * width}
		if i > 0 {
			windows[i].Start = windows[i-1].End
		}
	}
	windows[count-1].End = total
	return windows, nil
}

// AllocateWeighted splits total proportionally to weights. Every weight must
// be a finite positive number.
func AllocateWeighted(total float64, weights []float64) ([]Window, error) {
	if err := checkTotal(total); err != nil {
		return nil, err
	}
	if len(weights) == 0 {
		return nil, invalid("allocate weighted", "no weights")
	}
	var sum float64
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return nil, invalid("allocate weighted", fmt.Sprintf("weight %d must be positive and finite, got %v", i, w))
		}
		sum += w
	}
	if math.IsInf(sum, 0) {
		return nil, invalid("allocate weighted", "weight sum overflows")
	}
	windows := make([]Window, len(weights))
	var cursor float64
	for i, w := range weights {
		end := cursor + total*w/sum
		windows[i] = Window{Start: cursor, End: end}
		cursor = end
	}
	windows[len(windows)-1].End = total
	if windows[len(windows)-1].End <= windows[len(windows)-1].Start {
		return nil, invalid("allocate weighted", "last weight too small for total")
	}
	return windows, nil
}

// ClipCount returns how many stock clips cover duration seconds.
func ClipCount(duration float64) int {
	if math.IsNaN(duration) || duration <= 0 {
		return minVisuals
	}
	return max(minVisuals, int(math.Round(duration/clipSeconds)))
}

// ImageCount returns how many still images cover duration seconds.
func ImageCount(duration float64) int {
	if math.IsNaN(duration) || duration <= 0 {
		return minVisuals
	}
	return max(minVisuals, int(duration/imageSeconds))
}

// Validate checks that windows are contiguous, strictly increasing and cover
// [0,total] exactly.
func Validate(windows []Window, total float64) error {
	if len(windows) == 0 {
		return invalid("validate windows", "no windows")
	}
	if windows[0].Start != 0 {
		return invalid("validate windows", fmt.Sprintf("first window starts at %v", windows[0].Start))
	}
	for i, w := range windows {
		if !(w.End > w.Start) || w.Start < 0 {
			return invalid("validate windows", fmt.Sprintf("window %d is empty or negative: [%v,%v]", i, w.Start, w.End))
		}
		if i > 0 && w.Start != windows[i-1].End {
			return invalid("validate windows", fmt.Sprintf("gap or overlap before window %d", i))
		}
	}
	if last := windows[len(windows)-1].End; last != total {
		return invalid("validate windows", fmt.Sprintf("windows end at %v, want %v", last, total))
	}
	return nil
}

func checkTotal(total float64) error {
	if math.IsNaN(total) || math.IsInf(total, 0) || total <= 0 {
		return invalid("allocate", fmt.Sprintf("total must be positive and finite, got %v", total))
	}
	return nil
}

func invalid(operation, message string) error {
	return services.Wrap(services.ErrInvalidArgument, "timing", operation, message, nil)
}
