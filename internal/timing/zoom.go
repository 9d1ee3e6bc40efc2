package timing

import (
	"fmt"
	"math"
)

// Zoom directions for still-image motion.
const (
	ZoomIn  = "in"
	ZoomOut = "out"
)

const (
	zoomMin  = 1.0
	zoomMax  = 1.5
	zoomStep = 0.0015
	// zoompan holds at 1.0 for one frame before resetting, so the out move
	// bottoms out just above it.
	zoomOutFloor = 1.001
)

// ZoomCurve returns the per-frame zoom factor for a Ken Burns move. Values
// stay within [1.0, 1.5].
func ZoomCurve(direction string, frames int) ([]float64, error) {
	if frames <= 0 {
		return nil, invalid("zoom curve", fmt.Sprintf("frames must be positive, got %d", frames))
	}
	curve := make([]float64, frames)
	switch direction {
	case ZoomIn:
		for i := range curve {
			curve[i] = math.Min(zoomMin+float64(i)*zoomStep, zoomMax)
		}
	case ZoomOut:
		for i := range curve {
			curve[i] = math.Max(zoomMax-float64(i)*zoomStep, zoomMin)
		}
	default:
		return nil, invalid("zoom curve", fmt.Sprintf("unknown direction %q", direction))
	}
	return curve, nil
}

// ZoomExpression renders the zoom curve as a zoompan z expression.
func ZoomExpression(direction string) (string, error) {
	switch direction {
	case ZoomIn:
		return fmt.Sprintf("min(zoom+%g,%g)", zoomStep, zoomMax), nil
	case ZoomOut:
		return fmt.Sprintf("if(lte(zoom,%.1f),%g,max(%g,zoom-%g))", zoomMin, zoomMax, zoomOutFloor, zoomStep), nil
	default:
		return "", invalid("zoom expression", fmt.Sprintf("unknown direction %q", direction))
	}
}

// AlternatingDirection returns the zoom direction for the i-th still so
// consecutive images alternate in, out, in.
func AlternatingDirection(i int) string {
	if i%2 == 0 {
		return ZoomIn
	}
	return ZoomOut
}
