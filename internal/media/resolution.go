package media

import "fmt"

// Orientations understood by stock providers.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
	OrientationSquare    = "square"
)

// Resolution is the output frame geometry and rate.
type Resolution struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	FPS    int `json:"fps" yaml:"fps"`
}

// Vertical9x16 is the default short-form output geometry.
var Vertical9x16 = Resolution{Width: 1080, Height: 1920, FPS: 30}

// Orientation classifies the frame shape.
func (r Resolution) Orientation() string {
	switch {
	case r.Height > r.Width:
		return OrientationPortrait
	case r.Width > r.Height:
		return OrientationLandscape
	default:
		return OrientationSquare
	}
}

// Size renders the geometry as WxH.
func (r Resolution) Size() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Validate requires positive even dimensions and a positive frame rate.
func (r Resolution) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("resolution %s: dimensions must be positive", r.Size())
	}
	if r.Width%2 != 0 || r.Height%2 != 0 {
		return fmt.Errorf("resolution %s: dimensions must be even", r.Size())
	}
	if r.FPS <= 0 {
		return fmt.Errorf("resolution %s: fps must be positive", r.Size())
	}
	return nil
}
