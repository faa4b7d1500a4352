package geometry

import "github.com/teslashibe/go-disktray/pkg/detection"

// Aspect ratio (height/width) thresholds. Ratios in between are neither
// horizontal nor vertical.
const (
	HorizontalMaxRatio = 0.8
	VerticalMinRatio   = 1.2
)

// Orientation classifies a bounding box by its aspect ratio
type Orientation int

const (
	// Undetermined covers the dead zone between the two thresholds
	Undetermined Orientation = iota
	Horizontal
	Vertical
)

// String returns the orientation name
func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return "undetermined"
	}
}

// AspectRatio returns height/width. A zero-width box yields +Inf, or NaN
// when the height is zero too.
func AspectRatio(b detection.Box) float64 {
	return b.Height() / b.Width()
}

// Orient classifies a box. NaN ratios fall into the dead zone.
func Orient(b detection.Box) Orientation {
	ratio := AspectRatio(b)
	switch {
	case ratio < HorizontalMaxRatio:
		return Horizontal
	case ratio > VerticalMinRatio:
		return Vertical
	default:
		return Undetermined
	}
}

// OrientationOf classifies the most confident detection of label
func OrientationOf(set detection.Set, label int) (Orientation, error) {
	d, err := Best(set, label)
	if err != nil {
		return Undetermined, err
	}
	return Orient(d.Box), nil
}

// IsHorizontal reports whether the most confident detection of label is
// lying flat
func IsHorizontal(set detection.Set, label int) (bool, error) {
	o, err := OrientationOf(set, label)
	return o == Horizontal, err
}

// IsVertical reports whether the most confident detection of label is
// standing up
func IsVertical(set detection.Set, label int) (bool, error) {
	o, err := OrientationOf(set, label)
	return o == Vertical, err
}
