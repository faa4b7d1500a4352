package geometry

import "github.com/teslashibe/go-disktray/pkg/detection"

// Corner names a corner of the reference box
type Corner int

const (
	BottomLeft Corner = iota
	BottomRight
	TopLeft
	TopRight
)

// Band is an open interval of offsets, expressed as a fraction of the
// reference box's width or height.
type Band struct {
	Low  float64
	High float64
}

// contains reports origin+Low*span < v < origin+High*span
func (b Band) contains(v, origin, span float64) bool {
	return origin+b.Low*span < v && v < origin+b.High*span
}

// Alignment describes where a target's top-left corner must sit relative
// to a corner of the reference box.
type Alignment struct {
	Corner Corner
	X      Band // fraction of reference width
	Y      Band // fraction of reference height
}

// DefaultLeverAlignment is the hinge position for the lever: its top-left
// corner just right of the tray's left edge and around its bottom edge.
var DefaultLeverAlignment = Alignment{
	Corner: BottomLeft,
	X:      Band{Low: -0.1, High: 0.2},
	Y:      Band{Low: -0.1, High: 0.1},
}

// corner returns the reference point for c
func corner(b detection.Box, c Corner) (x, y float64) {
	switch c {
	case BottomRight:
		return b.X2, b.Y2
	case TopLeft:
		return b.X1, b.Y1
	case TopRight:
		return b.X2, b.Y1
	default:
		return b.X1, b.Y2
	}
}

// Aligned reports whether target sits inside the alignment bands around
// the chosen corner of ref
func Aligned(ref, target detection.Box, a Alignment) bool {
	cx, cy := corner(ref, a.Corner)
	return a.X.contains(target.X1, cx, ref.Width()) &&
		a.Y.contains(target.Y1, cy, ref.Height())
}

// EdgeAligned applies Aligned to the most confident ref detection and the
// most confident detection among targets
func EdgeAligned(set detection.Set, ref int, targets []int, a Alignment) (bool, error) {
	r, t, err := bestPair(set, ref, targets)
	if err != nil {
		return false, err
	}
	return Aligned(r, t, a), nil
}

// Side is where a target's center falls relative to a split line
type Side int

const (
	Left Side = iota
	Right
)

// String returns the side name
func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// SideOf reports on which side of the vertical line at
// ref.X1 + split*width the target's center lies. A center exactly on the
// line counts as Right.
func SideOf(ref, target detection.Box, split float64) Side {
	cx, _ := target.Center()
	if cx < ref.X1+split*ref.Width() {
		return Left
	}
	return Right
}

// CentroidOffset applies SideOf to the most confident ref detection and
// the most confident detection among targets
func CentroidOffset(set detection.Set, ref int, targets []int, split float64) (Side, error) {
	r, t, err := bestPair(set, ref, targets)
	if err != nil {
		return Left, err
	}
	return SideOf(r, t, split), nil
}
