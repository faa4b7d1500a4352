// Package detection holds the per-frame object detections the guidance
// engine consumes, the label vocabulary they refer to, and the boundary
// normalization from raw detector output.
package detection

import "fmt"

// Box is an axis-aligned bounding box in image coordinates.
// X1 <= X2 and Y1 <= Y2.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the horizontal extent of the box
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the vertical extent of the box
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Center returns the center point of the box
func (b Box) Center() (x, y float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Area returns the area of the box
func (b Box) Area() float64 {
	return b.Width() * b.Height()
}

// Detection is one recognized object in a frame. Label is an index into
// the canonical LabelSet.
type Detection struct {
	Box        Box
	Confidence float64 // 0-1
	Label      int
}

// Set is the list of detections for a single frame. Order carries no
// meaning; consumers group by label.
type Set []Detection

// Validate checks every detection against the canonical label space:
// finite, non-inverted boxes, confidence in [0,1] and a known label.
func (s Set) Validate(labels LabelSet) error {
	for i, d := range s {
		if err := validateShape(d.Box, d.Confidence); err != nil {
			return &RecordError{Index: i, Err: err}
		}
		if d.Label < 0 || d.Label >= labels.Len() {
			return &RecordError{
				Index: i,
				Err:   fmt.Errorf("%w: %d (%d labels)", ErrLabelOutOfRange, d.Label, labels.Len()),
			}
		}
	}
	return nil
}

// Len returns the number of detections in the frame
func (s Set) Len() int {
	return len(s)
}

// Empty reports whether nothing was detected in the frame
func (s Set) Empty() bool {
	return len(s) == 0
}

// Count returns how many detections carry the given label
func (s Set) Count(label int) int {
	n := 0
	for _, d := range s {
		if d.Label == label {
			n++
		}
	}
	return n
}

// Has reports whether at least one detection carries the given label
func (s Set) Has(label int) bool {
	for _, d := range s {
		if d.Label == label {
			return true
		}
	}
	return false
}

// Counts tallies detections per label for every label in the set's
// vocabulary. Labels with no detection get 0.
func (s Set) Counts(labels LabelSet) map[string]int {
	counts := make(map[string]int, labels.Len())
	for _, name := range labels.Names() {
		counts[name] = 0
	}
	for _, d := range s {
		if name, ok := labels.Name(d.Label); ok {
			counts[name]++
		}
	}
	return counts
}

// OfLabel returns the detections carrying the given label, in frame order
func (s Set) OfLabel(label int) Set {
	var out Set
	for _, d := range s {
		if d.Label == label {
			out = append(out, d)
		}
	}
	return out
}
