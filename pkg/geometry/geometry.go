// Package geometry evaluates spatial relationships between the objects of
// a single frame. Every function is pure: it sees one frame and keeps no
// history.
//
// Functions that look up a label require at least one detection of it.
// Callers check membership first; a missing label is reported as
// ErrLabelAbsent and indicates a bug in the caller, not a negative answer.
package geometry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/teslashibe/go-disktray/pkg/detection"
)

// ErrLabelAbsent is returned when a predicate's required label is missing
// from the frame.
var ErrLabelAbsent = errors.New("geometry: required label absent")

// ByConfidence returns the detections whose label is one of labels,
// ordered by descending confidence. Ties keep frame order.
func ByConfidence(set detection.Set, labels ...int) detection.Set {
	var out detection.Set
	for _, d := range set {
		for _, l := range labels {
			if d.Label == l {
				out = append(out, d)
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Best returns the most confident detection among labels
func Best(set detection.Set, labels ...int) (detection.Detection, error) {
	sorted := ByConfidence(set, labels...)
	if len(sorted) == 0 {
		return detection.Detection{}, fmt.Errorf("%w: %v", ErrLabelAbsent, labels)
	}
	return sorted[0], nil
}

// bestPair resolves the most confident reference and target detections
func bestPair(set detection.Set, ref int, targets []int) (detection.Box, detection.Box, error) {
	r, err := Best(set, ref)
	if err != nil {
		return detection.Box{}, detection.Box{}, err
	}
	t, err := Best(set, targets...)
	if err != nil {
		return detection.Box{}, detection.Box{}, err
	}
	return r.Box, t.Box, nil
}
