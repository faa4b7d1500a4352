package detection

import (
	"fmt"
	"math"
)

// Record is one detection as the external detector emits it. Label is
// the detector's raw class index, which may not follow canonical order.
type Record struct {
	X1, Y1, X2, Y2 float64
	Confidence     float64
	Label          int
}

// Validate checks the record shape without looking at the label space
func (r Record) Validate() error {
	return validateShape(Box{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2}, r.Confidence)
}

func validateShape(b Box, confidence float64) error {
	for _, v := range [...]float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidBox)
		}
	}
	if b.X1 > b.X2 || b.Y1 > b.Y2 {
		return fmt.Errorf("%w: (%g,%g)-(%g,%g)", ErrInvalidBox, b.X1, b.Y1, b.X2, b.Y2)
	}
	if math.IsNaN(confidence) || confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: %g", ErrConfidenceRange, confidence)
	}
	return nil
}

// Normalize validates a frame of raw records and remaps their labels into
// canonical order. Any malformed record fails the whole frame. Valid
// records with confidence below minConfidence are dropped.
func Normalize(records []Record, m LabelMap, minConfidence float64) (Set, error) {
	set := make(Set, 0, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, &RecordError{Index: i, Err: err}
		}
		label, ok := m.Lookup(r.Label)
		if !ok {
			return nil, &RecordError{
				Index: i,
				Err:   fmt.Errorf("%w: %d (detector has %d labels)", ErrLabelOutOfRange, r.Label, m.RawLen()),
			}
		}
		if r.Confidence < minConfidence {
			continue
		}
		set = append(set, Detection{
			Box:        Box{X1: r.X1, Y1: r.Y1, X2: r.X2, Y2: r.Y2},
			Confidence: r.Confidence,
			Label:      label,
		})
	}
	return set, nil
}
