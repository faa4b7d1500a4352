package detection

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed detector input and label configuration.
var (
	// ErrNoLabels is returned when a label set would be empty.
	ErrNoLabels = errors.New("detection: label set is empty")

	// ErrInvalidLabel is returned for blank or duplicate label names.
	ErrInvalidLabel = errors.New("detection: invalid label")

	// ErrUnknownLabel is returned when a name is not part of the label set.
	ErrUnknownLabel = errors.New("detection: unknown label")

	// ErrLabelOutOfRange is returned when a raw class index has no mapping.
	ErrLabelOutOfRange = errors.New("detection: label index out of range")

	// ErrConfidenceRange is returned when a confidence is outside [0,1].
	ErrConfidenceRange = errors.New("detection: confidence outside [0,1]")

	// ErrInvalidBox is returned for non-finite or inverted bounding boxes.
	ErrInvalidBox = errors.New("detection: invalid bounding box")
)

// RecordError reports which record of a frame was malformed.
type RecordError struct {
	// Index is the position of the record in the frame.
	Index int

	// Err is the underlying validation failure.
	Err error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("detection: record %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying error.
func (e *RecordError) Unwrap() error {
	return e.Err
}
