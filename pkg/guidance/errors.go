package guidance

import "errors"

var (
	// ErrMissingLabel is returned when the label set lacks a label the procedure needs
	ErrMissingLabel = errors.New("guidance: required label missing")

	// ErrInvalidConfig is returned for unusable thresholds or tolerances
	ErrInvalidConfig = errors.New("guidance: invalid config")

	// ErrUnknownState is returned when the machine is moved to a state it does not know
	ErrUnknownState = errors.New("guidance: unknown state")

	// ErrMalformedSet is returned when a detection set fails shape or label checks
	ErrMalformedSet = errors.New("guidance: malformed detection set")
)
