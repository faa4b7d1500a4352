package session

import "errors"

var (
	// ErrNotFound is returned for an unknown session id
	ErrNotFound = errors.New("session: not found")

	// ErrMalformedFrame is returned when a frame's records fail validation
	ErrMalformedFrame = errors.New("session: malformed frame")
)
