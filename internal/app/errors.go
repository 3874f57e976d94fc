package app

import "errors"

// Session lifecycle errors.
var (
	// ErrSessionStarted rejects configuration changes after Start.
	ErrSessionStarted = errors.New("session already started")

	// ErrSessionNotStarted rejects EndSession before Start.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrUnknownArchetype rejects Start with an unrecognized archetype.
	ErrUnknownArchetype = errors.New("unknown exercise archetype")

	// ErrInvalidProfile rejects calibration profiles flagged invalid or
	// missing a segment length.
	ErrInvalidProfile = errors.New("invalid calibration profile")
)
