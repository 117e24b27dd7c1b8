package models

import "errors"

var (
	// ErrInvalidState is returned when a pick cannot be evaluated in its current
	// state (graded) or does not belong to the supplied snapshot.
	ErrInvalidState = errors.New("invalid pick state")

	// ErrMalformedSnapshot is returned when a snapshot is missing identity fields
	// or is older than the pick's last evaluation.
	ErrMalformedSnapshot = errors.New("malformed market snapshot")

	// ErrUnknownSignalType is returned by the classifier for types outside the contract table
	ErrUnknownSignalType = errors.New("unknown signal type")
)
