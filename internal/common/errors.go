// Package common defines shared constants and sentinel errors used across
// client and server layers of tourcheck. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Lookup errors.
	ErrNotFound = errors.New("not found")

	// Validation errors; detailed messages wrap ErrValidation.
	ErrValidation  = errors.New("validation error")
	ErrInvalidCode = errors.New("invalid tour code")

	// Engine lifecycle errors.
	ErrNoActiveTour = errors.New("no active tour")

	// Import errors.
	ErrNothingExtracted = errors.New("no passengers could be extracted")
)
