package store

import "errors"

var (
	// ErrNotFound indicates a Shoot, Frame, or Snapshot id did not resolve.
	// Callers treat this as a normal negative result.
	ErrNotFound = errors.New("not found")

	// ErrCorrupt indicates a Shoot document exists on disk but does not
	// parse or validate. Surfaced distinctly from ErrNotFound so callers
	// never mistake corruption for absence.
	ErrCorrupt = errors.New("corrupt document")

	// ErrInvalidPayload indicates a snapshot write was rejected for
	// structurally invalid binary input before any disk write.
	ErrInvalidPayload = errors.New("invalid payload")
)
