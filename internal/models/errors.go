package models

import "errors"

// Error taxonomy shared by the stores, repository and services.
var (
	// ErrSlotTaken means another non-cancelled appointment already holds
	// the doctor+slot key. A business rejection, never swallowed.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrStoreUnavailable means a backing store could not be reached and
	// no fallback path existed for the operation.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is a lookup miss (doctor, patient or appointment id).
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is a malformed date, label or duration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidIdentifier is an id that resolves to no profile of the
	// required role.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrVersionMismatch is a stale schedule-settings update (the record
	// changed since the caller read it).
	ErrVersionMismatch = errors.New("settings version mismatch")
)
