package storage

import "errors"

// Storage errors. The three claim outcomes are distinct, user-facing results:
// the remedy is the same (create a fresh intent) but the diagnosis differs.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a record whose key exists.
	// Intent ids are never reused.
	ErrDuplicateKey = errors.New("duplicate key: intent ids are write-once")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntentExpired is returned by TryClaim when the TTL has passed.
	// Expiry is fixed at creation and never extended.
	ErrIntentExpired = errors.New("intent expired")

	// ErrIntentAlreadyExecuted is returned by TryClaim when the executed
	// flag was already set. Each intent executes at most once.
	ErrIntentAlreadyExecuted = errors.New("intent already executed")
)
