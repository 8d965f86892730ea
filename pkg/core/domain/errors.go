package domain

import "errors"

var (
	// ErrInvalidReference is returned when an operation names an item id
	// that does not belong to the stated owner.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrStorageUnavailable is returned when the persistence layer could
	// not complete a read or write. Callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")

	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)
