package core

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage matches every *StorageError.
	ErrStorage = errors.New("storage error")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation error")
	// ErrNotInitialized is returned when the ledger is used before Init on a
	// repository built without auto-initialization.
	ErrNotInitialized = errors.New("ledger not initialized")

	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidType      = errors.New("type must be income or expense")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyTitle       = errors.New("empty title")
	ErrInvalidTarget    = errors.New("target amount must be positive")
	ErrNegativeCurrent  = errors.New("current amount cannot be negative")
	ErrInvalidPeriod    = errors.New("month must be between 1 and 12")
)

// StorageError reports a failed read or write of a stored collection.
type StorageError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ValidationError reports malformed input to a create operation.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
