package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is matched by a QueryError caused by a unique or
	// primary key violation.
	ErrDuplicateKey = errors.New("duplicate key value")

	// ErrUnknownDriver is returned by Open for an unsupported driver name.
	ErrUnknownDriver = errors.New("unknown database driver")
)

// QueryError represents a failed statement.
type QueryError struct {
	Query     string
	Err       error
	duplicate bool
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v\nQuery: %s", e.Err, e.Query)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports duplicate-key failures as ErrDuplicateKey.
func (e *QueryError) Is(target error) bool {
	return target == ErrDuplicateKey && e.duplicate
}
