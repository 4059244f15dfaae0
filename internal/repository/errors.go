package repository

import "errors"

var (
	// ErrNotFound is returned by mutations that address a missing row.
	// Lookups report a miss as a nil result instead.
	ErrNotFound = errors.New("not found")

	// ErrConstraint is wrapped by every constraint violation
	ErrConstraint = errors.New("constraint violation")

	ErrForeignKey = &constraintError{kind: "foreign key"}
	ErrNotNull    = &constraintError{kind: "not null"}
	ErrUnique     = &constraintError{kind: "unique"}

	// ErrCycle is returned when a parent assignment would make a node its
	// own ancestor
	ErrCycle = errors.New("parent assignment creates a cycle")
)

type constraintError struct {
	kind string
}

func (e *constraintError) Error() string {
	return e.kind + " constraint failed"
}

func (e *constraintError) Unwrap() error {
	return ErrConstraint
}
