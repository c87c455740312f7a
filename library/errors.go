package library

import "errors"

// Every error returned by the registries, the loan tracker and the
// reservation queue wraps exactly one of these kinds. Use errors.Is to
// tell them apart.
var (
	// ErrValidation reports malformed or semantically invalid input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound reports a reference to an id that no registry holds.
	ErrNotFound = errors.New("not found")

	// ErrState reports an operation the entity's current state does not permit.
	ErrState = errors.New("invalid state")
)
