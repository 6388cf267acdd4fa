package endpoint

import "errors"

var (
	// ErrWrongRole marks an operation invoked on a context whose role
	// forbids it. This is a contract violation, not a runtime condition to
	// recover from.
	ErrWrongRole = errors.New("endpoint: operation not permitted for role")

	// ErrNilArgument marks a nil message or transport.
	ErrNilArgument = errors.New("endpoint: nil argument")

	// ErrTableFull is returned when registering a new opcode would exceed
	// the handler capacity chosen at construction.
	ErrTableFull = errors.New("endpoint: handler table full")
)
