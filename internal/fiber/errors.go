package fiber

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers match with
// errors.Is; wrapping sites add context with fmt.Errorf and %w.
var (
	// ErrSessionState reports a path operation invoked in the wrong
	// session state, e.g. AddMove before StartPath.
	ErrSessionState = errors.New("path session in wrong state")

	// ErrPathNotFound reports a lookup against a path with no matching node.
	ErrPathNotFound = errors.New("path not found")

	// ErrSerialization reports a move value or persisted record that
	// cannot be encoded or decoded.
	ErrSerialization = errors.New("serialization failed")

	// ErrBackendIO reports a failure of the underlying storage medium.
	ErrBackendIO = errors.New("backend i/o failure")

	// ErrNotFound reports a backend lookup for an id with no stored record.
	ErrNotFound = errors.New("fiber not found")
)
