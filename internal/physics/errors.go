package physics

import (
	"errors"
	"fmt"
)

var (
	// ErrHandleOutOfRange is returned for negative handles or handles past the store end.
	ErrHandleOutOfRange = errors.New("physics: handle out of range")
	// ErrDeadHandle is returned when the slot exists but its body was removed.
	ErrDeadHandle = errors.New("physics: handle refers to a dead body")
	// ErrPlayerExists is returned when a second player body is created while one is alive.
	ErrPlayerExists = errors.New("physics: a player body is already alive")
	// ErrInvalidDescriptor is returned for unknown shapes or negative sizes/limits.
	ErrInvalidDescriptor = errors.New("physics: invalid body descriptor")
)

// HandleError reports a bad handle together with the operation that received it.
type HandleError struct {
	Op     string
	Handle Handle
	Err    error
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("%s %d: %v", e.Op, e.Handle, e.Err)
}

func (e *HandleError) Unwrap() error {
	return e.Err
}

// IsHandleError reports whether err was caused by an invalid or dead handle.
func IsHandleError(err error) bool {
	return errors.Is(err, ErrHandleOutOfRange) || errors.Is(err, ErrDeadHandle)
}

// handleError wraps err for op. Out of range handles never come from the store,
// so they also trip the debug assertion.
func handleError(op string, h Handle, err error) error {
	herr := &HandleError{Op: op, Handle: h, Err: err}
	if err == ErrHandleOutOfRange {
		assertHandle(herr)
	}
	return herr
}
