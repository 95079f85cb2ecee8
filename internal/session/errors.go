package session

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("no such session")

// ErrCorrupt is wrapped by Load when a session file cannot be decoded.
var ErrCorrupt = errors.New("corrupt session file")

// ErrNoMatch is returned when the selection matches no live window.
var ErrNoMatch = errors.New("no match for selected windows")

// NotFoundError is returned when a session reference resolves to nothing.
type NotFoundError struct {
	Ref string
	// Stored is the number of sessions that were available, -1 if unknown.
	Stored int
}

func (e *NotFoundError) Error() string {
	if e.Stored == 0 {
		return fmt.Sprintf("no such session: %s (no stored sessions yet, try store)", e.Ref)
	}
	return fmt.Sprintf("no such session: %s", e.Ref)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
