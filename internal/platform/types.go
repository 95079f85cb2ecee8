package platform

import (
	"fmt"

	"github.com/mj1618/wm-win-tool/internal/model"
)

// EnumerationError is returned when the window list cannot be obtained or
// parsed. It is fatal for the current invocation.
type EnumerationError struct {
	Tool string
	Err  error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("list windows (%s): %v", e.Tool, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// ApplyError is returned when one attribute of one window could not be
// changed. Restore reports it and carries on with the remaining work.
type ApplyError struct {
	WindowID  string
	MatchKey  string
	Attribute model.Attribute
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("set %s of window %s <%s>: %v", e.Attribute, e.WindowID, e.MatchKey, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }
