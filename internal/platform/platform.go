package platform

import (
	"context"

	"github.com/mj1618/wm-win-tool/internal/model"
)

// WindowSource enumerates the live top-level windows.
type WindowSource interface {
	// ListWindows returns every managed window in stacking-independent
	// enumeration order. It fails with *EnumerationError and never returns
	// a partial list.
	ListWindows(ctx context.Context) ([]model.Window, error)
}

// WindowSink changes the layout of a live window.
type WindowSink interface {
	MoveToDesktop(ctx context.Context, id string, desktop int) error
	SetGeometry(ctx context.Context, id string, g model.Geometry) error
	SetShaded(ctx context.Context, id string, shaded bool) error
}
