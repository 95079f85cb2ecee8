// Package wmctrl implements the window source and sink on top of the
// wmctrl and xprop command line tools.
package wmctrl

import (
	"context"
	"errors"
	"os/exec"
	"strconv"

	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/mj1618/wm-win-tool/internal/platform"
	"go.uber.org/zap"
)

// Name is the backend name used for registration.
const Name = "wmctrl"

func init() {
	platform.Register(Name, func(opts platform.Options) (*platform.Provider, error) {
		b := New(opts)
		return &platform.Provider{Source: b, Sink: b}, nil
	})
}

// Backend shells out to wmctrl for listing and changing windows and to
// xprop for the shaded state, which wmctrl does not report.
type Backend struct {
	wmctrl string
	xprop  string
	run    Runner
	log    *zap.Logger
}

// New returns a Backend running the tools named in opts.
func New(opts platform.Options) *Backend {
	return NewWithRunner(opts, execRunner)
}

// NewWithRunner is New with a custom command runner.
func NewWithRunner(opts platform.Options, run Runner) *Backend {
	b := &Backend{
		wmctrl: opts.Wmctrl,
		xprop:  opts.Xprop,
		run:    run,
		log:    opts.Logger,
	}
	if b.wmctrl == "" {
		b.wmctrl = "wmctrl"
	}
	if b.xprop == "" {
		b.xprop = "xprop"
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	return b
}

func (b *Backend) ListWindows(ctx context.Context) ([]model.Window, error) {
	b.log.Debug("run", zap.String("cmd", b.wmctrl), zap.Strings("args", []string{"-lGpx"}))
	out, err := b.run(ctx, b.wmctrl, "-lGpx")
	if err != nil {
		return nil, &platform.EnumerationError{Tool: b.wmctrl, Err: err}
	}
	windows, err := parseWindowList(out)
	if err != nil {
		return nil, &platform.EnumerationError{Tool: b.wmctrl, Err: err}
	}
	for i := range windows {
		shaded, err := b.shaded(ctx, windows[i].ID)
		if err != nil {
			return nil, &platform.EnumerationError{Tool: b.xprop, Err: err}
		}
		windows[i].Shaded = shaded
	}
	b.log.Debug("windows listed", zap.Int("count", len(windows)))
	return windows, nil
}

// shaded treats a failing xprop run as unshaded, since the window may have
// been closed since it was listed. An xprop that cannot be started at all
// is an error.
func (b *Backend) shaded(ctx context.Context, id string) (bool, error) {
	out, err := b.run(ctx, b.xprop, "-id", id, "_NET_WM_STATE")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return false, err
		}
		b.log.Debug("xprop failed", zap.String("id", id), zap.Error(err))
		return false, nil
	}
	return parseShaded(out), nil
}

func (b *Backend) MoveToDesktop(ctx context.Context, id string, desktop int) error {
	return b.control(ctx, id, "-t", strconv.Itoa(desktop))
}

// SetGeometry keeps the window's gravity (the leading 0).
func (b *Backend) SetGeometry(ctx context.Context, id string, g model.Geometry) error {
	return b.control(ctx, id, "-e", "0,"+g.String())
}

func (b *Backend) SetShaded(ctx context.Context, id string, shaded bool) error {
	action := "remove,shaded"
	if shaded {
		action = "add,shaded"
	}
	return b.control(ctx, id, "-b", action)
}

func (b *Backend) control(ctx context.Context, id string, args ...string) error {
	args = append([]string{"-ir", id}, args...)
	b.log.Debug("run", zap.String("cmd", b.wmctrl), zap.Strings("args", args))
	_, err := b.run(ctx, b.wmctrl, args...)
	return err
}
