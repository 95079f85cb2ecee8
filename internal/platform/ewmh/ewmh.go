// Package ewmh implements the window source and sink by talking to the X
// server directly through the EWMH and ICCCM window properties.
package ewmh

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/mj1618/wm-win-tool/internal/platform"
	"go.uber.org/zap"
)

// Name is the backend name used for registration.
const Name = "ewmh"

const (
	stateShaded = "_NET_WM_STATE_SHADED"
	// allDesktops is the _NET_WM_DESKTOP value of sticky windows.
	allDesktops = 0xFFFFFFFF
)

func init() {
	platform.Register(Name, func(opts platform.Options) (*platform.Provider, error) {
		xu, err := xgbutil.NewConn()
		if err != nil {
			return nil, &platform.EnumerationError{Tool: "X11 connection", Err: err}
		}
		b := New(xu, opts.Logger)
		return &platform.Provider{
			Source: b,
			Sink:   b,
			Closer: func() error {
				xu.Conn().Close()
				return nil
			},
		}, nil
	})
}

// Backend reads and writes window properties over an X connection.
type Backend struct {
	xu  *xgbutil.XUtil
	log *zap.Logger
	// moveResize places a window frame, decorations included.
	moveResize func(win xproto.Window, g model.Geometry) error
}

// New wraps an open X connection.
func New(xu *xgbutil.XUtil, log *zap.Logger) *Backend {
	if log == nil {
		log = zap.NewNop()
	}
	b := &Backend{xu: xu, log: log}
	b.moveResize = b.moveResizeFrame
	return b
}

// moveResizeFrame sizes the frame to g. ListWindows reports decorated
// geometry, so the decorations are subtracted before the client is resized.
func (b *Backend) moveResizeFrame(win xproto.Window, g model.Geometry) error {
	return xwindow.New(b.xu, win).WMMoveResize(g.X, g.Y, g.Width, g.Height)
}

func (b *Backend) ListWindows(ctx context.Context) ([]model.Window, error) {
	clients, err := ewmh.ClientListGet(b.xu)
	if err != nil {
		return nil, &platform.EnumerationError{Tool: "_NET_CLIENT_LIST", Err: err}
	}
	windows := make([]model.Window, 0, len(clients))
	for _, win := range clients {
		if err := ctx.Err(); err != nil {
			return nil, &platform.EnumerationError{Tool: Name, Err: err}
		}
		w, err := b.window(win)
		if err != nil {
			return nil, &platform.EnumerationError{Tool: Name, Err: err}
		}
		windows = append(windows, w)
	}
	b.log.Debug("windows listed", zap.Int("count", len(windows)))
	return windows, nil
}

// window collects the same fields "wmctrl -lGpx" prints. Missing optional
// properties (pid, name, state) leave zero values.
func (b *Backend) window(win xproto.Window) (model.Window, error) {
	w := model.Window{ID: FormatID(win), Desktop: model.StickyDesktop}

	desktop, err := ewmh.WmDesktopGet(b.xu, win)
	if err == nil && desktop != allDesktops {
		w.Desktop = int(desktop)
	}

	geom, err := xwindow.New(b.xu, win).DecorGeometry()
	if err != nil {
		return model.Window{}, fmt.Errorf("geometry of %s: %w", w.ID, err)
	}
	w.Geometry = model.Geometry{X: geom.X(), Y: geom.Y(), Width: geom.Width(), Height: geom.Height()}

	if class, err := icccm.WmClassGet(b.xu, win); err == nil {
		w.Class = class.Instance + "." + class.Class
	}

	w.Title, err = ewmh.WmNameGet(b.xu, win)
	if err != nil || w.Title == "" {
		w.Title, _ = icccm.WmNameGet(b.xu, win)
	}

	if pid, err := ewmh.WmPidGet(b.xu, win); err == nil {
		w.PID = int(pid)
	}
	if host, err := icccm.WmClientMachineGet(b.xu, win); err == nil {
		w.Host = host
	}

	if states, err := ewmh.WmStateGet(b.xu, win); err == nil {
		for _, s := range states {
			if s == stateShaded {
				w.Shaded = true
				break
			}
		}
	}
	return w, nil
}

func (b *Backend) MoveToDesktop(_ context.Context, id string, desktop int) error {
	win, err := ParseID(id)
	if err != nil {
		return err
	}
	d := uint(desktop)
	if desktop == model.StickyDesktop {
		d = allDesktops
	}
	return ewmh.WmDesktopReq(b.xu, win, d)
}

func (b *Backend) SetGeometry(_ context.Context, id string, g model.Geometry) error {
	win, err := ParseID(id)
	if err != nil {
		return err
	}
	b.log.Debug("move resize", zap.String("id", id), zap.Stringer("geometry", g))
	return b.moveResize(win, g)
}

func (b *Backend) SetShaded(_ context.Context, id string, shaded bool) error {
	win, err := ParseID(id)
	if err != nil {
		return err
	}
	action := ewmh.StateRemove
	if shaded {
		action = ewmh.StateAdd
	}
	return ewmh.WmStateReq(b.xu, win, action, stateShaded)
}

// FormatID renders a window id the way wmctrl does.
func FormatID(win xproto.Window) string {
	return fmt.Sprintf("0x%08x", uint32(win))
}

// ParseID parses a hexadecimal ("0x...") or decimal window id.
func ParseID(id string) (xproto.Window, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(id), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", id, err)
	}
	return xproto.Window(v), nil
}
