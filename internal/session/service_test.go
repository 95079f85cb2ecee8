package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/mj1618/wm-win-tool/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeSource struct {
	windows []model.Window
	err     error
	calls   int
}

func (f *fakeSource) ListWindows(context.Context) ([]model.Window, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Window(nil), f.windows...), nil
}

// fakeSink records applied attributes as "id attribute value" and fails
// those listed in fail.
type fakeSink struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeSink) record(id string, attr model.Attribute, value string) error {
	f.calls = append(f.calls, fmt.Sprintf("%s %s %s", id, attr, value))
	if f.fail[id+" "+string(attr)] {
		return errors.New("rejected")
	}
	return nil
}

func (f *fakeSink) MoveToDesktop(_ context.Context, id string, desktop int) error {
	return f.record(id, model.AttrDesktop, fmt.Sprint(desktop))
}

func (f *fakeSink) SetGeometry(_ context.Context, id string, g model.Geometry) error {
	return f.record(id, model.AttrGeometry, g.String())
}

func (f *fakeSink) SetShaded(_ context.Context, id string, shaded bool) error {
	return f.record(id, model.AttrShaded, fmt.Sprint(shaded))
}

type fixture struct {
	svc    *Service
	source *fakeSource
	sink   *fakeSink
	store  *Store
	clock  *testClock
}

func newFixture(t *testing.T, windows ...model.Window) *fixture {
	t.Helper()
	store, clock := newTestStore(t)
	f := &fixture{
		source: &fakeSource{windows: windows},
		sink:   &fakeSink{},
		store:  store,
		clock:  clock,
	}
	f.svc = NewService(f.source, f.sink, store, zaptest.NewLogger(t))
	return f
}

func liveWindow(id, class, title string, desktop int, g model.Geometry, shaded bool) model.Window {
	return model.Window{ID: id, Class: class, Title: title, Desktop: desktop, Geometry: g, Shaded: shaded}
}

var fullHD = model.Geometry{X: 0, Y: 0, Width: 1024, Height: 768}

func TestStore_BracketScenario(t *testing.T) {
	f := newFixture(t,
		liveWindow("0x1", "Navigator", "[mail] Inbox - Mozilla Thunderbird", 1, fullHD, false),
		liveWindow("0x2", "Navigator", "Untitled", 0, fullHD, false),
		liveWindow("0x3", "xterm", "[mail] shell", 0, fullHD, false),
	)
	sel := model.Selection{Classes: []string{"Navigator"}, Bracket: true}

	res, err := f.svc.Store(context.Background(), sel, false)
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.Equal(t, 1, res.Windows)

	sess, err := f.store.Resolve("-1")
	require.NoError(t, err)
	require.Len(t, sess.Windows, 1)
	assert.Equal(t, "mail", sess.Windows[0].MatchKey)
	assert.Equal(t, 1, sess.Windows[0].Desktop)
	assert.Equal(t, fullHD, sess.Windows[0].Geometry)
	assert.False(t, sess.Windows[0].Shaded)
}

func TestStore_UnchangedIsNotStoredTwice(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "Navigator", "[mail] Inbox", 1, fullHD, false))
	sel := model.Selection{Bracket: true}
	ctx := context.Background()

	first, err := f.svc.Store(ctx, sel, false)
	require.NoError(t, err)
	require.True(t, first.Stored)

	f.clock.t = f.clock.t.Add(time.Minute)
	// A new window id for the same layout is still the same layout.
	f.source.windows[0].ID = "0x9"
	second, err := f.svc.Store(ctx, sel, false)
	require.NoError(t, err)
	assert.False(t, second.Stored)
	assert.Equal(t, first.Timestamp, second.Timestamp)

	metas, err := f.store.List(0)
	require.NoError(t, err)
	assert.Len(t, metas, 1)
}

func TestStore_ForceAlwaysAppends(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "Navigator", "[mail] Inbox", 1, fullHD, false))
	sel := model.Selection{Bracket: true}
	ctx := context.Background()

	_, err := f.svc.Store(ctx, sel, true)
	require.NoError(t, err)
	res, err := f.svc.Store(ctx, sel, true)
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.True(t, res.Forced)

	metas, err := f.store.List(0)
	require.NoError(t, err)
	assert.Len(t, metas, 2)
}

func TestStore_ChangedLayoutIsStored(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "Navigator", "[mail] Inbox", 1, fullHD, false))
	ctx := context.Background()
	sel := model.Selection{Bracket: true}

	_, err := f.svc.Store(ctx, sel, false)
	require.NoError(t, err)
	f.clock.t = f.clock.t.Add(time.Minute)
	f.source.windows[0].Shaded = true
	res, err := f.svc.Store(ctx, sel, false)
	require.NoError(t, err)
	assert.True(t, res.Stored)
	assert.False(t, res.Forced)
}

func TestStore_NoMatch(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "xterm", "shell", 0, fullHD, false))
	_, err := f.svc.Store(context.Background(), model.Selection{Classes: []string{"Navigator"}}, false)
	assert.ErrorIs(t, err, ErrNoMatch)

	metas, err := f.store.List(0)
	require.NoError(t, err)
	assert.Empty(t, metas)
}

func TestStore_EnumerationFailure(t *testing.T) {
	f := newFixture(t)
	f.source.err = &platform.EnumerationError{Tool: "wmctrl", Err: errors.New("Cannot open display")}

	_, err := f.svc.Store(context.Background(), model.Selection{}, false)
	var enumErr *platform.EnumerationError
	assert.ErrorAs(t, err, &enumErr)
}

func TestStore_InvalidPattern(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Store(context.Background(), model.Selection{Titles: []string{"["}, Regexp: true}, false)
	var perr *model.PatternError
	require.ErrorAs(t, err, &perr)
	assert.Zero(t, f.source.calls, "patterns are checked before listing windows")
}

func TestRestore_BracketScenario(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "Navigator", "[mail] Inbox - Mozilla Thunderbird", 1, fullHD, false))
	sel := model.Selection{Classes: []string{"Navigator"}, Bracket: true}
	ctx := context.Background()

	_, err := f.svc.Store(ctx, sel, false)
	require.NoError(t, err)

	f.source.windows = []model.Window{
		liveWindow("0x7", "Navigator", "[mail] Compose", 3, model.Geometry{X: 40, Y: 40, Width: 600, Height: 400}, false),
	}
	res, err := f.svc.Restore(ctx, sel, "", false)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{
		"0x7 desktop 1",
		"0x7 geometry 0,0,1024,768",
	}, f.sink.calls, "shaded state already matches and is left alone")
	require.Len(t, res.Changes, 2)
	assert.Equal(t, model.AttrDesktop, res.Changes[0].Attribute)
	assert.Equal(t, "3", res.Changes[0].From)
}

func TestRestore_AppliesExactlyStoredAttributes(t *testing.T) {
	stored := liveWindow("0x1", "Mail", "Inbox", 2, model.Geometry{X: 10, Y: 20, Width: 800, Height: 600}, false)
	f := newFixture(t, stored)
	ctx := context.Background()

	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)

	f.source.windows = []model.Window{
		liveWindow("0x5", "Mail", "Inbox", 0, model.Geometry{X: 0, Y: 0, Width: 100, Height: 100}, true),
	}
	res, err := f.svc.Restore(ctx, model.Selection{}, "-1", false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"0x5 desktop 2",
		"0x5 geometry 10,20,800,600",
		"0x5 shaded false",
	}, f.sink.calls)
	assert.Len(t, res.Changes, 3)
}

func TestRestore_NotFoundTouchesNothing(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "Mail", "Inbox", 0, fullHD, false))
	ctx := context.Background()
	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)
	listed := f.source.calls

	_, err = f.svc.Restore(ctx, model.Selection{}, "1999-01-01_00-00-00", false)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.sink.calls)
	assert.Equal(t, listed, f.source.calls, "windows are not listed for a missing session")

	_, err = f.svc.Restore(ctx, model.Selection{}, "-5", false)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.sink.calls)
}

func TestRestore_PartialFailureContinues(t *testing.T) {
	f := newFixture(t,
		liveWindow("0x1", "A", "one", 1, fullHD, true),
		liveWindow("0x2", "B", "two", 2, fullHD, false),
	)
	ctx := context.Background()
	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)

	moved := model.Geometry{X: 1, Y: 1, Width: 10, Height: 10}
	f.source.windows = []model.Window{
		liveWindow("0x3", "A", "one", 0, moved, false),
		liveWindow("0x4", "B", "two", 0, moved, false),
	}
	f.sink.fail = map[string]bool{"0x3 geometry": true}

	res, err := f.svc.Restore(ctx, model.Selection{}, "", false)
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	require.Len(t, merr.Errors, 1)
	var aerr *platform.ApplyError
	require.ErrorAs(t, merr.Errors[0], &aerr)
	assert.Equal(t, "0x3", aerr.WindowID)
	assert.Equal(t, model.AttrGeometry, aerr.Attribute)

	assert.False(t, res.OK)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, res.Updated)
	assert.Len(t, res.Failures, 1)
	assert.Equal(t, []string{
		"0x3 desktop 1",
		"0x3 geometry 0,0,1024,768",
		"0x3 shaded true",
		"0x4 desktop 2",
		"0x4 geometry 0,0,1024,768",
	}, f.sink.calls)
}

func TestRestore_UnmatchedWindowsUntouched(t *testing.T) {
	f := newFixture(t,
		liveWindow("0x1", "A", "kept", 1, fullHD, false),
		liveWindow("0x2", "A", "closed later", 1, fullHD, false),
	)
	ctx := context.Background()
	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)

	f.source.windows = []model.Window{
		liveWindow("0x5", "A", "kept", 0, fullHD, false),
		liveWindow("0x6", "A", "brand new", 0, fullHD, false),
	}
	res, err := f.svc.Restore(ctx, model.Selection{}, "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
	assert.Equal(t, 1, res.Missing)
	assert.Equal(t, []string{"0x5 desktop 1"}, f.sink.calls)
}

func TestRestore_DryRun(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "A", "one", 1, fullHD, false))
	ctx := context.Background()
	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)

	f.source.windows[0].Desktop = 4
	res, err := f.svc.Restore(ctx, model.Selection{}, "", true)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Len(t, res.Changes, 1)
	assert.Equal(t, 1, res.Updated)
	assert.Empty(t, f.sink.calls)
}

func TestRestore_AlreadyInPlace(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "A", "one", 1, fullHD, false))
	ctx := context.Background()
	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)

	res, err := f.svc.Restore(ctx, model.Selection{}, "", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)
	assert.Zero(t, res.Updated)
	assert.Empty(t, f.sink.calls)
}

func TestCurrentWindows(t *testing.T) {
	f := newFixture(t,
		liveWindow("0x1", "A", "[a] one", 0, fullHD, false),
		liveWindow("0x2", "A", "[b] two", 0, fullHD, false),
		liveWindow("0x3", "A", "three", 0, fullHD, false),
	)
	ctx := context.Background()

	windows, err := f.svc.CurrentWindows(ctx, model.Selection{Bracket: true}, 0)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, "a", windows[0].MatchKey)

	windows, err = f.svc.CurrentWindows(ctx, model.Selection{Bracket: true}, 1)
	require.NoError(t, err)
	assert.Len(t, windows, 1)

	_, err = f.svc.CurrentWindows(ctx, model.Selection{Classes: []string{"B"}}, 0)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestList_TwoSessions(t *testing.T) {
	f := newFixture(t, liveWindow("0x1", "A", "one", 0, fullHD, false))
	ctx := context.Background()
	_, err := f.svc.Store(ctx, model.Selection{}, false)
	require.NoError(t, err)
	f.clock.t = f.clock.t.Add(100 * time.Second)
	_, err = f.svc.Store(ctx, model.Selection{}, true)
	require.NoError(t, err)

	metas, err := f.svc.List(1)
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "2026-10-19_09-31-40", metas[0].Timestamp)
}
