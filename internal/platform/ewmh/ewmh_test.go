package ewmh

import (
	"context"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/mj1618/wm-win-tool/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatID(t *testing.T) {
	assert.Equal(t, "0x01200003", FormatID(xproto.Window(0x01200003)))
	assert.Equal(t, "0x00000000", FormatID(0))
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want xproto.Window
	}{
		{"0x01200003", 0x01200003},
		{"0x1", 1},
		{"18874371", 18874371},
		{" 0xff ", 0xff},
	}
	for _, tt := range tests {
		got, err := ParseID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseID_Invalid(t *testing.T) {
	for _, in := range []string{"", "window", "0x1ffffffff", "-1"} {
		_, err := ParseID(in)
		assert.Error(t, err, in)
	}
}

func TestParseID_RoundTrip(t *testing.T) {
	win := xproto.Window(0x03a00004)
	got, err := ParseID(FormatID(win))
	require.NoError(t, err)
	assert.Equal(t, win, got)
}

func TestSetGeometry_PlacesFrame(t *testing.T) {
	b := New(nil, nil)
	require.NotNil(t, b.moveResize, "frame aware resize is the default")

	var gotWin xproto.Window
	var gotGeom model.Geometry
	b.moveResize = func(win xproto.Window, g model.Geometry) error {
		gotWin, gotGeom = win, g
		return nil
	}

	frame := model.Geometry{X: 0, Y: 0, Width: 1024, Height: 768}
	require.NoError(t, b.SetGeometry(context.Background(), "0x01200003", frame))
	assert.Equal(t, xproto.Window(0x01200003), gotWin)
	assert.Equal(t, frame, gotGeom, "the stored frame size is passed on unchanged")
}

func TestSetGeometry_InvalidID(t *testing.T) {
	b := New(nil, nil)
	called := false
	b.moveResize = func(xproto.Window, model.Geometry) error {
		called = true
		return nil
	}
	assert.Error(t, b.SetGeometry(context.Background(), "window", model.Geometry{}))
	assert.False(t, called)
}
