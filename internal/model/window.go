package model

import "fmt"

// Geometry is a window frame in pixels.
type Geometry struct {
	X      int `yaml:"x"      json:"x"`
	Y      int `yaml:"y"      json:"y"`
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// String formats the geometry as "x,y,w,h".
func (g Geometry) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", g.X, g.Y, g.Width, g.Height)
}

// Window represents a top-level X11 window, either live or restored from a
// stored session. ID, PID and Host are only meaningful for live windows.
type Window struct {
	ID       string   `yaml:"id,omitempty"   json:"id,omitempty"`
	PID      int      `yaml:"pid,omitempty"  json:"pid,omitempty"`
	Host     string   `yaml:"host,omitempty" json:"host,omitempty"`
	Class    string   `yaml:"class"          json:"class"`
	Title    string   `yaml:"title"          json:"title"`
	MatchKey string   `yaml:"match_key"      json:"match_key"`
	Desktop  int      `yaml:"desktop"        json:"desktop"`
	Geometry Geometry `yaml:"geometry"       json:"geometry"`
	Shaded   bool     `yaml:"shaded"         json:"shaded"`
}

// StickyDesktop is the desktop index reported for windows shown on all desktops.
const StickyDesktop = -1
