package model

import "strconv"

// Attribute names a window attribute that restore can change.
type Attribute string

const (
	AttrDesktop  Attribute = "desktop"
	AttrGeometry Attribute = "geometry"
	AttrShaded   Attribute = "shaded"
)

// Change is one attribute of a live window that differs from its stored record.
type Change struct {
	WindowID  string    `yaml:"id"        json:"id"`
	MatchKey  string    `yaml:"match_key" json:"match_key"`
	Attribute Attribute `yaml:"attribute" json:"attribute"`
	From      string    `yaml:"from"      json:"from"`
	To        string    `yaml:"to"        json:"to"`
}

// DiffLayout compares a live window with its stored record and returns the
// differing attributes in apply order: desktop, geometry, shaded.
func DiffLayout(cur, stored Window) []Change {
	var changes []Change
	add := func(attr Attribute, from, to string) {
		changes = append(changes, Change{
			WindowID:  cur.ID,
			MatchKey:  cur.MatchKey,
			Attribute: attr,
			From:      from,
			To:        to,
		})
	}

	if cur.Desktop != stored.Desktop {
		add(AttrDesktop, strconv.Itoa(cur.Desktop), strconv.Itoa(stored.Desktop))
	}
	if cur.Geometry != stored.Geometry {
		add(AttrGeometry, cur.Geometry.String(), stored.Geometry.String())
	}
	if cur.Shaded != stored.Shaded {
		add(AttrShaded, strconv.FormatBool(cur.Shaded), strconv.FormatBool(stored.Shaded))
	}
	return changes
}

// layoutKey is the part of a window that identifies a layout. Window ids
// are transient and titles are covered by the match key.
type layoutKey struct {
	Class    string
	MatchKey string
	Desktop  int
	Geometry Geometry
	Shaded   bool
}

func keyOf(w Window) layoutKey {
	return layoutKey{
		Class:    w.Class,
		MatchKey: w.MatchKey,
		Desktop:  w.Desktop,
		Geometry: w.Geometry,
		Shaded:   w.Shaded,
	}
}

// SameLayout reports whether a and b hold the same windows, ignoring order.
func SameLayout(a, b []Window) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[layoutKey]int, len(a))
	for _, w := range a {
		counts[keyOf(w)]++
	}
	for _, w := range b {
		k := keyOf(w)
		if counts[k] == 0 {
			return false
		}
		counts[k]--
	}
	return true
}

// Pair is a live window matched to a stored record.
type Pair struct {
	Live   Window
	Stored Window
}

// PairByMatchKey matches live windows to stored records with equal match
// keys. Within one match key the n-th stored record (in stored order) pairs
// with the n-th live window (in enumeration order); surplus records or
// windows on either side stay unpaired. Pairs follow the stored order.
func PairByMatchKey(live, stored []Window) []Pair {
	byKey := make(map[string][]Window)
	for _, w := range live {
		byKey[w.MatchKey] = append(byKey[w.MatchKey], w)
	}
	var pairs []Pair
	for _, s := range stored {
		queue := byKey[s.MatchKey]
		if len(queue) == 0 {
			continue
		}
		pairs = append(pairs, Pair{Live: queue[0], Stored: s})
		byKey[s.MatchKey] = queue[1:]
	}
	return pairs
}
