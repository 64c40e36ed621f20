// Package feature tags motion instructions with the printed feature they
// belong to.
//
// Slicers that annotate their output (Bambu/Orca "; FEATURE:", Prusa
// ";TYPE:") are classified from those comments, which are authoritative.
// Unannotated files fall back to geometry: closed loops are walls, the
// outermost loop of a nest being the outer wall, and open zig-zag runs are
// infill. Every fallback is conservative. An extrusion the classifier cannot
// place is never tagged infill, so it is never displaced.
package feature

import "strings"

// Tag is the functional role of a move.
type Tag int

const (
	// Travel moves are never transformed. Ambiguous extrusions are tagged
	// Travel as well.
	Travel Tag = iota
	OuterWall
	InnerWall
	Infill
	// Other is a recognised extrusion the engine leaves alone: skirt,
	// support, solid surfaces, bridges, gap fill, prime tower.
	Other
)

var tagNames = [...]string{
	Travel:    "travel",
	OuterWall: "outer-wall",
	InnerWall: "inner-wall",
	Infill:    "infill",
	Other:     "other",
}

// String returns the tag name.
func (t Tag) String() string {
	if t < 0 || int(t) >= len(tagNames) {
		return "unknown"
	}
	return tagNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// IsWall reports whether t is an outer or inner wall.
func (t Tag) IsWall() bool {
	return t == OuterWall || t == InnerWall
}

// Tags lists every tag in display order.
func Tags() []Tag {
	return []Tag{OuterWall, InnerWall, Infill, Other, Travel}
}

// names maps slicer feature names (lower case) to tags. Names that are not
// listed are recognised features the engine does not transform.
var names = map[string]Tag{
	"outer wall":         OuterWall,
	"external perimeter": OuterWall,
	"inner wall":         InnerWall,
	"perimeter":          InnerWall,
	"sparse infill":      Infill,
	"internal infill":    Infill,
}

// FromName maps a slicer feature name to a tag.
func FromName(name string) Tag {
	if t, ok := names[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t
	}
	return Other
}
