// Package layer groups a G-code body into layers.
//
// A [Layer] is the unit every transformer works on: it owns an ordered run
// of instructions sharing one nominal print height, each paired with its
// feature tag. Instructions never move between layers.
package layer

import (
	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/gcode"
)

// Kind marks where a layer sits in the print.
type Kind int

const (
	// First is the layer on the build plate. It is never transformed.
	First Kind = iota
	// Body layers may be transformed.
	Body
	// Last is the top layer. It is never transformed.
	Last
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case First:
		return "first"
	case Last:
		return "last"
	default:
		return "body"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Entry is an instruction with its feature tag.
type Entry struct {
	*gcode.Instruction
	Tag feature.Tag
}

// Layer is an ordered run of instructions printed at one nominal height.
type Layer struct {
	Index    int
	NominalZ float64 // the slicer's print height for this layer
	Kind     Kind
	Entries  []*Entry
}

// Transformable reports whether transformers may change the layer.
func (l *Layer) Transformable() bool {
	return l.Kind == Body
}

// Instructions returns the layer's instructions in order.
func (l *Layer) Instructions() []*gcode.Instruction {
	out := make([]*gcode.Instruction, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Instruction
	}
	return out
}

// Count returns the number of extruding moves per tag.
func (l *Layer) Count() map[feature.Tag]int {
	counts := make(map[feature.Tag]int)
	for _, e := range l.Entries {
		if e.Extruding() {
			counts[e.Tag]++
		}
	}
	return counts
}

// Deposit returns the filament fed by moves with the given tags, or by all
// moves when no tag is given.
func (l *Layer) Deposit(tags ...feature.Tag) float64 {
	var sum float64
	for _, e := range l.Entries {
		if !e.Moves() {
			continue
		}
		if len(tags) == 0 || hasTag(tags, e.Tag) {
			sum += e.Deposit
		}
	}
	return sum
}

func hasTag(tags []feature.Tag, t feature.Tag) bool {
	for _, x := range tags {
		if x == t {
			return true
		}
	}
	return false
}

// Classify tags every layer in order with c.
func Classify(layers []*Layer, c *feature.Classifier) {
	for _, l := range layers {
		tags := c.Classify(l.Index, l.Instructions())
		for i, e := range l.Entries {
			e.Tag = tags[i]
		}
	}
}

// Flatten returns the instructions of all layers in order.
func Flatten(layers []*Layer) []*gcode.Instruction {
	var n int
	for _, l := range layers {
		n += len(l.Entries)
	}
	out := make([]*gcode.Instruction, 0, n)
	for _, l := range layers {
		for _, e := range l.Entries {
			out = append(out, e.Instruction)
		}
	}
	return out
}

// Pitch returns the nominal height difference between layer i and the layer
// below it.
func Pitch(layers []*Layer, i int) (float64, bool) {
	if i <= 0 || i >= len(layers) {
		return 0, false
	}
	return layers[i].NominalZ - layers[i-1].NominalZ, true
}
