// Package transform rewrites classified layers.
//
// Three transformers work on the same [layer.Layer] representation and can
// be enabled independently:
//
//   - [Reorder] changes the order of whole wall loops in a layer.
//   - [BrickShift] raises the walls of every odd body layer by half a layer.
//   - [NonPlanar] displaces infill along a sine of the path position.
//
// Transformers only decide where each move should end (its target Z) and how
// much it should extrude. [Settle] then walks the whole body and writes the
// Z fields needed to reach those targets, restoring the nominal height after
// every shifted or displaced run. First and last layers are never changed.
//
// [Apply] runs the passes in a fixed order: reorder, brick-shift,
// non-planar, settle.
package transform

import (
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/gcode"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

// Stats counts what the transformers changed.
type Stats struct {
	ShiftedLayers   int `json:"shifted_layers" yaml:"shifted_layers"`
	ShiftedMoves    int `json:"shifted_moves" yaml:"shifted_moves"`
	BoundaryMoves   int `json:"boundary_moves" yaml:"boundary_moves"`
	DisplacedMoves  int `json:"displaced_moves" yaml:"displaced_moves"`
	SplitMoves      int `json:"split_moves" yaml:"split_moves"`
	ReorderedLayers int `json:"reordered_layers" yaml:"reordered_layers"`
	ReorderedLoops  int `json:"reordered_loops" yaml:"reordered_loops"`
	ZWrites         int `json:"z_writes" yaml:"z_writes"`
	InsertedMoves   int `json:"inserted_moves" yaml:"inserted_moves"`
}

// State is shared by the passes of one run.
type State struct {
	Config   Config
	Format   gcode.Format
	Stats    Stats
	Warnings []errors.Warning
}

// NewState creates the state for one run.
func NewState(cfg Config, f gcode.Format) *State {
	return &State{Config: cfg, Format: f}
}

func (s *State) warn(code errors.Code, layer, line int, format string, args ...any) {
	s.Warnings = append(s.Warnings, errors.NewWarning(code, layer, line, format, args...))
}

// Pass is one transformation step over all layers.
type Pass struct {
	Name string
	Run  func(layers []*layer.Layer, s *State)
}

// Passes returns the passes in the order they must run.
func Passes() []Pass {
	return []Pass{
		{Name: "reorder", Run: Reorder},
		{Name: "brick-shift", Run: BrickShift},
		{Name: "non-planar", Run: NonPlanar},
		{Name: "settle", Run: Settle},
	}
}

// Apply runs every pass over layers.
func Apply(layers []*layer.Layer, cfg Config, f gcode.Format) *State {
	s := NewState(cfg, f)
	for _, p := range Passes() {
		p.Run(layers, s)
	}
	return s
}

// retarget sets the Z a move should end at. The Z field itself is written
// by Settle.
func retarget(ins *gcode.Instruction, z float64) {
	ins.To.Z = z
}
