package transform

import (
	"math"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

// BrickShift raises the walls of every odd body layer by half a layer
// height, so wall seams of neighbouring layers never line up.
//
// All wall extrusions of a shifted layer target nominal + h/2, except the
// final one, which targets the next layer's nominal - h/2. A wall extrusion
// that follows a non-wall extrusion, or opens the layer, climbs the
// half-layer gap and has its extrusion multiplied by the extrusion
// multiplier. With several objects on a layer each object's walls climb
// again after its infill.
func BrickShift(layers []*layer.Layer, s *State) {
	cfg := s.Config
	if !cfg.ShiftEnabled() {
		return
	}
	h := cfg.LayerHeight

	for i, l := range layers {
		if !cfg.Shifted(l) || i+1 >= len(layers) {
			continue
		}
		if pitch, ok := layer.Pitch(layers, i); ok && math.Abs(pitch-h) > cfg.LayerHeightTolerance*h {
			s.warn(errors.WarnLayerHeightMismatch, l.Index, 0,
				"layer pitch %.3fmm differs from configured layer height %.3fmm", pitch, h)
		}

		var walls, climbs []*layer.Entry
		onWall := false
		for _, e := range l.Entries {
			if !e.Extruding() {
				continue
			}
			if e.Tag.IsWall() {
				walls = append(walls, e)
				if !onWall {
					climbs = append(climbs, e)
				}
			}
			onWall = e.Tag.IsWall()
		}
		if len(walls) == 0 {
			s.warn(errors.WarnNoWalls, l.Index, 0, "no wall moves to shift")
			continue
		}

		shiftZ := l.NominalZ + h/2
		for _, e := range walls {
			retarget(e.Instruction, shiftZ)
		}
		retarget(walls[len(walls)-1].Instruction, layers[i+1].NominalZ-h/2)

		if cfg.ExtrusionMultiplier != 1 {
			for _, e := range climbs {
				e.ScaleDeposit(cfg.ExtrusionMultiplier, s.Format)
			}
			s.Stats.BoundaryMoves += len(climbs)
		}
		s.Stats.ShiftedLayers++
		s.Stats.ShiftedMoves += len(walls)
	}
}
