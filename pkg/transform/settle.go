package transform

import (
	"math"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/gcode"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

const zEpsilon = 1e-6

// Settle writes the Z fields needed for every move to reach its target
// height. It walks the body carrying the height the machine is at:
//
//   - a move that has to go up gets an explicit Z;
//   - travels and moves that do not change XY never go down, so the nozzle
//     does not drag through a raised wall;
//   - an extrusion that starts lower than the nozzle after a travel gets a
//     separate Z move in front of it, which is how the nominal height is
//     restored after a shifted wall run;
//   - inside an extrusion run (displaced infill) Z is written on the move.
//
// Inserted Z moves run at [ZFeed]. The extrusion behind one gets the feed
// rate that was in effect before it, unless it carries its own. Arcs are
// never changed: they print at the height the machine is at.
//
// Targets only change in body layers. If a first or last layer still needs
// a Z to get back to its original height, the Z is written and reported as
// Z_DRIFT. Settle ends with a continuity check over the result.
func Settle(layers []*layer.Layer, s *State) {
	if len(layers) == 0 || len(layers[0].Entries) == 0 {
		return
	}
	cur := layers[0].Entries[0].From.Z
	var feed float64
	for _, l := range layers {
		out := make([]*layer.Entry, 0, len(l.Entries))
		extruding := false
		for _, e := range l.Entries {
			ins := e.Instruction
			if ins.Word == "G92" {
				if z, ok := ins.Z(); ok {
					cur = z
				}
			}
			if ins.IsArc() {
				cur = arcZ(ins, cur)
				extruding = ins.Deposit > zEpsilon
				feed = feedOf(ins, feed)
				out = append(out, e)
				continue
			}
			if !ins.IsMotion() {
				feed = feedOf(ins, feed)
				out = append(out, e)
				continue
			}
			ins.From.Z = cur
			want := ins.To.Z

			switch z, hasZ := ins.Z(); {
			case ins.RelativeXYZ:
				if hasZ {
					cur += z
				}
				ins.To.Z = cur
			case hasZ:
				if math.Abs(z-want) > zEpsilon {
					ins.SetZ(want, s.Format)
					s.Stats.ZWrites++
				}
				cur = want
			case math.Abs(cur-want) <= zEpsilon:
			case want < cur && !ins.Extruding():
				ins.To.Z = cur
			case want < cur && !extruding:
				if !l.Transformable() {
					s.warn(errors.WarnZDrift, l.Index, ins.Line, "lowered to Z %.3f left high by the layer below", want)
				}
				drop := gcode.NewZMove(ins.From, want, ZFeed, s.Format)
				drop.InObject = ins.InObject
				if !ins.Has('F') && feed > 0 {
					ins.Set('F', feed, s.Format)
				}
				out = append(out, &layer.Entry{Instruction: drop, Tag: feature.Travel})
				ins.From.Z = want
				cur = want
				s.Stats.InsertedMoves++
			default:
				if !l.Transformable() {
					s.warn(errors.WarnZDrift, l.Index, ins.Line, "restored Z %.3f left by the layer below", want)
				}
				ins.SetZ(want, s.Format)
				s.Stats.ZWrites++
				cur = want
			}
			extruding = ins.Extruding()
			feed = feedOf(ins, feed)
			out = append(out, e)
		}
		l.Entries = out
	}
	s.Warnings = append(s.Warnings, Continuity(layers)...)
}

// arcZ annotates an arc with the height it runs at and returns the height
// after it.
func arcZ(ins *gcode.Instruction, cur float64) float64 {
	ins.From.Z = cur
	if z, ok := ins.Z(); ok {
		if ins.RelativeXYZ {
			cur += z
		} else {
			cur = z
		}
	}
	ins.To.Z = cur
	return cur
}

// feedOf returns the feed rate in effect after ins.
func feedOf(ins *gcode.Instruction, feed float64) float64 {
	switch ins.Word {
	case "G0", "G1", "G2", "G3":
		if f, ok := ins.F(); ok {
			return f
		}
	}
	return feed
}

// Continuity replays the Z fields of the body and reports every move that
// would not end at its target, and every layer that does not start where
// the layer below ended.
func Continuity(layers []*layer.Layer) []errors.Warning {
	if len(layers) == 0 || len(layers[0].Entries) == 0 {
		return nil
	}
	var warnings []errors.Warning
	z := layers[0].Entries[0].From.Z
	exit := z
	for _, l := range layers {
		entered := false
		for _, e := range l.Entries {
			ins := e.Instruction
			if ins.Word == "G92" {
				if v, ok := ins.Z(); ok {
					z = v
					exit = v
				}
				continue
			}
			if !ins.Moves() {
				continue
			}
			if !entered {
				entered = true
				if math.Abs(ins.From.Z-exit) > zEpsilon {
					warnings = append(warnings, errors.NewWarning(errors.WarnZDrift, l.Index, ins.Line,
						"layer starts at Z %.3f but the layer below ended at Z %.3f", ins.From.Z, exit))
				}
			}
			if v, ok := ins.Z(); ok {
				if ins.RelativeXYZ {
					z += v
				} else {
					z = v
				}
			}
			if math.Abs(z-ins.To.Z) > zEpsilon {
				warnings = append(warnings, errors.NewWarning(errors.WarnZDrift, l.Index, ins.Line,
					"move ends at Z %.3f instead of %.3f", z, ins.To.Z))
				z = ins.To.Z
			}
			exit = z
		}
	}
	return warnings
}
