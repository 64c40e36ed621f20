package layer

import (
	"github.com/matzehuels/bricklayers/pkg/gcode"
)

const zEpsilon = 1e-6

// Segment splits the program body into layers.
//
// When the dialect writes layer-change markers each marker starts a layer,
// and the nominal height comes from the dialect's Z comment (or the first
// Z move of the layer). Otherwise a layer starts at the first Z-raising move
// after the previous layer extruded, provided the next extrusion really
// happens higher; Z hops and repeated same-height moves stay in the layer.
func Segment(p *gcode.Program) []*Layer {
	var groups [][]*gcode.Instruction
	if p.Dialect.HasMarkers() && len(p.Body) > 0 && p.Dialect.IsLayerChange(p.Body[0]) {
		groups = splitMarkers(p.Body, p.Dialect)
	} else {
		groups = splitHeights(p.Body)
	}

	layers := make([]*Layer, 0, len(groups))
	prevZ := 0.0
	for i, g := range groups {
		l := &Layer{Index: i, Kind: Body, Entries: make([]*Entry, len(g))}
		for j, ins := range g {
			l.Entries[j] = &Entry{Instruction: ins}
		}
		l.NominalZ = nominalZ(g, p.Dialect, prevZ)
		prevZ = l.NominalZ
		layers = append(layers, l)
	}
	if n := len(layers); n > 0 {
		layers[n-1].Kind = Last
		layers[0].Kind = First
	}
	return layers
}

func splitMarkers(body []*gcode.Instruction, d gcode.Dialect) [][]*gcode.Instruction {
	var groups [][]*gcode.Instruction
	start := 0
	for i := 1; i < len(body); i++ {
		if d.IsLayerChange(body[i]) {
			groups = append(groups, body[start:i])
			start = i
		}
	}
	return append(groups, body[start:])
}

func splitHeights(body []*gcode.Instruction) [][]*gcode.Instruction {
	if len(body) == 0 {
		return nil
	}

	// next[i] is the index of the first extrusion at or after i.
	next := make([]int, len(body)+1)
	next[len(body)] = -1
	for i := len(body) - 1; i >= 0; i-- {
		next[i] = next[i+1]
		if body[i].Extruding() {
			next[i] = i
		}
	}

	var groups [][]*gcode.Instruction
	start := 0
	extruded := false
	var z float64
	for i, ins := range body {
		if ins.Extruding() && !extruded {
			extruded = true
			z = ins.To.Z
			continue
		}
		if !extruded || !ins.IsMotion() || !ins.Has('Z') || ins.To.Z <= z+zEpsilon {
			continue
		}
		j := next[i]
		if j < 0 || body[j].To.Z <= z+zEpsilon {
			continue
		}
		groups = append(groups, body[start:i])
		start = i
		extruded = false
	}
	return append(groups, body[start:])
}

// nominalZ finds a layer's print height: the dialect's Z comment, else the
// height of its first extrusion, else the first Z move, else the height of
// the layer below.
func nominalZ(g []*gcode.Instruction, d gcode.Dialect, prev float64) float64 {
	for _, ins := range g {
		if z, ok := d.LayerZ(ins); ok {
			return z
		}
	}
	for _, ins := range g {
		if ins.Extruding() {
			return ins.To.Z
		}
	}
	for _, ins := range g {
		if ins.IsMotion() && ins.Has('Z') {
			return ins.To.Z
		}
	}
	return prev
}
