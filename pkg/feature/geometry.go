package feature

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/gcode"
)

const (
	// LoopTolerance is how close (mm) a run must end to its start to count
	// as a closed loop.
	LoopTolerance = 0.3
	// minLoopMoves is the fewest segments that can close a loop.
	minLoopMoves = 3
	// antiparallel is the cosine below which two infill lines count as
	// running in opposite directions.
	antiparallel = -0.9
)

// run is a maximal sequence of consecutive extruding moves.
type run struct {
	moves  []int
	closed bool
	box    box
}

type box struct {
	min, max mgl64.Vec2
}

func (b box) area() float64 {
	d := b.max.Sub(b.min)
	return d.X() * d.Y()
}

func (b box) contains(o box) bool {
	return b.min.X() <= o.min.X() && b.min.Y() <= o.min.Y() &&
		o.max.X() <= b.max.X() && o.max.Y() <= b.max.Y()
}

// classifyGeometry tags the extrusion runs of an unmarked layer in place.
// Closed loops nested in another loop are inner walls, the others outer
// walls. Open zig-zag runs are infill; other open runs default to inner
// wall, never to infill.
func classifyGeometry(layer int, body []*gcode.Instruction, tags []Tag) []errors.Warning {
	runs := findRuns(body, tags)

	var loops []*run
	for _, r := range runs {
		if r.closed {
			loops = append(loops, r)
		}
	}

	var (
		warnings  []errors.Warning
		ambiguous int
		firstLine int
	)
	for _, r := range runs {
		tag := InnerWall
		switch {
		case r.closed:
			tag = OuterWall
			for _, o := range loops {
				if o != r && o.box.area() > r.box.area() && o.box.contains(r.box) {
					tag = InnerWall
					break
				}
			}
		case zigzag(body, r.moves):
			tag = Infill
		default:
			if ambiguous == 0 {
				firstLine = body[r.moves[0]].Line
			}
			ambiguous++
		}
		for _, i := range r.moves {
			tags[i] = tag
		}
	}
	if ambiguous > 0 {
		warnings = append(warnings, errors.NewWarning(errors.WarnAmbiguousFeature, layer, firstLine,
			"%d open extrusion runs classified as inner wall", ambiguous))
	}
	return warnings
}

// findRuns groups extrusions that are still untagged (Travel) into runs.
// Any other motion ends a run; pass-through lines do not.
func findRuns(body []*gcode.Instruction, tags []Tag) []*run {
	var (
		runs []*run
		cur  *run
	)
	flush := func() {
		if cur == nil {
			return
		}
		first := body[cur.moves[0]]
		last := body[cur.moves[len(cur.moves)-1]]
		cur.closed = len(cur.moves) >= minLoopMoves &&
			last.To.PlanarDistance(first.From) <= LoopTolerance
		runs = append(runs, cur)
		cur = nil
	}

	for i, ins := range body {
		if !ins.IsMotion() {
			continue
		}
		if !ins.Extruding() || ins.RelativeXYZ || tags[i] != Travel {
			flush()
			continue
		}
		if cur == nil {
			p := ins.From.XY()
			cur = &run{box: box{min: p, max: p}}
		}
		cur.moves = append(cur.moves, i)
		p := ins.To.XY()
		cur.box.min = mgl64.Vec2{math.Min(cur.box.min.X(), p.X()), math.Min(cur.box.min.Y(), p.Y())}
		cur.box.max = mgl64.Vec2{math.Max(cur.box.max.X(), p.X()), math.Max(cur.box.max.Y(), p.Y())}
	}
	flush()
	return runs
}

// zigzag reports whether the long segments of a run alternate direction,
// the pattern rectilinear and grid infill leave.
func zigzag(body []*gcode.Instruction, moves []int) bool {
	var longest float64
	for _, i := range moves {
		longest = math.Max(longest, body[i].PlanarLength())
	}
	var dirs []mgl64.Vec2
	for _, i := range moves {
		ins := body[i]
		if ins.PlanarLength() >= longest/2 {
			dirs = append(dirs, ins.To.XY().Sub(ins.From.XY()).Normalize())
		}
	}
	if len(dirs) < 2 {
		return false
	}
	for i := 1; i < len(dirs); i++ {
		if dirs[i-1].Dot(dirs[i]) > antiparallel {
			return false
		}
	}
	return true
}
