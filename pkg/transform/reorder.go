package transform

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/gcode"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

// Reorder changes the order of whole wall loops within body layers
// according to [Config.OrderFor].
//
// A loop is a run of consecutive wall extrusions of one tag. Loops separated
// only by travel, retraction and comment lines form a section; loops never
// move across another feature or an object boundary. Each loop carries the
// lines in front of it (its prelude) along. XY travel moves in a prelude are
// dropped and a single travel to the loop's start is regenerated, because
// the old coordinates target the wrong loop once the order changes.
func Reorder(layers []*layer.Layer, s *State) {
	for _, l := range layers {
		order := s.Config.OrderFor(l)
		if order == OrderKeep || hasRelativeMoves(l) {
			continue
		}
		moved, inserted := reorderLayer(l, order, s.Format)
		if moved == 0 {
			continue
		}
		gcode.Retrace(l.Instructions(), l.Entries[0].From)
		s.Stats.ReorderedLayers++
		s.Stats.ReorderedLoops += moved
		s.Stats.InsertedMoves += inserted
	}
}

type loop struct {
	tag         feature.Tag
	first, last int // entry indices of the first and last extrusion
}

// unit is a loop with its prelude.
type unit struct {
	loop
	start int // index of the first prelude entry
	pos   int // position in the section before sorting
}

func reorderLayer(l *layer.Layer, order Order, f gcode.Format) (moved, inserted int) {
	loops := findLoops(l)
	entries := l.Entries
	var out []*layer.Entry
	done := 0 // entries[:done] are already in out

	for _, sec := range sections(entries, loops) {
		if len(sec) < 2 {
			continue
		}
		units := make([]unit, len(sec))
		for k, lp := range sec {
			start := lp.first
			if k == 0 {
				for start > 1 && leads(entries[start-1]) {
					start--
				}
			} else {
				start = sec[k-1].last + 1
			}
			units[k] = unit{loop: lp, start: start, pos: k}
		}
		if !preludesMovable(entries, units) {
			continue
		}

		sorted := slices.Clone(units)
		slices.SortStableFunc(sorted, func(a, b unit) int {
			return cmp.Compare(rank(a.tag, order), rank(b.tag, order))
		})
		changed := 0
		for k := range sorted {
			if sorted[k].pos != k {
				changed++
			}
		}
		if changed == 0 {
			continue
		}
		end := sec[len(sec)-1].last + 1
		if sorted[len(sorted)-1].pos != len(sorted)-1 && continuesFrom(entries, end) {
			// The next extrusion starts where the last loop used to end.
			continue
		}

		out = append(out, entries[done:units[0].start]...)
		pos := entries[units[0].start].From
		for _, u := range sorted {
			var n int
			out, n = appendUnit(out, entries, u, pos, f)
			inserted += n
			pos = entries[u.last].To
		}
		done = end
		moved += changed
	}
	if moved == 0 {
		return 0, 0
	}
	l.Entries = append(out, entries[done:]...)
	return moved, inserted
}

// appendUnit appends u's prelude and loop to out. pos is where the nozzle is
// before the prelude. XY travels are replaced by one travel to the loop start.
func appendUnit(out []*layer.Entry, entries []*layer.Entry, u unit, pos gcode.Point, f gcode.Format) ([]*layer.Entry, int) {
	start := entries[u.first]
	target := start.From

	var (
		prelude []*layer.Entry
		dropped *layer.Entry
		at      = -1
	)
	for _, e := range entries[u.start:u.first] {
		if xyTravel(e) {
			dropped = e
			at = len(prelude)
			continue
		}
		prelude = append(prelude, e)
	}

	inserted := 0
	if pos.PlanarDistance(target) > 1e-6 {
		word := "G1"
		var feed float64
		if dropped != nil {
			word = dropped.Word
			feed, _ = dropped.F()
		} else {
			at = len(prelude)
		}
		travel := gcode.NewMove(word, pos, target, feed, f)
		travel.InObject = start.InObject
		travel.RelativeE = start.RelativeE
		prelude = slices.Insert(prelude, at, &layer.Entry{Instruction: travel, Tag: feature.Travel})
		inserted = 1
	}

	out = append(out, prelude...)
	return append(out, entries[u.first:u.last+1]...), inserted
}

// findLoops returns the wall loops of a layer in order.
func findLoops(l *layer.Layer) []loop {
	var loops []loop
	open := false
	for i, e := range l.Entries {
		if !e.IsMotion() {
			continue
		}
		if e.Tag.IsWall() && e.Extruding() {
			if open && loops[len(loops)-1].tag == e.Tag {
				loops[len(loops)-1].last = i
				continue
			}
			loops = append(loops, loop{tag: e.Tag, first: i, last: i})
			open = true
			continue
		}
		open = false
	}
	return loops
}

// sections splits loops into groups with nothing but movable lines between
// neighbours.
func sections(entries []*layer.Entry, loops []loop) [][]loop {
	var out [][]loop
	var cur []loop
	for _, lp := range loops {
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			for _, e := range entries[prev.last+1 : lp.first] {
				if !movable(e) && !xyTravel(e) {
					out = append(out, cur)
					cur = nil
					break
				}
			}
		}
		cur = append(cur, lp)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func preludesMovable(entries []*layer.Entry, units []unit) bool {
	for _, u := range units {
		for _, e := range entries[u.start:u.first] {
			if !movable(e) && !xyTravel(e) {
				return false
			}
		}
	}
	return true
}

// movable reports whether a line may travel with the loop it precedes:
// comments, settings and moves that do not change XY.
func movable(e *layer.Entry) bool {
	if e.IsArc() {
		return false
	}
	if e.IsMotion() {
		return e.PlanarLength() <= 1e-9 && !e.Extruding()
	}
	if e.Word == "" {
		return true
	}
	return !isBarrier(e.Word)
}

// leads reports whether a line in front of the first loop of a section
// belongs to that loop. The layer's own Z move stays in place.
func leads(e *layer.Entry) bool {
	if e.IsMotion() && e.Has('Z') {
		return false
	}
	return movable(e) || xyTravel(e)
}

// xyTravel is a travel that only moves in XY.
func xyTravel(e *layer.Entry) bool {
	return e.Travel() && !e.Has('Z') && !e.Has('E')
}

// isBarrier reports commands loops must not be moved across: object
// sections, extruder position resets and tool changes.
func isBarrier(word string) bool {
	switch word {
	case "M624", "M625", "EXCLUDE_OBJECT_START", "EXCLUDE_OBJECT_END", "G92", "G28", "G90", "G91", "M82", "M83":
		return true
	}
	return strings.HasPrefix(word, "T")
}

func rank(tag feature.Tag, order Order) int {
	inner := tag == feature.InnerWall
	if order == OrderInnerFirst {
		inner = !inner
	}
	if inner {
		return 1
	}
	return 0
}

// continuesFrom reports whether the first XY move from entries[i] on is an
// extrusion, which would draw a line from the wrong place if the section
// ended elsewhere.
func continuesFrom(entries []*layer.Entry, i int) bool {
	for _, e := range entries[i:] {
		if e.IsArc() {
			return e.Deposit > 1e-9
		}
		if e.IsMotion() && e.PlanarLength() > 1e-9 {
			return e.Extruding()
		}
	}
	return false
}

func hasRelativeMoves(l *layer.Layer) bool {
	for _, e := range l.Entries {
		if e.IsMotion() && e.RelativeXYZ {
			return true
		}
	}
	return false
}
