package gcode

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Command classifies an instruction for the transformers.
type Command int

const (
	// CommandPassThrough is anything that does not move the machine:
	// comments, blank lines, M-codes, dialect macros and feed-only G1 lines.
	CommandPassThrough Command = iota
	// CommandLinear is G1.
	CommandLinear
	// CommandRapid is G0.
	CommandRapid
	// CommandArc is G2/G3. Arcs are traced to their end point and keep
	// their deposit, but the transformers never change them.
	CommandArc
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandLinear:
		return "linear"
	case CommandRapid:
		return "rapid"
	case CommandArc:
		return "arc"
	default:
		return "pass-through"
	}
}

// epsilon is the tolerance used for position and deposit comparisons (mm).
const epsilon = 1e-9

// Point is a machine position in millimetres.
type Point struct {
	X, Y, Z float64
}

// XY returns the planar projection of p.
func (p Point) XY() mgl64.Vec2 {
	return mgl64.Vec2{p.X, p.Y}
}

// PlanarDistance returns the XY distance between p and q.
func (p Point) PlanarDistance(q Point) float64 {
	return q.XY().Sub(p.XY()).Len()
}

// Param is one letter-value word of a command, kept in source order.
type Param struct {
	Letter   byte
	Value    float64
	Decimals int
	Raw      string // word as written, e.g. "E.0345"
}

// Instruction is one line of the motion program.
//
// Fields are present-or-absent: an axis that is not written on the line is
// not in Params and its accessor reports false. Trace annotations (From, To,
// Deposit, ...) are computed by [Trace] and describe the machine state the
// line runs in.
type Instruction struct {
	Line    int    // 1-based source line, 0 for synthesized instructions
	Raw     string // source text without line terminator
	Word    string // upper-cased command word ("G1", "M83", "EXCLUDE_OBJECT_START")
	Command Command
	Params  []Param
	Inline  string // parenthesised comments found between words
	Comment string // trailing comment starting at ';'
	CR      bool   // line was terminated by "\r\n"

	From        Point
	To          Point
	Deposit     float64 // filament fed by this move (E delta)
	RelativeE   bool
	RelativeXYZ bool
	InObject    bool

	origDeposit float64
	dirty       bool
}

// IsMotion reports whether the instruction is a G0/G1 move with at least one
// coordinate or extrusion field.
func (ins *Instruction) IsMotion() bool {
	return ins.Command == CommandLinear || ins.Command == CommandRapid
}

// IsArc reports whether the instruction is a G2/G3 arc.
func (ins *Instruction) IsArc() bool {
	return ins.Command == CommandArc
}

// Moves reports whether the instruction changes the machine position or
// feeds filament: linear moves and arcs.
func (ins *Instruction) Moves() bool {
	return ins.Command != CommandPassThrough
}

// IsComment reports whether the line holds only a comment.
func (ins *Instruction) IsComment() bool {
	return ins.Word == "" && ins.Comment != ""
}

// Synthesized reports whether the instruction was created by a transformer.
func (ins *Instruction) Synthesized() bool {
	return ins.Line == 0
}

// Dirty reports whether the instruction must be re-formatted on output.
func (ins *Instruction) Dirty() bool {
	return ins.dirty
}

// Get returns the value of the given letter, if present.
func (ins *Instruction) Get(letter byte) (float64, bool) {
	for _, p := range ins.Params {
		if p.Letter == letter {
			return p.Value, true
		}
	}
	return 0, false
}

// Has reports whether the letter is present on the line.
func (ins *Instruction) Has(letter byte) bool {
	_, ok := ins.Get(letter)
	return ok
}

// X returns the X field.
func (ins *Instruction) X() (float64, bool) { return ins.Get('X') }

// Y returns the Y field.
func (ins *Instruction) Y() (float64, bool) { return ins.Get('Y') }

// Z returns the Z field.
func (ins *Instruction) Z() (float64, bool) { return ins.Get('Z') }

// E returns the extrusion field.
func (ins *Instruction) E() (float64, bool) { return ins.Get('E') }

// F returns the feed-rate field.
func (ins *Instruction) F() (float64, bool) { return ins.Get('F') }

// PlanarLength is the XY distance covered by the move.
func (ins *Instruction) PlanarLength() float64 {
	return ins.From.PlanarDistance(ins.To)
}

// Extruding reports whether the move deposits material along a path.
// Retractions, primes and wipes are not extrusions.
func (ins *Instruction) Extruding() bool {
	return ins.IsMotion() && ins.Deposit > epsilon && ins.PlanarLength() > epsilon
}

// Travel reports whether the move changes the XY position without extruding.
func (ins *Instruction) Travel() bool {
	return ins.IsMotion() && !ins.Extruding() && ins.PlanarLength() > epsilon
}

// Set writes a field, formatting it with f. The instruction is only marked
// dirty when the formatted text differs from what is already on the line.
func (ins *Instruction) Set(letter byte, v float64, f Format) {
	text := f.Number(letter, v)
	for i := range ins.Params {
		p := &ins.Params[i]
		if p.Letter != letter {
			continue
		}
		if sameNumber(p.Value, text) {
			return
		}
		p.Value = v
		p.Decimals = f.Decimals(letter)
		p.Raw = string(letter) + text
		ins.dirty = true
		return
	}

	np := Param{Letter: letter, Value: v, Decimals: f.Decimals(letter), Raw: string(letter) + text}
	at := len(ins.Params)
	for i, p := range ins.Params {
		if paramRank(p.Letter) > paramRank(letter) {
			at = i
			break
		}
	}
	ins.Params = append(ins.Params, Param{})
	copy(ins.Params[at+1:], ins.Params[at:])
	ins.Params[at] = np
	ins.dirty = true
}

// SetZ writes the Z field and updates the traced end position.
func (ins *Instruction) SetZ(z float64, f Format) {
	ins.Set('Z', z, f)
	ins.To.Z = z
}

// SetDeposit changes the amount of filament fed by the move. In relative
// extrusion mode the E field is rewritten immediately; in absolute mode the
// E values are recomputed by [Rebase].
func (ins *Instruction) SetDeposit(d float64, f Format) {
	if math.Abs(d-ins.Deposit) < epsilon {
		return
	}
	ins.Deposit = d
	if ins.RelativeE {
		ins.Set('E', d, f)
	}
}

// ScaleDeposit multiplies the deposit by m.
func (ins *Instruction) ScaleDeposit(m float64, f Format) {
	if m == 1 {
		return
	}
	ins.SetDeposit(ins.Deposit*m, f)
}

// OriginalDeposit is the deposit as parsed, before any transformation.
func (ins *Instruction) OriginalDeposit() float64 {
	return ins.origDeposit
}

// Text renders the instruction without a line terminator.
func (ins *Instruction) Text() string {
	var s string
	if !ins.dirty {
		s = ins.Raw
	} else {
		s = ins.rebuild()
	}
	if ins.CR {
		s += "\r"
	}
	return s
}

func (ins *Instruction) rebuild() string {
	var b strings.Builder
	b.WriteString(ins.Word)
	for _, p := range ins.Params {
		b.WriteByte(' ')
		b.WriteString(p.Raw)
	}
	if ins.Inline != "" {
		b.WriteByte(' ')
		b.WriteString(ins.Inline)
	}
	if ins.Comment != "" {
		b.WriteByte(' ')
		b.WriteString(ins.Comment)
	}
	return b.String()
}

// NewMove creates a synthesized G0/G1 move between from and to.
// XY are always written; feed is written when feed > 0.
func NewMove(word string, from, to Point, feed float64, f Format) *Instruction {
	cmd := CommandLinear
	if word == "G0" {
		cmd = CommandRapid
	}
	ins := &Instruction{
		Word:    word,
		Command: cmd,
		CR:      f.CRLF,
		From:    from,
		To:      to,
		dirty:   true,
	}
	ins.Set('X', to.X, f)
	ins.Set('Y', to.Y, f)
	if feed > 0 {
		ins.Set('F', feed, f)
	}
	return ins
}

// NewZMove creates a synthesized G1 that only changes the height at the
// current XY position. feed is written when feed > 0.
func NewZMove(at Point, z, feed float64, f Format) *Instruction {
	ins := &Instruction{
		Word:    "G1",
		Command: CommandLinear,
		CR:      f.CRLF,
		From:    at,
		To:      Point{X: at.X, Y: at.Y, Z: z},
		dirty:   true,
	}
	ins.Set('Z', z, f)
	if feed > 0 {
		ins.Set('F', feed, f)
	}
	return ins
}

// Split cuts a linear move into n pieces of equal planar length. The last
// piece is ins itself (keeping its line number and comment); the others are
// synthesized. The deposit is divided evenly so the total is unchanged.
func (ins *Instruction) Split(n int, f Format) []*Instruction {
	if n <= 1 || !ins.IsMotion() {
		return []*Instruction{ins}
	}
	word := ins.Word
	if word != "G0" {
		word = "G1"
	}
	feed, _ := ins.F()

	pieces := make([]*Instruction, 0, n)
	share := ins.Deposit / float64(n)
	prev := ins.From
	for k := 1; k < n; k++ {
		t := float64(k) / float64(n)
		to := Point{
			X: ins.From.X + (ins.To.X-ins.From.X)*t,
			Y: ins.From.Y + (ins.To.Y-ins.From.Y)*t,
			Z: ins.From.Z + (ins.To.Z-ins.From.Z)*t,
		}
		piece := NewMove(word, prev, to, 0, f)
		if k == 1 && feed > 0 {
			piece.Set('F', feed, f)
		}
		piece.RelativeE = ins.RelativeE
		piece.InObject = ins.InObject
		piece.Deposit = share
		if ins.RelativeE {
			piece.Set('E', share, f)
		}
		pieces = append(pieces, piece)
		prev = to
	}

	ins.From = prev
	ins.SetDeposit(share, f)
	return append(pieces, ins)
}

// paramRank orders letters when a field is inserted into a line.
func paramRank(letter byte) int {
	switch letter {
	case 'X':
		return 0
	case 'Y':
		return 1
	case 'Z':
		return 2
	case 'E':
		return 3
	case 'F':
		return 4
	default:
		return 5
	}
}

// sameNumber reports whether text reads back as v, so that re-writing a field
// with an equal value leaves the source line alone.
func sameNumber(v float64, text string) bool {
	w, err := strconv.ParseFloat(text, 64)
	return err == nil && math.Abs(w-v) < epsilon
}
