package gcode

// Trace walks the instructions in order, annotating every move with its
// start and end position, its deposit and the modes it runs in.
//
// Positioning starts absolute (G90) with absolute extrusion (M82), the
// firmware defaults. G91/G90 switch positioning, M83/M82 switch extrusion
// and G92 re-bases the logical position. Trace reports whether the program
// marks object sections.
func Trace(instructions []*Instruction) bool {
	var (
		pos       Point
		absXYZ    = true
		absE      = true
		lastE     float64
		inObject  bool
		hasObject bool
	)
	for _, ins := range instructions {
		switch ins.Word {
		case "G90":
			absXYZ = true
		case "G91":
			absXYZ = false
		case "M82":
			absE = true
		case "M83":
			absE = false
		case "G92":
			if v, ok := ins.X(); ok {
				pos.X = v
			}
			if v, ok := ins.Y(); ok {
				pos.Y = v
			}
			if v, ok := ins.Z(); ok {
				pos.Z = v
			}
			if v, ok := ins.E(); ok {
				lastE = v
			}
		case "M624", "EXCLUDE_OBJECT_START":
			inObject = true
			hasObject = true
		case "M625", "EXCLUDE_OBJECT_END":
			inObject = false
		}

		ins.InObject = inObject
		ins.RelativeXYZ = !absXYZ
		ins.RelativeE = !absE
		ins.From = pos
		if !ins.Moves() {
			ins.To = pos
			continue
		}

		pos.X = axis(pos.X, ins, 'X', absXYZ)
		pos.Y = axis(pos.Y, ins, 'Y', absXYZ)
		pos.Z = axis(pos.Z, ins, 'Z', absXYZ)
		ins.To = pos

		ins.Deposit = 0
		if e, ok := ins.E(); ok {
			if absE {
				ins.Deposit = e - lastE
				lastE = e
			} else {
				ins.Deposit = e
			}
		}
		ins.origDeposit = ins.Deposit
	}
	return hasObject
}

func axis(cur float64, ins *Instruction, letter byte, absolute bool) float64 {
	v, ok := ins.Get(letter)
	if !ok {
		return cur
	}
	if absolute {
		return v
	}
	return cur + v
}

// Retrace recomputes From/To after instructions were reordered or inserted,
// starting at from. Modes and deposits recorded by [Trace] are kept.
func Retrace(instructions []*Instruction, from Point) {
	pos := from
	for _, ins := range instructions {
		if ins.Word == "G92" {
			pos.X = axis(pos.X, ins, 'X', true)
			pos.Y = axis(pos.Y, ins, 'Y', true)
			pos.Z = axis(pos.Z, ins, 'Z', true)
		}
		ins.From = pos
		if !ins.Moves() {
			ins.To = pos
			continue
		}
		pos.X = axis(pos.X, ins, 'X', !ins.RelativeXYZ)
		pos.Y = axis(pos.Y, ins, 'Y', !ins.RelativeXYZ)
		pos.Z = axis(pos.Z, ins, 'Z', !ins.RelativeXYZ)
		ins.To = pos
	}
}
