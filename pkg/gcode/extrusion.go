package gcode

import "math"

// Rebase rewrites absolute E values after deposits were changed, moves were
// inserted or moves were reordered. Every absolute E becomes the previous E
// plus the move's deposit, so each move keeps feeding exactly its own amount.
// G92 E re-bases the running value.
//
// Relative-E moves are already written by [Instruction.SetDeposit] and are
// left alone. Instructions whose E value does not change stay untouched.
func Rebase(instructions []*Instruction, f Format) {
	var lastE float64
	for _, ins := range instructions {
		if ins.Word == "G92" {
			if e, ok := ins.E(); ok {
				lastE = e
			}
			continue
		}
		if !ins.Moves() || ins.RelativeE {
			continue
		}
		e, has := ins.E()
		if !has && math.Abs(ins.Deposit) < epsilon {
			continue
		}
		next := lastE + ins.Deposit
		if has && math.Abs(next-e) <= epsilon {
			lastE = e
			continue
		}
		ins.Set('E', next, f)
		lastE = next
	}
}

// TotalDeposit sums the deposits of the given instructions.
func TotalDeposit(instructions []*Instruction) float64 {
	var sum float64
	for _, ins := range instructions {
		if ins.Moves() {
			sum += ins.Deposit
		}
	}
	return sum
}
