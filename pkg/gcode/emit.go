package gcode

import (
	"bufio"
	"bytes"
	"io"
)

// Emit writes instructions one per line. Untouched instructions are written
// byte-for-byte as read; changed and synthesized ones are re-formatted.
func Emit(w io.Writer, instructions []*Instruction, trailingNewline bool) error {
	bw := bufio.NewWriter(w)
	for i, ins := range instructions {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(ins.Text()); err != nil {
			return err
		}
	}
	if trailingNewline {
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Bytes renders the whole program.
func (p *Program) Bytes() []byte {
	var buf bytes.Buffer
	_ = Emit(&buf, p.All(), p.TrailingNewline)
	return buf.Bytes()
}
