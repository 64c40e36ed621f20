package gcode

import (
	"strconv"
	"strings"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

// Program is a parsed G-code file split into its immutable header, the
// transformable body and the immutable footer.
type Program struct {
	Dialect Dialect
	// Detected is false when no dialect comment was found and the generic
	// dialect was assumed.
	Detected bool
	Format   Format

	Header []*Instruction
	Body   []*Instruction
	Footer []*Instruction

	// TrailingNewline is set when the input's last line was terminated.
	TrailingNewline bool
	// Objects is set when the file marks object sections (M624/M625 or
	// EXCLUDE_OBJECT_START/END).
	Objects bool
}

// Lines returns the number of source lines.
func (p *Program) Lines() int {
	return len(p.Header) + len(p.Body) + len(p.Footer)
}

// All returns header, body and footer as one slice.
func (p *Program) All() []*Instruction {
	all := make([]*Instruction, 0, p.Lines())
	all = append(all, p.Header...)
	all = append(all, p.Body...)
	return append(all, p.Footer...)
}

// Parse reads a G-code file, detecting its dialect.
func Parse(data []byte) (*Program, error) {
	d, ok := DetectDialect(data)
	p, err := ParseDialect(data, d)
	if err != nil {
		return nil, err
	}
	p.Detected = ok
	return p, nil
}

// ParseDialect reads a G-code file using the given dialect.
//
// Every line becomes exactly one instruction. Only G0/G1 lines are
// interpreted; a G0/G1 line whose numeric field cannot be read fails with
// [errors.MalformedLineError].
func ParseDialect(data []byte, d Dialect) (*Program, error) {
	text := string(data)
	p := &Program{Dialect: d, Detected: true}

	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
		if lines[len(lines)-1] == "" {
			p.TrailingNewline = true
			lines = lines[:len(lines)-1]
		}
	}

	learner := newFormatLearner()
	all := make([]*Instruction, 0, len(lines))
	for i, raw := range lines {
		ins, err := ParseLine(i+1, raw)
		if err != nil {
			return nil, err
		}
		learner.line(ins.CR)
		if ins.IsMotion() {
			for _, prm := range ins.Params {
				learner.observe(prm.Letter, prm.Raw[1:], prm.Decimals)
			}
		}
		all = append(all, ins)
	}
	p.Format = learner.format()

	p.Objects = Trace(all)
	start, end := bodyBounds(all, d)
	p.Header = all[:start]
	p.Body = all[start:end]
	p.Footer = all[end:]
	return p, nil
}

// bodyBounds returns the half-open range of the transformable body.
//
// The body starts at the first layer marker, or without markers at the last
// Z-setting move before the first extrusion. It ends after the last
// extruding move.
func bodyBounds(all []*Instruction, d Dialect) (int, int) {
	last := -1
	first := -1
	for i, ins := range all {
		if ins.Extruding() {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if last < 0 {
		return len(all), len(all)
	}

	start := -1
	if d.HasMarkers() {
		for i, ins := range all {
			if d.IsLayerChange(ins) {
				start = i
				break
			}
		}
	}
	if start < 0 {
		start = first
		for i := first; i >= 0; i-- {
			if all[i].IsMotion() && all[i].Has('Z') {
				start = i
				break
			}
		}
	}
	if start > last {
		return start, start
	}
	return start, last + 1
}

// ParseLine parses one source line. n is the 1-based line number.
func ParseLine(n int, raw string) (*Instruction, error) {
	ins := &Instruction{Line: n}
	if s, ok := strings.CutSuffix(raw, "\r"); ok {
		ins.CR = true
		raw = s
	}
	ins.Raw = raw

	code := raw
	if i := strings.IndexByte(raw, ';'); i >= 0 {
		code = raw[:i]
		ins.Comment = raw[i:]
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return ins, nil
	}

	word, rest := splitWord(code)
	ins.Word = strings.ToUpper(word)
	motion := isMotionWord(ins.Word)
	if ins.Word == "G0" || ins.Word == "G00" {
		ins.Word = "G0"
	} else if ins.Word == "G1" || ins.Word == "G01" {
		ins.Word = "G1"
	} else if ins.Word == "G02" || ins.Word == "G03" {
		ins.Word = "G" + ins.Word[2:]
	}
	if len(ins.Word) > 1 && !isLetterNumber(ins.Word) {
		// Macros take free-form arguments; keep them verbatim.
		return ins, nil
	}

	params, inline, field, err := parseParams(rest)
	if err != nil {
		if motion {
			return nil, &errors.MalformedLineError{Line: n, Text: raw, Field: field}
		}
		return ins, nil
	}
	ins.Params = params
	ins.Inline = inline
	if !motion {
		return ins, nil
	}

	if ins.Word == "G2" || ins.Word == "G3" {
		ins.Command = CommandArc
		return ins, nil
	}
	for _, p := range params {
		switch p.Letter {
		case 'X', 'Y', 'Z', 'E':
			if ins.Word == "G0" {
				ins.Command = CommandRapid
			} else {
				ins.Command = CommandLinear
			}
		}
	}
	return ins, nil
}

// splitWord separates the command word from its arguments. Letter-number
// words may be glued to their first argument ("G1X10").
func splitWord(code string) (string, string) {
	if len(code) > 1 && isLetter(code[0]) && isDigit(code[1]) {
		i := 1
		for i < len(code) && (isDigit(code[i]) || code[i] == '.') {
			i++
		}
		return code[:i], code[i:]
	}
	if i := strings.IndexAny(code, " \t"); i >= 0 {
		return code[:i], code[i+1:]
	}
	return code, ""
}

func isMotionWord(w string) bool {
	switch w {
	case "G0", "G00", "G1", "G01", "G2", "G02", "G3", "G03":
		return true
	}
	return false
}

// parseParams reads letter-number pairs. It returns the offending token when
// a number cannot be read.
func parseParams(s string) ([]Param, string, string, error) {
	var (
		params []Param
		inline []string
	)
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
			continue
		case c == '(':
			j := strings.IndexByte(s[i:], ')')
			if j < 0 {
				return nil, "", s[i:], errors.New(errors.ErrCodeMalformedLine, "unterminated comment")
			}
			inline = append(inline, s[i:i+j+1])
			i += j + 1
			continue
		case !isLetter(c):
			return nil, "", tokenAt(s, i), errors.New(errors.ErrCodeMalformedLine, "unexpected character %q", c)
		}

		letter := upper(c)
		j := i + 1
		for j < len(s) && (isDigit(s[j]) || s[j] == '.' || s[j] == '-' || s[j] == '+') {
			j++
		}
		number := s[i+1 : j]
		if j < len(s) && !isSpaceOrLetter(s[j]) && s[j] != '(' {
			return nil, "", tokenAt(s, i), errors.New(errors.ErrCodeMalformedLine, "bad number")
		}
		v, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return nil, "", tokenAt(s, i), err
		}
		decimals := 0
		if k := strings.IndexByte(number, '.'); k >= 0 {
			decimals = len(number) - k - 1
		}
		params = append(params, Param{
			Letter:   letter,
			Value:    v,
			Decimals: decimals,
			Raw:      string(letter) + number,
		})
		i = j
	}
	return params, strings.Join(inline, " "), "", nil
}

func tokenAt(s string, i int) string {
	j := i
	for j < len(s) && s[j] != ' ' && s[j] != '\t' {
		j++
	}
	return s[i:j]
}

func isLetterNumber(w string) bool {
	if !isLetter(w[0]) {
		return false
	}
	for i := 1; i < len(w); i++ {
		if !isDigit(w[i]) && w[i] != '.' {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool { return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func upper(c byte) byte { return c &^ 0x20 }

func isSpaceOrLetter(c byte) bool { return c == ' ' || c == '\t' || isLetter(c) }
