package gcode

import (
	"strconv"
	"strings"
)

// Default decimal places used for axes the input never writes.
const (
	DefaultXYZDecimals = 3
	DefaultEDecimals   = 5
	DefaultFDecimals   = 0
)

// Format describes how the input writes numbers, so that rewritten fields
// look like the slicer wrote them.
type Format struct {
	decimals map[byte]int

	// TrimZeros removes trailing zeros after the decimal point ("0.2" rather
	// than "0.200").
	TrimZeros bool
	// OmitLeadingZero writes ".5" rather than "0.5".
	OmitLeadingZero bool
	// CRLF terminates synthesized lines with "\r\n".
	CRLF bool
}

// DefaultFormat returns the format used when nothing was learned from input.
func DefaultFormat() Format {
	return Format{TrimZeros: true}
}

// Decimals returns the precision used when writing letter: the most
// decimals the input used for it, but never fewer than the default.
func (f Format) Decimals(letter byte) int {
	d := DefaultXYZDecimals
	switch letter {
	case 'E':
		d = DefaultEDecimals
	case 'F':
		d = DefaultFDecimals
	}
	return max(d, f.decimals[letter])
}

// Number formats v for letter.
func (f Format) Number(letter byte, v float64) string {
	s := strconv.FormatFloat(v, 'f', f.Decimals(letter), 64)
	if f.TrimZeros && strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if neg, ok := strings.CutPrefix(s, "-"); ok && strings.Trim(neg, "0.") == "" {
		s = neg
	}
	if f.OmitLeadingZero {
		switch {
		case strings.HasPrefix(s, "0."):
			s = s[1:]
		case strings.HasPrefix(s, "-0."):
			s = "-" + s[2:]
		}
	}
	return s
}

// formatLearner accumulates number style while parsing.
type formatLearner struct {
	decimals     map[byte]int
	sawFraction  bool
	trailingZero bool
	leadingDot   bool
	leadingZero  bool
	crlf, lf     int
}

func newFormatLearner() *formatLearner {
	return &formatLearner{decimals: make(map[byte]int)}
}

func (l *formatLearner) observe(letter byte, number string, decimals int) {
	l.decimals[letter] = max(l.decimals[letter], decimals)
	if !strings.Contains(number, ".") {
		return
	}
	l.sawFraction = true
	if strings.HasSuffix(number, "0") {
		l.trailingZero = true
	}
	digits := strings.TrimLeft(number, "+-")
	switch {
	case strings.HasPrefix(digits, "."):
		l.leadingDot = true
	case strings.HasPrefix(digits, "0."):
		l.leadingZero = true
	}
}

func (l *formatLearner) line(cr bool) {
	if cr {
		l.crlf++
	} else {
		l.lf++
	}
}

func (l *formatLearner) format() Format {
	return Format{
		decimals:        l.decimals,
		TrimZeros:       !l.sawFraction || !l.trailingZero,
		OmitLeadingZero: l.leadingDot && !l.leadingZero,
		CRLF:            l.crlf > l.lf,
	}
}
