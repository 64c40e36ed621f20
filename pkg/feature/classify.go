package feature

import (
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/gcode"
)

// Context describes the file being classified.
type Context struct {
	Dialect gcode.Dialect
	// Marked is set when the file carries feature comments. Unmarked files
	// are classified from geometry.
	Marked bool
	// Objects is set when the file marks object sections; extrusions outside
	// them (purge lines, prime towers) are tagged Other.
	Objects bool
}

// NewContext inspects a parsed program.
func NewContext(p *gcode.Program) Context {
	ctx := Context{Dialect: p.Dialect, Objects: p.Objects}
	if !p.Dialect.HasFeatures() {
		return ctx
	}
	for _, ins := range p.Body {
		if _, ok := p.Dialect.FeatureName(ins); ok {
			ctx.Marked = true
			break
		}
	}
	return ctx
}

// State is carried from one layer to the next: slicers do not repeat the
// feature comment after a layer change.
type State struct {
	Name string // last feature name seen, "" before the first
}

// Classify tags the instructions of one layer. Pass-through lines are
// tagged Travel. It is a pure function of its arguments: the returned State
// is the input for the next layer.
func Classify(ctx Context, st State, layer int, body []*gcode.Instruction) ([]Tag, State, []errors.Warning) {
	tags := make([]Tag, len(body))
	var (
		warnings  []errors.Warning
		anonymous int
		firstLine int
	)
	for i, ins := range body {
		if ctx.Marked {
			if name, ok := ctx.Dialect.FeatureName(ins); ok {
				st.Name = name
				continue
			}
		}
		if !ins.Extruding() || ins.RelativeXYZ {
			continue
		}
		if ctx.Objects && !ins.InObject {
			tags[i] = Other
			continue
		}
		if !ctx.Marked {
			continue
		}
		if st.Name == "" {
			if anonymous == 0 {
				firstLine = ins.Line
			}
			anonymous++
			continue
		}
		tags[i] = FromName(st.Name)
	}

	if anonymous > 0 {
		warnings = append(warnings, errors.NewWarning(errors.WarnAmbiguousFeature, layer, firstLine,
			"%d extrusion moves before any feature comment, left untouched", anonymous))
	}
	if !ctx.Marked {
		warnings = append(warnings, classifyGeometry(layer, body, tags)...)
	}
	return tags, st, warnings
}

// Classifier threads [State] through consecutive layers and collects
// warnings.
type Classifier struct {
	ctx      Context
	state    State
	warnings []errors.Warning
}

// NewClassifier creates a classifier for p.
func NewClassifier(p *gcode.Program) *Classifier {
	return &Classifier{ctx: NewContext(p)}
}

// Context returns the file context the classifier works with.
func (c *Classifier) Context() Context {
	return c.ctx
}

// Classify tags one layer.
func (c *Classifier) Classify(layer int, body []*gcode.Instruction) []Tag {
	tags, st, warnings := Classify(c.ctx, c.state, layer, body)
	c.state = st
	c.warnings = append(c.warnings, warnings...)
	return tags
}

// Warnings returns the warnings collected so far.
func (c *Classifier) Warnings() []errors.Warning {
	return c.warnings
}
