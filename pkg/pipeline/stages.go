package pipeline

import (
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/gcode"
	"github.com/matzehuels/bricklayers/pkg/layer"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

// Parse reads data with the given dialect option. With "auto" the dialect is
// detected from the file's comments; a file without any recognised comment is
// read with the generic dialect and an UNKNOWN_DIALECT warning.
func Parse(data []byte, dialect string) (*gcode.Program, []errors.Warning, error) {
	if dialect == "" || dialect == DialectAuto {
		p, err := gcode.Parse(data)
		if err != nil {
			return nil, nil, err
		}
		if !p.Detected {
			w := errors.NewWarning(errors.WarnUnknownDialect, -1, 0,
				"no slicer signature found, using the %s dialect", p.Dialect.Name)
			return p, []errors.Warning{w}, nil
		}
		return p, nil, nil
	}

	d, err := gcode.LookupDialect(dialect)
	if err != nil {
		return nil, nil, err
	}
	p, err := gcode.ParseDialect(data, d)
	if err != nil {
		return nil, nil, err
	}
	return p, nil, nil
}

// Segment splits the body of p into layers and tags every instruction with
// its feature.
func Segment(p *gcode.Program) ([]*layer.Layer, []errors.Warning) {
	layers := layer.Segment(p)
	c := feature.NewClassifier(p)
	layer.Classify(layers, c)
	return layers, c.Warnings()
}

// Transform runs the enabled transformers over layers.
func Transform(layers []*layer.Layer, p *gcode.Program, cfg transform.Config) *transform.State {
	return transform.Apply(layers, cfg, p.Format)
}

// Emit writes the layers back into p and renders the file.
func Emit(p *gcode.Program, layers []*layer.Layer) []byte {
	p.Body = layer.Flatten(layers)
	gcode.Rebase(p.All(), p.Format)
	return p.Bytes()
}

// featureCounts counts the extruding moves per feature over all layers.
func featureCounts(layers []*layer.Layer) map[string]int {
	counts := make(map[string]int)
	for _, l := range layers {
		for tag, n := range l.Count() {
			counts[tag.String()] += n
		}
	}
	return counts
}

func bodyLayers(layers []*layer.Layer) int {
	var n int
	for _, l := range layers {
		if l.Transformable() {
			n++
		}
	}
	return n
}
