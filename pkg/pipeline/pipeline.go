// Package pipeline runs bricklayers end to end.
//
// This package implements the parse → transform → emit pipeline that the
// command line (and anything else embedding bricklayers) uses, so every
// entry point behaves the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: read the G-code text into a [gcode.Program]
//  2. Transform: segment the body into layers, tag every move with its
//     feature and run the transformers over the layers
//  3. Emit: flatten the layers, rebase absolute extrusion and render the
//     file
//
// Each stage is a plain function ([Parse], [Segment], [Transform], [Emit])
// and can be run on its own. The whole pipeline works on one in-memory file
// and either produces the complete output or an error: nothing is ever
// written half way.
//
// # Usage
//
// Create a Runner and process a file:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.Transform.NonPlanar = true
//	result, err := runner.ProcessFile(ctx, "part.gcode", opts, pipeline.FileOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Stats.Transform.ShiftedLayers)
//
// Or work on bytes:
//
//	result, err := runner.Execute(ctx, data, opts)
//	os.Stdout.Write(result.Output)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/bricklayers/pkg/cache"
	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/gcode"
	"github.com/matzehuels/bricklayers/pkg/layer"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

// =============================================================================
// Default Values
// =============================================================================

// DialectAuto detects the dialect from the file's comments.
const DialectAuto = "auto"

// DefaultDialect is the dialect used when none is set.
const DefaultDialect = DialectAuto

// Dialects returns the valid dialect option values.
func Dialects() []string {
	return append([]string{DialectAuto}, gcode.Dialects()...)
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
//
// The zero value rewrites nothing: LayerHeight 0 disables brick-shift and
// the other transformers are off. Start from [DefaultOptions] for the
// command-line defaults.
type Options struct {
	Transform transform.Config `json:"transform" yaml:"transform"`
	// Dialect is "auto" or a dialect name accepted by gcode.LookupDialect.
	Dialect string `json:"dialect" yaml:"dialect"`

	// Refresh skips the output memo.
	Refresh bool `json:"-" yaml:"-"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" yaml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// DefaultOptions returns the options the command line starts from.
func DefaultOptions() Options {
	return Options{
		Transform: transform.DefaultConfig(),
		Dialect:   DefaultDialect,
	}
}

// FileOptions control how [Runner.ProcessFile] writes its result.
type FileOptions struct {
	// Output is written instead of replacing the input.
	Output string
	// DryRun runs the pipeline but writes nothing and records nothing.
	DryRun bool
	// Force processes files the tool already wrote.
	Force bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and reports.
	RunID string

	// Output is the rewritten file.
	Output []byte

	// Program and Layers are the parsed file after transformation. Both are
	// nil when the output came from the cache.
	Program *gcode.Program
	Layers  []*layer.Layer

	// Warnings lists every recoverable problem, in the order found.
	Warnings []errors.Warning

	// InputHash and OutputHash are content hashes (see cache.Hash).
	InputHash  string
	OutputHash string

	// Stats contains counts and timings.
	Stats Stats

	// CacheInfo tracks whether the output was memoized.
	CacheInfo CacheInfo

	// Skipped is the report of the earlier run when the file was already
	// written by the tool and was left untouched. Output is nil then.
	Skipped *Report
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Lines           int             `json:"lines" yaml:"lines"`
	Layers          int             `json:"layers" yaml:"layers"`
	BodyLayers      int             `json:"body_layers" yaml:"body_layers"`
	Dialect         string          `json:"dialect" yaml:"dialect"`
	DialectDetected bool            `json:"dialect_detected" yaml:"dialect_detected"`
	Features        map[string]int  `json:"features" yaml:"features"`
	Transform       transform.Stats `json:"transform" yaml:"transform"`
	ExtrusionIn     float64         `json:"extrusion_in" yaml:"extrusion_in"`
	ExtrusionOut    float64         `json:"extrusion_out" yaml:"extrusion_out"`
	ParseTime       time.Duration   `json:"parse_time" yaml:"parse_time"`
	TransformTime   time.Duration   `json:"transform_time" yaml:"transform_time"`
	EmitTime        time.Duration   `json:"emit_time" yaml:"emit_time"`
}

// Changed reports how many moves or loops the transformers touched.
func (s Stats) Changed() int {
	t := s.Transform
	return t.ShiftedMoves + t.DisplacedMoves + t.ReorderedLoops
}

// CacheInfo tracks cache use during a run.
type CacheInfo struct {
	OutputHit bool // Whether the output came from the memo
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateDialect checks that a dialect option is valid.
func ValidateDialect(name string) error {
	if name == DialectAuto {
		return nil
	}
	_, err := gcode.LookupDialect(name)
	return err
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults for
// fields whose zero value is invalid. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := ValidateDialect(o.Dialect); err != nil {
		return err
	}
	if err := o.Transform.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills in defaults without validating.
func (o *Options) SetDefaults() {
	if o.Dialect == "" {
		o.Dialect = DefaultDialect
	}
	t := &o.Transform
	if t.ExtrusionMultiplier == 0 {
		t.ExtrusionMultiplier = transform.DefaultExtrusionMultiplier
	}
	if t.Frequency == 0 {
		t.Frequency = transform.DefaultFrequency
	}
	if t.WallOrder == "" {
		t.WallOrder = transform.WallOrderAuto
	}
	if t.LayerHeightTolerance == 0 {
		t.LayerHeightTolerance = transform.DefaultLayerHeightTolerance
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// OutputKeyOpts returns the cache key options for the output memo.
func (o *Options) OutputKeyOpts() cache.OutputKeyOpts {
	t := o.Transform
	return cache.OutputKeyOpts{
		Dialect:             o.Dialect,
		LayerHeight:         t.LayerHeight,
		ExtrusionMultiplier: t.ExtrusionMultiplier,
		BrickShift:          t.BrickShift,
		NonPlanar:           t.NonPlanar,
		Amplitude:           t.Amplitude,
		Frequency:           t.Frequency,
		WaveResolution:      t.WaveResolution,
		WallReorder:         t.WallReorder,
		WallOrder:           string(t.WallOrder),
		Tolerance:           t.LayerHeightTolerance,
	}
}
