package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/pipeline"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

// Flag names. The camelCase names are the ones slicer post-processing
// configurations pass.
const (
	flagLayerHeight         = "layerHeight"
	flagExtrusionMultiplier = "extrusionMultiplier"
	flagBrickShift          = "brickShift"
	flagNonPlanar           = "nonPlanar"
	flagAmplitude           = "amplitude"
	flagFrequency           = "frequency"
	flagWaveResolution      = "waveResolution"
	flagWallReorder         = "wallReorder"
	flagWallOrder           = "wallOrder"
	flagDialect             = "dialect"
	flagConfig              = "config"
)

// flagAliases maps a flag name without case or separators to its canonical
// name, so --layer-height and --layer_height work as well.
var flagAliases = map[string]string{
	"layerheight":         flagLayerHeight,
	"extrusionmultiplier": flagExtrusionMultiplier,
	"brickshift":          flagBrickShift,
	"nonplanar":           flagNonPlanar,
	"amplitude":           flagAmplitude,
	"frequency":           flagFrequency,
	"waveresolution":      flagWaveResolution,
	"wallreorder":         flagWallReorder,
	"wallorder":           flagWallOrder,
}

var aliasSeparators = strings.NewReplacer("-", "", "_", "")

// normalizeFlagName is the pflag normalization function for every command.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	key := strings.ToLower(aliasSeparators.Replace(name))
	if canon, ok := flagAliases[key]; ok {
		return pflag.NormalizedName(canon)
	}
	return pflag.NormalizedName(name)
}

// NormalizeArgs rewrites single-dash long options (-layerHeight 0.2) to the
// double-dash form pflag expects. Only names of flags defined somewhere in
// the command tree are rewritten; shorthands, negative numbers and
// everything after "--" are left alone.
func NormalizeArgs(root *cobra.Command, args []string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if a == "--" {
			break
		}
		if len(a) < 3 || a[0] != '-' || a[1] == '-' {
			continue
		}
		name, _, _ := strings.Cut(a[1:], "=")
		if hasLongFlag(root, name) {
			out[i] = "-" + a
		}
	}
	return out
}

func hasLongFlag(cmd *cobra.Command, name string) bool {
	if len(name) < 2 {
		return false
	}
	if cmd.Flags().Lookup(name) != nil || cmd.PersistentFlags().Lookup(name) != nil {
		return true
	}
	for _, sub := range cmd.Commands() {
		if hasLongFlag(sub, name) {
			return true
		}
	}
	return false
}

// =============================================================================
// Transform Flags
// =============================================================================

// transformFlags holds the options shared by the commands that look at a
// file through the transformers.
type transformFlags struct {
	layerHeight         float64
	extrusionMultiplier float64
	brickShift          int
	nonPlanar           int
	amplitude           float64
	frequency           float64
	waveResolution      float64
	wallReorder         int
	wallOrder           string
	dialect             string
	config              string
}

func defaultTransformFlags() transformFlags {
	cfg := transform.DefaultConfig()
	return transformFlags{
		layerHeight:         cfg.LayerHeight,
		extrusionMultiplier: cfg.ExtrusionMultiplier,
		brickShift:          toggle(cfg.BrickShift),
		nonPlanar:           toggle(cfg.NonPlanar),
		amplitude:           cfg.Amplitude,
		frequency:           cfg.Frequency,
		waveResolution:      cfg.WaveResolution,
		wallReorder:         toggle(cfg.WallReorder),
		wallOrder:           string(cfg.WallOrder),
		dialect:             pipeline.DefaultDialect,
	}
}

// register adds the flags to fs.
func (f *transformFlags) register(fs *pflag.FlagSet) {
	fs.Float64Var(&f.layerHeight, flagLayerHeight, f.layerHeight, "slicer layer height in mm (0 disables brick-shift)")
	fs.Float64Var(&f.extrusionMultiplier, flagExtrusionMultiplier, f.extrusionMultiplier, "extrusion factor for shifted boundary walls and displaced infill")
	fs.IntVar(&f.brickShift, flagBrickShift, f.brickShift, "raise the walls of alternate layers by half a layer (0/1)")
	fs.IntVar(&f.nonPlanar, flagNonPlanar, f.nonPlanar, "displace infill along a sine wave (0/1)")
	fs.Float64Var(&f.amplitude, flagAmplitude, f.amplitude, "peak infill displacement in mm (with --nonPlanar)")
	fs.Float64Var(&f.frequency, flagFrequency, f.frequency, "sine cycles per mm of infill path (with --nonPlanar)")
	fs.Float64Var(&f.waveResolution, flagWaveResolution, f.waveResolution, "longest undivided infill segment in mm (0 derives it from --frequency)")
	fs.IntVar(&f.wallReorder, flagWallReorder, f.wallReorder, "reorder wall loops (0/1)")
	fs.StringVar(&f.wallOrder, flagWallOrder, f.wallOrder, "wall order with --wallReorder: "+strings.Join(transform.WallOrders(), ", "))
	fs.StringVar(&f.dialect, flagDialect, f.dialect, "slicer dialect: "+strings.Join(pipeline.Dialects(), ", "))
	fs.StringVar(&f.config, flagConfig, "", "config file (default $XDG_CONFIG_HOME/bricklayers/config.toml)")
}

// options validates the flags and converts them to pipeline options.
func (f *transformFlags) options() (pipeline.Options, error) {
	toggles := []struct {
		name string
		v    int
	}{
		{flagBrickShift, f.brickShift},
		{flagNonPlanar, f.nonPlanar},
		{flagWallReorder, f.wallReorder},
	}
	for _, t := range toggles {
		if err := errors.ValidateToggle(t.name, t.v); err != nil {
			return pipeline.Options{}, err
		}
	}
	if err := errors.ValidateChoice(flagWallOrder, f.wallOrder, transform.WallOrders()...); err != nil {
		return pipeline.Options{}, err
	}
	if err := pipeline.ValidateDialect(f.dialect); err != nil {
		return pipeline.Options{}, err
	}

	opts := pipeline.Options{
		Dialect: f.dialect,
		Transform: transform.Config{
			LayerHeight:          f.layerHeight,
			ExtrusionMultiplier:  f.extrusionMultiplier,
			BrickShift:           f.brickShift == 1,
			NonPlanar:            f.nonPlanar == 1,
			Amplitude:            f.amplitude,
			Frequency:            f.frequency,
			WaveResolution:       f.waveResolution,
			WallReorder:          f.wallReorder == 1,
			WallOrder:            transform.WallOrder(f.wallOrder),
			LayerHeightTolerance: transform.DefaultLayerHeightTolerance,
		},
	}
	// Validate a copy so the runner still supplies its logger.
	check := opts
	if err := check.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

func toggle(b bool) int {
	if b {
		return 1
	}
	return 0
}
