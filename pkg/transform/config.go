package transform

import (
	"math"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

// WallOrder selects the order of wall loops when reordering is enabled.
type WallOrder string

const (
	// WallOrderAuto prints inner walls first on brick-shifted layers and
	// outer walls first on other layers when non-planar infill is on.
	WallOrderAuto       WallOrder = "auto"
	WallOrderOuterFirst WallOrder = "outer-first"
	WallOrderInnerFirst WallOrder = "inner-first"
)

// WallOrders lists the valid wall orders.
func WallOrders() []string {
	return []string{string(WallOrderAuto), string(WallOrderOuterFirst), string(WallOrderInnerFirst)}
}

// Defaults.
const (
	DefaultLayerHeight          = 0.2
	DefaultExtrusionMultiplier  = 1.0
	DefaultAmplitude            = 0.05
	DefaultFrequency            = 0.1
	DefaultLayerHeightTolerance = 0.1

	// ZFeed is the feed rate (mm/min) of inserted Z moves.
	ZFeed = 1200.0

	// AmplitudeMargin keeps a clamped amplitude strictly below half a layer.
	AmplitudeMargin = 0.001
	// samplesPerCycle is how finely the sine is sampled when WaveResolution
	// is left at zero.
	samplesPerCycle = 8
	// maxPieces bounds the subdivision of one move.
	maxPieces = 1000
)

// Config holds the transformation parameters. It is passed by value and
// never modified by the transformers.
type Config struct {
	// LayerHeight is the slicer's layer height (mm). Zero disables
	// brick-shift.
	LayerHeight float64 `json:"layer_height" yaml:"layer_height"`
	// ExtrusionMultiplier scales the boundary wall move of shifted layers
	// and every displaced infill move.
	ExtrusionMultiplier float64 `json:"extrusion_multiplier" yaml:"extrusion_multiplier"`

	BrickShift bool `json:"brick_shift" yaml:"brick_shift"`

	NonPlanar bool    `json:"non_planar" yaml:"non_planar"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"` // peak Z displacement (mm)
	Frequency float64 `json:"frequency" yaml:"frequency"` // sine cycles per mm of infill path
	// WaveResolution is the longest infill segment (mm) left undivided.
	// Zero derives it from the frequency.
	WaveResolution float64 `json:"wave_resolution" yaml:"wave_resolution"`

	WallReorder bool      `json:"wall_reorder" yaml:"wall_reorder"`
	WallOrder   WallOrder `json:"wall_order" yaml:"wall_order"`

	// LayerHeightTolerance is the relative pitch deviation tolerated before
	// a LayerHeightMismatch warning.
	LayerHeightTolerance float64 `json:"layer_height_tolerance" yaml:"layer_height_tolerance"`
}

// DefaultConfig returns the configuration used by the command line when no
// option is given.
func DefaultConfig() Config {
	return Config{
		LayerHeight:          DefaultLayerHeight,
		ExtrusionMultiplier:  DefaultExtrusionMultiplier,
		BrickShift:           true,
		Amplitude:            DefaultAmplitude,
		Frequency:            DefaultFrequency,
		WallOrder:            WallOrderAuto,
		LayerHeightTolerance: DefaultLayerHeightTolerance,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := errors.ValidateNonNegative("layerHeight", c.LayerHeight); err != nil {
		return err
	}
	if err := errors.ValidatePositive("extrusionMultiplier", c.ExtrusionMultiplier); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("waveResolution", c.WaveResolution); err != nil {
		return err
	}
	if err := errors.ValidateNonNegative("layerHeightTolerance", c.LayerHeightTolerance); err != nil {
		return err
	}
	if c.NonPlanar {
		if c.LayerHeight == 0 {
			return errors.New(errors.ErrCodeInvalidOption, "nonPlanar requires a layerHeight > 0 to bound the amplitude")
		}
		if err := errors.ValidateNonNegative("amplitude", c.Amplitude); err != nil {
			return err
		}
		if err := errors.ValidatePositive("frequency", c.Frequency); err != nil {
			return err
		}
	}
	if c.WallOrder != "" {
		if err := errors.ValidateChoice("wallOrder", string(c.WallOrder), WallOrders()...); err != nil {
			return err
		}
	}
	return nil
}

// ShiftEnabled reports whether brick-shift runs at all.
func (c Config) ShiftEnabled() bool {
	return c.BrickShift && c.LayerHeight > 0
}

// Shifted reports whether brick-shift raises the walls of l: odd body
// layers only.
func (c Config) Shifted(l *layer.Layer) bool {
	return c.ShiftEnabled() && l.Transformable() && l.Index%2 == 1
}

// EffectiveAmplitude returns the amplitude clamped below half the layer
// height, and whether it had to be clamped.
func (c Config) EffectiveAmplitude() (float64, bool) {
	limit := c.LayerHeight/2 - AmplitudeMargin
	if c.Amplitude > limit {
		return math.Max(limit, 0), true
	}
	return c.Amplitude, false
}

// Resolution returns the longest infill segment left undivided.
func (c Config) Resolution() float64 {
	if c.WaveResolution > 0 {
		return c.WaveResolution
	}
	if c.Frequency <= 0 {
		return 0
	}
	return 1 / (c.Frequency * samplesPerCycle)
}

// Order is the effective wall order for one layer.
type Order int

const (
	// OrderKeep leaves the slicer's order.
	OrderKeep Order = iota
	OrderOuterFirst
	OrderInnerFirst
)

// String returns the order name.
func (o Order) String() string {
	switch o {
	case OrderOuterFirst:
		return string(WallOrderOuterFirst)
	case OrderInnerFirst:
		return string(WallOrderInnerFirst)
	default:
		return "keep"
	}
}

// OrderFor decides the wall order for l.
//
//	brick-shift  non-planar  auto order
//	shifted      any         inner-first
//	unshifted    on          outer-first
//	unshifted    off         keep
//
// An explicit WallOrder applies to every body layer.
func (c Config) OrderFor(l *layer.Layer) Order {
	if !c.WallReorder || !l.Transformable() {
		return OrderKeep
	}
	switch c.WallOrder {
	case WallOrderOuterFirst:
		return OrderOuterFirst
	case WallOrderInnerFirst:
		return OrderInnerFirst
	}
	switch {
	case c.Shifted(l):
		return OrderInnerFirst
	case c.NonPlanar:
		return OrderOuterFirst
	default:
		return OrderKeep
	}
}
