package transform

import (
	"math"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

// NonPlanar displaces the infill of every body layer along
// z = nominal + A·sin(2π·f·t), where t is the planar distance travelled
// since the infill run started. A run ends at every travel move and at every
// extrusion of another feature.
//
// Moves longer than the wave resolution are split so the sine is sampled
// along them. Displaced moves have their extrusion scaled by the extrusion
// multiplier. Brick-shift never raises infill, so the two compose without
// interaction.
func NonPlanar(layers []*layer.Layer, s *State) {
	cfg := s.Config
	if !cfg.NonPlanar {
		return
	}
	amp, clamped := cfg.EffectiveAmplitude()
	if clamped {
		s.warn(errors.WarnAmplitudeClamped, -1, 0,
			"amplitude %.3fmm clamped to %.3fmm (must stay below half the layer height)", cfg.Amplitude, amp)
	}
	if amp == 0 {
		return
	}
	res := cfg.Resolution()

	for _, l := range layers {
		if !l.Transformable() {
			continue
		}
		out := make([]*layer.Entry, 0, len(l.Entries))
		t := 0.0
		for _, e := range l.Entries {
			if e.IsMotion() && e.Tag != feature.Infill && (e.Travel() || e.Extruding()) {
				t = 0
			}
			if e.Tag != feature.Infill || !e.Extruding() {
				out = append(out, e)
				continue
			}

			n := 1
			if res > 0 {
				n = min(int(math.Ceil(e.PlanarLength()/res)), maxPieces)
			}
			for _, piece := range e.Split(n, s.Format) {
				t += piece.PlanarLength()
				retarget(piece, l.NominalZ+amp*math.Sin(2*math.Pi*cfg.Frequency*t))
				piece.ScaleDeposit(cfg.ExtrusionMultiplier, s.Format)
				if piece != e.Instruction {
					out = append(out, &layer.Entry{Instruction: piece, Tag: feature.Infill})
					s.Stats.InsertedMoves++
				} else {
					out = append(out, e)
				}
				s.Stats.DisplacedMoves++
			}
			if n > 1 {
				s.Stats.SplitMoves++
			}
		}
		l.Entries = out
	}
}
