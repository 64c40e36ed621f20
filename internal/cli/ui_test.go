package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matzehuels/bricklayers/pkg/pipeline"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

func TestStatsParts(t *testing.T) {
	tests := []struct {
		name  string
		stats pipeline.Stats
		want  []string
	}{
		{
			name:  "unchanged",
			stats: pipeline.Stats{Layers: 3},
			want:  []string{"3 layers", "unchanged"},
		},
		{
			name: "all transformers",
			stats: pipeline.Stats{
				Layers: 1250,
				Transform: transform.Stats{
					ShiftedLayers:  600,
					ShiftedMoves:   48000,
					DisplacedMoves: 12345,
					ReorderedLoops: 80,
				},
			},
			want: []string{"1,250 layers", "600 shifted", "12,345 infill moves displaced", "80 loops reordered"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statsParts(tt.stats))
		})
	}
}
