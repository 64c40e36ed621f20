package cli

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

func TestNormalizeFlagName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"layerHeight", flagLayerHeight},
		{"layer-height", flagLayerHeight},
		{"layer_height", flagLayerHeight},
		{"LAYERHEIGHT", flagLayerHeight},
		{"extrusion-multiplier", flagExtrusionMultiplier},
		{"non_planar", flagNonPlanar},
		{"wall-order", flagWallOrder},
		{"dry-run", "dry-run"},
		{"output", "output"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, string(normalizeFlagName(nil, tt.in)))
		})
	}
}

func TestNormalizeArgs(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "slicer style",
			args: []string{"-layerHeight", "0.2", "-extrusionMultiplier", "1.0", "part.gcode"},
			want: []string{"--layerHeight", "0.2", "--extrusionMultiplier", "1.0", "part.gcode"},
		},
		{
			name: "with value",
			args: []string{"-nonPlanar=1", "part.gcode"},
			want: []string{"--nonPlanar=1", "part.gcode"},
		},
		{
			name: "alias",
			args: []string{"-layer-height", "0.3", "part.gcode"},
			want: []string{"--layer-height", "0.3", "part.gcode"},
		},
		{
			name: "shorthand untouched",
			args: []string{"-v", "-o", "out.gcode", "part.gcode"},
			want: []string{"-v", "-o", "out.gcode", "part.gcode"},
		},
		{
			name: "negative number untouched",
			args: []string{"-amplitude", "-0.5"},
			want: []string{"--amplitude", "-0.5"},
		},
		{
			name: "subcommand flag",
			args: []string{"inspect", "-format", "json", "part.gcode"},
			want: []string{"inspect", "--format", "json", "part.gcode"},
		},
		{
			name: "unknown left alone",
			args: []string{"-bogus", "part.gcode"},
			want: []string{"-bogus", "part.gcode"},
		},
		{
			name: "after terminator",
			args: []string{"--", "-layerHeight"},
			want: []string{"--", "-layerHeight"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeArgs(root, tt.args))
		})
	}
}

func TestNormalizeArgsDoesNotModifyInput(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	args := []string{"-layerHeight", "0.2"}
	_ = NormalizeArgs(root, args)
	assert.Equal(t, "-layerHeight", args[0])
}

func TestTransformFlagsOptions(t *testing.T) {
	f := defaultTransformFlags()
	f.nonPlanar = 1
	f.wallReorder = 1
	f.wallOrder = string(transform.WallOrderInnerFirst)
	f.dialect = "orca"

	opts, err := f.options()
	require.NoError(t, err)

	assert.Equal(t, "orca", opts.Dialect)
	assert.True(t, opts.Transform.BrickShift)
	assert.True(t, opts.Transform.NonPlanar)
	assert.True(t, opts.Transform.WallReorder)
	assert.Equal(t, transform.WallOrderInnerFirst, opts.Transform.WallOrder)
	assert.Nil(t, opts.Logger, "the runner supplies the logger")
}

func TestTransformFlagsOptionsRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*transformFlags)
	}{
		{"toggle out of range", func(f *transformFlags) { f.brickShift = 2 }},
		{"negative toggle", func(f *transformFlags) { f.nonPlanar = -1 }},
		{"unknown wall order", func(f *transformFlags) { f.wallOrder = "sideways" }},
		{"unknown dialect", func(f *transformFlags) { f.dialect = "cura" }},
		{"negative layer height", func(f *transformFlags) { f.layerHeight = -0.2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultTransformFlags()
			tt.mutate(&f)
			_, err := f.options()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidOption, errors.GetCode(err))
		})
	}
}

func TestRootCommandParsesSlicerFlags(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	args := NormalizeArgs(root, []string{"-layerHeight", "0.3", "-wall_reorder", "1", "part.gcode"})
	require.NoError(t, root.ParseFlags(args))

	lh, err := root.Flags().GetFloat64(flagLayerHeight)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, lh, 1e-12)

	wr, err := root.Flags().GetInt(flagWallReorder)
	require.NoError(t, err)
	assert.Equal(t, 1, wr)
}
