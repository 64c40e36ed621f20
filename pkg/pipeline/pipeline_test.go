package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bricklayers/pkg/cache"
	"github.com/matzehuels/bricklayers/pkg/errors"
	bio "github.com/matzehuels/bricklayers/pkg/io"
	"github.com/matzehuels/bricklayers/pkg/observability"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "gcode", "testdata", name))
	require.NoError(t, err)
	return data
}

// copyFixture copies a fixture into a temporary directory and returns its path.
func copyFixture(t *testing.T, name string) (string, []byte) {
	t.Helper()
	data := readFixture(t, name)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, data
}

func fileCache(t *testing.T) *cache.FileCache {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	return c
}

func warningCodes(ws []errors.Warning) []errors.Code {
	var out []errors.Code
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// =============================================================================
// Options
// =============================================================================

func TestValidateDialect(t *testing.T) {
	tests := []struct {
		dialect string
		wantErr bool
	}{
		{"auto", false},
		{"bambu", false},
		{"orca", false},
		{"prusa", false},
		{"generic", false},
		{"cura", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateDialect(tt.dialect)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateDialect(%q) error = %v, wantErr %v", tt.dialect, err, tt.wantErr)
		}
	}
}

func TestValidateAndSetDefaults(t *testing.T) {
	var opts Options
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.Equal(t, DialectAuto, opts.Dialect)
	assert.Equal(t, transform.DefaultExtrusionMultiplier, opts.Transform.ExtrusionMultiplier)
	assert.Equal(t, transform.DefaultFrequency, opts.Transform.Frequency)
	assert.Equal(t, transform.WallOrderAuto, opts.Transform.WallOrder)
	assert.Equal(t, transform.DefaultLayerHeightTolerance, opts.Transform.LayerHeightTolerance)
	assert.NotNil(t, opts.Logger)

	// Idempotent.
	require.NoError(t, opts.ValidateAndSetDefaults())
}

func TestValidateAndSetDefaultsRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"dialect", func(o *Options) { o.Dialect = "cura" }},
		{"layer height", func(o *Options) { o.Transform.LayerHeight = -0.2 }},
		{"multiplier", func(o *Options) { o.Transform.ExtrusionMultiplier = -1 }},
		{"wall order", func(o *Options) { o.Transform.WallOrder = "sideways" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.ValidateAndSetDefaults()
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidOption, errors.GetCode(err))
		})
	}
}

func TestOutputKeyOptsDifferByOption(t *testing.T) {
	a := DefaultOptions()
	b := DefaultOptions()
	b.Transform.NonPlanar = true
	c := DefaultOptions()

	k := cache.NewDefaultKeyer()
	assert.NotEqual(t,
		k.OutputKey("h", a.OutputKeyOpts()),
		k.OutputKey("h", b.OutputKeyOpts()))
	assert.Equal(t,
		k.OutputKey("h", a.OutputKeyOpts()),
		k.OutputKey("h", c.OutputKeyOpts()))
}

// =============================================================================
// Stages
// =============================================================================

func TestParseStage(t *testing.T) {
	p, warnings, err := Parse(readFixture(t, "bambu.gcode"), DialectAuto)
	require.NoError(t, err)
	assert.Equal(t, "bambu", p.Dialect.Name)
	assert.Empty(t, warnings)

	p, warnings, err = Parse(readFixture(t, "generic.gcode"), DialectAuto)
	require.NoError(t, err)
	assert.Equal(t, "generic", p.Dialect.Name)
	assert.Equal(t, []errors.Code{errors.WarnUnknownDialect}, warningCodes(warnings))

	_, warnings, err = Parse(readFixture(t, "generic.gcode"), "generic")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	_, _, err = Parse(nil, "cura")
	assert.Equal(t, errors.ErrCodeInvalidOption, errors.GetCode(err))
}

func TestStagesComposeIdentity(t *testing.T) {
	for _, name := range []string{"bambu.gcode", "prusa.gcode", "generic.gcode"} {
		t.Run(name, func(t *testing.T) {
			data := readFixture(t, name)
			p, _, err := Parse(data, DialectAuto)
			require.NoError(t, err)
			layers, _ := Segment(p)
			cfg := transform.DefaultConfig()
			cfg.BrickShift = false
			Transform(layers, p, cfg)
			assert.Equal(t, string(data), string(Emit(p, layers)))
		})
	}
}

// =============================================================================
// Runner
// =============================================================================

func TestExecute(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil)

	res, err := r.Execute(ctx, readFixture(t, "bambu.gcode"), DefaultOptions())
	require.NoError(t, err)

	out := string(res.Output)
	assert.Contains(t, out, "G1 X10 Y0 Z.5 E.5\n")
	assert.Equal(t, 1, strings.Count(out, "Z.5"))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, cache.Hash(res.Output), res.OutputHash)
	assert.NotEqual(t, res.InputHash, res.OutputHash)
	assert.False(t, res.CacheInfo.OutputHit)

	s := res.Stats
	assert.Equal(t, "bambu", s.Dialect)
	assert.True(t, s.DialectDetected)
	assert.Equal(t, 4, s.Layers)
	assert.Equal(t, 2, s.BodyLayers)
	assert.Equal(t, 1, s.Transform.ShiftedLayers)
	assert.Positive(t, s.Features["outer-wall"])
	assert.InDelta(t, s.ExtrusionIn, s.ExtrusionOut, 1e-9)
	assert.Equal(t, s.Transform.ShiftedMoves, s.Changed())
}

func TestExecuteGenericWarns(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), readFixture(t, "generic.gcode"), DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, warningCodes(res.Warnings), errors.WarnUnknownDialect)
	assert.False(t, res.Stats.DialectDetected)
}

func TestExecuteMalformed(t *testing.T) {
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), []byte("G90\nG1 X1.2.3 Y4\n"), DefaultOptions())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedLine, errors.GetCode(err))
}

func TestExecuteInvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Transform.LayerHeight = -0.2
	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), readFixture(t, "bambu.gcode"), opts)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidOption, errors.GetCode(err))
}

func TestExecuteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRunner(nil, nil, nil).Execute(ctx, readFixture(t, "bambu.gcode"), DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteMemo(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(fileCache(t), nil, nil)
	defer r.Close()
	data := readFixture(t, "prusa.gcode")

	first, err := r.Execute(ctx, data, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.OutputHit)

	second, err := r.Execute(ctx, data, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.OutputHit)
	assert.Equal(t, first.Output, second.Output)
	assert.Equal(t, first.Stats.Transform, second.Stats.Transform)
	assert.Nil(t, second.Program)

	opts := DefaultOptions()
	opts.Refresh = true
	third, err := r.Execute(ctx, data, opts)
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.OutputHit)
	assert.Equal(t, first.Output, third.Output)

	opts = DefaultOptions()
	opts.Transform.WallReorder = true
	fourth, err := r.Execute(ctx, data, opts)
	require.NoError(t, err)
	assert.False(t, fourth.CacheInfo.OutputHit, "different options must not share an entry")
}

func TestAnalyze(t *testing.T) {
	data := readFixture(t, "prusa.gcode")
	res, err := NewRunner(nil, nil, nil).Analyze(context.Background(), data, DefaultOptions())
	require.NoError(t, err)
	assert.Nil(t, res.Output)
	assert.Equal(t, "prusa", res.Stats.Dialect)
	assert.Len(t, res.Layers, res.Stats.Layers)
	assert.Equal(t, res.Stats.ExtrusionIn, res.Stats.ExtrusionOut)
	assert.Positive(t, res.Stats.Features["infill"])
}

// =============================================================================
// Files
// =============================================================================

func TestProcessFileRestore(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(fileCache(t), nil, nil)
	path, original := copyFixture(t, "bambu.gcode")

	res, err := r.ProcessFile(ctx, path, DefaultOptions(), FileOptions{})
	require.NoError(t, err)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, res.Output, written)
	assert.NotEqual(t, original, written)

	rep, ok := r.Lookup(ctx, written)
	require.True(t, ok)
	assert.Equal(t, res.RunID, rep.RunID)
	assert.Equal(t, path, rep.File)
	assert.True(t, strings.HasPrefix(rep.Tool, "bricklayers "))

	again, err := r.ProcessFile(ctx, path, DefaultOptions(), FileOptions{})
	require.NoError(t, err)
	require.NotNil(t, again.Skipped)
	assert.Equal(t, res.RunID, again.Skipped.RunID)
	assert.Nil(t, again.Output)
	require.Len(t, again.Warnings, 1)
	assert.Equal(t, errors.WarnAlreadyProcessed, again.Warnings[0].Code)
	unchanged, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written, unchanged)

	require.NoError(t, r.Restore(ctx, path))
	restored, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, restored)

	err = r.Restore(ctx, path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))

	// Restored files can be processed again.
	_, err = r.ProcessFile(ctx, path, DefaultOptions(), FileOptions{})
	require.NoError(t, err)
}

func TestProcessFileForce(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(fileCache(t), nil, nil)
	path, _ := copyFixture(t, "bambu.gcode")

	_, err := r.ProcessFile(ctx, path, DefaultOptions(), FileOptions{})
	require.NoError(t, err)
	res, err := r.ProcessFile(ctx, path, DefaultOptions(), FileOptions{Force: true})
	require.NoError(t, err)
	assert.Nil(t, res.Skipped)
	assert.NotEmpty(t, res.Output)
}

func TestProcessFileDryRun(t *testing.T) {
	r := NewRunner(fileCache(t), nil, nil)
	path, original := copyFixture(t, "prusa.gcode")

	res, err := r.ProcessFile(context.Background(), path, DefaultOptions(), FileOptions{DryRun: true})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Output)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	_, ok := r.Lookup(context.Background(), res.Output)
	assert.False(t, ok, "dry runs record nothing")
}

func TestProcessFileOutput(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	path, original := copyFixture(t, "prusa.gcode")
	dest := filepath.Join(t.TempDir(), "out.gcode")

	res, err := r.ProcessFile(context.Background(), path, DefaultOptions(), FileOptions{Output: dest})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, data)

	out, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, res.Output, out)
}

func TestProcessFileUnchangedIsNotMarked(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(fileCache(t), nil, nil)
	path, original := copyFixture(t, "generic.gcode")

	opts := DefaultOptions()
	opts.Transform.BrickShift = false
	res, err := r.ProcessFile(ctx, path, opts, FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, original, res.Output)

	_, err = r.ProcessFile(ctx, path, DefaultOptions(), FileOptions{})
	require.NoError(t, err)
}

func TestProcessFileMalformedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.gcode")
	input := []byte("G90\nG1 Z.2\nG1 X1.2.3 Y4\n")
	require.NoError(t, os.WriteFile(path, input, 0o644))

	_, err := NewRunner(nil, nil, nil).ProcessFile(context.Background(), path, DefaultOptions(), FileOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeMalformedLine))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, input, data)
}

func TestProcessFileMissing(t *testing.T) {
	_, err := NewRunner(nil, nil, nil).ProcessFile(context.Background(),
		filepath.Join(t.TempDir(), "missing.gcode"), DefaultOptions(), FileOptions{})
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.GetCode(err))
}

// =============================================================================
// Reports and hooks
// =============================================================================

func TestReport(t *testing.T) {
	res, err := NewRunner(nil, nil, nil).Execute(context.Background(), readFixture(t, "bambu.gcode"), DefaultOptions())
	require.NoError(t, err)

	rep := res.Report("part.gcode", DefaultOptions())
	assert.Equal(t, "part.gcode", rep.File)
	assert.Equal(t, res.RunID, rep.RunID)
	assert.Equal(t, "bambu", rep.Dialect)
	assert.NotNil(t, rep.Warnings)
	assert.WithinDuration(t, time.Now(), rep.CreatedAt, time.Minute)

	var buf bytes.Buffer
	require.NoError(t, bio.WriteReport(&buf, rep, bio.FormatYAML))
	assert.Contains(t, buf.String(), "shifted_layers: 1")
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) add(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnParseStart(context.Context, int) { h.add("parse-start") }
func (h *recordingHooks) OnParseComplete(context.Context, int, time.Duration, error) {
	h.add("parse-complete")
}
func (h *recordingHooks) OnTransformStart(context.Context, int) { h.add("transform-start") }
func (h *recordingHooks) OnTransformComplete(context.Context, int, time.Duration) {
	h.add("transform-complete")
}
func (h *recordingHooks) OnEmitComplete(context.Context, int, time.Duration) { h.add("emit") }

func TestExecuteCallsHooks(t *testing.T) {
	observability.Reset()
	defer observability.Reset()
	h := &recordingHooks{}
	observability.SetPipelineHooks(h)

	_, err := NewRunner(nil, nil, nil).Execute(context.Background(), readFixture(t, "bambu.gcode"), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"parse-start", "parse-complete", "transform-start", "transform-complete", "emit"}, h.events)
}
