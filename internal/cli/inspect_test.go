package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/bricklayers/pkg/layer"
	"github.com/matzehuels/bricklayers/pkg/pipeline"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

func fixturePath(name string) string {
	return filepath.Join("..", "..", "pkg", "gcode", "testdata", name)
}

func analyze(t *testing.T, name string, cfg transform.Config) (inspection, *pipeline.Result) {
	t.Helper()
	data, err := os.ReadFile(fixturePath(name))
	require.NoError(t, err)

	opts := pipeline.DefaultOptions()
	opts.Transform = cfg
	res, err := pipeline.NewRunner(nil, nil, nil).Analyze(context.Background(), data, opts)
	require.NoError(t, err)
	return newInspection(name, res, cfg), res
}

func TestInspectionDefaults(t *testing.T) {
	ins, _ := analyze(t, "bambu.gcode", transform.DefaultConfig())

	assert.Equal(t, "bambu", ins.Dialect)
	assert.True(t, ins.DialectDetected)
	require.Len(t, ins.Layers, 4)
	assert.Equal(t, 2, ins.BodyLayers)
	assert.NotNil(t, ins.Warnings)

	assert.Equal(t, layer.First.String(), ins.Layers[0].Kind)
	assert.Equal(t, layer.Last.String(), ins.Layers[3].Kind)
	assert.Equal(t, []string{"shift"}, ins.Layers[1].Actions)
	assert.Empty(t, ins.Layers[2].Actions)
	assert.Empty(t, ins.Layers[0].Actions)

	body := ins.Layers[1]
	assert.Equal(t, 4, body.OuterWall)
	assert.Equal(t, 4, body.InnerWall)
	assert.Equal(t, 3, body.Infill)
	assert.Positive(t, body.Extrusion)
}

func TestInspectionActions(t *testing.T) {
	cfg := transform.DefaultConfig()
	cfg.NonPlanar = true
	cfg.WallReorder = true

	ins, _ := analyze(t, "bambu.gcode", cfg)
	require.Len(t, ins.Layers, 4)

	assert.Equal(t, []string{"shift", "wave", "inner-first"}, ins.Layers[1].Actions)
	assert.Equal(t, []string{"wave", "outer-first"}, ins.Layers[2].Actions)
	assert.Empty(t, ins.Layers[3].Actions)
}

func TestInspectionBrickShiftOff(t *testing.T) {
	cfg := transform.DefaultConfig()
	cfg.BrickShift = false

	ins, _ := analyze(t, "bambu.gcode", cfg)
	for _, l := range ins.Layers {
		assert.Empty(t, l.Actions, "layer %d", l.Index)
	}
}

func TestLayerRow(t *testing.T) {
	row := layerRow(layerSummary{Index: 3, Z: 0.6, Kind: "body", OuterWall: 1200, Extrusion: 1.5})
	assert.Equal(t, []string{"3", "0.6", "body", "1,200", "0", "0", "0", "1.50", "—"}, row)

	row = layerRow(layerSummary{Actions: []string{"shift", "wave"}})
	assert.Equal(t, "shift, wave", row[8])
}

func TestLayerTableRenders(t *testing.T) {
	ins, _ := analyze(t, "bambu.gcode", transform.DefaultConfig())
	out := layerTable(ins.Layers, 1).Render()
	assert.Contains(t, out, "Actions")
	assert.Contains(t, out, "shift")
}

// =============================================================================
// Layer Browser
// =============================================================================

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m LayerBrowserModel, msgs ...tea.Msg) (LayerBrowserModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(LayerBrowserModel)
	}
	return m, cmd
}

func TestLayerBrowserNavigation(t *testing.T) {
	ins, res := analyze(t, "bambu.gcode", transform.DefaultConfig())
	m := newLayerBrowserModel(ins, res.Layers)

	m, _ = update(t, m, key("down"), key("j"))
	assert.Equal(t, 2, m.Cursor)

	m, _ = update(t, m, key("down"), key("down"), key("down"))
	assert.Equal(t, 3, m.Cursor, "cursor stops at the last layer")

	m, _ = update(t, m, key("up"), key("k"), key("k"), key("k"))
	assert.Equal(t, 0, m.Cursor)

	assert.Contains(t, m.View(), "[1/4]")
}

func TestLayerBrowserScrollsWindow(t *testing.T) {
	ins, res := analyze(t, "bambu.gcode", transform.DefaultConfig())
	m := newLayerBrowserModel(ins, res.Layers)
	m.Height = 2

	m, _ = update(t, m, key("down"), key("down"))
	assert.Equal(t, 2, m.Cursor)
	assert.Equal(t, 1, m.Offset)

	m, _ = update(t, m, key("up"), key("up"))
	assert.Equal(t, 0, m.Offset)
}

func TestLayerBrowserDetail(t *testing.T) {
	ins, res := analyze(t, "bambu.gcode", transform.DefaultConfig())
	m := newLayerBrowserModel(ins, res.Layers)

	m, _ = update(t, m, key("down"), key("enter"))
	require.True(t, m.detail)
	view := m.View()
	assert.Contains(t, view, "Layer 1")
	assert.Contains(t, view, "G1 X10 Y0 E.5")
	assert.Contains(t, view, "outer-wall")

	m, _ = update(t, m, key("esc"))
	assert.False(t, m.detail)
	assert.Equal(t, 1, m.Cursor)
}

func TestLayerBrowserDetailScroll(t *testing.T) {
	ins, res := analyze(t, "bambu.gcode", transform.DefaultConfig())
	m := newLayerBrowserModel(ins, res.Layers)
	m.Height = 5

	m, _ = update(t, m, key("down"), key("enter"), key("j"), key("j"))
	assert.Equal(t, 2, m.scroll)

	m, _ = update(t, m, key("G"))
	assert.Equal(t, len(res.Layers[1].Entries)-5, m.scroll)

	m, _ = update(t, m, key("g"))
	assert.Equal(t, 0, m.scroll)
}

func TestLayerBrowserQuit(t *testing.T) {
	ins, res := analyze(t, "bambu.gcode", transform.DefaultConfig())
	m := newLayerBrowserModel(ins, res.Layers)

	_, cmd := update(t, m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLayerBrowserWindowSize(t *testing.T) {
	ins, res := analyze(t, "bambu.gcode", transform.DefaultConfig())
	m := newLayerBrowserModel(ins, res.Layers)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})
	assert.Equal(t, 5, m.Height)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	assert.Equal(t, 32, m.Height)
}
