package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/layer"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// tagStyles colors the feature column of the move view.
var tagStyles = map[feature.Tag]lipgloss.Style{
	feature.OuterWall: lipgloss.NewStyle().Foreground(colorCyan),
	feature.InnerWall: StyleHighlight,
	feature.Infill:    lipgloss.NewStyle().Foreground(colorGreen),
	feature.Travel:    listDimStyle,
	feature.Other:     listDimStyle,
}

// =============================================================================
// LayerBrowserModel - Interactive layer browser
// =============================================================================

// LayerBrowserModel is the bubbletea model for browsing the layers of a file.
// Enter opens the moves of the selected layer.
type LayerBrowserModel struct {
	ins    inspection
	layers []*layer.Layer

	Cursor int
	Offset int
	Height int

	detail bool // showing the moves of the selected layer
	scroll int  // first visible line of the move view
}

// newLayerBrowserModel creates a browser over the summaries in ins. layers
// holds the entries behind each summary, in the same order.
func newLayerBrowserModel(ins inspection, layers []*layer.Layer) LayerBrowserModel {
	return LayerBrowserModel{
		ins:    ins,
		layers: layers,
		Height: 15,
	}
}

func (m LayerBrowserModel) Init() tea.Cmd {
	return nil
}

func (m LayerBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.detail {
			return m.updateDetail(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.ins.Layers)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "tab":
			if m.Cursor < len(m.layers) {
				m.detail = true
				m.scroll = 0
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m LayerBrowserModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(m.layers[m.Cursor].Entries) - m.Height
	if last < 0 {
		last = 0
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc", "enter", "tab":
		m.detail = false
	case "up", "k":
		if m.scroll > 0 {
			m.scroll--
		}
	case "down", "j":
		if m.scroll < last {
			m.scroll++
		}
	case "pgup", "b":
		m.scroll = max(m.scroll-m.Height, 0)
	case "pgdown", "f", " ":
		m.scroll = min(m.scroll+m.Height, last)
	case "home", "g":
		m.scroll = 0
	case "end", "G":
		m.scroll = last
	}
	return m, nil
}

func (m LayerBrowserModel) View() string {
	if m.detail {
		return m.detailView()
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.ins.File))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ moves  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.ins.Layers))
	b.WriteString(layerTable(m.ins.Layers[m.Offset:end], m.Cursor-m.Offset).Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.ins.Layers))))

	return b.String()
}

func (m LayerBrowserModel) detailView() string {
	l := m.layers[m.Cursor]
	s := m.ins.Layers[m.Cursor]

	var b strings.Builder
	b.WriteString(StyleTitle.Render(fmt.Sprintf("Layer %d", s.Index)))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  Z %g · %s", s.Z, s.Kind)))
	if len(s.Actions) > 0 {
		b.WriteString("  " + StyleSuccess.Render(strings.Join(s.Actions, ", ")))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ scroll  pgup/pgdn page  ⏎ back  q quit"))
	b.WriteString("\n\n")

	end := min(m.scroll+m.Height, len(l.Entries))
	for _, e := range l.Entries[m.scroll:end] {
		b.WriteString(entryLine(e))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d-%d/%d]", min(m.scroll+1, end), end, len(l.Entries))))
	return b.String()
}

// entryLine renders one move: source line, feature and text.
func entryLine(e *layer.Entry) string {
	style, ok := tagStyles[e.Tag]
	if !ok {
		style = listDimStyle
	}
	line := listDimStyle.Render(fmt.Sprintf("%7d", e.Line))
	if e.Line == 0 {
		line = listDimStyle.Render(fmt.Sprintf("%7s", "+"))
	}
	text := listNormalStyle.Render(e.Text())
	switch {
	case e.Synthesized():
		text = listSelectedStyle.Render(e.Text())
	case !e.Moves():
		text = listDimStyle.Render(e.Text())
	}
	return fmt.Sprintf("%s  %s  %s", line, style.Render(fmt.Sprintf("%-10s", e.Tag)), text)
}
