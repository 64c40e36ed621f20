package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bricklayers/pkg/errors"
	"github.com/matzehuels/bricklayers/pkg/feature"
	"github.com/matzehuels/bricklayers/pkg/io"
	"github.com/matzehuels/bricklayers/pkg/layer"
	"github.com/matzehuels/bricklayers/pkg/pipeline"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

const formatText = "text"

// inspectOpts holds the command-line flags for the inspect command.
type inspectOpts struct {
	transformFlags
	format      string // text, json or yaml
	interactive bool   // browse layers in a TUI
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := inspectOpts{transformFlags: defaultTransformFlags(), format: formatText}

	cmd := &cobra.Command{
		Use:   "inspect <file.gcode>",
		Short: "Show the layers of a file and what processing would change",
		Long: `Show the layers of a G-code file.

Every layer is listed with its height, its extruding moves per feature and
the actions the given options would apply to it: shift (walls raised by half
a layer), wave (non-planar infill) and the wall order. The file is not
modified.

Use --format json or yaml for machine-readable output, or --interactive to
browse the layers and their moves.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateChoice("format", opts.format, formatText, io.FormatJSON, io.FormatYAML); err != nil {
				return err
			}
			if err := opts.resolve(cmd.Flags(), c.Logger); err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text, json, yaml")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse layers interactively")
	registerCompletions(cmd)
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{formatText, io.FormatJSON, io.FormatYAML}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

// runInspect analyzes the file and prints the result.
func (c *CLI) runInspect(ctx context.Context, path string, opts inspectOpts) error {
	popts, err := opts.options()
	if err != nil {
		return err
	}
	data, err := io.ReadGCode(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	res, err := runner.Analyze(ctx, data, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Analyzed %d layers", len(res.Layers)))

	ins := newInspection(path, res, popts.Transform)
	if rep, ok := runner.Lookup(ctx, data); ok {
		ins.Processed = rep
	}

	switch {
	case opts.interactive:
		_, err := tea.NewProgram(newLayerBrowserModel(ins, res.Layers), tea.WithAltScreen()).Run()
		return err
	case opts.format == formatText:
		printInspection(ins)
		return nil
	default:
		return io.WriteReport(os.Stdout, ins, opts.format)
	}
}

// =============================================================================
// Inspection Model
// =============================================================================

// inspection is what inspect reports about a file.
type inspection struct {
	File            string           `json:"file" yaml:"file"`
	Dialect         string           `json:"dialect" yaml:"dialect"`
	DialectDetected bool             `json:"dialect_detected" yaml:"dialect_detected"`
	Lines           int              `json:"lines" yaml:"lines"`
	BodyLayers      int              `json:"body_layers" yaml:"body_layers"`
	Features        map[string]int   `json:"features" yaml:"features"`
	Extrusion       float64          `json:"extrusion" yaml:"extrusion"`
	Options         transform.Config `json:"options" yaml:"options"`
	Processed       *pipeline.Report `json:"processed,omitempty" yaml:"processed,omitempty"`
	Layers          []layerSummary   `json:"layers" yaml:"layers"`
	Warnings        []errors.Warning `json:"warnings" yaml:"warnings"`
}

// layerSummary describes one layer.
type layerSummary struct {
	Index     int      `json:"index" yaml:"index"`
	Z         float64  `json:"z" yaml:"z"`
	Kind      string   `json:"kind" yaml:"kind"`
	Lines     int      `json:"lines" yaml:"lines"`
	OuterWall int      `json:"outer_wall" yaml:"outer_wall"`
	InnerWall int      `json:"inner_wall" yaml:"inner_wall"`
	Infill    int      `json:"infill" yaml:"infill"`
	Other     int      `json:"other" yaml:"other"`
	Extrusion float64  `json:"extrusion" yaml:"extrusion"`
	Actions   []string `json:"actions" yaml:"actions"`
}

func newInspection(path string, res *pipeline.Result, cfg transform.Config) inspection {
	ins := inspection{
		File:            path,
		Dialect:         res.Stats.Dialect,
		DialectDetected: res.Stats.DialectDetected,
		Lines:           res.Stats.Lines,
		BodyLayers:      res.Stats.BodyLayers,
		Features:        res.Stats.Features,
		Extrusion:       res.Stats.ExtrusionIn,
		Options:         cfg,
		Layers:          make([]layerSummary, len(res.Layers)),
		Warnings:        res.Warnings,
	}
	if ins.Warnings == nil {
		ins.Warnings = []errors.Warning{}
	}
	for i, l := range res.Layers {
		ins.Layers[i] = summarize(l, cfg)
	}
	return ins
}

func summarize(l *layer.Layer, cfg transform.Config) layerSummary {
	counts := l.Count()
	return layerSummary{
		Index:     l.Index,
		Z:         l.NominalZ,
		Kind:      l.Kind.String(),
		Lines:     len(l.Entries),
		OuterWall: counts[feature.OuterWall],
		InnerWall: counts[feature.InnerWall],
		Infill:    counts[feature.Infill],
		Other:     counts[feature.Other],
		Extrusion: l.Deposit(),
		Actions:   actions(l, cfg, counts),
	}
}

// actions lists what the transformers would do with l.
func actions(l *layer.Layer, cfg transform.Config, counts map[feature.Tag]int) []string {
	out := []string{}
	if cfg.Shifted(l) {
		out = append(out, "shift")
	}
	if cfg.NonPlanar && l.Transformable() && counts[feature.Infill] > 0 {
		out = append(out, "wave")
	}
	if order := cfg.OrderFor(l); order != transform.OrderKeep {
		out = append(out, order.String())
	}
	return out
}

// =============================================================================
// Text Output
// =============================================================================

func printInspection(ins inspection) {
	fmt.Println(StyleTitle.Render(ins.File))
	dialect := ins.Dialect
	if !ins.DialectDetected {
		dialect += StyleDim.Render(" (assumed)")
	}
	printKeyValue("Dialect", dialect)
	printKeyValue("Lines", numbers.Sprintf("%d", ins.Lines))
	printKeyValue("Layers", numbers.Sprintf("%d (%d transformable)", len(ins.Layers), ins.BodyLayers))
	printKeyValue("Extrusion", numbers.Sprintf("%.2f mm", ins.Extrusion))
	if ins.Processed != nil {
		printKeyValue("Processed", StyleWarning.Render(fmt.Sprintf("by %s on %s",
			ins.Processed.Tool, ins.Processed.CreatedAt.Local().Format("2006-01-02 15:04"))))
	}
	printNewline()

	fmt.Println(layerTable(ins.Layers, -1).Render())
	printWarnings(ins.Warnings)
}

// layerTable renders the layer summaries. The row at cursor is highlighted;
// pass -1 for none.
func layerTable(layers []layerSummary, cursor int) *table.Table {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(layers))
	for i, l := range layers {
		rows[i] = layerRow(l)
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layer", "Z", "Kind", "Outer", "Inner", "Infill", "Other", "Extrusion", "Actions").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col >= 3 && col <= 7 {
				base = base.Align(lipgloss.Right)
			}
			if row == cursor {
				return base.Foreground(colorCyan).Bold(true)
			}
			if row < len(layers) && layers[row].Kind != layer.Body.String() {
				return base.Foreground(colorDim)
			}
			if col == 8 {
				return base.Foreground(colorGreen)
			}
			return base
		})
}

func layerRow(l layerSummary) []string {
	acts := strings.Join(l.Actions, ", ")
	if acts == "" {
		acts = "—"
	}
	return []string{
		strconv.Itoa(l.Index),
		strconv.FormatFloat(l.Z, 'f', -1, 64),
		l.Kind,
		numbers.Sprintf("%d", l.OuterWall),
		numbers.Sprintf("%d", l.InnerWall),
		numbers.Sprintf("%d", l.Infill),
		numbers.Sprintf("%d", l.Other),
		numbers.Sprintf("%.2f", l.Extrusion),
		acts,
	}
}
