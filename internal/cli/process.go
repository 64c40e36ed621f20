package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bricklayers/pkg/io"
	"github.com/matzehuels/bricklayers/pkg/pipeline"
)

// processOpts holds the command-line flags for processing a file.
type processOpts struct {
	transformFlags
	output  string // write here instead of replacing the input
	report  string // run report path (.json, .yaml)
	dryRun  bool   // run everything but write nothing
	force   bool   // process files the tool already wrote
	noCache bool   // disable the cache (no memo, no restore)
}

// processCommand creates the root command, which rewrites one file.
func (c *CLI) processCommand() *cobra.Command {
	opts := processOpts{transformFlags: defaultTransformFlags()}

	cmd := &cobra.Command{
		Use:   "bricklayers [flags] <file.gcode>",
		Short: "Bricklayers rewrites G-code for stronger prints",
		Long: `Bricklayers post-processes sliced G-code for stronger parts.

Walls of every other layer are raised by half a layer height so that wall
lines interlock like bricks in a wall. Optionally, sparse infill follows a
sine wave in Z (--nonPlanar 1) and wall loops are reordered
(--wallReorder 1).

The file is rewritten in place, which is how slicers run post-processing
scripts. Add this to the slicer's post-processing scripts:

  bricklayers -layerHeight 0.2 -extrusionMultiplier 1.0

The original is kept in the local cache; 'bricklayers restore <file>' puts
it back. A file the tool already wrote is left untouched unless --force is
given. Use --no-cache to keep no state beyond the rewritten file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolve(cmd.Flags(), c.Logger); err != nil {
				return err
			}
			return c.runProcess(cmd.Context(), args[0], opts)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the result here instead of replacing the input")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a run report (.json or .yaml)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "process the file but write nothing")
	cmd.Flags().BoolVar(&opts.force, "force", false, "process files that were already processed")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching (no restore possible)")
	registerCompletions(cmd)

	return cmd
}

// runProcess rewrites the file at path.
func (c *CLI) runProcess(ctx context.Context, path string, opts processOpts) error {
	popts, err := opts.options()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Processing %s...", filepath.Base(path)))
	spinner.Start()

	result, err := runner.ProcessFile(ctx, path, popts, pipeline.FileOptions{
		Output: opts.output,
		DryRun: opts.dryRun,
		Force:  opts.force,
	})
	if err != nil {
		spinner.StopWithError("Processing failed")
		return err
	}
	spinner.Stop()

	if result.Skipped != nil {
		printWarning("%s was already processed, left untouched", filepath.Base(path))
		printWarnings(result.Warnings)
		return nil
	}

	dest := path
	if opts.output != "" {
		dest = opts.output
	}

	if opts.dryRun {
		printInfo("Dry run: %s was not modified", path)
	} else {
		printSuccess("Processed %s", filepath.Base(path))
		printFile(dest)
	}
	printStats(result.Stats, result.CacheInfo.OutputHit)
	printWarnings(result.Warnings)

	if opts.report != "" {
		if err := io.ExportReport(opts.report, result.Report(dest, popts)); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		printFile(opts.report)
	}
	return nil
}
