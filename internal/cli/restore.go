package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

// restoreCommand creates the restore command, which puts back the file a
// previous run replaced.
func (c *CLI) restoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <file.gcode>",
		Short: "Put back the original of a processed file",
		Long: `Put back the original of a processed file.

Every run that rewrites a file keeps the original in the local cache. The
file is matched by its content, so it must not have been edited since it
was processed.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return gcodeExtensions, cobra.ShellCompDirectiveFilterFileExt
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			if err := runner.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Restored %s", filepath.Base(args[0]))
			printFile(args[0])
			return nil
		},
	}
}
