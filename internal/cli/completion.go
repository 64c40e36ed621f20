package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bricklayers/pkg/pipeline"
	"github.com/matzehuels/bricklayers/pkg/transform"
)

// gcodeExtensions are offered when completing a file argument.
var gcodeExtensions = []string{"gcode", "gco", "g"}

// registerCompletions adds completions for the file argument and the flags
// with a fixed set of values.
func registerCompletions(cmd *cobra.Command) {
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return gcodeExtensions, cobra.ShellCompDirectiveFilterFileExt
	}
	fixed := map[string][]string{
		flagDialect:     pipeline.Dialects(),
		flagWallOrder:   transform.WallOrders(),
		flagBrickShift:  {"0", "1"},
		flagNonPlanar:   {"0", "1"},
		flagWallReorder: {"0", "1"},
	}
	for name, values := range fixed {
		if cmd.Flags().Lookup(name) == nil {
			continue
		}
		_ = cmd.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(values, cobra.ShellCompDirectiveNoFileComp))
	}
	if cmd.Flags().Lookup(flagConfig) != nil {
		_ = cmd.RegisterFlagCompletionFunc(flagConfig, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"toml"}, cobra.ShellCompDirectiveFilterFileExt
		})
	}
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for bricklayers.

To load completions:

Bash:
  $ source <(bricklayers completion bash)

  # To load completions for each session, execute once:
  $ bricklayers completion bash > /etc/bash_completion.d/bricklayers

Zsh:
  $ bricklayers completion zsh > "${fpath[1]}/_bricklayers"

Fish:
  $ bricklayers completion fish | source

  # To load completions for each session, execute once:
  $ bricklayers completion fish > ~/.config/fish/completions/bricklayers.fish

PowerShell:
  PS> bricklayers completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}
