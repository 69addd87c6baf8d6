package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoinstall/pkg/modules"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for autoinstall.

Bash:
  $ source <(autoinstall completion bash)

Zsh:
  $ autoinstall completion zsh > "${fpath[1]}/_autoinstall"

Fish:
  $ autoinstall completion fish > ~/.config/fish/completions/autoinstall.fish

PowerShell:
  PS> autoinstall completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}

	return cmd
}

// completeProjectDir completes the optional [dir] argument with directories.
func completeProjectDir(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveFilterDirs
}

// completePackageManager completes the --package-manager flag.
func completePackageManager(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"yarn", "npm"}, cobra.ShellCompDirectiveNoFileComp
}

// completeCollection completes the --only flag of status.
func completeCollection(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, c := range modules.Collections() {
		names = append(names, c.String())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
