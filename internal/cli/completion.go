package cli

import (
	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for sshmenu. Aliases from your SSH
config complete after 'connect' and 'show'.

Examples:
  # Bash
  sshmenu completion bash > /etc/bash_completion.d/sshmenu

  # Zsh
  sshmenu completion zsh > "${fpath[1]}/_sshmenu"

  # Fish
  sshmenu completion fish > ~/.config/fish/completions/sshmenu.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrInput,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

// completeAliases offers SSH config aliases for the first argument.
func completeAliases(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	app, err := newApp(cmd, true)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, h := range app.Hosts {
		out = append(out, h.Alias+"\t"+h.Description)
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func init() {
	connectCmd.ValidArgsFunction = completeAliases
	showCmd.ValidArgsFunction = completeAliases
	hostSetCmd.ValidArgsFunction = completeAliases
	rootCmd.AddCommand(completionCmd)
}
