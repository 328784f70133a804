package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flametower/pkg/store"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flametower.

To load completions:

Bash:
  $ source <(flametower completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ flametower completion bash > /etc/bash_completion.d/flametower
  # macOS:
  $ flametower completion bash > $(brew --prefix)/etc/bash_completion.d/flametower

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ flametower completion zsh > "${fpath[1]}/_flametower"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ flametower completion fish | source

  # To load completions for each session, execute once:
  $ flametower completion fish > ~/.config/fish/completions/flametower.fish

PowerShell:
  PS> flametower completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> flametower completion powershell > flametower.ps1
  # and source this file from your PowerShell profile.
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

// completePresetNames completes the first argument with stored preset names.
func (c *CLI) completePresetNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	err := c.withPresets(cmd, func(p *store.Presets) error {
		all, err := p.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range all {
			if strings.HasPrefix(name, toComplete) {
				names = append(names, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
