package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for adjpack.

To load completions:

Bash:
  $ source <(adjpack completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ adjpack completion bash > /etc/bash_completion.d/adjpack
  # macOS:
  $ adjpack completion bash > $(brew --prefix)/etc/bash_completion.d/adjpack

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ adjpack completion zsh > "${fpath[1]}/_adjpack"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ adjpack completion fish | source

  # To load completions for each session, execute once:
  $ adjpack completion fish > ~/.config/fish/completions/adjpack.fish

PowerShell:
  PS> adjpack completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> adjpack completion powershell > adjpack.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
			return nil
		},
	}

	return cmd
}
