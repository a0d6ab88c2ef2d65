package securelog

import (
	"io"

	"github.com/spf13/cobra"
)

var completionShells = map[string]func(io.Writer) error{
	"bash": func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
	"zsh":  rootCmd.GenZshCompletion,
	"fish": func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
	"powershell": func(w io.Writer) error {
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	},
}

func init() {
	cmd := &cobra.Command{
		Use:   "completion bash|zsh|fish|powershell",
		Short: "Print a shell completion script for securelog",
		Long: "Completion prints a script that completes securelog subcommands, flags " +
			"and detector names for test-detector. Source it from your shell profile.",
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionShells[args[0]](cmd.OutOrStdout())
		},
		Example: `  source <(securelog completion bash)
  securelog completion zsh > "${fpath[1]}/_securelog"
  securelog completion fish | source`,
	}
	rootCmd.AddCommand(cmd)
}
