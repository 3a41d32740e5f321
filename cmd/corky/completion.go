// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/corky/corky/internal/services"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var completionHints = map[string]string{
	"bash":       `eval "$(corky completion bash)"  # add to ~/.bashrc`,
	"zsh":        `eval "$(corky completion zsh)"  # add to ~/.zshrc`,
	"fish":       `corky completion fish > ~/.config/fish/completions/corky.fish`,
	"powershell": `corky completion powershell | Out-String | Invoke-Expression`,
}

// newCompletionCommand creates the `corky completion` command.
func newCompletionCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for corky.

The script is written to stdout; instructions for enabling it are written
to stderr.

` + SubtitleStyle.Render("Bash:") + `
  eval "$(corky completion bash)"

` + SubtitleStyle.Render("Zsh:") + `
  eval "$(corky completion zsh)"

` + SubtitleStyle.Render("Fish:") + `
  corky completion fish > ~/.config/fish/completions/corky.fish

` + SubtitleStyle.Render("PowerShell:") + `
  corky completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			out := app.stdout
			switch args[0] {
			case "bash":
				err = cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				err = cmd.Root().GenZshCompletion(out)
			case "fish":
				err = cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				err = cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stderr, "\n# To enable %s completion:\n#   %s\n", args[0], completionHints[args[0]])
			return nil
		},
	}
}

// newCompletionItemsCommand creates the hidden command printing the installed
// service names, one per line, for shell scripts that complete selectors.
func newCompletionItemsCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:    "completion-items",
		Short:  "Print installed service names for completion",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := app.serviceNames(cmd.Context())
			if err != nil {
				return classifyError(err, app.flags.verbose)
			}
			for _, name := range names {
				fmt.Fprintln(app.stdout, name)
			}
			return nil
		},
	}
}

// completeSelectors completes a selector argument with installed service
// names and the selector keywords.
func completeSelectors(app *App) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names, err := app.serviceNames(cmd.Context())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		candidates := append(names, services.Keywords()...)
		return lo.Filter(candidates, func(c string, _ int) bool {
			return strings.HasPrefix(c, toComplete)
		}), cobra.ShellCompDirectiveNoFileComp
	}
}

func (a *App) serviceNames(ctx context.Context) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.directory.Names(ctx), nil
}
