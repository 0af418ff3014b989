package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/deck/sink"
	"github.com/matzehuels/tokendeck/pkg/history"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for ` + appName + `.

  $ source <(` + appName + ` completion bash)
  $ ` + appName + ` completion zsh > "${fpath[1]}/_` + appName + `"
  $ ` + appName + ` completion fish | source
  PS> ` + appName + ` completion powershell | Out-String | Invoke-Expression

Besides commands and flags, completion offers deck formats for --format and
recent run IDs for 'history show'.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Generating a script needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}

	return cmd
}

// completeFormats offers deck formats for --format. The flag takes a
// comma-separated list, so earlier entries are kept as a prefix.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix, last := "", toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix, last = toComplete[:i+1], toComplete[i+1:]
	}
	var out []string
	for _, f := range sink.Formats {
		if strings.HasPrefix(string(f), last) && !strings.Contains(","+prefix, ","+string(f)+",") {
			out = append(out, prefix+string(f))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

// completeRunIDs offers recorded run IDs, newest first, described by
// creation time and status. Completion skips PersistentPreRunE, so the
// configuration is loaded here.
func (c *CLI) completeRunIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	const directive = cobra.ShellCompDirectiveNoFileComp
	if len(args) > 0 {
		return nil, directive
	}
	if err := c.setup(); err != nil {
		return nil, directive
	}
	defer c.teardown()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := c.openHistory(ctx)
	if err != nil {
		return nil, directive
	}
	defer store.Close()

	runs, err := store.List(ctx, history.DefaultListLimit)
	if err != nil {
		return nil, directive
	}
	var out []string
	for _, r := range runs {
		if strings.HasPrefix(r.ID, toComplete) {
			out = append(out, r.ID+"\t"+r.CreatedAt.Local().Format("2006-01-02 15:04")+" "+string(r.Status))
		}
	}
	return out, directive
}
