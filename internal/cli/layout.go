package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/tokendeck/pkg/io"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// layoutCommand creates the layout command for computing slide placements.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout <groups.json>",
		Short: "Compute slide placements for token groups",
		Long: `Compute the heading and token box placements for every group in a groups
file (as written by 'extract -o'). Page geometry and text metrics come from
the [layout] section of the configuration. Placements are printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if output != "" {
				f, err := createOutput(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return c.runLayout(args[0], w)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write placements to file instead of stdout")

	return cmd
}

// runLayout loads the groups, computes placements and writes them as JSON.
func (c *CLI) runLayout(input string, w io.Writer) error {
	groups, stats, err := pkgio.ImportGroups(input)
	if err != nil {
		return err
	}
	if stats.Skipped > 0 || stats.DroppedTokens > 0 {
		c.Logger.Warn("ignored malformed entries", "groups", stats.Skipped, "tokens", stats.DroppedTokens)
	}

	results, err := layout.LayoutAll(groups, c.Config.Page(), c.Config.Grid())
	if err != nil {
		return err
	}
	c.Logger.Debug("computed layout", "groups", len(results))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
