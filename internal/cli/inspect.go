package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/pptx"
)

// inspectCommand creates the inspect command that prints slide text.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <deck.pptx>",
		Short: "Print the text of each slide in a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slides, err := pptx.ReadTextFile(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for i, text := range slides {
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("Slide %d", i+1)))
				for _, line := range strings.Split(text, "\n") {
					fmt.Fprintln(w, "  "+line)
				}
			}
			c.Logger.Debug("inspected deck", "path", args[0], "slides", len(slides))
			return nil
		},
	}
}
