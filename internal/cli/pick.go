package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/imageset"
)

// pickCommand creates the pick command: choose images interactively, then
// run the pipeline on them.
func (c *CLI) pickCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "pick [dir]",
		Short: "Choose images interactively and build a deck",
		Long: `List the images in dir (default: the current directory), let you choose which
ones to process, then run the full pipeline on the selection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			paths, err := imageset.Collect(dir)
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "list %s", dir)
			}
			if len(paths) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "no .jpg, .jpeg or .png images in %s", dir)
			}

			p := tea.NewProgram(NewImagePickerModel(NewPickItems(paths)), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				return err
			}
			chosen := final.(ImagePickerModel).Chosen()
			if len(chosen) == 0 {
				printInfo("Nothing selected")
				return nil
			}
			printInfo("Processing %d of %d images", len(chosen), len(paths))
			return c.runPipeline(cmd.Context(), chosen, opts)
		},
	}
	opts.addFlags(cmd)

	return cmd
}
