package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/imageset"
	pkgio "github.com/matzehuels/tokendeck/pkg/io"
	"github.com/matzehuels/tokendeck/pkg/layout"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	output  string // groups file (stdout if empty)
	refresh bool   // ignore cached results
	noCache bool   // neither read nor write the cache
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract <images|dirs...>",
		Short: "Extract token groups from images",
		Long: `Upload the images to the vision API and print the token groups it returns.
Directories are expanded to the .jpg, .jpeg and .png files they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := c.runExtract(cmd.Context(), args, opts)
			if err != nil {
				return err
			}
			if opts.output == "" {
				return pkgio.WriteGroups(groups, cmd.OutOrStdout())
			}
			if err := pkgio.ExportGroups(groups, opts.output); err != nil {
				return err
			}
			printSuccess("Extracted %d groups", len(groups))
			printFile(opts.output)
			printNextStep("Build a deck with", appName+" render "+opts.output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write groups JSON to file instead of stdout")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the extraction cache")

	return cmd
}

func (c *CLI) runExtract(ctx context.Context, args []string, opts extractOpts) ([]layout.TokenGroup, error) {
	paths, err := imageset.Expand(args)
	if err != nil {
		return nil, err
	}
	set, err := imageset.NewSet(paths...)
	if err != nil {
		return nil, err
	}
	images, err := imageset.LoadSet(ctx, set, c.Config.Gemini.MaxImageDimension)
	if err != nil {
		return nil, err
	}

	spinner := newSpinnerWithContext(ctx, "Uploading images...")
	ex, closer, err := c.newExtractor(ctx, extractorOpts{noCache: opts.noCache, progress: spinner.Progress("Uploaded")})
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	if opts.refresh {
		ex = refreshing(ex)
	}

	prog := newProgress(c.Logger)
	spinner.Start()
	groups, err := ex.Extract(ctx, images)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Extracted %d groups", len(groups)))
	return groups, nil
}
