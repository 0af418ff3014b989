package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/imageset"
)

// runOpts holds the command-line flags for the run and pick commands.
type runOpts struct {
	renderOpts
	refresh bool
	noCache bool
}

func (o *runOpts) addFlags(cmd *cobra.Command) {
	o.renderOpts.addFlags(cmd)
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached extraction results")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the extraction cache")
}

// runCommand creates the run command that executes the full pipeline.
func (c *CLI) runCommand() *cobra.Command {
	var opts runOpts

	cmd := &cobra.Command{
		Use:   "run <images|dirs...>",
		Short: "Extract tokens from images and build a deck",
		Long: `Run the full pipeline: upload the images, extract token groups, lay them out
and write the deck. Directories are expanded to the images they contain.
Every run is recorded in the history.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := imageset.Expand(args)
			if err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), paths, opts)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

// runPipeline executes the pipeline on paths and prints the outcome.
func (c *CLI) runPipeline(ctx context.Context, paths []string, opts runOpts) error {
	spinner := newSpinnerWithContext(ctx, "Uploading images...")
	ex, closer, err := c.newExtractor(ctx, extractorOpts{noCache: opts.noCache, progress: spinner.Progress("Uploaded")})
	if err != nil {
		return err
	}
	defer closer.Close()

	runner, cleanup := c.newRunner(ctx, ex)
	defer cleanup()

	popts := c.pipelineOptions(opts.renderOpts)
	popts.Images = paths
	popts.Refresh = opts.refresh

	prog := newProgress(c.Logger)
	spinner.Start()
	res, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Pipeline complete")

	printSuccess("Deck complete")
	for _, f := range res.Files {
		printFile(f)
	}
	printStats(res.Stats.Images, res.Stats.Groups, res.Stats.Tokens)
	if res.RunID != "" {
		printNextStep("Details", appName+" history show "+res.RunID)
	}
	return nil
}
