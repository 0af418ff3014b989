package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/errors"
	pkgio "github.com/matzehuels/tokendeck/pkg/io"
	"github.com/matzehuels/tokendeck/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render and run commands.
type renderOpts struct {
	output  string // deck file name; timestamped when empty
	dir     string // output directory; [output] dir when empty
	formats string // comma-separated: pptx, json, txt
	title   string // deck title; the file stem when empty
}

func (o *renderOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "deck file name (default: output_YYYYMMDD_HHMMSS.pptx)")
	cmd.Flags().StringVarP(&o.dir, "dir", "d", "", "output directory (default: [output] dir)")
	cmd.Flags().StringVarP(&o.formats, "format", "f", "", "output format(s): pptx, json, txt (comma-separated)")
	cmd.Flags().StringVar(&o.title, "title", "", "deck title (default: file name)")
	cmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func (c *CLI) pipelineOptions(o renderOpts) pipeline.Options {
	return pipeline.Options{
		Output:       o.output,
		OutputDir:    c.outputDir(o.dir),
		Formats:      c.parseFormats(o.formats),
		Title:        o.title,
		MaxDimension: c.Config.Gemini.MaxImageDimension,
		Logger:       c.Logger,
	}
}

// renderCommand creates the render command that builds a deck from groups.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <groups.json>",
		Short: "Build a slide deck from token groups",
		Long: `Build a deck with one slide per group from a groups file (as written by
'extract -o'). Entries without a figure_name are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}
	opts.addFlags(cmd)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	groups, stats, err := pkgio.ImportGroups(input)
	if err != nil {
		return err
	}
	if stats.Skipped > 0 || stats.DroppedTokens > 0 {
		c.Logger.Warn("ignored malformed entries", "groups", stats.Skipped, "tokens", stats.DroppedTokens)
	}

	// Rendering alone is not recorded, so no history store is opened.
	runner := pipeline.NewRunner(nil, c.Config.Page(), c.Config.Grid(), nil, c.Logger)
	res, err := runner.RenderGroups(ctx, groups, c.pipelineOptions(opts))
	if err != nil {
		return err
	}

	printSuccess("Deck complete")
	for _, f := range res.Files {
		printFile(f)
	}
	printStats(0, res.Stats.Groups, res.Stats.Tokens)
	return nil
}

// createOutput creates path and its parent directories.
func createOutput(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	return f, nil
}
