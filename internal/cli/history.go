package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/history"
)

// historyCommand creates the history command group.
func (c *CLI) historyCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and show recorded pipeline runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistoryList(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "number of runs to list")

	cmd.AddCommand(c.historyListCommand())
	cmd.AddCommand(c.historyShowCommand())

	return cmd
}

// historyListCommand creates the "history list" subcommand.
func (c *CLI) historyListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistoryList(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultListLimit, "number of runs to list")
	return cmd
}

// historyShowCommand creates the "history show" subcommand.
func (c *CLI) historyShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <id>",
		Short:             "Show one run",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeRunIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printRun(run)
			return nil
		},
	}
}

func (c *CLI) runHistoryList(ctx context.Context, w io.Writer, limit int) error {
	store, err := c.openHistory(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(ctx, history.Limit(limit))
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		printInfo("No runs recorded")
		return nil
	}
	fmt.Fprintln(w, runsTable(runs))
	return nil
}

func runsTable(runs []history.Run) string {
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			string(r.Status),
			fmt.Sprint(len(r.Images)),
			fmt.Sprint(r.Groups),
			fmt.Sprint(r.Tokens),
			r.Output,
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("ID", "Created", "Status", "Images", "Slides", "Tokens", "Output").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 2 && row < len(runs) {
				if runs[row].Status == history.StatusFailed {
					return StyleError
				}
				return StyleSuccess
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func printRun(r *history.Run) {
	printKeyValue("ID", r.ID)
	printKeyValue("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	printKeyValue("Status", string(r.Status))
	if r.Model != "" {
		printKeyValue("Model", r.Model)
	}
	printKeyValue("Images", strings.Join(r.Images, ", "))
	printKeyValue("Slides", fmt.Sprint(r.Groups))
	printKeyValue("Tokens", fmt.Sprint(r.Tokens))
	if r.Output != "" {
		printKeyValue("Output", r.Output)
	}
	if r.Error != "" {
		printKeyValue("Error", StyleError.Render(r.Error))
	}
}
