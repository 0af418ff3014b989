package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/server"
)

// serveCommand creates the serve command that runs the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service",
		Long: `Serve layout, rendering, extraction and run history over HTTP.
Extraction is enabled only when an API key is configured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sc := c.Config.Server
			if addr == "" {
				addr = sc.Addr
			}

			store, err := c.openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			opts := []server.Option{server.WithHistory(store), server.WithLogger(c.Logger)}
			ex, closer, err := c.newExtractor(ctx, extractorOpts{})
			if err != nil {
				c.Logger.Warn("extraction disabled", "err", err)
			} else {
				defer closer.Close()
				opts = append(opts, server.WithExtractor(ex))
			}

			srv := server.New(server.Config{
				Addr:              addr,
				ReadTimeout:       sc.ReadTimeout.Duration,
				MaxUploadBytes:    int64(sc.MaxUploadMB) << 20,
				MaxImageDimension: c.Config.Gemini.MaxImageDimension,
				Page:              c.Config.Page(),
				Grid:              c.Config.Grid(),
			}, opts...)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: [server] addr)")

	return cmd
}
