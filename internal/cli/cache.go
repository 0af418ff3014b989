package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/cache"
	"github.com/matzehuels/tokendeck/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the extraction cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached extraction results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.Config.Cache.Backend == config.BackendNone {
				printInfo("Cache is disabled")
				return nil
			}
			store, err := c.openCache(cmd.Context(), false)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			cl, ok := store.(cache.Clearer)
			if !ok {
				return fmt.Errorf("the %s cache cannot be cleared", c.Config.Cache.Backend)
			}
			if err := cl.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cleared %s cache", c.Config.Cache.Backend)
			if c.Config.Cache.Backend == config.BackendFile {
				dir, _ := c.Config.CachePath()
				printDetail("Directory: %s", dir)
			}
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := c.Config.Cache
			switch cc.Backend {
			case config.BackendRedis:
				fmt.Fprintf(cmd.OutOrStdout(), "redis://%s/%d\n", cc.RedisAddr, cc.RedisDB)
			case config.BackendNone:
				printInfo("Cache is disabled")
			default:
				dir, err := c.Config.CachePath()
				if err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
}
