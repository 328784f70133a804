package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flametower/pkg/store"
)

// cacheCommand creates the run cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached run results",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached run results (presets are kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx, false)
			if err != nil {
				return err
			}
			defer s.Close()

			cfg, err := c.loadedConfig()
			if err != nil {
				return err
			}
			keys, err := s.List(ctx, cfg.Store.Prefix+store.PrefixRun)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				printInfo("Cache is empty")
				return nil
			}

			count := 0
			for _, key := range keys {
				if err := s.Delete(ctx, key); err != nil {
					printWarning("Could not delete %s: %v", key, err)
					continue
				}
				count++
			}
			printSuccess("Cleared %d cached runs", count)
			printDetail("Backend: %s", s.Backend())
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file store directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadedConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Dir != "" {
				fmt.Println(cfg.Store.Dir)
				return nil
			}
			dir, err := dataDir()
			if err != nil {
				return fmt.Errorf("get data dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
