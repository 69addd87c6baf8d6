package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autoinstall/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the parse cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached parse results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer fc.Close()

			count, err := fc.Clear(ctx)
			if err != nil {
				return err
			}
			if count == 0 {
				printInfo("Cache is empty")
			} else {
				printSuccess("Cleared %d cached entries", count)
			}
			printDetail("Directory: %s", dir)

			dbPath := filepath.Join(dir, sqliteFilename)
			if _, err := os.Stat(dbPath); err == nil {
				sc, err := cache.NewSQLiteCache(dbPath)
				if err != nil {
					return fmt.Errorf("open sqlite cache: %w", err)
				}
				count, err := sc.Clear(ctx)
				sc.Close()
				if err != nil {
					return err
				}
				printSuccess("Cleared %d SQLite entries", count)
			}

			if redisURL == "" {
				return nil
			}
			rc, err := cache.NewRedisCache(ctx, redisURL, redisKeyPrefix)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer rc.Close()

			count, err = rc.Clear(ctx)
			if err != nil {
				return err
			}
			printSuccess("Cleared %d Redis entries", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&redisURL, "redis-url", "", "also clear entries in this Redis database")
	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}
