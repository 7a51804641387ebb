package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/delegen/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-demand expansion cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached expansion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return err
		}
		if err := c.DropAll(); err != nil {
			return err
		}
		printOK(cmd.ErrOrStderr(), "removed cached expansions from "+c.Dir())
		return nil
	},
}

// openCache opens the configured cache whether or not caching is enabled.
func openCache(cmd *cobra.Command) (*cache.DiskCache, error) {
	p, err := newPipeline(cmd)
	if err != nil {
		return nil, err
	}
	cfg := *p.cfg
	cfg.Cache.Enabled = true
	c, err := cfg.OpenCache()
	if err != nil {
		return nil, errors.Wrap(err, "open cache")
	}
	return c, nil
}

func init() {
	cacheCmd.AddCommand(cacheDirCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
}
