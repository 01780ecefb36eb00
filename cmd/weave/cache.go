package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the linked-unit cache",
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every cached link result",
	Args:  cobra.NoArgs,
	RunE:  runCacheClean,
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Print the cache directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCache(run.cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheDirCmd)
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	c, err := openCache(run.cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintln(cmd.OutOrStdout(), "cache directory not found")
			return nil
		}
		return err
	}
	if err := c.DropAll(); err != nil {
		return fmt.Errorf("failed to remove %q: %w", c.Dir(), err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", c.Dir())
	return nil
}
