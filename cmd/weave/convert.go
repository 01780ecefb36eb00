package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weave/internal/unitio"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a unit between JSON and msgpack",
	Long:  "Convert re-encodes a unit in the format named by the output extension (.json, .msgpack or .mp). The unit is validated on the way.",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	u, err := unitio.ReadFile(args[0])
	if err != nil {
		return err
	}
	in, fs, err := u.Input()
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	if err := unitio.WriteFile(args[1], unitio.FromInput(in, fs)); err != nil {
		return err
	}
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d type(s))\n", args[1], len(in.Types))
	}
	return nil
}
