package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"weave/internal/syntax"
	"weave/internal/unitio"
)

var printCmd = &cobra.Command{
	Use:   "print [flags] <unit>",
	Short: "Print the types of a unit without linking",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrint,
}

func init() {
	printCmd.Flags().Bool("compact", false, "print each type on one line")
	printCmd.Flags().Bool("overrides", true, "list the override chains of each type")
}

func runPrint(cmd *cobra.Command, args []string) error {
	compact, err := cmd.Flags().GetBool("compact")
	if err != nil {
		return fmt.Errorf("failed to get compact flag: %w", err)
	}
	overrides, err := cmd.Flags().GetBool("overrides")
	if err != nil {
		return fmt.Errorf("failed to get overrides flag: %w", err)
	}
	in, _, err := unitio.Load(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, ti := range in.Types {
		if err := syntax.FprintType(out, ti.Type, syntax.PrintOptions{Compact: compact}); err != nil {
			return err
		}
		fmt.Fprintln(out)
		if !overrides {
			continue
		}
		for _, o := range ti.Overrides {
			fmt.Fprintf(out, "// override %s\n", o.Target)
			for i, l := range o.Layers {
				note := ""
				if l.NotInlineable {
					note = " (not inlineable)"
				}
				fmt.Fprintf(out, "//   %d: %s from %s%s\n", i+1, l.Member, l.Aspect, note)
			}
		}
	}
	return nil
}
