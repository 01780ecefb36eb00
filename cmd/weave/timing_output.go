package main

import (
	"fmt"
	"io"

	"weave/internal/driver"
)

// printUnitTimings prints the phase table of every unit.
func printUnitTimings(out io.Writer, outcomes []*driver.Outcome) {
	if out == nil {
		return
	}
	for _, o := range outcomes {
		if o == nil || len(o.Timing.Phases) == 0 {
			continue
		}
		suffix := ""
		if o.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(out, "%s%s\n", o.Path, suffix)
		for _, p := range o.Timing.Phases {
			fmt.Fprintf(out, "  %-10s %8.2f ms", p.Name, p.DurationMS)
			if p.Note != "" {
				fmt.Fprintf(out, "  %s", p.Note)
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "  %-10s %8.2f ms\n", "total", o.Timing.TotalMS)
	}
}
