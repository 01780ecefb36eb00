package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"weave/internal/config"
	"weave/internal/diag"
	"weave/internal/driver"
	"weave/internal/link"
	"weave/internal/syntax"
)

var linkCmd = &cobra.Command{
	Use:   "link [flags] <unit|directory>...",
	Short: "Link the override chains of one or more units",
	Long: `Link reads units (.json, .msgpack or .mp), merges every override chain
and reports diagnostics. Directories are searched for unit files. Linked units
are written to --out when it is set and printed with --print.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLink,
}

func init() {
	linkCmd.Flags().String("inline", "", "inline policy (auto|explicit|never); default from config")
	linkCmd.Flags().Int("jobs", 0, "parallel workers (0 = one per CPU); default from config")
	linkCmd.Flags().StringP("out", "o", "", "directory for linked units")
	linkCmd.Flags().Bool("print", false, "print the linked types")
	linkCmd.Flags().Bool("report-forwards", false, "report every inlined and forwarded site")
	linkCmd.Flags().String("format", "short", "diagnostic output format (short|json)")
	linkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	linkCmd.Flags().String("min-severity", "info", "lowest severity to print (info|warning|error); --quiet implies error")
	linkCmd.Flags().Bool("no-cache", false, "bypass the linked-unit disk cache")
	linkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

type linkFlags struct {
	out       string
	print     bool
	format    string
	withNotes bool
	minSev    diag.Severity
	quiet     bool
	timings   bool
	ui        uiMode
}

// runLink executes the "link" command. It exits non-zero when any unit has
// error diagnostics or fails to load.
func runLink(cmd *cobra.Command, args []string) error {
	defer dumpTraceOnPanic(cmd)

	opts, lf, err := linkOptions(cmd, run.cfg)
	if err != nil {
		return err
	}
	paths, err := driver.ListUnits(args)
	if err != nil {
		return err
	}

	var outcomes []*driver.Outcome
	var linkErr error
	if wantsProgressUI(lf, len(paths)) {
		outcomes, linkErr = runLinkWithUI(cmd.Context(), "linking", paths, opts)
	} else {
		outcomes, linkErr = driver.LinkFiles(cmd.Context(), paths, opts)
	}

	out := cmd.OutOrStdout()
	if err := report(out, outcomes, lf); err != nil {
		return err
	}
	if lf.timings && lf.format != "json" {
		printUnitTimings(out, outcomes)
	}
	if !lf.quiet && lf.format != "json" {
		printSummary(out, outcomes)
	}

	if linkErr != nil {
		dumpTrace(cmd)
		if errors.Is(linkErr, link.ErrLinkFailed) {
			return errSilent
		}
		return linkErr
	}
	return nil
}

// linkOptions layers the command flags over cfg.
func linkOptions(cmd *cobra.Command, cfg config.Config) (driver.Options, linkFlags, error) {
	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	var lf linkFlags
	var err error

	if flags.Changed("inline") {
		cfg.Link.Inline, _ = flags.GetString("inline")
	}
	if flags.Changed("jobs") {
		cfg.Link.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("report-forwards") {
		cfg.Link.ReportForwards, _ = flags.GetBool("report-forwards")
	}
	if n, _ := root.GetInt("max-diagnostics"); n > 0 {
		cfg.Link.MaxDiagnostics = n
	}
	if err := cfg.Validate(); err != nil {
		return driver.Options{}, lf, err
	}
	lopts, err := cfg.LinkOptions()
	if err != nil {
		return driver.Options{}, lf, err
	}

	if lf.out, err = flags.GetString("out"); err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get out flag: %w", err)
	}
	if lf.print, err = flags.GetBool("print"); err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get print flag: %w", err)
	}
	if lf.withNotes, err = flags.GetBool("with-notes"); err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if lf.format, err = flags.GetString("format"); err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get format flag: %w", err)
	}
	switch lf.format {
	case "short", "json":
	default:
		return driver.Options{}, lf, fmt.Errorf("unsupported format %q (must be short or json)", lf.format)
	}
	if lf.quiet, err = root.GetBool("quiet"); err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	minSev, err := flags.GetString("min-severity")
	if err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get min-severity flag: %w", err)
	}
	if lf.minSev, err = diag.ParseSeverity(minSev); err != nil {
		return driver.Options{}, lf, err
	}
	if lf.quiet {
		lf.minSev = diag.SevError
	}
	if lf.timings, err = root.GetBool("timings"); err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get timings flag: %w", err)
	}
	uiValue, err := flags.GetString("ui")
	if err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if lf.ui, err = readUIMode(uiValue); err != nil {
		return driver.Options{}, lf, err
	}
	noCache, err := flags.GetBool("no-cache")
	if err != nil {
		return driver.Options{}, lf, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	opts := driver.Options{
		Link:    lopts,
		Jobs:    lopts.Jobs,
		OutDir:  lf.out,
		Timings: lf.timings,
	}
	if cfg.Cache.Enabled && !noCache {
		if opts.Disk, err = openCache(cfg); err != nil {
			return driver.Options{}, lf, err
		}
	}
	return opts, lf, nil
}

func openCache(cfg config.Config) (*driver.DiskCache, error) {
	if cfg.Cache.Dir != "" {
		return driver.OpenDiskCacheAt(cfg.Cache.Dir)
	}
	return driver.OpenDiskCache("weave")
}

// report prints diagnostics and, with --print, the linked types.
func report(out io.Writer, outcomes []*driver.Outcome, lf linkFlags) error {
	if lf.format == "json" {
		return reportJSON(out, outcomes, lf.minSev, lf.withNotes)
	}
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		items := make([]diag.Diagnostic, 0, o.Diagnostics.Len())
		for _, d := range o.Diagnostics.Items() {
			if d.Code == diag.ObsTimings {
				continue
			}
			if d.Severity < lf.minSev {
				continue
			}
			items = append(items, d)
		}
		printShort(out, items, o, lf.withNotes)
		if lf.print && o.Types != nil {
			for _, t := range o.Types {
				if err := syntax.FprintType(out, t, syntax.PrintOptions{}); err != nil {
					return err
				}
				fmt.Fprintln(out)
			}
		}
	}
	return nil
}

var severityColors = map[diag.Severity]*color.Color{
	diag.SevInfo:    color.New(color.FgCyan),
	diag.SevWarning: color.New(color.FgYellow, color.Bold),
	diag.SevError:   color.New(color.FgRed, color.Bold),
}

// printShort is diag.FormatShort with the severity colored.
func printShort(out io.Writer, items []diag.Diagnostic, o *driver.Outcome, withNotes bool) {
	for _, d := range items {
		sev := d.Severity.String()
		if c, ok := severityColors[d.Severity]; ok {
			sev = c.Sprint(sev)
		}
		fmt.Fprintf(out, "%s: %s %s: %s\n", diag.Location(d.Primary, o.Files), sev, d.Code.ID(), d.Message)
		if !withNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(out, "    note: %s: %s\n", diag.Location(n.Span, o.Files), n.Msg)
		}
	}
}

type jsonNote struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

type jsonDiagnostic struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Location string     `json:"location"`
	Message  string     `json:"message"`
	Notes    []jsonNote `json:"notes,omitempty"`
}

type jsonUnit struct {
	Path        string           `json:"path"`
	Output      string           `json:"output,omitempty"`
	Cached      bool             `json:"cached"`
	Stats       link.Stats       `json:"stats"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

func reportJSON(out io.Writer, outcomes []*driver.Outcome, minSev diag.Severity, withNotes bool) error {
	units := make([]jsonUnit, 0, len(outcomes))
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		u := jsonUnit{Path: o.Path, Output: o.Output, Cached: o.Cached, Stats: o.Stats, Diagnostics: []jsonDiagnostic{}}
		for _, d := range o.Diagnostics.Items() {
			if d.Severity < minSev {
				continue
			}
			jd := jsonDiagnostic{
				Severity: d.Severity.String(),
				Code:     d.Code.ID(),
				Location: diag.Location(d.Primary, o.Files),
				Message:  d.Message,
			}
			if withNotes {
				for _, n := range d.Notes {
					jd.Notes = append(jd.Notes, jsonNote{Location: diag.Location(n.Span, o.Files), Message: n.Msg})
				}
			}
			u.Diagnostics = append(u.Diagnostics, jd)
		}
		units = append(units, u)
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(units)
}

func printSummary(out io.Writer, outcomes []*driver.Outcome) {
	var total link.Stats
	failed, cached := 0, 0
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		if o.Failed() {
			failed++
		}
		if o.Cached {
			cached++
		}
		total.Types += o.Stats.Types
		total.Declarations += o.Stats.Declarations
		total.Sites += o.Stats.Sites
		total.Inlined += o.Stats.Inlined
		total.Forwarded += o.Stats.Forwarded
		total.Generated += o.Stats.Generated
	}
	fmt.Fprintf(out, "%d unit(s), %d failed, %d cached: %d declaration(s), %d site(s), %d inlined, %d forwarded, %d generated member(s)\n",
		len(outcomes), failed, cached, total.Declarations, total.Sites, total.Inlined, total.Forwarded, total.Generated)
}
