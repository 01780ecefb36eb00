package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"weave/internal/config"
	"weave/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "weave",
	Short: "Override-chain linker for aspect-woven code units",
	Long: `weave merges the override layers that aspects add to a member into one
final member, inlining link sites where it can and forwarding to generated
helper members where it cannot.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: prepareRun,
	PersistentPostRun: func(*cobra.Command, []string) { finishRun() },
}

// errSilent marks a failure whose diagnostics were already printed.
var errSilent = errors.New("")

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	// global flags
	rootCmd.PersistentFlags().String("config", "", "path to weave.toml (default: search upward from the working directory)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 0, "maximum number of diagnostics per unit (0 = config value)")
	rootCmd.PersistentFlags().String("trace", "", "trace output file (- for stderr)")
	rootCmd.PersistentFlags().String("trace-level", "", "trace level (off|error|phase|detail|debug)")
	rootCmd.PersistentFlags().String("trace-mode", "", "trace storage (stream|ring|both)")
	rootCmd.PersistentFlags().String("trace-format", "", "trace event format (text|ndjson)")
	rootCmd.PersistentFlags().Int("trace-ring-size", 0, "events kept in ring mode")
}

// main executes the root command under an interrupt-aware context. Any
// error exits with status 1.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	finishRun()
	if err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// run holds the state prepareRun builds for every command.
var run struct {
	cfg     config.Config
	cleanup func()
}

func prepareRun(cmd *cobra.Command, _ []string) error {
	if err := setupColor(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	run.cfg = cfg
	cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	run.cleanup = cleanup
	return nil
}

func finishRun() {
	if run.cleanup != nil {
		run.cleanup()
		run.cleanup = nil
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, _, err := config.Load(".")
	return cfg, err
}

func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout) || os.Getenv("NO_COLOR") != ""
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
