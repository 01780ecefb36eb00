package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"weave/internal/config"
	"weave/internal/trace"
)

// setupTracing layers the trace flags over cfg.Trace and attaches the
// tracer to the command context. The returned cleanup flushes and closes it.
func setupTracing(cmd *cobra.Command, cfg config.Config) (func(), error) {
	flags := cmd.Root().PersistentFlags()
	tc := cfg.Trace
	if flags.Changed("trace") {
		tc.Output, _ = flags.GetString("trace")
		if tc.Level == trace.LevelOff.String() && !flags.Changed("trace-level") {
			tc.Level = trace.LevelPhase.String()
		}
	}
	for name, dst := range map[string]*string{
		"trace-level":  &tc.Level,
		"trace-mode":   &tc.Mode,
		"trace-format": &tc.Format,
	} {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			if err != nil {
				return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
			}
			*dst = v
		}
	}
	if flags.Changed("trace-ring-size") {
		n, err := flags.GetInt("trace-ring-size")
		if err != nil {
			return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
		}
		tc.RingSize = n
	}
	cfg.Trace = tc
	run.cfg.Trace = tc

	tcfg, err := cfg.TraceConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid trace settings: %w", err)
	}

	// If level is off, skip tracing
	if tcfg.Level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func() {}, nil
	}

	tracer, err := trace.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)

	cleanup := func() {
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

// ringOf returns the ring buffer of t, if it keeps one.
func ringOf(t trace.Tracer) *trace.RingTracer {
	switch t := t.(type) {
	case *trace.RingTracer:
		return t
	case *trace.MultiTracer:
		return t.Ring()
	}
	return nil
}

// dumpTrace writes the ring buffer of the context tracer to stderr. Ring
// mode keeps events in memory until a run fails or panics.
func dumpTrace(cmd *cobra.Command) {
	tracer := trace.FromContext(cmd.Context())
	ring := ringOf(tracer)
	if ring == nil {
		return
	}
	format := trace.FormatText
	if f, err := trace.ParseFormat(run.cfg.Trace.Format); err == nil {
		format = f
	}
	fmt.Fprintln(os.Stderr, "trace: last events")
	if err := ring.Dump(os.Stderr, format); err != nil {
		fmt.Fprintf(os.Stderr, "trace: dump error: %v\n", err)
	}
}

// dumpTraceOnPanic dumps the ring buffer and re-panics.
func dumpTraceOnPanic(cmd *cobra.Command) {
	if r := recover(); r != nil {
		dumpTrace(cmd)
		panic(r)
	}
}
