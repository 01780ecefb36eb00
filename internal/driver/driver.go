package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"weave/internal/diag"
	"weave/internal/link"
	"weave/internal/observ"
	"weave/internal/source"
	"weave/internal/syntax"
	"weave/internal/trace"
	"weave/internal/unitio"
)

// Options configures LinkFile and LinkFiles.
type Options struct {
	Link link.Options
	// Jobs bounds how many units LinkFiles links at once; <= 0 uses GOMAXPROCS.
	Jobs int
	// Disk and Memo are consulted in order Memo, Disk. Either may be nil.
	Disk *DiskCache
	Memo *UnitCache
	// OutDir receives each linked unit under its input base name when set.
	OutDir string
	// Timings appends an ObsTimings diagnostic per unit.
	Timings  bool
	Observer PhaseObserver
	Progress ProgressSink
}

// Outcome is the result of linking one unit file. It is returned even when
// LinkFile fails so callers can print its diagnostics.
type Outcome struct {
	Path        string
	Digest      Digest
	Types       []*syntax.TypeDecl
	Files       *source.FileSet
	Unit        *unitio.Unit
	Stats       link.Stats
	Diagnostics *diag.Bag
	Cached      bool
	Output      string
	Timing      observ.Report
}

// Failed reports whether the unit has error diagnostics.
func (out *Outcome) Failed() bool {
	return out == nil || out.Diagnostics.HasErrors()
}

// LinkFile loads path, links it and writes the result when opts.OutDir is
// set. The error wraps link.ErrLinkFailed when the unit links with errors
// and is ctx.Err() when canceled.
func LinkFile(ctx context.Context, path string, opts Options) (*Outcome, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "unit:"+path)

	out := &Outcome{Path: path, Diagnostics: diag.NewBag(opts.Link.MaxDiagnostics)}
	var timer *observ.Timer
	if opts.Timings {
		timer = observ.NewTimer()
	}
	lopts := opts.Link
	lopts.Timer = timer

	start := time.Now()
	err := linkFile(ctx, out, lopts, opts)
	out.Timing = timer.Report()
	if opts.Timings {
		appendTimingDiagnostic(out.Diagnostics, timingPayload{
			Path:    path,
			Cached:  out.Cached,
			TotalMS: out.Timing.TotalMS,
			Phases:  out.Timing.Phases,
		})
	}

	ev := Event{File: path, Status: StatusDone, Elapsed: time.Since(start), Cached: out.Cached}
	if err != nil {
		ev.Status = StatusError
		ev.Err = err
		span.WithExtra("error", err.Error())
	}
	emit(opts.Progress, ev)
	if out.Cached {
		span.End("cached")
	} else {
		span.End(fmt.Sprintf("%d inlined, %d forwarded", out.Stats.Inlined, out.Stats.Forwarded))
	}
	return out, err
}

func linkFile(ctx context.Context, out *Outcome, lopts link.Options, opts Options) error {
	path := out.Path
	rep := diag.BagReporter{Bag: out.Diagnostics}
	timer := lopts.Timer

	emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusWorking})
	end := opts.Observer.phase(path, "load")
	idx := timer.Begin("load")
	data, format, err := readUnit(path)
	timer.End(idx, fmt.Sprintf("%d bytes", len(data)))
	end()
	if err != nil {
		diag.ReportError(rep, diag.IOLoadUnitError, source.Span{}, err.Error()).Emit()
		return err
	}
	out.Digest = UnitDigest(data, lopts)

	emit(opts.Progress, Event{File: path, Stage: StageCache, Status: StatusWorking})
	end = opts.Observer.phase(path, "cache")
	idx = timer.Begin("cache")
	payload, hit := lookup(path, out.Digest, opts)
	if hit {
		err = out.fromPayload(payload)
		if err != nil {
			hit = false
			out.Diagnostics = diag.NewBag(lopts.MaxDiagnostics)
			rep = diag.BagReporter{Bag: out.Diagnostics}
			trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache:corrupt", err.Error(), trace.CurrentSpan(ctx).SpanID)
		}
	}
	note := "miss"
	if hit {
		note = "hit"
	}
	timer.End(idx, note)
	end()
	if hit {
		opts.Memo.Put(payload)
		return out.finish(ctx, opts)
	}

	u, err := unitio.Decode(bytes.NewReader(data), format)
	if err == nil {
		var in *link.Input
		var fs *source.FileSet
		in, fs, err = u.Input()
		if err == nil {
			return out.link(ctx, in, fs, lopts, opts)
		}
	}
	err = fmt.Errorf("%s: %w", path, err)
	code := diag.IOLoadUnitError
	if errors.Is(err, unitio.ErrUnknownKind) {
		code = diag.IOUnknownNodeKind
	}
	diag.ReportError(rep, code, source.Span{}, err.Error()).Emit()
	return err
}

func (out *Outcome) link(ctx context.Context, in *link.Input, fs *source.FileSet, lopts link.Options, opts Options) error {
	emit(opts.Progress, Event{File: out.Path, Stage: StageLink, Status: StatusWorking})
	end := opts.Observer.phase(out.Path, "link")
	res, err := link.New(lopts).Link(ctx, in)
	end()
	if res == nil {
		if err == nil {
			err = errors.New("linker returned no result")
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			diag.ReportError(diag.BagReporter{Bag: out.Diagnostics}, diag.LinkCanceled, source.Span{},
				fmt.Sprintf("%s: linking canceled: %v", out.Path, err)).Emit()
		}
		return err
	}

	out.Types = res.Types
	out.Files = fs
	out.Stats = res.Stats
	out.Diagnostics.Merge(res.Diagnostics)
	out.Unit = unitio.FromTypes(res.Types, fs)

	p := newPayload(out.Path, out.Digest, out.Unit, out.Stats, out.Diagnostics)
	opts.Memo.Put(p)
	if perr := opts.Disk.Put(out.Digest, p); perr != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache:put", perr.Error(), trace.CurrentSpan(ctx).SpanID)
	}

	if ferr := out.finish(ctx, opts); ferr != nil {
		return ferr
	}
	return err
}

// finish writes the linked unit when an output directory is configured.
func (out *Outcome) finish(ctx context.Context, opts Options) error {
	if opts.OutDir == "" || out.Unit == nil {
		if out.Cached && out.Diagnostics.HasErrors() {
			return fmt.Errorf("%w: %d error(s)", link.ErrLinkFailed, out.Diagnostics.ErrorCount())
		}
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	emit(opts.Progress, Event{File: out.Path, Stage: StageWrite, Status: StatusWorking})
	end := opts.Observer.phase(out.Path, "write")
	defer end()
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return err
	}
	out.Output = filepath.Join(opts.OutDir, filepath.Base(out.Path))
	if err := unitio.WriteFile(out.Output, out.Unit); err != nil {
		diag.ReportError(diag.BagReporter{Bag: out.Diagnostics}, diag.IOLoadUnitError, source.Span{},
			fmt.Sprintf("write %s: %v", out.Output, err)).Emit()
		return err
	}
	if out.Cached && out.Diagnostics.HasErrors() {
		return fmt.Errorf("%w: %d error(s)", link.ErrLinkFailed, out.Diagnostics.ErrorCount())
	}
	return nil
}

func (out *Outcome) fromPayload(p *Payload) error {
	in, fs, err := p.Unit.Input()
	if err != nil {
		return err
	}
	if err := p.restore(out.Diagnostics); err != nil {
		return err
	}
	out.Types = make([]*syntax.TypeDecl, 0, len(in.Types))
	for _, ti := range in.Types {
		out.Types = append(out.Types, ti.Type)
	}
	out.Files = fs
	out.Unit = p.Unit
	out.Stats = p.Stats
	out.Cached = true
	return nil
}

func lookup(path string, key Digest, opts Options) (*Payload, bool) {
	if p, ok := opts.Memo.Get(path, key); ok {
		return p, true
	}
	p := new(Payload)
	ok, err := opts.Disk.Get(key, p)
	if err != nil || !ok {
		return nil, false
	}
	return p, true
}

func readUnit(path string) ([]byte, unitio.Format, error) {
	format, err := unitio.FormatOf(path)
	if err != nil {
		return nil, format, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, format, err
	}
	return data, format, nil
}
