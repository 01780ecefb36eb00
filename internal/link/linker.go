package link

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"weave/internal/diag"
	"weave/internal/syntax"
	"weave/internal/trace"
)

// Linker merges override chains. It holds no state between calls and may
// be reused.
type Linker struct {
	opts Options
}

func New(opts Options) *Linker {
	return &Linker{opts: opts}
}

// Stats counts what a Link call did.
type Stats struct {
	Types        int `json:"types" msgpack:"types"`
	Declarations int `json:"declarations" msgpack:"declarations"`
	Chains       int `json:"chains" msgpack:"chains"`
	Sites        int `json:"sites" msgpack:"sites"`
	Inlined      int `json:"inlined" msgpack:"inlined"`
	Forwarded    int `json:"forwarded" msgpack:"forwarded"`
	Failed       int `json:"failed" msgpack:"failed"`
	Generated    int `json:"generated" msgpack:"generated"`
}

// Result is the linked unit. Types parallels Input.Types.
type Result struct {
	Types        []*syntax.TypeDecl
	Declarations []*Declaration
	Sites        []*ResolvedSite
	Errors       []*Error
	Diagnostics  *diag.Bag
	Stats        Stats
}

type typeState struct {
	in    TypeInput
	decls []*Declaration
	errs  []*Error
}

// Link runs all phases over in. Failing declarations are reported and left
// unlinked while the rest of the unit is still processed; the returned
// error then wraps ErrLinkFailed. Cancellation is checked between
// declarations and returns ctx.Err().
func (l *Linker) Link(ctx context.Context, in *Input) (*Result, error) {
	tracer := trace.FromContext(ctx)
	root := trace.Begin(tracer, trace.ScopePhase, "link", trace.CurrentSpan(ctx).SpanID)
	defer root.End("")

	timer := l.opts.Timer
	unit := newUnitIndex(in)

	idx := timer.Begin("build")
	states := make([]*typeState, 0, len(in.Types))
	var all []*Declaration
	layers := make(map[*syntax.TypeDecl]map[*syntax.Member]bool, len(in.Types))
	for _, ti := range in.Types {
		if ti.Type == nil {
			continue
		}
		decls, errs := buildDeclarations(ti)
		set := make(map[*syntax.Member]bool)
		for _, d := range decls {
			for _, ly := range d.Layers[1:] {
				set[ly.Member] = true
			}
		}
		layers[ti.Type] = set
		states = append(states, &typeState{in: ti, decls: decls, errs: errs})
		all = append(all, decls...)
	}
	timer.End(idx, strconv.Itoa(len(all))+" declarations")

	analyze := trace.Begin(tracer, trace.ScopePhase, "analyze", root.ID())
	idx = timer.Begin("analyze")
	err := l.parallel(ctx, all, func(d *Declaration) {
		if d.Failed() {
			return
		}
		sp := trace.Begin(tracer, trace.ScopeDecl, "decl:"+d.Type.Name+"."+d.Key.String(), analyze.ID())
		newAnalyzer(d, unit, layers[d.Type], &l.opts, tracer, sp.ID()).run()
		sp.End(strconv.Itoa(len(d.order)) + " sites")
	})
	timer.End(idx, "")
	analyze.End("")
	if err != nil {
		return nil, err
	}

	nameSpan := trace.Begin(tracer, trace.ScopePhase, "name", root.ID())
	idx = timer.Begin("name")
	for _, ts := range states {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.nameType(ts.in.Type, ts.decls)
	}
	timer.End(idx, "")
	nameSpan.End("")

	merge := trace.Begin(tracer, trace.ScopePhase, "merge", root.ID())
	idx = timer.Begin("merge")
	err = l.parallel(ctx, all, func(d *Declaration) {
		if d.Failed() {
			return
		}
		sp := trace.Begin(tracer, trace.ScopeDecl, "merge:"+d.Type.Name+"."+d.Key.String(), merge.ID())
		newMerger(d).run()
		sp.End(strconv.Itoa(len(d.generated)) + " generated")
	})
	timer.End(idx, "")
	merge.End("")
	if err != nil {
		return nil, err
	}

	emit := trace.Begin(tracer, trace.ScopePhase, "emit", root.ID())
	idx = timer.Begin("emit")
	res := &Result{
		Types:       make([]*syntax.TypeDecl, len(states)),
		Diagnostics: diag.NewBag(l.opts.MaxDiagnostics),
	}
	for i, ts := range states {
		sp := trace.Begin(tracer, trace.ScopeType, "type:"+ts.in.Type.FullName(), emit.ID())
		res.Types[i] = emitType(ts.in.Type, ts.decls)
		sp.End("")
	}
	l.collect(res, states)
	timer.End(idx, fmt.Sprintf("%d inlined, %d forwarded", res.Stats.Inlined, res.Stats.Forwarded))
	emit.End("")

	if n := len(res.Errors); n > 0 {
		root.WithExtra("errors", strconv.Itoa(n))
		return res, fmt.Errorf("%w: %d error(s)", ErrLinkFailed, n)
	}
	return res, nil
}

// parallel runs fn over decls with at most Options.Jobs workers.
func (l *Linker) parallel(ctx context.Context, decls []*Declaration, fn func(*Declaration)) error {
	if len(decls) == 0 {
		return ctx.Err()
	}
	jobs := l.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(decls)))
	for _, d := range decls {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fn(d)
			return nil
		})
	}
	return g.Wait()
}

// collect gathers errors, sites and counters in input order.
func (l *Linker) collect(res *Result, states []*typeState) {
	rep := diag.BagReporter{Bag: res.Diagnostics}
	res.Stats.Types = len(states)
	for _, ts := range states {
		res.Errors = append(res.Errors, ts.errs...)
		for _, d := range ts.decls {
			res.Declarations = append(res.Declarations, d)
			res.Stats.Declarations++
			res.Stats.Chains += len(d.Chains)
			res.Errors = append(res.Errors, d.errs...)
			res.Sites = append(res.Sites, d.order...)
			if !d.Failed() {
				res.Stats.Generated += len(d.generated)
			}
			for _, rs := range d.order {
				res.Stats.Sites++
				switch rs.Site.State() {
				case SiteInlined:
					res.Stats.Inlined++
				case SiteForwarded:
					res.Stats.Forwarded++
				case SiteFailed:
					res.Stats.Failed++
				}
				if l.opts.ReportForwards && !d.Failed() {
					reportSite(rep, d, rs)
				}
			}
		}
	}
	for _, e := range res.Errors {
		res.Diagnostics.Add(e.Diagnostic())
	}
}

func reportSite(rep diag.Reporter, d *Declaration, rs *ResolvedSite) {
	where := d.Type.Name + "." + d.Key.String()
	if rs.Site.Accessor != syntax.AccessorNone {
		where += "." + rs.Site.Accessor.String()
	}
	switch rs.Site.State() {
	case SiteInlined:
		diag.ReportInfo(rep, diag.LinkInlinedSite, rs.Site.Expr.Span,
			fmt.Sprintf("%s layer %d: inlined layer %d (%s)", where, rs.Site.Layer, rs.Position, rs.Reason)).Emit()
	case SiteForwarded:
		b := diag.ReportInfo(rep, diag.LinkForwardedSite, rs.Site.Expr.Span,
			fmt.Sprintf("%s layer %d: forwarded (%s)", where, rs.Site.Layer, rs.Reason))
		if rs.Generated != nil {
			b.WithNote(d.Source.Span, "calls generated member "+rs.Generated.Name)
		}
		b.Emit()
	}
}
