package link

import (
	"slices"

	"weave/internal/diag"
	"weave/internal/syntax"
	"weave/internal/trace"
)

// slot addresses one accessor body of one layer.
type slot struct {
	acc syntax.AccessorKind
	pos int
}

// analyzer resolves and decides every site of one declaration and plans the
// generated members it needs.
type analyzer struct {
	d      *Declaration
	unit   *unitIndex
	layers map[*syntax.Member]bool // override-layer members of the type
	opts   *Options
	tracer trace.Tracer
	span   uint64

	locals   map[slot]nameSet
	free     map[slot]nameSet
	captured map[slot]nameSet // by-value parameters closed over in the merged body
	bySlot   map[slot][]*ResolvedSite
	live     map[slot]bool
}

func newAnalyzer(d *Declaration, unit *unitIndex, layers map[*syntax.Member]bool, opts *Options, tracer trace.Tracer, span uint64) *analyzer {
	return &analyzer{
		d:        d,
		unit:     unit,
		layers:   layers,
		opts:     opts,
		tracer:   tracer,
		span:     span,
		locals:   make(map[slot]nameSet),
		free:     make(map[slot]nameSet),
		captured: make(map[slot]nameSet),
		bySlot:   make(map[slot][]*ResolvedSite),
		live:     make(map[slot]bool),
	}
}

func (a *analyzer) run() {
	d := a.d
	d.sites = make(map[*syntax.Expr]*ResolvedSite)
	for _, c := range d.Chains {
		for _, pos := range c.Positions {
			a.analyzeLayer(c, pos)
		}
	}
	if d.Failed() {
		return
	}
	a.plan()
}

// analyzeLayer handles one body. Chains are walked from the innermost layer
// so the inner summaries exist when outer sites are decided.
func (a *analyzer) analyzeLayer(c *Chain, pos int) {
	d := a.d
	layer := d.Layers[pos]
	body := layer.Body(c.Accessor)
	key := slot{c.Accessor, pos}

	locals := make(nameSet)
	locals.add(declaredNames(body)...)
	a.locals[key] = locals

	free := freeNames(body, layer.Member.Params, c.Accessor)
	captured := capturedParams(body, layer.Member.Params, c.Accessor)
	for _, s := range collectSites(body, pos, c.Accessor) {
		rs := &ResolvedSite{Site: s}
		d.sites[s.Expr] = rs
		d.order = append(d.order, rs)
		a.bySlot[key] = append(a.bySlot[key], rs)

		s.advance(SiteResolving)
		if err := a.resolveTarget(c, rs); err != nil {
			s.advance(SiteFailed)
			rs.Reason = err.Error()
			d.fail(diag.LinkInvalidLinkTarget, pos, s.Expr.Span, "%s", err.Error())
			trace.Point(a.tracer, trace.ScopeSite, "site", "failed: "+rs.Reason, a.span)
			continue
		}
		if rs.Base == nil && !rs.CrossAccessor() {
			rs.Shape = classify(d, rs, locals)
		}
		if reason := a.inlineBlocker(rs); reason != "" {
			rs.Decision = Forward
			rs.Reason = reason
			s.advance(SiteForwarded)
		} else {
			rs.Decision = Inline
			rs.Reason = rs.Shape.String()
			s.advance(SiteInlined)
			free.merge(a.free[slot{rs.Accessor, rs.Position}])
			captured.merge(a.captured[slot{rs.Accessor, rs.Position}])
		}
		trace.Point(a.tracer, trace.ScopeSite, "site", rs.Decision.String()+": "+rs.Reason, a.span)
	}
	a.free[key] = free
	a.captured[key] = captured
}

// plan marks the bodies that end up in the output and creates one generated
// member per forwarded-to layer. Event helpers also need the sibling
// accessor, which can pull further bodies in.
func (a *analyzer) plan() {
	d := a.d
	gens := make(map[int]*GeneratedMember)
	var work []slot
	for _, c := range d.Chains {
		work = append(work, slot{c.Accessor, c.Top()})
	}
	for len(work) > 0 {
		for len(work) > 0 {
			k := work[len(work)-1]
			work = work[:len(work)-1]
			if a.live[k] {
				continue
			}
			a.live[k] = true
			for _, rs := range a.bySlot[k] {
				if rs.Site.State() == SiteFailed || rs.Base != nil {
					continue
				}
				work = append(work, slot{rs.Accessor, rs.Position})
			}
		}
		for _, rs := range d.order {
			if !a.live[slot{rs.Site.Accessor, rs.Site.Layer}] || rs.Site.State() != SiteForwarded || rs.Base != nil {
				continue
			}
			g := gens[rs.Position]
			if g == nil {
				g = &GeneratedMember{Decl: d, Position: rs.Position, from: make(map[syntax.AccessorKind]int)}
				gens[rs.Position] = g
			}
			g.addAccessor(rs.Accessor, rs.Position)
			rs.Generated = g
		}
		if d.Kind != syntax.MemberEvent {
			break
		}
		for _, g := range gens {
			for _, k := range d.Kind.Accessors() {
				if g.has(k) {
					continue
				}
				c := d.Chain(k)
				if c == nil {
					continue
				}
				// the sibling comes from the outermost layer at or below g
				sib := -1
				for _, p := range c.Positions {
					if p <= g.Position {
						sib = p
					}
				}
				if sib < 0 {
					continue
				}
				g.addAccessor(k, sib)
				if !a.live[slot{k, sib}] {
					work = append(work, slot{k, sib})
				}
			}
		}
	}

	d.gens = make([]*GeneratedMember, 0, len(gens))
	for _, g := range gens {
		order := d.Kind.Accessors()
		slices.SortFunc(g.Accessors, func(x, y syntax.AccessorKind) int {
			return slices.Index(order, x) - slices.Index(order, y)
		})
		d.gens = append(d.gens, g)
	}
	slices.SortFunc(d.gens, func(x, y *GeneratedMember) int { return x.Position - y.Position })
	d.live = a.live
}
