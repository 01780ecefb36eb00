package link

import (
	"fmt"
	"slices"

	"weave/internal/syntax"
)

// receiver is "this" for instance members and the type name for static
// ones.
func (m *merger) receiver() *syntax.Expr {
	if m.d.Source.IsStatic() {
		return syntax.Ident(m.d.Type.Name)
	}
	return syntax.This()
}

// forward replaces a forwarded marker with a real access: a call to the
// generated member, or the base member for base-qualified sites.
func (r *rewriter) forward(e *syntax.Expr, data syntax.LinkData) *syntax.Expr {
	rs := r.m.d.sites[e]
	if rs == nil || rs.Site.State() != SiteForwarded {
		panic(fmt.Sprintf("link: marker at %s was not forwarded", e.Span))
	}
	args := r.args(data.Args)

	var out *syntax.Expr
	switch {
	case rs.Base != nil:
		switch rs.Base.Kind {
		case syntax.MemberIndexer:
			out = &syntax.Expr{Kind: syntax.ExprIndex, Data: syntax.IndexData{Receiver: syntax.Base(), Args: args}}
		case syntax.MemberFinalizer:
			out = syntax.CallArgs(syntax.Sel(syntax.Base(), "Finalize"), args)
		default:
			out = syntax.Sel(syntax.Base(), rs.Base.Name)
			if data.Invoke {
				out = syntax.CallArgs(out, args)
			}
		}
	case rs.Generated == nil:
		panic(fmt.Sprintf("link: forwarded marker at %s has no generated member", e.Span))
	default:
		name := rs.Generated.Name
		switch r.m.d.Kind {
		case syntax.MemberIndexer:
			out = syntax.CallArgs(syntax.Sel(r.m.receiver(), rs.Accessor.MethodPrefix()+name), args)
		default:
			out = syntax.Sel(r.m.receiver(), name)
			if data.Invoke {
				out = syntax.CallArgs(out, args)
			}
		}
	}
	out.Span = e.Span
	return out
}

// indexerSet turns "link[i] = v" for a forwarded indexer setter into
// "this.set_Gen(i, v)". It returns nil for every other assignment.
func (r *rewriter) indexerSet(ad syntax.AssignData) *syntax.Expr {
	rs := r.m.d.sites[ad.Target]
	if rs == nil || rs.Base != nil || rs.Generated == nil || ad.Op != "=" {
		return nil
	}
	if r.m.d.Kind != syntax.MemberIndexer || rs.Accessor != syntax.AccessorSet {
		return nil
	}
	data := ad.Target.Data.(syntax.LinkData) //nolint:errcheck
	args := append(r.args(data.Args), syntax.Arg{Value: r.expr(ad.Value)})
	return syntax.CallArgs(syntax.Sel(r.m.receiver(), syntax.AccessorSet.MethodPrefix()+rs.Generated.Name), args)
}

// finalMember takes the signature, modifiers and attributes of the
// outermost layer and the name and position of the source member.
func (m *merger) finalMember() *syntax.Member {
	d := m.d
	top := d.Outermost().Member
	final := &syntax.Member{
		Kind:         d.Kind,
		Name:         d.Source.Name,
		Operator:     d.Source.Operator,
		Interface:    d.Source.Interface,
		Type:         top.Type,
		Params:       slices.Clone(top.Params),
		Modifiers:    top.Modifiers,
		Attributes:   slices.Clone(top.Attributes),
		Suppressions: suppressions(d.Layers),
		Span:         d.Source.Span,
	}
	for _, c := range d.Chains {
		body := m.body(c.Accessor, c.Top())
		if c.Accessor == syntax.AccessorNone {
			final.Body = body
			continue
		}
		src := d.Layers[c.Top()].Member.Accessor(c.Accessor)
		final.Accessors = append(final.Accessors, &syntax.Accessor{
			Kind:      c.Accessor,
			Modifiers: src.Modifiers,
			Body:      body,
			Span:      src.Span,
		})
	}
	return final
}

// suppressions is the ordered union of the suppressions of all layers.
func suppressions(layers []*Layer) []string {
	var out []string
	seen := make(nameSet)
	for _, l := range layers {
		for _, s := range l.Member.Suppressions {
			if !seen.has(s) {
				seen.add(s)
				out = append(out, s)
			}
		}
	}
	return out
}

// generatedMembers renders the helper for one forwarded-to layer. Indexer
// helpers become get_/set_ method pairs since indexers cannot be named.
func (m *merger) generatedMembers(g *GeneratedMember) []*syntax.Member {
	d := m.d
	lm := d.Layers[g.Position].Member
	mods := syntax.ModPrivate | lm.Modifiers&(syntax.ModStatic|syntax.ModUnsafe|syntax.ModAsync)
	if d.Source.IsStatic() {
		mods |= syntax.ModStatic
	}
	supp := slices.Clone(lm.Suppressions)

	switch d.Kind {
	case syntax.MemberProperty, syntax.MemberEvent:
		gm := &syntax.Member{Kind: d.Kind, Name: g.Name, Type: lm.Type, Modifiers: mods, Suppressions: supp}
		for _, k := range g.Accessors {
			gm.Accessors = append(gm.Accessors, &syntax.Accessor{Kind: k, Body: m.body(k, g.Source(k))})
		}
		return []*syntax.Member{gm}
	case syntax.MemberIndexer:
		var out []*syntax.Member
		for _, k := range g.Accessors {
			gm := &syntax.Member{
				Kind:         syntax.MemberMethod,
				Name:         k.MethodPrefix() + g.Name,
				Type:         lm.SlotType(k),
				Params:       slices.Clone(lm.Params),
				Modifiers:    mods,
				Body:         m.body(k, g.Source(k)),
				Suppressions: slices.Clone(supp),
			}
			if k == syntax.AccessorSet {
				gm.Params = append(gm.Params, syntax.Param{Name: "value", Type: lm.Type})
			}
			out = append(out, gm)
		}
		return out
	}

	gm := &syntax.Member{
		Kind:         syntax.MemberMethod,
		Name:         g.Name,
		Type:         lm.SlotType(syntax.AccessorNone),
		Params:       slices.Clone(lm.Params),
		Modifiers:    mods,
		Body:         m.body(syntax.AccessorNone, g.Position),
		Suppressions: supp,
	}
	return []*syntax.Member{gm}
}
