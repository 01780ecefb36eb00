package link

import (
	"fmt"
	"slices"

	"weave/internal/diag"
	"weave/internal/syntax"
)

// Layer is one body contributor of a declaration. Position 0 is the source
// member itself.
type Layer struct {
	Position      int
	Member        *syntax.Member
	Aspect        string
	NotInlineable bool
}

// Body returns the layer body for an accessor slot, nil when the layer does
// not provide it.
func (l *Layer) Body(k syntax.AccessorKind) *syntax.Block {
	return l.Member.BodyFor(k)
}

// Provides reports whether the layer has a body for the slot.
func (l *Layer) Provides(k syntax.AccessorKind) bool {
	return l.Body(k) != nil
}

// Declaration is one overridden member with its layers.
type Declaration struct {
	Type   *syntax.TypeDecl
	Kind   syntax.MemberKind
	Key    syntax.MemberKey
	Source *syntax.Member
	Layers []*Layer
	Chains []*Chain

	// filled by the analysis phase
	sites map[*syntax.Expr]*ResolvedSite
	order []*ResolvedSite
	gens  []*GeneratedMember
	live  map[slot]bool
	errs  []*Error

	// filled by the merge phase
	final     *syntax.Member
	generated []*syntax.Member
}

// Chain returns the chain of accessor k, or nil.
func (d *Declaration) Chain(k syntax.AccessorKind) *Chain {
	for _, c := range d.Chains {
		if c.Accessor == k {
			return c
		}
	}
	return nil
}

// Outermost is the layer whose signature the final member takes.
func (d *Declaration) Outermost() *Layer {
	return d.Layers[len(d.Layers)-1]
}

// Failed reports whether any error was recorded for the declaration.
func (d *Declaration) Failed() bool {
	return len(d.errs) > 0
}

// Errors returns the recorded errors.
func (d *Declaration) Errors() []*Error {
	return d.errs
}

// Chain is the ordered stack of layers providing one accessor slot.
type Chain struct {
	Decl      *Declaration
	Accessor  syntax.AccessorKind
	Positions []int // ascending layer positions
}

// Top is the outermost layer position of the chain.
func (c *Chain) Top() int {
	return c.Positions[len(c.Positions)-1]
}

// Previous returns the nearest position below pos, false when pos is the
// innermost layer of the chain.
func (c *Chain) Previous(pos int) (int, bool) {
	prev, ok := -1, false
	for _, p := range c.Positions {
		if p >= pos {
			break
		}
		prev, ok = p, true
	}
	return prev, ok
}

func (c *Chain) String() string {
	if c.Accessor == syntax.AccessorNone {
		return c.Decl.Key.String()
	}
	return c.Decl.Key.String() + "." + c.Accessor.String()
}

// typeErrors collects failures that cannot be attributed to a declaration
// that was built.
type typeErrors []*Error

func (te *typeErrors) add(t *syntax.TypeDecl, key syntax.MemberKey, layer int, format string, args ...any) {
	*te = append(*te, &Error{
		Code:  diag.LinkMissingSemanticTarget,
		Type:  t.FullName(),
		Decl:  key.String(),
		Layer: layer,
		Span:  t.Span,
		Msg:   fmt.Sprintf(format, args...),
	})
}

// buildDeclarations groups the layers of one type into declarations and
// chains. Declarations come back in source-member order.
func buildDeclarations(in TypeInput) ([]*Declaration, []*Error) {
	t := in.Type
	var errs typeErrors
	claimed := make(map[syntax.MemberKey]string)
	byMember := make(map[*syntax.Member]*Declaration)

	for _, spec := range in.Overrides {
		src := t.Lookup(spec.Target)
		if src == nil {
			errs.add(t, spec.Target, -1, "target member is not declared in %s", t.Name)
			continue
		}
		if !src.Kind.Linkable() {
			errs.add(t, spec.Target, -1, "a %s cannot be overridden", src.Kind)
			continue
		}
		if owner, dup := claimed[spec.Target]; dup {
			errs = append(errs, duplicate(t, spec.Target, owner))
			continue
		}
		claimed[spec.Target] = spec.Target.String()

		d := &Declaration{
			Type:   t,
			Kind:   src.Kind,
			Key:    spec.Target,
			Source: src,
			Layers: []*Layer{{Position: 0, Member: src}},
		}
		for i, ls := range spec.Layers {
			pos := i + 1
			m := t.Lookup(ls.Member)
			switch {
			case m == nil:
				d.fail(diag.LinkMissingSemanticTarget, pos, t.Span, "layer member %s is not declared", ls.Member)
				continue
			case m.Kind != src.Kind:
				d.fail(diag.LinkMissingSemanticTarget, pos, m.Span, "layer member %s is a %s, target is a %s", ls.Member, m.Kind, src.Kind)
				continue
			}
			if owner, dup := claimed[ls.Member]; dup {
				d.errs = append(d.errs, duplicate(t, ls.Member, owner))
				continue
			}
			claimed[ls.Member] = spec.Target.String()
			d.Layers = append(d.Layers, &Layer{
				Position:      pos,
				Member:        m,
				Aspect:        ls.Aspect,
				NotInlineable: ls.NotInlineable,
			})
		}
		if d.Failed() {
			byMember[src] = d
			continue
		}
		for _, k := range d.Kind.Accessors() {
			c := &Chain{Decl: d, Accessor: k}
			for _, l := range d.Layers {
				if l.Provides(k) {
					c.Positions = append(c.Positions, l.Position)
				}
			}
			if len(c.Positions) > 0 {
				d.Chains = append(d.Chains, c)
			}
		}
		if len(d.Chains) == 0 {
			d.fail(diag.LinkMissingSemanticTarget, -1, src.Span, "no layer provides a body")
		}
		byMember[src] = d
	}

	decls := make([]*Declaration, 0, len(byMember))
	for _, m := range t.Members {
		if d, ok := byMember[m]; ok {
			decls = append(decls, d)
		}
	}
	return decls, slices.Clip(errs)
}

func duplicate(t *syntax.TypeDecl, key syntax.MemberKey, owner string) *Error {
	return &Error{
		Code:  diag.LinkDuplicateLayer,
		Type:  t.FullName(),
		Decl:  key.String(),
		Layer: -1,
		Span:  t.Span,
		Msg:   fmt.Sprintf("member is already part of the chain of %s", owner),
	}
}
