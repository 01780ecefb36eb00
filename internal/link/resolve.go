package link

import (
	"errors"
	"fmt"
	"slices"

	"weave/internal/syntax"
)

// unitIndex finds type declarations of the unit by simple or full name.
type unitIndex struct {
	types map[string]*syntax.TypeDecl
}

func newUnitIndex(in *Input) *unitIndex {
	idx := &unitIndex{types: make(map[string]*syntax.TypeDecl, 2*len(in.Types))}
	for _, ti := range in.Types {
		if ti.Type == nil {
			continue
		}
		idx.types[ti.Type.FullName()] = ti.Type
		if _, taken := idx.types[ti.Type.Name]; !taken {
			idx.types[ti.Type.Name] = ti.Type
		}
	}
	return idx
}

// lookup resolves name as written in a type of namespace ns.
func (u *unitIndex) lookup(name, ns string) *syntax.TypeDecl {
	if name == "" {
		return nil
	}
	if ns != "" {
		if t, ok := u.types[ns+"."+name]; ok {
			return t
		}
	}
	return u.types[name]
}

// resolveTarget fills the target of rs. Failures describe why the marker
// cannot name a lower layer.
func (a *analyzer) resolveTarget(c *Chain, rs *ResolvedSite) error {
	d := a.d
	s := rs.Site
	data := s.Data()

	acc := data.Accessor
	if acc == syntax.AccessorNone {
		acc = c.Accessor
	}
	if !slices.Contains(d.Kind.Accessors(), acc) {
		return fmt.Errorf("a %s has no %s accessor", d.Kind, acc)
	}

	switch data.Qualifier {
	case syntax.QualBase:
		m, err := a.resolveBase(data, acc)
		if err != nil {
			return err
		}
		rs.Base = m
		rs.Accessor = acc
		return nil
	case syntax.QualInterface:
		m, err := a.resolveInterface(data)
		if err != nil {
			return err
		}
		if m != d.Source {
			return fmt.Errorf("%s.%s maps to %s, not to this declaration", data.Interface, a.targetName(data), m.Key())
		}
	default:
		if data.Member != "" || data.Interface != "" {
			m, err := a.resolveNamed(data)
			if err != nil {
				return err
			}
			if m != d.Source {
				return fmt.Errorf("link target %s is a different declaration", m.Key())
			}
		}
	}

	tc := d.Chain(acc)
	if tc == nil {
		return fmt.Errorf("no layer provides the %s accessor", acc)
	}
	prev, ok := tc.Previous(s.Layer)
	if !ok {
		if acc == syntax.AccessorNone {
			return errors.New("no lower layer to link to")
		}
		return fmt.Errorf("no lower layer provides the %s accessor", acc)
	}
	if data.Layer.Explicit && data.Layer.Position != prev {
		return fmt.Errorf("layer %d is not the previous layer (%d)", data.Layer.Position, prev)
	}
	rs.Accessor = acc
	rs.Position = prev
	return nil
}

func (a *analyzer) targetName(data syntax.LinkData) string {
	if data.Member != "" {
		return data.Member
	}
	return a.d.Source.Name
}

// resolveNamed finds the member a this-qualified marker names.
func (a *analyzer) resolveNamed(data syntax.LinkData) (*syntax.Member, error) {
	name := a.targetName(data)
	var cands []*syntax.Member
	for _, m := range a.d.Type.Members {
		if m.Name == name && m.Interface == data.Interface && m.Kind.Linkable() && !a.layers[m] {
			cands = append(cands, m)
		}
	}
	return pick(filterSignature(cands, data, a.fallback(data)), name)
}

// resolveInterface maps an interface-qualified marker to the explicit
// implementation, or to the implicit public member when there is none.
func (a *analyzer) resolveInterface(data syntax.LinkData) (*syntax.Member, error) {
	t := a.d.Type
	if data.Interface == "" {
		return nil, errors.New("interface qualifier without an interface")
	}
	if !t.Implements(data.Interface) {
		return nil, fmt.Errorf("%s does not implement %s", t.Name, data.Interface)
	}
	name := a.targetName(data)
	var explicit, implicit []*syntax.Member
	for _, m := range t.Members {
		if m.Name != name || !m.Kind.Linkable() || a.layers[m] {
			continue
		}
		switch {
		case m.Interface == data.Interface:
			explicit = append(explicit, m)
		case m.Interface == "" && m.Modifiers.Has(syntax.ModPublic):
			implicit = append(implicit, m)
		}
	}
	fb := a.fallback(data)
	if found := filterSignature(explicit, data, fb); len(found) > 0 {
		return pick(found, data.Interface+"."+name)
	}
	return pick(filterSignature(implicit, data, fb), data.Interface+"."+name)
}

// resolveBase walks the base types declared in the unit for the member a
// base-qualified marker names. The nearest base type with a match wins.
func (a *analyzer) resolveBase(data syntax.LinkData, acc syntax.AccessorKind) (*syntax.Member, error) {
	t := a.d.Type
	if t.Base == "" {
		return nil, fmt.Errorf("%s has no base type", t.Name)
	}
	bt := a.unit.lookup(t.Base, t.Namespace)
	if bt == nil {
		return nil, fmt.Errorf("base type %s is not declared in the unit", t.Base)
	}
	name := a.targetName(data)
	seen := make(map[*syntax.TypeDecl]bool)
	for ; bt != nil && !seen[bt]; bt = a.unit.lookup(bt.Base, bt.Namespace) {
		seen[bt] = true
		var cands []*syntax.Member
		for _, m := range bt.Members {
			if m.Kind != a.d.Kind || m.Interface != "" {
				continue
			}
			if m.Kind != syntax.MemberFinalizer && m.Name != name {
				continue
			}
			if acc != syntax.AccessorNone && m.Accessor(acc) == nil {
				continue
			}
			cands = append(cands, m)
		}
		cands = filterSignature(cands, data, a.fallback(data))
		if len(cands) > 0 {
			return pick(cands, bt.Name+"."+name)
		}
	}
	return nil, fmt.Errorf("no base type of %s declares %s", t.Name, name)
}

// fallback is the member whose signature an unnamed marker implies.
func (a *analyzer) fallback(data syntax.LinkData) *syntax.Member {
	if data.Member == "" {
		return a.d.Source
	}
	return nil
}

// filterSignature narrows overloads: by explicit parameter types, then by
// argument count, then by the implied signature.
func filterSignature(cands []*syntax.Member, data syntax.LinkData, fallback *syntax.Member) []*syntax.Member {
	keep := func(ok func(m *syntax.Member) bool) []*syntax.Member {
		var out []*syntax.Member
		for _, m := range cands {
			if ok(m) {
				out = append(out, m)
			}
		}
		return out
	}
	switch {
	case len(data.ParamTypes) > 0:
		return keep(func(m *syntax.Member) bool { return paramTypesMatch(m.Params, data.ParamTypes) })
	case data.Invoke || len(data.Args) > 0:
		return keep(func(m *syntax.Member) bool { return len(m.Params) == len(data.Args) })
	case fallback != nil:
		sig := syntax.ParamSig(fallback.Params)
		return keep(func(m *syntax.Member) bool { return syntax.ParamSig(m.Params) == sig })
	}
	return cands
}

func paramTypesMatch(params []syntax.Param, types []string) bool {
	if len(params) != len(types) {
		return false
	}
	for i, p := range params {
		if types[i] != p.Type && types[i] != p.Ref.String()+" "+p.Type {
			return false
		}
	}
	return true
}

func pick(cands []*syntax.Member, what string) (*syntax.Member, error) {
	switch len(cands) {
	case 0:
		return nil, fmt.Errorf("no member matches %s", what)
	case 1:
		return cands[0], nil
	}
	return nil, fmt.Errorf("ambiguous link target %s: %d candidates", what, len(cands))
}
