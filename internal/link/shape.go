//nolint:errcheck // Kind implies the Data payload type.
package link

import (
	"fmt"

	"weave/internal/syntax"
)

// classify names the statement form around a site. Positions are mutually
// exclusive: a marker is the whole expression statement, the operand of a
// return, a local initializer or one side of an assignment, never two of
// them at once.
func classify(d *Declaration, rs *ResolvedSite, locals nameSet) Shape {
	s := rs.Site
	if s.Stmt == nil {
		return ShapeUnknown
	}
	data := s.Data()
	switch d.Kind {
	case syntax.MemberMethod, syntax.MemberOperator, syntax.MemberFinalizer:
		if !data.Invoke {
			return ShapeUnknown
		}
	default:
		if data.Invoke {
			return ShapeUnknown
		}
	}

	outer := d.Layers[s.Layer].Member
	slotType := outer.SlotType(rs.Accessor)
	void := slotType == syntax.TypeVoid

	switch s.Stmt.Kind {
	case syntax.StmtExpr:
		e := s.Stmt.Data.(syntax.ExprStmtData).Expr
		if e == s.Expr {
			if void && rs.Accessor == syntax.AccessorNone {
				return ShapeVoidStatement
			}
			return ShapeUnknown
		}
		if e.Kind != syntax.ExprAssign {
			return ShapeUnknown
		}
		ad := e.Data.(syntax.AssignData)
		if ad.Target == s.Expr && isIdent(ad.Value, "value") {
			switch {
			case rs.Accessor == syntax.AccessorSet && ad.Op == "=":
				return ShapeSetter
			case rs.Accessor == syntax.AccessorAdd && ad.Op == "+=":
				return ShapeEventAdd
			case rs.Accessor == syntax.AccessorRemove && ad.Op == "-=":
				return ShapeEventRemove
			}
			return ShapeUnknown
		}
		if ad.Value == s.Expr && ad.Op == "=" && !void && ad.Target.Kind == syntax.ExprIdent {
			if locals.has(ad.Target.Data.(syntax.IdentData).Name) {
				return ShapeLocalAssign
			}
		}
	case syntax.StmtReturn:
		if s.Stmt.Data.(syntax.ReturnData).Value == s.Expr && !void {
			return ShapeReturn
		}
	case syntax.StmtLocal:
		ld := s.Stmt.Data.(syntax.LocalData)
		if ld.Value == s.Expr && !void && (ld.Type == syntax.TypeVar || ld.Type == slotType) {
			return ShapeLocalInit
		}
	}
	return ShapeUnknown
}

func isIdent(e *syntax.Expr, name string) bool {
	return e != nil && e.Kind == syntax.ExprIdent && e.Data.(syntax.IdentData).Name == name
}

// passthrough reports whether the marker forwards exactly the parameters of
// the layer it sits in, in order and with the same ref kinds.
func passthrough(data syntax.LinkData, params []syntax.Param) bool {
	if len(data.Args) != len(params) {
		return false
	}
	for i, a := range data.Args {
		if a.Ref != params[i].Ref || !isIdent(a.Value, params[i].Name) {
			return false
		}
	}
	return true
}

// inlineBlocker returns why rs must be forwarded, or "" when it may be
// inlined. Checks run cheapest first.
func (a *analyzer) inlineBlocker(rs *ResolvedSite) string {
	d := a.d
	s := rs.Site
	data := s.Data()
	outer := d.Layers[s.Layer]
	inner := d.Layers[rs.Position]

	switch {
	case rs.Base != nil:
		return "base-qualified link"
	case rs.CrossAccessor():
		return fmt.Sprintf("targets the %s accessor", rs.Accessor)
	case data.Hint == syntax.HintNever:
		return "noinline hint"
	case a.opts.Inline == InlineNever:
		return "inlining disabled"
	case a.opts.Inline == InlineExplicit && data.Hint != syntax.HintInline:
		return "no inline hint"
	case outer.NotInlineable:
		return "layer is not inlineable"
	case s.InLambda:
		return "inside a lambda"
	case rs.Shape == ShapeUnknown:
		return "unsupported site shape"
	case !passthrough(data, outer.Member.Params):
		return "arguments are not the parameters in order"
	case !syntax.SameSignature(outer.Member, inner.Member):
		return "layer signatures differ"
	case outer.Member.Modifiers.Has(syntax.ModAsync) != inner.Member.Modifiers.Has(syntax.ModAsync):
		return "async mismatch"
	}

	body := inner.Body(rs.Accessor)
	if p := assignedParam(body, inner.Member.Params, rs.Accessor); p != "" {
		return fmt.Sprintf("inner body assigns parameter %s", p)
	}
	captured := a.captured[slot{rs.Accessor, rs.Position}]
	if p := assignedName(outer.Body(s.Accessor), captured); p != "" {
		return fmt.Sprintf("layer assigns parameter %s captured by the inner body", p)
	}
	if hasYield(body) {
		return "inner body is an iterator"
	}
	free := a.free[slot{rs.Accessor, rs.Position}]
	for _, n := range a.locals[slot{s.Accessor, s.Layer}].sorted() {
		if free.has(n) {
			return fmt.Sprintf("inner body refers to %s, a local of this layer", n)
		}
	}
	return ""
}
