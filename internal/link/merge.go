//nolint:errcheck // Kind implies the Data payload type.
package link

import (
	"fmt"
	"slices"
	"strconv"

	"weave/internal/syntax"
)

const (
	returnLabelPrefix = "__aspect_return_"
	resultTempPrefix  = "__aspect_result_"
)

// merger produces the merged body of every live layer of one declaration,
// then the final and generated members.
type merger struct {
	d      *Declaration
	merged map[slot]*syntax.Block
}

func newMerger(d *Declaration) *merger {
	return &merger{d: d, merged: make(map[slot]*syntax.Block)}
}

func (m *merger) run() {
	d := m.d
	d.final = m.finalMember()
	d.generated = d.generated[:0]
	for _, g := range d.gens {
		d.generated = append(d.generated, m.generatedMembers(g)...)
	}
}

// body returns the merged body of a layer, merging it on first use. Inlined
// sites only target lower layers, so the recursion terminates.
func (m *merger) body(acc syntax.AccessorKind, pos int) *syntax.Block {
	key := slot{acc, pos}
	if b, ok := m.merged[key]; ok {
		return b
	}
	layer := m.d.Layers[pos]
	src := layer.Body(acc)
	r := &rewriter{
		m:      m,
		layer:  layer,
		acc:    acc,
		used:   identifiers(src),
		inline: make(map[*syntax.Stmt]*ResolvedSite),
	}
	if acc.IsVoidLike() {
		r.used.add("value")
	}
	for _, p := range layer.Member.Params {
		r.used.add(p.Name)
	}
	for _, rs := range m.d.order {
		if rs.Site.Layer == pos && rs.Site.Accessor == acc && rs.Site.State() == SiteInlined {
			r.inline[rs.Site.Stmt] = rs
		}
	}
	b := r.block(src)
	m.merged[key] = b
	return b
}

// rewriter copies one layer body, splicing inlined sites and replacing
// forwarded markers.
type rewriter struct {
	m      *merger
	layer  *Layer
	acc    syntax.AccessorKind
	used   nameSet
	inline map[*syntax.Stmt]*ResolvedSite
	next   int
}

func (r *rewriter) block(b *syntax.Block) *syntax.Block {
	if b == nil {
		return nil
	}
	out := &syntax.Block{Span: b.Span, Stmts: make([]*syntax.Stmt, 0, len(b.Stmts))}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, r.stmt(s)...)
	}
	return out
}

func (r *rewriter) stmt(s *syntax.Stmt) []*syntax.Stmt {
	if s == nil {
		return nil
	}
	if rs, ok := r.inline[s]; ok {
		return r.splice(s, rs)
	}
	out := &syntax.Stmt{Kind: s.Kind, Span: s.Span}
	switch data := s.Data.(type) {
	case syntax.BlockStmtData:
		out.Data = syntax.BlockStmtData{Block: r.block(data.Block)}
	case syntax.ExprStmtData:
		out.Data = syntax.ExprStmtData{Expr: r.expr(data.Expr)}
	case syntax.LocalData:
		data.Value = r.expr(data.Value)
		out.Data = data
	case syntax.ReturnData:
		out.Data = syntax.ReturnData{Value: r.expr(data.Value)}
	case syntax.IfData:
		out.Data = syntax.IfData{Cond: r.expr(data.Cond), Then: r.block(data.Then), Else: r.block(data.Else)}
	case syntax.WhileData:
		out.Data = syntax.WhileData{Cond: r.expr(data.Cond), Body: r.block(data.Body)}
	case syntax.ForData:
		var init *syntax.Stmt
		if data.Init != nil {
			init = r.stmt(data.Init)[0]
		}
		out.Data = syntax.ForData{Init: init, Cond: r.expr(data.Cond), Post: r.expr(data.Post), Body: r.block(data.Body)}
	case syntax.ForeachData:
		data.Iterable = r.expr(data.Iterable)
		data.Body = r.block(data.Body)
		out.Data = data
	case syntax.TryData:
		cp := syntax.TryData{Body: r.block(data.Body), Finally: r.block(data.Finally)}
		for _, c := range data.Catches {
			c.Body = r.block(c.Body)
			cp.Catches = append(cp.Catches, c)
		}
		out.Data = cp
	case syntax.ThrowData:
		out.Data = syntax.ThrowData{Value: r.expr(data.Value)}
	case syntax.YieldData:
		data.Value = r.expr(data.Value)
		out.Data = data
	default:
		out.Data = s.Data
	}
	return []*syntax.Stmt{out}
}

func (r *rewriter) args(args []syntax.Arg) []syntax.Arg {
	if args == nil {
		return nil
	}
	out := make([]syntax.Arg, len(args))
	for i, a := range args {
		out[i] = syntax.Arg{Ref: a.Ref, Value: r.expr(a.Value)}
	}
	return out
}

func (r *rewriter) expr(e *syntax.Expr) *syntax.Expr {
	if e == nil {
		return nil
	}
	out := &syntax.Expr{Kind: e.Kind, Span: e.Span}
	switch data := e.Data.(type) {
	case syntax.LinkData:
		return r.forward(e, data)
	case syntax.AssignData:
		if data.Target != nil && data.Target.Kind == syntax.ExprLink {
			if call := r.indexerSet(data); call != nil {
				return call
			}
		}
		out.Data = syntax.AssignData{Op: data.Op, Target: r.expr(data.Target), Value: r.expr(data.Value)}
	case syntax.MemberData:
		out.Data = syntax.MemberData{Receiver: r.expr(data.Receiver), Name: data.Name}
	case syntax.CallData:
		out.Data = syntax.CallData{Callee: r.expr(data.Callee), Args: r.args(data.Args)}
	case syntax.IndexData:
		out.Data = syntax.IndexData{Receiver: r.expr(data.Receiver), Args: r.args(data.Args)}
	case syntax.UnaryData:
		data.Operand = r.expr(data.Operand)
		out.Data = data
	case syntax.BinaryData:
		out.Data = syntax.BinaryData{Op: data.Op, Left: r.expr(data.Left), Right: r.expr(data.Right)}
	case syntax.CastData:
		out.Data = syntax.CastData{Type: data.Type, Operand: r.expr(data.Operand)}
	case syntax.LambdaData:
		out.Data = syntax.LambdaData{
			Params:   slices.Clone(data.Params),
			Body:     r.block(data.Body),
			ExprBody: r.expr(data.ExprBody),
		}
	case syntax.NewData:
		out.Data = syntax.NewData{Type: data.Type, Args: r.args(data.Args)}
	default:
		out.Data = e.Data
	}
	return out
}

// fresh returns an index N for which neither the return label nor the
// result temporary is taken, and reserves both.
func (r *rewriter) fresh() int {
	for {
		r.next++
		label := returnLabelPrefix + strconv.Itoa(r.next)
		temp := resultTempPrefix + strconv.Itoa(r.next)
		if !r.used.has(label) && !r.used.has(temp) {
			r.used.add(label, temp)
			return r.next
		}
	}
}

// splice replaces the statement holding an inlined site with a renamed copy
// of the inner merged body.
func (r *rewriter) splice(s *syntax.Stmt, rs *ResolvedSite) []*syntax.Stmt {
	inner := syntax.CloneBlock(r.m.body(rs.Accessor, rs.Position))
	r.rename(inner)
	stmts := inner.Stmts

	switch rs.Shape {
	case ShapeVoidStatement, ShapeSetter, ShapeEventAdd, ShapeEventRemove:
		return r.spliceVoid(stmts)
	case ShapeReturn:
		return r.spliceValue(stmts, nil)
	case ShapeLocalInit:
		ld := s.Data.(syntax.LocalData)
		return r.spliceValue(stmts, &valueTarget{name: ld.Name, declare: ld.Type})
	case ShapeLocalAssign:
		target := s.Data.(syntax.ExprStmtData).Expr.Data.(syntax.AssignData).Target
		return r.spliceValue(stmts, &valueTarget{name: target.Data.(syntax.IdentData).Name})
	}
	panic(fmt.Sprintf("link: inlined site with shape %s", rs.Shape))
}

// spliceVoid drops a trailing "return;" and turns the remaining returns
// into jumps to a label placed after the spliced statements.
func (r *rewriter) spliceVoid(stmts []*syntax.Stmt) []*syntax.Stmt {
	if n := len(stmts); n > 0 && stmts[n-1].Kind == syntax.StmtReturn {
		stmts = stmts[:n-1]
	}
	if countReturns(stmts) == 0 {
		return stmts
	}
	label := returnLabelPrefix + strconv.Itoa(r.fresh())
	stmts = rewriteReturns(stmts, func(*syntax.Expr) []*syntax.Stmt {
		return []*syntax.Stmt{syntax.Goto(label)}
	})
	return append(stmts, syntax.Label(label))
}

// valueTarget is the local receiving the inner result. declare holds the
// declared type when the local is introduced by the site itself.
type valueTarget struct {
	name    string
	declare string
}

// spliceValue rewrites the returns of a value-producing inner body. A body
// whose only return is its last statement keeps that return in place (or
// turns it into the assignment); any other body routes every return
// through the target, or a fresh temporary, and a label.
func (r *rewriter) spliceValue(stmts []*syntax.Stmt, target *valueTarget) []*syntax.Stmt {
	n := countReturns(stmts)
	last := len(stmts) - 1
	single := n == 1 && last >= 0 && stmts[last].Kind == syntax.StmtReturn
	slotType := r.layer.Member.SlotType(r.acc)

	if target == nil {
		if n == 0 || single {
			return stmts
		}
		idx := r.fresh()
		label := returnLabelPrefix + strconv.Itoa(idx)
		temp := resultTempPrefix + strconv.Itoa(idx)
		out := []*syntax.Stmt{syntax.Local(slotType, temp, nil)}
		out = append(out, rewriteReturns(stmts, func(v *syntax.Expr) []*syntax.Stmt {
			return []*syntax.Stmt{syntax.ExprStmt(syntax.Assign("=", syntax.Ident(temp), v)), syntax.Goto(label)}
		})...)
		return append(out, syntax.Label(label), syntax.Return(syntax.Ident(temp)))
	}

	if single {
		v := stmts[last].Data.(syntax.ReturnData).Value
		if target.declare != "" {
			stmts[last] = syntax.Local(target.declare, target.name, v)
		} else {
			stmts[last] = syntax.ExprStmt(syntax.Assign("=", syntax.Ident(target.name), v))
		}
		return stmts
	}

	var out []*syntax.Stmt
	if target.declare != "" {
		typ := target.declare
		if typ == syntax.TypeVar {
			typ = slotType
		}
		out = append(out, syntax.Local(typ, target.name, nil))
	}
	if n == 0 {
		return append(out, stmts...)
	}
	label := returnLabelPrefix + strconv.Itoa(r.fresh())
	out = append(out, rewriteReturns(stmts, func(v *syntax.Expr) []*syntax.Stmt {
		return []*syntax.Stmt{syntax.ExprStmt(syntax.Assign("=", syntax.Ident(target.name), v)), syntax.Goto(label)}
	})...)
	return append(out, syntax.Label(label))
}

// rewriteReturns replaces every return outside lambdas. Nested blocks are
// rewritten in place; the caller owns them.
func rewriteReturns(stmts []*syntax.Stmt, fn func(value *syntax.Expr) []*syntax.Stmt) []*syntax.Stmt {
	out := make([]*syntax.Stmt, 0, len(stmts))
	for _, s := range stmts {
		if s.Kind == syntax.StmtReturn {
			out = append(out, fn(s.Data.(syntax.ReturnData).Value)...)
			continue
		}
		nested := func(b *syntax.Block) {
			if b != nil {
				b.Stmts = rewriteReturns(b.Stmts, fn)
			}
		}
		switch data := s.Data.(type) {
		case syntax.BlockStmtData:
			nested(data.Block)
		case syntax.IfData:
			nested(data.Then)
			nested(data.Else)
		case syntax.WhileData:
			nested(data.Body)
		case syntax.ForData:
			nested(data.Body)
		case syntax.ForeachData:
			nested(data.Body)
		case syntax.TryData:
			nested(data.Body)
			for _, c := range data.Catches {
				nested(c.Body)
			}
			nested(data.Finally)
		}
		out = append(out, s)
	}
	return out
}
