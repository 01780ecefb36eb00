package unitio

import (
	"weave/internal/link"
	"weave/internal/source"
	"weave/internal/syntax"
)

// FromInput converts a linker input back to the wire form.
func FromInput(in *link.Input, fs *source.FileSet) *Unit {
	u := &Unit{Version: SchemaVersion, Files: fs.Paths()}
	for _, ti := range in.Types {
		t := encodeType(ti.Type)
		for _, o := range ti.Overrides {
			ov := Override{Target: wireKey(o.Target)}
			for _, l := range o.Layers {
				ov.Layers = append(ov.Layers, Layer{Member: wireKey(l.Member), Aspect: l.Aspect, NotInlineable: l.NotInlineable})
			}
			t.Overrides = append(t.Overrides, ov)
		}
		u.Types = append(u.Types, t)
	}
	return u
}

// FromTypes converts linked types. The result has no overrides.
func FromTypes(types []*syntax.TypeDecl, fs *source.FileSet) *Unit {
	u := &Unit{Version: SchemaVersion, Files: fs.Paths(), Types: make([]Type, 0, len(types))}
	for _, t := range types {
		u.Types = append(u.Types, encodeType(t))
	}
	return u
}

func wireKey(k syntax.MemberKey) Key {
	return Key{Name: k.Name, Interface: k.Interface, Sig: k.Sig}
}

// FileIDs are assigned densely from 1, so an ID is its index in Files.
func wireSpan(s source.Span) *Span {
	if s == (source.Span{}) {
		return nil
	}
	return &Span{File: int64(s.File), Start: int64(s.Start), End: int64(s.End)}
}

func encodeType(t *syntax.TypeDecl) Type {
	out := Type{
		Kind:       t.Kind,
		Name:       t.Name,
		Namespace:  t.Namespace,
		Base:       t.Base,
		Interfaces: t.Interfaces,
		Modifiers:  t.Modifiers.String(),
		Members:    make([]Member, 0, len(t.Members)),
		Span:       wireSpan(t.Span),
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, encodeMember(m))
	}
	return out
}

func encodeMember(m *syntax.Member) Member {
	out := Member{
		Kind:         m.Kind.String(),
		Name:         m.Name,
		Operator:     m.Operator,
		Interface:    m.Interface,
		Type:         m.Type,
		Params:       encodeParams(m.Params),
		Modifiers:    m.Modifiers.String(),
		Body:         encodeBlock(m.Body),
		ExprBodied:   m.ExprBodied,
		Initializer:  encodeExpr(m.Initializer),
		Suppressions: m.Suppressions,
		BackingField: m.BackingField,
		Span:         wireSpan(m.Span),
	}
	for _, a := range m.Attributes {
		out.Attributes = append(out.Attributes, a.Text)
	}
	for _, a := range m.Accessors {
		out.Accessors = append(out.Accessors, Accessor{
			Kind:       a.Kind.String(),
			Modifiers:  a.Modifiers.String(),
			Body:       encodeBlock(a.Body),
			ExprBodied: a.ExprBodied,
			Span:       wireSpan(a.Span),
		})
	}
	return out
}

func encodeParams(ps []syntax.Param) []Param {
	if len(ps) == 0 {
		return nil
	}
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{Name: p.Name, Type: p.Type, Ref: p.Ref.String()}
	}
	return out
}

func encodeBlock(b *syntax.Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Stmts: make([]*Stmt, 0, len(b.Stmts)), Span: wireSpan(b.Span)}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, encodeStmt(s))
	}
	return out
}

func encodeStmt(s *syntax.Stmt) *Stmt {
	if s == nil {
		return nil
	}
	out := &Stmt{Kind: s.Kind.String(), Span: wireSpan(s.Span)}
	switch data := s.Data.(type) {
	case syntax.BlockStmtData:
		out.Body = encodeBlock(data.Block)
	case syntax.ExprStmtData:
		out.Expr = encodeExpr(data.Expr)
	case syntax.LocalData:
		out.Type, out.Name, out.Expr = data.Type, data.Name, encodeExpr(data.Value)
	case syntax.ReturnData:
		out.Expr = encodeExpr(data.Value)
	case syntax.IfData:
		out.Cond, out.Then, out.Else = encodeExpr(data.Cond), encodeBlock(data.Then), encodeBlock(data.Else)
	case syntax.WhileData:
		out.Cond, out.Body = encodeExpr(data.Cond), encodeBlock(data.Body)
	case syntax.ForData:
		out.Init = encodeStmt(data.Init)
		out.Cond, out.Post, out.Body = encodeExpr(data.Cond), encodeExpr(data.Post), encodeBlock(data.Body)
	case syntax.ForeachData:
		out.Type, out.Name = data.Type, data.Name
		out.Expr, out.Body = encodeExpr(data.Iterable), encodeBlock(data.Body)
	case syntax.TryData:
		out.Body, out.Finally = encodeBlock(data.Body), encodeBlock(data.Finally)
		for _, c := range data.Catches {
			out.Catches = append(out.Catches, Catch{Type: c.Type, Name: c.Name, Body: encodeBlock(c.Body)})
		}
	case syntax.ThrowData:
		out.Expr = encodeExpr(data.Value)
	case syntax.GotoData:
		out.Label = data.Label
	case syntax.LabelData:
		out.Label = data.Label
	case syntax.YieldData:
		out.Expr, out.Break = encodeExpr(data.Value), data.Break
	}
	return out
}

func encodeArgs(as []syntax.Arg) []Arg {
	if len(as) == 0 {
		return nil
	}
	out := make([]Arg, len(as))
	for i, a := range as {
		out[i] = Arg{Ref: a.Ref.String(), Value: encodeExpr(a.Value)}
	}
	return out
}

func encodeExpr(e *syntax.Expr) *Expr {
	if e == nil {
		return nil
	}
	out := &Expr{Kind: e.Kind.String(), Span: wireSpan(e.Span)}
	switch data := e.Data.(type) {
	case syntax.IdentData:
		out.Name = data.Name
	case syntax.LiteralData:
		out.Lit, out.Text = data.Kind.String(), data.Text
	case syntax.MemberData:
		out.Recv, out.Name = encodeExpr(data.Receiver), data.Name
	case syntax.CallData:
		out.Recv, out.Args = encodeExpr(data.Callee), encodeArgs(data.Args)
	case syntax.IndexData:
		out.Recv, out.Args = encodeExpr(data.Receiver), encodeArgs(data.Args)
	case syntax.UnaryData:
		out.Op, out.Left, out.Postfix = data.Op, encodeExpr(data.Operand), data.Postfix
	case syntax.BinaryData:
		out.Op, out.Left, out.Right = data.Op, encodeExpr(data.Left), encodeExpr(data.Right)
	case syntax.AssignData:
		out.Op, out.Left, out.Right = data.Op, encodeExpr(data.Target), encodeExpr(data.Value)
	case syntax.CastData:
		out.Type, out.Left = data.Type, encodeExpr(data.Operand)
	case syntax.LambdaData:
		out.Params, out.Body, out.Left = encodeParams(data.Params), encodeBlock(data.Body), encodeExpr(data.ExprBody)
	case syntax.NewData:
		out.Type, out.Args = data.Type, encodeArgs(data.Args)
	case syntax.LinkData:
		out.Args = encodeArgs(data.Args)
		l := &Link{
			Member:     data.Member,
			Interface:  data.Interface,
			Accessor:   data.Accessor.String(),
			Invoke:     data.Invoke,
			ParamTypes: data.ParamTypes,
		}
		if data.Qualifier != syntax.QualThis {
			l.Qualifier = data.Qualifier.String()
		}
		if data.Hint != syntax.HintAuto {
			l.Hint = data.Hint.String()
		}
		if data.Layer.Explicit {
			pos := data.Layer.Position
			l.Layer = &pos
		}
		out.Link = l
	}
	return out
}
