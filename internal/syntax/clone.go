//nolint:errcheck // Kind implies the Data payload type.
package syntax

import "slices"

// CloneBlock deep-copies b.
func CloneBlock(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{Span: b.Span}
	if len(b.Stmts) == 0 {
		return out
	}
	out.Stmts = make([]*Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		out.Stmts[i] = CloneStmt(s)
	}
	return out
}

// CloneStmt deep-copies s.
func CloneStmt(s *Stmt) *Stmt {
	if s == nil {
		return nil
	}
	out := &Stmt{Kind: s.Kind, Span: s.Span}
	switch data := s.Data.(type) {
	case BlockStmtData:
		out.Data = BlockStmtData{Block: CloneBlock(data.Block)}
	case ExprStmtData:
		out.Data = ExprStmtData{Expr: CloneExpr(data.Expr)}
	case LocalData:
		data.Value = CloneExpr(data.Value)
		out.Data = data
	case ReturnData:
		out.Data = ReturnData{Value: CloneExpr(data.Value)}
	case IfData:
		out.Data = IfData{Cond: CloneExpr(data.Cond), Then: CloneBlock(data.Then), Else: CloneBlock(data.Else)}
	case WhileData:
		out.Data = WhileData{Cond: CloneExpr(data.Cond), Body: CloneBlock(data.Body)}
	case ForData:
		out.Data = ForData{
			Init: CloneStmt(data.Init),
			Cond: CloneExpr(data.Cond),
			Post: CloneExpr(data.Post),
			Body: CloneBlock(data.Body),
		}
	case ForeachData:
		data.Iterable = CloneExpr(data.Iterable)
		data.Body = CloneBlock(data.Body)
		out.Data = data
	case TryData:
		cp := TryData{Body: CloneBlock(data.Body), Finally: CloneBlock(data.Finally)}
		if len(data.Catches) > 0 {
			cp.Catches = make([]CatchClause, len(data.Catches))
			for i, c := range data.Catches {
				c.Body = CloneBlock(c.Body)
				cp.Catches[i] = c
			}
		}
		out.Data = cp
	case ThrowData:
		out.Data = ThrowData{Value: CloneExpr(data.Value)}
	case YieldData:
		data.Value = CloneExpr(data.Value)
		out.Data = data
	default:
		// goto, label and payload-free statements hold only values
		out.Data = s.Data
	}
	return out
}

func cloneArgs(args []Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = Arg{Ref: a.Ref, Value: CloneExpr(a.Value)}
	}
	return out
}

// CloneExpr deep-copies e.
func CloneExpr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	out := &Expr{Kind: e.Kind, Span: e.Span}
	switch data := e.Data.(type) {
	case MemberData:
		out.Data = MemberData{Receiver: CloneExpr(data.Receiver), Name: data.Name}
	case CallData:
		out.Data = CallData{Callee: CloneExpr(data.Callee), Args: cloneArgs(data.Args)}
	case IndexData:
		out.Data = IndexData{Receiver: CloneExpr(data.Receiver), Args: cloneArgs(data.Args)}
	case UnaryData:
		data.Operand = CloneExpr(data.Operand)
		out.Data = data
	case BinaryData:
		out.Data = BinaryData{Op: data.Op, Left: CloneExpr(data.Left), Right: CloneExpr(data.Right)}
	case AssignData:
		out.Data = AssignData{Op: data.Op, Target: CloneExpr(data.Target), Value: CloneExpr(data.Value)}
	case CastData:
		out.Data = CastData{Type: data.Type, Operand: CloneExpr(data.Operand)}
	case LambdaData:
		out.Data = LambdaData{
			Params:   slices.Clone(data.Params),
			Body:     CloneBlock(data.Body),
			ExprBody: CloneExpr(data.ExprBody),
		}
	case NewData:
		out.Data = NewData{Type: data.Type, Args: cloneArgs(data.Args)}
	case LinkData:
		data.Args = cloneArgs(data.Args)
		data.ParamTypes = slices.Clone(data.ParamTypes)
		out.Data = data
	default:
		// ident, literal, this, base
		out.Data = e.Data
	}
	return out
}

// CloneAccessor deep-copies a.
func CloneAccessor(a *Accessor) *Accessor {
	if a == nil {
		return nil
	}
	out := *a
	out.Body = CloneBlock(a.Body)
	return &out
}

// CloneMember deep-copies m.
func CloneMember(m *Member) *Member {
	if m == nil {
		return nil
	}
	out := *m
	out.Params = slices.Clone(m.Params)
	out.Attributes = slices.Clone(m.Attributes)
	out.Suppressions = slices.Clone(m.Suppressions)
	out.Body = CloneBlock(m.Body)
	out.Initializer = CloneExpr(m.Initializer)
	if m.Accessors != nil {
		out.Accessors = make([]*Accessor, len(m.Accessors))
		for i, a := range m.Accessors {
			out.Accessors[i] = CloneAccessor(a)
		}
	}
	return &out
}
