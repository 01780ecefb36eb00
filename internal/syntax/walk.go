//nolint:errcheck // Kind implies the Data payload type.
package syntax

// Cursor describes where a visited node sits.
type Cursor struct {
	Stmt   *Stmt // innermost enclosing statement
	Parent *Expr // nil when the node is a direct child of Stmt
	Lambda int   // enclosing lambdas
	Loop   int   // enclosing loops
}

// Visitor receives nodes in preorder. Returning false skips the children.
// Either callback may be nil.
type Visitor struct {
	Stmt func(s *Stmt, c Cursor) bool
	Expr func(e *Expr, c Cursor) bool
}

type walker struct {
	v   Visitor
	cur Cursor
}

// Walk visits every statement and expression of b.
func Walk(b *Block, v Visitor) {
	w := &walker{v: v}
	w.block(b)
}

// WalkStmt visits s and everything below it.
func WalkStmt(s *Stmt, v Visitor) {
	w := &walker{v: v}
	w.stmt(s)
}

// WalkExpr visits e and everything below it.
func WalkExpr(e *Expr, v Visitor) {
	w := &walker{v: v}
	w.expr(e)
}

func (w *walker) block(b *Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		w.stmt(s)
	}
}

func (w *walker) loopBlock(b *Block) {
	w.cur.Loop++
	w.block(b)
	w.cur.Loop--
}

func (w *walker) stmt(s *Stmt) {
	if s == nil {
		return
	}
	saved := w.cur
	w.cur.Parent = nil
	if w.v.Stmt != nil && !w.v.Stmt(s, w.cur) {
		w.cur = saved
		return
	}
	w.cur.Stmt = s

	switch s.Kind {
	case StmtBlock:
		w.block(s.Data.(BlockStmtData).Block)
	case StmtExpr:
		w.expr(s.Data.(ExprStmtData).Expr)
	case StmtLocal:
		w.expr(s.Data.(LocalData).Value)
	case StmtReturn:
		w.expr(s.Data.(ReturnData).Value)
	case StmtIf:
		data := s.Data.(IfData)
		w.expr(data.Cond)
		w.block(data.Then)
		w.block(data.Else)
	case StmtWhile:
		data := s.Data.(WhileData)
		w.expr(data.Cond)
		w.loopBlock(data.Body)
	case StmtFor:
		data := s.Data.(ForData)
		w.stmt(data.Init)
		w.cur.Stmt = s
		w.cur.Loop++
		w.expr(data.Cond)
		w.expr(data.Post)
		w.block(data.Body)
		w.cur.Loop--
	case StmtForeach:
		data := s.Data.(ForeachData)
		w.expr(data.Iterable)
		w.loopBlock(data.Body)
	case StmtTry:
		data := s.Data.(TryData)
		w.block(data.Body)
		for _, c := range data.Catches {
			w.block(c.Body)
		}
		w.block(data.Finally)
	case StmtThrow:
		w.expr(s.Data.(ThrowData).Value)
	case StmtYield:
		w.expr(s.Data.(YieldData).Value)
	}
	w.cur = saved
}

func (w *walker) args(args []Arg) {
	for _, a := range args {
		w.expr(a.Value)
	}
}

func (w *walker) expr(e *Expr) {
	if e == nil {
		return
	}
	if w.v.Expr != nil && !w.v.Expr(e, w.cur) {
		return
	}
	saved := w.cur
	w.cur.Parent = e

	switch e.Kind {
	case ExprMember:
		w.expr(e.Data.(MemberData).Receiver)
	case ExprCall:
		data := e.Data.(CallData)
		w.expr(data.Callee)
		w.args(data.Args)
	case ExprIndex:
		data := e.Data.(IndexData)
		w.expr(data.Receiver)
		w.args(data.Args)
	case ExprUnary:
		w.expr(e.Data.(UnaryData).Operand)
	case ExprBinary:
		data := e.Data.(BinaryData)
		w.expr(data.Left)
		w.expr(data.Right)
	case ExprAssign:
		data := e.Data.(AssignData)
		w.expr(data.Target)
		w.expr(data.Value)
	case ExprCast:
		w.expr(e.Data.(CastData).Operand)
	case ExprNew:
		w.args(e.Data.(NewData).Args)
	case ExprLink:
		w.args(e.Data.(LinkData).Args)
	case ExprLambda:
		data := e.Data.(LambdaData)
		w.cur.Lambda++
		loop := w.cur.Loop
		w.cur.Loop = 0
		w.expr(data.ExprBody)
		w.block(data.Body)
		w.cur.Loop = loop
		w.cur.Lambda--
	}
	w.cur = saved
}

// ContainsKind reports whether any expression of kind k occurs in b.
func ContainsKind(b *Block, k ExprKind) bool {
	found := false
	Walk(b, Visitor{Expr: func(e *Expr, _ Cursor) bool {
		if e.Kind == k {
			found = true
		}
		return !found
	}})
	return found
}
