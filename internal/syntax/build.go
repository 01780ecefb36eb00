package syntax

// Constructors for synthesized nodes. Spans are left zero, which marks the
// node as generated.

func Ident(name string) *Expr {
	return &Expr{Kind: ExprIdent, Data: IdentData{Name: name}}
}

func This() *Expr { return &Expr{Kind: ExprThis} }

func Base() *Expr { return &Expr{Kind: ExprBase} }

// Lit builds a literal kept verbatim.
func Lit(kind LiteralKind, text string) *Expr {
	return &Expr{Kind: ExprLiteral, Data: LiteralData{Kind: kind, Text: text}}
}

func Int(text string) *Expr { return Lit(LitInt, text) }

// Str builds a string literal; text is quoted as given.
func Str(text string) *Expr { return Lit(LitString, `"`+text+`"`) }

func Bool(v bool) *Expr {
	if v {
		return Lit(LitBool, "true")
	}
	return Lit(LitBool, "false")
}

// Sel builds a member access "recv.name".
func Sel(recv *Expr, name string) *Expr {
	return &Expr{Kind: ExprMember, Data: MemberData{Receiver: recv, Name: name}}
}

func Call(callee *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Data: CallData{Callee: callee, Args: Args(args...)}}
}

// CallArgs is Call with explicit ref kinds.
func CallArgs(callee *Expr, args []Arg) *Expr {
	return &Expr{Kind: ExprCall, Data: CallData{Callee: callee, Args: args}}
}

func Index(recv *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprIndex, Data: IndexData{Receiver: recv, Args: Args(args...)}}
}

func Unary(op string, operand *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Data: UnaryData{Op: op, Operand: operand}}
}

func Postfix(op string, operand *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Data: UnaryData{Op: op, Operand: operand, Postfix: true}}
}

func Binary(op string, l, r *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Data: BinaryData{Op: op, Left: l, Right: r}}
}

func Assign(op string, target, value *Expr) *Expr {
	return &Expr{Kind: ExprAssign, Data: AssignData{Op: op, Target: target, Value: value}}
}

func Cast(typ string, operand *Expr) *Expr {
	return &Expr{Kind: ExprCast, Data: CastData{Type: typ, Operand: operand}}
}

func New(typ string, args ...*Expr) *Expr {
	return &Expr{Kind: ExprNew, Data: NewData{Type: typ, Args: Args(args...)}}
}

// Lambda builds a block-bodied lambda.
func Lambda(params []Param, body *Block) *Expr {
	return &Expr{Kind: ExprLambda, Data: LambdaData{Params: params, Body: body}}
}

func Link(data LinkData) *Expr {
	return &Expr{Kind: ExprLink, Data: data}
}

// Args wraps plain expressions as by-value arguments.
func Args(es ...*Expr) []Arg {
	if len(es) == 0 {
		return nil
	}
	out := make([]Arg, len(es))
	for i, e := range es {
		out[i] = Arg{Value: e}
	}
	return out
}

func ExprStmt(e *Expr) *Stmt {
	return &Stmt{Kind: StmtExpr, Data: ExprStmtData{Expr: e}}
}

func Local(typ, name string, value *Expr) *Stmt {
	return &Stmt{Kind: StmtLocal, Data: LocalData{Type: typ, Name: name, Value: value}}
}

// Return builds "return value;"; a nil value gives "return;".
func Return(value *Expr) *Stmt {
	return &Stmt{Kind: StmtReturn, Data: ReturnData{Value: value}}
}

func If(cond *Expr, then, els *Block) *Stmt {
	return &Stmt{Kind: StmtIf, Data: IfData{Cond: cond, Then: then, Else: els}}
}

func While(cond *Expr, body *Block) *Stmt {
	return &Stmt{Kind: StmtWhile, Data: WhileData{Cond: cond, Body: body}}
}

func For(init *Stmt, cond, post *Expr, body *Block) *Stmt {
	return &Stmt{Kind: StmtFor, Data: ForData{Init: init, Cond: cond, Post: post, Body: body}}
}

func Foreach(typ, name string, iterable *Expr, body *Block) *Stmt {
	return &Stmt{Kind: StmtForeach, Data: ForeachData{Type: typ, Name: name, Iterable: iterable, Body: body}}
}

func Try(body *Block, catches []CatchClause, finally *Block) *Stmt {
	return &Stmt{Kind: StmtTry, Data: TryData{Body: body, Catches: catches, Finally: finally}}
}

func Throw(value *Expr) *Stmt {
	return &Stmt{Kind: StmtThrow, Data: ThrowData{Value: value}}
}

func Break() *Stmt    { return &Stmt{Kind: StmtBreak} }
func Continue() *Stmt { return &Stmt{Kind: StmtContinue} }
func Empty() *Stmt    { return &Stmt{Kind: StmtEmpty} }

func Goto(label string) *Stmt {
	return &Stmt{Kind: StmtGoto, Data: GotoData{Label: label}}
}

func Label(label string) *Stmt {
	return &Stmt{Kind: StmtLabel, Data: LabelData{Label: label}}
}

func YieldReturn(value *Expr) *Stmt {
	return &Stmt{Kind: StmtYield, Data: YieldData{Value: value}}
}

func YieldBreak() *Stmt {
	return &Stmt{Kind: StmtYield, Data: YieldData{Break: true}}
}

func Nested(b *Block) *Stmt {
	return &Stmt{Kind: StmtBlock, Data: BlockStmtData{Block: b}}
}

func NewBlock(stmts ...*Stmt) *Block {
	return &Block{Stmts: stmts}
}
