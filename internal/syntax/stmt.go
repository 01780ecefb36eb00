package syntax

import "weave/internal/source"

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtExpr
	// StmtLocal declares one local variable, optionally initialised.
	StmtLocal
	StmtReturn
	StmtIf
	StmtWhile
	StmtFor
	StmtForeach
	StmtTry
	StmtThrow
	StmtBreak
	StmtContinue
	StmtGoto
	// StmtLabel is a labeled empty statement ("name: ;").
	StmtLabel
	// StmtYield is "yield return x;" or "yield break;".
	StmtYield
	StmtEmpty
)

var stmtKindNames = [...]string{
	StmtBlock:    "block",
	StmtExpr:     "expr",
	StmtLocal:    "local",
	StmtReturn:   "return",
	StmtIf:       "if",
	StmtWhile:    "while",
	StmtFor:      "for",
	StmtForeach:  "foreach",
	StmtTry:      "try",
	StmtThrow:    "throw",
	StmtBreak:    "break",
	StmtContinue: "continue",
	StmtGoto:     "goto",
	StmtLabel:    "label",
	StmtYield:    "yield",
	StmtEmpty:    "empty",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtKindNames) {
		return stmtKindNames[k]
	}
	return "unknown"
}

// ParseStmtKind is the inverse of StmtKind.String.
func ParseStmtKind(s string) (StmtKind, bool) {
	for i, name := range stmtKindNames {
		if name == s {
			return StmtKind(i), true
		}
	}
	return 0, false
}

// Block is an ordered statement list with its own scope.
type Block struct {
	Stmts []*Stmt
	Span  source.Span
}

// Stmt is a statement node. Data holds the kind-specific payload; break,
// continue and empty statements carry nil Data.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData
}

// StmtData is implemented by statement payloads.
type StmtData interface {
	stmtData()
}

type BlockStmtData struct {
	Block *Block
}

func (BlockStmtData) stmtData() {}

type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// LocalData declares a local. Type is TypeVar for implicitly typed locals.
type LocalData struct {
	Type  string
	Name  string
	Value *Expr
}

func (LocalData) stmtData() {}

type ReturnData struct {
	Value *Expr // nil for "return;"
}

func (ReturnData) stmtData() {}

type IfData struct {
	Cond *Expr
	Then *Block
	Else *Block
}

func (IfData) stmtData() {}

type WhileData struct {
	Cond *Expr
	Body *Block
}

func (WhileData) stmtData() {}

type ForData struct {
	Init *Stmt // StmtLocal or StmtExpr, may be nil
	Cond *Expr
	Post *Expr
	Body *Block
}

func (ForData) stmtData() {}

type ForeachData struct {
	Type     string
	Name     string
	Iterable *Expr
	Body     *Block
}

func (ForeachData) stmtData() {}

type CatchClause struct {
	Type string // "" for a general catch
	Name string // "" when the exception is not bound
	Body *Block
}

type TryData struct {
	Body    *Block
	Catches []CatchClause
	Finally *Block
}

func (TryData) stmtData() {}

type ThrowData struct {
	Value *Expr // nil rethrows
}

func (ThrowData) stmtData() {}

type GotoData struct {
	Label string
}

func (GotoData) stmtData() {}

type LabelData struct {
	Label string
}

func (LabelData) stmtData() {}

type YieldData struct {
	Value *Expr
	Break bool
}

func (YieldData) stmtData() {}
