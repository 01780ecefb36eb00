package syntax

import "weave/internal/source"

// ExprKind enumerates expression kinds.
type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprThis
	ExprBase
	ExprLiteral
	ExprMember
	ExprCall
	ExprIndex
	ExprUnary
	ExprBinary
	ExprAssign
	ExprCast
	ExprLambda
	ExprNew
	// ExprLink is a link marker: "the next inner layer of this member".
	ExprLink
)

var exprKindNames = [...]string{
	ExprIdent:   "ident",
	ExprThis:    "this",
	ExprBase:    "base",
	ExprLiteral: "literal",
	ExprMember:  "member",
	ExprCall:    "call",
	ExprIndex:   "index",
	ExprUnary:   "unary",
	ExprBinary:  "binary",
	ExprAssign:  "assign",
	ExprCast:    "cast",
	ExprLambda:  "lambda",
	ExprNew:     "new",
	ExprLink:    "link",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "unknown"
}

// ParseExprKind is the inverse of ExprKind.String.
func ParseExprKind(s string) (ExprKind, bool) {
	for i, name := range exprKindNames {
		if name == s {
			return ExprKind(i), true
		}
	}
	return 0, false
}

// Expr is an expression node. ExprThis and ExprBase carry nil Data.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Data ExprData
}

// ExprData is implemented by expression payloads.
type ExprData interface {
	exprData()
}

// Arg is a call or index argument.
type Arg struct {
	Ref   RefKind
	Value *Expr
}

type IdentData struct {
	Name string
}

func (IdentData) exprData() {}

// LiteralKind classifies literal tokens.
type LiteralKind uint8

const (
	LitInt LiteralKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
	LitNull
)

var literalKindNames = [...]string{
	LitInt:    "int",
	LitFloat:  "float",
	LitString: "string",
	LitChar:   "char",
	LitBool:   "bool",
	LitNull:   "null",
}

func (k LiteralKind) String() string {
	if int(k) < len(literalKindNames) {
		return literalKindNames[k]
	}
	return "unknown"
}

// ParseLiteralKind is the inverse of LiteralKind.String.
func ParseLiteralKind(s string) (LiteralKind, bool) {
	for i, name := range literalKindNames {
		if name == s {
			return LiteralKind(i), true
		}
	}
	return 0, false
}

// LiteralData keeps the literal exactly as written (quotes included).
type LiteralData struct {
	Kind LiteralKind
	Text string
}

func (LiteralData) exprData() {}

type MemberData struct {
	Receiver *Expr
	Name     string
}

func (MemberData) exprData() {}

type CallData struct {
	Callee *Expr
	Args   []Arg
}

func (CallData) exprData() {}

type IndexData struct {
	Receiver *Expr
	Args     []Arg
}

func (IndexData) exprData() {}

type UnaryData struct {
	Op      string
	Operand *Expr
	Postfix bool
}

func (UnaryData) exprData() {}

type BinaryData struct {
	Op    string
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// AssignData covers "=" and compound assignments ("+=", "-=", ...).
type AssignData struct {
	Op     string
	Target *Expr
	Value  *Expr
}

func (AssignData) exprData() {}

type CastData struct {
	Type    string
	Operand *Expr
}

func (CastData) exprData() {}

// LambdaData has either a block Body or an ExprBody.
type LambdaData struct {
	Params   []Param
	Body     *Block
	ExprBody *Expr
}

func (LambdaData) exprData() {}

type NewData struct {
	Type string
	Args []Arg
}

func (NewData) exprData() {}

// Qualifier is how a link marker names its target member.
type Qualifier uint8

const (
	QualThis Qualifier = iota
	QualBase
	QualInterface
)

func (q Qualifier) String() string {
	switch q {
	case QualBase:
		return "base"
	case QualInterface:
		return "interface"
	}
	return "this"
}

// ParseQualifier accepts "", "this", "base", "interface".
func ParseQualifier(s string) (Qualifier, bool) {
	switch s {
	case "", "this":
		return QualThis, true
	case "base":
		return QualBase, true
	case "interface":
		return QualInterface, true
	}
	return QualThis, false
}

// InlineHint is the inlining intent an aspect attached to a link marker.
type InlineHint uint8

const (
	HintAuto InlineHint = iota
	HintInline
	HintNever
)

func (h InlineHint) String() string {
	switch h {
	case HintInline:
		return "inline"
	case HintNever:
		return "noinline"
	}
	return "auto"
}

// ParseInlineHint accepts "", "auto", "inline", "noinline".
func ParseInlineHint(s string) (InlineHint, bool) {
	switch s {
	case "", "auto":
		return HintAuto, true
	case "inline":
		return HintInline, true
	case "noinline":
		return HintNever, true
	}
	return HintAuto, false
}

// LayerRef selects the layer a link marker targets. The zero value means
// "the previous layer".
type LayerRef struct {
	Explicit bool
	Position int
}

// LinkData is the desugared link marker. Member is empty when the marker
// targets the declaration it appears in.
type LinkData struct {
	Member     string
	Interface  string
	Qualifier  Qualifier
	Accessor   AccessorKind
	Layer      LayerRef
	Hint       InlineHint
	Invoke     bool     // method-call form: link[...](args)
	Args       []Arg    // call arguments, or index arguments for indexers
	ParamTypes []string // optional overload selection
}

func (LinkData) exprData() {}
