//nolint:errcheck // Kind implies the Data payload type.
package syntax

import (
	"fmt"
	"io"
	"strings"
)

// PrintOptions configures rendering.
type PrintOptions struct {
	// Compact renders everything on one line with single spaces, which keeps
	// test expectations readable.
	Compact bool
	// Indent is the indentation unit of pretty output (default four spaces).
	Indent string
}

type printer struct {
	sb     strings.Builder
	opts   PrintOptions
	indent int
}

func newPrinter(opts PrintOptions) *printer {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	return &printer{opts: opts}
}

// FormatType renders a type declaration with all its members.
func FormatType(t *TypeDecl, opts PrintOptions) string {
	p := newPrinter(opts)
	p.typeDecl(t)
	return p.sb.String()
}

// FprintType writes FormatType output followed by a newline.
func FprintType(w io.Writer, t *TypeDecl, opts PrintOptions) error {
	_, err := io.WriteString(w, FormatType(t, opts)+"\n")
	return err
}

// FormatMember renders a single member.
func FormatMember(m *Member, opts PrintOptions) string {
	p := newPrinter(opts)
	p.member(m)
	return p.sb.String()
}

// Compact renders members one after another on a single line.
func Compact(ms ...*Member) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = FormatMember(m, PrintOptions{Compact: true})
	}
	return strings.Join(parts, " ")
}

// FormatStmt renders a statement on one line.
func FormatStmt(s *Stmt) string {
	p := newPrinter(PrintOptions{Compact: true})
	p.stmt(s)
	return p.sb.String()
}

// FormatExpr renders an expression.
func FormatExpr(e *Expr) string {
	p := newPrinter(PrintOptions{Compact: true})
	p.expr(e)
	return p.sb.String()
}

func (p *printer) write(s string) {
	p.sb.WriteString(s)
}

func (p *printer) writef(format string, args ...any) {
	fmt.Fprintf(&p.sb, format, args...)
}

func (p *printer) newline() {
	p.sb.WriteByte('\n')
	p.sb.WriteString(strings.Repeat(p.opts.Indent, p.indent))
}

// gap separates a header from the following brace or sibling construct.
func (p *printer) gap() {
	if p.opts.Compact {
		p.write(" ")
		return
	}
	p.newline()
}

func (p *printer) typeDecl(t *TypeDecl) {
	if mods := t.Modifiers.String(); mods != "" {
		p.write(mods + " ")
	}
	kind := t.Kind
	if kind == "" {
		kind = "class"
	}
	p.write(kind + " " + t.Name)
	var bases []string
	if t.Base != "" {
		bases = append(bases, t.Base)
	}
	bases = append(bases, t.Interfaces...)
	if len(bases) > 0 {
		p.write(" : " + strings.Join(bases, ", "))
	}
	p.gap()
	if len(t.Members) == 0 {
		p.write("{ }")
		return
	}
	p.write("{")
	p.indent++
	for i, m := range t.Members {
		if p.opts.Compact {
			p.write(" ")
		} else {
			if i > 0 {
				p.sb.WriteByte('\n')
			}
			p.newline()
		}
		p.member(m)
	}
	p.indent--
	if p.opts.Compact {
		p.write(" }")
	} else {
		p.newline()
		p.write("}")
	}
}

func (p *printer) params(ps []Param) {
	for i, prm := range ps {
		if i > 0 {
			p.write(", ")
		}
		if prm.Ref != RefNone {
			p.write(prm.Ref.String() + " ")
		}
		if prm.Type != "" {
			p.write(prm.Type + " ")
		}
		p.write(prm.Name)
	}
}

func (p *printer) memberName(m *Member) string {
	if m.Interface != "" {
		return m.Interface + "." + m.Name
	}
	return m.Name
}

func (p *printer) member(m *Member) {
	if !p.opts.Compact {
		for _, s := range m.Suppressions {
			p.write("#pragma warning disable " + s)
			p.newline()
		}
	}
	for _, a := range m.Attributes {
		p.write("[" + a.Text + "]")
		p.gapAttr()
	}
	if mods := m.Modifiers.String(); mods != "" {
		p.write(mods + " ")
	}

	switch m.Kind {
	case MemberField:
		p.write(m.Type + " " + m.Name)
		if m.Initializer != nil {
			p.write(" = ")
			p.expr(m.Initializer)
		}
		p.write(";")
	case MemberMethod, MemberOperator, MemberConstructor, MemberFinalizer:
		switch m.Kind {
		case MemberMethod:
			p.write(m.Type + " " + p.memberName(m))
		case MemberOperator:
			p.write(m.Type + " operator " + m.Operator)
		case MemberConstructor:
			p.write(m.Name)
		case MemberFinalizer:
			p.write("~" + m.Name)
		}
		p.write("(")
		p.params(m.Params)
		p.write(")")
		p.body(m.Body, m.ExprBodied)
	case MemberProperty, MemberIndexer, MemberEvent:
		if m.Kind == MemberEvent {
			p.write("event ")
		}
		p.write(m.Type + " ")
		if m.Kind == MemberIndexer {
			if m.Interface != "" {
				p.write(m.Interface + ".")
			}
			p.write("this[")
			p.params(m.Params)
			p.write("]")
		} else {
			p.write(p.memberName(m))
		}
		if m.Kind == MemberEvent && len(m.Accessors) == 0 {
			p.write(";")
			break
		}
		p.accessors(m.Accessors)
		if m.Initializer != nil {
			p.write(" = ")
			p.expr(m.Initializer)
			p.write(";")
		}
	}

	if !p.opts.Compact {
		for _, s := range m.Suppressions {
			p.newline()
			p.write("#pragma warning restore " + s)
		}
	}
}

func (p *printer) gapAttr() {
	if p.opts.Compact {
		p.write(" ")
		return
	}
	p.newline()
}

func (p *printer) accessors(as []*Accessor) {
	auto := true
	for _, a := range as {
		if a.Body != nil {
			auto = false
		}
	}
	if auto || p.opts.Compact {
		p.write(" {")
		for _, a := range as {
			p.write(" ")
			p.accessor(a)
		}
		p.write(" }")
		return
	}
	p.newline()
	p.write("{")
	p.indent++
	for _, a := range as {
		p.newline()
		p.accessor(a)
	}
	p.indent--
	p.newline()
	p.write("}")
}

func (p *printer) accessor(a *Accessor) {
	if mods := a.Modifiers.String(); mods != "" {
		p.write(mods + " ")
	}
	p.write(a.Kind.String())
	p.body(a.Body, a.ExprBodied)
}

// body prints a member or accessor body: ";" when absent, "=> e;" for an
// expression-bodied single statement, a block otherwise.
func (p *printer) body(b *Block, exprBodied bool) {
	if b == nil {
		p.write(";")
		return
	}
	if exprBodied && len(b.Stmts) == 1 {
		s := b.Stmts[0]
		var e *Expr
		switch s.Kind {
		case StmtReturn:
			e = s.Data.(ReturnData).Value
		case StmtExpr:
			e = s.Data.(ExprStmtData).Expr
		case StmtThrow:
			p.write(" => throw ")
			p.expr(s.Data.(ThrowData).Value)
			p.write(";")
			return
		}
		if e != nil {
			p.write(" => ")
			p.expr(e)
			p.write(";")
			return
		}
	}
	p.gap()
	p.block(b)
}

func (p *printer) block(b *Block) {
	if b == nil || len(b.Stmts) == 0 {
		p.write("{ }")
		return
	}
	if p.opts.Compact {
		p.write("{")
		for _, s := range b.Stmts {
			p.write(" ")
			p.stmt(s)
		}
		p.write(" }")
		return
	}
	p.write("{")
	p.indent++
	for _, s := range b.Stmts {
		p.newline()
		p.stmt(s)
	}
	p.indent--
	p.newline()
	p.write("}")
}

// stmtHead prints statements usable as a for-initializer without the
// trailing semicolon.
func (p *printer) stmtHead(s *Stmt) {
	switch s.Kind {
	case StmtLocal:
		data := s.Data.(LocalData)
		p.write(data.Type + " " + data.Name)
		if data.Value != nil {
			p.write(" = ")
			p.expr(data.Value)
		}
	case StmtExpr:
		p.expr(s.Data.(ExprStmtData).Expr)
	}
}

func (p *printer) stmt(s *Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case StmtBlock:
		p.block(s.Data.(BlockStmtData).Block)
	case StmtExpr, StmtLocal:
		p.stmtHead(s)
		p.write(";")
	case StmtReturn:
		if v := s.Data.(ReturnData).Value; v != nil {
			p.write("return ")
			p.expr(v)
			p.write(";")
		} else {
			p.write("return;")
		}
	case StmtIf:
		data := s.Data.(IfData)
		p.write("if (")
		p.expr(data.Cond)
		p.write(")")
		p.gap()
		p.block(data.Then)
		if data.Else != nil {
			p.gap()
			p.write("else")
			p.gap()
			p.block(data.Else)
		}
	case StmtWhile:
		data := s.Data.(WhileData)
		p.write("while (")
		p.expr(data.Cond)
		p.write(")")
		p.gap()
		p.block(data.Body)
	case StmtFor:
		data := s.Data.(ForData)
		p.write("for (")
		if data.Init != nil {
			p.stmtHead(data.Init)
		}
		p.write(";")
		if data.Cond != nil {
			p.write(" ")
			p.expr(data.Cond)
		}
		p.write(";")
		if data.Post != nil {
			p.write(" ")
			p.expr(data.Post)
		}
		p.write(")")
		p.gap()
		p.block(data.Body)
	case StmtForeach:
		data := s.Data.(ForeachData)
		p.write("foreach (" + data.Type + " " + data.Name + " in ")
		p.expr(data.Iterable)
		p.write(")")
		p.gap()
		p.block(data.Body)
	case StmtTry:
		data := s.Data.(TryData)
		p.write("try")
		p.gap()
		p.block(data.Body)
		for _, c := range data.Catches {
			p.gap()
			p.write("catch")
			switch {
			case c.Type != "" && c.Name != "":
				p.write(" (" + c.Type + " " + c.Name + ")")
			case c.Type != "":
				p.write(" (" + c.Type + ")")
			}
			p.gap()
			p.block(c.Body)
		}
		if data.Finally != nil {
			p.gap()
			p.write("finally")
			p.gap()
			p.block(data.Finally)
		}
	case StmtThrow:
		if v := s.Data.(ThrowData).Value; v != nil {
			p.write("throw ")
			p.expr(v)
			p.write(";")
		} else {
			p.write("throw;")
		}
	case StmtBreak:
		p.write("break;")
	case StmtContinue:
		p.write("continue;")
	case StmtGoto:
		p.write("goto " + s.Data.(GotoData).Label + ";")
	case StmtLabel:
		p.write(s.Data.(LabelData).Label + ": ;")
	case StmtYield:
		data := s.Data.(YieldData)
		if data.Break {
			p.write("yield break;")
		} else {
			p.write("yield return ")
			p.expr(data.Value)
			p.write(";")
		}
	case StmtEmpty:
		p.write(";")
	default:
		p.writef("/* %s */", s.Kind)
	}
}

func (p *printer) args(args []Arg) {
	for i, a := range args {
		if i > 0 {
			p.write(", ")
		}
		if a.Ref != RefNone {
			p.write(a.Ref.String() + " ")
		}
		p.expr(a.Value)
	}
}

// needsParens reports whether e must be parenthesised as an operand.
func needsParens(e *Expr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ExprBinary, ExprAssign, ExprLambda, ExprCast:
		return true
	case ExprUnary:
		return !e.Data.(UnaryData).Postfix
	}
	return false
}

func (p *printer) operand(e *Expr) {
	if needsParens(e) {
		p.write("(")
		p.expr(e)
		p.write(")")
		return
	}
	p.expr(e)
}

func (p *printer) expr(e *Expr) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprIdent:
		p.write(e.Data.(IdentData).Name)
	case ExprThis:
		p.write("this")
	case ExprBase:
		p.write("base")
	case ExprLiteral:
		p.write(e.Data.(LiteralData).Text)
	case ExprMember:
		data := e.Data.(MemberData)
		p.operand(data.Receiver)
		p.write("." + data.Name)
	case ExprCall:
		data := e.Data.(CallData)
		p.operand(data.Callee)
		p.write("(")
		p.args(data.Args)
		p.write(")")
	case ExprIndex:
		data := e.Data.(IndexData)
		p.operand(data.Receiver)
		p.write("[")
		p.args(data.Args)
		p.write("]")
	case ExprUnary:
		data := e.Data.(UnaryData)
		if data.Postfix {
			p.operand(data.Operand)
			p.write(data.Op)
		} else {
			p.write(data.Op)
			p.operand(data.Operand)
		}
	case ExprBinary:
		data := e.Data.(BinaryData)
		p.operand(data.Left)
		p.write(" " + data.Op + " ")
		p.operand(data.Right)
	case ExprAssign:
		data := e.Data.(AssignData)
		p.expr(data.Target)
		p.write(" " + data.Op + " ")
		p.expr(data.Value)
	case ExprCast:
		data := e.Data.(CastData)
		p.write("(" + data.Type + ")")
		p.operand(data.Operand)
	case ExprLambda:
		data := e.Data.(LambdaData)
		p.write("(")
		p.params(data.Params)
		p.write(") =>")
		if data.ExprBody != nil {
			p.write(" ")
			p.expr(data.ExprBody)
		} else {
			p.write(" ")
			p.block(data.Body)
		}
	case ExprNew:
		data := e.Data.(NewData)
		p.write("new " + data.Type + "(")
		p.args(data.Args)
		p.write(")")
	case ExprLink:
		p.link(e.Data.(LinkData))
	default:
		p.writef("/* %s */", e.Kind)
	}
}

func (p *printer) link(data LinkData) {
	p.write("link[")
	switch data.Qualifier {
	case QualBase:
		p.write("base")
	case QualInterface:
		p.write("((" + data.Interface + ")this)")
	default:
		p.write("this")
	}
	if data.Member != "" {
		p.write("." + data.Member)
	}
	if data.Accessor != AccessorNone {
		p.write("." + data.Accessor.String())
	}
	if data.Hint != HintAuto {
		p.write(", " + data.Hint.String())
	}
	if data.Layer.Explicit {
		p.writef(", layer %d", data.Layer.Position)
	}
	p.write("]")
	switch {
	case data.Invoke:
		p.write("(")
		p.args(data.Args)
		p.write(")")
	case len(data.Args) > 0:
		p.write("[")
		p.args(data.Args)
		p.write("]")
	}
}
