package unitio

import (
	"errors"
	"fmt"

	"fortio.org/safecast"

	"weave/internal/link"
	"weave/internal/source"
	"weave/internal/syntax"
)

var (
	// ErrUnknownKind reports a node, member or accessor kind the linker does
	// not know.
	ErrUnknownKind = errors.New("unknown kind")
	// ErrMalformed reports a structurally invalid unit.
	ErrMalformed = errors.New("malformed unit")
	// ErrVersion reports a unit written by a newer schema.
	ErrVersion = errors.New("unsupported unit version")
)

// Input converts u for the linker. Paths in u.Files are registered in a
// fresh FileSet that resolves the spans of the returned syntax.
func (u *Unit) Input() (*link.Input, *source.FileSet, error) {
	if u.Version > SchemaVersion {
		return nil, nil, fmt.Errorf("%w: %d (this build reads up to %d)", ErrVersion, u.Version, SchemaVersion)
	}
	fs := source.NewFileSet()
	d := &decoder{fileIDs: make([]source.FileID, len(u.Files))}
	for i, p := range u.Files {
		d.fileIDs[i] = fs.Add(p)
	}

	in := &link.Input{Types: make([]link.TypeInput, 0, len(u.Types))}
	for i := range u.Types {
		ti := d.typeInput(&u.Types[i])
		if d.err != nil {
			return nil, nil, fmt.Errorf("type %d (%s): %w", i, u.Types[i].Name, d.err)
		}
		in.Types = append(in.Types, ti)
	}
	return in, fs, nil
}

// decoder converts wire structs, keeping the first error.
type decoder struct {
	fileIDs []source.FileID
	err     error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) failf(format string, args ...any) {
	d.fail(fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...))
}

func (d *decoder) span(s *Span) source.Span {
	if s == nil {
		return source.Span{}
	}
	start, err := safecast.Conv[uint32](s.Start)
	if err != nil {
		d.failf("span start %d: %v", s.Start, err)
		return source.Span{}
	}
	end, err := safecast.Conv[uint32](s.End)
	if err != nil {
		d.failf("span end %d: %v", s.End, err)
		return source.Span{}
	}
	if end < start {
		d.failf("span %d-%d ends before it starts", s.Start, s.End)
		return source.Span{}
	}
	if s.File == 0 {
		return source.Span{Start: start, End: end}
	}
	if s.File < 0 || s.File > int64(len(d.fileIDs)) {
		d.failf("span refers to file %d of %d", s.File, len(d.fileIDs))
		return source.Span{}
	}
	return source.Span{File: d.fileIDs[s.File-1], Start: start, End: end}
}

func (d *decoder) modifiers(s string) syntax.Modifiers {
	m, err := syntax.ParseModifiers(s)
	if err != nil {
		d.fail(err)
	}
	return m
}

func (d *decoder) typeInput(t *Type) link.TypeInput {
	td := &syntax.TypeDecl{
		Kind:       t.Kind,
		Name:       t.Name,
		Namespace:  t.Namespace,
		Base:       t.Base,
		Interfaces: t.Interfaces,
		Modifiers:  d.modifiers(t.Modifiers),
		Span:       d.span(t.Span),
	}
	if td.Name == "" {
		d.failf("type without a name")
	}
	if td.Kind == "" {
		td.Kind = "class"
	}
	td.Members = make([]*syntax.Member, 0, len(t.Members))
	for i := range t.Members {
		m := d.member(&t.Members[i])
		if d.err != nil {
			d.err = fmt.Errorf("member %s: %w", t.Members[i].Name, d.err)
			return link.TypeInput{}
		}
		td.Members = append(td.Members, m)
	}

	ti := link.TypeInput{Type: td}
	for _, o := range t.Overrides {
		spec := link.OverrideSpec{Target: key(o.Target)}
		for _, l := range o.Layers {
			spec.Layers = append(spec.Layers, link.LayerSpec{
				Member:        key(l.Member),
				Aspect:        l.Aspect,
				NotInlineable: l.NotInlineable,
			})
		}
		ti.Overrides = append(ti.Overrides, spec)
	}
	return ti
}

func key(k Key) syntax.MemberKey {
	return syntax.MemberKey{Name: k.Name, Interface: k.Interface, Sig: k.Sig}
}

func (d *decoder) member(m *Member) *syntax.Member {
	kind, err := syntax.ParseMemberKind(m.Kind)
	if err != nil {
		d.fail(fmt.Errorf("%w: %v", ErrUnknownKind, err))
		return nil
	}
	out := &syntax.Member{
		Kind:         kind,
		Name:         m.Name,
		Operator:     m.Operator,
		Interface:    m.Interface,
		Type:         m.Type,
		Params:       d.params(m.Params),
		Modifiers:    d.modifiers(m.Modifiers),
		Body:         d.block(m.Body),
		ExprBodied:   m.ExprBodied,
		Initializer:  d.optExpr(m.Initializer),
		Suppressions: m.Suppressions,
		BackingField: m.BackingField,
		Span:         d.span(m.Span),
	}
	for _, a := range m.Attributes {
		out.Attributes = append(out.Attributes, syntax.Attribute{Text: a})
	}
	if len(m.Accessors) > 0 && !kind.HasAccessors() {
		d.failf("a %s has no accessors", kind)
	}
	for i := range m.Accessors {
		a := &m.Accessors[i]
		ak, err := syntax.ParseAccessorKind(a.Kind)
		if err != nil || ak == syntax.AccessorNone {
			d.fail(fmt.Errorf("%w: accessor %q", ErrUnknownKind, a.Kind))
			return nil
		}
		if !accessorAllowed(kind, ak) {
			d.failf("a %s cannot have a %s accessor", kind, ak)
		}
		out.Accessors = append(out.Accessors, &syntax.Accessor{
			Kind:       ak,
			Modifiers:  d.modifiers(a.Modifiers),
			Body:       d.block(a.Body),
			ExprBodied: a.ExprBodied,
			Span:       d.span(a.Span),
		})
	}
	return out
}

func accessorAllowed(k syntax.MemberKind, a syntax.AccessorKind) bool {
	for _, ok := range k.Accessors() {
		if ok == a {
			return true
		}
	}
	return false
}

func (d *decoder) params(ps []Param) []syntax.Param {
	if len(ps) == 0 {
		return nil
	}
	out := make([]syntax.Param, len(ps))
	for i, p := range ps {
		ref, err := syntax.ParseRefKind(p.Ref)
		if err != nil {
			d.fail(err)
		}
		out[i] = syntax.Param{Name: p.Name, Type: p.Type, Ref: ref}
	}
	return out
}

func (d *decoder) block(b *Block) *syntax.Block {
	if b == nil {
		return nil
	}
	out := &syntax.Block{Span: d.span(b.Span), Stmts: make([]*syntax.Stmt, 0, len(b.Stmts))}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, d.stmt(s))
	}
	return out
}

// body is a block that must be present.
func (d *decoder) body(b *Block, what string) *syntax.Block {
	if b == nil {
		d.failf("%s without a body", what)
		return &syntax.Block{}
	}
	return d.block(b)
}

func (d *decoder) stmt(s *Stmt) *syntax.Stmt {
	if s == nil {
		d.failf("null statement")
		return &syntax.Stmt{Kind: syntax.StmtEmpty}
	}
	kind, ok := syntax.ParseStmtKind(s.Kind)
	if !ok {
		d.fail(fmt.Errorf("%w: statement %q", ErrUnknownKind, s.Kind))
		return &syntax.Stmt{Kind: syntax.StmtEmpty}
	}
	out := &syntax.Stmt{Kind: kind, Span: d.span(s.Span)}
	switch kind {
	case syntax.StmtBlock:
		out.Data = syntax.BlockStmtData{Block: d.body(s.Body, "block")}
	case syntax.StmtExpr:
		out.Data = syntax.ExprStmtData{Expr: d.expr(s.Expr, "expression statement")}
	case syntax.StmtLocal:
		if s.Name == "" || s.Type == "" {
			d.failf("local declaration needs a type and a name")
		}
		out.Data = syntax.LocalData{Type: s.Type, Name: s.Name, Value: d.optExpr(s.Expr)}
	case syntax.StmtReturn:
		out.Data = syntax.ReturnData{Value: d.optExpr(s.Expr)}
	case syntax.StmtIf:
		out.Data = syntax.IfData{Cond: d.expr(s.Cond, "if"), Then: d.body(s.Then, "if"), Else: d.block(s.Else)}
	case syntax.StmtWhile:
		out.Data = syntax.WhileData{Cond: d.expr(s.Cond, "while"), Body: d.body(s.Body, "while")}
	case syntax.StmtFor:
		var init *syntax.Stmt
		if s.Init != nil {
			init = d.stmt(s.Init)
			if init.Kind != syntax.StmtLocal && init.Kind != syntax.StmtExpr {
				d.failf("for initializer is a %s statement", init.Kind)
			}
		}
		out.Data = syntax.ForData{Init: init, Cond: d.optExpr(s.Cond), Post: d.optExpr(s.Post), Body: d.body(s.Body, "for")}
	case syntax.StmtForeach:
		out.Data = syntax.ForeachData{Type: s.Type, Name: s.Name, Iterable: d.expr(s.Expr, "foreach"), Body: d.body(s.Body, "foreach")}
	case syntax.StmtTry:
		data := syntax.TryData{Body: d.body(s.Body, "try"), Finally: d.block(s.Finally)}
		for _, c := range s.Catches {
			data.Catches = append(data.Catches, syntax.CatchClause{Type: c.Type, Name: c.Name, Body: d.body(c.Body, "catch")})
		}
		out.Data = data
	case syntax.StmtThrow:
		out.Data = syntax.ThrowData{Value: d.optExpr(s.Expr)}
	case syntax.StmtGoto:
		out.Data = syntax.GotoData{Label: s.Label}
	case syntax.StmtLabel:
		out.Data = syntax.LabelData{Label: s.Label}
	case syntax.StmtYield:
		data := syntax.YieldData{Break: s.Break}
		if !s.Break {
			data.Value = d.expr(s.Expr, "yield return")
		}
		out.Data = data
	}
	if (kind == syntax.StmtGoto || kind == syntax.StmtLabel) && s.Label == "" {
		d.failf("%s without a label", kind)
	}
	return out
}

func (d *decoder) optExpr(e *Expr) *syntax.Expr {
	if e == nil {
		return nil
	}
	return d.expr(e, "")
}

// expr converts a required expression; what names its parent for errors.
func (d *decoder) expr(e *Expr, what string) *syntax.Expr {
	if e == nil {
		d.failf("%s is missing an expression", what)
		return syntax.Ident("_")
	}
	kind, ok := syntax.ParseExprKind(e.Kind)
	if !ok {
		d.fail(fmt.Errorf("%w: expression %q", ErrUnknownKind, e.Kind))
		return syntax.Ident("_")
	}
	out := &syntax.Expr{Kind: kind, Span: d.span(e.Span)}
	switch kind {
	case syntax.ExprIdent:
		if e.Name == "" {
			d.failf("identifier without a name")
		}
		out.Data = syntax.IdentData{Name: e.Name}
	case syntax.ExprThis, syntax.ExprBase:
	case syntax.ExprLiteral:
		lk, ok := syntax.ParseLiteralKind(e.Lit)
		if !ok {
			d.fail(fmt.Errorf("%w: literal %q", ErrUnknownKind, e.Lit))
		}
		out.Data = syntax.LiteralData{Kind: lk, Text: e.Text}
	case syntax.ExprMember:
		out.Data = syntax.MemberData{Receiver: d.expr(e.Recv, "member access"), Name: e.Name}
	case syntax.ExprCall:
		out.Data = syntax.CallData{Callee: d.expr(e.Recv, "call"), Args: d.args(e.Args)}
	case syntax.ExprIndex:
		out.Data = syntax.IndexData{Receiver: d.expr(e.Recv, "index"), Args: d.args(e.Args)}
	case syntax.ExprUnary:
		out.Data = syntax.UnaryData{Op: e.Op, Operand: d.expr(e.Left, "unary "+e.Op), Postfix: e.Postfix}
	case syntax.ExprBinary:
		out.Data = syntax.BinaryData{Op: e.Op, Left: d.expr(e.Left, "binary "+e.Op), Right: d.expr(e.Right, "binary "+e.Op)}
	case syntax.ExprAssign:
		op := e.Op
		if op == "" {
			op = "="
		}
		out.Data = syntax.AssignData{Op: op, Target: d.expr(e.Left, "assignment"), Value: d.expr(e.Right, "assignment")}
	case syntax.ExprCast:
		out.Data = syntax.CastData{Type: e.Type, Operand: d.expr(e.Left, "cast")}
	case syntax.ExprLambda:
		data := syntax.LambdaData{Params: d.params(e.Params), Body: d.block(e.Body)}
		if data.Body == nil {
			data.ExprBody = d.expr(e.Left, "lambda")
		}
		out.Data = data
	case syntax.ExprNew:
		out.Data = syntax.NewData{Type: e.Type, Args: d.args(e.Args)}
	case syntax.ExprLink:
		out.Data = d.link(e)
	}
	return out
}

func (d *decoder) args(as []Arg) []syntax.Arg {
	if len(as) == 0 {
		return nil
	}
	out := make([]syntax.Arg, len(as))
	for i, a := range as {
		ref, err := syntax.ParseRefKind(a.Ref)
		if err != nil {
			d.fail(err)
		}
		out[i] = syntax.Arg{Ref: ref, Value: d.expr(a.Value, "argument")}
	}
	return out
}

func (d *decoder) link(e *Expr) syntax.LinkData {
	data := syntax.LinkData{Args: d.args(e.Args)}
	l := e.Link
	if l == nil {
		return data
	}
	var ok bool
	if data.Qualifier, ok = syntax.ParseQualifier(l.Qualifier); !ok {
		d.fail(fmt.Errorf("%w: link qualifier %q", ErrUnknownKind, l.Qualifier))
	}
	if data.Hint, ok = syntax.ParseInlineHint(l.Hint); !ok {
		d.fail(fmt.Errorf("%w: inline hint %q", ErrUnknownKind, l.Hint))
	}
	acc, err := syntax.ParseAccessorKind(l.Accessor)
	if err != nil {
		d.fail(fmt.Errorf("%w: %v", ErrUnknownKind, err))
	}
	data.Accessor = acc
	data.Member = l.Member
	data.Interface = l.Interface
	data.Invoke = l.Invoke
	data.ParamTypes = l.ParamTypes
	if l.Layer != nil {
		if *l.Layer < 0 {
			d.failf("link layer %d is negative", *l.Layer)
		}
		data.Layer = syntax.LayerRef{Explicit: true, Position: *l.Layer}
	}
	if data.Qualifier == syntax.QualInterface && data.Interface == "" {
		d.failf("interface-qualified link without an interface")
	}
	return data
}
