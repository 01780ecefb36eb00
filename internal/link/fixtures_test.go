package link

import (
	"context"
	"errors"
	"testing"

	"weave/internal/syntax"
)

// Short aliases keep fixtures close to the source they stand for.
var (
	id    = syntax.Ident
	num   = syntax.Int
	str   = syntax.Str
	block = syntax.NewBlock
	ret   = syntax.Return
	do    = syntax.ExprStmt
)

func logCall(arg *syntax.Expr) *syntax.Stmt {
	return do(syntax.Call(id("Log"), arg))
}

func method(name, typ string, params []syntax.Param, stmts ...*syntax.Stmt) *syntax.Member {
	return &syntax.Member{Kind: syntax.MemberMethod, Name: name, Type: typ, Params: params, Body: block(stmts...)}
}

func property(name, typ string, get, set *syntax.Block) *syntax.Member {
	m := &syntax.Member{Kind: syntax.MemberProperty, Name: name, Type: typ}
	if get != nil {
		m.Accessors = append(m.Accessors, &syntax.Accessor{Kind: syntax.AccessorGet, Body: get})
	}
	if set != nil {
		m.Accessors = append(m.Accessors, &syntax.Accessor{Kind: syntax.AccessorSet, Body: set})
	}
	return m
}

func event(name, typ string, add, remove *syntax.Block) *syntax.Member {
	m := &syntax.Member{Kind: syntax.MemberEvent, Name: name, Type: typ}
	if add != nil {
		m.Accessors = append(m.Accessors, &syntax.Accessor{Kind: syntax.AccessorAdd, Body: add})
	}
	if remove != nil {
		m.Accessors = append(m.Accessors, &syntax.Accessor{Kind: syntax.AccessorRemove, Body: remove})
	}
	return m
}

func field(name, typ string) *syntax.Member {
	return &syntax.Member{Kind: syntax.MemberField, Name: name, Type: typ, Modifiers: syntax.ModPrivate}
}

func params(ps ...string) []syntax.Param {
	out := make([]syntax.Param, 0, len(ps)/2)
	for i := 0; i+1 < len(ps); i += 2 {
		out = append(out, syntax.Param{Type: ps[i], Name: ps[i+1]})
	}
	return out
}

// call is a link marker invoking the previous layer.
func call(hint syntax.InlineHint, args ...*syntax.Expr) *syntax.Expr {
	return syntax.Link(syntax.LinkData{Invoke: true, Hint: hint, Args: syntax.Args(args...)})
}

// ref is a link marker used as a value (property, event or method group).
func ref(acc syntax.AccessorKind) *syntax.Expr {
	return syntax.Link(syntax.LinkData{Accessor: acc})
}

func keyOf(m *syntax.Member) syntax.MemberKey {
	return m.Key()
}

type layerDef struct {
	m             *syntax.Member
	aspect        string
	notInlineable bool
}

// widget builds type Widget with one override: extra members first, then
// the source, then the layers from innermost to outermost.
func widget(source *syntax.Member, layers []layerDef, extra ...*syntax.Member) TypeInput {
	t := &syntax.TypeDecl{Kind: "class", Name: "Widget"}
	t.Members = append(t.Members, extra...)
	t.Members = append(t.Members, source)
	spec := OverrideSpec{Target: keyOf(source)}
	for _, l := range layers {
		t.Members = append(t.Members, l.m)
		spec.Layers = append(spec.Layers, LayerSpec{Member: keyOf(l.m), Aspect: l.aspect, NotInlineable: l.notInlineable})
	}
	return TypeInput{Type: t, Overrides: []OverrideSpec{spec}}
}

func runLink(t *testing.T, opts Options, types ...TypeInput) *Result {
	t.Helper()
	res, err := New(opts).Link(context.Background(), &Input{Types: types})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	return res
}

func runLinkFail(t *testing.T, opts Options, types ...TypeInput) *Result {
	t.Helper()
	res, err := New(opts).Link(context.Background(), &Input{Types: types})
	if !errors.Is(err, ErrLinkFailed) {
		t.Fatalf("Link error = %v, want ErrLinkFailed", err)
	}
	return res
}

// memberText renders the linked members of the first type on one line.
func memberText(res *Result) string {
	return syntax.Compact(res.Types[0].Members...)
}
