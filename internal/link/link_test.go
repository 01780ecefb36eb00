package link

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"weave/internal/diag"
	"weave/internal/syntax"
)

func consoleWrite(text string) *syntax.Stmt {
	return do(syntax.Call(syntax.Sel(id("Console"), "WriteLine"), str(text)))
}

func TestInlineIntoReturn(t *testing.T) {
	src := method("Foo", "int", nil, ret(num("42")))
	layer := method("Foo_Log", "int", nil, consoleWrite("Before"), ret(call(syntax.HintInline)))
	res := runLink(t, Options{}, widget(src, []layerDef{{m: layer, aspect: "Acme.LogAspect"}}))

	want := `int Foo() { Console.WriteLine("Before"); return 42; }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	if res.Stats.Inlined != 1 || res.Stats.Generated != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestForwardNotInlineable(t *testing.T) {
	src := method("Foo", "int", nil, ret(num("42")))
	layer := method("Foo_Log", "int", nil, consoleWrite("Before"), ret(call(syntax.HintAuto)))
	res := runLink(t, Options{}, widget(src, []layerDef{{m: layer, aspect: "Acme.LogAspect", notInlineable: true}}))

	want := `int Foo() { Console.WriteLine("Before"); return this.Foo_Source(); } private int Foo_Source() { return 42; }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	rs := res.Sites[0]
	if rs.Site.State() != SiteForwarded || rs.Reason != "layer is not inlineable" {
		t.Errorf("site = %s (%s)", rs.Site.State(), rs.Reason)
	}
	if rs.Generated == nil || rs.Generated.Name != "Foo_Source" {
		t.Errorf("generated = %+v", rs.Generated)
	}
}

func TestInlinePolicy(t *testing.T) {
	tests := []struct {
		policy InlinePolicy
		hint   syntax.InlineHint
		want   SiteState
	}{
		{InlineAuto, syntax.HintAuto, SiteInlined},
		{InlineAuto, syntax.HintNever, SiteForwarded},
		{InlineExplicit, syntax.HintAuto, SiteForwarded},
		{InlineExplicit, syntax.HintInline, SiteInlined},
		{InlineNever, syntax.HintInline, SiteForwarded},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.policy, tt.hint), func(t *testing.T) {
			src := method("Foo", "int", nil, ret(num("1")))
			layer := method("Foo_L", "int", nil, ret(call(tt.hint)))
			res := runLink(t, Options{Inline: tt.policy}, widget(src, []layerDef{{m: layer, aspect: "A"}}))
			if got := res.Sites[0].Site.State(); got != tt.want {
				t.Errorf("state = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSiteShapes(t *testing.T) {
	propSrc := func() *syntax.Member {
		return property("P", "int",
			block(ret(id("_p"))),
			block(do(syntax.Assign("=", id("_p"), id("value")))))
	}
	eventSrc := func() *syntax.Member {
		return event("E", "Handler",
			block(do(syntax.Assign("+=", id("_h"), id("value")))),
			block(do(syntax.Assign("-=", id("_h"), id("value")))))
	}
	one := func() *syntax.Member { return method("Foo", "int", nil, ret(num("42"))) }

	tests := []struct {
		name   string
		src    *syntax.Member
		layer  *syntax.Member
		extra  []*syntax.Member
		want   SiteState
		reason string
		text   string
	}{
		{
			name:  "void statement",
			src:   method("Run", "void", nil, logCall(str("src"))),
			layer: method("Run_L", "void", nil, logCall(str("a")), do(call(syntax.HintAuto))),
			want:  SiteInlined,
			text:  `void Run() { Log("a"); Log("src"); }`,
		},
		{
			name:  "local init",
			src:   one(),
			layer: method("Foo_L", "int", nil, syntax.Local(syntax.TypeVar, "r", call(syntax.HintAuto)), ret(syntax.Binary("+", id("r"), num("1")))),
			want:  SiteInlined,
			text:  `int Foo() { var r = 42; return r + 1; }`,
		},
		{
			name: "local assign",
			src:  one(),
			layer: method("Foo_L", "int", nil,
				syntax.Local("int", "r", num("0")),
				do(syntax.Assign("=", id("r"), call(syntax.HintAuto))),
				ret(id("r"))),
			want: SiteInlined,
			text: `int Foo() { int r = 0; r = 42; return r; }`,
		},
		{
			name:  "setter",
			src:   propSrc(),
			layer: property("P_L", "int", nil, block(logCall(str("set")), do(syntax.Assign("=", ref(syntax.AccessorNone), id("value"))))),
			extra: []*syntax.Member{field("_p", "int")},
			want:  SiteInlined,
			text:  `private int _p; int P { get { return _p; } set { Log("set"); _p = value; } }`,
		},
		{
			name: "event accessors",
			src:  eventSrc(),
			layer: event("E_L", "Handler",
				block(logCall(str("add")), do(syntax.Assign("+=", ref(syntax.AccessorNone), id("value")))),
				block(do(syntax.Assign("-=", ref(syntax.AccessorNone), id("value"))))),
			extra: []*syntax.Member{field("_h", "int")},
			want:  SiteInlined,
			text:  `private int _h; event Handler E { add { Log("add"); _h += value; } remove { _h -= value; } }`,
		},
		{
			name:   "cast around marker",
			src:    one(),
			layer:  method("Foo_L", "int", nil, ret(syntax.Cast("int", call(syntax.HintAuto)))),
			want:   SiteForwarded,
			reason: "unsupported site shape",
		},
		{
			name:   "local of another type",
			src:    one(),
			layer:  method("Foo_L", "int", nil, syntax.Local("long", "r", call(syntax.HintAuto)), ret(num("0"))),
			want:   SiteForwarded,
			reason: "unsupported site shape",
		},
		{
			name: "assignment to a field",
			src:  one(),
			layer: method("Foo_L", "int", nil,
				do(syntax.Assign("=", id("_n"), call(syntax.HintAuto))),
				ret(id("_n"))),
			extra:  []*syntax.Member{field("_n", "int")},
			want:   SiteForwarded,
			reason: "unsupported site shape",
		},
		{
			name: "compound assignment",
			src:  one(),
			layer: method("Foo_L", "int", nil,
				syntax.Local("int", "r", num("0")),
				do(syntax.Assign("+=", id("r"), call(syntax.HintAuto))),
				ret(id("r"))),
			want:   SiteForwarded,
			reason: "unsupported site shape",
		},
		{
			name: "wrong event operator",
			src:  eventSrc(),
			layer: event("E_L", "Handler",
				block(do(syntax.Assign("-=", ref(syntax.AccessorNone), id("value")))), nil),
			extra:  []*syntax.Member{field("_h", "int")},
			want:   SiteForwarded,
			reason: "unsupported site shape",
		},
		{
			name:   "reordered arguments",
			src:    method("Sub", "int", params("int", "a", "int", "b"), ret(syntax.Binary("-", id("a"), id("b")))),
			layer:  method("Sub_L", "int", params("int", "a", "int", "b"), ret(call(syntax.HintAuto, id("b"), id("a")))),
			want:   SiteForwarded,
			reason: "arguments are not the parameters in order",
		},
		{
			name:   "signature mismatch",
			src:    method("Twice", "int", params("int", "x"), ret(syntax.Binary("*", id("x"), num("2")))),
			layer:  method("Twice_L", "int", params("int", "y"), ret(call(syntax.HintAuto, id("y")))),
			want:   SiteForwarded,
			reason: "layer signatures differ",
		},
		{
			name:   "noinline hint",
			src:    one(),
			layer:  method("Foo_L", "int", nil, ret(call(syntax.HintNever))),
			want:   SiteForwarded,
			reason: "noinline hint",
		},
		{
			name:   "inner assigns parameter",
			src:    method("Inc", "int", params("int", "x"), do(syntax.Postfix("++", id("x"))), ret(id("x"))),
			layer:  method("Inc_L", "int", params("int", "x"), ret(call(syntax.HintAuto, id("x")))),
			want:   SiteForwarded,
			reason: "inner body assigns parameter x",
		},
		{
			name:   "inner iterator",
			src:    method("Seq", "IEnumerable<int>", nil, syntax.YieldReturn(num("1"))),
			layer:  method("Seq_L", "IEnumerable<int>", nil, ret(call(syntax.HintAuto))),
			want:   SiteForwarded,
			reason: "inner body is an iterator",
		},
		{
			name: "inside a lambda",
			src:  method("Run", "void", nil, logCall(str("src"))),
			layer: method("Run_L", "void", nil,
				syntax.Local("Action", "a", syntax.Lambda(nil, block(do(call(syntax.HintAuto))))),
				do(syntax.Call(id("a")))),
			want:   SiteForwarded,
			reason: "inside a lambda",
			text:   `void Run() { Action a = () => { this.Run_Source(); }; a(); } private void Run_Source() { Log("src"); }`,
		},
		{
			name: "inner reads a name the outer declares",
			src:  method("Count", "int", nil, ret(id("count"))),
			layer: method("Count_L", "int", nil,
				syntax.Local("int", "count", num("5")),
				logCall(id("count")),
				ret(call(syntax.HintAuto))),
			extra:  []*syntax.Member{field("count", "int")},
			want:   SiteForwarded,
			reason: "inner body refers to count, a local of this layer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runLink(t, Options{}, widget(tt.src, []layerDef{{m: tt.layer, aspect: "A"}}, tt.extra...))
			if len(res.Sites) == 0 {
				t.Fatal("no sites")
			}
			for _, rs := range res.Sites {
				if got := rs.Site.State(); got != tt.want {
					t.Errorf("site %d: state = %s (%s), want %s", rs.Site.Ordinal, got, rs.Reason, tt.want)
				}
			}
			if tt.reason != "" && res.Sites[0].Reason != tt.reason {
				t.Errorf("reason = %q, want %q", res.Sites[0].Reason, tt.reason)
			}
			if tt.text != "" {
				if got := memberText(res); got != tt.text {
					t.Errorf("linked = %s\nwant     %s", got, tt.text)
				}
			}
		})
	}
}

func TestMixedChainNaming(t *testing.T) {
	src := method("Foo", "int", nil, ret(num("1")))
	l1 := method("Foo_L1", "int", nil, logCall(str("A")), ret(call(syntax.HintAuto)))
	l2 := method("Foo_L2", "int", nil, logCall(str("B")), ret(call(syntax.HintInline)))
	l3 := method("Foo_L3", "int", nil, logCall(str("C")), ret(call(syntax.HintAuto)))
	backing := field("Foo_Source", "int")
	backing.BackingField = true
	clash := method("Foo_B", "void", params("string", "s"))
	in := widget(src, []layerDef{
		{m: l1, aspect: "Acme.A", notInlineable: true},
		{m: l2, aspect: "Acme.B"},
		{m: l3, aspect: "Acme.C", notInlineable: true},
	}, backing, clash)

	res := runLink(t, Options{}, in)
	want := strings.Join([]string{
		`private int Foo_Source;`,
		`void Foo_B(string s) { }`,
		`int Foo() { Log("C"); return this.Foo_B1(); }`,
		`private int Foo_Source1() { return 1; }`,
		`private int Foo_B1() { Log("B"); Log("A"); return this.Foo_Source1(); }`,
	}, " ")
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	wantStats := Stats{Types: 1, Declarations: 1, Chains: 1, Sites: 3, Inlined: 1, Forwarded: 2, Generated: 2}
	if res.Stats != wantStats {
		t.Errorf("stats = %+v, want %+v", res.Stats, wantStats)
	}
	seen := make(map[string]bool)
	for _, m := range res.Types[0].Members {
		if seen[m.Name] && m.Kind != syntax.MemberField {
			t.Errorf("duplicate member name %s", m.Name)
		}
		seen[m.Name] = true
	}
}

func TestInlineWithEarlyReturn(t *testing.T) {
	flag := params("bool", "flag")
	src := method("Run", "void", flag,
		syntax.If(id("flag"), block(ret(nil)), nil),
		logCall(str("inner")))
	layer := method("Run_L", "void", params("bool", "flag"),
		logCall(str("before")),
		do(call(syntax.HintAuto, id("flag"))),
		logCall(str("after")))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}})
	res := runLink(t, Options{}, in)

	want := `void Run(bool flag) { Log("before"); if (flag) { goto __aspect_return_1; } Log("inner"); __aspect_return_1: ; Log("after"); }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, []any{true}, []any{false})
}

func findMethod() *syntax.Member {
	return method("Find", "int", params("int", "n"),
		syntax.Local("int", "i", num("0")),
		syntax.While(syntax.Binary("<", id("i"), num("10")), block(
			syntax.If(syntax.Binary("==", id("i"), id("n")), block(ret(id("i"))), nil),
			do(syntax.Postfix("++", id("i"))),
		)),
		ret(num("-1")))
}

func TestInlineMultipleReturns(t *testing.T) {
	layer := method("Find_L", "int", params("int", "n"), logCall(str("enter")), ret(call(syntax.HintAuto, id("n"))))
	in := widget(findMethod(), []layerDef{{m: layer, aspect: "A"}})
	res := runLink(t, Options{}, in)

	want := `int Find(int n) { Log("enter"); int __aspect_result_1; int i = 0; ` +
		`while (i < 10) { if (i == n) { __aspect_result_1 = i; goto __aspect_return_1; } i++; } ` +
		`__aspect_result_1 = -1; goto __aspect_return_1; __aspect_return_1: ; return __aspect_result_1; }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, []any{3}, []any{0}, []any{42})
}

func TestInlineMultipleReturnsIntoLocal(t *testing.T) {
	layer := method("Find_L", "int", params("int", "n"),
		syntax.Local("int", "r", num("0")),
		do(syntax.Assign("=", id("r"), call(syntax.HintAuto, id("n")))),
		ret(syntax.Binary("*", id("r"), num("2"))))
	in := widget(findMethod(), []layerDef{{m: layer, aspect: "A"}})
	res := runLink(t, Options{}, in)
	if res.Stats.Inlined != 1 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	if got := memberText(res); !strings.Contains(got, "r = i; goto __aspect_return_1;") {
		t.Errorf("linked = %s", got)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, []any{5}, []any{11})
}

func TestSitesInLoop(t *testing.T) {
	build := func(notInlineable bool) (TypeInput, *Result) {
		src := method("Tick", "void", nil, logCall(str("tick")))
		layer := method("Tick_L", "void", nil,
			syntax.For(syntax.Local("int", "k", num("0")),
				syntax.Binary("<", id("k"), num("3")),
				syntax.Postfix("++", id("k")),
				block(do(call(syntax.HintAuto)))),
			do(call(syntax.HintAuto)))
		in := widget(src, []layerDef{{m: layer, aspect: "A", notInlineable: notInlineable}})
		return in, runLink(t, Options{}, in)
	}

	in, res := build(false)
	want := `void Tick() { for (int k = 0; k < 3; k++) { Log("tick"); } Log("tick"); }`
	if got := memberText(res); got != want {
		t.Errorf("inlined = %s\nwant      %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, nil)

	in, res = build(true)
	want = `void Tick() { for (int k = 0; k < 3; k++) { this.Tick_Source(); } this.Tick_Source(); } private void Tick_Source() { Log("tick"); }`
	if got := memberText(res); got != want {
		t.Errorf("forwarded = %s\nwant        %s", got, want)
	}
	if res.Stats.Generated != 1 {
		t.Errorf("generated = %d, want one member shared by both sites", res.Stats.Generated)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, nil)
}

func TestInlineRenamesLocals(t *testing.T) {
	src := method("Calc", "int", nil,
		syntax.Local("int", "x", num("2")),
		ret(syntax.Binary("*", id("x"), num("3"))))
	layer := method("Calc_L", "int", nil,
		syntax.Local("int", "x", num("10")),
		syntax.Local("int", "y", call(syntax.HintAuto)),
		ret(syntax.Binary("+", id("x"), id("y"))))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}})
	res := runLink(t, Options{}, in)

	want := `int Calc() { int x = 10; int x_1 = 2; int y = x_1 * 3; return x + y; }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, nil)
}

func TestInlineEarlyExitInEventAdd(t *testing.T) {
	src := event("E", "Handler",
		block(
			syntax.If(id("_closed"), block(ret(nil)), nil),
			do(syntax.Assign("+=", id("_h"), id("value")))),
		block(do(syntax.Assign("-=", id("_h"), id("value")))))
	layer := event("E_L", "Handler", block(
		logCall(str("add")),
		do(syntax.Assign("+=", ref(syntax.AccessorNone), id("value"))),
		logCall(str("added"))), nil)
	in := widget(src, []layerDef{{m: layer, aspect: "Audit"}}, field("_h", "int"), field("_closed", "bool"))
	res := runLink(t, Options{}, in)

	want := `private int _h; private bool _closed; event Handler E { add { Log("add"); if (_closed) { goto __aspect_return_1; } ` +
		`_h += value; __aspect_return_1: ; Log("added"); } remove { _h -= value; } }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	for _, closed := range []bool{true, false} {
		sameBehavior(t, res, in, syntax.AccessorAdd, map[string]any{"_h": 1, "_closed": closed}, []any{3})
	}
}

func TestInlineEarlyExitInSetter(t *testing.T) {
	src := property("P", "int",
		block(ret(id("_p"))),
		block(
			syntax.If(syntax.Binary("<", id("value"), num("0")), block(ret(nil)), nil),
			do(syntax.Assign("=", id("_p"), id("value")))))
	layer := property("P_L", "int", nil, block(
		logCall(str("set")),
		do(syntax.Assign("=", ref(syntax.AccessorNone), id("value"))),
		logCall(id("_p"))))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}}, field("_p", "int"))
	res := runLink(t, Options{}, in)

	want := `private int _p; int P { get { return _p; } set { Log("set"); if (value < 0) { goto __aspect_return_1; } ` +
		`_p = value; __aspect_return_1: ; Log(_p); } }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorSet, map[string]any{"_p": 1}, []any{5}, []any{-3})
}

func TestThreeLayerEarlyExits(t *testing.T) {
	n := func() []syntax.Param { return params("int", "n") }
	exitAbove := func(k string) *syntax.Stmt {
		return syntax.If(syntax.Binary(">", id("n"), num(k)), block(ret(nil)), nil)
	}
	src := method("Run", "void", n(), exitAbove("2"), logCall(str("src")))
	l1 := method("Run_L1", "void", n(),
		logCall(str("l1")), do(call(syntax.HintAuto, id("n"))), exitAbove("1"), logCall(str("l1 after")))
	l2 := method("Run_L2", "void", n(),
		logCall(str("l2")), do(call(syntax.HintAuto, id("n"))), exitAbove("0"), logCall(str("l2 after")))
	in := widget(src, []layerDef{{m: l1, aspect: "A"}, {m: l2, aspect: "B"}})
	res := runLink(t, Options{}, in)

	if res.Stats.Inlined != 2 || res.Stats.Generated != 0 {
		t.Fatalf("stats = %+v", res.Stats)
	}
	want := `void Run(int n) { Log("l2"); Log("l1"); if (n > 2) { goto __aspect_return_1; } Log("src"); __aspect_return_1: ; ` +
		`if (n > 1) { goto __aspect_return_2; } Log("l1 after"); __aspect_return_2: ; ` +
		`if (n > 0) { return; } Log("l2 after"); }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, []any{0}, []any{1}, []any{2}, []any{3})
}

func TestForwardCapturedParameter(t *testing.T) {
	src := method("Make", "Func<int>", params("int", "n"),
		ret(syntax.Lambda(nil, block(ret(id("n"))))))
	layer := method("Make_L", "Func<int>", params("int", "n"),
		syntax.Local(syntax.TypeVar, "f", call(syntax.HintAuto, id("n"))),
		do(syntax.Assign("=", id("n"), num("7"))),
		ret(id("f")))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}})
	res := runLink(t, Options{}, in)

	rs := res.Sites[0]
	if rs.Decision != Forward || rs.Reason != "layer assigns parameter n captured by the inner body" {
		t.Fatalf("site = %s: %s", rs.Decision, rs.Reason)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, []any{3})
}

func TestCapturedParameterUntouchedStillInlines(t *testing.T) {
	src := method("Make", "Func<int>", params("int", "n"),
		ret(syntax.Lambda(nil, block(ret(id("n"))))))
	layer := method("Make_L", "Func<int>", params("int", "n"),
		logCall(id("n")),
		ret(call(syntax.HintAuto, id("n"))))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}})
	res := runLink(t, Options{}, in)
	if res.Stats.Inlined != 1 {
		t.Fatalf("stats = %+v, reason %q", res.Stats, res.Sites[0].Reason)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, nil, []any{3})
}

func TestForwardAsyncMismatch(t *testing.T) {
	tests := []struct {
		name              string
		sourceAsync       bool
		layerAsync        bool
		wantInlined       bool
		wantGeneratedMods syntax.Modifiers
	}{
		{name: "async source", sourceAsync: true, wantGeneratedMods: syntax.ModPrivate | syntax.ModAsync},
		{name: "async layer", layerAsync: true, wantGeneratedMods: syntax.ModPrivate},
		{name: "both async", sourceAsync: true, layerAsync: true, wantInlined: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := method("Foo", "Task<int>", nil, ret(num("42")))
			layer := method("Foo_L", "Task<int>", nil, logCall(str("Before")), ret(call(syntax.HintAuto)))
			if tt.sourceAsync {
				src.Modifiers |= syntax.ModAsync
			}
			if tt.layerAsync {
				layer.Modifiers |= syntax.ModAsync
			}
			res := runLink(t, Options{}, widget(src, []layerDef{{m: layer, aspect: "A"}}))

			rs := res.Sites[0]
			if tt.wantInlined {
				if rs.Decision != Inline {
					t.Fatalf("site = %s: %s", rs.Decision, rs.Reason)
				}
				return
			}
			if rs.Decision != Forward || rs.Reason != "async mismatch" {
				t.Fatalf("site = %s: %s", rs.Decision, rs.Reason)
			}
			members := res.Types[0].Members
			if len(members) != 2 {
				t.Fatalf("members = %s", memberText(res))
			}
			if final := members[0]; final.Modifiers != layer.Modifiers {
				t.Errorf("final modifiers = %s, want %s", final.Modifiers, layer.Modifiers)
			}
			if gen := members[1]; gen.Name != "Foo_Source" || gen.Modifiers != tt.wantGeneratedMods {
				t.Errorf("generated = %s %s", gen.Modifiers, gen.Name)
			}
		})
	}
}

func TestForwardWhenLayerShadowsValueField(t *testing.T) {
	src := method("Foo", "int", nil, ret(id("value")))
	layer := method("Foo_L", "int", nil,
		syntax.Local("int", "value", num("5")),
		syntax.Local(syntax.TypeVar, "r", call(syntax.HintAuto)),
		ret(syntax.Binary("+", id("r"), id("value"))))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}}, field("value", "int"))
	res := runLink(t, Options{}, in)

	rs := res.Sites[0]
	if rs.Decision != Forward || rs.Reason != "inner body refers to value, a local of this layer" {
		t.Fatalf("site = %s: %s", rs.Decision, rs.Reason)
	}
	sameBehavior(t, res, in, syntax.AccessorNone, map[string]any{"value": 2}, nil)
}

func TestBaseQualifiedLink(t *testing.T) {
	baseRun := method("Run", "void", nil, logCall(str("base")))
	baseRun.Modifiers = syntax.ModPublic | syntax.ModVirtual
	baseType := &syntax.TypeDecl{Kind: "class", Name: "Base", Members: []*syntax.Member{baseRun}}

	src := method("Run", "void", nil, logCall(str("derived")))
	src.Modifiers = syntax.ModPublic | syntax.ModOverride
	layer := method("Run_L", "void", nil,
		do(syntax.Link(syntax.LinkData{Qualifier: syntax.QualBase, Invoke: true})),
		logCall(str("after")))
	layer.Modifiers = syntax.ModPublic | syntax.ModOverride
	in := widget(src, []layerDef{{m: layer, aspect: "A"}})
	in.Type.Base = "Base"

	res := runLink(t, Options{}, in, TypeInput{Type: baseType})
	want := `public override void Run() { base.Run(); Log("after"); }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	rs := res.Sites[0]
	if rs.Base != baseRun || rs.Reason != "base-qualified link" {
		t.Errorf("site base = %v, reason %q", rs.Base, rs.Reason)
	}
}

func TestInterfaceQualifiedLink(t *testing.T) {
	build := func(notInlineable bool, member string) TypeInput {
		src := method("Get", "int", nil, ret(num("1")))
		src.Interface = "IFoo"
		other := method("Other", "int", nil, ret(num("2")))
		other.Modifiers = syntax.ModPublic
		layer := method("Get_L", "int", nil, ret(syntax.Link(syntax.LinkData{
			Qualifier: syntax.QualInterface,
			Interface: "IFoo",
			Member:    member,
			Invoke:    true,
		})))
		in := widget(src, []layerDef{{m: layer, aspect: "A", notInlineable: notInlineable}}, other)
		in.Type.Interfaces = []string{"IFoo"}
		return in
	}

	res := runLink(t, Options{}, build(false, ""))
	if got, want := syntax.Compact(res.Types[0].Members[1:]...), `int IFoo.Get() { return 1; }`; got != want {
		t.Errorf("inlined = %s\nwant      %s", got, want)
	}

	res = runLink(t, Options{}, build(true, ""))
	want := `int IFoo.Get() { return this.IFoo_Get_Source(); } private int IFoo_Get_Source() { return 1; }`
	if got := syntax.Compact(res.Types[0].Members[1:]...); got != want {
		t.Errorf("forwarded = %s\nwant        %s", got, want)
	}

	res = runLinkFail(t, Options{}, build(false, "Other"))
	if len(res.Errors) != 1 || res.Errors[0].Code != diag.LinkInvalidLinkTarget {
		t.Fatalf("errors = %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Msg, "not to this declaration") {
		t.Errorf("message = %q", res.Errors[0].Msg)
	}
}

func TestCrossAccessorLink(t *testing.T) {
	src := property("P", "int",
		block(ret(id("_p"))),
		block(do(syntax.Assign("=", id("_p"), id("value")))))
	layer := property("P_L", "int", nil, block(
		logCall(ref(syntax.AccessorGet)),
		do(syntax.Assign("=", ref(syntax.AccessorNone), id("value"))),
	))
	in := widget(src, []layerDef{{m: layer, aspect: "A"}}, field("_p", "int"))
	res := runLink(t, Options{}, in)

	want := `private int _p; int P { get { return _p; } set { Log(this.P_Source); _p = value; } } ` +
		`private int P_Source { get { return _p; } }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	if got := res.Sites[0].Reason; got != "targets the get accessor" {
		t.Errorf("reason = %q", got)
	}
	sameBehavior(t, res, in, syntax.AccessorSet, map[string]any{"_p": 5}, []any{7})
	sameBehavior(t, res, in, syntax.AccessorGet, map[string]any{"_p": 5}, nil)
}

func TestIndexerForward(t *testing.T) {
	i := params("int", "i")
	src := &syntax.Member{Kind: syntax.MemberIndexer, Name: "this", Type: "int", Params: i, Accessors: []*syntax.Accessor{
		{Kind: syntax.AccessorGet, Body: block(ret(syntax.Index(id("_a"), id("i"))))},
		{Kind: syntax.AccessorSet, Body: block(do(syntax.Assign("=", syntax.Index(id("_a"), id("i")), id("value"))))},
	}}
	marker := func() *syntax.Expr { return syntax.Link(syntax.LinkData{Args: syntax.Args(id("i"))}) }
	layer := &syntax.Member{Kind: syntax.MemberIndexer, Name: "Item_L", Type: "int", Params: params("int", "i"), Accessors: []*syntax.Accessor{
		{Kind: syntax.AccessorGet, Body: block(logCall(str("get")), ret(marker()))},
		{Kind: syntax.AccessorSet, Body: block(do(syntax.Assign("=", marker(), id("value"))))},
	}}
	res := runLink(t, Options{}, widget(src, []layerDef{{m: layer, aspect: "A", notInlineable: true}}))

	want := `int this[int i] { get { Log("get"); return this.get_Item_Source(i); } set { this.set_Item_Source(i, value); } } ` +
		`private int get_Item_Source(int i) { return _a[i]; } ` +
		`private void set_Item_Source(int i, int value) { _a[i] = value; }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
}

func TestEventHelperTakesSibling(t *testing.T) {
	src := event("E", "Handler",
		block(do(syntax.Assign("+=", id("_h"), id("value")))),
		block(do(syntax.Assign("-=", id("_h"), id("value")))))
	layer := event("E_L", "Handler",
		block(logCall(str("add")), do(syntax.Assign("+=", ref(syntax.AccessorNone), id("value")))), nil)
	in := widget(src, []layerDef{{m: layer, aspect: "Audit", notInlineable: true}}, field("_h", "int"))
	res := runLink(t, Options{}, in)

	want := `private int _h; event Handler E { add { Log("add"); this.E_Source += value; } remove { _h -= value; } } ` +
		`private event Handler E_Source { add { _h += value; } remove { _h -= value; } }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
	sameBehavior(t, res, in, syntax.AccessorAdd, map[string]any{"_h": 1}, []any{3})
	sameBehavior(t, res, in, syntax.AccessorRemove, map[string]any{"_h": 1}, []any{3})
}

func TestSuppressionsAndModifiers(t *testing.T) {
	src := method("Foo", "int", nil, ret(num("1")))
	src.Suppressions = []string{"CS0168"}
	l1 := method("Foo_L1", "int", nil, ret(call(syntax.HintAuto)))
	l1.Suppressions = []string{"CS0219", "CS0168"}
	l2 := method("Foo_L2", "int", nil, ret(call(syntax.HintAuto)))
	l2.Suppressions = []string{"IDE0059"}
	l2.Modifiers = syntax.ModPublic
	l2.Attributes = []syntax.Attribute{{Text: "Obsolete"}}
	res := runLink(t, Options{}, widget(src, []layerDef{{m: l1, aspect: "A"}, {m: l2, aspect: "B", notInlineable: true}}))

	members := res.Types[0].Members
	if len(members) != 2 {
		t.Fatalf("members = %s", memberText(res))
	}
	final, gen := members[0], members[1]
	if got := strings.Join(final.Suppressions, ","); got != "CS0168,CS0219,IDE0059" {
		t.Errorf("final suppressions = %s", got)
	}
	if final.Modifiers != syntax.ModPublic || len(final.Attributes) != 1 {
		t.Errorf("final modifiers = %s, attributes %v", final.Modifiers, final.Attributes)
	}
	if gen.Name != "Foo_A" || gen.Modifiers != syntax.ModPrivate {
		t.Errorf("generated = %s %s", gen.Modifiers, gen.Name)
	}
	if got := strings.Join(gen.Suppressions, ","); got != "CS0219,CS0168" {
		t.Errorf("generated suppressions = %s", got)
	}
}

func TestStaticForward(t *testing.T) {
	src := method("Make", "int", nil, ret(num("1")))
	src.Modifiers = syntax.ModStatic
	layer := method("Make_L", "int", nil, ret(call(syntax.HintAuto)))
	layer.Modifiers = syntax.ModPublic | syntax.ModStatic
	res := runLink(t, Options{}, widget(src, []layerDef{{m: layer, aspect: "A", notInlineable: true}}))
	want := `public static int Make() { return Widget.Make_Source(); } private static int Make_Source() { return 1; }`
	if got := memberText(res); got != want {
		t.Errorf("linked = %s\nwant     %s", got, want)
	}
}

func TestLinkErrors(t *testing.T) {
	t.Run("missing target", func(t *testing.T) {
		src := method("Foo", "int", nil, ret(num("1")))
		layer := method("Foo_L", "int", nil, ret(call(syntax.HintAuto)))
		in := widget(src, []layerDef{{m: layer, aspect: "A"}})
		in.Overrides = append(in.Overrides, OverrideSpec{Target: syntax.MemberKey{Name: "Nope", Sig: "()"}})
		res := runLinkFail(t, Options{}, in)
		if len(res.Errors) != 1 || res.Errors[0].Code != diag.LinkMissingSemanticTarget {
			t.Fatalf("errors = %v", res.Errors)
		}
		if got := memberText(res); got != `int Foo() { return 1; }` {
			t.Errorf("valid declaration not linked: %s", got)
		}
	})

	t.Run("explicit layer is not the previous", func(t *testing.T) {
		src := method("Foo", "int", nil, ret(num("1")))
		l1 := method("Foo_L1", "int", nil, ret(call(syntax.HintAuto)))
		l2 := method("Foo_L2", "int", nil, ret(syntax.Link(syntax.LinkData{
			Invoke: true,
			Layer:  syntax.LayerRef{Explicit: true, Position: 0},
		})))
		in := widget(src, []layerDef{{m: l1, aspect: "A"}, {m: l2, aspect: "B"}})
		before := syntax.Compact(in.Type.Members...)
		res := runLinkFail(t, Options{}, in)
		if len(res.Errors) != 1 {
			t.Fatalf("errors = %v", res.Errors)
		}
		e := res.Errors[0]
		if e.Code != diag.LinkInvalidLinkTarget || e.Layer != 2 || e.Aspect != "B" {
			t.Errorf("error = %+v", e)
		}
		if got := memberText(res); got != before {
			t.Errorf("failed declaration changed:\n%s\nwant\n%s", got, before)
		}
	})

	t.Run("no lower layer", func(t *testing.T) {
		src := method("Foo", "int", nil, ret(call(syntax.HintAuto)))
		layer := method("Foo_L", "int", nil, ret(call(syntax.HintAuto)))
		res := runLinkFail(t, Options{}, widget(src, []layerDef{{m: layer, aspect: "A"}}))
		if len(res.Errors) != 1 || res.Errors[0].Layer != 0 || res.Stats.Failed != 1 {
			t.Fatalf("errors = %v, stats %+v", res.Errors, res.Stats)
		}
	})

	t.Run("duplicate layer", func(t *testing.T) {
		foo := method("Foo", "int", nil, ret(num("1")))
		bar := method("Bar", "int", nil, ret(num("2")))
		layer := method("Shared", "int", nil, ret(call(syntax.HintAuto)))
		in := widget(foo, []layerDef{{m: layer, aspect: "A"}}, bar)
		in.Overrides = append(in.Overrides, OverrideSpec{
			Target: keyOf(bar),
			Layers: []LayerSpec{{Member: keyOf(layer), Aspect: "A"}},
		})
		res := runLinkFail(t, Options{}, in)
		if len(res.Errors) != 1 || res.Errors[0].Code != diag.LinkDuplicateLayer {
			t.Fatalf("errors = %v", res.Errors)
		}
	})

	t.Run("naming exhausted", func(t *testing.T) {
		src := method("Foo", "int", nil, ret(num("1")))
		layer := method("Foo_L", "int", nil, ret(call(syntax.HintAuto)))
		in := widget(src, []layerDef{{m: layer, aspect: "A", notInlineable: true}}, field("Foo_Source", "int"))
		res := runLinkFail(t, Options{MaxNameAttempts: 1}, in)
		if len(res.Errors) != 1 || res.Errors[0].Code != diag.LinkNamingCollisionUnresolvable {
			t.Fatalf("errors = %v", res.Errors)
		}
		if !res.Diagnostics.HasErrors() {
			t.Error("diagnostics carry no error")
		}
		if n := len(res.Types[0].Members); n != 3 {
			t.Errorf("members = %d, want the original 3", n)
		}
	})

	t.Run("failed naming keeps layer names reserved", func(t *testing.T) {
		foo := method("Foo", "int", nil, ret(num("1")))
		// the layer of Foo is named like the helper Bar would get
		fooLayer := method("Bar_Source", "int", nil, ret(call(syntax.HintAuto)))
		bar := method("Bar", "int", nil, ret(num("2")))
		barLayer := method("Bar_L", "int", nil, ret(call(syntax.HintAuto)))
		typ := &syntax.TypeDecl{Kind: "class", Name: "Widget", Members: []*syntax.Member{
			field("Foo_Source", "int"), field("Foo_Source1", "int"), foo, fooLayer, bar, barLayer,
		}}
		in := TypeInput{Type: typ, Overrides: []OverrideSpec{
			{Target: keyOf(foo), Layers: []LayerSpec{{Member: keyOf(fooLayer), Aspect: "A", NotInlineable: true}}},
			{Target: keyOf(bar), Layers: []LayerSpec{{Member: keyOf(barLayer), Aspect: "B", NotInlineable: true}}},
		}}
		res := runLinkFail(t, Options{MaxNameAttempts: 2}, in)
		if len(res.Errors) != 1 || res.Errors[0].Code != diag.LinkNamingCollisionUnresolvable {
			t.Fatalf("errors = %v", res.Errors)
		}
		names := make(map[string]int)
		for _, m := range res.Types[0].Members {
			names[m.Name]++
		}
		if names["Bar_Source"] != 1 || names["Bar_Source1"] != 1 {
			t.Errorf("members = %s", memberText(res))
		}
	})
}

func TestReportForwards(t *testing.T) {
	src := method("Foo", "int", nil, ret(num("42")))
	layer := method("Foo_L", "int", nil, ret(call(syntax.HintAuto)))
	res := runLink(t, Options{ReportForwards: true}, widget(src, []layerDef{{m: layer, aspect: "A", notInlineable: true}}))
	items := res.Diagnostics.Items()
	if len(items) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(items))
	}
	if items[0].Code != diag.LinkForwardedSite || items[0].Severity != diag.SevInfo {
		t.Errorf("diagnostic = %+v", items[0])
	}
	if !strings.Contains(items[0].Message, "layer is not inlineable") {
		t.Errorf("message = %q", items[0].Message)
	}
}

// unit builds n types with a mix of inlined and forwarded declarations.
func unit(n int) []TypeInput {
	out := make([]TypeInput, 0, n)
	for i := range n {
		t := &syntax.TypeDecl{Kind: "class", Name: fmt.Sprintf("T%d", i)}
		var specs []OverrideSpec
		for j := range 3 {
			name := fmt.Sprintf("M%d", j)
			src := method(name, "int", params("int", "x"), ret(syntax.Binary("+", id("x"), num(fmt.Sprint(j)))))
			l1 := method(name+"_L1", "int", params("int", "x"), logCall(str("a")), ret(call(syntax.HintAuto, id("x"))))
			l2 := method(name+"_L2", "int", params("int", "x"), ret(call(syntax.HintAuto, id("x"))))
			t.Members = append(t.Members, src, l1, l2)
			specs = append(specs, OverrideSpec{Target: keyOf(src), Layers: []LayerSpec{
				{Member: keyOf(l1), Aspect: "A", NotInlineable: (i+j)%2 == 0},
				{Member: keyOf(l2), Aspect: "B", NotInlineable: j == 2},
			}})
		}
		out = append(out, TypeInput{Type: t, Overrides: specs})
	}
	return out
}

func TestDeterministicAcrossWorkers(t *testing.T) {
	render := func(jobs int) string {
		res := runLink(t, Options{Jobs: jobs}, unit(24)...)
		var sb strings.Builder
		for _, ty := range res.Types {
			sb.WriteString(syntax.FormatType(ty, syntax.PrintOptions{Indent: "\t"}))
		}
		fmt.Fprintf(&sb, "%+v", res.Stats)
		return sb.String()
	}
	serial := render(1)
	for range 3 {
		if got := render(8); got != serial {
			t.Fatalf("parallel output differs from serial output")
		}
	}
}

func TestLinkCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).Link(ctx, &Input{Types: unit(2)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Link error = %v, want context.Canceled", err)
	}
}

func TestIllegalSiteTransition(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	s := &Site{}
	s.advance(SiteResolving)
	s.advance(SiteInlined)
	s.advance(SiteForwarded)
}
