package link

import (
	"fmt"
	"strconv"
	"testing"

	"weave/internal/syntax"
)

// machine is a tiny evaluator for the subset of syntax the fixtures use.
// Running the unlinked type with markers dispatched to their target layer
// gives the naive chain of calls; running the linked type gives the merged
// result. Both must be observably the same.

type flowKind uint8

const (
	flowNext flowKind = iota
	flowReturn
	flowBreak
	flowContinue
	flowGoto
)

type flow struct {
	kind  flowKind
	value any
	label string
}

type linkTarget struct {
	member *syntax.Member
	acc    syntax.AccessorKind
}

type machine struct {
	t      *syntax.TypeDecl
	fields map[string]any
	log    []string
	links  map[*syntax.Expr]linkTarget
	steps  int
}

// closure is a lambda value. It shares the frame it was created in, so
// later writes to captured names are visible to it.
type closure struct {
	lambda syntax.LambdaData
	frame  map[string]any
}

func newMachine(t *syntax.TypeDecl, fields map[string]any, links map[*syntax.Expr]linkTarget) *machine {
	m := &machine{t: t, fields: make(map[string]any, len(fields)), links: links}
	for k, v := range fields {
		m.fields[k] = v
	}
	return m
}

// naiveLinks maps every marker of the input to the layer it calls.
func naiveLinks(res *Result) map[*syntax.Expr]linkTarget {
	out := make(map[*syntax.Expr]linkTarget)
	for _, d := range res.Declarations {
		for _, rs := range d.order {
			out[rs.Site.Expr] = linkTarget{member: d.Layers[rs.Position].Member, acc: rs.Accessor}
		}
	}
	return out
}

func (m *machine) lookup(name string) *syntax.Member {
	for _, mem := range m.t.Members {
		if mem.Name == name && mem.Interface == "" && mem.Kind != syntax.MemberField {
			return mem
		}
	}
	return nil
}

func (m *machine) invoke(mem *syntax.Member, acc syntax.AccessorKind, args []any) any {
	if mem == nil {
		panic("invoke of a missing member")
	}
	frame := make(map[string]any)
	for i, p := range mem.Params {
		frame[p.Name] = args[i]
	}
	if acc.IsVoidLike() {
		frame["value"] = args[len(mem.Params)]
	}
	fl := m.execList(mem.BodyFor(acc).Stmts, frame)
	return fl.value
}

func labelIndex(stmts []*syntax.Stmt, label string) int {
	for i, s := range stmts {
		if s.Kind == syntax.StmtLabel && s.Data.(syntax.LabelData).Label == label {
			return i
		}
	}
	return -1
}

func (m *machine) execList(stmts []*syntax.Stmt, f map[string]any) flow {
	for i := 0; i < len(stmts); i++ {
		fl := m.exec(stmts[i], f)
		if fl.kind == flowGoto {
			if j := labelIndex(stmts, fl.label); j >= 0 {
				i = j
				continue
			}
		}
		if fl.kind != flowNext {
			return fl
		}
	}
	return flow{}
}

func (m *machine) loopBody(b *syntax.Block, f map[string]any) (flow, bool) {
	fl := m.execList(b.Stmts, f)
	switch fl.kind {
	case flowNext, flowContinue:
		return flow{}, true
	case flowBreak:
		return flow{}, false
	}
	return fl, false
}

func (m *machine) exec(s *syntax.Stmt, f map[string]any) flow {
	m.steps++
	if m.steps > 100000 {
		panic("step limit exceeded")
	}
	switch s.Kind {
	case syntax.StmtBlock:
		return m.execList(s.Data.(syntax.BlockStmtData).Block.Stmts, f)
	case syntax.StmtExpr:
		m.eval(s.Data.(syntax.ExprStmtData).Expr, f)
	case syntax.StmtLocal:
		data := s.Data.(syntax.LocalData)
		var v any
		if data.Value != nil {
			v = m.eval(data.Value, f)
		}
		f[data.Name] = v
	case syntax.StmtReturn:
		var v any
		if val := s.Data.(syntax.ReturnData).Value; val != nil {
			v = m.eval(val, f)
		}
		return flow{kind: flowReturn, value: v}
	case syntax.StmtIf:
		data := s.Data.(syntax.IfData)
		if m.eval(data.Cond, f).(bool) {
			return m.execList(data.Then.Stmts, f)
		} else if data.Else != nil {
			return m.execList(data.Else.Stmts, f)
		}
	case syntax.StmtWhile:
		data := s.Data.(syntax.WhileData)
		for m.eval(data.Cond, f).(bool) {
			fl, again := m.loopBody(data.Body, f)
			if !again {
				return fl
			}
		}
	case syntax.StmtFor:
		data := s.Data.(syntax.ForData)
		if data.Init != nil {
			m.exec(data.Init, f)
		}
		for data.Cond == nil || m.eval(data.Cond, f).(bool) {
			fl, again := m.loopBody(data.Body, f)
			if !again {
				return fl
			}
			if data.Post != nil {
				m.eval(data.Post, f)
			}
		}
	case syntax.StmtGoto:
		return flow{kind: flowGoto, label: s.Data.(syntax.GotoData).Label}
	case syntax.StmtBreak:
		return flow{kind: flowBreak}
	case syntax.StmtContinue:
		return flow{kind: flowContinue}
	case syntax.StmtLabel, syntax.StmtEmpty:
	default:
		panic("unsupported statement " + s.Kind.String())
	}
	return flow{}
}

func (m *machine) argValues(args []syntax.Arg, f map[string]any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = m.eval(a.Value, f)
	}
	return out
}

func (m *machine) read(name string, f map[string]any) any {
	if v, ok := f[name]; ok {
		return v
	}
	if v, ok := m.fields[name]; ok {
		return v
	}
	panic("unknown name " + name)
}

func (m *machine) eval(e *syntax.Expr, f map[string]any) any {
	switch e.Kind {
	case syntax.ExprIdent:
		return m.read(e.Data.(syntax.IdentData).Name, f)
	case syntax.ExprLiteral:
		data := e.Data.(syntax.LiteralData)
		switch data.Kind {
		case syntax.LitInt:
			n, err := strconv.Atoi(data.Text)
			if err != nil {
				panic(err)
			}
			return n
		case syntax.LitBool:
			return data.Text == "true"
		case syntax.LitString:
			s, err := strconv.Unquote(data.Text)
			if err != nil {
				panic(err)
			}
			return s
		}
		return nil
	case syntax.ExprMember:
		data := e.Data.(syntax.MemberData)
		if mem := m.lookup(data.Name); mem != nil && mem.Kind == syntax.MemberProperty {
			return m.invoke(mem, syntax.AccessorGet, nil)
		}
		return m.fields[data.Name]
	case syntax.ExprCall:
		data := e.Data.(syntax.CallData)
		args := m.argValues(data.Args, f)
		switch data.Callee.Kind {
		case syntax.ExprIdent:
			name := data.Callee.Data.(syntax.IdentData).Name
			if c, ok := f[name].(*closure); ok {
				return m.call(c, args)
			}
			if name == "Log" {
				m.log = append(m.log, fmt.Sprint(args...))
				return nil
			}
		case syntax.ExprMember:
			return m.invoke(m.lookup(data.Callee.Data.(syntax.MemberData).Name), syntax.AccessorNone, args)
		}
		panic("unsupported call " + syntax.FormatExpr(e))
	case syntax.ExprUnary:
		data := e.Data.(syntax.UnaryData)
		switch data.Op {
		case "!":
			return !m.eval(data.Operand, f).(bool)
		case "-":
			return -m.eval(data.Operand, f).(int)
		case "++", "--":
			name := data.Operand.Data.(syntax.IdentData).Name
			old := m.read(name, f).(int)
			next := old + 1
			if data.Op == "--" {
				next = old - 1
			}
			m.store(name, next, f)
			if data.Postfix {
				return old
			}
			return next
		}
	case syntax.ExprBinary:
		data := e.Data.(syntax.BinaryData)
		switch data.Op {
		case "&&":
			return m.eval(data.Left, f).(bool) && m.eval(data.Right, f).(bool)
		case "||":
			return m.eval(data.Left, f).(bool) || m.eval(data.Right, f).(bool)
		}
		return binary(data.Op, m.eval(data.Left, f), m.eval(data.Right, f))
	case syntax.ExprAssign:
		return m.assign(e.Data.(syntax.AssignData), f)
	case syntax.ExprCast:
		return m.eval(e.Data.(syntax.CastData).Operand, f)
	case syntax.ExprLambda:
		return &closure{lambda: e.Data.(syntax.LambdaData), frame: f}
	case syntax.ExprLink:
		lt, ok := m.links[e]
		if !ok {
			panic("marker left in linked output")
		}
		return m.invoke(lt.member, lt.acc, m.argValues(e.Data.(syntax.LinkData).Args, f))
	}
	panic("unsupported expression " + e.Kind.String())
}

func binary(op string, l, r any) any {
	if ls, ok := l.(string); ok {
		if op == "+" {
			return ls + fmt.Sprint(r)
		}
		return map[string]bool{"==": ls == r, "!=": ls != r}[op]
	}
	a, b := l.(int), r.(int)
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "<":
		return a < b
	case "<=":
		return a <= b
	case ">":
		return a > b
	case ">=":
		return a >= b
	case "==":
		return a == b
	case "!=":
		return a != b
	}
	panic("unsupported operator " + op)
}

func (m *machine) store(name string, v any, f map[string]any) {
	if _, ok := f[name]; ok {
		f[name] = v
		return
	}
	m.fields[name] = v
}

func (m *machine) assign(ad syntax.AssignData, f map[string]any) any {
	v := m.eval(ad.Value, f)
	accessorFor := func(mem *syntax.Member) syntax.AccessorKind {
		if mem.Kind == syntax.MemberEvent {
			if ad.Op == "-=" {
				return syntax.AccessorRemove
			}
			return syntax.AccessorAdd
		}
		return syntax.AccessorSet
	}
	switch ad.Target.Kind {
	case syntax.ExprLink:
		lt := m.links[ad.Target]
		args := m.argValues(ad.Target.Data.(syntax.LinkData).Args, f)
		m.invoke(lt.member, lt.acc, append(args, v))
		return v
	case syntax.ExprMember:
		name := ad.Target.Data.(syntax.MemberData).Name
		if mem := m.lookup(name); mem != nil && (mem.Kind == syntax.MemberProperty || mem.Kind == syntax.MemberEvent) {
			m.invoke(mem, accessorFor(mem), []any{v})
			return v
		}
		m.fields[name] = m.combine(ad.Op, m.fields[name], v)
		return m.fields[name]
	case syntax.ExprIdent:
		name := ad.Target.Data.(syntax.IdentData).Name
		var cur any
		if ad.Op != "=" {
			cur = m.read(name, f)
		}
		nv := m.combine(ad.Op, cur, v)
		m.store(name, nv, f)
		return nv
	}
	panic("unsupported assignment target")
}

func (m *machine) call(c *closure, args []any) any {
	for i, p := range c.lambda.Params {
		c.frame[p.Name] = args[i]
	}
	if c.lambda.ExprBody != nil {
		return m.eval(c.lambda.ExprBody, c.frame)
	}
	return m.execList(c.lambda.Body.Stmts, c.frame).value
}

func (m *machine) combine(op string, cur, v any) any {
	switch op {
	case "=":
		return v
	case "+=":
		return binary("+", cur, v)
	case "-=":
		return binary("-", cur, v)
	}
	panic("unsupported assignment " + op)
}

// outcome is everything a run can observe.
type outcome struct {
	result any
	log    string
	fields string
}

func (m *machine) outcome(result any) outcome {
	if c, ok := result.(*closure); ok {
		result = fmt.Sprintf("func() = %v", m.call(c, nil))
	}
	return outcome{result: result, log: fmt.Sprint(m.log), fields: fmt.Sprint(m.fields)}
}

// sameBehavior runs the naive chain and the linked member with each
// argument list and compares what they observe.
func sameBehavior(t *testing.T, res *Result, in TypeInput, acc syntax.AccessorKind, fields map[string]any, argLists ...[]any) {
	t.Helper()
	d := res.Declarations[0]
	naiveTop := d.Layers[d.Chain(acc).Top()].Member
	links := naiveLinks(res)
	linked := res.Types[0]
	var final *syntax.Member
	for _, mem := range linked.Members {
		if mem.Name == d.Source.Name && mem.Kind == d.Kind {
			final = mem
		}
	}
	if final == nil {
		t.Fatalf("final member %s not found", d.Source.Name)
	}
	for _, args := range argLists {
		naive := newMachine(in.Type, fields, links)
		want := naive.outcome(naive.invoke(naiveTop, acc, args))
		merged := newMachine(linked, fields, nil)
		got := merged.outcome(merged.invoke(final, acc, args))
		if got != want {
			t.Errorf("args %v: linked run = %+v, naive run = %+v\n%s", args, got, want, syntax.Compact(final))
		}
	}
}
