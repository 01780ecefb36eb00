//nolint:errcheck // Kind implies the Data payload type.
package link

import (
	"sort"

	"weave/internal/syntax"
)

type nameSet map[string]struct{}

func (s nameSet) add(names ...string) {
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
}

func (s nameSet) has(n string) bool {
	_, ok := s[n]
	return ok
}

func (s nameSet) merge(o nameSet) {
	for n := range o {
		s[n] = struct{}{}
	}
}

func (s nameSet) sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// collectSites lists the link markers of a layer body in preorder.
func collectSites(body *syntax.Block, layer int, acc syntax.AccessorKind) []*Site {
	var sites []*Site
	forInit := make(map[*syntax.Stmt]bool)
	syntax.Walk(body, syntax.Visitor{
		Stmt: func(s *syntax.Stmt, _ syntax.Cursor) bool {
			if s.Kind == syntax.StmtFor {
				if init := s.Data.(syntax.ForData).Init; init != nil {
					forInit[init] = true
				}
			}
			return true
		},
		Expr: func(e *syntax.Expr, c syntax.Cursor) bool {
			if e.Kind != syntax.ExprLink {
				return true
			}
			stmt := c.Stmt
			if forInit[stmt] {
				// a for-initializer is not a statement-list slot
				stmt = nil
			}
			sites = append(sites, &Site{
				Expr:     e,
				Stmt:     stmt,
				Parent:   c.Parent,
				Layer:    layer,
				Accessor: acc,
				Ordinal:  len(sites),
				InLambda: c.Lambda > 0,
			})
			return true
		},
	})
	return sites
}

// declaredNames returns the locals, loop and catch variables and lambda
// parameters declared anywhere in b, in order of appearance.
func declaredNames(b *syntax.Block) []string {
	var out []string
	syntax.Walk(b, syntax.Visitor{
		Stmt: func(s *syntax.Stmt, _ syntax.Cursor) bool {
			switch s.Kind {
			case syntax.StmtLocal:
				out = append(out, s.Data.(syntax.LocalData).Name)
			case syntax.StmtForeach:
				out = append(out, s.Data.(syntax.ForeachData).Name)
			case syntax.StmtTry:
				for _, c := range s.Data.(syntax.TryData).Catches {
					if c.Name != "" {
						out = append(out, c.Name)
					}
				}
			}
			return true
		},
		Expr: func(e *syntax.Expr, _ syntax.Cursor) bool {
			if e.Kind == syntax.ExprLambda {
				for _, p := range e.Data.(syntax.LambdaData).Params {
					out = append(out, p.Name)
				}
			}
			return true
		},
	})
	return out
}

// labelNames returns the labels defined in b.
func labelNames(b *syntax.Block) []string {
	var out []string
	syntax.Walk(b, syntax.Visitor{Stmt: func(s *syntax.Stmt, _ syntax.Cursor) bool {
		if s.Kind == syntax.StmtLabel {
			out = append(out, s.Data.(syntax.LabelData).Label)
		}
		return true
	}})
	return out
}

// identifiers returns every simple name b uses or declares.
func identifiers(b *syntax.Block) nameSet {
	out := make(nameSet)
	out.add(declaredNames(b)...)
	out.add(labelNames(b)...)
	syntax.Walk(b, syntax.Visitor{Expr: func(e *syntax.Expr, _ syntax.Cursor) bool {
		if e.Kind == syntax.ExprIdent {
			out.add(e.Data.(syntax.IdentData).Name)
		}
		return true
	}})
	return out
}

// freeNames returns the identifiers b references without declaring them,
// parameters excluded. "value" is a parameter of void-like accessors only.
func freeNames(b *syntax.Block, params []syntax.Param, acc syntax.AccessorKind) nameSet {
	bound := make(nameSet)
	bound.add(declaredNames(b)...)
	if acc.IsVoidLike() {
		bound.add("value")
	}
	for _, p := range params {
		bound.add(p.Name)
	}
	out := make(nameSet)
	syntax.Walk(b, syntax.Visitor{Expr: func(e *syntax.Expr, _ syntax.Cursor) bool {
		if e.Kind == syntax.ExprIdent {
			if n := e.Data.(syntax.IdentData).Name; !bound.has(n) {
				out.add(n)
			}
		}
		return true
	}})
	return out
}

// byValueParams returns the parameters of a body that are copies owned by
// the callee.
func byValueParams(params []syntax.Param, acc syntax.AccessorKind) nameSet {
	out := make(nameSet)
	for _, p := range params {
		if p.Ref == syntax.RefNone {
			out.add(p.Name)
		}
	}
	if acc.IsVoidLike() {
		out.add("value")
	}
	return out
}

// assignedParam returns the first by-value parameter b writes to.
func assignedParam(b *syntax.Block, params []syntax.Param, acc syntax.AccessorKind) string {
	return assignedName(b, byValueParams(params, acc))
}

// assignedName returns the first of names b writes to: through assignment,
// increment or a ref/out argument. Writes inside lambdas count.
func assignedName(b *syntax.Block, names nameSet) string {
	if len(names) == 0 {
		return ""
	}
	target := func(e *syntax.Expr) string {
		if e != nil && e.Kind == syntax.ExprIdent {
			if n := e.Data.(syntax.IdentData).Name; names.has(n) {
				return n
			}
		}
		return ""
	}
	found := ""
	args := func(as []syntax.Arg) {
		for _, a := range as {
			if a.Ref == syntax.RefRef || a.Ref == syntax.RefOut {
				if n := target(a.Value); n != "" && found == "" {
					found = n
				}
			}
		}
	}
	syntax.Walk(b, syntax.Visitor{Expr: func(e *syntax.Expr, _ syntax.Cursor) bool {
		if found != "" {
			return false
		}
		switch e.Kind {
		case syntax.ExprAssign:
			found = target(e.Data.(syntax.AssignData).Target)
		case syntax.ExprUnary:
			data := e.Data.(syntax.UnaryData)
			if data.Op == "++" || data.Op == "--" {
				found = target(data.Operand)
			}
		case syntax.ExprCall:
			args(e.Data.(syntax.CallData).Args)
		case syntax.ExprNew:
			args(e.Data.(syntax.NewData).Args)
		case syntax.ExprLink:
			args(e.Data.(syntax.LinkData).Args)
		}
		return true
	}})
	return found
}

// capturedParams returns the by-value parameters b reads or writes inside a
// lambda. A spliced closure shares them with the receiving body.
func capturedParams(b *syntax.Block, params []syntax.Param, acc syntax.AccessorKind) nameSet {
	byValue := byValueParams(params, acc)
	out := make(nameSet)
	syntax.Walk(b, syntax.Visitor{Expr: func(e *syntax.Expr, c syntax.Cursor) bool {
		if c.Lambda > 0 && e.Kind == syntax.ExprIdent {
			if n := e.Data.(syntax.IdentData).Name; byValue.has(n) {
				out.add(n)
			}
		}
		return true
	}})
	return out
}

// hasYield reports whether b is an iterator body.
func hasYield(b *syntax.Block) bool {
	found := false
	syntax.Walk(b, syntax.Visitor{Stmt: func(s *syntax.Stmt, c syntax.Cursor) bool {
		if s.Kind == syntax.StmtYield && c.Lambda == 0 {
			found = true
		}
		return !found
	}})
	return found
}

// countReturns counts return statements outside lambdas.
func countReturns(stmts []*syntax.Stmt) int {
	n := 0
	for _, s := range stmts {
		syntax.WalkStmt(s, syntax.Visitor{Stmt: func(s *syntax.Stmt, c syntax.Cursor) bool {
			if s.Kind == syntax.StmtReturn && c.Lambda == 0 {
				n++
			}
			return true
		}})
	}
	return n
}
