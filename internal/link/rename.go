//nolint:errcheck // Kind implies the Data payload type.
package link

import (
	"strconv"

	"weave/internal/syntax"
)

// rename gives every local and label of a spliced body that clashes with a
// name already used by the receiving body a fresh "<name>_<n>" name, then
// records all names of the body as used.
func (r *rewriter) rename(b *syntax.Block) {
	all := identifiers(b)
	renames := make(map[string]string)
	for _, group := range [][]string{declaredNames(b), labelNames(b)} {
		for _, n := range group {
			if _, done := renames[n]; done || !r.used.has(n) {
				continue
			}
			for i := 1; ; i++ {
				cand := n + "_" + strconv.Itoa(i)
				if !r.used.has(cand) && !all.has(cand) {
					renames[n] = cand
					all.add(cand)
					break
				}
			}
		}
	}
	if len(renames) > 0 {
		applyRenames(b, renames)
	}
	r.used.merge(identifiers(b))
}

// applyRenames rewrites declarations and references in place.
func applyRenames(b *syntax.Block, renames map[string]string) {
	to := func(n string) string {
		if nn, ok := renames[n]; ok {
			return nn
		}
		return n
	}
	syntax.Walk(b, syntax.Visitor{
		Stmt: func(s *syntax.Stmt, _ syntax.Cursor) bool {
			switch data := s.Data.(type) {
			case syntax.LocalData:
				data.Name = to(data.Name)
				s.Data = data
			case syntax.ForeachData:
				data.Name = to(data.Name)
				s.Data = data
			case syntax.TryData:
				for i := range data.Catches {
					data.Catches[i].Name = to(data.Catches[i].Name)
				}
			case syntax.GotoData:
				s.Data = syntax.GotoData{Label: to(data.Label)}
			case syntax.LabelData:
				s.Data = syntax.LabelData{Label: to(data.Label)}
			}
			return true
		},
		Expr: func(e *syntax.Expr, _ syntax.Cursor) bool {
			switch data := e.Data.(type) {
			case syntax.IdentData:
				e.Data = syntax.IdentData{Name: to(data.Name)}
			case syntax.LambdaData:
				for i := range data.Params {
					data.Params[i].Name = to(data.Params[i].Name)
				}
			}
			return true
		},
	})
}
