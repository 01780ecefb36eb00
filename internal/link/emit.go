package link

import (
	"slices"

	"weave/internal/syntax"
)

// emitType assembles the linked copy of t. Layer members of linked
// declarations disappear, each source member is replaced by its final
// member followed by the generated helpers, and everything else is copied.
// Declarations that failed keep their original members.
func emitType(t *syntax.TypeDecl, decls []*Declaration) *syntax.TypeDecl {
	bySource := make(map[*syntax.Member]*Declaration, len(decls))
	drop := make(map[*syntax.Member]bool)
	for _, d := range decls {
		if d.Failed() {
			continue
		}
		bySource[d.Source] = d
		for _, l := range d.Layers[1:] {
			drop[l.Member] = true
		}
	}

	out := *t
	out.Interfaces = slices.Clone(t.Interfaces)
	out.Members = make([]*syntax.Member, 0, len(t.Members))
	for _, m := range t.Members {
		if d, ok := bySource[m]; ok {
			out.Members = append(out.Members, d.final)
			out.Members = append(out.Members, d.generated...)
			continue
		}
		if drop[m] {
			continue
		}
		out.Members = append(out.Members, syntax.CloneMember(m))
	}
	return &out
}
