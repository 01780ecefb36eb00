package link

import (
	"weave/internal/diag"
	"weave/internal/naming"
	"weave/internal/syntax"
)

// nameType allocates the generated member names of one type. Existing
// members that survive linking are reserved first; allocation then follows
// declaration order and layer position.
func (l *Linker) nameType(t *syntax.TypeDecl, decls []*Declaration) {
	alloc := naming.NewAllocator(l.opts.MaxNameAttempts)
	alloc.Reserve(t.Name)

	dropped := make(map[*syntax.Member]bool)
	for _, d := range decls {
		if d.Failed() {
			continue
		}
		for _, ly := range d.Layers[1:] {
			dropped[ly.Member] = true
		}
	}
	for _, m := range t.Members {
		if !dropped[m] {
			alloc.Reserve(naming.Reserved(m)...)
		}
	}

	for _, d := range decls {
		if d.Failed() {
			continue
		}
		stem := naming.Stem(d.Source)
		for _, g := range d.gens {
			base := naming.LayerBase(stem, g.Position, d.Layers[g.Position].Aspect)
			name, err := alloc.Allocate(base, naming.Prefixes(d.Kind)...)
			if err != nil {
				d.fail(diag.LinkNamingCollisionUnresolvable, g.Position, d.Source.Span, "%v", err)
				// the layer members stay in the output
				for _, ly := range d.Layers[1:] {
					alloc.Reserve(naming.Reserved(ly.Member)...)
				}
				break
			}
			g.Name = name
		}
	}
}
