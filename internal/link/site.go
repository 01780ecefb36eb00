package link

import (
	"fmt"

	"weave/internal/syntax"
)

// SiteState tracks a link site through resolution.
type SiteState uint8

const (
	SiteUnresolved SiteState = iota
	SiteResolving
	SiteInlined
	SiteForwarded
	SiteFailed
)

func (s SiteState) String() string {
	switch s {
	case SiteUnresolved:
		return "unresolved"
	case SiteResolving:
		return "resolving"
	case SiteInlined:
		return "inlined"
	case SiteForwarded:
		return "forwarded"
	case SiteFailed:
		return "failed"
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed.
func (s SiteState) Terminal() bool {
	return s == SiteInlined || s == SiteForwarded || s == SiteFailed
}

// Site is one link marker occurrence inside a layer body.
type Site struct {
	Expr     *syntax.Expr
	Stmt     *syntax.Stmt // innermost statement containing Expr
	Parent   *syntax.Expr // nil when Expr is a direct child of Stmt
	Layer    int
	Accessor syntax.AccessorKind // chain the containing body belongs to
	Ordinal  int                 // preorder index within the body
	InLambda bool

	state SiteState
}

func (s *Site) State() SiteState {
	return s.state
}

// Data returns the marker payload.
func (s *Site) Data() syntax.LinkData {
	return s.Expr.Data.(syntax.LinkData) //nolint:errcheck
}

// Statement reports whether the marker stands alone as an expression
// statement.
func (s *Site) Statement() bool {
	if s.Stmt == nil || s.Stmt.Kind != syntax.StmtExpr {
		return false
	}
	return s.Stmt.Data.(syntax.ExprStmtData).Expr == s.Expr //nolint:errcheck
}

// advance moves the site to the next state. An illegal transition means the
// linker itself is broken.
func (s *Site) advance(to SiteState) {
	ok := false
	switch s.state {
	case SiteUnresolved:
		ok = to == SiteResolving
	case SiteResolving:
		ok = to.Terminal()
	}
	if !ok {
		panic(fmt.Sprintf("link site: illegal transition %s -> %s", s.state, to))
	}
	s.state = to
}

// Decision is the outcome for a resolved site.
type Decision uint8

const (
	Forward Decision = iota
	Inline
)

func (d Decision) String() string {
	if d == Inline {
		return "inline"
	}
	return "forward"
}

// Shape is the syntactic form of the statement around a link site.
type Shape uint8

const (
	ShapeUnknown Shape = iota
	ShapeVoidStatement
	ShapeReturn
	ShapeLocalInit
	ShapeLocalAssign
	ShapeSetter
	ShapeEventAdd
	ShapeEventRemove
)

func (s Shape) String() string {
	switch s {
	case ShapeVoidStatement:
		return "void-statement"
	case ShapeReturn:
		return "return"
	case ShapeLocalInit:
		return "local-init"
	case ShapeLocalAssign:
		return "local-assign"
	case ShapeSetter:
		return "setter"
	case ShapeEventAdd:
		return "event-add"
	case ShapeEventRemove:
		return "event-remove"
	}
	return "unknown"
}

// ResolvedSite is a site with its target and decision.
type ResolvedSite struct {
	Site *Site
	// Accessor and Position name the target layer of the same declaration.
	Accessor syntax.AccessorKind
	Position int
	// Base is set for base-qualified sites instead of a layer target.
	Base     *syntax.Member
	Decision Decision
	Shape    Shape
	Reason   string
	// Generated is the member a forwarded same-declaration site calls.
	Generated *GeneratedMember
}

// CrossAccessor reports whether the site targets a sibling accessor.
func (r *ResolvedSite) CrossAccessor() bool {
	return r.Base == nil && r.Accessor != r.Site.Accessor
}

// GeneratedMember is the private member holding the merged body of one
// layer. It is shared by every site forwarding to that layer.
type GeneratedMember struct {
	Decl      *Declaration
	Position  int
	Accessors []syntax.AccessorKind
	Name      string

	from map[syntax.AccessorKind]int // layer holding each accessor body
}

func (g *GeneratedMember) addAccessor(k syntax.AccessorKind, pos int) {
	if g.has(k) {
		return
	}
	g.Accessors = append(g.Accessors, k)
	g.from[k] = pos
}

// Source returns the layer position whose body backs accessor k. Event
// helpers may take the sibling accessor from a lower layer.
func (g *GeneratedMember) Source(k syntax.AccessorKind) int {
	if p, ok := g.from[k]; ok {
		return p
	}
	return g.Position
}

func (g *GeneratedMember) has(k syntax.AccessorKind) bool {
	for _, a := range g.Accessors {
		if a == k {
			return true
		}
	}
	return false
}
