package syntax

import (
	"strings"

	"weave/internal/source"
)

type Param struct {
	Name string
	Type string // empty for implicitly typed lambda parameters
	Ref  RefKind
}

// Attribute is kept as written between the brackets, e.g. "Obsolete(\"x\")".
type Attribute struct {
	Text string
}

// Accessor is one get/set/add/remove body. A nil Body is an automatic or
// abstract accessor.
type Accessor struct {
	Kind       AccessorKind
	Modifiers  Modifiers
	Body       *Block
	ExprBodied bool
	Span       source.Span
}

// Member is a declaration inside a type.
//
// Name conventions: indexers are named "this", finalizers carry the type
// name, operators the metadata name ("op_Addition") with the token in
// Operator.
type Member struct {
	Kind         MemberKind
	Name         string
	Operator     string
	Interface    string // explicit interface implementation qualifier
	Type         string // return, property, event or field type
	Params       []Param
	Modifiers    Modifiers
	Attributes   []Attribute
	Body         *Block
	ExprBodied   bool
	Accessors    []*Accessor
	Initializer  *Expr
	Suppressions []string // suppressed diagnostic IDs attached to the declaration
	BackingField bool     // field synthesized for an auto-property or field-like event
	Span         source.Span
}

// Accessor returns the accessor of kind k, or nil.
func (m *Member) Accessor(k AccessorKind) *Accessor {
	if m == nil {
		return nil
	}
	for _, a := range m.Accessors {
		if a != nil && a.Kind == k {
			return a
		}
	}
	return nil
}

// BodyFor returns the body of the given slot: the member body for
// AccessorNone, otherwise the accessor body.
func (m *Member) BodyFor(k AccessorKind) *Block {
	if m == nil {
		return nil
	}
	if k == AccessorNone {
		return m.Body
	}
	if a := m.Accessor(k); a != nil {
		return a.Body
	}
	return nil
}

// HasSlot reports whether the member declares the slot at all.
func (m *Member) HasSlot(k AccessorKind) bool {
	if k == AccessorNone {
		return m != nil && !m.Kind.HasAccessors()
	}
	return m.Accessor(k) != nil
}

func (m *Member) IsStatic() bool {
	return m != nil && m.Modifiers.Has(ModStatic)
}

// SlotType is the result type of a slot: the member type for methods,
// properties' getters and operators; void for setters, event accessors and
// finalizers.
func (m *Member) SlotType(k AccessorKind) string {
	switch {
	case m.Kind == MemberFinalizer:
		return TypeVoid
	case k.IsVoidLike():
		return TypeVoid
	}
	return m.Type
}

// SameSignature reports whether two members have identical return type,
// parameter names, types and ref kinds.
func SameSignature(a, b *Member) bool {
	if a == nil || b == nil || a.Type != b.Type || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}

// MemberKey identifies a member within its type: name, explicit interface
// and parameter list. Sig is "(int,ref string)" for methods and operators,
// "[int]" for indexers and "" otherwise.
type MemberKey struct {
	Name      string
	Interface string
	Sig       string
}

func (k MemberKey) String() string {
	if k.Interface != "" {
		return k.Interface + "." + k.Name + k.Sig
	}
	return k.Name + k.Sig
}

// Key computes the MemberKey of m.
func (m *Member) Key() MemberKey {
	key := MemberKey{Name: m.Name, Interface: m.Interface}
	switch m.Kind {
	case MemberMethod, MemberOperator, MemberConstructor, MemberFinalizer:
		key.Sig = "(" + ParamSig(m.Params) + ")"
	case MemberIndexer:
		key.Sig = "[" + ParamSig(m.Params) + "]"
	}
	return key
}

// ParamSig joins parameter types with ref kinds: "int,ref string".
func ParamSig(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Ref != RefNone {
			parts[i] = p.Ref.String() + " " + p.Type
		} else {
			parts[i] = p.Type
		}
	}
	return strings.Join(parts, ",")
}

// TypeDecl is a class, struct or interface with its members in source order.
type TypeDecl struct {
	Kind       string // "class", "struct", "interface", "record"
	Name       string
	Namespace  string
	Base       string
	Interfaces []string
	Modifiers  Modifiers
	Members    []*Member
	Span       source.Span
}

// FullName is Namespace.Name, or Name without a namespace.
func (t *TypeDecl) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Lookup returns the member with the given key, or nil.
func (t *TypeDecl) Lookup(key MemberKey) *Member {
	for _, m := range t.Members {
		if m.Key() == key {
			return m
		}
	}
	return nil
}

// Implements reports whether iface is listed among the type's interfaces.
func (t *TypeDecl) Implements(iface string) bool {
	for _, i := range t.Interfaces {
		if i == iface {
			return true
		}
	}
	return false
}
