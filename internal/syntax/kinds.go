package syntax

import (
	"fmt"
	"strings"
)

// MemberKind enumerates the member declarations a type can hold.
type MemberKind uint8

const (
	MemberField MemberKind = iota
	MemberMethod
	MemberProperty
	MemberIndexer
	MemberEvent
	MemberFinalizer
	MemberOperator
	MemberConstructor
)

var memberKindNames = [...]string{
	MemberField:       "field",
	MemberMethod:      "method",
	MemberProperty:    "property",
	MemberIndexer:     "indexer",
	MemberEvent:       "event",
	MemberFinalizer:   "finalizer",
	MemberOperator:    "operator",
	MemberConstructor: "constructor",
}

func (k MemberKind) String() string {
	if int(k) < len(memberKindNames) {
		return memberKindNames[k]
	}
	return "unknown"
}

// ParseMemberKind is the inverse of MemberKind.String.
func ParseMemberKind(s string) (MemberKind, error) {
	for i, name := range memberKindNames {
		if name == s {
			return MemberKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown member kind %q", s)
}

// Accessors lists the accessor slots of a member kind, in emission order.
// Kinds without accessors have a single AccessorNone slot.
func (k MemberKind) Accessors() []AccessorKind {
	switch k {
	case MemberProperty, MemberIndexer:
		return []AccessorKind{AccessorGet, AccessorSet}
	case MemberEvent:
		return []AccessorKind{AccessorAdd, AccessorRemove}
	default:
		return []AccessorKind{AccessorNone}
	}
}

// HasAccessors reports whether bodies live in accessors rather than on the
// member itself.
func (k MemberKind) HasAccessors() bool {
	return k == MemberProperty || k == MemberIndexer || k == MemberEvent
}

// Linkable reports whether override layers may target the kind.
func (k MemberKind) Linkable() bool {
	switch k {
	case MemberMethod, MemberProperty, MemberIndexer, MemberEvent, MemberFinalizer, MemberOperator:
		return true
	}
	return false
}

// AccessorKind identifies one accessor of a property, indexer or event.
type AccessorKind uint8

const (
	AccessorNone AccessorKind = iota
	AccessorGet
	AccessorSet
	AccessorAdd
	AccessorRemove
)

func (k AccessorKind) String() string {
	switch k {
	case AccessorGet:
		return "get"
	case AccessorSet:
		return "set"
	case AccessorAdd:
		return "add"
	case AccessorRemove:
		return "remove"
	}
	return ""
}

// ParseAccessorKind accepts "", "get", "set", "add", "remove".
func ParseAccessorKind(s string) (AccessorKind, error) {
	switch s {
	case "":
		return AccessorNone, nil
	case "get":
		return AccessorGet, nil
	case "set":
		return AccessorSet, nil
	case "add":
		return AccessorAdd, nil
	case "remove":
		return AccessorRemove, nil
	}
	return AccessorNone, fmt.Errorf("unknown accessor %q", s)
}

// IsVoidLike reports whether the accessor has no result value.
func (k AccessorKind) IsVoidLike() bool {
	return k == AccessorSet || k == AccessorAdd || k == AccessorRemove
}

// MethodPrefix is the prefix of the compiler-reserved accessor method name
// ("get_", "add_", ...).
func (k AccessorKind) MethodPrefix() string {
	if k == AccessorNone {
		return ""
	}
	return k.String() + "_"
}

// Modifiers is a bitmask of declaration modifiers.
type Modifiers uint32

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModInternal
	ModPrivate
	ModStatic
	ModReadonly
	ModVirtual
	ModOverride
	ModAbstract
	ModSealed
	ModNew
	ModExtern
	ModUnsafe
	ModAsync
)

var modifierWords = []struct {
	mod  Modifiers
	word string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModInternal, "internal"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModReadonly, "readonly"},
	{ModVirtual, "virtual"},
	{ModOverride, "override"},
	{ModAbstract, "abstract"},
	{ModSealed, "sealed"},
	{ModNew, "new"},
	{ModExtern, "extern"},
	{ModUnsafe, "unsafe"},
	{ModAsync, "async"},
}

// AccessMask covers the accessibility modifiers.
const AccessMask = ModPublic | ModProtected | ModInternal | ModPrivate

func (m Modifiers) Has(flag Modifiers) bool {
	return m&flag != 0
}

// String renders modifiers in canonical source order separated by spaces.
func (m Modifiers) String() string {
	words := make([]string, 0, 4)
	for _, mw := range modifierWords {
		if m.Has(mw.mod) {
			words = append(words, mw.word)
		}
	}
	return strings.Join(words, " ")
}

// ParseModifiers parses a space separated modifier list.
func ParseModifiers(s string) (Modifiers, error) {
	var out Modifiers
	for _, w := range strings.Fields(s) {
		found := false
		for _, mw := range modifierWords {
			if mw.word == w {
				out |= mw.mod
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown modifier %q", w)
		}
	}
	return out, nil
}

// RefKind is the passing mode of a parameter or argument.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (k RefKind) String() string {
	switch k {
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	}
	return ""
}

// ParseRefKind accepts "", "ref", "out", "in".
func ParseRefKind(s string) (RefKind, error) {
	switch s {
	case "":
		return RefNone, nil
	case "ref":
		return RefRef, nil
	case "out":
		return RefOut, nil
	case "in":
		return RefIn, nil
	}
	return RefNone, fmt.Errorf("unknown ref kind %q", s)
}

// Type names with special meaning to the linker.
const (
	TypeVoid = "void"
	TypeVar  = "var"
)
