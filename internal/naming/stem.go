package naming

import (
	"strconv"
	"strings"
	"unicode"

	"weave/internal/syntax"
)

// Stem is the identifier generated names of m are derived from.
func Stem(m *syntax.Member) string {
	switch m.Kind {
	case syntax.MemberIndexer:
		return explicit(m.Interface, "Item")
	case syntax.MemberFinalizer:
		return "Finalize"
	}
	return explicit(m.Interface, m.Name)
}

func explicit(iface, name string) string {
	if iface == "" {
		return name
	}
	return Sanitize(iface) + "_" + name
}

// Sanitize maps s onto identifier characters: dots, generic brackets and
// other punctuation become underscores, runs collapse, edges are trimmed.
func Sanitize(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = r == '_'
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// ShortName reduces an aspect identity ("Acme.Logging.LogAspect<T>") to a
// suffix-friendly name ("LogAspect").
func ShortName(aspect string) string {
	if i := strings.IndexAny(aspect, "<[("); i >= 0 {
		aspect = aspect[:i]
	}
	if i := strings.LastIndexAny(aspect, ".:+/"); i >= 0 {
		aspect = aspect[i+1:]
	}
	return Sanitize(aspect)
}

// LayerBase is the preferred name of the generated member holding layer
// pos: "<stem>_Source" for the source body, "<stem>_<aspect>" for override
// layers, "<stem>_Layer<pos>" when the aspect has no usable name.
func LayerBase(stem string, pos int, aspect string) string {
	if pos == 0 {
		return stem + "_Source"
	}
	if short := ShortName(aspect); short != "" {
		return stem + "_" + short
	}
	return stem + "_Layer" + strconv.Itoa(pos)
}

// Prefixes lists the prefixes that must be free for a generated member of
// kind k. Properties and events also claim their accessor method names;
// indexers are generated as a get_/set_ method pair.
func Prefixes(k syntax.MemberKind) []string {
	switch k {
	case syntax.MemberProperty:
		return []string{"", "get_", "set_"}
	case syntax.MemberEvent:
		return []string{"", "add_", "remove_"}
	case syntax.MemberIndexer:
		return []string{"get_", "set_"}
	}
	return []string{""}
}

// Reserved lists the names an existing member occupies in its type.
// Explicit interface implementations occupy no simple name.
func Reserved(m *syntax.Member) []string {
	if m.Interface != "" {
		return nil
	}
	switch m.Kind {
	case syntax.MemberProperty, syntax.MemberEvent:
		out := []string{m.Name}
		for _, k := range m.Kind.Accessors() {
			out = append(out, k.MethodPrefix()+m.Name)
		}
		return out
	case syntax.MemberIndexer:
		return []string{"Item", "get_Item", "set_Item"}
	case syntax.MemberFinalizer:
		return []string{"Finalize"}
	case syntax.MemberConstructor:
		return nil
	}
	return []string{m.Name}
}
