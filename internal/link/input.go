package link

import (
	"fmt"

	"weave/internal/observ"
	"weave/internal/syntax"
)

// Input is one compilation unit: every type with the override layers the
// aspect subsystem attached to its members. Types without overrides still
// take part in base-type lookups.
type Input struct {
	Types []TypeInput
}

type TypeInput struct {
	Type      *syntax.TypeDecl
	Overrides []OverrideSpec
}

// OverrideSpec orders the layers of one target member. Layers[0] becomes
// position 1, the outermost layer is last.
type OverrideSpec struct {
	Target syntax.MemberKey
	Layers []LayerSpec
}

// LayerSpec points at the member of the same type that carries a layer body.
type LayerSpec struct {
	Member        syntax.MemberKey
	Aspect        string
	NotInlineable bool
}

// InlinePolicy selects which link sites may be inlined.
type InlinePolicy uint8

const (
	// InlineAuto inlines every eligible site unless it is marked noinline.
	InlineAuto InlinePolicy = iota
	// InlineExplicit inlines only sites carrying the inline hint.
	InlineExplicit
	// InlineNever forwards every site.
	InlineNever
)

func (p InlinePolicy) String() string {
	switch p {
	case InlineExplicit:
		return "explicit"
	case InlineNever:
		return "never"
	}
	return "auto"
}

// ParseInlinePolicy accepts "", "auto", "explicit" and "never".
func ParseInlinePolicy(s string) (InlinePolicy, error) {
	switch s {
	case "", "auto":
		return InlineAuto, nil
	case "explicit":
		return InlineExplicit, nil
	case "never":
		return InlineNever, nil
	}
	return InlineAuto, fmt.Errorf("unknown inline policy %q", s)
}

// Options configures a Linker.
type Options struct {
	Inline InlinePolicy
	// Jobs bounds parallel workers; <= 0 uses GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the diagnostic bag; <= 0 keeps everything.
	MaxDiagnostics int
	// MaxNameAttempts bounds numeric suffixes per generated name.
	MaxNameAttempts int
	// ReportForwards adds an informational diagnostic per decided site.
	ReportForwards bool
	// Timer receives phase timings when set.
	Timer *observ.Timer
}
