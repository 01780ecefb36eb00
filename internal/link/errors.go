package link

import (
	"errors"
	"fmt"
	"strings"

	"weave/internal/diag"
	"weave/internal/source"
)

// ErrLinkFailed is returned by Linker.Link when at least one declaration
// could not be linked. The result is still usable for reporting.
var ErrLinkFailed = errors.New("link failed")

// Error is a linker failure with the declaration and layer it concerns.
type Error struct {
	Code   diag.Code
	Type   string
	Decl   string
	Layer  int // -1 when no single layer is at fault
	Aspect string
	Span   source.Span
	Msg    string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Code.ID())
	sb.WriteString(": ")
	sb.WriteString(e.where())
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

func (e *Error) where() string {
	where := e.Type
	if e.Decl != "" {
		where += "." + e.Decl
	}
	if e.Layer >= 0 {
		where += fmt.Sprintf(" layer %d", e.Layer)
		if e.Aspect != "" {
			where += " (" + e.Aspect + ")"
		}
	}
	return where
}

// Diagnostic converts the error for a diag.Bag.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevError,
		Code:     e.Code,
		Message:  e.where() + ": " + e.Msg,
		Primary:  e.Span,
	}
}

func (d *Declaration) fail(code diag.Code, layer int, span source.Span, format string, args ...any) {
	e := &Error{
		Code:  code,
		Type:  d.Type.FullName(),
		Decl:  d.Key.String(),
		Layer: layer,
		Span:  span,
		Msg:   fmt.Sprintf(format, args...),
	}
	if layer >= 0 && layer < len(d.Layers) && d.Layers[layer].Position == layer {
		e.Aspect = d.Layers[layer].Aspect
	}
	d.errs = append(d.errs, e)
}
