package diag

import (
	"weave/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

// WithNote returns a copy of d with an extra note.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	notes := make([]Note, 0, len(d.Notes)+1)
	notes = append(notes, d.Notes...)
	d.Notes = append(notes, Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) IsError() bool {
	return d.Severity >= SevError
}
