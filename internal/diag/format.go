package diag

import (
	"fmt"
	"strings"

	"weave/internal/source"
)

// FormatShort renders one line per diagnostic:
//
//	path:start-end: SEVERITY LNK1002: message
//
// Notes follow on indented lines when includeNotes is set.
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(Location(d.Primary, fs))
		fmt.Fprintf(&sb, ": %s %s: %s\n", d.Severity, d.Code.ID(), d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(&sb, "    note: %s: %s\n", Location(n.Span, fs), n.Msg)
		}
	}
	return sb.String()
}

// Location renders sp as path:start-end, or <generated> for synthetic spans.
func Location(sp source.Span, fs *source.FileSet) string {
	if sp.IsSynthetic() {
		return "<generated>"
	}
	path := fs.Path(sp.File)
	if path == "" {
		path = fmt.Sprintf("file#%d", sp.File)
	}
	return fmt.Sprintf("%s:%d-%d", path, sp.Start, sp.End)
}
