// Package diag formats lex/parse/compile errors with source context and a
// caret pointing at the offending column.
package diag

import (
	"fmt"
	"strings"

	"github.com/ochom/vesper/internal/token"
)

// Diagnostic is one positioned error ready for display.
type Diagnostic struct {
	Message string
	Source  string
	File    string
	Pos     token.Position
}

// New builds a Diagnostic from any positioned error (lexer.Error,
// parser.Error, or a plain message with a zero Position).
func New(file, source, message string, pos token.Position) Diagnostic {
	return Diagnostic{Message: message, Source: source, File: file, Pos: pos}
}

// Format renders the diagnostic as a header line, the offending source
// line, a caret under the column, and the message.
func (d Diagnostic) Format() string {
	var sb strings.Builder

	if d.File != "" {
		fmt.Fprintf(&sb, "%s:%d:%d: ", d.File, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&sb, "%d:%d: ", d.Pos.Line, d.Pos.Column)
	}
	sb.WriteString(d.Message)
	sb.WriteByte('\n')

	if line := d.sourceLine(d.Pos.Line); line != "" {
		lineNum := fmt.Sprintf("%4d | ", d.Pos.Line)
		sb.WriteString(lineNum)
		sb.WriteString(line)
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(" ", len(lineNum)+max(d.Pos.Column-1, 0)))
		sb.WriteString("^\n")
	}

	return sb.String()
}

func (d Diagnostic) sourceLine(n int) string {
	if d.Source == "" || n < 1 {
		return ""
	}
	lines := strings.Split(d.Source, "\n")
	if n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// FormatAll renders a batch of diagnostics, one after another, prefixed
// with a count when there is more than one.
func FormatAll(diags []Diagnostic) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s):\n\n", len(diags))
	for i, d := range diags {
		sb.WriteString(d.Format())
		if i < len(diags)-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
