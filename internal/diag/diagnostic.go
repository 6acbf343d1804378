package diag

import (
	"fmt"
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
)

// Diagnostic is a single compiler-emitted problem report, carrying enough
// context to render a caret-pointed source excerpt without the caller
// re-deriving anything from the AST.
type Diagnostic struct {
	Problem  Problem
	Severity Severity
	Message  string // rendered text; defaults to Problem.String() if empty
	File     string
	Span     ast.Span
	Source   string // full source text the span was taken from, for context lines
}

// New builds a Diagnostic at its problem's default severity with the
// problem's stock message.
func New(problem Problem, file, source string, span ast.Span) *Diagnostic {
	return &Diagnostic{
		Problem:  problem,
		Severity: problem.DefaultSeverity(),
		Message:  problem.String(),
		File:     file,
		Span:     span,
		Source:   source,
	}
}

// Withf returns a copy of the diagnostic with Message replaced by a
// formatted string, for problems whose stock text needs the offending name
// interpolated in.
func (d *Diagnostic) Withf(format string, args ...interface{}) *Diagnostic {
	clone := *d
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

// Error implements the error interface so a Diagnostic can be returned
// wherever Go code expects one.
func (d *Diagnostic) Error() string {
	return d.Format(false)
}

func (d *Diagnostic) label() string {
	if d.Severity == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Format renders the diagnostic as a single caret-annotated block: a
// file:line:col header, the offending source line, a caret under the
// exact column, and the message.
func (d *Diagnostic) Format(color bool) string {
	var sb strings.Builder

	pos := d.Span.Start
	if d.File != "" {
		fmt.Fprintf(&sb, "%s in %s:%d:%d\n", strings.ToUpper(d.label()[:1])+d.label()[1:], d.File, pos.Line, pos.Column)
	} else {
		fmt.Fprintf(&sb, "%s at line %d:%d\n", strings.ToUpper(d.label()[:1])+d.label()[1:], pos.Line, pos.Column)
	}

	sourceLine := d.sourceLine(pos.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(d.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (d *Diagnostic) sourceLine(lineNum int) string {
	if d.Source == "" {
		return ""
	}
	lines := strings.Split(d.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll renders a batch of diagnostics the way the CLI reports a failed
// compilation: a summary count followed by each diagnostic in turn.
func FormatAll(diags []*Diagnostic, color bool) string {
	if len(diags) == 0 {
		return ""
	}
	if len(diags) == 1 {
		return diags[0].Format(color)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "compilation failed with %d problem(s):\n\n", len(diags))
	for i, d := range diags {
		fmt.Fprintf(&sb, "[%d of %d]\n", i+1, len(diags))
		sb.WriteString(d.Format(color))
		if i < len(diags)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// HasErrors reports whether any diagnostic in the slice is at error
// severity (as opposed to a mere advisory warning).
func HasErrors(diags []*Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
