package diag

import (
	"strings"
	"testing"

	"github.com/openplc-go/stvm/internal/ast"
)

func spanAt(line, col int) ast.Span {
	return ast.Span{Start: ast.Position{Line: line, Column: col}}
}

func TestDiagnosticFormatIncludesCaret(t *testing.T) {
	src := "PROGRAM Main\n  x := y;\nEND_PROGRAM\n"
	d := New(ProblemUndeclaredVariable, "main.st", src, spanAt(2, 8))
	out := d.Format(false)

	if !strings.Contains(out, "main.st:2:8") {
		t.Fatalf("expected header with file:line:col, got:\n%s", out)
	}
	if !strings.Contains(out, "x := y;") {
		t.Fatalf("expected source line echoed, got:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected caret indicator, got:\n%s", out)
	}
}

func TestDiagnosticWithfOverridesMessage(t *testing.T) {
	d := New(ProblemUndeclaredSymbol, "", "", spanAt(1, 1)).Withf("undeclared symbol %q", "foo")
	if d.Message != `undeclared symbol "foo"` {
		t.Fatalf("Message = %q", d.Message)
	}
}

func TestHasErrorsIgnoresWarnings(t *testing.T) {
	warn := New(ProblemRuntimeArrayBoundsCheck, "", "", spanAt(1, 1))
	if HasErrors([]*Diagnostic{warn}) {
		t.Fatalf("expected warning-only slice to report no errors")
	}
	err := New(ProblemUndeclaredSymbol, "", "", spanAt(1, 1))
	if !HasErrors([]*Diagnostic{warn, err}) {
		t.Fatalf("expected mixed slice to report an error")
	}
}

func TestFormatAllMultiple(t *testing.T) {
	d1 := New(ProblemUndeclaredSymbol, "a.st", "", spanAt(1, 1))
	d2 := New(ProblemTypeMismatch, "a.st", "", spanAt(2, 1))
	out := FormatAll([]*Diagnostic{d1, d2}, false)
	if !strings.Contains(out, "2 problem(s)") {
		t.Fatalf("expected count in header, got:\n%s", out)
	}
}
