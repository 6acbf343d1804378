package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// Context threads the shared state through every pass and rule: the type
// and symbol environments, the file/source pair diagnostics are rendered
// against, and the accumulating diagnostic list. Each rule function takes
// a *Context and the resolved *ast.Library and appends to Diagnostics
// rather than returning early, so a single analysis reports every problem
// it finds in one pass (spec.md §4.3: "aggregate diagnostics without
// short-circuiting").
type Context struct {
	Types     *TypeEnvironment
	Symbols   *SymbolEnvironment
	Functions *FunctionEnvironment

	File   string
	Source string

	Diagnostics []*diag.Diagnostic
}

// NewContext returns a context with a fresh type environment (elementary
// types only), an empty symbol environment, and an empty function
// environment (populated by Analyze once the library is known).
func NewContext(file, source string) *Context {
	return &Context{
		Types:     NewTypeEnvironment(),
		Symbols:   NewSymbolEnvironment(),
		Functions: NewFunctionEnvironment(),
		File:      file,
		Source:    source,
	}
}

// Report appends a diagnostic built from problem at span.
func (c *Context) Report(problem diag.Problem, span ast.Span) *diag.Diagnostic {
	d := diag.New(problem, c.File, c.Source, span)
	c.Diagnostics = append(c.Diagnostics, d)
	return d
}

// Reportf appends a diagnostic with a formatted message.
func (c *Context) Reportf(problem diag.Problem, span ast.Span, format string, args ...interface{}) *diag.Diagnostic {
	d := c.Report(problem, span)
	return d.Withf(format, args...)
}

// HasErrors reports whether any accumulated diagnostic is error-severity.
func (c *Context) HasErrors() bool {
	return diag.HasErrors(c.Diagnostics)
}

// Rule is the shape every semantic rule function implements: inspect the
// library (already past environment construction and late-bound
// resolution) and report any violations found into ctx.
type Rule func(ctx *Context, lib *ast.Library)
