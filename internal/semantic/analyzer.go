package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// rules is the fixed battery run during the semantic stage, in the order
// spec.md §4.3 lists them. Every rule runs regardless of whether an
// earlier rule reported a problem, so a single Analyze call surfaces every
// diagnostic the library has in one pass.
var rules = []Rule{
	RuleDeclStructElementUniqueNames,
	RuleDeclSubrangeLimits,
	RuleEnumerationValuesUnique,
	RuleFunctionBlockInvocation,
	RuleFunctionCallDeclared,
	RuleProgramTaskDefinitionExists,
	RuleUseDeclaredEnumeratedValue,
	RuleUseDeclaredSymbolicVar,
	RuleUnsupportedStdlibType,
	RuleVarDeclConstInitialized,
	RuleVarDeclConstNotFb,
	RuleVarDeclGlobalConstRequiresExternalConst,
	RulePouHierarchy,
	RuleRuntimeChecksFlagged,
}

// Analyze runs the full pipeline over one or more parsed libraries,
// merging them into a single unit first (so a program split across
// multiple files analyzes as if it were one): type environment
// construction (toposort + decl resolution), symbol environment
// construction, late-bound expression resolution, then every semantic
// rule. Returns the resolved library and any warning-level diagnostics on
// success, or a nil library and the accumulated diagnostics when any
// error was reported.
//
// Diagnostics are never short-circuited: if the type/symbol environment
// stage itself fails (e.g. a cyclic type definition), the remaining
// stages still run against the partially-resolved library so later-stage
// problems are reported in the same pass, matching the original
// implementation's choice to report everything it can rather than stop at
// the first blocking problem.
func Analyze(file, source string, sources ...*ast.Library) (*ast.Library, []*diag.Diagnostic) {
	ctx := NewContext(file, source)

	if len(sources) == 0 {
		ctx.Report(diag.ProblemUndeclaredSymbol, ast.Span{})
		return nil, ctx.Diagnostics
	}

	lib := ast.NewLibrary()
	for _, s := range sources {
		lib.Extend(s)
	}

	ordered := ToposortDeclarations(ctx, lib)
	lib.Declarations = ResolveDeclEnvironment(ctx, ordered)

	ResolveSymbolEnvironment(ctx, lib)

	ctx.Functions = BuildFunctionEnvironment(lib)

	ResolveLateBoundExpr(ctx, lib)

	for _, rule := range rules {
		rule(ctx, lib)
	}

	if ctx.HasErrors() {
		return nil, ctx.Diagnostics
	}
	return lib, ctx.Diagnostics
}
