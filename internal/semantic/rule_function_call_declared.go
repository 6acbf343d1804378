package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleFunctionCallDeclared reports a FunctionCall expression whose target
// is not a declared function, and a wrong-arity call to one that is
// declared (spec.md §4.3's function_call_declared row), ported from
// original_source/compiler/analyzer/src/rule_function_call_declared.rs:
// positional and named arguments are counted together against the
// signature's declared input parameter count.
func RuleFunctionCallDeclared(ctx *Context, lib *ast.Library) {
	fbNames := make(map[string]bool, len(lib.FunctionBlocks))
	for _, fb := range lib.FunctionBlocks {
		fbNames[fb.Name.Lower()] = true
	}

	check := func(body []ast.Statement) {
		walkExpressionsInStatements(body, func(e ast.Expression) {
			call, ok := e.(*ast.FunctionCall)
			if !ok {
				return
			}
			if fbNames[call.Name.Lower()] {
				// A function block invoked in expression position is
				// reported by RuleFunctionBlockInvocation instead.
				return
			}
			sig, found := ctx.Functions.Lookup(call.Name.Name)
			if !found {
				ctx.Reportf(diag.ProblemUndeclaredSymbol, call.Pos(),
					"call to undeclared function %q", call.Name.Name)
				return
			}
			if len(call.Args) != sig.InputParameterCount() {
				ctx.Reportf(diag.ProblemWrongNumberOfArguments, call.Pos(),
					"%s expects %d argument(s), got %d", call.Name.Name, sig.InputParameterCount(), len(call.Args))
			}
			validateCallArgs(ctx, call.Pos(), call.Name.Name, sig.ParameterNames(), call.Args)
		})
	}

	for _, fn := range lib.Functions {
		check(fn.Body)
	}
	for _, fb := range lib.FunctionBlocks {
		check(fb.Body)
	}
	for _, prog := range lib.Programs {
		check(prog.Body)
	}
}
