package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// stdlibFunctionBlockNames is the set of standard function-block types
// spec.md §3 names as builtin (TON, TOF, CTU, …) that the type environment
// recognizes "on request" but this compiler has no compiled body for: they
// carry no ST source, and the container's opcode set has no instruction
// implementing timer/counter/edge-detector semantics. Instantiating one is
// rejected here, at the semantic stage, rather than reaching codegen and
// failing to resolve a member slot.
var stdlibFunctionBlockNames = map[string]bool{
	"ton": true, "tof": true, "tp": true,
	"ctu": true, "ctd": true, "ctud": true,
	"r_trig": true, "f_trig": true,
	"sr": true, "rs": true,
}

// RuleFunctionBlockInvocation reports an FbCall statement whose instance
// name does not name a variable declared with a function-block type, a
// FunctionCall expression whose target names a declared function-block
// instance rather than a FUNCTION (spec.md: function blocks are invoked as
// statements with named-parameter syntax; functions are invoked as
// expressions), an instance typed as a standard function block this
// compiler has no body for, and an FbCall whose actual parameters don't
// match the instance's declared formal parameters (spec.md §4.3's
// function_block_invocation row: actual-parameter names must exist as
// declared formals, and positional/named parameters must not be mixed).
func RuleFunctionBlockInvocation(ctx *Context, lib *ast.Library) {
	fbs := make(map[string]*ast.FunctionBlockDecl, len(lib.FunctionBlocks))
	fbNames := make(map[string]bool, len(lib.FunctionBlocks))
	for _, fb := range lib.FunctionBlocks {
		fbs[fb.Name.Lower()] = fb
		fbNames[fb.Name.Lower()] = true
	}
	functionNames := make(map[string]bool, len(lib.Functions))
	for _, fn := range lib.Functions {
		functionNames[fn.Name.Lower()] = true
	}

	checkBody := func(pouName string, body []ast.Statement) {
		scope, _ := ctx.Symbols.Scope(pouName)

		walkStatements(body, func(s ast.Statement) {
			call, ok := s.(*ast.FbCall)
			if !ok || scope == nil {
				return
			}
			sym, found := scope.Resolve(call.Instance.Lower())
			if !found {
				return // reported by rule_use_declared_symbolic_var
			}
			fbTypeName := sym.Type.Id.Lower()
			fb, isDeclaredFb := fbs[fbTypeName]
			if !isDeclaredFb {
				if stdlibFunctionBlockNames[fbTypeName] {
					ctx.Reportf(diag.ProblemStdlibFunctionBlockUnsupported, call.Pos(),
						"%s is a %s instance; standard function block %s has no compiled implementation",
						call.Instance.Name, sym.Type.Id.Name, sym.Type.Id.Name)
					return
				}
				ctx.Reportf(diag.ProblemFunctionBlockUsedAsFunction, call.Pos(),
					"%s is not a function block instance", call.Instance.Name)
				return
			}
			validateCallArgs(ctx, call.Pos(), call.Instance.Name, formalNames(fb.Parameters()), call.Args)
		})

		walkExpressionsInStatements(body, func(e ast.Expression) {
			call, ok := e.(*ast.FunctionCall)
			if !ok {
				return
			}
			if fbNames[call.Name.Lower()] && !functionNames[call.Name.Lower()] {
				ctx.Reportf(diag.ProblemFunctionCallOnNonFunction, call.Pos(),
					"%s is a function block and must be invoked as a statement, not a function call", call.Name.Name)
			}
		})
	}

	for _, fn := range lib.Functions {
		checkBody(fn.Name.Name, fn.Body)
	}
	for _, fb := range lib.FunctionBlocks {
		checkBody(fb.Name.Name, fb.Body)
	}
	for _, prog := range lib.Programs {
		checkBody(prog.Name.Name, prog.Body)
	}
}

// formalNames returns params' lowercased names, for named-argument lookup.
func formalNames(params []ast.Parameter) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name.Lower()
	}
	return names
}

// validateCallArgs reports a call that mixes positional and named
// arguments, and a named argument whose name is not among formalNames
// (spec.md §4.3's function_block_invocation row; applied identically to
// ordinary function calls by RuleFunctionCallDeclared).
func validateCallArgs(ctx *Context, pos ast.Span, calleeName string, formalNames []string, args []ast.FunctionCallArg) {
	var hasPositional, hasNamed bool
	for _, a := range args {
		if a.Name == nil {
			hasPositional = true
		} else {
			hasNamed = true
		}
	}
	if hasPositional && hasNamed {
		ctx.Reportf(diag.ProblemMixedArgumentStyle, pos,
			"call to %s mixes positional and named arguments", calleeName)
	}
	for _, a := range args {
		if a.Name == nil {
			continue
		}
		found := false
		for _, name := range formalNames {
			if name == a.Name.Lower() {
				found = true
				break
			}
		}
		if !found {
			ctx.Reportf(diag.ProblemUnknownNamedArgument, pos,
				"%s has no formal parameter named %q", calleeName, a.Name.Name)
		}
	}
}
