package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleUseDeclaredSymbolicVar reports every *ast.LateBoundExpr that
// ResolveLateBoundExpr could not turn into a Variable or EnumeratedValue —
// i.e. a bare name that is neither a symbol visible in the current scope
// nor the member of any declared enumeration.
func RuleUseDeclaredSymbolicVar(ctx *Context, lib *ast.Library) {
	check := func(pouName string, body []ast.Statement) {
		scope, _ := ctx.Symbols.Scope(pouName)
		candidates := []string{}
		if scope != nil {
			candidates = scope.Names()
		}

		walkExpressionsInStatements(body, func(e ast.Expression) {
			lb, ok := e.(*ast.LateBoundExpr)
			if !ok {
				return
			}
			d := ctx.Report(diag.ProblemUndeclaredVariable, lb.Pos())
			msg := "undeclared variable " + lb.Name.Name
			if suggestion, ok := diag.FindClosestMatch(lb.Name.Lower(), candidates); ok {
				msg += "; did you mean " + suggestion + "?"
			}
			*d = *d.Withf("%s", msg)
		})
	}

	for _, fn := range lib.Functions {
		check(fn.Name.Name, fn.Body)
	}
	for _, fb := range lib.FunctionBlocks {
		check(fb.Name.Name, fb.Body)
	}
	for _, prog := range lib.Programs {
		check(prog.Name.Name, prog.Body)
	}
}
