package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleRuntimeChecksFlagged emits advisory (warning-severity) diagnostics
// for two situations this compiler cannot statically rule out and does
// not enforce at runtime either (spec.md §9 leaves array-bounds and
// subrange-constraint enforcement as an open question; the decision
// recorded in the design ledger is to flag rather than enforce):
//
//   - an array index expression that is not a compile-time-constant
//     literal, so the generated code cannot be proven to stay in bounds;
//   - an assignment to a subrange-typed variable whose source expression
//     is not a compile-time-constant literal, so the value cannot be
//     proven to lie within the declared range.
func RuleRuntimeChecksFlagged(ctx *Context, lib *ast.Library) {
	check := func(pouName string, body []ast.Statement) {
		scope, _ := ctx.Symbols.Scope(pouName)

		walkExpressionsInStatements(body, func(e ast.Expression) {
			idx, ok := e.(*ast.IndexExpression)
			if !ok {
				return
			}
			for _, index := range idx.Indices {
				if !isConstantExpr(index) {
					ctx.Reportf(diag.ProblemRuntimeArrayBoundsCheck, idx.Pos(),
						"array index is not statically provable in bounds")
					break
				}
			}
		})

		walkStatements(body, func(s ast.Statement) {
			assign, ok := s.(*ast.Assignment)
			if !ok || scope == nil {
				return
			}
			v, ok := assign.Target.(*ast.Variable)
			if !ok {
				return
			}
			sym, found := scope.Resolve(v.Name().Lower())
			if !found {
				return
			}
			if info, ok := ctx.Types.Lookup(sym.Type.Id.Lower()); ok && info.Class == ClassSubrange {
				if !isConstantExpr(assign.Value) {
					ctx.Reportf(diag.ProblemRuntimeRangeConstraintCheck, assign.Pos(),
						"assignment to subrange variable %s is not statically provable within range", v.Name().Name)
				}
			}
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

func isConstantExpr(e ast.Expression) bool {
	switch e.(type) {
	case *ast.IntegerLiteral, *ast.RealLiteral, *ast.BooleanLiteral, *ast.StringLiteral, *ast.DurationLiteral, *ast.EnumeratedValue:
		return true
	default:
		return false
	}
}
