package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleUseDeclaredEnumeratedValue reports a qualified enumeration reference
// (`TypeName#Value`) whose TypeName does not resolve to an enumeration, or
// whose Value is not among that enumeration's declared members.
func RuleUseDeclaredEnumeratedValue(ctx *Context, lib *ast.Library) {
	check := func(body []ast.Statement) {
		walkExpressionsInStatements(body, func(e ast.Expression) {
			ev, ok := e.(*ast.EnumeratedValue)
			if !ok || ev.TypeName == nil {
				return
			}
			info, ok := ctx.Types.ResolveEnumeration(ev.TypeName.Id.Lower())
			if !ok {
				d := ctx.Report(diag.ProblemUndeclaredType, ev.TypeName.Span)
				*d = *d.Withf("%s", "undeclared enumeration type "+ev.TypeName.String())
				return
			}
			for _, v := range info.EnumValues {
				if v == ev.Value.Lower() {
					return
				}
			}
			d := ctx.Report(diag.ProblemUndeclaredSymbol, ev.Pos())
			msg := "enumeration " + ev.TypeName.String() + " has no member " + ev.Value.Name
			if suggestion, ok := diag.FindClosestMatch(ev.Value.Lower(), info.EnumValues); ok {
				msg += "; did you mean " + suggestion + "?"
			}
			*d = *d.Withf("%s", msg)
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
