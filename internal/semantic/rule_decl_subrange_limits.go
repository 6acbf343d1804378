package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleDeclSubrangeLimits reports a subrange declaration whose bounds are
// both integer literals with Lower greater than Upper — an empty range
// that can never hold a value (e.g. `PositivePercent : INT (100..0)`).
// Bounds involving anything other than a literal (a named constant, an
// expression) are not checked, here or at runtime;
// RuleRuntimeChecksFlagged separately warns about non-constant
// assignments to subrange-typed variables.
func RuleDeclSubrangeLimits(ctx *Context, lib *ast.Library) {
	walkSubrangeInitializers(lib, func(init ast.SubrangeInitializer, span ast.Span) {
		lower, lowOK := init.Lower.(*ast.IntegerLiteral)
		upper, upOK := init.Upper.(*ast.IntegerLiteral)
		if lowOK && upOK && lower.Value > upper.Value {
			ctx.Reportf(diag.ProblemInvalidLiteral, span,
				"subrange lower bound %d is greater than upper bound %d", lower.Value, upper.Value)
		}
	})
}

// walkSubrangeInitializers visits every SubrangeInitializer reachable from
// a VarDecl anywhere in the library (functions, function blocks, programs,
// and struct element declarations).
func walkSubrangeInitializers(lib *ast.Library, visit func(ast.SubrangeInitializer, ast.Span)) {
	visitBlocks := func(blocks []ast.VarBlock) {
		for _, block := range blocks {
			for _, decl := range block.Decls {
				if sr, ok := decl.Initializer.(ast.SubrangeInitializer); ok {
					visit(sr, decl.Pos())
				}
			}
		}
	}
	for _, fn := range lib.Functions {
		visitBlocks(fn.VarBlocks)
	}
	for _, fb := range lib.FunctionBlocks {
		visitBlocks(fb.VarBlocks)
	}
	for _, prog := range lib.Programs {
		visitBlocks(prog.VarBlocks)
	}
	for _, d := range lib.Declarations {
		if sd, ok := d.(*ast.StructureDeclaration); ok {
			for _, elem := range sd.Elements {
				if sr, ok := elem.Init.(ast.SubrangeInitializer); ok {
					visit(sr, elem.BaseNode.Pos())
				}
			}
		}
	}
}
