package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleVarDeclConstNotFb reports a CONSTANT-qualified declaration whose
// type is a function-block instance. Function blocks carry internal state
// across scans by definition, so "constant" is meaningless for them.
func RuleVarDeclConstNotFb(ctx *Context, lib *ast.Library) {
	checkBlocks := func(blocks []ast.VarBlock) {
		for _, block := range blocks {
			for _, decl := range block.Decls {
				if decl.Qualifier != ast.QualifierConstant {
					continue
				}
				if _, isFb := decl.Initializer.(ast.FunctionBlockInitializer); isFb {
					ctx.Reportf(diag.ProblemConstantReassigned, decl.Pos(),
						"function block instance %s may not be declared CONSTANT", decl.Name.Name)
				}
			}
		}
	}
	for _, fb := range lib.FunctionBlocks {
		checkBlocks(fb.VarBlocks)
	}
	for _, prog := range lib.Programs {
		checkBlocks(prog.VarBlocks)
	}
}
