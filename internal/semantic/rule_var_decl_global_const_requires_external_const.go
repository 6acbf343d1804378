package semantic

import (
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleVarDeclGlobalConstRequiresExternalConst reports a VAR_EXTERNAL
// declaration that binds to a VAR_GLOBAL CONSTANT but omits the CONSTANT
// qualifier on its own side — the external binding must restate the
// constness of what it reflects so that a POU cannot silently get a
// writable view onto read-only global storage.
func RuleVarDeclGlobalConstRequiresExternalConst(ctx *Context, lib *ast.Library) {
	globalConst := make(map[string]bool)
	for _, cfg := range lib.Configurations {
		for _, block := range cfg.Globals {
			if block.Kind != ast.VarGlobal {
				continue
			}
			for _, decl := range block.Decls {
				if decl.Qualifier == ast.QualifierConstant {
					globalConst[decl.Name.Lower()] = true
				}
			}
		}
	}

	checkBlocks := func(blocks []ast.VarBlock) {
		for _, block := range blocks {
			if block.Kind != ast.VarExternal {
				continue
			}
			for _, decl := range block.Decls {
				if !globalConst[decl.Name.Lower()] {
					continue
				}
				if decl.Qualifier != ast.QualifierConstant {
					ctx.Reportf(diag.ProblemConstantReassigned, decl.Pos(),
						"%s reflects a global constant and must be declared VAR_EXTERNAL CONSTANT",
						strings.ToUpper(decl.Name.Name))
				}
			}
		}
	}
	for _, fn := range lib.Functions {
		checkBlocks(fn.VarBlocks)
	}
	for _, fb := range lib.FunctionBlocks {
		checkBlocks(fb.VarBlocks)
	}
	for _, prog := range lib.Programs {
		checkBlocks(prog.VarBlocks)
	}
}
