package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleVarDeclConstInitialized reports a CONSTANT-qualified declaration that
// has no initial value — a constant's value must be known at compile time
// since nothing in the VM ever writes to it after startup.
func RuleVarDeclConstInitialized(ctx *Context, lib *ast.Library) {
	checkBlocks := func(blocks []ast.VarBlock) {
		for _, block := range blocks {
			for _, decl := range block.Decls {
				if decl.Qualifier != ast.QualifierConstant {
					continue
				}
				if !initializerHasValue(decl.Initializer) {
					ctx.Reportf(diag.ProblemInvalidLiteral, decl.Pos(),
						"constant %s must be initialized", decl.Name.Name)
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
	for _, cfg := range lib.Configurations {
		checkBlocks(cfg.Globals)
	}
}

func initializerHasValue(init ast.InitialValueAssignmentKind) bool {
	switch k := init.(type) {
	case ast.SimpleInitializer:
		return k.Value != nil
	case ast.StringInitializer:
		return k.Value != nil
	case ast.SubrangeInitializer:
		return k.Value != nil
	case ast.EnumeratedValuesInitializer:
		return k.Value != nil
	case ast.EnumeratedTypeInitializer:
		return k.Value != nil
	case ast.ArrayInitializer:
		return len(k.Elements) > 0
	case ast.StructureInitializer:
		return len(k.Elements) > 0
	default:
		return false
	}
}
