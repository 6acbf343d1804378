package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
)

// ResolveSymbolEnvironment populates ctx.Symbols with one scope per POU
// (function, function block, program), plus global symbols collected from
// every VAR_GLOBAL block found in configurations. Each VarDecl is entered
// as a Symbol keyed by its lowercased name. Duplicate structure fields
// are reported by RuleDeclStructElementUniqueNames; a second declaration
// of a name already defined in the same POU or global scope is not
// entered (the first one stays) and no diagnostic is reported for it.
func ResolveSymbolEnvironment(ctx *Context, lib *ast.Library) {
	for _, cfg := range lib.Configurations {
		for _, block := range cfg.Globals {
			defineVarBlock(ctx.Symbols.Global, block)
		}
	}

	for _, fn := range lib.Functions {
		scope := ctx.Symbols.DefineScope(fn.Name.Name)
		ctx.Symbols.Global.Define(&Symbol{Name: fn.Name.Name, Kind: SymbolFunction})
		for _, block := range fn.VarBlocks {
			defineVarBlock(scope, block)
		}
	}

	for _, fb := range lib.FunctionBlocks {
		scope := ctx.Symbols.DefineScope(fb.Name.Name)
		ctx.Symbols.Global.Define(&Symbol{Name: fb.Name.Name, Kind: SymbolFunctionBlock})
		for _, block := range fb.VarBlocks {
			defineVarBlock(scope, block)
		}
	}

	for _, prog := range lib.Programs {
		scope := ctx.Symbols.DefineScope(prog.Name.Name)
		ctx.Symbols.Global.Define(&Symbol{Name: prog.Name.Name, Kind: SymbolProgram})
		for _, block := range prog.VarBlocks {
			defineVarBlock(scope, block)
		}
	}
}

func defineVarBlock(scope *SymbolTable, block ast.VarBlock) {
	for _, decl := range block.Decls {
		typeName, _ := decl.DataType()
		sym := &Symbol{
			Name:      decl.Name.Name,
			Kind:      SymbolVariable,
			Type:      typeName,
			VarKind:   decl.Kind,
			Qualifier: decl.Qualifier,
			IsConst:   decl.Qualifier == ast.QualifierConstant,
		}
		scope.Define(sym)
	}
}
