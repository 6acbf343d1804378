package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// unsupportedStdlibTypes names grammar-legal IEC 61131-3 type keywords
// this compiler's data model (spec.md §3) has no representation for:
// the generic ANY family and reference/pointer types, which presuppose a
// type system this scan-based VM does not implement.
var unsupportedStdlibTypes = map[string]bool{
	"any": true, "any_num": true, "any_int": true, "any_real": true,
	"any_bit": true, "any_string": true, "any_date": true,
	"pointer": true, "ref_to": true,
}

// RuleUnsupportedStdlibType reports a VarDecl whose declared type name is
// one of unsupportedStdlibTypes.
func RuleUnsupportedStdlibType(ctx *Context, lib *ast.Library) {
	checkBlocks := func(blocks []ast.VarBlock) {
		for _, block := range blocks {
			for _, decl := range block.Decls {
				typeName, ok := decl.DataType()
				if !ok {
					continue
				}
				if unsupportedStdlibTypes[typeName.Id.Lower()] {
					ctx.Reportf(diag.ProblemUnsupportedStdlibType, decl.Pos(),
						"%s is not supported by this implementation", typeName.String())
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
