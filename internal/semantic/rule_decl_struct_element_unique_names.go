package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleDeclStructElementUniqueNames reports every STRUCT whose element list
// reuses the same field name (case-insensitively) more than once.
func RuleDeclStructElementUniqueNames(ctx *Context, lib *ast.Library) {
	for _, d := range lib.Declarations {
		sd, ok := d.(*ast.StructureDeclaration)
		if !ok {
			continue
		}
		seen := make(map[string]ast.Id)
		for _, elem := range sd.Elements {
			key := elem.Name.Lower()
			if _, dup := seen[key]; dup {
				ctx.Reportf(diag.ProblemDuplicateDeclaration, elem.BaseNode.Pos(),
					"structure %s declares field %q more than once", sd.DataTypeName.String(), elem.Name.Name)
				continue
			}
			seen[key] = elem.Name
		}
	}
}
