package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RuleEnumerationValuesUnique reports two problems: a single enumeration
// declaring the same member twice, and two distinct (non-aliased)
// enumerations sharing a member name. The second case matters here because
// an unqualified reference to an enum member (spec.md §4.2.3) only
// resolves unambiguously when each member name belongs to exactly one
// enumeration.
func RuleEnumerationValuesUnique(ctx *Context, lib *ast.Library) {
	memberOwner := make(map[string]*ast.EnumerationDeclaration)

	for _, d := range lib.Declarations {
		ed, ok := d.(*ast.EnumerationDeclaration)
		if !ok || ed.BaseTypeName != nil {
			continue // aliases inherit their base's values; not a fresh declaration
		}

		seen := make(map[string]bool)
		for _, v := range ed.Values {
			key := v.Lower()
			if seen[key] {
				ctx.Reportf(diag.ProblemDuplicateDeclaration, ed.Pos(),
					"enumeration %s declares value %q more than once", ed.DataTypeName.String(), v.Name)
				continue
			}
			seen[key] = true

			if owner, exists := memberOwner[key]; exists && owner != ed {
				ctx.Reportf(diag.ProblemDuplicateDeclaration, ed.Pos(),
					"enumeration value %q is declared by both %s and %s",
					v.Name, owner.DataTypeName.String(), ed.DataTypeName.String())
				continue
			}
			memberOwner[key] = ed
		}
	}
}
