package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// ResolveDeclEnvironment walks the toposorted declarations, populating
// ctx.Types as it goes, and rewrites every *ast.LateBoundDeclaration (the
// parser's placeholder for `TYPE Alias : Base;`, which is ambiguous between
// "Base is an existing type" and "this redefines Base" until the type
// environment exists) into the concrete declaration kind its base type's
// class dictates: an alias to an Enumeration becomes *ast.EnumerationDeclaration,
// an alias to a Structure becomes *ast.StructureInitializationDeclaration,
// and anything else becomes *ast.SimpleDeclaration (spec.md §4.2.2).
//
// Declarations are processed in the order given, which ToposortDeclarations
// guarantees puts every base type before its aliases; an unresolvable base
// name is reported as ProblemUndeclaredType (with a "did you mean?"
// suggestion) rather than aborting the whole pass.
func ResolveDeclEnvironment(ctx *Context, ordered []ast.Declaration) []ast.Declaration {
	resolved := make([]ast.Declaration, len(ordered))
	for i, d := range ordered {
		resolved[i] = resolveOneDecl(ctx, d)
	}
	return resolved
}

func resolveOneDecl(ctx *Context, d ast.Declaration) ast.Declaration {
	switch decl := d.(type) {
	case *ast.LateBoundDeclaration:
		base, ok := ctx.Types.Lookup(decl.BaseTypeName.Id.Lower())
		if !ok {
			reportUndeclaredType(ctx, decl.BaseTypeName)
			defineType(ctx, &TypeInfo{Name: decl.DataTypeName.Id.Lower(), Class: ClassSimple, Base: decl.BaseTypeName.Id.Lower(), DeclSpan: decl.Pos()}, decl.DataTypeName)
			return &ast.SimpleDeclaration{BaseNode: decl.BaseNode, DataTypeName: decl.DataTypeName, BaseTypeName: decl.BaseTypeName}
		}
		switch base.Class {
		case ClassEnumeration:
			defineType(ctx, &TypeInfo{
				Name:       decl.DataTypeName.Id.Lower(),
				Class:      ClassEnumeration,
				Base:       base.Name,
				EnumValues: base.EnumValues,
				DeclSpan:   decl.Pos(),
			}, decl.DataTypeName)
			baseName := decl.BaseTypeName
			return &ast.EnumerationDeclaration{
				BaseNode:     decl.BaseNode,
				DataTypeName: decl.DataTypeName,
				BaseTypeName: &baseName,
			}
		case ClassStructure:
			defineType(ctx, &TypeInfo{
				Name:     decl.DataTypeName.Id.Lower(),
				Class:    ClassStructure,
				Base:     base.Name,
				Elements: base.Elements,
				DeclSpan: decl.Pos(),
			}, decl.DataTypeName)
			return &ast.StructureInitializationDeclaration{BaseNode: decl.BaseNode, DataTypeName: decl.DataTypeName, BaseTypeName: decl.BaseTypeName}
		default:
			defineType(ctx, &TypeInfo{Name: decl.DataTypeName.Id.Lower(), Class: ClassSimple, Base: base.Name, DeclSpan: decl.Pos()}, decl.DataTypeName)
			return &ast.SimpleDeclaration{BaseNode: decl.BaseNode, DataTypeName: decl.DataTypeName, BaseTypeName: decl.BaseTypeName}
		}

	case *ast.EnumerationDeclaration:
		values := make([]string, len(decl.Values))
		for i, v := range decl.Values {
			values[i] = v.Lower()
		}
		defineType(ctx, &TypeInfo{Name: decl.DataTypeName.Id.Lower(), Class: ClassEnumeration, EnumValues: values, DeclSpan: decl.Pos()}, decl.DataTypeName)
		return decl

	case *ast.StructureDeclaration:
		elements := make(map[string]ast.TypeName, len(decl.Elements))
		for _, elem := range decl.Elements {
			if tn, ok := ast.InitializerTypeName(elem.Init); ok {
				elements[elem.Name.Lower()] = tn
			}
		}
		defineType(ctx, &TypeInfo{Name: decl.DataTypeName.Id.Lower(), Class: ClassStructure, Elements: elements, DeclSpan: decl.Pos()}, decl.DataTypeName)
		return decl

	case *ast.ArrayDeclaration:
		defineType(ctx, &TypeInfo{
			Name:        decl.DataTypeName.Id.Lower(),
			Class:       ClassArray,
			ElementType: decl.ElementType.Id.Lower(),
			Dimensions:  decl.Dimensions,
			DeclSpan:    decl.Pos(),
		}, decl.DataTypeName)
		return decl

	case *ast.SimpleDeclaration:
		base, ok := ctx.Types.Lookup(decl.BaseTypeName.Id.Lower())
		baseName := decl.BaseTypeName.Id.Lower()
		if !ok {
			reportUndeclaredType(ctx, decl.BaseTypeName)
		} else {
			baseName = base.Name
		}
		defineType(ctx, &TypeInfo{Name: decl.DataTypeName.Id.Lower(), Class: ClassSimple, Base: baseName, DeclSpan: decl.Pos()}, decl.DataTypeName)
		return decl

	default:
		return d
	}
}

func reportUndeclaredType(ctx *Context, ref ast.TypeName) {
	d := ctx.Report(diag.ProblemUndeclaredType, ref.Span)
	msg := "undeclared type " + ref.String()
	if suggestion, ok := diag.FindClosestMatch(ref.Id.Lower(), ctx.Types.Names()); ok {
		msg += "; did you mean " + suggestion + "?"
	}
	*d = *d.Withf("%s", msg)
}

// defineType registers info in the type environment, reporting
// ProblemDuplicateDeclaration at name's span (the second declaration) when
// a type with that name already exists (spec.md §8 scenario S8). The
// first declaration's line is named in the message since a single
// Diagnostic here carries one span, not a primary/secondary label pair.
func defineType(ctx *Context, info *TypeInfo, name ast.TypeName) {
	if ctx.Types.Define(info) {
		return
	}
	existing, _ := ctx.Types.Lookup(info.Name)
	ctx.Reportf(diag.ProblemDuplicateDeclaration, name.Span,
		"type %q is already declared at line %d", name.String(), existing.DeclSpan.Start.Line)
}
