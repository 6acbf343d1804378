package semantic

import (
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// declName returns the lowercased name a declaration introduces, and
// referencedTypes returns the lowercased names it depends on (its base
// type, element types, and so on) — the edges the topological sort walks.
func declName(d ast.Declaration) string {
	switch decl := d.(type) {
	case *ast.LateBoundDeclaration:
		return decl.DataTypeName.Id.Lower()
	case *ast.SimpleDeclaration:
		return decl.DataTypeName.Id.Lower()
	case *ast.EnumerationDeclaration:
		return decl.DataTypeName.Id.Lower()
	case *ast.StructureInitializationDeclaration:
		return decl.DataTypeName.Id.Lower()
	case *ast.StructureDeclaration:
		return decl.DataTypeName.Id.Lower()
	case *ast.ArrayDeclaration:
		return decl.DataTypeName.Id.Lower()
	default:
		return ""
	}
}

func referencedTypes(d ast.Declaration) []string {
	switch decl := d.(type) {
	case *ast.LateBoundDeclaration:
		return []string{decl.BaseTypeName.Id.Lower()}
	case *ast.SimpleDeclaration:
		return []string{decl.BaseTypeName.Id.Lower()}
	case *ast.EnumerationDeclaration:
		if decl.BaseTypeName != nil {
			return []string{decl.BaseTypeName.Id.Lower()}
		}
		return nil
	case *ast.StructureInitializationDeclaration:
		return []string{decl.BaseTypeName.Id.Lower()}
	case *ast.StructureDeclaration:
		var refs []string
		for _, elem := range decl.Elements {
			if tn, ok := ast.InitializerTypeName(elem.Init); ok {
				refs = append(refs, tn.Id.Lower())
			}
		}
		return refs
	case *ast.ArrayDeclaration:
		return []string{decl.ElementType.Id.Lower()}
	default:
		return nil
	}
}

// ToposortDeclarations orders lib.Declarations so that every declaration
// referencing a user-declared type appears after that type's declaration
// (spec.md §4.2.1: "definitions are guaranteed to exist before references,
// or if they do not exist, are guaranteed to not exist"). References to
// elementary types or to names never declared at all are not edges — they
// either need no ordering or are reported later by resolution passes.
//
// A cycle (e.g. two STRUCTs embedding each other by value) is reported as
// diag.ProblemCyclicDependency for every declaration left unorderable, and
// the (possibly partially ordered) input is returned unchanged.
func ToposortDeclarations(ctx *Context, lib *ast.Library) []ast.Declaration {
	decls := lib.Declarations
	byName := make(map[string]ast.Declaration, len(decls))
	for _, d := range decls {
		if name := declName(d); name != "" {
			byName[name] = d
		}
	}

	inDegree := make(map[string]int, len(decls))
	dependents := make(map[string][]string)
	for _, d := range decls {
		name := declName(d)
		if name == "" {
			continue
		}
		if _, ok := inDegree[name]; !ok {
			inDegree[name] = 0
		}
		for _, ref := range referencedTypes(d) {
			if _, isUserType := byName[ref]; !isUserType {
				continue // elementary type or undeclared name: not an edge
			}
			if ref == name {
				continue // self-reference handled as a cycle below
			}
			inDegree[name]++
			dependents[ref] = append(dependents[ref], name)
		}
	}

	var queue []string
	for _, d := range decls {
		name := declName(d)
		if name != "" && inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var ordered []ast.Declaration
	visited := make(map[string]bool)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		ordered = append(ordered, byName[name])
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(ordered) != len(byName) {
		for name, d := range byName {
			if !visited[name] {
				ctx.Reportf(diag.ProblemCyclicDependency, d.Pos(),
					"type %q participates in a cyclic definition", strings.ToUpper(name))
			}
		}
		return decls
	}

	// Append non-type declarations (none currently exist in Declarations,
	// but keep the sort total in case future declaration kinds are added)
	// in their original relative order.
	for _, d := range decls {
		if declName(d) == "" {
			ordered = append(ordered, d)
		}
	}

	return ordered
}
