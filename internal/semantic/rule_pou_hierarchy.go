package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

// RulePouHierarchy reports a function block that instantiates itself,
// directly or through a chain of other function blocks — every FB
// instance occupies fixed storage inside its owner's memory layout
// (spec.md §4.6), so a cycle would require infinite space.
func RulePouHierarchy(ctx *Context, lib *ast.Library) {
	instantiates := make(map[string][]string, len(lib.FunctionBlocks))
	declByName := make(map[string]*ast.FunctionBlockDecl, len(lib.FunctionBlocks))
	for _, fb := range lib.FunctionBlocks {
		declByName[fb.Name.Lower()] = fb
		for _, block := range fb.VarBlocks {
			for _, decl := range block.Decls {
				if fbInit, ok := decl.Initializer.(ast.FunctionBlockInitializer); ok {
					instantiates[fb.Name.Lower()] = append(instantiates[fb.Name.Lower()], fbInit.Type.Id.Lower())
				}
			}
		}
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(lib.FunctionBlocks))

	var visit func(name string, chain []string) []string
	visit = func(name string, chain []string) []string {
		switch state[name] {
		case visiting:
			return append(chain, name)
		case done:
			return nil
		}
		state[name] = visiting
		chain = append(chain, name)
		for _, dep := range instantiates[name] {
			if _, exists := declByName[dep]; !exists {
				continue
			}
			if cycle := visit(dep, chain); cycle != nil {
				return cycle
			}
		}
		state[name] = done
		return nil
	}

	reported := make(map[string]bool)
	for _, fb := range lib.FunctionBlocks {
		name := fb.Name.Lower()
		if state[name] != unvisited {
			continue
		}
		if cycle := visit(name, nil); cycle != nil {
			if reported[cycle[0]] {
				continue
			}
			reported[cycle[0]] = true
			ctx.Reportf(diag.ProblemRecursiveTypeDefinition, declByName[cycle[0]].Pos(),
				"function block %s instantiates itself through a cycle of nested instances",
				declByName[cycle[0]].Name.Name)
		}
	}
}
