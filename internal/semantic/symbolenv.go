package semantic

import (
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
)

// SymbolKind distinguishes the declaration site that produced a Symbol.
type SymbolKind int

const (
	SymbolVariable SymbolKind = iota
	SymbolFunction
	SymbolFunctionBlock
	SymbolProgram
	SymbolEnumValue
)

// Symbol is one named entity visible within a scope: a variable, a
// function/function-block name, a program name, or an enumeration member.
// Mirrors the teacher's Symbol{Type,ReadOnly,...}, generalized to ST's
// declaration kinds.
type Symbol struct {
	Name      string // lowercased
	Kind      SymbolKind
	Type      ast.TypeName
	VarKind   ast.VarKind
	Qualifier ast.Qualifier
	IsConst   bool
}

// SymbolTable is a single lexical scope, with an optional outer scope for
// fallback lookup — the same nested-map shape as the teacher's
// symbol_table.go, keyed by strings.ToLower(name).
type SymbolTable struct {
	symbols map[string]*Symbol
	outer   *SymbolTable
}

// NewSymbolTable returns an empty top-level (global) scope.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol)}
}

// NewEnclosedSymbolTable returns a new scope nested inside outer.
func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	return &SymbolTable{symbols: make(map[string]*Symbol), outer: outer}
}

// Define adds sym to this scope. Returns false if the name is already
// defined in this scope (shadowing an outer scope's symbol is allowed).
func (t *SymbolTable) Define(sym *Symbol) bool {
	key := strings.ToLower(sym.Name)
	if _, exists := t.symbols[key]; exists {
		return false
	}
	sym.Name = key
	t.symbols[key] = sym
	return true
}

// Resolve looks up name in this scope, then each enclosing scope in turn.
func (t *SymbolTable) Resolve(name string) (*Symbol, bool) {
	key := strings.ToLower(name)
	if sym, ok := t.symbols[key]; ok {
		return sym, true
	}
	if t.outer != nil {
		return t.outer.Resolve(key)
	}
	return nil, false
}

// Names returns every symbol name visible from this scope, including
// enclosing scopes, for use as "did you mean?" candidates.
func (t *SymbolTable) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for s := t; s != nil; s = s.outer {
		for name := range s.symbols {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// SymbolEnvironment binds each program-organization-unit (function,
// function block, program) to its own local SymbolTable, plus one shared
// global scope for VAR_GLOBAL declarations.
type SymbolEnvironment struct {
	Global *SymbolTable
	scopes map[string]*SymbolTable // keyed by lowercased POU name
}

// NewSymbolEnvironment returns an environment with an empty global scope.
func NewSymbolEnvironment() *SymbolEnvironment {
	return &SymbolEnvironment{
		Global: NewSymbolTable(),
		scopes: make(map[string]*SymbolTable),
	}
}

// DefineScope registers the local scope for a POU name, nested under the
// global scope so unqualified lookups fall back to globals.
func (e *SymbolEnvironment) DefineScope(pouName string) *SymbolTable {
	scope := NewEnclosedSymbolTable(e.Global)
	e.scopes[strings.ToLower(pouName)] = scope
	return scope
}

// Scope returns the local scope for a POU name, if one was defined.
func (e *SymbolEnvironment) Scope(pouName string) (*SymbolTable, bool) {
	scope, ok := e.scopes[strings.ToLower(pouName)]
	return scope, ok
}
