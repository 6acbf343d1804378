// Package semantic implements the analysis pipeline that turns a parsed
// ast.Library into a fully resolved, rule-checked Library ready for
// bytecode compilation: type/symbol environment construction, topological
// ordering of declarations, late-bound node resolution, and a fixed battery
// of semantic rules.
package semantic

import (
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
)

// TypeClass categorizes a declared type the way the rules need to
// distinguish them — e.g. "is this base type an enumeration" or "is this a
// function block, which may never appear as a FUNCTION parameter type".
type TypeClass int

const (
	ClassElementary TypeClass = iota
	ClassSimple
	ClassEnumeration
	ClassSubrange
	ClassStructure
	ClassArray
	ClassString
	ClassFunctionBlock
)

func (c TypeClass) String() string {
	switch c {
	case ClassElementary:
		return "elementary"
	case ClassSimple:
		return "simple"
	case ClassEnumeration:
		return "enumeration"
	case ClassSubrange:
		return "subrange"
	case ClassStructure:
		return "structure"
	case ClassArray:
		return "array"
	case ClassString:
		return "string"
	case ClassFunctionBlock:
		return "function block"
	default:
		return "unknown"
	}
}

// TypeInfo is what the type environment knows about one declared or
// elementary type name.
type TypeInfo struct {
	Name  string // lowercased
	Class TypeClass

	// Base, for Simple/Subrange/Enumeration aliases: the type this one
	// resolves to for storage/codegen purposes.
	Base string

	// EnumValues, set when Class == ClassEnumeration: the ordered,
	// lowercased member names.
	EnumValues []string

	// Elements, set when Class == ClassStructure: field name (lowercased)
	// to declared TypeName.
	Elements map[string]ast.TypeName

	// ElementType/Dimensions, set when Class == ClassArray.
	ElementType string
	Dimensions  []ast.ArrayDimension

	// DeclSpan is the position of the declaration that defined this type,
	// zero for the pre-populated elementary types. Callers report a
	// duplicate TYPE name using this span to point at the original.
	DeclSpan ast.Span
}

// elementaryTypeNames is the fixed set of IEC 61131-3 elementary type
// keywords available in every type environment before any user TYPE block
// is processed.
var elementaryTypeNames = []string{
	"bool",
	"sint", "int", "dint", "lint",
	"usint", "uint", "udint", "ulint",
	"byte", "word", "dword", "lword",
	"real", "lreal",
	"time", "date", "time_of_day", "tod", "date_and_time", "dt",
	"string", "wstring",
	"char", "wchar",
}

// TypeEnvironment holds every type known to the analysis: the elementary
// types plus every user TYPE declaration, keyed by lowercased name so
// lookups are case-insensitive (spec.md §3: type names compare lowercased).
type TypeEnvironment struct {
	types map[string]*TypeInfo
}

// NewTypeEnvironment returns an environment pre-populated with the
// elementary types.
func NewTypeEnvironment() *TypeEnvironment {
	env := &TypeEnvironment{types: make(map[string]*TypeInfo)}
	for _, name := range elementaryTypeNames {
		env.types[name] = &TypeInfo{Name: name, Class: ClassElementary}
	}
	return env
}

// Lookup returns the TypeInfo for name (case-insensitive), or false if no
// such type is declared.
func (e *TypeEnvironment) Lookup(name string) (*TypeInfo, bool) {
	info, ok := e.types[strings.ToLower(name)]
	return info, ok
}

// Define registers a new TypeInfo, keyed by its lowercased Name. Returns
// false if a type with that name already exists (callers report
// ProblemDuplicateDeclaration in that case).
func (e *TypeEnvironment) Define(info *TypeInfo) bool {
	key := strings.ToLower(info.Name)
	if _, exists := e.types[key]; exists {
		return false
	}
	e.types[key] = info
	return true
}

// Names returns every declared type name (for "did you mean?" candidate
// lists), in the original insertion casing is not preserved here — callers
// needing original casing should consult the AST declaration instead.
func (e *TypeEnvironment) Names() []string {
	names := make([]string, 0, len(e.types))
	for name := range e.types {
		names = append(names, name)
	}
	return names
}

// ResolveEnumeration reports whether name resolves (through Base-chasing) to an
// enumeration, and returns the terminal enumeration TypeInfo.
func (e *TypeEnvironment) ResolveEnumeration(name string) (*TypeInfo, bool) {
	info, ok := e.Lookup(name)
	for ok && info.Class != ClassEnumeration && info.Base != "" {
		info, ok = e.Lookup(info.Base)
	}
	if !ok || info.Class != ClassEnumeration {
		return nil, false
	}
	return info, true
}

// ElementarySizeAndAlignment returns the storage size and alignment in
// bytes for an elementary type, following the layout table spec.md §4.6
// inherits from the container format's fixed-width value types. Returns
// (0, 0, false) for non-elementary/variable-width types (STRING/WSTRING),
// whose size is determined by their declared width instead.
func ElementarySizeAndAlignment(name string) (size, align int, ok bool) {
	switch strings.ToLower(name) {
	case "bool", "sint", "usint", "byte":
		return 1, 1, true
	case "int", "uint", "word":
		return 2, 2, true
	case "dint", "udint", "dword", "real":
		return 4, 4, true
	case "lint", "ulint", "lword", "lreal",
		"time", "date", "time_of_day", "tod", "date_and_time", "dt":
		return 8, 8, true
	default:
		return 0, 0, false
	}
}
