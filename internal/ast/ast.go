// Package ast defines the Abstract Syntax Tree node types produced by an
// IEC 61131-3 Structured Text parser and consumed by the semantic analyzer
// and bytecode compiler in this repository.
//
// The lexer/parser front end is an external collaborator (see the parser
// interface contract documented alongside Library); this package defines
// only the tree shape that a conforming producer must build.
package ast

import (
	"fmt"
	"strings"
)

// Position is a single point in source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // 0-based byte offset
}

// Span is a half-open source range used for diagnostics.
type Span struct {
	Start Position
	End   Position
}

// String renders a span as "line:col" using its start position.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
}

// BaseNode is embedded by every concrete node to supply Pos() for free,
// mirroring the teacher's pattern of embedding a lexer.Token in every node.
type BaseNode struct {
	Span Span
}

// Pos returns the node's source span.
func (b BaseNode) Pos() Span { return b.Span }

// Node is the base interface for every AST node.
type Node interface {
	// Pos returns the position of the node in source for error reporting.
	Pos() Span
	// String returns a debug representation; not used for code generation.
	String() string
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that performs an action without itself producing a value.
type Statement interface {
	Node
	statementNode()
}

// Id is a case-insensitive identifier. Name preserves the original source
// casing for diagnostics; comparisons and map keys use Lower().
type Id struct {
	Name string
}

// NewId builds an Id from source text.
func NewId(name string) Id { return Id{Name: name} }

// Lower returns the canonical lowercased form used for lookups and equality.
func (i Id) Lower() string { return strings.ToLower(i.Name) }

// Equal reports whether two identifiers are the same modulo case.
func (i Id) Equal(o Id) bool { return i.Lower() == o.Lower() }

// String returns the identifier's original-case text.
func (i Id) String() string { return i.Name }

// IsZero reports whether this is the zero Id (unset).
func (i Id) IsZero() bool { return i.Name == "" }

// TypeName wraps an identifier referring to a declared or elementary type,
// together with the span of the reference (not the declaration).
type TypeName struct {
	Id   Id
	Span Span
}

// NewTypeName builds a TypeName at the given span.
func NewTypeName(name string, span Span) TypeName {
	return TypeName{Id: NewId(name), Span: span}
}

// Equal reports whether two type names refer to the same type, i.e. their
// lowercased identifiers match (spec.md §3: "Two type names are equal iff
// their lowercased identifiers match").
func (t TypeName) Equal(o TypeName) bool { return t.Id.Equal(o.Id) }

func (t TypeName) String() string { return t.Id.Name }

// Identifier is a reference-position use of a name (as opposed to TypeName,
// which specifically denotes a type reference).
type Identifier struct {
	BaseNode
	Name Id
}

func (i *Identifier) expressionNode() {}
func (i *Identifier) String() string  { return i.Name.Name }
