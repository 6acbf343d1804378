package ast

import "strconv"

// IntegerLiteral is an untyped integer constant; the semantic analyzer
// assigns it a concrete elementary type based on context and magnitude.
type IntegerLiteral struct {
	BaseNode
	Value int64
}

func (l *IntegerLiteral) expressionNode() {}
func (l *IntegerLiteral) String() string  { return strconv.FormatInt(l.Value, 10) }

// RealLiteral is a floating-point constant (REAL or LREAL, context-dependent).
type RealLiteral struct {
	BaseNode
	Value float64
}

func (l *RealLiteral) expressionNode() {}
func (l *RealLiteral) String() string  { return strconv.FormatFloat(l.Value, 'g', -1, 64) }

// BooleanLiteral is TRUE or FALSE.
type BooleanLiteral struct {
	BaseNode
	Value bool
}

func (l *BooleanLiteral) expressionNode() {}
func (l *BooleanLiteral) String() string {
	if l.Value {
		return "TRUE"
	}
	return "FALSE"
}

// StringLiteral is a single- or double-quoted string constant.
type StringLiteral struct {
	BaseNode
	Value  string
	IsWide bool // WSTRING ('...') vs STRING ("...")
}

func (l *StringLiteral) expressionNode() {}
func (l *StringLiteral) String() string  { return l.Value }

// DurationLiteral is a T#... time-duration constant, stored in microseconds
// to match the VM's time representation (spec.md GLOSSARY: Microseconds).
type DurationLiteral struct {
	BaseNode
	Microseconds int64
}

func (l *DurationLiteral) expressionNode() {}
func (l *DurationLiteral) String() string {
	return "T#" + strconv.FormatInt(l.Microseconds, 10) + "us"
}

// EnumeratedValue is a reference to one member of an enumeration, optionally
// qualified by its type name (e.g. Color#Red vs bare Red).
type EnumeratedValue struct {
	BaseNode
	TypeName *TypeName // nil when unqualified
	Value    Id
}

func (e *EnumeratedValue) expressionNode() {}
func (e *EnumeratedValue) String() string {
	if e.TypeName != nil {
		return e.TypeName.String() + "#" + e.Value.Name
	}
	return e.Value.Name
}
