package ast

// VarKind classifies the declaration section a VarDecl came from.
type VarKind int

const (
	VarInput VarKind = iota
	VarOutput
	VarInOut
	VarVar
	VarTemp
	VarExternal
	VarGlobal
	VarAccess
)

func (k VarKind) String() string {
	switch k {
	case VarInput:
		return "VAR_INPUT"
	case VarOutput:
		return "VAR_OUTPUT"
	case VarInOut:
		return "VAR_IN_OUT"
	case VarVar:
		return "VAR"
	case VarTemp:
		return "VAR_TEMP"
	case VarExternal:
		return "VAR_EXTERNAL"
	case VarGlobal:
		return "VAR_GLOBAL"
	case VarAccess:
		return "VAR_ACCESS"
	default:
		return "VAR?"
	}
}

// Qualifier is the optional storage qualifier on a VarDecl.
type Qualifier int

const (
	QualifierUnspecified Qualifier = iota
	QualifierConstant
	QualifierRetain
	QualifierNonRetain
)

// VarDecl is a single declared variable within a VAR...END_VAR block.
type VarDecl struct {
	BaseNode
	Name        Id
	Kind        VarKind
	Qualifier   Qualifier
	Initializer InitialValueAssignmentKind
}

// DataType returns the declared type name of this variable, or the zero
// TypeName if the initializer does not carry one (e.g. unresolved LateBound).
func (v *VarDecl) DataType() (TypeName, bool) {
	return InitializerTypeName(v.Initializer)
}

func (v *VarDecl) statementNode() {}
func (v *VarDecl) String() string { return v.Kind.String() + " " + v.Name.Name }

// InitialValueAssignmentKind is the tagged union over how a variable's
// declared type and optional initial value were spelled in source.
//
// Exactly one concrete type below is ever assigned to this interface; the
// LateResolvedType variant is a parser-time placeholder (spec.md §4.2.2/4.2.3)
// rewritten by the resolution passes before semantic rules run.
type InitialValueAssignmentKind interface {
	initialValueKind()
}

// SimpleInitializer is `name : TYPE [:= expr]` for an elementary or simple-class type.
type SimpleInitializer struct {
	Type  TypeName
	Value Expression // nil if absent
}

func (SimpleInitializer) initialValueKind() {}

// StringInitializer is `name : STRING[(width)] [:= expr]`.
type StringInitializer struct {
	IsWide bool
	Width  Expression // nil means unspecified (default) width
	Value  Expression
}

func (StringInitializer) initialValueKind() {}

// SubrangeInitializer is `name : BaseType (lower..upper) [:= expr]`.
type SubrangeInitializer struct {
	BaseType TypeName
	Lower    Expression
	Upper    Expression
	Value    Expression
}

func (SubrangeInitializer) initialValueKind() {}

// EnumeratedValuesInitializer is an inline enumeration definition:
// `name : (A, B, C) [:= A]`.
type EnumeratedValuesInitializer struct {
	Values []Id
	Value  *EnumeratedValue
}

func (EnumeratedValuesInitializer) initialValueKind() {}

// EnumeratedTypeInitializer is `name : EnumTypeName [:= EnumTypeName#Value]`.
type EnumeratedTypeInitializer struct {
	Type  TypeName
	Value *EnumeratedValue
}

func (EnumeratedTypeInitializer) initialValueKind() {}

// FunctionBlockInitializer is `name : SomeFBType;` declaring an FB instance.
type FunctionBlockInitializer struct {
	Type TypeName
}

func (FunctionBlockInitializer) initialValueKind() {}

// StructureInitializer is `name : SomeStruct [:= (field := expr, ...)]`.
type StructureInitializer struct {
	Type     TypeName
	Elements map[string]Expression // keyed by lowercased element name
}

func (StructureInitializer) initialValueKind() {}

// ArrayDimension is one `[lower..upper]` bound of an array declaration.
type ArrayDimension struct {
	Lower Expression
	Upper Expression
}

// ArrayInitializer is `name : ARRAY[dims] OF ElemType [:= (elems)]`.
type ArrayInitializer struct {
	ElementType TypeName
	Dimensions  []ArrayDimension
	Elements    []Expression
}

func (ArrayInitializer) initialValueKind() {}

// LateResolvedType is a parser-emitted placeholder: the grammar cannot tell
// whether `name` is a fresh alias/enum redefinition or a reference to an
// already-declared type. Resolved by resolve_decl_env.go (spec.md §4.2.2).
type LateResolvedType struct {
	Name Id
	Span Span
}

func (LateResolvedType) initialValueKind() {}

// NoInitializer marks a declaration with no type/value information at all
// (used only transiently by AST construction helpers).
type NoInitializer struct{}

func (NoInitializer) initialValueKind() {}

// InitializerTypeName extracts the declared TypeName from a resolved
// initializer kind, if it carries one.
func InitializerTypeName(kind InitialValueAssignmentKind) (TypeName, bool) {
	switch k := kind.(type) {
	case SimpleInitializer:
		return k.Type, true
	case SubrangeInitializer:
		return k.BaseType, true
	case EnumeratedTypeInitializer:
		return k.Type, true
	case FunctionBlockInitializer:
		return k.Type, true
	case StructureInitializer:
		return k.Type, true
	case ArrayInitializer:
		return k.ElementType, true
	default:
		return TypeName{}, false
	}
}

// LateBoundDeclaration is the parser-time placeholder for a TYPE block entry
// that could be either a simple alias, an enumeration, or a structure
// initializer — the grammar cannot disambiguate until the type environment
// exists (spec.md §4.2.2).
type LateBoundDeclaration struct {
	BaseNode
	DataTypeName TypeName
	BaseTypeName TypeName
}

func (d *LateBoundDeclaration) declarationNode() {}
func (d *LateBoundDeclaration) String() string {
	return "TYPE " + d.DataTypeName.String() + " : " + d.BaseTypeName.String()
}

// SimpleDeclaration is a resolved alias to a Simple-class base type:
// `TYPE Alias : Base; END_TYPE`.
type SimpleDeclaration struct {
	BaseNode
	DataTypeName TypeName
	BaseTypeName TypeName
}

func (d *SimpleDeclaration) declarationNode() {}
func (d *SimpleDeclaration) String() string {
	return "TYPE " + d.DataTypeName.String() + " : " + d.BaseTypeName.String()
}

// EnumerationDeclaration is a resolved alias to an Enumeration-class base
// type, or a fresh enumeration with its own value list.
type EnumerationDeclaration struct {
	BaseNode
	DataTypeName TypeName
	BaseTypeName *TypeName // nil for a fresh (non-aliased) enumeration
	Values       []Id      // empty when BaseTypeName != nil (alias inherits values)
	DefaultValue *Id
}

func (d *EnumerationDeclaration) declarationNode() {}
func (d *EnumerationDeclaration) String() string { return "TYPE " + d.DataTypeName.String() }

// StructureInitializationDeclaration is a resolved alias whose base class is
// Structure: `TYPE Alias : SomeStruct; END_TYPE`.
type StructureInitializationDeclaration struct {
	BaseNode
	DataTypeName TypeName
	BaseTypeName TypeName
}

func (d *StructureInitializationDeclaration) declarationNode() {}
func (d *StructureInitializationDeclaration) String() string {
	return "TYPE " + d.DataTypeName.String() + " : " + d.BaseTypeName.String()
}

// StructureElementDeclaration is one `name : Type;` line inside a STRUCT body.
type StructureElementDeclaration struct {
	BaseNode
	Name Id
	Init InitialValueAssignmentKind
}

// StructureDeclaration is `TYPE Name : STRUCT elems END_STRUCT; END_TYPE`.
type StructureDeclaration struct {
	BaseNode
	DataTypeName TypeName
	Elements     []StructureElementDeclaration
}

func (d *StructureDeclaration) declarationNode() {}
func (d *StructureDeclaration) String() string { return "TYPE " + d.DataTypeName.String() + " : STRUCT" }

// ArrayDeclaration is `TYPE Name : ARRAY[dims] OF Elem; END_TYPE`.
type ArrayDeclaration struct {
	BaseNode
	DataTypeName TypeName
	ElementType  TypeName
	Dimensions   []ArrayDimension
}

func (d *ArrayDeclaration) declarationNode() {}
func (d *ArrayDeclaration) String() string { return "TYPE " + d.DataTypeName.String() + " : ARRAY" }

// Declaration is any top-level TYPE-block entry.
type Declaration interface {
	Node
	declarationNode()
}

// VarBlock is one VAR[_INPUT|_OUTPUT|...] ... END_VAR section within a POU.
type VarBlock struct {
	BaseNode
	Kind  VarKind
	Decls []*VarDecl
}

// Parameter describes one formal parameter of a function or function block,
// derived from a VarBlock of kind Input/Output/InOut.
type Parameter struct {
	Name      Id
	Type      TypeName
	IsInput   bool
	IsOutput  bool
	IsInOut   bool
}

// FunctionDecl is a FUNCTION ... END_FUNCTION declaration. Functions are
// pure: they may not reference function-block instances (spec.md §4.2.1).
type FunctionDecl struct {
	BaseNode
	Name       Id
	ReturnType *TypeName // nil for FUNCTION-as-procedure is not legal ST but kept optional for robustness
	VarBlocks  []VarBlock
	Body       []Statement
}

func (d *FunctionDecl) declarationNode() {}
func (d *FunctionDecl) String() string { return "FUNCTION " + d.Name.Name }

// Parameters flattens all Input/Output/InOut VarBlocks into Parameter list,
// preserving declaration order.
func (d *FunctionDecl) Parameters() []Parameter {
	return flattenParameters(d.VarBlocks)
}

// FunctionBlockDecl is a FUNCTION_BLOCK ... END_FUNCTION_BLOCK declaration.
type FunctionBlockDecl struct {
	BaseNode
	Name      Id
	VarBlocks []VarBlock
	Body      []Statement
}

func (d *FunctionBlockDecl) declarationNode() {}
func (d *FunctionBlockDecl) String() string { return "FUNCTION_BLOCK " + d.Name.Name }

func (d *FunctionBlockDecl) Parameters() []Parameter {
	return flattenParameters(d.VarBlocks)
}

// ProgramDecl is a PROGRAM ... END_PROGRAM declaration.
type ProgramDecl struct {
	BaseNode
	Name      Id
	VarBlocks []VarBlock
	Body      []Statement
}

func (d *ProgramDecl) declarationNode() {}
func (d *ProgramDecl) String() string { return "PROGRAM " + d.Name.Name }

// TaskConfig is one TASK declaration inside a CONFIGURATION.
type TaskConfig struct {
	Name       Id
	Interval   *Expression // nil for event/unspecified
	Priority   int
	Single     *Id // event variable name, nil unless event-driven
}

// ProgramInstance binds a declared PROGRAM to a task within a configuration.
type ProgramInstance struct {
	InstanceName Id
	ProgramName  TypeName
	TaskName     *Id // nil if not bound to a named task (uses default/freewheeling)
}

// ConfigurationDecl is a CONFIGURATION ... END_CONFIGURATION declaration,
// the deployment-side construct binding programs to tasks (spec.md GLOSSARY).
type ConfigurationDecl struct {
	BaseNode
	Name     Id
	Tasks    []TaskConfig
	Programs []ProgramInstance
	Globals  []VarBlock
}

func (d *ConfigurationDecl) declarationNode() {}
func (d *ConfigurationDecl) String() string { return "CONFIGURATION " + d.Name.Name }

func flattenParameters(blocks []VarBlock) []Parameter {
	var params []Parameter
	for _, b := range blocks {
		isIn := b.Kind == VarInput
		isOut := b.Kind == VarOutput
		isInOut := b.Kind == VarInOut
		if !isIn && !isOut && !isInOut {
			continue
		}
		for _, decl := range b.Decls {
			typeName, _ := decl.DataType()
			params = append(params, Parameter{
				Name:     decl.Name,
				Type:     typeName,
				IsInput:  isIn,
				IsOutput: isOut,
				IsInOut:  isInOut,
			})
		}
	}
	return params
}

// Library is the root of the AST: an ordered sequence of top-level elements
// (spec.md §3: "Library: ordered sequence of elements").
type Library struct {
	Declarations   []Declaration
	Functions      []*FunctionDecl
	FunctionBlocks []*FunctionBlockDecl
	Programs       []*ProgramDecl
	Configurations []*ConfigurationDecl
}

// NewLibrary returns an empty Library.
func NewLibrary() *Library { return &Library{} }

// Extend appends another library's elements onto this one and returns the
// receiver, mirroring the original's Library::extend used to merge
// multiple source files into one analysis unit (spec.md allows the driver
// to analyze a set of files as a single Library).
func (l *Library) Extend(other *Library) *Library {
	if other == nil {
		return l
	}
	l.Declarations = append(l.Declarations, other.Declarations...)
	l.Functions = append(l.Functions, other.Functions...)
	l.FunctionBlocks = append(l.FunctionBlocks, other.FunctionBlocks...)
	l.Programs = append(l.Programs, other.Programs...)
	l.Configurations = append(l.Configurations, other.Configurations...)
	return l
}
