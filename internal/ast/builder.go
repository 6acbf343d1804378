package ast

// Builder provides a fluent construction API for assembling a Library
// programmatically — used by tests and by any front end that wants to
// build the tree without hand-nesting struct literals (spec.md §6.2 defines
// this as the contract a conforming parser must satisfy).
type Builder struct {
	lib *Library
}

// NewBuilder starts an empty library under construction.
func NewBuilder() *Builder {
	return &Builder{lib: NewLibrary()}
}

// Build returns the assembled library.
func (b *Builder) Build() *Library { return b.lib }

// Simple registers a TYPE alias to a Simple-class base type.
func (b *Builder) Simple(name, base string) *Builder {
	b.lib.Declarations = append(b.lib.Declarations, &SimpleDeclaration{
		DataTypeName: NewTypeName(name, Span{}),
		BaseTypeName: NewTypeName(base, Span{}),
	})
	return b
}

// Enum registers a fresh enumeration type with the given ordered values.
func (b *Builder) Enum(name string, values ...string) *Builder {
	ids := make([]Id, len(values))
	for i, v := range values {
		ids[i] = NewId(v)
	}
	b.lib.Declarations = append(b.lib.Declarations, &EnumerationDeclaration{
		DataTypeName: NewTypeName(name, Span{}),
		Values:       ids,
	})
	return b
}

// Struct registers a STRUCT type built from (name, typeName) field pairs.
func (b *Builder) Struct(name string, fields ...[2]string) *Builder {
	elems := make([]StructureElementDeclaration, len(fields))
	for i, f := range fields {
		elems[i] = StructureElementDeclaration{
			Name: NewId(f[0]),
			Init: SimpleInitializer{Type: NewTypeName(f[1], Span{})},
		}
	}
	b.lib.Declarations = append(b.lib.Declarations, &StructureDeclaration{
		DataTypeName: NewTypeName(name, Span{}),
		Elements:     elems,
	})
	return b
}

// FunctionBuilder incrementally assembles a FUNCTION declaration.
type FunctionBuilder struct {
	parent *Builder
	decl   *FunctionDecl
}

// Function starts a new FUNCTION declaration with the given return type.
func (b *Builder) Function(name, returnType string) *FunctionBuilder {
	rt := NewTypeName(returnType, Span{})
	return &FunctionBuilder{
		parent: b,
		decl:   &FunctionDecl{Name: NewId(name), ReturnType: &rt},
	}
}

// VarInput adds an input parameter.
func (fb *FunctionBuilder) VarInput(name, typeName string) *FunctionBuilder {
	return fb.addVar(VarInput, name, typeName)
}

// VarOutput adds an output parameter.
func (fb *FunctionBuilder) VarOutput(name, typeName string) *FunctionBuilder {
	return fb.addVar(VarOutput, name, typeName)
}

// Var adds a local variable.
func (fb *FunctionBuilder) Var(name, typeName string) *FunctionBuilder {
	return fb.addVar(VarVar, name, typeName)
}

func (fb *FunctionBuilder) addVar(kind VarKind, name, typeName string) *FunctionBuilder {
	decl := &VarDecl{
		Name: NewId(name),
		Kind: kind,
		Initializer: SimpleInitializer{
			Type: NewTypeName(typeName, Span{}),
		},
	}
	for i := range fb.decl.VarBlocks {
		if fb.decl.VarBlocks[i].Kind == kind {
			fb.decl.VarBlocks[i].Decls = append(fb.decl.VarBlocks[i].Decls, decl)
			return fb
		}
	}
	fb.decl.VarBlocks = append(fb.decl.VarBlocks, VarBlock{Kind: kind, Decls: []*VarDecl{decl}})
	return fb
}

// Body sets the function's statement list.
func (fb *FunctionBuilder) Body(stmts ...Statement) *FunctionBuilder {
	fb.decl.Body = stmts
	return fb
}

// Done finishes this function and returns to the parent library builder.
func (fb *FunctionBuilder) Done() *Builder {
	fb.parent.lib.Functions = append(fb.parent.lib.Functions, fb.decl)
	return fb.parent
}

// ProgramBuilder incrementally assembles a PROGRAM declaration.
type ProgramBuilder struct {
	parent *Builder
	decl   *ProgramDecl
}

// Program starts a new PROGRAM declaration.
func (b *Builder) Program(name string) *ProgramBuilder {
	return &ProgramBuilder{parent: b, decl: &ProgramDecl{Name: NewId(name)}}
}

// Var adds a local variable to the program.
func (pb *ProgramBuilder) Var(name, typeName string) *ProgramBuilder {
	decl := &VarDecl{
		Name:        NewId(name),
		Kind:        VarVar,
		Initializer: SimpleInitializer{Type: NewTypeName(typeName, Span{})},
	}
	for i := range pb.decl.VarBlocks {
		if pb.decl.VarBlocks[i].Kind == VarVar {
			pb.decl.VarBlocks[i].Decls = append(pb.decl.VarBlocks[i].Decls, decl)
			return pb
		}
	}
	pb.decl.VarBlocks = append(pb.decl.VarBlocks, VarBlock{Kind: VarVar, Decls: []*VarDecl{decl}})
	return pb
}

// Body sets the program's statement list.
func (pb *ProgramBuilder) Body(stmts ...Statement) *ProgramBuilder {
	pb.decl.Body = stmts
	return pb
}

// Done finishes this program and returns to the parent library builder.
func (pb *ProgramBuilder) Done() *Builder {
	pb.parent.lib.Programs = append(pb.parent.lib.Programs, pb.decl)
	return pb.parent
}
