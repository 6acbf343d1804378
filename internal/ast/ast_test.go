package ast

import "testing"

func TestIdEqualIsCaseInsensitive(t *testing.T) {
	a := NewId("Motor_Speed")
	b := NewId("MOTOR_SPEED")
	if !a.Equal(b) {
		t.Fatalf("expected %q to equal %q modulo case", a.Name, b.Name)
	}
	if a.Lower() != "motor_speed" {
		t.Fatalf("Lower() = %q, want motor_speed", a.Lower())
	}
}

func TestTypeNameEqual(t *testing.T) {
	a := NewTypeName("INT", Span{})
	b := NewTypeName("int", Span{})
	c := NewTypeName("DINT", Span{})
	if !a.Equal(b) {
		t.Fatalf("expected INT to equal int")
	}
	if a.Equal(c) {
		t.Fatalf("expected INT to not equal DINT")
	}
}

func TestBuilderAssemblesProgram(t *testing.T) {
	lib := NewBuilder().
		Program("Main").
		Var("count", "INT").
		Body(&Assignment{
			Target: &Variable{Path: []Id{NewId("count")}},
			Value:  &IntegerLiteral{Value: 1},
		}).
		Done().
		Build()

	if len(lib.Programs) != 1 {
		t.Fatalf("expected 1 program, got %d", len(lib.Programs))
	}
	prog := lib.Programs[0]
	if prog.Name.Name != "Main" {
		t.Fatalf("program name = %q, want Main", prog.Name.Name)
	}
	if len(prog.VarBlocks) != 1 || len(prog.VarBlocks[0].Decls) != 1 {
		t.Fatalf("expected one VAR block with one decl")
	}
	if len(prog.Body) != 1 {
		t.Fatalf("expected one statement in body")
	}
}

func TestFlattenParametersOrdersByDeclaration(t *testing.T) {
	lib := NewBuilder().
		Function("Add", "INT").
		VarInput("a", "INT").
		VarInput("b", "INT").
		VarOutput("overflowed", "BOOL").
		Done().
		Build()

	params := lib.Functions[0].Parameters()
	if len(params) != 3 {
		t.Fatalf("expected 3 parameters, got %d", len(params))
	}
	if params[0].Name.Name != "a" || params[1].Name.Name != "b" || params[2].Name.Name != "overflowed" {
		t.Fatalf("unexpected parameter order: %+v", params)
	}
	if !params[2].IsOutput {
		t.Fatalf("expected third parameter to be an output")
	}
}
