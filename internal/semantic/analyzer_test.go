package semantic

import (
	"testing"

	"github.com/openplc-go/stvm/internal/ast"
	"github.com/openplc-go/stvm/internal/diag"
)

func pos(line, col int) ast.Span {
	p := ast.Position{Line: line, Column: col}
	return ast.Span{Start: p, End: p}
}

func buildSimpleProgram() *ast.Library {
	return ast.NewBuilder().
		Program("Main").
		Var("count", "INT").
		Body(&ast.Assignment{
			Target: &ast.Variable{Path: []ast.Id{ast.NewId("count")}},
			Value:  &ast.IntegerLiteral{Value: 1},
		}).
		Done().
		Build()
}

func TestAnalyzeAcceptsWellFormedProgram(t *testing.T) {
	lib := buildSimpleProgram()
	resolved, diags := Analyze("main.st", "", lib)
	if resolved == nil {
		t.Fatalf("expected successful analysis, got diagnostics: %v", diags)
	}
}

func TestAnalyzeReportsUndeclaredVariable(t *testing.T) {
	lib := ast.NewBuilder().Program("Main").Done().Build()
	lib.Programs[0].Body = []ast.Statement{
		&ast.Assignment{
			Target: &ast.Variable{Path: []ast.Id{ast.NewId("missing")}},
			Value:  &ast.LateBoundExpr{Name: ast.NewId("alsoMissing")},
		},
	}

	resolved, diags := Analyze("main.st", "", lib)
	if resolved != nil {
		t.Fatalf("expected analysis to fail")
	}
	if len(diags) == 0 {
		t.Fatalf("expected at least one diagnostic")
	}
}

func TestAnalyzeNoSourcesReportsDiagnostic(t *testing.T) {
	resolved, diags := Analyze("main.st", "")
	if resolved != nil {
		t.Fatalf("expected nil library for no sources")
	}
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d", len(diags))
	}
}

func TestToposortOrdersAliasAfterBase(t *testing.T) {
	lib := ast.NewBuilder().Build()
	lib.Declarations = []ast.Declaration{
		&ast.SimpleDeclaration{DataTypeName: ast.NewTypeName("Percent", ast.Span{}), BaseTypeName: ast.NewTypeName("INT", ast.Span{})},
	}
	ctx := NewContext("t.st", "")
	ordered := ToposortDeclarations(ctx, lib)
	if len(ordered) != 1 {
		t.Fatalf("expected 1 declaration, got %d", len(ordered))
	}
}

// TestToposortDeclarationsReportsCycle is property 2's failure branch: a
// cyclic declaration graph (two structures embedding each other by value)
// fails the sort and reports a cyclic-dependency diagnostic for every
// unorderable declaration, rather than silently returning a partial order.
func TestToposortDeclarationsReportsCycle(t *testing.T) {
	lib := ast.NewBuilder().Build()
	lib.Declarations = []ast.Declaration{
		&ast.StructureDeclaration{
			DataTypeName: ast.NewTypeName("A", ast.Span{}),
			Elements: []ast.StructureElementDeclaration{
				{Name: ast.NewId("b"), Init: ast.SimpleInitializer{Type: ast.NewTypeName("B", ast.Span{})}},
			},
		},
		&ast.StructureDeclaration{
			DataTypeName: ast.NewTypeName("B", ast.Span{}),
			Elements: []ast.StructureElementDeclaration{
				{Name: ast.NewId("a"), Init: ast.SimpleInitializer{Type: ast.NewTypeName("A", ast.Span{})}},
			},
		},
	}

	ctx := NewContext("t.st", "")
	ordered := ToposortDeclarations(ctx, lib)
	if len(ordered) != len(lib.Declarations) {
		t.Fatalf("expected the unordered input back, got %d declarations", len(ordered))
	}
	if len(ctx.Diagnostics) == 0 {
		t.Fatal("expected a cyclic-dependency diagnostic")
	}
	for _, d := range ctx.Diagnostics {
		if d.Problem != diag.ProblemCyclicDependency {
			t.Errorf("diagnostic problem = %v, want ProblemCyclicDependency", d.Problem)
		}
	}
}

// TestResolveDeclEnvironmentReportsDuplicateTypeName is scenario S8:
// declaring the same TYPE name twice emits exactly one
// ProblemDuplicateDeclaration diagnostic, anchored at the second
// declaration.
func TestResolveDeclEnvironmentReportsDuplicateTypeName(t *testing.T) {
	first := ast.NewTypeName("Level", pos(1, 1))
	second := ast.NewTypeName("Level", pos(2, 1))
	lib := ast.NewBuilder().Build()
	lib.Declarations = []ast.Declaration{
		&ast.EnumerationDeclaration{
			BaseNode:     ast.BaseNode{Span: pos(1, 1)},
			DataTypeName: first,
			Values:       []ast.Id{ast.NewId("CRITICAL")},
		},
		&ast.EnumerationDeclaration{
			BaseNode:     ast.BaseNode{Span: pos(2, 1)},
			DataTypeName: second,
			Values:       []ast.Id{ast.NewId("CRITICAL")},
		},
	}

	ctx := NewContext("t.st", "")
	ResolveDeclEnvironment(ctx, lib.Declarations)

	var dupes int
	for _, d := range ctx.Diagnostics {
		if d.Problem == diag.ProblemDuplicateDeclaration {
			dupes++
			if d.Span.Start.Line != 2 {
				t.Errorf("duplicate diagnostic anchored at line %d, want 2 (the second declaration)", d.Span.Start.Line)
			}
		}
	}
	if dupes != 1 {
		t.Fatalf("expected exactly one duplicate-declaration diagnostic, got %d", dupes)
	}
}

func TestRuleFunctionCallDeclaredRejectsUndeclaredFunction(t *testing.T) {
	lib := ast.NewBuilder().
		Program("Main").
		Body(&ast.Assignment{
			Target: &ast.Variable{Path: []ast.Id{ast.NewId("x")}},
			Value: &ast.FunctionCall{
				Name: ast.NewId("Frobnicate"),
				Args: []ast.FunctionCallArg{{Value: &ast.IntegerLiteral{Value: 1}}},
			},
		}).
		Done().
		Build()

	ctx := NewContext("t.st", "")
	ctx.Functions = BuildFunctionEnvironment(lib)
	RuleFunctionCallDeclared(ctx, lib)

	if len(ctx.Diagnostics) != 1 || ctx.Diagnostics[0].Problem != diag.ProblemUndeclaredSymbol {
		t.Fatalf("diagnostics = %v, want exactly one ProblemUndeclaredSymbol", ctx.Diagnostics)
	}
}

func TestRuleFunctionCallDeclaredRejectsWrongArgumentCount(t *testing.T) {
	lib := ast.NewBuilder().
		Function("Add", "INT").
		VarInput("a", "INT").
		VarInput("b", "INT").
		Done().
		Program("Main").
		Body(&ast.Assignment{
			Target: &ast.Variable{Path: []ast.Id{ast.NewId("x")}},
			Value: &ast.FunctionCall{
				Name: ast.NewId("Add"),
				Args: []ast.FunctionCallArg{{Value: &ast.IntegerLiteral{Value: 1}}},
			},
		}).
		Done().
		Build()

	ctx := NewContext("t.st", "")
	ctx.Functions = BuildFunctionEnvironment(lib)
	RuleFunctionCallDeclared(ctx, lib)

	var found bool
	for _, d := range ctx.Diagnostics {
		if d.Problem == diag.ProblemWrongNumberOfArguments {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a ProblemWrongNumberOfArguments", ctx.Diagnostics)
	}
}

func TestRuleFunctionCallDeclaredAcceptsCorrectCall(t *testing.T) {
	lib := ast.NewBuilder().
		Function("Add", "INT").
		VarInput("a", "INT").
		VarInput("b", "INT").
		Done().
		Program("Main").
		Body(&ast.Assignment{
			Target: &ast.Variable{Path: []ast.Id{ast.NewId("x")}},
			Value: &ast.FunctionCall{
				Name: ast.NewId("Add"),
				Args: []ast.FunctionCallArg{
					{Value: &ast.IntegerLiteral{Value: 1}},
					{Value: &ast.IntegerLiteral{Value: 2}},
				},
			},
		}).
		Done().
		Build()

	ctx := NewContext("t.st", "")
	ctx.Functions = BuildFunctionEnvironment(lib)
	RuleFunctionCallDeclared(ctx, lib)

	if len(ctx.Diagnostics) != 0 {
		t.Fatalf("expected no diagnostics for a well-formed call, got %v", ctx.Diagnostics)
	}
}

// buildFbInstanceProgram returns a library with one FUNCTION_BLOCK "Latch"
// (formal parameters Set, Reset) and one PROGRAM "Main" declaring a "L"
// instance of it, so tests only need to supply the FbCall under test.
func buildFbInstanceProgram(call *ast.FbCall) *ast.Library {
	lib := ast.NewBuilder().Build()
	lib.FunctionBlocks = []*ast.FunctionBlockDecl{
		{
			Name: ast.NewId("Latch"),
			VarBlocks: []ast.VarBlock{
				{Kind: ast.VarInput, Decls: []*ast.VarDecl{
					{Name: ast.NewId("Set"), Kind: ast.VarInput, Initializer: ast.SimpleInitializer{Type: ast.NewTypeName("BOOL", ast.Span{})}},
					{Name: ast.NewId("Reset"), Kind: ast.VarInput, Initializer: ast.SimpleInitializer{Type: ast.NewTypeName("BOOL", ast.Span{})}},
				}},
			},
		},
	}
	lib.Programs = []*ast.ProgramDecl{
		{
			Name: ast.NewId("Main"),
			VarBlocks: []ast.VarBlock{
				{Kind: ast.VarVar, Decls: []*ast.VarDecl{
					{Name: ast.NewId("L"), Kind: ast.VarVar, Initializer: ast.SimpleInitializer{Type: ast.NewTypeName("Latch", ast.Span{})}},
				}},
			},
			Body: []ast.Statement{call},
		},
	}
	return lib
}

func analyzeProgramScope(lib *ast.Library) *Context {
	ctx := NewContext("t.st", "")
	ResolveSymbolEnvironment(ctx, lib)
	return ctx
}

func TestRuleFunctionBlockInvocationRejectsMixedArguments(t *testing.T) {
	call := &ast.FbCall{
		Instance: ast.NewId("L"),
		Args: []ast.FunctionCallArg{
			{Value: &ast.BooleanLiteral{Value: true}},
			{Name: idPtr("Reset"), Value: &ast.BooleanLiteral{Value: false}},
		},
	}
	lib := buildFbInstanceProgram(call)
	ctx := analyzeProgramScope(lib)
	RuleFunctionBlockInvocation(ctx, lib)

	var found bool
	for _, d := range ctx.Diagnostics {
		if d.Problem == diag.ProblemMixedArgumentStyle {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a ProblemMixedArgumentStyle", ctx.Diagnostics)
	}
}

func TestRuleFunctionBlockInvocationRejectsUnknownNamedArgument(t *testing.T) {
	call := &ast.FbCall{
		Instance: ast.NewId("L"),
		Args: []ast.FunctionCallArg{
			{Name: idPtr("Enable"), Value: &ast.BooleanLiteral{Value: true}},
		},
	}
	lib := buildFbInstanceProgram(call)
	ctx := analyzeProgramScope(lib)
	RuleFunctionBlockInvocation(ctx, lib)

	var found bool
	for _, d := range ctx.Diagnostics {
		if d.Problem == diag.ProblemUnknownNamedArgument {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a ProblemUnknownNamedArgument", ctx.Diagnostics)
	}
}

func TestRuleFunctionBlockInvocationRejectsStdlibFunctionBlock(t *testing.T) {
	lib := ast.NewBuilder().Build()
	lib.Programs = []*ast.ProgramDecl{
		{
			Name: ast.NewId("Main"),
			VarBlocks: []ast.VarBlock{
				{Kind: ast.VarVar, Decls: []*ast.VarDecl{
					{Name: ast.NewId("T1"), Kind: ast.VarVar, Initializer: ast.SimpleInitializer{Type: ast.NewTypeName("TON", ast.Span{})}},
				}},
			},
			Body: []ast.Statement{
				&ast.FbCall{
					Instance: ast.NewId("T1"),
					Args:     []ast.FunctionCallArg{{Name: idPtr("IN"), Value: &ast.BooleanLiteral{Value: true}}},
				},
			},
		},
	}

	ctx := analyzeProgramScope(lib)
	RuleFunctionBlockInvocation(ctx, lib)

	var found bool
	for _, d := range ctx.Diagnostics {
		if d.Problem == diag.ProblemStdlibFunctionBlockUnsupported {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnostics = %v, want a ProblemStdlibFunctionBlockUnsupported", ctx.Diagnostics)
	}
}

func idPtr(name string) *ast.Id {
	id := ast.NewId(name)
	return &id
}

func TestRuleEnumerationValuesUniqueDetectsCrossEnumCollision(t *testing.T) {
	lib := ast.NewBuilder().Build()
	lib.Declarations = []ast.Declaration{
		&ast.EnumerationDeclaration{DataTypeName: ast.NewTypeName("Color", ast.Span{}), Values: []ast.Id{ast.NewId("RED"), ast.NewId("GREEN")}},
		&ast.EnumerationDeclaration{DataTypeName: ast.NewTypeName("Signal", ast.Span{}), Values: []ast.Id{ast.NewId("RED"), ast.NewId("YELLOW")}},
	}
	ctx := NewContext("t.st", "")
	RuleEnumerationValuesUnique(ctx, lib)
	if len(ctx.Diagnostics) == 0 {
		t.Fatalf("expected a diagnostic for the shared RED member")
	}
}
