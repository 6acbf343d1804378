package semantic

import (
	"github.com/openplc-go/stvm/internal/ast"
)

// ResolveLateBoundExpr walks every POU body, rewriting each
// *ast.LateBoundExpr (the parser's placeholder for a bare identifier that
// could be either a variable reference or an enumeration member — spec.md
// §4.2.3) into a concrete *ast.Variable or *ast.EnumeratedValue once the
// symbol and type environments can tell them apart. A name that resolves
// to neither is left as-is; rule_use_declared_symbolic_var reports it.
func ResolveLateBoundExpr(ctx *Context, lib *ast.Library) {
	for _, fn := range lib.Functions {
		scope, _ := ctx.Symbols.Scope(fn.Name.Name)
		fn.Body = transformStmts(ctx, scope, fn.Body)
	}
	for _, fb := range lib.FunctionBlocks {
		scope, _ := ctx.Symbols.Scope(fb.Name.Name)
		fb.Body = transformStmts(ctx, scope, fb.Body)
	}
	for _, prog := range lib.Programs {
		scope, _ := ctx.Symbols.Scope(prog.Name.Name)
		prog.Body = transformStmts(ctx, scope, prog.Body)
	}
}

func transformStmts(ctx *Context, scope *SymbolTable, stmts []ast.Statement) []ast.Statement {
	out := make([]ast.Statement, len(stmts))
	for i, s := range stmts {
		out[i] = transformStmt(ctx, scope, s)
	}
	return out
}

func transformStmt(ctx *Context, scope *SymbolTable, s ast.Statement) ast.Statement {
	switch st := s.(type) {
	case *ast.Assignment:
		st.Target = transformExpr(ctx, scope, st.Target)
		st.Value = transformExpr(ctx, scope, st.Value)
		return st
	case *ast.FbCall:
		for i := range st.Args {
			st.Args[i].Value = transformExpr(ctx, scope, st.Args[i].Value)
		}
		return st
	case *ast.If:
		st.Condition = transformExpr(ctx, scope, st.Condition)
		st.Body = transformStmts(ctx, scope, st.Body)
		for i := range st.ElseIfs {
			st.ElseIfs[i].Condition = transformExpr(ctx, scope, st.ElseIfs[i].Condition)
			st.ElseIfs[i].Body = transformStmts(ctx, scope, st.ElseIfs[i].Body)
		}
		st.Else = transformStmts(ctx, scope, st.Else)
		return st
	case *ast.Case:
		st.Selector = transformExpr(ctx, scope, st.Selector)
		for i := range st.Arms {
			for j := range st.Arms[i].Values {
				if st.Arms[i].Values[j].Single != nil {
					st.Arms[i].Values[j].Single = transformExpr(ctx, scope, st.Arms[i].Values[j].Single)
				}
				if st.Arms[i].Values[j].Lower != nil {
					st.Arms[i].Values[j].Lower = transformExpr(ctx, scope, st.Arms[i].Values[j].Lower)
					st.Arms[i].Values[j].Upper = transformExpr(ctx, scope, st.Arms[i].Values[j].Upper)
				}
			}
			st.Arms[i].Body = transformStmts(ctx, scope, st.Arms[i].Body)
		}
		st.Else = transformStmts(ctx, scope, st.Else)
		return st
	case *ast.For:
		st.Start = transformExpr(ctx, scope, st.Start)
		st.End = transformExpr(ctx, scope, st.End)
		if st.Step != nil {
			st.Step = transformExpr(ctx, scope, st.Step)
		}
		st.Body = transformStmts(ctx, scope, st.Body)
		return st
	case *ast.While:
		st.Condition = transformExpr(ctx, scope, st.Condition)
		st.Body = transformStmts(ctx, scope, st.Body)
		return st
	case *ast.Repeat:
		st.Body = transformStmts(ctx, scope, st.Body)
		st.Condition = transformExpr(ctx, scope, st.Condition)
		return st
	default:
		return s
	}
}

func transformExpr(ctx *Context, scope *SymbolTable, e ast.Expression) ast.Expression {
	switch ex := e.(type) {
	case *ast.LateBoundExpr:
		return resolveLateBoundExpr(ctx, scope, ex)
	case *ast.Compare:
		ex.Left = transformExpr(ctx, scope, ex.Left)
		ex.Right = transformExpr(ctx, scope, ex.Right)
		return ex
	case *ast.BinaryOp:
		ex.Left = transformExpr(ctx, scope, ex.Left)
		ex.Right = transformExpr(ctx, scope, ex.Right)
		return ex
	case *ast.UnaryOp:
		ex.Operand = transformExpr(ctx, scope, ex.Operand)
		return ex
	case *ast.GroupExpression:
		ex.Inner = transformExpr(ctx, scope, ex.Inner)
		return ex
	case *ast.FunctionCall:
		for i := range ex.Args {
			ex.Args[i].Value = transformExpr(ctx, scope, ex.Args[i].Value)
		}
		return ex
	case *ast.IndexExpression:
		ex.Base = transformExpr(ctx, scope, ex.Base)
		for i := range ex.Indices {
			ex.Indices[i] = transformExpr(ctx, scope, ex.Indices[i])
		}
		return ex
	default:
		return e
	}
}

// resolveLateBoundExpr decides whether a bare name is a variable or an
// enumeration member: if it resolves in the current symbol scope, it is a
// Variable; otherwise, if it is the member of exactly one declared
// enumeration, it is that EnumeratedValue. An unresolvable name is left
// as the LateBoundExpr placeholder so rule_use_declared_symbolic_var can
// report it with a "did you mean?" suggestion drawn from both namespaces.
func resolveLateBoundExpr(ctx *Context, scope *SymbolTable, ex *ast.LateBoundExpr) ast.Expression {
	if scope != nil {
		if _, ok := scope.Resolve(ex.Name.Lower()); ok {
			return &ast.Variable{BaseNode: ex.BaseNode, Path: []ast.Id{ex.Name}}
		}
	}

	if enumTypeName, ok := findEnumeratedValue(ctx, ex.Name.Lower()); ok {
		tn := ast.NewTypeName(enumTypeName, ast.Span{})
		return &ast.EnumeratedValue{BaseNode: ex.BaseNode, TypeName: &tn, Value: ex.Name}
	}

	return ex
}

// findEnumeratedValue scans every declared enumeration type for a member
// matching name, returning the owning type's name if exactly one type
// declares it.
func findEnumeratedValue(ctx *Context, name string) (string, bool) {
	match := ""
	found := false
	for _, typeName := range ctx.Types.Names() {
		info, ok := ctx.Types.Lookup(typeName)
		if !ok || info.Class != ClassEnumeration {
			continue
		}
		for _, v := range info.EnumValues {
			if v == name {
				if found && match != info.Name {
					return "", false // ambiguous across two enumerations
				}
				match = info.Name
				found = true
			}
		}
	}
	return match, found
}
