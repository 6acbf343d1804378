package semantic

import "github.com/openplc-go/stvm/internal/ast"

// walkStatements invokes visit on every statement in stmts, recursing into
// nested bodies (IF/CASE/FOR/WHILE/REPEAT), in source order.
func walkStatements(stmts []ast.Statement, visit func(ast.Statement)) {
	for _, s := range stmts {
		visit(s)
		switch st := s.(type) {
		case *ast.If:
			walkStatements(st.Body, visit)
			for _, ei := range st.ElseIfs {
				walkStatements(ei.Body, visit)
			}
			walkStatements(st.Else, visit)
		case *ast.Case:
			for _, arm := range st.Arms {
				walkStatements(arm.Body, visit)
			}
			walkStatements(st.Else, visit)
		case *ast.For:
			walkStatements(st.Body, visit)
		case *ast.While:
			walkStatements(st.Body, visit)
		case *ast.Repeat:
			walkStatements(st.Body, visit)
		}
	}
}

// statementExpressions returns the immediate (non-recursive) expression
// children of a single statement.
func statementExpressions(s ast.Statement) []ast.Expression {
	switch st := s.(type) {
	case *ast.Assignment:
		return []ast.Expression{st.Target, st.Value}
	case *ast.FbCall:
		exprs := make([]ast.Expression, 0, len(st.Args))
		for _, a := range st.Args {
			exprs = append(exprs, a.Value)
		}
		return exprs
	case *ast.If:
		return []ast.Expression{st.Condition}
	case *ast.Case:
		return []ast.Expression{st.Selector}
	case *ast.For:
		exprs := []ast.Expression{st.Start, st.End}
		if st.Step != nil {
			exprs = append(exprs, st.Step)
		}
		return exprs
	case *ast.While:
		return []ast.Expression{st.Condition}
	case *ast.Repeat:
		return []ast.Expression{st.Condition}
	default:
		return nil
	}
}

// walkExpressionsInStatements invokes visit on every expression node
// reachable from stmts, including nested subexpressions and nested
// statement bodies.
func walkExpressionsInStatements(stmts []ast.Statement, visit func(ast.Expression)) {
	walkStatements(stmts, func(s ast.Statement) {
		for _, e := range statementExpressions(s) {
			walkExpression(e, visit)
		}
	})
}

// walkExpression invokes visit on e and every subexpression it contains.
func walkExpression(e ast.Expression, visit func(ast.Expression)) {
	if e == nil {
		return
	}
	visit(e)
	switch ex := e.(type) {
	case *ast.Compare:
		walkExpression(ex.Left, visit)
		walkExpression(ex.Right, visit)
	case *ast.BinaryOp:
		walkExpression(ex.Left, visit)
		walkExpression(ex.Right, visit)
	case *ast.UnaryOp:
		walkExpression(ex.Operand, visit)
	case *ast.GroupExpression:
		walkExpression(ex.Inner, visit)
	case *ast.FunctionCall:
		for _, a := range ex.Args {
			walkExpression(a.Value, visit)
		}
	case *ast.IndexExpression:
		walkExpression(ex.Base, visit)
		for _, idx := range ex.Indices {
			walkExpression(idx, visit)
		}
	}
}
