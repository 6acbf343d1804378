package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openplc-go/stvm/internal/ast"
)

// libraryFixture is a JSON-encoded stand-in for a parser's AST output
// (spec.md §6.2 defines the contract a real parser must satisfy; this
// module implements no lexer/parser, so fixtures in this small JSON
// shape are how a compiled container gets built from the command line).
// Only PROGRAM declarations with a flat VAR block and a small statement
// DSL are supported — enough to exercise the compiler and VM end to end,
// not a general AST interchange format.
type libraryFixture struct {
	Programs      []programFixture      `json:"programs"`
	Configuration *configurationFixture `json:"configuration,omitempty"`
}

// configurationFixture describes a CONFIGURATION binding programs to
// tasks. Omitting it entirely compiles a container whose task table the
// builder fills with one default freewheeling task running the first
// compiled program.
type configurationFixture struct {
	Name     string               `json:"name"`
	Tasks    []taskFixture        `json:"tasks"`
	Programs []instanceFixture    `json:"programs"`
}

type taskFixture struct {
	Name       string `json:"name"`
	Priority   int    `json:"priority"`
	IntervalUs int64  `json:"intervalUs,omitempty"` // 0 with no IntervalUs means freewheeling
}

type instanceFixture struct {
	InstanceName string `json:"instanceName"`
	ProgramName  string `json:"programName"`
	TaskName     string `json:"taskName,omitempty"`
}

type programFixture struct {
	Name string       `json:"name"`
	Vars []varFixture `json:"vars"`
	Body []stmtFixture `json:"body"`
}

type varFixture struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type stmtFixture struct {
	Kind   string        `json:"kind"` // assign, if, while, for, exit
	Target string        `json:"target,omitempty"`
	Expr   *exprFixture  `json:"expr,omitempty"`
	Cond   *exprFixture  `json:"cond,omitempty"`
	Then   []stmtFixture `json:"then,omitempty"`
	Else   []stmtFixture `json:"else,omitempty"`
	Body   []stmtFixture `json:"body,omitempty"`
	Var    string        `json:"var,omitempty"`
	Start  *exprFixture  `json:"start,omitempty"`
	End    *exprFixture  `json:"end,omitempty"`
}

type exprFixture struct {
	Var   string       `json:"var,omitempty"`
	Int   *int64       `json:"int,omitempty"`
	Bool  *bool        `json:"bool,omitempty"`
	Op    string       `json:"op,omitempty"`
	Left  *exprFixture `json:"left,omitempty"`
	Right *exprFixture `json:"right,omitempty"`
}

// loadLibraryFixture reads and converts a JSON AST fixture file into a
// Library ready for semantic analysis and compilation.
func loadLibraryFixture(path string) (*ast.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}
	var fx libraryFixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	lib := ast.NewLibrary()
	for _, pf := range fx.Programs {
		prog, err := convertProgram(pf)
		if err != nil {
			return nil, fmt.Errorf("program %q: %w", pf.Name, err)
		}
		lib.Programs = append(lib.Programs, prog)
	}
	if fx.Configuration != nil {
		lib.Configurations = append(lib.Configurations, convertConfiguration(*fx.Configuration))
	}
	return lib, nil
}

func convertConfiguration(cf configurationFixture) *ast.ConfigurationDecl {
	tasks := make([]ast.TaskConfig, len(cf.Tasks))
	for i, tf := range cf.Tasks {
		tasks[i] = ast.TaskConfig{Name: ast.NewId(tf.Name), Priority: tf.Priority}
		if tf.IntervalUs > 0 {
			var interval ast.Expression = &ast.DurationLiteral{Microseconds: tf.IntervalUs}
			tasks[i].Interval = &interval
		}
	}
	programs := make([]ast.ProgramInstance, len(cf.Programs))
	for i, pf := range cf.Programs {
		programs[i] = ast.ProgramInstance{
			InstanceName: ast.NewId(pf.InstanceName),
			ProgramName:  ast.NewTypeName(pf.ProgramName, ast.Span{}),
		}
		if pf.TaskName != "" {
			taskName := ast.NewId(pf.TaskName)
			programs[i].TaskName = &taskName
		}
	}
	return &ast.ConfigurationDecl{
		Name:     ast.NewId(cf.Name),
		Tasks:    tasks,
		Programs: programs,
	}
}

func convertProgram(pf programFixture) (*ast.ProgramDecl, error) {
	decls := make([]*ast.VarDecl, len(pf.Vars))
	for i, v := range pf.Vars {
		decls[i] = &ast.VarDecl{
			Name:        ast.NewId(v.Name),
			Kind:        ast.VarVar,
			Initializer: ast.SimpleInitializer{Type: ast.NewTypeName(v.Type, ast.Span{})},
		}
	}
	body, err := convertStmts(pf.Body)
	if err != nil {
		return nil, err
	}
	return &ast.ProgramDecl{
		Name:      ast.NewId(pf.Name),
		VarBlocks: []ast.VarBlock{{Kind: ast.VarVar, Decls: decls}},
		Body:      body,
	}, nil
}

func convertStmts(stmts []stmtFixture) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(stmts))
	for _, sf := range stmts {
		stmt, err := convertStmt(sf)
		if err != nil {
			return nil, err
		}
		out = append(out, stmt)
	}
	return out, nil
}

func convertStmt(sf stmtFixture) (ast.Statement, error) {
	switch sf.Kind {
	case "assign":
		value, err := convertExpr(sf.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.Assignment{
			Target: &ast.Variable{Path: []ast.Id{ast.NewId(sf.Target)}},
			Value:  value,
		}, nil
	case "if":
		cond, err := convertExpr(sf.Cond)
		if err != nil {
			return nil, err
		}
		then, err := convertStmts(sf.Then)
		if err != nil {
			return nil, err
		}
		var elseBody []ast.Statement
		if len(sf.Else) > 0 {
			elseBody, err = convertStmts(sf.Else)
			if err != nil {
				return nil, err
			}
		}
		return &ast.If{Condition: cond, Body: then, Else: elseBody}, nil
	case "while":
		cond, err := convertExpr(sf.Cond)
		if err != nil {
			return nil, err
		}
		body, err := convertStmts(sf.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Condition: cond, Body: body}, nil
	case "for":
		start, err := convertExpr(sf.Start)
		if err != nil {
			return nil, err
		}
		end, err := convertExpr(sf.End)
		if err != nil {
			return nil, err
		}
		body, err := convertStmts(sf.Body)
		if err != nil {
			return nil, err
		}
		return &ast.For{Variable: ast.NewId(sf.Var), Start: start, End: end, Body: body}, nil
	case "exit":
		return &ast.Exit{}, nil
	default:
		return nil, fmt.Errorf("fixture: unknown statement kind %q", sf.Kind)
	}
}

var arithOps = map[string]ast.ArithOp{
	"+": ast.ArithAdd, "-": ast.ArithSub, "*": ast.ArithMul, "/": ast.ArithDiv,
	"MOD": ast.ArithMod, "**": ast.ArithPow, "AND": ast.ArithAnd, "OR": ast.ArithOr, "XOR": ast.ArithXor,
}

var compareOps = map[string]ast.CompareOp{
	"=": ast.CompareEq, "<>": ast.CompareNe, "<": ast.CompareLt,
	">": ast.CompareGt, "<=": ast.CompareLe, ">=": ast.CompareGe,
}

func convertExpr(ef *exprFixture) (ast.Expression, error) {
	if ef == nil {
		return nil, fmt.Errorf("fixture: missing expression")
	}
	switch {
	case ef.Var != "":
		return &ast.Variable{Path: []ast.Id{ast.NewId(ef.Var)}}, nil
	case ef.Int != nil:
		return &ast.IntegerLiteral{Value: *ef.Int}, nil
	case ef.Bool != nil:
		return &ast.BooleanLiteral{Value: *ef.Bool}, nil
	case ef.Op != "":
		left, err := convertExpr(ef.Left)
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(ef.Right)
		if err != nil {
			return nil, err
		}
		if op, ok := compareOps[ef.Op]; ok {
			return &ast.Compare{Op: op, Left: left, Right: right}, nil
		}
		if op, ok := arithOps[ef.Op]; ok {
			return &ast.BinaryOp{Op: op, Left: left, Right: right}, nil
		}
		return nil, fmt.Errorf("fixture: unknown operator %q", ef.Op)
	default:
		return nil, fmt.Errorf("fixture: empty expression")
	}
}
