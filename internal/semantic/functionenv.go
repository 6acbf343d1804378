package semantic

import (
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
)

// FunctionParameter is one formal parameter of a declared function, as
// recorded in a FunctionSignature.
type FunctionParameter struct {
	Name     string
	Type     ast.TypeName
	IsInput  bool
	IsOutput bool
	IsInOut  bool
}

// FunctionSignature is what the function environment knows about one
// declared FUNCTION: its name, optional return type, and formal parameter
// list, ported from
// original_source/compiler/analyzer/src/function_environment.rs's
// FunctionSignature.
type FunctionSignature struct {
	Name       string
	ReturnType *ast.TypeName
	Parameters []FunctionParameter
	IsStdlib   bool
}

// InputParameterCount is the number of formal parameters a caller must
// supply, positionally or by name (VAR_INPUT and VAR_IN_OUT; VAR_OUTPUT
// is never passed in, per spec.md §4.3's function_call_declared row).
func (s *FunctionSignature) InputParameterCount() int {
	n := 0
	for _, p := range s.Parameters {
		if p.IsInput || p.IsInOut {
			n++
		}
	}
	return n
}

// ParameterNames returns every formal parameter's lowercased name, in
// declaration order, for named-argument validation.
func (s *FunctionSignature) ParameterNames() []string {
	names := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		names[i] = strings.ToLower(p.Name)
	}
	return names
}

// FunctionEnvironment is the library-wide table of declared function
// signatures (spec.md §3 "Function environment"), keyed case-insensitively
// as every IEC 61131-3 identifier compares.
type FunctionEnvironment struct {
	table map[string]*FunctionSignature
}

// NewFunctionEnvironment returns an empty function environment.
func NewFunctionEnvironment() *FunctionEnvironment {
	return &FunctionEnvironment{table: make(map[string]*FunctionSignature)}
}

// Define registers sig, keyed by its lowercased name. A later Define for
// the same name overwrites the earlier one. A duplicate FUNCTION name is
// not reported, here or by any rule: the last declaration wins.
func (e *FunctionEnvironment) Define(sig *FunctionSignature) {
	e.table[strings.ToLower(sig.Name)] = sig
}

// Lookup returns the signature declared for name, case-insensitively.
func (e *FunctionEnvironment) Lookup(name string) (*FunctionSignature, bool) {
	sig, ok := e.table[strings.ToLower(name)]
	return sig, ok
}

// Contains reports whether name is a declared function.
func (e *FunctionEnvironment) Contains(name string) bool {
	_, ok := e.table[strings.ToLower(name)]
	return ok
}

// Len returns the number of declared signatures, including stdlib ones.
func (e *FunctionEnvironment) Len() int {
	return len(e.table)
}

// stdlibFunctionSignatures returns the signatures of the functions the
// container's opcode set lowers directly as a BUILTIN (spec.md §6.1's
// BuiltinExptI32) rather than through a compiled body: EXPT(IN1, IN2 :
// DINT) : DINT.
func stdlibFunctionSignatures() []*FunctionSignature {
	dint := ast.NewTypeName("DINT", ast.Span{})
	return []*FunctionSignature{
		{
			Name:       "EXPT",
			ReturnType: &dint,
			Parameters: []FunctionParameter{
				{Name: "IN1", Type: dint, IsInput: true},
				{Name: "IN2", Type: dint, IsInput: true},
			},
			IsStdlib: true,
		},
	}
}

// BuildFunctionEnvironment populates a FunctionEnvironment from every
// FUNCTION declared in lib plus the container format's built-in stdlib
// functions, grounded on
// original_source/compiler/analyzer/src/function_environment.rs's
// FunctionEnvironmentBuilder.with_stdlib_functions().
func BuildFunctionEnvironment(lib *ast.Library) *FunctionEnvironment {
	env := NewFunctionEnvironment()
	for _, sig := range stdlibFunctionSignatures() {
		env.Define(sig)
	}
	for _, fn := range lib.Functions {
		params := make([]FunctionParameter, 0, len(fn.Parameters()))
		for _, p := range fn.Parameters() {
			params = append(params, FunctionParameter{
				Name:     p.Name.Name,
				Type:     p.Type,
				IsInput:  p.IsInput,
				IsOutput: p.IsOutput,
				IsInOut:  p.IsInOut,
			})
		}
		env.Define(&FunctionSignature{
			Name:       fn.Name.Name,
			ReturnType: fn.ReturnType,
			Parameters: params,
		})
	}
	return env
}
