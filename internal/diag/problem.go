// Package diag defines the compiler's closed diagnostic catalog and the
// "did you mean?" suggestion helper used when a referenced name is undefined.
package diag

// Problem is a closed enumeration of every diagnostic this compiler can
// raise. Keeping the set closed (rather than free-form strings) lets tests
// assert on exactly which problem fired without string matching.
type Problem int

const (
	// Lexical/parse-adjacent (surfaced here because the analyzer may also
	// detect a malformed literal during late-bound resolution).
	ProblemInvalidLiteral Problem = iota

	// Name resolution.
	ProblemUndeclaredType
	ProblemUndeclaredSymbol
	ProblemUndeclaredVariable
	ProblemDuplicateDeclaration
	ProblemRecursiveTypeDefinition
	ProblemCyclicDependency

	// Type checking.
	ProblemTypeMismatch
	ProblemInvalidOperandType
	ProblemNotAssignable
	ProblemWrongNumberOfArguments
	ProblemWrongArgumentType
	ProblemUnknownNamedArgument
	ProblemDuplicateNamedArgument
	ProblemFunctionCallOnNonFunction
	ProblemFunctionBlockUsedAsFunction
	ProblemMixedArgumentStyle
	ProblemStdlibFunctionBlockUnsupported

	// Control flow / scoping.
	ProblemReturnOutsideFunction
	ProblemExitOutsideLoop
	ProblemInvalidCaseLabel
	ProblemDuplicateCaseLabel
	ProblemOverlappingCaseRange

	// Semantic rules specific to functions and function blocks.
	ProblemFunctionMissingReturnAssignment
	ProblemFunctionReferencesFunctionBlock
	ProblemConstantReassigned

	// Configuration / task binding.
	ProblemUndeclaredProgram
	ProblemUndeclaredTask
	ProblemDuplicateTaskBinding

	// Runtime-check advisories (flagged, not enforced; spec.md §9).
	ProblemRuntimeArrayBoundsCheck
	ProblemRuntimeRangeConstraintCheck

	// Unsupported surface (grammar-legal IEC types this compiler does not
	// implement, e.g. generic ANY and pointer/reference types).
	ProblemUnsupportedStdlibType
)

var problemNames = [...]string{
	ProblemInvalidLiteral:                  "invalid literal",
	ProblemUndeclaredType:                  "undeclared type",
	ProblemUndeclaredSymbol:                "undeclared symbol",
	ProblemUndeclaredVariable:              "undeclared variable",
	ProblemDuplicateDeclaration:            "duplicate declaration",
	ProblemRecursiveTypeDefinition:         "recursive type definition",
	ProblemCyclicDependency:                "cyclic dependency",
	ProblemTypeMismatch:                    "type mismatch",
	ProblemInvalidOperandType:              "invalid operand type",
	ProblemNotAssignable:                   "not assignable",
	ProblemWrongNumberOfArguments:          "wrong number of arguments",
	ProblemWrongArgumentType:               "wrong argument type",
	ProblemUnknownNamedArgument:            "unknown named argument",
	ProblemDuplicateNamedArgument:          "duplicate named argument",
	ProblemFunctionCallOnNonFunction:       "call target is not a function",
	ProblemFunctionBlockUsedAsFunction:     "function block used as function",
	ProblemMixedArgumentStyle:              "positional and named arguments mixed in one call",
	ProblemStdlibFunctionBlockUnsupported:  "standard function block has no compiled implementation",
	ProblemReturnOutsideFunction:           "RETURN outside function or function block",
	ProblemExitOutsideLoop:                 "EXIT outside loop",
	ProblemInvalidCaseLabel:                "invalid CASE label",
	ProblemDuplicateCaseLabel:              "duplicate CASE label",
	ProblemOverlappingCaseRange:            "overlapping CASE range",
	ProblemFunctionMissingReturnAssignment: "function never assigns its return value",
	ProblemFunctionReferencesFunctionBlock: "function references a function block instance",
	ProblemConstantReassigned:              "assignment to a constant",
	ProblemUndeclaredProgram:               "undeclared program",
	ProblemUndeclaredTask:                  "undeclared task",
	ProblemDuplicateTaskBinding:            "duplicate task binding",
	ProblemRuntimeArrayBoundsCheck:         "array index not statically provable in bounds",
	ProblemRuntimeRangeConstraintCheck:     "value not statically provable within subrange",
	ProblemUnsupportedStdlibType:           "unsupported standard library type",
}

// String returns the human-readable, lowercase problem description used as
// the default diagnostic message body.
func (p Problem) String() string {
	if int(p) < 0 || int(p) >= len(problemNames) {
		return "unknown problem"
	}
	return problemNames[p]
}

// Severity classifies whether a Problem blocks codegen or is advisory.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// DefaultSeverity returns the severity a Problem carries when no diagnostic
// explicitly overrides it. Only the runtime-check advisories are warnings;
// everything else in the closed catalog blocks compilation.
func (p Problem) DefaultSeverity() Severity {
	switch p {
	case ProblemRuntimeArrayBoundsCheck, ProblemRuntimeRangeConstraintCheck:
		return SeverityWarning
	default:
		return SeverityError
	}
}
