package bytecode

import (
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return c.emitIntConstant(width32, e.Value)
	case *ast.BooleanLiteral:
		if e.Value {
			c.chunk.emit(OpLoadTrue, c.lastLine)
		} else {
			c.chunk.emit(OpLoadFalse, c.lastLine)
		}
		return nil
	case *ast.DurationLiteral:
		return c.emitIntConstant(width64, e.Microseconds)
	case *ast.Variable:
		slot, ok := c.resolveSlot(e.Name().Lower())
		if !ok {
			return c.errorf("undeclared variable %q", e.Name().Name)
		}
		return c.emitLoad(slot, c.lastLine)
	case *ast.GroupExpression:
		return c.compileExpression(e.Inner)
	case *ast.UnaryOp:
		return c.compileUnary(e)
	case *ast.BinaryOp:
		return c.compileBinary(e)
	case *ast.Compare:
		return c.compileCompare(e)
	case *ast.FunctionCall:
		return c.compileFunctionCall(e)
	case *ast.IndexExpression:
		return c.errorf("array element access is not yet supported by the bytecode compiler")
	default:
		return c.errorf("unsupported expression type %T", expr)
	}
}

func (c *Compiler) widthOfExpr(expr ast.Expression) varWidth {
	switch e := expr.(type) {
	case *ast.Variable:
		if slot, ok := c.resolveSlot(e.Name().Lower()); ok {
			return slot.width
		}
	case *ast.DurationLiteral:
		return width64
	case *ast.BooleanLiteral:
		return widthBool
	case *ast.GroupExpression:
		return c.widthOfExpr(e.Inner)
	case *ast.BinaryOp:
		return c.widthOfExpr(e.Left)
	case *ast.UnaryOp:
		return c.widthOfExpr(e.Operand)
	}
	return width32
}

func (c *Compiler) compileUnary(u *ast.UnaryOp) error {
	if err := c.compileExpression(u.Operand); err != nil {
		return err
	}
	switch u.Op {
	case ast.UnaryNeg:
		w := c.widthOfExpr(u.Operand)
		if w == width64 {
			c.chunk.emit(OpNegI64, c.lastLine)
		} else {
			c.chunk.emit(OpNegI32, c.lastLine)
		}
	case ast.UnaryNot:
		c.chunk.emit(OpBoolNot, c.lastLine)
	default:
		return c.errorf("unsupported unary operator")
	}
	return nil
}

func (c *Compiler) compileBinary(b *ast.BinaryOp) error {
	if err := c.compileExpression(b.Left); err != nil {
		return err
	}
	if err := c.compileExpression(b.Right); err != nil {
		return err
	}
	w := c.widthOfExpr(b.Left)
	unsigned := isUnsignedType(c.typeHintOf(b.Left))

	switch b.Op {
	case ast.ArithAnd:
		c.chunk.emit(OpBoolAnd, c.lastLine)
		return nil
	case ast.ArithOr:
		c.chunk.emit(OpBoolOr, c.lastLine)
		return nil
	case ast.ArithXor:
		c.chunk.emit(OpBoolXor, c.lastLine)
		return nil
	}

	if unsigned {
		switch b.Op {
		case ast.ArithDiv:
			if w == width64 {
				c.chunk.emit(OpDivU64, c.lastLine)
			} else {
				c.chunk.emit(OpDivU32, c.lastLine)
			}
			return nil
		case ast.ArithMod:
			if w == width64 {
				c.chunk.emit(OpModU64, c.lastLine)
			} else {
				c.chunk.emit(OpModU32, c.lastLine)
			}
			return nil
		}
	}

	c.chunk.emit(opArith(b.Op, w), c.lastLine)
	return nil
}

func (c *Compiler) typeHintOf(expr ast.Expression) string {
	if v, ok := expr.(*ast.Variable); ok {
		if slot, ok := c.resolveSlot(v.Name().Lower()); ok {
			return slot.typ
		}
	}
	return ""
}

func (c *Compiler) compileCompare(cmp *ast.Compare) error {
	if err := c.compileExpression(cmp.Left); err != nil {
		return err
	}
	if err := c.compileExpression(cmp.Right); err != nil {
		return err
	}
	w := c.widthOfExpr(cmp.Left)
	unsigned := isUnsignedType(c.typeHintOf(cmp.Left))
	c.chunk.emit(opCompare(cmp.Op, w, unsigned), c.lastLine)
	return nil
}

// compileFunctionCall supports the small set of builtins the container's
// opcode set names directly (spec.md §6.1's BuiltinExptI32) plus, since the
// opcode set has no CALL instruction, every other declared FUNCTION by
// inlining its body at the call site (inlineFunctionCall).
func (c *Compiler) compileFunctionCall(call *ast.FunctionCall) error {
	switch call.Name.Lower() {
	case "expt":
		if len(call.Args) != 2 {
			return c.errorf("EXPT requires exactly 2 arguments")
		}
		if err := c.compileExpression(call.Args[0].Value); err != nil {
			return err
		}
		if err := c.compileExpression(call.Args[1].Value); err != nil {
			return err
		}
		c.chunk.emitU16(OpBuiltin, BuiltinExptI32, c.lastLine)
		return nil
	default:
		fn, ok := c.functions[call.Name.Lower()]
		if !ok {
			return c.errorf("call to undeclared or unsupported function %q", call.Name.Name)
		}
		return c.inlineFunctionCall(fn, call)
	}
}

// inlineFunctionCall binds call's actual arguments to fn's input formal
// parameters, declares fn's own VAR/VAR_TEMP locals and its implicit
// return-value slot (named after the function itself, spec.md §4.1) all
// namespaced to this call site, inlines fn's body, then loads the return
// slot as the call expression's result.
func (c *Compiler) inlineFunctionCall(fn *ast.FunctionDecl, call *ast.FunctionCall) error {
	prefix := fn.Name.Lower() + "$"

	params := fn.Parameters()
	for i, p := range params {
		if !p.IsInput && !p.IsInOut {
			continue
		}
		var actual ast.Expression
		if i < len(call.Args) && call.Args[i].Name == nil {
			actual = call.Args[i].Value
		} else {
			for _, a := range call.Args {
				if a.Name != nil && a.Name.Lower() == p.Name.Lower() {
					actual = a.Value
					break
				}
			}
		}
		if actual == nil {
			continue
		}
		slot := c.declareSlotAt(prefix+p.Name.Lower(), p.Type.Id.Name)
		if err := c.compileExpression(actual); err != nil {
			return err
		}
		if err := c.emitStore(slot, c.lastLine); err != nil {
			return err
		}
	}

	retType := "DINT"
	if fn.ReturnType != nil {
		retType = fn.ReturnType.Id.Name
	}
	c.declareSlotAt(prefix+fn.Name.Lower(), retType)

	for _, block := range fn.VarBlocks {
		for _, decl := range block.Decls {
			dt, _ := decl.DataType()
			c.declareSlotAt(prefix+decl.Name.Lower(), dt.Id.Name)
		}
	}

	if err := c.inlineStatements(prefix, "func:"+fn.Name.Lower(), fn.Body); err != nil {
		return err
	}

	retSlot := c.slots[prefix+fn.Name.Lower()]
	return c.emitLoad(retSlot, c.lastLine)
}

func (c *Compiler) emitIntConstant(w varWidth, v int64) error {
	if w == width64 {
		idx := c.pool.PushI64(v)
		c.chunk.emitU16(OpLoadConstI64, uint16(idx), c.lastLine)
		return nil
	}
	idx := c.pool.PushI32(int32(v))
	c.chunk.emitU16(OpLoadConstI32, uint16(idx), c.lastLine)
	return nil
}

func (c *Compiler) emitLoad(slot varSlot, line int) error {
	idx := uint16(slot.index) + c.baseSlot
	if slot.width == width64 {
		c.chunk.emitU16(OpLoadVarI64, idx, line)
	} else {
		c.chunk.emitU16(OpLoadVarI32, idx, line)
	}
	return nil
}

func (c *Compiler) emitStore(slot varSlot, line int) error {
	if trunc, ok := truncOpFor(slot.typ); ok {
		c.chunk.emit(trunc, line)
	}
	idx := uint16(slot.index) + c.baseSlot
	if slot.width == width64 {
		c.chunk.emitU16(OpStoreVarI64, idx, line)
	} else {
		c.chunk.emitU16(OpStoreVarI32, idx, line)
	}
	return nil
}

// truncOpFor reports the opcode that narrows a computed value to typeName's
// storage width before it is written to a variable slot. DINT/UDINT/DWORD
// and every width64 type already wrap correctly within their slot's native
// int32/int64 arithmetic, so only the 8- and 16-bit integer families need an
// explicit narrowing instruction (spec.md §8 property 9, scenario S4).
func truncOpFor(typeName string) (OpCode, bool) {
	switch strings.ToUpper(typeName) {
	case "SINT":
		return OpTruncI8, true
	case "USINT", "BYTE":
		return OpTruncU8, true
	case "INT":
		return OpTruncI16, true
	case "UINT", "WORD":
		return OpTruncU16, true
	default:
		return 0, false
	}
}

func opArith(op ast.ArithOp, w varWidth) OpCode {
	if w == width64 {
		switch op {
		case ast.ArithAdd:
			return OpAddI64
		case ast.ArithSub:
			return OpSubI64
		case ast.ArithMul:
			return OpMulI64
		case ast.ArithDiv:
			return OpDivI64
		case ast.ArithMod:
			return OpModI64
		}
	}
	switch op {
	case ast.ArithAdd:
		return OpAddI32
	case ast.ArithSub:
		return OpSubI32
	case ast.ArithMul:
		return OpMulI32
	case ast.ArithDiv:
		return OpDivI32
	case ast.ArithMod:
		return OpModI32
	}
	return OpAddI32
}

func opCompare(op ast.CompareOp, w varWidth, unsigned bool) OpCode {
	if unsigned {
		if w == width64 {
			switch op {
			case ast.CompareLt:
				return OpLtU64
			case ast.CompareLe:
				return OpLeU64
			case ast.CompareGt:
				return OpGtU64
			case ast.CompareGe:
				return OpGeU64
			}
		} else {
			switch op {
			case ast.CompareLt:
				return OpLtU32
			case ast.CompareLe:
				return OpLeU32
			case ast.CompareGt:
				return OpGtU32
			case ast.CompareGe:
				return OpGeU32
			}
		}
	}
	if w == width64 {
		switch op {
		case ast.CompareEq:
			return OpEqI64
		case ast.CompareNe:
			return OpNeI64
		case ast.CompareLt:
			return OpLtI64
		case ast.CompareLe:
			return OpLeI64
		case ast.CompareGt:
			return OpGtI64
		case ast.CompareGe:
			return OpGeI64
		}
	}
	switch op {
	case ast.CompareEq:
		return OpEqI32
	case ast.CompareNe:
		return OpNeI32
	case ast.CompareLt:
		return OpLtI32
	case ast.CompareLe:
		return OpLeI32
	case ast.CompareGt:
		return OpGtI32
	case ast.CompareGe:
		return OpGeI32
	}
	return OpEqI32
}

func opEq(w varWidth) OpCode {
	if w == width64 {
		return OpEqI64
	}
	return OpEqI32
}

func opLe(w varWidth) OpCode {
	if w == width64 {
		return OpLeI64
	}
	return OpLeI32
}

func opGe(w varWidth) OpCode {
	if w == width64 {
		return OpGeI64
	}
	return OpGeI32
}

func opAdd(w varWidth) OpCode {
	if w == width64 {
		return OpAddI64
	}
	return OpAddI32
}
