package bytecode

import (
	"github.com/openplc-go/stvm/internal/ast"
)

func (c *Compiler) compileStatements(stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := c.compileStatement(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileStatement(stmt ast.Statement) error {
	c.lastLine = stmt.Pos().Start.Line

	switch s := stmt.(type) {
	case *ast.Assignment:
		return c.compileAssignment(s)
	case *ast.FbCall:
		return c.compileFbCall(s)
	case *ast.If:
		return c.compileIf(s)
	case *ast.Case:
		return c.compileCase(s)
	case *ast.For:
		return c.compileFor(s)
	case *ast.While:
		return c.compileWhile(s)
	case *ast.Repeat:
		return c.compileRepeat(s)
	case *ast.Return:
		if n := len(c.returnTargets); n > 0 {
			target := c.returnTargets[n-1]
			*target = append(*target, c.chunk.EmitJump(OpJmp, c.lastLine))
			return nil
		}
		c.chunk.emit(OpRetVoid, c.lastLine)
		return nil
	case *ast.Exit:
		return c.compileExit(s)
	default:
		return c.errorf("unsupported statement type %T", stmt)
	}
}

func (c *Compiler) compileAssignment(a *ast.Assignment) error {
	target, ok := a.Target.(*ast.Variable)
	if !ok {
		return c.errorf("unsupported assignment target %T", a.Target)
	}
	slot, ok := c.resolveSlot(target.Name().Lower())
	if !ok {
		return c.errorf("undeclared variable %q", target.Name().Name)
	}
	if err := c.compileExpression(a.Value); err != nil {
		return err
	}
	return c.emitStore(slot, c.lastLine)
}

// compileFbCall lowers an FB instance invocation: store each named actual
// parameter into the instance's member slot (allocated per-instance by
// declareFbInstance), then inline the instance's own FUNCTION_BLOCK body so
// its internal logic actually runs as part of this scan, namespaced to this
// instance so two instances of the same FB type execute against distinct
// member slots (spec.md §5.2, §4.6).
func (c *Compiler) compileFbCall(call *ast.FbCall) error {
	instanceKey := call.Instance.Lower()
	for _, arg := range call.Args {
		if arg.Name == nil {
			return c.errorf("function block call argument must be named: %s", call.Instance.Name)
		}
		key := instanceKey + "." + arg.Name.Lower()
		slot, ok := c.resolveSlot(key)
		if !ok {
			return c.errorf("undeclared function block member %q", key)
		}
		if err := c.compileExpression(arg.Value); err != nil {
			return err
		}
		if err := c.emitStore(slot, c.lastLine); err != nil {
			return err
		}
	}

	typeName, ok := c.instanceTypes[instanceKey]
	if !ok {
		return c.errorf("undeclared function block instance %q", call.Instance.Name)
	}
	fb, ok := c.fbDecls[typeName]
	if !ok {
		return c.errorf("no compiled body for function block type %q", typeName)
	}
	return c.inlineStatements(instanceKey+".", "fb:"+instanceKey, fb.Body)
}

func (c *Compiler) compileIf(s *ast.If) error {
	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	jumpOverThen := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)
	if err := c.compileStatements(s.Body); err != nil {
		return err
	}

	endJumps := []int{}
	if len(s.ElseIfs) > 0 || s.Else != nil {
		endJumps = append(endJumps, c.chunk.EmitJump(OpJmp, c.lastLine))
	}
	if err := c.chunk.PatchJump(jumpOverThen); err != nil {
		return err
	}

	for i, branch := range s.ElseIfs {
		if err := c.compileExpression(branch.Condition); err != nil {
			return err
		}
		jumpOverBranch := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)
		if err := c.compileStatements(branch.Body); err != nil {
			return err
		}
		if i < len(s.ElseIfs)-1 || s.Else != nil {
			endJumps = append(endJumps, c.chunk.EmitJump(OpJmp, c.lastLine))
		}
		if err := c.chunk.PatchJump(jumpOverBranch); err != nil {
			return err
		}
	}

	if s.Else != nil {
		if err := c.compileStatements(s.Else); err != nil {
			return err
		}
	}

	for _, j := range endJumps {
		if err := c.chunk.PatchJump(j); err != nil {
			return err
		}
	}
	return nil
}

// compileCase lowers CASE into a chain of equality/range tests against
// the selector, evaluating the selector expression once into a temporary
// slot so it is not recomputed per arm.
func (c *Compiler) compileCase(s *ast.Case) error {
	selectorSlot := varSlot{index: c.nextSlot, width: width32}
	c.nextSlot++
	if err := c.compileExpression(s.Selector); err != nil {
		return err
	}
	if err := c.emitStore(selectorSlot, c.lastLine); err != nil {
		return err
	}

	var endJumps []int
	for _, arm := range s.Arms {
		var matchJumps []int
		for _, val := range arm.Values {
			if err := c.emitLoad(selectorSlot, c.lastLine); err != nil {
				return err
			}
			if val.Single != nil {
				if err := c.compileExpression(val.Single); err != nil {
					return err
				}
				c.chunk.emit(opEq(selectorSlot.width), c.lastLine)
			} else {
				if err := c.compileExpression(val.Lower); err != nil {
					return err
				}
				c.chunk.emit(opGe(selectorSlot.width), c.lastLine)
				belowLower := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)
				if err := c.emitLoad(selectorSlot, c.lastLine); err != nil {
					return err
				}
				if err := c.compileExpression(val.Upper); err != nil {
					return err
				}
				c.chunk.emit(opLe(selectorSlot.width), c.lastLine)
				withinRange := c.chunk.EmitJump(OpJmp, c.lastLine)
				if err := c.chunk.PatchJump(belowLower); err != nil {
					return err
				}
				c.chunk.emit(OpLoadFalse, c.lastLine)
				if err := c.chunk.PatchJump(withinRange); err != nil {
					return err
				}
			}
			// Top of stack is now the bool result of this value test. If
			// false, fall through to test the arm's next value; if true,
			// jump straight to the arm body.
			skipToNextTest := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)
			matchJumps = append(matchJumps, c.chunk.EmitJump(OpJmp, c.lastLine))
			if err := c.chunk.PatchJump(skipToNextTest); err != nil {
				return err
			}
		}
		// No value in this arm matched: skip its body entirely.
		skipArm := c.chunk.EmitJump(OpJmp, c.lastLine)
		for _, j := range matchJumps {
			if err := c.chunk.PatchJump(j); err != nil {
				return err
			}
		}
		if err := c.compileStatements(arm.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.chunk.EmitJump(OpJmp, c.lastLine))
		if err := c.chunk.PatchJump(skipArm); err != nil {
			return err
		}
	}

	if s.Else != nil {
		if err := c.compileStatements(s.Else); err != nil {
			return err
		}
	}
	for _, j := range endJumps {
		if err := c.chunk.PatchJump(j); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileFor(s *ast.For) error {
	slot, ok := c.resolveSlot(s.Variable.Lower())
	if !ok {
		return c.errorf("undeclared loop variable %q", s.Variable.Name)
	}
	if err := c.compileExpression(s.Start); err != nil {
		return err
	}
	if err := c.emitStore(slot, c.lastLine); err != nil {
		return err
	}

	loopStart := len(c.chunk.Code)
	ctx := c.pushLoop()

	if err := c.emitLoad(slot, c.lastLine); err != nil {
		return err
	}
	if err := c.compileExpression(s.End); err != nil {
		return err
	}
	c.chunk.emit(opLe(slot.width), c.lastLine)
	exitJump := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)

	if err := c.compileStatements(s.Body); err != nil {
		return err
	}

	if err := c.emitLoad(slot, c.lastLine); err != nil {
		return err
	}
	if s.Step != nil {
		if err := c.compileExpression(s.Step); err != nil {
			return err
		}
	} else {
		if err := c.emitIntConstant(slot.width, 1); err != nil {
			return err
		}
	}
	c.chunk.emit(opAdd(slot.width), c.lastLine)
	if err := c.emitStore(slot, c.lastLine); err != nil {
		return err
	}
	if err := c.chunk.EmitLoop(loopStart, c.lastLine); err != nil {
		return err
	}
	if err := c.chunk.PatchJump(exitJump); err != nil {
		return err
	}
	return c.popLoop(ctx)
}

func (c *Compiler) compileWhile(s *ast.While) error {
	loopStart := len(c.chunk.Code)
	ctx := c.pushLoop()

	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	exitJump := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)

	if err := c.compileStatements(s.Body); err != nil {
		return err
	}
	if err := c.chunk.EmitLoop(loopStart, c.lastLine); err != nil {
		return err
	}
	if err := c.chunk.PatchJump(exitJump); err != nil {
		return err
	}
	return c.popLoop(ctx)
}

func (c *Compiler) compileRepeat(s *ast.Repeat) error {
	loopStart := len(c.chunk.Code)
	ctx := c.pushLoop()

	if err := c.compileStatements(s.Body); err != nil {
		return err
	}
	if err := c.compileExpression(s.Condition); err != nil {
		return err
	}
	again := c.chunk.EmitJump(OpJmpIfNot, c.lastLine)
	exitJump := c.chunk.EmitJump(OpJmp, c.lastLine)
	if err := c.chunk.PatchJump(again); err != nil {
		return err
	}
	if err := c.chunk.EmitLoop(loopStart, c.lastLine); err != nil {
		return err
	}
	if err := c.chunk.PatchJump(exitJump); err != nil {
		return err
	}
	return c.popLoop(ctx)
}

func (c *Compiler) compileExit(s *ast.Exit) error {
	if len(c.loopStack) == 0 {
		return c.errorf("EXIT outside a loop")
	}
	ctx := c.loopStack[len(c.loopStack)-1]
	jump := c.chunk.EmitJump(OpJmp, s.Pos().Start.Line)
	ctx.exitJumps = append(ctx.exitJumps, jump)
	return nil
}

func (c *Compiler) pushLoop() *loopContext {
	ctx := &loopContext{}
	c.loopStack = append(c.loopStack, ctx)
	return ctx
}

func (c *Compiler) popLoop(ctx *loopContext) error {
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
	for _, j := range ctx.exitJumps {
		if err := c.chunk.PatchJump(j); err != nil {
			return err
		}
	}
	return nil
}
