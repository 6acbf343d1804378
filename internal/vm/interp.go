package vm

import (
	"github.com/openplc-go/stvm/internal/bytecode"
)

// execute runs code until it reaches RET_VOID or traps, pushing/popping
// through stack and reading/writing through variables within scope. It
// is a free function (not a Vm method) so the caller can hold an
// immutable borrow of the compiled container alongside mutable borrows
// of the stack and variable table, mirroring the original's own
// free-function execute() split from its VmRunning methods.
func execute(code []byte, pool *bytecode.ConstantPool, stack *OperandStack, variables *VariableTable, scope VariableScope) error {
	pc := 0
	for pc < len(code) {
		op := bytecode.OpCode(code[pc])
		pc++

		switch op {
		case bytecode.OpLoadConstI32:
			idx := bytecode.ReadU16(code, pc)
			pc += 2
			v, err := pool.GetI32(int(idx))
			if err != nil {
				return InvalidConstantIndex(idx)
			}
			if err := stack.Push(SlotFromI32(v)); err != nil {
				return err
			}
		case bytecode.OpLoadConstI64:
			idx := bytecode.ReadU16(code, pc)
			pc += 2
			v, err := pool.GetI64(int(idx))
			if err != nil {
				return InvalidConstantIndex(idx)
			}
			if err := stack.Push(SlotFromI64(v)); err != nil {
				return err
			}
		case bytecode.OpLoadTrue:
			if err := stack.Push(SlotFromBool(true)); err != nil {
				return err
			}
		case bytecode.OpLoadFalse:
			if err := stack.Push(SlotFromBool(false)); err != nil {
				return err
			}
		case bytecode.OpTruncI8:
			if err := unaryI32(stack, func(v int32) int32 { return int32(int8(v)) }); err != nil {
				return err
			}
		case bytecode.OpTruncU8:
			if err := unaryI32(stack, func(v int32) int32 { return int32(uint8(v)) }); err != nil {
				return err
			}
		case bytecode.OpTruncI16:
			if err := unaryI32(stack, func(v int32) int32 { return int32(int16(v)) }); err != nil {
				return err
			}
		case bytecode.OpTruncU16:
			if err := unaryI32(stack, func(v int32) int32 { return int32(uint16(v)) }); err != nil {
				return err
			}
		case bytecode.OpLoadVarI32, bytecode.OpLoadVarI64:
			idx := bytecode.ReadU16(code, pc)
			pc += 2
			if err := scope.CheckAccess(idx); err != nil {
				return err
			}
			slot, err := variables.Load(idx)
			if err != nil {
				return err
			}
			if err := stack.Push(slot); err != nil {
				return err
			}
		case bytecode.OpStoreVarI32, bytecode.OpStoreVarI64:
			idx := bytecode.ReadU16(code, pc)
			pc += 2
			if err := scope.CheckAccess(idx); err != nil {
				return err
			}
			slot, err := stack.Pop()
			if err != nil {
				return err
			}
			if err := variables.Store(idx, slot); err != nil {
				return err
			}
		case bytecode.OpAddI32:
			if err := binaryI32(stack, func(a, b int32) int32 { return a + b }); err != nil {
				return err
			}
		case bytecode.OpSubI32:
			if err := binaryI32(stack, func(a, b int32) int32 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMulI32:
			if err := binaryI32(stack, func(a, b int32) int32 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivI32:
			if err := binaryI32Checked(stack, func(a, b int32) (int32, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a / b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpModI32:
			if err := binaryI32Checked(stack, func(a, b int32) (int32, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a % b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpNegI32:
			if err := unaryI32(stack, func(v int32) int32 { return -v }); err != nil {
				return err
			}

		case bytecode.OpAddI64:
			if err := binaryI64(stack, func(a, b int64) int64 { return a + b }); err != nil {
				return err
			}
		case bytecode.OpSubI64:
			if err := binaryI64(stack, func(a, b int64) int64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMulI64:
			if err := binaryI64(stack, func(a, b int64) int64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDivI64:
			if err := binaryI64Checked(stack, func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a / b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpModI64:
			if err := binaryI64Checked(stack, func(a, b int64) (int64, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a % b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpNegI64:
			if err := unaryI64(stack, func(v int64) int64 { return -v }); err != nil {
				return err
			}

		case bytecode.OpDivU32:
			if err := binaryU32Checked(stack, func(a, b uint32) (uint32, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a / b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpModU32:
			if err := binaryU32Checked(stack, func(a, b uint32) (uint32, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a % b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpDivU64:
			if err := binaryU64Checked(stack, func(a, b uint64) (uint64, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a / b, nil
			}); err != nil {
				return err
			}
		case bytecode.OpModU64:
			if err := binaryU64Checked(stack, func(a, b uint64) (uint64, error) {
				if b == 0 {
					return 0, DivideByZero()
				}
				return a % b, nil
			}); err != nil {
				return err
			}

		case bytecode.OpBoolAnd:
			if err := binaryBool(stack, func(a, b bool) bool { return a && b }); err != nil {
				return err
			}
		case bytecode.OpBoolOr:
			if err := binaryBool(stack, func(a, b bool) bool { return a || b }); err != nil {
				return err
			}
		case bytecode.OpBoolXor:
			if err := binaryBool(stack, func(a, b bool) bool { return a != b }); err != nil {
				return err
			}
		case bytecode.OpBoolNot:
			v, err := stack.Pop()
			if err != nil {
				return err
			}
			if err := stack.Push(SlotFromBool(!v.AsBool())); err != nil {
				return err
			}

		case bytecode.OpEqI32:
			if err := compareI32(stack, func(a, b int32) bool { return a == b }); err != nil {
				return err
			}
		case bytecode.OpNeI32:
			if err := compareI32(stack, func(a, b int32) bool { return a != b }); err != nil {
				return err
			}
		case bytecode.OpLtI32:
			if err := compareI32(stack, func(a, b int32) bool { return a < b }); err != nil {
				return err
			}
		case bytecode.OpLeI32:
			if err := compareI32(stack, func(a, b int32) bool { return a <= b }); err != nil {
				return err
			}
		case bytecode.OpGtI32:
			if err := compareI32(stack, func(a, b int32) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpGeI32:
			if err := compareI32(stack, func(a, b int32) bool { return a >= b }); err != nil {
				return err
			}

		case bytecode.OpEqI64:
			if err := compareI64(stack, func(a, b int64) bool { return a == b }); err != nil {
				return err
			}
		case bytecode.OpNeI64:
			if err := compareI64(stack, func(a, b int64) bool { return a != b }); err != nil {
				return err
			}
		case bytecode.OpLtI64:
			if err := compareI64(stack, func(a, b int64) bool { return a < b }); err != nil {
				return err
			}
		case bytecode.OpLeI64:
			if err := compareI64(stack, func(a, b int64) bool { return a <= b }); err != nil {
				return err
			}
		case bytecode.OpGtI64:
			if err := compareI64(stack, func(a, b int64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpGeI64:
			if err := compareI64(stack, func(a, b int64) bool { return a >= b }); err != nil {
				return err
			}

		case bytecode.OpLtU32:
			if err := compareU32(stack, func(a, b uint32) bool { return a < b }); err != nil {
				return err
			}
		case bytecode.OpLeU32:
			if err := compareU32(stack, func(a, b uint32) bool { return a <= b }); err != nil {
				return err
			}
		case bytecode.OpGtU32:
			if err := compareU32(stack, func(a, b uint32) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpGeU32:
			if err := compareU32(stack, func(a, b uint32) bool { return a >= b }); err != nil {
				return err
			}
		case bytecode.OpLtU64:
			if err := compareU64(stack, func(a, b uint64) bool { return a < b }); err != nil {
				return err
			}
		case bytecode.OpLeU64:
			if err := compareU64(stack, func(a, b uint64) bool { return a <= b }); err != nil {
				return err
			}
		case bytecode.OpGtU64:
			if err := compareU64(stack, func(a, b uint64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpGeU64:
			if err := compareU64(stack, func(a, b uint64) bool { return a >= b }); err != nil {
				return err
			}

		case bytecode.OpJmp:
			offset := bytecode.ReadI16(code, pc)
			pc = pc + 2 + int(offset)
		case bytecode.OpJmpIfNot:
			offset := bytecode.ReadI16(code, pc)
			cond, err := stack.Pop()
			if err != nil {
				return err
			}
			next := pc + 2
			if !cond.AsBool() {
				next += int(offset)
			}
			pc = next

		case bytecode.OpBuiltin:
			id := bytecode.ReadU16(code, pc)
			pc += 2
			if err := callBuiltin(stack, id); err != nil {
				return err
			}

		case bytecode.OpRetVoid:
			return nil

		default:
			return InvalidInstruction(byte(op))
		}
	}
	return nil
}

// callBuiltin dispatches a BUILTIN instruction's operand to the small
// fixed set of builtins the container format names directly — EXPT_I32
// is the only one this port's compiler emits.
func callBuiltin(stack *OperandStack, id uint16) error {
	switch id {
	case bytecode.BuiltinExptI32:
		exp, err := stack.Pop()
		if err != nil {
			return err
		}
		base, err := stack.Pop()
		if err != nil {
			return err
		}
		return stack.Push(SlotFromI32(expt32(base.AsI32(), exp.AsI32())))
	default:
		return InvalidInstruction(0xC4)
	}
}

// expt32 computes base**exp by repeated multiplication for exp >= 0; a
// negative exponent on an integer base truncates to zero, matching
// IEC 61131-3's EXPT on integer operands (no fractional result).
func expt32(base, exp int32) int32 {
	if exp < 0 {
		return 0
	}
	result := int32(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

func unaryI32(s *OperandStack, f func(int32) int32) error {
	v, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromI32(f(v.AsI32())))
}

func unaryI64(s *OperandStack, f func(int64) int64) error {
	v, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromI64(f(v.AsI64())))
}

func binaryI32(s *OperandStack, f func(a, b int32) int32) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromI32(f(a.AsI32(), b.AsI32())))
}

func binaryI32Checked(s *OperandStack, f func(a, b int32) (int32, error)) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	v, err := f(a.AsI32(), b.AsI32())
	if err != nil {
		return err
	}
	return s.Push(SlotFromI32(v))
}

func binaryI64(s *OperandStack, f func(a, b int64) int64) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromI64(f(a.AsI64(), b.AsI64())))
}

func binaryI64Checked(s *OperandStack, f func(a, b int64) (int64, error)) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	v, err := f(a.AsI64(), b.AsI64())
	if err != nil {
		return err
	}
	return s.Push(SlotFromI64(v))
}

func binaryU32Checked(s *OperandStack, f func(a, b uint32) (uint32, error)) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	v, err := f(a.AsU32(), b.AsU32())
	if err != nil {
		return err
	}
	return s.Push(SlotFromI32(int32(v)))
}

func binaryU64Checked(s *OperandStack, f func(a, b uint64) (uint64, error)) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	v, err := f(a.AsU64(), b.AsU64())
	if err != nil {
		return err
	}
	return s.Push(SlotFromI64(int64(v)))
}

func binaryBool(s *OperandStack, f func(a, b bool) bool) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromBool(f(a.AsBool(), b.AsBool())))
}

func compareI32(s *OperandStack, f func(a, b int32) bool) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromBool(f(a.AsI32(), b.AsI32())))
}

func compareI64(s *OperandStack, f func(a, b int64) bool) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromBool(f(a.AsI64(), b.AsI64())))
}

func compareU32(s *OperandStack, f func(a, b uint32) bool) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromBool(f(a.AsU32(), b.AsU32())))
}

func compareU64(s *OperandStack, f func(a, b uint64) bool) error {
	b, err := s.Pop()
	if err != nil {
		return err
	}
	a, err := s.Pop()
	if err != nil {
		return err
	}
	return s.Push(SlotFromBool(f(a.AsU64(), b.AsU64())))
}
