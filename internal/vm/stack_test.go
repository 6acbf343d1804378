package vm

import (
	"testing"

	"github.com/openplc-go/stvm/internal/bytecode"
)

func TestOperandStackPushBeyondCapacityOverflows(t *testing.T) {
	s := NewOperandStack(2)
	if err := s.Push(SlotFromI32(1)); err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if err := s.Push(SlotFromI32(2)); err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if err := s.Push(SlotFromI32(3)); err == nil {
		t.Fatal("expected a stack overflow trap on the third push")
	}
}

func TestOperandStackPopEmptyUnderflows(t *testing.T) {
	s := NewOperandStack(2)
	if _, err := s.Pop(); err == nil {
		t.Fatal("expected a stack underflow trap popping an empty stack")
	}
}

// TestExecuteStackOverflowTraps exercises the overflow path through the
// full fetch-decode-execute loop rather than the OperandStack directly:
// pushing two constants onto a one-slot stack must trap before the ADD
// that would otherwise consume them.
func TestExecuteStackOverflowTraps(t *testing.T) {
	code := []byte{
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0]
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] -- overflows a depth-1 stack
		0x30, // ADD_I32
		0xB5, // RET_VOID
	}
	pool := bytecode.NewConstantPool()
	pool.PushI32(7)
	stack := NewOperandStack(1)
	vars := NewVariableTable(0)
	scope := VariableScope{}

	if err := execute(code, pool, stack, vars, scope); err == nil {
		t.Fatal("expected a stack overflow trap")
	}
}
