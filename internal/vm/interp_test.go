package vm

import (
	"testing"

	"github.com/openplc-go/stvm/internal/bytecode"
)

func steelThreadContainer() bytecode.Container {
	code := []byte{
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (10)
		0x18, 0x00, 0x00, // STORE_VAR_I32  var[0]
		0x10, 0x00, 0x00, // LOAD_VAR_I32   var[0]
		0x01, 0x01, 0x00, // LOAD_CONST_I32 pool[1] (32)
		0x30,             // ADD_I32
		0x18, 0x01, 0x00, // STORE_VAR_I32  var[1]
		0xB5, // RET_VOID
	}
	b := bytecode.NewBuilder()
	b.NumVariables(2).AddI32Constant(10).AddI32Constant(32).AddFunction(0, code, 2, 2)
	return b.Build()
}

func TestVmLoadThenVariablesAreZero(t *testing.T) {
	c := steelThreadContainer()
	ready := New().Load(&c)
	v, err := ready.ReadVariable(0)
	if err != nil {
		t.Fatalf("ReadVariable: %v", err)
	}
	if v != 0 {
		t.Errorf("var[0] = %d, want 0 before any scan", v)
	}
}

func TestVmRunRoundSteelThread(t *testing.T) {
	c := steelThreadContainer()
	running := New().Load(&c).Start()

	if _, err := running.RunRound(); err != nil {
		t.Fatalf("RunRound: %v", err)
	}

	x, _ := running.ReadVariable(0)
	y, _ := running.ReadVariable(1)
	if x != 10 {
		t.Errorf("var[0] = %d, want 10", x)
	}
	if y != 42 {
		t.Errorf("var[1] = %d, want 42", y)
	}
}

func TestVmRunRoundInvalidOpcodeTraps(t *testing.T) {
	b := bytecode.NewBuilder()
	b.NumVariables(0).AddFunction(0, []byte{0xFF}, 1, 0)
	c := b.Build()

	running := New().Load(&c).Start()
	fault, err := running.RunRound()
	if err != nil {
		t.Fatalf("RunRound returned an unexpected Go error: %v", err)
	}
	if fault == nil {
		t.Fatal("expected a fault for an invalid opcode")
	}
}

func TestVmStopHandleRequestsStop(t *testing.T) {
	c := steelThreadContainer()
	running := New().Load(&c).Start()
	handle := running.StopHandle()
	if running.StopRequested() {
		t.Fatal("stop should not be requested yet")
	}
	handle.RequestStop()
	if !running.StopRequested() {
		t.Fatal("stop should be requested after RequestStop")
	}
}

func TestVmStopReturnsStoppedWithUnchangedVariables(t *testing.T) {
	c := steelThreadContainer()
	running := New().Load(&c).Start()
	stopped := running.Stop()
	v, _ := stopped.ReadVariable(0)
	if v != 0 {
		t.Errorf("var[0] = %d, want 0 (not yet executed)", v)
	}
}

func TestVmFaultCarriesContext(t *testing.T) {
	c := steelThreadContainer()
	running := New().Load(&c).Start()
	ctx := FaultContext{Trap: WatchdogTimeout(3), TaskID: 3, InstanceID: 1}
	faulted := running.Fault(ctx)
	if !faulted.TrapValue().IsWatchdogTimeout(3) {
		t.Errorf("expected a watchdog timeout trap for task 3")
	}
	if faulted.TaskID() != 3 || faulted.InstanceID() != 1 {
		t.Errorf("TaskID/InstanceID = %d/%d, want 3/1", faulted.TaskID(), faulted.InstanceID())
	}
}

func TestExecuteJmpSkipsInstruction(t *testing.T) {
	code := []byte{
		0xB0, 0x03, 0x00, // JMP +3 -> skip next instruction
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (99) -- skipped
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (99)
		0x18, 0x01, 0x00, // STORE_VAR_I32 var[1]
		0xB5, // RET_VOID
	}
	pool := bytecode.NewConstantPool()
	pool.PushI32(99)
	stack := NewOperandStack(4)
	vars := NewVariableTable(2)
	scope := VariableScope{InstanceCount: 2}

	if err := execute(code, pool, stack, vars, scope); err != nil {
		t.Fatalf("execute: %v", err)
	}
	v0, _ := vars.Load(0)
	v1, _ := vars.Load(1)
	if v0.AsI32() != 0 {
		t.Errorf("var[0] = %d, want 0 (untouched)", v0.AsI32())
	}
	if v1.AsI32() != 99 {
		t.Errorf("var[1] = %d, want 99", v1.AsI32())
	}
}

func TestExecuteWhileLoopCountsDownToZero(t *testing.T) {
	// WHILE var[0] > 0 DO var[0] := var[0] - 1 END_WHILE, starting at 3.
	code := []byte{
		0x10, 0x00, 0x00, // LOAD_VAR_I32 var[0]
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (0)
		0x6C,             // GT_I32
		0xB2, 0x0D, 0x00, // JMP_IF_NOT +13 -> END
		0x10, 0x00, 0x00, // LOAD_VAR_I32 var[0]
		0x01, 0x01, 0x00, // LOAD_CONST_I32 pool[1] (1)
		0x31,             // SUB_I32
		0x18, 0x00, 0x00, // STORE_VAR_I32 var[0]
		0xB0, 0xE9, 0xFF, // JMP -23 -> LOOP
		0xB5, // RET_VOID
	}
	pool := bytecode.NewConstantPool()
	pool.PushI32(0)
	pool.PushI32(1)
	stack := NewOperandStack(4)
	vars := NewVariableTable(1)
	vars.Store(0, SlotFromI32(3))
	scope := VariableScope{InstanceCount: 1}

	if err := execute(code, pool, stack, vars, scope); err != nil {
		t.Fatalf("execute: %v", err)
	}
	v0, _ := vars.Load(0)
	if v0.AsI32() != 0 {
		t.Errorf("var[0] = %d, want 0", v0.AsI32())
	}
}

func TestExecuteForLoopSumsOneToThree(t *testing.T) {
	// FOR var[0] := 1 TO 3 BY 1 DO var[1] := var[1] + var[0] END_FOR
	code := []byte{
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (1)
		0x18, 0x00, 0x00, // STORE_VAR_I32 var[0]
		0x10, 0x00, 0x00, // LOAD_VAR_I32 var[0]
		0x01, 0x01, 0x00, // LOAD_CONST_I32 pool[1] (3)
		0x6C,             // GT_I32
		0xB2, 0x03, 0x00, // JMP_IF_NOT +3 -> BODY
		0xB0, 0x17, 0x00, // JMP +23 -> END
		0x10, 0x01, 0x00, // LOAD_VAR_I32 var[1]
		0x10, 0x00, 0x00, // LOAD_VAR_I32 var[0]
		0x30,             // ADD_I32
		0x18, 0x01, 0x00, // STORE_VAR_I32 var[1]
		0x10, 0x00, 0x00, // LOAD_VAR_I32 var[0]
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (1)
		0x30,             // ADD_I32
		0x18, 0x00, 0x00, // STORE_VAR_I32 var[0]
		0xB0, 0xDC, 0xFF, // JMP -36 -> LOOP
		0xB5, // RET_VOID
	}
	pool := bytecode.NewConstantPool()
	pool.PushI32(1)
	pool.PushI32(3)
	stack := NewOperandStack(4)
	vars := NewVariableTable(2)
	scope := VariableScope{InstanceCount: 2}

	if err := execute(code, pool, stack, vars, scope); err != nil {
		t.Fatalf("execute: %v", err)
	}
	control, _ := vars.Load(0)
	sum, _ := vars.Load(1)
	if control.AsI32() != 4 {
		t.Errorf("var[0] (control) = %d, want 4", control.AsI32())
	}
	if sum.AsI32() != 6 {
		t.Errorf("var[1] (sum) = %d, want 6", sum.AsI32())
	}
}

func TestExecuteDivideByZeroTraps(t *testing.T) {
	code := []byte{
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0] (10)
		0x01, 0x01, 0x00, // LOAD_CONST_I32 pool[1] (0)
		0x33, // DIV_I32
		0xB5, // RET_VOID
	}
	pool := bytecode.NewConstantPool()
	pool.PushI32(10)
	pool.PushI32(0)
	stack := NewOperandStack(4)
	vars := NewVariableTable(0)
	scope := VariableScope{}

	err := execute(code, pool, stack, vars, scope)
	if err == nil {
		t.Fatal("expected a divide-by-zero trap")
	}
}

func TestExecuteAccessViolationOutsideScope(t *testing.T) {
	code := []byte{
		0x10, 0x05, 0x00, // LOAD_VAR_I32 var[5] -- out of this instance's scope
		0xB5,
	}
	pool := bytecode.NewConstantPool()
	stack := NewOperandStack(4)
	vars := NewVariableTable(10)
	scope := VariableScope{SharedGlobalsSize: 0, InstanceOffset: 0, InstanceCount: 2}

	err := execute(code, pool, stack, vars, scope)
	if err == nil {
		t.Fatal("expected an access violation trap for an out-of-scope variable index")
	}
}
