package bytecode

import (
	"bytes"
	"testing"
)

func TestBuilderSteelThreadProgramBuildsValidContainer(t *testing.T) {
	code := []byte{
		0x01, 0x00, 0x00, // LOAD_CONST_I32 pool[0]
		0x18, 0x00, 0x00, // STORE_VAR_I32  var[0]
		0x10, 0x00, 0x00, // LOAD_VAR_I32   var[0]
		0x01, 0x01, 0x00, // LOAD_CONST_I32 pool[1]
		0x30,             // ADD_I32
		0x18, 0x01, 0x00, // STORE_VAR_I32  var[1]
		0xB5, // RET_VOID
	}

	container := NewBuilder().
		NumVariables(2).
		AddI32Constant(10).
		AddI32Constant(32).
		AddFunction(0, code, 2, 2).
		Build()

	if container.Header.NumVariables != 2 {
		t.Errorf("NumVariables = %d, want 2", container.Header.NumVariables)
	}
	if container.Header.MaxStackDepth != 2 {
		t.Errorf("MaxStackDepth = %d, want 2", container.Header.MaxStackDepth)
	}
	if container.Header.NumFunctions != 1 {
		t.Errorf("NumFunctions = %d, want 1", container.Header.NumFunctions)
	}

	if container.TaskTable.SharedGlobalsSize != 0 {
		t.Errorf("SharedGlobalsSize = %d, want 0", container.TaskTable.SharedGlobalsSize)
	}
	if len(container.TaskTable.Tasks) != 1 {
		t.Fatalf("Tasks = %d, want 1", len(container.TaskTable.Tasks))
	}
	task := container.TaskTable.Tasks[0]
	if task.TaskType != TaskTypeFreewheeling {
		t.Errorf("TaskType = %v, want Freewheeling", task.TaskType)
	}
	if task.Flags != 0x01 || task.SingleVarIndex != 0xFFFF {
		t.Errorf("unexpected default task fields: %+v", task)
	}
	if len(container.TaskTable.Programs) != 1 {
		t.Fatalf("Programs = %d, want 1", len(container.TaskTable.Programs))
	}
	if container.TaskTable.Programs[0].VarTableCount != 2 {
		t.Errorf("VarTableCount = %d, want 2", container.TaskTable.Programs[0].VarTableCount)
	}

	v0, err := container.ConstantPool.GetI32(0)
	if err != nil || v0 != 10 {
		t.Errorf("GetI32(0) = %d, %v, want 10, nil", v0, err)
	}
	v1, err := container.ConstantPool.GetI32(1)
	if err != nil || v1 != 32 {
		t.Errorf("GetI32(1) = %d, %v, want 32, nil", v1, err)
	}

	got, err := container.Code.GetFunctionBytecode(0)
	if err != nil {
		t.Fatalf("GetFunctionBytecode: %v", err)
	}
	if !bytes.Equal(got, code) {
		t.Errorf("function bytecode = %v, want %v", got, code)
	}
}

func TestContainerRoundTrips(t *testing.T) {
	code := []byte{byte(OpLoadTrue), byte(OpRetVoid)}
	container := NewBuilder().
		NumVariables(1).
		AddI32Constant(42).
		AddFunction(0, code, 1, 1).
		Build()

	var buf bytes.Buffer
	if err := container.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	decoded, err := ReadContainer(&buf)
	if err != nil {
		t.Fatalf("ReadContainer: %v", err)
	}
	if decoded.Header.NumVariables != 1 {
		t.Errorf("NumVariables = %d, want 1", decoded.Header.NumVariables)
	}
	v, err := decoded.ConstantPool.GetI32(0)
	if err != nil || v != 42 {
		t.Errorf("GetI32(0) = %d, %v, want 42, nil", v, err)
	}
	got, err := decoded.Code.GetFunctionBytecode(0)
	if err != nil || !bytes.Equal(got, code) {
		t.Errorf("function bytecode = %v, %v, want %v, nil", got, err, code)
	}
}
