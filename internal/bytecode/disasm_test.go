package bytecode

import (
	"strings"
	"testing"
)

func TestDisassembleSteelThreadChunk(t *testing.T) {
	pool := NewConstantPool()
	c0 := pool.PushI32(10)
	c1 := pool.PushI32(32)

	chunk := NewChunk("Main", 0)
	chunk.emitU16(OpLoadConstI32, uint16(c0), 1)
	chunk.emitU16(OpStoreVarI32, 0, 1)
	chunk.emitU16(OpLoadVarI32, 0, 2)
	chunk.emitU16(OpLoadConstI32, uint16(c1), 2)
	chunk.emit(OpAddI32, 2)
	chunk.emitU16(OpStoreVarI32, 1, 2)
	chunk.emit(OpRetVoid, 3)

	var buf strings.Builder
	NewDisassembler(chunk, pool, &buf).Disassemble()
	out := buf.String()

	for _, want := range []string{"== Main ==", "LOAD_CONST_I32", "const[0] (10)", "STORE_VAR_I32", "var[0]", "ADD_I32", "RET_VOID"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q, got:\n%s", want, out)
		}
	}
}

func TestDisassembleBranchShowsTarget(t *testing.T) {
	pool := NewConstantPool()
	chunk := NewChunk("Branchy", 0)
	chunk.emit(OpLoadTrue, 1)
	jmp := chunk.EmitJump(OpJmpIfNot, 1)
	chunk.emit(OpLoadFalse, 2)
	if err := chunk.PatchJump(jmp); err != nil {
		t.Fatalf("PatchJump: %v", err)
	}
	chunk.emit(OpRetVoid, 3)

	var buf strings.Builder
	NewDisassembler(chunk, pool, &buf).Disassemble()
	out := buf.String()
	if !strings.Contains(out, "JMP_IF_NOT") || !strings.Contains(out, "->") {
		t.Errorf("expected a branch target arrow in disassembly, got:\n%s", out)
	}
}
