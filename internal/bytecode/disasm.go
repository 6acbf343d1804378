package bytecode

import (
	"fmt"
	"io"
)

// Disassembler renders a Chunk's instructions as human-readable text,
// for the `stvm disasm` CLI command and for golden-file tests.
type Disassembler struct {
	writer io.Writer
	chunk  *Chunk
	pool   *ConstantPool
}

// NewDisassembler returns a disassembler writing chunk's instructions to
// w, resolving LOAD_CONST operands against pool.
func NewDisassembler(chunk *Chunk, pool *ConstantPool, w io.Writer) *Disassembler {
	return &Disassembler{writer: w, chunk: chunk, pool: pool}
}

// Disassemble writes the chunk's header line followed by one line per
// instruction.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.writer, "== %s ==\n", d.chunk.Name)
	for pc := 0; pc < len(d.chunk.Code); {
		pc = d.instruction(pc)
	}
}

// instruction writes one instruction's line and returns the offset of
// the next instruction.
func (d *Disassembler) instruction(pc int) int {
	op := OpCode(d.chunk.Code[pc])
	line := d.chunk.LineFor(pc)
	kind, width := op.Operand()

	if width == 0 {
		fmt.Fprintf(d.writer, "%04d  line %-4d %s\n", pc, line, op.String())
		return pc + 1
	}

	operand := ReadU16(d.chunk.Code, pc+1)
	switch kind {
	case OperandBranchOffset:
		target := pc + 1 + width + int(int16(operand))
		fmt.Fprintf(d.writer, "%04d  line %-4d %-14s %d -> %04d\n", pc, line, op.String(), int16(operand), target)
	case OperandConstIndex:
		fmt.Fprintf(d.writer, "%04d  line %-4d %-14s const[%d] %s\n", pc, line, op.String(), operand, d.constString(operand))
	case OperandVarIndex:
		fmt.Fprintf(d.writer, "%04d  line %-4d %-14s var[%d]\n", pc, line, op.String(), operand)
	case OperandBuiltinID:
		fmt.Fprintf(d.writer, "%04d  line %-4d %-14s builtin 0x%04X\n", pc, line, op.String(), operand)
	default:
		fmt.Fprintf(d.writer, "%04d  line %-4d %-14s %d\n", pc, line, op.String(), operand)
	}
	return pc + 1 + width
}

func (d *Disassembler) constString(idx uint16) string {
	if d.pool == nil || int(idx) >= d.pool.Len() {
		return ""
	}
	e := d.pool.Entries()[idx]
	switch e.Type {
	case ConstI32:
		v, _ := d.pool.GetI32(int(idx))
		return fmt.Sprintf("(%d)", v)
	case ConstI64:
		v, _ := d.pool.GetI64(int(idx))
		return fmt.Sprintf("(%d)", v)
	default:
		return ""
	}
}
