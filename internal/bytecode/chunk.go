package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Chunk is one compiled function or program body: a flat byte stream of
// instructions plus the declared variable count its VariableScope needs
// (spec.md §4.6: each POU gets a contiguous slice of the variable table
// sized to its own locals plus any nested FB instance storage).
type Chunk struct {
	Name          string
	NumVariables  int
	Code          []byte
	SourceLines   []int // SourceLines[pc] = source line for the instruction at byte offset pc, sparse (only set at instruction starts)
}

// NewChunk returns an empty chunk for the named function/program.
func NewChunk(name string, numVariables int) *Chunk {
	return &Chunk{Name: name, NumVariables: numVariables}
}

// emit appends an opcode with no operand and records its source line.
func (c *Chunk) emit(op OpCode, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	c.recordLine(offset, line)
	return offset
}

// emitU16 appends an opcode followed by a little-endian u16 operand.
func (c *Chunk) emitU16(op OpCode, operand uint16, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, byte(op))
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], operand)
	c.Code = append(c.Code, buf[:]...)
	c.recordLine(offset, line)
	return offset
}

// patchU16 overwrites the u16 operand at an instruction previously emitted
// with emitU16 — used to back-patch forward branch targets once the jump
// destination is known.
func (c *Chunk) patchU16(instructionOffset int, operand uint16) {
	binary.LittleEndian.PutUint16(c.Code[instructionOffset+1:instructionOffset+3], operand)
}

// EmitJump appends a branch opcode (OpJmp or OpJmpIfNot) with a placeholder
// offset and returns the instruction's byte offset, for later patching once
// the jump target is known.
func (c *Chunk) EmitJump(op OpCode, line int) int {
	return c.emitU16(op, 0, line)
}

// PatchJump backfills a branch instruction previously emitted with
// EmitJump so it lands at the current end of the chunk — the offset is
// relative to the instruction immediately following the branch, per the
// container format's branch operand semantics.
func (c *Chunk) PatchJump(instructionOffset int) error {
	target := len(c.Code)
	nextInstruction := instructionOffset + 3
	offset := target - nextInstruction
	if offset > 0x7FFF || offset < -0x8000 {
		return fmt.Errorf("bytecode: jump offset %d out of i16 range", offset)
	}
	c.patchU16(instructionOffset, uint16(int16(offset)))
	return nil
}

// EmitLoop appends an unconditional jump back to loopStart (a byte offset
// captured before the loop body was compiled).
func (c *Chunk) EmitLoop(loopStart, line int) error {
	offset := c.emitU16(OpJmp, 0, line)
	nextInstruction := offset + 3
	backOffset := loopStart - nextInstruction
	if backOffset < -0x8000 {
		return fmt.Errorf("bytecode: loop offset %d out of i16 range", backOffset)
	}
	c.patchU16(offset, uint16(int16(backOffset)))
	return nil
}

func (c *Chunk) recordLine(offset, line int) {
	for len(c.SourceLines) <= offset {
		c.SourceLines = append(c.SourceLines, 0)
	}
	c.SourceLines[offset] = line
}

// LineFor returns the source line recorded for the instruction starting at
// byte offset pc, or 0 if none was recorded.
func (c *Chunk) LineFor(pc int) int {
	if pc < 0 || pc >= len(c.SourceLines) {
		return 0
	}
	return c.SourceLines[pc]
}

// ReadU16 decodes a little-endian u16 operand starting at offset.
func ReadU16(code []byte, offset int) uint16 {
	return binary.LittleEndian.Uint16(code[offset : offset+2])
}

// ReadI16 decodes a little-endian i16 branch offset starting at offset.
func ReadI16(code []byte, offset int) int16 {
	return int16(ReadU16(code, offset))
}
