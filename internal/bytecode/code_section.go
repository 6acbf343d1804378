package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
)

const funcEntrySize = 14

// FuncEntry locates one compiled function or program body within the
// code section's single shared bytecode blob.
type FuncEntry struct {
	FunctionID      uint16
	BytecodeOffset  uint32
	BytecodeLength  uint32
	MaxStackDepth   uint16
	NumLocals       uint16
}

// CodeSection holds every compiled function/program's bytecode,
// concatenated into one blob and indexed by FuncEntry offsets — this
// keeps the container's code section a single contiguous region instead
// of one per function.
type CodeSection struct {
	Functions []FuncEntry
	Bytecode  []byte
}

// GetFunctionBytecode returns the bytecode slice for functionID, or an
// error if no function with that ID was added.
func (c *CodeSection) GetFunctionBytecode(functionID uint16) ([]byte, error) {
	for _, f := range c.Functions {
		if f.FunctionID == functionID {
			return c.Bytecode[f.BytecodeOffset : f.BytecodeOffset+f.BytecodeLength], nil
		}
	}
	return nil, fmt.Errorf("bytecode: no function with id %d", functionID)
}

// SectionSize returns the code section's serialized byte length: a
// 2-byte function count, one 14-byte FuncEntry per function, then the
// raw bytecode blob.
func (c *CodeSection) SectionSize() uint32 {
	return 2 + uint32(len(c.Functions))*funcEntrySize + uint32(len(c.Bytecode))
}

// WriteTo serializes the code section to w.
func (c *CodeSection) WriteTo(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(c.Functions))); err != nil {
		return err
	}
	for _, f := range c.Functions {
		fields := []interface{}{f.FunctionID, f.BytecodeOffset, f.BytecodeLength, f.MaxStackDepth, f.NumLocals}
		for _, field := range fields {
			if err := binary.Write(w, binary.LittleEndian, field); err != nil {
				return err
			}
		}
	}
	_, err := w.Write(c.Bytecode)
	return err
}

// ReadCodeSection deserializes a CodeSection from r. codeBytes is the
// total length of the trailing bytecode blob, taken from the container
// header's code section size since the blob itself carries no length
// prefix.
func ReadCodeSection(r io.Reader, codeBytes uint32) (*CodeSection, error) {
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	c := &CodeSection{Functions: make([]FuncEntry, count)}
	for i := range c.Functions {
		f := &c.Functions[i]
		fields := []interface{}{&f.FunctionID, &f.BytecodeOffset, &f.BytecodeLength, &f.MaxStackDepth, &f.NumLocals}
		for _, field := range fields {
			if err := binary.Read(r, binary.LittleEndian, field); err != nil {
				return nil, err
			}
		}
	}
	blobLen := codeBytes - 2 - uint32(count)*funcEntrySize
	c.Bytecode = make([]byte, blobLen)
	if _, err := io.ReadFull(r, c.Bytecode); err != nil {
		return nil, err
	}
	return c, nil
}
