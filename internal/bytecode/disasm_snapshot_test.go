package bytecode

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestDisassembleSnapshotSteelThread snapshots a known-stable chunk's
// disassembly text, the same way the teacher snapshots DWScript fixture
// output -- a regression in operand formatting, mnemonic spelling, or
// branch-target arithmetic changes this text and fails the diff.
func TestDisassembleSnapshotSteelThread(t *testing.T) {
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

	var buf bytes.Buffer
	NewDisassembler(chunk, pool, &buf).Disassemble()

	snaps.MatchSnapshot(t, buf.String())
}

// TestContainerRoundTripSnapshot snapshots a whole serialized container's
// bytes (hex-encoded so the snapshot file stays text), catching any
// accidental change to header field order, offsets, or section layout.
func TestContainerRoundTripSnapshot(t *testing.T) {
	b := NewBuilder()
	c0 := b.Pool().PushI32(7)

	chunk := NewChunk("Main", 1)
	chunk.emitU16(OpLoadConstI32, uint16(c0), 1)
	chunk.emitU16(OpStoreVarI32, 0, 1)
	chunk.emit(OpRetVoid, 1)

	b.AddFunction(0, chunk.Code, 2, 1)
	b.NumVariables(1)
	container := b.Build()

	var buf bytes.Buffer
	if err := container.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	snaps.MatchSnapshot(t, hex.EncodeToString(buf.Bytes()))
}
