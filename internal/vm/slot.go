package vm

// Slot is one operand-stack entry or variable-table cell. Every runtime
// value is stored as a fixed 8-byte cell regardless of its declared
// width, which keeps the stack and variable table simple fixed-size
// arrays (no tagged union, no boxing) at the cost of always reserving a
// full 8 bytes even for a BOOL.
type Slot struct {
	bits uint64
}

// SlotFromI32 wraps a 32-bit signed integer in a Slot, sign-extending into
// the 64-bit cell so AsI64/AsI32 agree on the represented value.
func SlotFromI32(v int32) Slot {
	return Slot{bits: uint64(int64(v))}
}

// SlotFromI64 wraps a 64-bit signed integer in a Slot.
func SlotFromI64(v int64) Slot {
	return Slot{bits: uint64(v)}
}

// SlotFromBool wraps a boolean as a Slot holding 0 or 1.
func SlotFromBool(v bool) Slot {
	if v {
		return Slot{bits: 1}
	}
	return Slot{bits: 0}
}

// AsI32 reads the slot's low 32 bits as a signed integer.
func (s Slot) AsI32() int32 {
	return int32(uint32(s.bits))
}

// AsI64 reads the slot's full 64 bits as a signed integer.
func (s Slot) AsI64() int64 {
	return int64(s.bits)
}

// AsBool reads the slot as a boolean: any nonzero bit pattern is true.
func (s Slot) AsBool() bool {
	return s.bits != 0
}

// AsU32 reads the slot's low 32 bits as an unsigned integer, for the
// unsigned comparison and DIV/MOD instruction families.
func (s Slot) AsU32() uint32 {
	return uint32(s.bits)
}

// AsU64 reads the slot's full 64 bits as an unsigned integer.
func (s Slot) AsU64() uint64 {
	return s.bits
}
