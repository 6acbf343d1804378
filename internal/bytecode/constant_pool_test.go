package bytecode

import (
	"bytes"
	"testing"
)

func TestConstantPoolI32RoundTrips(t *testing.T) {
	pool := NewConstantPool()
	pool.PushI32(10)
	pool.PushI32(32)

	var buf bytes.Buffer
	if err := pool.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	decoded, err := ReadConstantPool(&buf)
	if err != nil {
		t.Fatalf("ReadConstantPool: %v", err)
	}
	if decoded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", decoded.Len())
	}
	if v, err := decoded.GetI32(0); err != nil || v != 10 {
		t.Errorf("GetI32(0) = %d, %v, want 10, nil", v, err)
	}
	if v, err := decoded.GetI32(1); err != nil || v != 32 {
		t.Errorf("GetI32(1) = %d, %v, want 32, nil", v, err)
	}
}

func TestConstantPoolGetI32OutOfBounds(t *testing.T) {
	pool := NewConstantPool()
	if _, err := pool.GetI32(0); err == nil {
		t.Fatal("expected error for empty pool")
	}
}

func TestConstantPoolMixedKinds(t *testing.T) {
	pool := NewConstantPool()
	pool.PushI32(10)
	pool.PushF64(3.14)

	entries := pool.Entries()
	if entries[0].Type != ConstI32 {
		t.Errorf("entries[0].Type = %v, want I32", entries[0].Type)
	}
	if entries[1].Type != ConstF64 {
		t.Errorf("entries[1].Type = %v, want F64", entries[1].Type)
	}
}

func TestConstantPoolGetI32WrongTypeErrors(t *testing.T) {
	pool := NewConstantPool()
	pool.PushF64(1.0)
	if _, err := pool.GetI32(0); err == nil {
		t.Fatal("expected type mismatch error")
	}
}
