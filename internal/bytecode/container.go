package bytecode

import (
	"encoding/binary"
	"errors"
	"io"
)

// Magic is the fixed 4-byte container signature ("IPLC" read little-endian
// as a u32), written first in every container so a reader can reject a
// foreign file before trusting anything else in the header.
const Magic uint32 = 0x49504C43

// FormatVersion is the container format this package reads and writes.
// ReadHeader rejects any other value rather than guessing at a newer or
// older layout.
const FormatVersion uint16 = 1

// HeaderSize is the fixed, padded size of FileHeader on disk.
const HeaderSize = 256

// ErrInvalidMagic is returned by ReadHeader when the leading 4 bytes are
// not Magic.
var ErrInvalidMagic = errors.New("bytecode: invalid container magic")

// ErrUnsupportedVersion is returned by ReadHeader when format_version
// does not equal FormatVersion.
var ErrUnsupportedVersion = errors.New("bytecode: unsupported container format version")

// FileHeader is the fixed-layout 256-byte header every container begins
// with (spec.md §6.1). Every multi-byte field is little-endian. Hash
// fields are opaque 32-byte digests this implementation always writes as
// zero (no content-signing scheme is implemented) but preserves on
// round-trip so a signed container produced by a future tool is not
// silently corrupted by passing through this one.
type FileHeader struct {
	Magic         uint32
	FormatVersion uint16
	Profile       uint8
	Flags         uint8
	ContentHash   [32]byte
	SourceHash    [32]byte
	DebugHash     [32]byte
	LayoutHash    [32]byte

	MaxStackDepth  uint16
	MaxCallDepth   uint16
	NumVariables   uint16
	NumFbInstances uint16

	TotalFbInstanceBytes uint32
	TotalStrVarBytes     uint32
	TotalWstrVarBytes    uint32

	NumTempStrBufs  uint16
	NumTempWstrBufs uint16
	MaxStrLength    uint16
	MaxWstrLength   uint16

	NumFunctions uint16
	NumFbTypes   uint16
	NumArrays    uint16

	SigSectionOffset uint32
	SigSectionSize   uint32

	DebugSigOffset uint32
	DebugSigSize   uint32

	TypeSectionOffset uint32
	TypeSectionSize   uint32

	ConstSectionOffset uint32
	ConstSectionSize   uint32

	CodeSectionOffset uint32
	CodeSectionSize   uint32

	DebugSectionOffset uint32
	DebugSectionSize   uint32

	InputImageBytes  uint16
	OutputImageBytes uint16
	MemoryImageBytes uint16
	EntryFunctionID  uint16

	Reserved [30]byte
}

// NewFileHeader returns a header with Magic/FormatVersion set and every
// other field zeroed, the same default a freshly built container starts
// from before the compiler fills in section offsets and counts.
func NewFileHeader() *FileHeader {
	return &FileHeader{Magic: Magic, FormatVersion: FormatVersion}
}

func (h *FileHeader) fields() []interface{} {
	return []interface{}{
		h.Magic, h.FormatVersion, h.Profile, h.Flags,
		h.ContentHash, h.SourceHash, h.DebugHash, h.LayoutHash,
		h.MaxStackDepth, h.MaxCallDepth, h.NumVariables, h.NumFbInstances,
		h.TotalFbInstanceBytes, h.TotalStrVarBytes, h.TotalWstrVarBytes,
		h.NumTempStrBufs, h.NumTempWstrBufs, h.MaxStrLength, h.MaxWstrLength,
		h.NumFunctions, h.NumFbTypes, h.NumArrays,
		h.SigSectionOffset, h.SigSectionSize,
		h.DebugSigOffset, h.DebugSigSize,
		h.TypeSectionOffset, h.TypeSectionSize,
		h.ConstSectionOffset, h.ConstSectionSize,
		h.CodeSectionOffset, h.CodeSectionSize,
		h.DebugSectionOffset, h.DebugSectionSize,
		h.InputImageBytes, h.OutputImageBytes, h.MemoryImageBytes,
		h.EntryFunctionID, h.Reserved,
	}
}

// WriteTo writes exactly HeaderSize bytes to w, in field-declaration order.
func (h *FileHeader) WriteTo(w io.Writer) error {
	for _, f := range h.fields() {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadHeader reads and validates a FileHeader from r, consuming exactly
// HeaderSize bytes.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	h := &FileHeader{}
	if err := binary.Read(r, binary.LittleEndian, &h.Magic); err != nil {
		return nil, err
	}
	if h.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &h.FormatVersion); err != nil {
		return nil, err
	}
	if h.FormatVersion != FormatVersion {
		return nil, ErrUnsupportedVersion
	}
	rest := []interface{}{
		&h.Profile, &h.Flags,
		&h.ContentHash, &h.SourceHash, &h.DebugHash, &h.LayoutHash,
		&h.MaxStackDepth, &h.MaxCallDepth, &h.NumVariables, &h.NumFbInstances,
		&h.TotalFbInstanceBytes, &h.TotalStrVarBytes, &h.TotalWstrVarBytes,
		&h.NumTempStrBufs, &h.NumTempWstrBufs, &h.MaxStrLength, &h.MaxWstrLength,
		&h.NumFunctions, &h.NumFbTypes, &h.NumArrays,
		&h.SigSectionOffset, &h.SigSectionSize,
		&h.DebugSigOffset, &h.DebugSigSize,
		&h.TypeSectionOffset, &h.TypeSectionSize,
		&h.ConstSectionOffset, &h.ConstSectionSize,
		&h.CodeSectionOffset, &h.CodeSectionSize,
		&h.DebugSectionOffset, &h.DebugSectionSize,
		&h.InputImageBytes, &h.OutputImageBytes, &h.MemoryImageBytes,
		&h.EntryFunctionID, &h.Reserved,
	}
	for _, f := range rest {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Container is a fully assembled bytecode program: the fixed header plus
// every section a compiled PLC program needs to be scheduled and run
// (spec.md §6).
type Container struct {
	Header       FileHeader
	TaskTable    TaskTable
	ConstantPool ConstantPool
	Code         CodeSection
}

// WriteTo serializes the container: the 256-byte header (with section
// offsets/sizes filled in to match what follows), then the task table,
// constant pool, and code sections back to back.
func (c *Container) WriteTo(w io.Writer) error {
	h := c.Header
	offset := uint32(HeaderSize)
	offset += c.TaskTable.SectionSize()

	h.ConstSectionOffset = offset
	h.ConstSectionSize = c.ConstantPool.SectionSize()
	offset += h.ConstSectionSize

	h.CodeSectionOffset = offset
	h.CodeSectionSize = c.Code.SectionSize()
	offset += h.CodeSectionSize

	if err := h.WriteTo(w); err != nil {
		return err
	}
	if err := c.TaskTable.WriteTo(w); err != nil {
		return err
	}
	if err := c.ConstantPool.WriteTo(w); err != nil {
		return err
	}
	return c.Code.WriteTo(w)
}

// ReadContainer deserializes a Container previously written by WriteTo.
func ReadContainer(r io.Reader) (*Container, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	taskTable, err := ReadTaskTable(r)
	if err != nil {
		return nil, err
	}
	constPool, err := ReadConstantPool(r)
	if err != nil {
		return nil, err
	}
	code, err := ReadCodeSection(r, h.CodeSectionSize)
	if err != nil {
		return nil, err
	}
	return &Container{
		Header:       *h,
		TaskTable:    *taskTable,
		ConstantPool: *constPool,
		Code:         *code,
	}, nil
}
