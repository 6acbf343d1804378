package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// TaskType classifies how a TaskEntry is scheduled (spec.md §5: Cyclic,
// Freewheeling, Event). task_type.rs itself was not part of the retained
// original source, so these numeric values are this port's own choice
// (recorded in the design ledger) rather than a literal carry-over.
type TaskType uint8

const (
	TaskTypeCyclic TaskType = iota
	TaskTypeFreewheeling
	TaskTypeEvent
)

func (t TaskType) String() string {
	switch t {
	case TaskTypeCyclic:
		return "Cyclic"
	case TaskTypeFreewheeling:
		return "Freewheeling"
	case TaskTypeEvent:
		return "Event"
	default:
		return "Unknown"
	}
}

// InvalidTaskTypeError reports a task_type byte in a container that does
// not correspond to any TaskType.
type InvalidTaskTypeError struct{ Value uint8 }

func (e InvalidTaskTypeError) Error() string {
	return fmt.Sprintf("bytecode: invalid task type byte 0x%02X", e.Value)
}

func taskTypeFromByte(b uint8) (TaskType, error) {
	switch TaskType(b) {
	case TaskTypeCyclic, TaskTypeFreewheeling, TaskTypeEvent:
		return TaskType(b), nil
	default:
		return 0, InvalidTaskTypeError{Value: b}
	}
}

const (
	taskEntrySize            = 32
	programInstanceEntrySize = 16
)

// TaskEntry is one scheduled task's fixed-layout record (32 bytes).
type TaskEntry struct {
	TaskID            uint16
	Priority          uint16
	TaskType          TaskType
	Flags             uint8
	IntervalUs        uint64
	SingleVarIndex    uint16
	WatchdogUs        uint64
	InputImageOffset  uint16
	OutputImageOffset uint16
	Reserved          [4]byte
}

// ProgramInstanceEntry binds a declared PROGRAM to a task (16 bytes).
type ProgramInstanceEntry struct {
	InstanceID       uint16
	TaskID           uint16
	EntryFunctionID  uint16
	VarTableOffset   uint16
	VarTableCount    uint16
	FbInstanceOffset uint16
	FbInstanceCount  uint16
	Reserved         uint16
}

// TaskTable is the container's task table section: every scheduled task
// plus every program instance bound to one, and the size of the shared
// global variable region every program instance's scope sits alongside.
type TaskTable struct {
	SharedGlobalsSize uint16
	Tasks             []TaskEntry
	Programs          []ProgramInstanceEntry
}

// SectionSize returns this table's serialized size: a 6-byte header plus
// 32 bytes per task and 16 bytes per program instance.
func (t *TaskTable) SectionSize() uint32 {
	return 6 + uint32(len(t.Tasks))*taskEntrySize + uint32(len(t.Programs))*programInstanceEntrySize
}

// WriteTo serializes the task table to w.
func (t *TaskTable) WriteTo(w io.Writer) error {
	header := []interface{}{uint16(len(t.Tasks)), uint16(len(t.Programs)), t.SharedGlobalsSize}
	for _, f := range header {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	for _, task := range t.Tasks {
		fields := []interface{}{
			task.TaskID, task.Priority, uint8(task.TaskType), task.Flags,
			task.IntervalUs, task.SingleVarIndex, task.WatchdogUs,
			task.InputImageOffset, task.OutputImageOffset, task.Reserved,
		}
		for _, f := range fields {
			if err := binary.Write(w, binary.LittleEndian, f); err != nil {
				return err
			}
		}
	}
	for _, prog := range t.Programs {
		fields := []interface{}{
			prog.InstanceID, prog.TaskID, prog.EntryFunctionID,
			prog.VarTableOffset, prog.VarTableCount,
			prog.FbInstanceOffset, prog.FbInstanceCount, prog.Reserved,
		}
		for _, f := range fields {
			if err := binary.Write(w, binary.LittleEndian, f); err != nil {
				return err
			}
		}
	}
	return nil
}

var errShortTaskTableHeader = errors.New("bytecode: truncated task table header")

// ReadTaskTable deserializes a TaskTable from r.
func ReadTaskTable(r io.Reader) (*TaskTable, error) {
	var numTasks, numPrograms uint16
	t := &TaskTable{}
	header := []interface{}{&numTasks, &numPrograms, &t.SharedGlobalsSize}
	for _, f := range header {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, errShortTaskTableHeader
		}
	}

	t.Tasks = make([]TaskEntry, numTasks)
	for i := range t.Tasks {
		var taskTypeByte uint8
		task := &t.Tasks[i]
		if err := binary.Read(r, binary.LittleEndian, &task.TaskID); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &task.Priority); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &taskTypeByte); err != nil {
			return nil, err
		}
		taskType, err := taskTypeFromByte(taskTypeByte)
		if err != nil {
			return nil, err
		}
		task.TaskType = taskType
		rest := []interface{}{
			&task.Flags, &task.IntervalUs, &task.SingleVarIndex, &task.WatchdogUs,
			&task.InputImageOffset, &task.OutputImageOffset, &task.Reserved,
		}
		for _, f := range rest {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return nil, err
			}
		}
	}

	t.Programs = make([]ProgramInstanceEntry, numPrograms)
	for i := range t.Programs {
		prog := &t.Programs[i]
		fields := []interface{}{
			&prog.InstanceID, &prog.TaskID, &prog.EntryFunctionID,
			&prog.VarTableOffset, &prog.VarTableCount,
			&prog.FbInstanceOffset, &prog.FbInstanceCount, &prog.Reserved,
		}
		for _, f := range fields {
			if err := binary.Read(r, binary.LittleEndian, f); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}
