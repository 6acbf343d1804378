package bytecode

import (
	"bytes"
	"testing"
)

func TestTaskTableRoundTrips(t *testing.T) {
	tt := &TaskTable{
		SharedGlobalsSize: 4,
		Tasks: []TaskEntry{{
			TaskID:     1,
			Priority:   5,
			TaskType:   TaskTypeCyclic,
			Flags:      0x01,
			IntervalUs: 100000,
			WatchdogUs: 0,
		}},
		Programs: []ProgramInstanceEntry{{
			InstanceID:      0,
			TaskID:          1,
			EntryFunctionID: 2,
			VarTableCount:   3,
		}},
	}

	var buf bytes.Buffer
	if err := tt.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if uint32(buf.Len()) != tt.SectionSize() {
		t.Errorf("wrote %d bytes, SectionSize() = %d", buf.Len(), tt.SectionSize())
	}

	decoded, err := ReadTaskTable(&buf)
	if err != nil {
		t.Fatalf("ReadTaskTable: %v", err)
	}
	if decoded.SharedGlobalsSize != 4 {
		t.Errorf("SharedGlobalsSize = %d, want 4", decoded.SharedGlobalsSize)
	}
	if len(decoded.Tasks) != 1 || decoded.Tasks[0].TaskType != TaskTypeCyclic {
		t.Fatalf("unexpected decoded tasks: %+v", decoded.Tasks)
	}
	if len(decoded.Programs) != 1 || decoded.Programs[0].EntryFunctionID != 2 {
		t.Fatalf("unexpected decoded programs: %+v", decoded.Programs)
	}
}

func TestReadTaskTableRejectsInvalidTaskType(t *testing.T) {
	tt := &TaskTable{Tasks: []TaskEntry{{TaskType: TaskTypeEvent}}}
	var buf bytes.Buffer
	if err := tt.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.Bytes()
	// task_type byte sits right after task_id(2)+priority(2), at offset 6+4=10
	raw[10] = 0xFF

	if _, err := ReadTaskTable(bytes.NewReader(raw)); err == nil {
		t.Fatal("expected error for invalid task type byte")
	}
}
