package vm

import (
	"sort"

	"github.com/openplc-go/stvm/internal/bytecode"
)

// TaskState is the scheduler's per-task runtime bookkeeping: static
// configuration copied out of the container's TaskEntry plus the mutable
// timing/overrun counters the scheduler updates every round.
type TaskState struct {
	TaskID        uint16
	Priority      uint16
	TaskType      bytecode.TaskType
	IntervalUs    uint64
	WatchdogUs    uint64
	Enabled       bool
	NextDueUs     uint64
	ScanCount     uint64
	LastExecuteUs uint64
	MaxExecuteUs  uint64
	OverrunCount  uint64
}

// ProgramInstanceState is the scheduler's per-program-instance runtime
// bookkeeping, copied out of the container's ProgramInstanceEntry.
type ProgramInstanceState struct {
	InstanceID      uint16
	TaskID          uint16
	EntryFunctionID uint16
	VarTableOffset  uint16
	VarTableCount   uint16
}

// TaskScheduler is a time-agnostic cooperative scheduler: callers pass
// the current time as a microsecond count rather than the scheduler
// reading a clock itself, which makes every scheduling decision testable
// without mocking time.
type TaskScheduler struct {
	TaskStates        []TaskState
	ProgramInstances  []ProgramInstanceState
	SharedGlobalsSize uint16
}

// NewTaskScheduler builds a scheduler from a loaded container's task table.
func NewTaskScheduler(table *bytecode.TaskTable) *TaskScheduler {
	states := make([]TaskState, len(table.Tasks))
	for i, t := range table.Tasks {
		states[i] = TaskState{
			TaskID:     t.TaskID,
			Priority:   t.Priority,
			TaskType:   t.TaskType,
			IntervalUs: t.IntervalUs,
			WatchdogUs: t.WatchdogUs,
			Enabled:    t.Flags&0x01 != 0,
		}
	}
	programs := make([]ProgramInstanceState, len(table.Programs))
	for i, p := range table.Programs {
		programs[i] = ProgramInstanceState{
			InstanceID:      p.InstanceID,
			TaskID:          p.TaskID,
			EntryFunctionID: p.EntryFunctionID,
			VarTableOffset:  p.VarTableOffset,
			VarTableCount:   p.VarTableCount,
		}
	}
	return &TaskScheduler{
		TaskStates:        states,
		ProgramInstances:  programs,
		SharedGlobalsSize: table.SharedGlobalsSize,
	}
}

// CollectReadyTasks returns indices into TaskStates for tasks ready to
// execute at currentTimeUs, sorted by priority ascending then task ID
// ascending (lower priority number runs first, spec.md §5.1).
func (s *TaskScheduler) CollectReadyTasks(currentTimeUs uint64) []int {
	var ready []int
	for i, t := range s.TaskStates {
		if !t.Enabled {
			continue
		}
		switch t.TaskType {
		case bytecode.TaskTypeFreewheeling:
			ready = append(ready, i)
		case bytecode.TaskTypeCyclic:
			if currentTimeUs >= t.NextDueUs {
				ready = append(ready, i)
			}
		case bytecode.TaskTypeEvent:
			// Not yet implemented — event tasks never become ready.
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		a, b := s.TaskStates[ready[i]], s.TaskStates[ready[j]]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.TaskID < b.TaskID
	})
	return ready
}

// RecordExecution updates a task's timing and overrun counters after one
// execution. For a cyclic task, the next due time advances by one
// interval; if that still isn't in the future relative to currentTimeUs,
// the task overran and its schedule is realigned to currentTimeUs plus
// one interval.
func (s *TaskScheduler) RecordExecution(taskIndex int, elapsedUs, currentTimeUs uint64) {
	t := &s.TaskStates[taskIndex]
	t.ScanCount++
	t.LastExecuteUs = elapsedUs
	if elapsedUs > t.MaxExecuteUs {
		t.MaxExecuteUs = elapsedUs
	}

	if t.TaskType == bytecode.TaskTypeCyclic {
		t.NextDueUs += t.IntervalUs
		if t.NextDueUs <= currentTimeUs {
			t.OverrunCount++
			t.NextDueUs = currentTimeUs + t.IntervalUs
		}
	}
}

// ProgramsForTask returns the program instances bound to taskID, in
// declaration order.
func (s *TaskScheduler) ProgramsForTask(taskID uint16) []*ProgramInstanceState {
	var progs []*ProgramInstanceState
	for i := range s.ProgramInstances {
		if s.ProgramInstances[i].TaskID == taskID {
			progs = append(progs, &s.ProgramInstances[i])
		}
	}
	return progs
}

// NextDueUs returns the earliest NextDueUs across enabled cyclic tasks,
// or false if there are none — used to sleep until the next task is due
// when no task is ready this round.
func (s *TaskScheduler) NextDueUs() (uint64, bool) {
	var (
		earliest uint64
		found    bool
	)
	for _, t := range s.TaskStates {
		if !t.Enabled || t.TaskType != bytecode.TaskTypeCyclic {
			continue
		}
		if !found || t.NextDueUs < earliest {
			earliest = t.NextDueUs
			found = true
		}
	}
	return earliest, found
}
