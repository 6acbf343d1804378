package vm

import (
	"sync/atomic"
	"time"

	"github.com/openplc-go/stvm/internal/bytecode"
)

// StopHandle is a cloneable handle for requesting a running VM to stop
// from another goroutine (e.g. a signal handler), without giving that
// goroutine direct access to the VM itself.
type StopHandle struct {
	flag *atomic.Bool
}

// RequestStop asks the VM to stop after its current scheduling round.
func (h StopHandle) RequestStop() {
	h.flag.Store(true)
}

// Vm is a newly constructed VM with no loaded program. The only valid
// next step is Load, which consumes it and returns a VmReady — this
// type-state chain (Vm -> VmReady -> VmRunning -> VmStopped/VmFaulted)
// makes calling a lifecycle method out of order a compile error instead
// of a runtime panic.
type Vm struct{}

// New returns an empty VM.
func New() Vm {
	return Vm{}
}

// Load allocates the operand stack and variable table for container and
// returns a VM ready to start scan execution.
func (Vm) Load(container *bytecode.Container) VmReady {
	return VmReady{
		container: container,
		stack:     NewOperandStack(container.Header.MaxStackDepth),
		variables: NewVariableTable(container.Header.NumVariables),
	}
}

// VmReady holds a loaded program's allocated storage, not yet scheduled.
type VmReady struct {
	container *bytecode.Container
	stack     *OperandStack
	variables *VariableTable
}

// Start builds the task scheduler from the container's task table and
// transitions to VmRunning.
func (r VmReady) Start() VmRunning {
	return VmRunning{
		container:    r.container,
		stack:        r.stack,
		variables:    r.variables,
		scheduler:    NewTaskScheduler(&r.container.TaskTable),
		stopFlag:     &atomic.Bool{},
		startInstant: time.Now(),
	}
}

// ReadVariable reads variable index as an i32.
func (r VmReady) ReadVariable(index uint16) (int32, error) {
	slot, err := r.variables.Load(index)
	if err != nil {
		return 0, err
	}
	return slot.AsI32(), nil
}

// VmRunning is a VM actively executing scan cycles. Call RunRound
// repeatedly to advance it; a trap transitions the caller to VmFaulted
// via Fault, a clean shutdown transitions to VmStopped via Stop.
type VmRunning struct {
	container    *bytecode.Container
	stack        *OperandStack
	variables    *VariableTable
	scheduler    *TaskScheduler
	scanCount    uint64
	stopFlag     *atomic.Bool
	startInstant time.Time
}

// RunRound executes one scheduling round: collects ready tasks, runs
// each one's bound program instances in priority order, and updates
// scheduler timing. If no task is ready, it sleeps until the next cyclic
// task is due rather than busy-looping.
func (r *VmRunning) RunRound() (*FaultContext, error) {
	currentUs := uint64(time.Since(r.startInstant).Microseconds())

	ready := r.scheduler.CollectReadyTasks(currentUs)
	if len(ready) == 0 {
		if nextDue, ok := r.scheduler.NextDueUs(); ok && nextDue > currentUs {
			time.Sleep(time.Duration(nextDue-currentUs) * time.Microsecond)
		}
		return nil, nil
	}

	for _, taskIdx := range ready {
		taskState := r.scheduler.TaskStates[taskIdx]
		taskID := taskState.TaskID
		watchdogUs := taskState.WatchdogUs

		programs := r.scheduler.ProgramsForTask(taskID)
		taskStart := uint64(time.Since(r.startInstant).Microseconds())

		for _, prog := range programs {
			code, err := r.container.Code.GetFunctionBytecode(prog.EntryFunctionID)
			if err != nil {
				return &FaultContext{
					Trap:       InvalidFunctionID(prog.EntryFunctionID),
					TaskID:     taskID,
					InstanceID: prog.InstanceID,
				}, nil
			}

			scope := VariableScope{
				SharedGlobalsSize: r.scheduler.SharedGlobalsSize,
				InstanceOffset:    prog.VarTableOffset,
				InstanceCount:     prog.VarTableCount,
			}

			r.stack.Reset()
			if err := execute(code, &r.container.ConstantPool, r.stack, r.variables, scope); err != nil {
				trap, _ := err.(Trap)
				return &FaultContext{Trap: trap, TaskID: taskID, InstanceID: prog.InstanceID}, nil
			}
		}

		taskElapsed := uint64(time.Since(r.startInstant).Microseconds()) - taskStart

		if watchdogUs > 0 && taskElapsed > watchdogUs {
			return &FaultContext{Trap: WatchdogTimeout(taskID), TaskID: taskID}, nil
		}

		r.scheduler.RecordExecution(taskIdx, taskElapsed, taskStart)
	}

	r.scanCount++
	return nil, nil
}

// ReadVariable reads variable index as an i32.
func (r *VmRunning) ReadVariable(index uint16) (int32, error) {
	slot, err := r.variables.Load(index)
	if err != nil {
		return 0, err
	}
	return slot.AsI32(), nil
}

// NumVariables returns the number of variable slots in the loaded container.
func (r *VmRunning) NumVariables() uint16 {
	return r.container.Header.NumVariables
}

// SetWatchdogOverride replaces every task's configured watchdog with us,
// for callers (e.g. the CLI's --watchdog-us flag) that need to tighten
// or loosen the container's own timing budget without recompiling it. A
// value of 0 disables watchdog enforcement entirely, matching the
// per-task convention already used by RunRound.
func (r *VmRunning) SetWatchdogOverride(us uint64) {
	for i := range r.scheduler.TaskStates {
		r.scheduler.TaskStates[i].WatchdogUs = us
	}
}

// ScanCount returns the number of completed scan cycles.
func (r *VmRunning) ScanCount() uint64 {
	return r.scanCount
}

// StopHandle returns a cloneable handle that can request this VM to stop.
func (r *VmRunning) StopHandle() StopHandle {
	return StopHandle{flag: r.stopFlag}
}

// StopRequested reports whether a stop has been requested.
func (r *VmRunning) StopRequested() bool {
	return r.stopFlag.Load()
}

// RequestStop asks the VM to stop after the current round.
func (r *VmRunning) RequestStop() {
	r.stopFlag.Store(true)
}

// Stop transitions to the stopped state (clean shutdown).
func (r VmRunning) Stop() VmStopped {
	return VmStopped{
		container: r.container,
		variables: r.variables,
		scanCount: r.scanCount,
	}
}

// Fault transitions to the faulted state after a trap.
func (r VmRunning) Fault(ctx FaultContext) VmFaulted {
	return VmFaulted{
		trap:       ctx.Trap,
		taskID:     ctx.TaskID,
		instanceID: ctx.InstanceID,
		container:  r.container,
		variables:  r.variables,
	}
}

// VmStopped is a VM that has been cleanly shut down.
type VmStopped struct {
	container *bytecode.Container
	variables *VariableTable
	scanCount uint64
}

// ReadVariable reads variable index as an i32.
func (s VmStopped) ReadVariable(index uint16) (int32, error) {
	slot, err := s.variables.Load(index)
	if err != nil {
		return 0, err
	}
	return slot.AsI32(), nil
}

// NumVariables returns the number of variable slots.
func (s VmStopped) NumVariables() uint16 {
	return s.container.Header.NumVariables
}

// ScanCount returns the total number of completed scheduling rounds.
func (s VmStopped) ScanCount() uint64 {
	return s.scanCount
}

// VmFaulted is a VM that stopped due to a trap.
type VmFaulted struct {
	trap       Trap
	taskID     uint16
	instanceID uint16
	container  *bytecode.Container
	variables  *VariableTable
}

// TrapValue returns the trap that caused the fault.
func (f VmFaulted) TrapValue() Trap {
	return f.trap
}

// TaskID returns the task that was executing when the trap occurred.
func (f VmFaulted) TaskID() uint16 {
	return f.taskID
}

// InstanceID returns the program instance that was executing when the
// trap occurred.
func (f VmFaulted) InstanceID() uint16 {
	return f.instanceID
}

// ReadVariable reads variable index as an i32.
func (f VmFaulted) ReadVariable(index uint16) (int32, error) {
	slot, err := f.variables.Load(index)
	if err != nil {
		return 0, err
	}
	return slot.AsI32(), nil
}

// NumVariables returns the number of variable slots.
func (f VmFaulted) NumVariables() uint16 {
	return f.container.Header.NumVariables
}
