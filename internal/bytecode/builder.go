package bytecode

// Builder assembles a Container incrementally. It exists mainly to let
// the compiler (and tests) construct a container without juggling every
// section's internals directly — add constants and functions as they are
// compiled, then Build() once at the end.
type Builder struct {
	numVariables      uint16
	maxStackDepth     uint16
	pool              *ConstantPool
	functions         []FuncEntry
	bytecode          []byte
	tasks             []TaskEntry
	programs          []ProgramInstanceEntry
	sharedGlobalsSize uint16
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{pool: NewConstantPool()}
}

// Pool returns the builder's shared constant pool, so multiple compiled
// chunks destined for the same container can intern constants into one
// pool and reference them by a consistent index.
func (b *Builder) Pool() *ConstantPool {
	return b.pool
}

// NumVariables sets the total number of variable table entries.
func (b *Builder) NumVariables(n uint16) *Builder {
	b.numVariables = n
	return b
}

// AddI32Constant interns an i32 constant and returns the builder for chaining.
func (b *Builder) AddI32Constant(v int32) *Builder {
	b.pool.PushI32(v)
	return b
}

// AddI64Constant interns an i64 constant.
func (b *Builder) AddI64Constant(v int64) *Builder {
	b.pool.PushI64(v)
	return b
}

// AddF32Constant interns an f32 constant.
func (b *Builder) AddF32Constant(v float32) *Builder {
	b.pool.PushF32(v)
	return b
}

// AddF64Constant interns an f64 constant.
func (b *Builder) AddF64Constant(v float64) *Builder {
	b.pool.PushF64(v)
	return b
}

// AddFunction appends a compiled function/program body's bytecode to the
// shared code blob and records its FuncEntry.
func (b *Builder) AddFunction(functionID uint16, code []byte, maxStackDepth, numLocals uint16) *Builder {
	offset := uint32(len(b.bytecode))
	b.functions = append(b.functions, FuncEntry{
		FunctionID:     functionID,
		BytecodeOffset: offset,
		BytecodeLength: uint32(len(code)),
		MaxStackDepth:  maxStackDepth,
		NumLocals:      numLocals,
	})
	b.bytecode = append(b.bytecode, code...)
	if maxStackDepth > b.maxStackDepth {
		b.maxStackDepth = maxStackDepth
	}
	return b
}

// NumLocalsFor returns the variable count recorded for a previously
// added function, or 0 if functionID is unknown.
func (b *Builder) NumLocalsFor(functionID uint16) uint16 {
	for _, f := range b.functions {
		if f.FunctionID == functionID {
			return f.NumLocals
		}
	}
	return 0
}

// AddTask appends a scheduled task entry.
func (b *Builder) AddTask(task TaskEntry) *Builder {
	b.tasks = append(b.tasks, task)
	return b
}

// AddProgramInstance appends a program instance bound to a task.
func (b *Builder) AddProgramInstance(prog ProgramInstanceEntry) *Builder {
	b.programs = append(b.programs, prog)
	return b
}

// SharedGlobalsSize sets the task table's shared-globals region size.
func (b *Builder) SharedGlobalsSize(n uint16) *Builder {
	b.sharedGlobalsSize = n
	return b
}

// Build assembles the final Container. If no task was added, it
// synthesizes a single default freewheeling task running a single
// program instance that covers every declared variable — this mirrors
// what a program with no explicit CONFIGURATION block should still run
// as (spec.md §5.1's implicit single-task default).
func (b *Builder) Build() Container {
	code := CodeSection{Functions: b.functions, Bytecode: b.bytecode}

	var taskTable TaskTable
	if len(b.tasks) == 0 {
		taskTable = TaskTable{
			SharedGlobalsSize: 0,
			Tasks: []TaskEntry{{
				TaskID:            0,
				Priority:          0,
				TaskType:          TaskTypeFreewheeling,
				Flags:             0x01,
				IntervalUs:        0,
				SingleVarIndex:    0xFFFF,
				WatchdogUs:        0,
				InputImageOffset:  0,
				OutputImageOffset: 0,
			}},
			Programs: []ProgramInstanceEntry{{
				InstanceID:      0,
				TaskID:          0,
				EntryFunctionID: 0,
				VarTableOffset:  0,
				VarTableCount:   b.numVariables,
			}},
		}
	} else {
		taskTable = TaskTable{
			SharedGlobalsSize: b.sharedGlobalsSize,
			Tasks:             b.tasks,
			Programs:          b.programs,
		}
	}

	header := *NewFileHeader()
	header.NumVariables = b.numVariables
	header.MaxStackDepth = b.maxStackDepth
	header.NumFunctions = uint16(len(code.Functions))

	return Container{
		Header:       header,
		TaskTable:    taskTable,
		ConstantPool: *b.pool,
		Code:         code,
	}
}
