package bytecode

import (
	"fmt"
	"strings"

	"github.com/openplc-go/stvm/internal/ast"
)

// varWidth classifies a declared type's runtime representation for
// codegen purposes. The container's opcode set (spec.md §6.1, ported
// from original_source/compiler/container/src/opcode.rs) only has
// arithmetic and comparison instructions for 32/64-bit integers and a
// dedicated boolean family — there is no floating-point instruction
// family at all. REAL/LREAL map to widthUnsupported, which codegen treats
// like width32, so a REAL value is loaded, stored and computed on as a
// 32-bit integer.
type varWidth int

const (
	width32 varWidth = iota
	width64
	widthBool
	widthUnsupported
)

func widthOf(typeName string) varWidth {
	switch strings.ToUpper(typeName) {
	case "BOOL":
		return widthBool
	case "SINT", "USINT", "INT", "UINT", "DINT", "UDINT", "BYTE", "WORD", "DWORD":
		return width32
	case "LINT", "ULINT", "LWORD", "TIME", "LTIME":
		return width64
	default:
		return widthUnsupported
	}
}

func isUnsignedType(typeName string) bool {
	switch strings.ToUpper(typeName) {
	case "USINT", "UINT", "UDINT", "ULINT", "BYTE", "WORD", "DWORD", "LWORD":
		return true
	default:
		return false
	}
}

// varSlot records where one declared variable lives in the compiled
// unit's flat variable table, and how to generate loads/stores for it.
type varSlot struct {
	index int
	width varWidth
	typ   string
}

// Compiler lowers one POU's (FUNCTION/FUNCTION_BLOCK/PROGRAM) statement
// body into a Chunk. Unlike a call-stack language's compiler, there are
// no upvalues or nested lexical scopes to track: every VAR/VAR_INPUT/
// VAR_OUTPUT/VAR_IN_OUT/VAR_TEMP declaration in a POU occupies one slot
// in that POU's variable table for the lifetime of the scan (spec.md
// §4.6), so variable resolution is a single flat name lookup.
//
// The container's opcode set has no CALL instruction
// (original_source/compiler/container/src/opcode.rs defines only a closed
// BUILTIN set), so a FUNCTION call or FUNCTION_BLOCK invocation is lowered
// by inlining the callee's compiled statements directly at the call site:
// scopePrefix namespaces the callee's own slot keys (so the same callee
// compiled into the same Compiler, e.g. called twice in one POU, reuses
// one set of slots rather than allocating fresh ones each time), and
// returnTargets redirects a RETURN inside an inlined body to a jump past
// the inlined instructions instead of ending the whole POU's scan.
type Compiler struct {
	chunk     *Chunk
	pool      *ConstantPool
	slots     map[string]varSlot
	nextSlot  int
	loopStack []*loopContext
	lastLine  int

	// baseSlot is added to every emitted LOAD_VAR/STORE_VAR operand so a
	// POU's own 0-based local slots land at its globally-absolute
	// position in the shared container variable table (spec.md §4.5/§6.1:
	// each program instance gets its own non-overlapping VarTableOffset
	// range). declareVar's nextSlot counter and the resulting
	// chunk.NumVariables stay POU-local; only emitted operands are
	// rebased.
	baseSlot uint16

	// functions/fbDecls let compileFunctionCall/compileFbCall look up a
	// callee's AST so its body can be inlined; instanceTypes maps a
	// declared FB instance's slot key to its lowercased FB type name.
	functions     map[string]*ast.FunctionDecl
	fbDecls       map[string]*ast.FunctionBlockDecl
	instanceTypes map[string]string

	// scopePrefix namespaces slot lookups/declarations while compiling an
	// inlined callee's body; inlining guards against recursive inlining
	// (unsupported: the scan-based VM has no call stack to unwind).
	scopePrefix   string
	inlining      map[string]bool
	returnTargets []*[]int
}

type loopContext struct {
	exitJumps []int
}

// NewCompiler returns a compiler for a POU named name, interning its
// constants into pool. Pass a pool shared across every POU compiled into
// the same container so LOAD_CONST instructions across functions index
// into one consistent constant pool.
func NewCompiler(name string, pool *ConstantPool) *Compiler {
	return &Compiler{
		chunk: NewChunk(name, 0),
		pool:  pool,
		slots: make(map[string]varSlot),
	}
}

// WithFunctions gives the compiler the set of declared FUNCTIONs it may
// inline at a FunctionCall site, keyed by lowercased name.
func (c *Compiler) WithFunctions(fns map[string]*ast.FunctionDecl) *Compiler {
	c.functions = fns
	return c
}

// WithFunctionBlocks gives the compiler the set of declared
// FUNCTION_BLOCKs it may inline at an FbCall site, keyed by lowercased
// name.
func (c *Compiler) WithFunctionBlocks(fbs map[string]*ast.FunctionBlockDecl) *Compiler {
	c.fbDecls = fbs
	return c
}

// WithBaseSlot sets the globally-absolute offset this POU's variable
// table region starts at within the shared container variable table.
func (c *Compiler) WithBaseSlot(base uint16) *Compiler {
	c.baseSlot = base
	return c
}

// CompileFunction compiles a FUNCTION body.
func (c *Compiler) CompileFunction(fn *ast.FunctionDecl) (*Chunk, error) {
	c.declareVarBlocks(fn.VarBlocks)
	if err := c.compileStatements(fn.Body); err != nil {
		return nil, err
	}
	return c.finish()
}

// CompileFunctionBlock compiles a FUNCTION_BLOCK body.
func (c *Compiler) CompileFunctionBlock(fb *ast.FunctionBlockDecl) (*Chunk, error) {
	c.declareVarBlocks(fb.VarBlocks)
	if err := c.compileStatements(fb.Body); err != nil {
		return nil, err
	}
	return c.finish()
}

// CompileProgram compiles a PROGRAM body.
func (c *Compiler) CompileProgram(p *ast.ProgramDecl) (*Chunk, error) {
	c.declareVarBlocks(p.VarBlocks)
	if err := c.compileStatements(p.Body); err != nil {
		return nil, err
	}
	return c.finish()
}

func (c *Compiler) finish() (*Chunk, error) {
	c.chunk.emit(OpRetVoid, c.lastLine)
	c.chunk.NumVariables = c.nextSlot
	return c.chunk, nil
}

func (c *Compiler) declareVarBlocks(blocks []ast.VarBlock) {
	for _, block := range blocks {
		for _, decl := range block.Decls {
			c.declareVar(decl)
		}
	}
}

func (c *Compiler) declareVar(decl *ast.VarDecl) {
	key := decl.Name.Lower()
	if _, exists := c.slots[key]; exists {
		return
	}
	typeName, _ := decl.DataType()
	lowerType := strings.ToLower(typeName.Id.Name)
	if fb, ok := c.fbDecls[lowerType]; ok {
		c.declareFbInstance(key, lowerType, fb)
		return
	}
	w := widthOf(typeName.Id.Name)
	slot := varSlot{index: c.nextSlot, width: w, typ: typeName.Id.Name}
	c.slots[key] = slot
	c.nextSlot++
}

// declareFbInstance allocates one slot per member of an FB-typed
// declaration, keyed "instanceKey.memberName" — the same key scheme
// compileFbCall already looks up when storing named actual parameters,
// fixing the dangling lookup the maintainer flagged (declareVar never
// registered these slots at all). Each instance gets its own member
// slots, so two instances of the same FB type never alias storage.
func (c *Compiler) declareFbInstance(instanceKey, typeName string, fb *ast.FunctionBlockDecl) {
	if c.instanceTypes == nil {
		c.instanceTypes = make(map[string]string)
	}
	c.instanceTypes[instanceKey] = typeName
	for _, block := range fb.VarBlocks {
		for _, member := range block.Decls {
			memberKey := instanceKey + "." + member.Name.Lower()
			if _, exists := c.slots[memberKey]; exists {
				continue
			}
			memberType, _ := member.DataType()
			c.slots[memberKey] = varSlot{index: c.nextSlot, width: widthOf(memberType.Id.Name), typ: memberType.Id.Name}
			c.nextSlot++
		}
	}
}

// resolveSlot looks up name, preferring the active inlining scope's
// namespaced key over the bare (outer) one, so an inlined callee's
// references to its own parameters/locals resolve to its own slots rather
// than an identically-named variable in the calling POU.
func (c *Compiler) resolveSlot(name string) (varSlot, bool) {
	if c.scopePrefix != "" {
		if slot, ok := c.slots[c.scopePrefix+name]; ok {
			return slot, true
		}
	}
	slot, ok := c.slots[name]
	return slot, ok
}

// declareScopedSlot allocates (or returns the existing) slot for name
// within the active inlining scope.
func (c *Compiler) declareScopedSlot(name, typeName string) varSlot {
	return c.declareSlotAt(c.scopePrefix+name, typeName)
}

// declareSlotAt allocates (or returns the existing) slot for the fully
// qualified key, bypassing the active scopePrefix. Used to namespace a
// callee's own parameters/locals to a specific call site before that
// callee's body starts compiling (and so before scopePrefix itself is
// switched over by inlineStatements).
func (c *Compiler) declareSlotAt(key, typeName string) varSlot {
	if slot, ok := c.slots[key]; ok {
		return slot
	}
	slot := varSlot{index: c.nextSlot, width: widthOf(typeName), typ: typeName}
	c.slots[key] = slot
	c.nextSlot++
	return slot
}

// inlineStatements compiles body with scopePrefix active, so its variable
// references resolve against slots namespaced by prefix, and with a fresh
// return-jump target so a RETURN inside body jumps to just past the
// inlined instructions rather than ending the caller's own scan. guardKey
// detects (and rejects) a callee that is already being inlined higher up
// the same call chain — direct or mutual recursion is unsupported by a
// compiler that inlines every call.
func (c *Compiler) inlineStatements(prefix, guardKey string, body []ast.Statement) error {
	if c.inlining == nil {
		c.inlining = make(map[string]bool)
	}
	if c.inlining[guardKey] {
		return c.errorf("recursive invocation of %q is not supported", guardKey)
	}
	c.inlining[guardKey] = true
	defer delete(c.inlining, guardKey)

	savedPrefix := c.scopePrefix
	c.scopePrefix = prefix
	var returnJumps []int
	c.returnTargets = append(c.returnTargets, &returnJumps)

	err := c.compileStatements(body)

	c.returnTargets = c.returnTargets[:len(c.returnTargets)-1]
	c.scopePrefix = savedPrefix
	if err != nil {
		return err
	}
	for _, j := range returnJumps {
		if err := c.chunk.PatchJump(j); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("bytecode: compile error at line %d: %s", c.lastLine, fmt.Sprintf(format, args...))
}

// CompileLibrary compiles every PROGRAM in a fully resolved library (as
// returned by semantic.Analyze) into one container, assigning each a
// distinct function ID in declaration order and wiring the container's
// task table from the library's configurations (or a single synthesized
// freewheeling task if none is declared — spec.md §5.1).
//
// FUNCTIONs and FUNCTION_BLOCKs are never themselves task-table entry
// points (only PROGRAMs are, per spec.md §5.1/§5.2) and the opcode set has
// no CALL instruction to reach a standalone compiled body, so they are not
// compiled into their own container entries here; instead their
// declarations are made available to every Program Compiler so it can
// inline a call/invocation directly at its call site (compileFunctionCall,
// compileFbCall).
func CompileLibrary(lib *ast.Library) (*Container, error) {
	b := NewBuilder()

	funcsByName := make(map[string]*ast.FunctionDecl, len(lib.Functions))
	for _, fn := range lib.Functions {
		funcsByName[strings.ToLower(fn.Name.Name)] = fn
	}
	fbsByName := make(map[string]*ast.FunctionBlockDecl, len(lib.FunctionBlocks))
	for _, fb := range lib.FunctionBlocks {
		fbsByName[strings.ToLower(fb.Name.Name)] = fb
	}

	var functionID uint16
	var base uint16
	names := make(map[string]uint16)
	baseOffsets := make(map[uint16]uint16)

	for _, p := range lib.Programs {
		chunk, err := NewCompiler(p.Name.Name, b.Pool()).
			WithFunctions(funcsByName).
			WithFunctionBlocks(fbsByName).
			WithBaseSlot(base).
			CompileProgram(p)
		if err != nil {
			return nil, err
		}
		if err := addChunk(b, functionID, chunk); err != nil {
			return nil, err
		}
		names[strings.ToLower(p.Name.Name)] = functionID
		baseOffsets[functionID] = base
		base += uint16(chunk.NumVariables)
		functionID++
	}

	// Each Program's own variable region starts at the offset recorded in
	// baseOffsets and is exactly chunk.NumVariables wide (spec.md §4.5/
	// §6.1, §4.7 property 7): regions are contiguous and never overlap,
	// and every LOAD_VAR/STORE_VAR operand the compiler emitted for that
	// program was already rebased by WithBaseSlot to its absolute index,
	// so the VM's execute() — which applies no per-instance offset of its
	// own — resolves them correctly with no further translation.
	b.NumVariables(base)

	wireTasks(b, lib, names, baseOffsets)

	container := b.Build()
	return &container, nil
}

func addChunk(b *Builder, id uint16, chunk *Chunk) error {
	if len(chunk.Code) > 0xFFFFFFFF {
		return fmt.Errorf("bytecode: chunk %q too large", chunk.Name)
	}
	b.AddFunction(id, chunk.Code, maxStackDepthFor(chunk), uint16(chunk.NumVariables))
	return nil
}

// maxStackDepthFor estimates the deepest the operand stack can reach
// while executing chunk. A precise tracker would walk the instruction
// graph; this conservative estimate (every instruction pushes at most
// one value) is sufficient for the VM's fixed-size stack allocation and
// mirrors the original's own "steel thread" containers, which likewise
// hand-computed a stack depth rather than deriving it from a data-flow
// pass.
func maxStackDepthFor(chunk *Chunk) uint16 {
	depth := 0
	for pc := 0; pc < len(chunk.Code); {
		op := OpCode(chunk.Code[pc])
		_, width := op.Operand()
		depth++
		pc += 1 + width
	}
	if depth > 0xFFFF {
		return 0xFFFF
	}
	return uint16(depth)
}

func wireTasks(b *Builder, lib *ast.Library, functionIDs map[string]uint16, baseOffsets map[uint16]uint16) {
	if len(lib.Configurations) == 0 {
		return
	}
	for _, cfg := range lib.Configurations {
		taskIDs := make(map[string]uint16)
		var nextTaskID uint16
		for _, task := range cfg.Tasks {
			taskType := TaskTypeEvent
			var intervalUs uint64
			if task.Single != nil {
				taskType = TaskTypeEvent
			} else if task.Interval != nil {
				taskType = TaskTypeCyclic
				intervalUs = constantMicroseconds(*task.Interval)
			} else {
				taskType = TaskTypeFreewheeling
			}
			b.AddTask(TaskEntry{
				TaskID:     nextTaskID,
				Priority:   uint16(task.Priority),
				TaskType:   taskType,
				Flags:      0x01,
				IntervalUs: intervalUs,
			})
			taskIDs[strings.ToLower(task.Name.Name)] = nextTaskID
			nextTaskID++
		}
		for instanceID, prog := range cfg.Programs {
			var taskID uint16
			if prog.TaskName != nil {
				taskID = taskIDs[strings.ToLower(prog.TaskName.Name)]
			}
			entryID := functionIDs[strings.ToLower(prog.ProgramName.Id.Name)]
			b.AddProgramInstance(ProgramInstanceEntry{
				InstanceID:      uint16(instanceID),
				TaskID:          taskID,
				EntryFunctionID: entryID,
				VarTableOffset:  baseOffsets[entryID],
				VarTableCount:   b.NumLocalsFor(entryID),
			})
		}
	}
}

// constantMicroseconds evaluates a TASK interval expression: a TIME
// duration literal yields its microsecond count, and any other expression
// yields 0. No semantic rule checks the interval expression.
func constantMicroseconds(expr ast.Expression) uint64 {
	if d, ok := expr.(*ast.DurationLiteral); ok {
		return uint64(d.Microseconds)
	}
	return 0
}
