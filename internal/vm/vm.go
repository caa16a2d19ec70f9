// Package vm implements the stack-based interpreter: frame stack,
// operand stack, globals table, opcode dispatch, the calling
// convention, and the built-in functions. It owns a heap.Heap and
// drives collection through the roots enumerator defined here.
package vm

import (
	"fmt"
	"io"
	"os"

	"frog/internal/bigint"
	"frog/internal/bytecode"
	"frog/internal/diag"
	"frog/internal/heap"
	"frog/internal/jit"
	"frog/internal/trace"
)

func intFromInt32(v int32) bigint.Int { return bigint.FromInt64(int64(v)) }

// Options configures the three optional trace channels plus the two
// engine tunables a config file or CLI flag may override. A zero
// HeapInitialThreshold or TierUpThreshold takes the engine default.
type Options struct {
	Trace  bool
	JitLog bool
	GCLog  bool

	HeapInitialThreshold int
	TierUpThreshold      uint32
}

// Interpreter executes one validated Module. It is not safe for
// concurrent use.
type Interpreter struct {
	module  *bytecode.Module
	options Options
	tracer  *trace.Channels
	stdout  io.Writer

	heap        *heap.Heap
	constValues []heap.Value
	stack       []heap.Value

	globalValues []heap.Value
	globalSet    []bool

	frames    []CallFrame
	tempRoots []heap.Value

	funcEndIP []uint32
	tier      *jit.Cache[Handler]
	dispatch  [bytecode.MaxOpCode + 1]Handler
}

// New builds an Interpreter over module. Constants are materialized
// immediately: string constants allocate permanent heap strings, so
// the heap is already non-empty before Run is ever called.
func New(module *bytecode.Module, options Options) *Interpreter {
	tr := trace.New(os.Stderr, options.Trace, options.JitLog, options.GCLog)

	vm := &Interpreter{
		module:       module,
		options:      options,
		tracer:       tr,
		stdout:       os.Stdout,
		globalValues: make([]heap.Value, len(module.ConstPool)),
		globalSet:    make([]bool, len(module.ConstPool)),
		dispatch:     buildDispatch(),
	}
	vm.heap = heap.NewWithThreshold(tr, options.HeapInitialThreshold)
	vm.tier = jit.NewWithThreshold[Handler](len(module.Functions), tr, options.TierUpThreshold)

	vm.buildConstValues()
	vm.buildFuncRanges()

	return vm
}

// SetStdout redirects the print built-in's output; tests use this to
// capture program output without touching the real stdout.
func (vm *Interpreter) SetStdout(w io.Writer) { vm.stdout = w }

// Stack returns the current operand stack, top-last.
func (vm *Interpreter) Stack() []heap.Value { return vm.stack }

// Global returns the named global's value and whether it has been set.
func (vm *Interpreter) Global(name string) (heap.Value, bool) {
	for i, c := range vm.module.ConstPool {
		if c.Tag == bytecode.ConstString && c.String == name && vm.globalSet[i] {
			return vm.globalValues[i], true
		}
	}
	return heap.Value{}, false
}

func (vm *Interpreter) buildConstValues() {
	vm.constValues = make([]heap.Value, 0, len(vm.module.ConstPool))
	for _, c := range vm.module.ConstPool {
		switch c.Tag {
		case bytecode.ConstInt:
			vm.constValues = append(vm.constValues, heap.NewInt(intFromInt32(c.Int)))
		case bytecode.ConstFloat:
			vm.constValues = append(vm.constValues, heap.NewFloat(c.Float))
		case bytecode.ConstBool:
			vm.constValues = append(vm.constValues, heap.NewBool(c.Bool))
		case bytecode.ConstString:
			obj := vm.heap.AllocateString(c.String, vm.Roots())
			vm.constValues = append(vm.constValues, heap.NewString(obj))
		}
	}
}

func (vm *Interpreter) buildFuncRanges() {
	codeLen := uint32(len(vm.module.Code))
	vm.funcEndIP = make([]uint32, len(vm.module.Functions))
	for i := range vm.funcEndIP {
		vm.funcEndIP[i] = codeLen
	}

	type entry struct {
		entryIP uint32
		index   uint32
	}
	var entries []entry
	for i, f := range vm.module.Functions {
		if f.IsBuiltin() {
			continue
		}
		entries = append(entries, entry{entryIP: f.EntryIP, index: uint32(i)})
	}
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].entryIP > entries[j].entryIP; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}

	for i, e := range entries {
		end := codeLen
		if i+1 < len(entries) {
			end = entries[i+1].entryIP
		}
		if end < e.entryIP || end > codeLen {
			end = codeLen
		}
		vm.funcEndIP[e.index] = end
	}
}

// Roots returns the enumerator the heap calls at every collection: it
// visits constants, the operand stack, every frame's locals, every
// set global, and the temporary-roots scratchpad, in that order.
func (vm *Interpreter) Roots() heap.RootsEnumerator {
	return func(visit heap.RootVisitor) {
		for _, v := range vm.constValues {
			visit(v)
		}
		for _, v := range vm.stack {
			visit(v)
		}
		for _, f := range vm.frames {
			for _, v := range f.Locals {
				visit(v)
			}
		}
		for i, set := range vm.globalSet {
			if set {
				visit(vm.globalValues[i])
			}
		}
		for _, v := range vm.tempRoots {
			visit(v)
		}
	}
}

func (vm *Interpreter) push(v heap.Value) { vm.stack = append(vm.stack, v) }

func (vm *Interpreter) pop() (heap.Value, error) {
	if len(vm.stack) == 0 {
		return heap.Value{}, runtimeErrorKind(ErrStackUnderflow, "stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *Interpreter) peekArgs(argc int) ([]heap.Value, error) {
	if argc > len(vm.stack) {
		return nil, runtimeErrorKind(ErrStackUnderflow, "stack underflow")
	}
	return vm.stack[len(vm.stack)-argc:], nil
}

func (vm *Interpreter) frame() (*CallFrame, error) {
	if len(vm.frames) == 0 {
		return nil, runtimeErrorf("no current frame")
	}
	return &vm.frames[len(vm.frames)-1], nil
}

func (vm *Interpreter) constString(idx uint32) (string, error) {
	if int(idx) >= len(vm.module.ConstPool) {
		return "", runtimeErrorf("const index out of range")
	}
	c := vm.module.ConstPool[idx]
	if c.Tag != bytecode.ConstString {
		return "", runtimeErrorf("const is not string")
	}
	return c.String, nil
}

func (vm *Interpreter) funcName(funcIndex uint32) (string, error) {
	if int(funcIndex) >= len(vm.module.Functions) {
		return "", runtimeErrorf("bad func index")
	}
	return vm.constString(vm.module.Functions[funcIndex].NameConstIndex)
}

// CallStack snapshots the frames active right now, outermost first.
// Meant to be read immediately after Run returns a non-nil error; once
// frames start popping the snapshot is stale.
func (vm *Interpreter) CallStack() diag.Stack {
	frames := make(diag.Stack, 0, len(vm.frames))
	for _, f := range vm.frames {
		name := "<global>"
		if f.FuncIndex != GlobalFuncIndex {
			if n, err := vm.funcName(f.FuncIndex); err == nil {
				name = n
			}
		}
		frames = append(frames, diag.Frame{FuncName: name, FuncIndex: f.FuncIndex, IP: f.IP})
	}
	return frames
}

func (vm *Interpreter) isVoidReturn(funcIndex uint32) (bool, error) {
	if funcIndex == GlobalFuncIndex {
		return true, nil
	}
	if int(funcIndex) >= len(vm.module.Functions) {
		return false, runtimeErrorf("bad func index")
	}
	return vm.module.Functions[funcIndex].ReturnType == bytecode.TypeVoid, nil
}

// Run executes the module from its global entry point and returns the
// process exit code: 0 on clean termination, non-zero accompanied by
// the returned error otherwise.
func (vm *Interpreter) Run() (int, error) {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.tempRoots = vm.tempRoots[:0]
	for i := range vm.globalSet {
		vm.globalSet[i] = false
		vm.globalValues[i] = heap.Null
	}

	vm.frames = append(vm.frames, CallFrame{FuncIndex: GlobalFuncIndex})

	for len(vm.frames) > 0 {
		f := &vm.frames[len(vm.frames)-1]
		if int(f.IP) >= len(vm.module.Code) {
			vm.frames = vm.frames[:len(vm.frames)-1]
			continue
		}

		if f.FuncIndex != GlobalFuncIndex {
			if cf, ok := vm.tier.Lookup(f.FuncIndex); ok && cf.Contains(f.IP) {
				if err := vm.runJIT(cf); err != nil {
					return 1, err
				}
				continue
			}
		}

		if err := vm.step(); err != nil {
			return 1, err
		}
	}

	return 0, nil
}

func (vm *Interpreter) step() error {
	f, err := vm.frame()
	if err != nil {
		return err
	}
	if int(f.IP) >= len(vm.module.Code) {
		return runtimeErrorf("ip out of range")
	}

	ipBefore := f.IP
	ins := vm.module.Code[ipBefore]

	if vm.options.Trace {
		vm.traceInstruction(ins, ipBefore)
	}

	f.IP++

	h := vm.dispatch[ins.Op]
	if h == nil {
		return runtimeErrorf("opcode not implemented")
	}
	return h(vm, ins)
}

func (vm *Interpreter) runJIT(cf *jit.CompiledFunc[Handler]) error {
	if vm.options.JitLog {
		name, _ := vm.funcName(cf.FuncIndex)
		vm.tracer.Tier("ENTER JIT func %s@%d", name, cf.FuncIndex)
	}

	for len(vm.frames) > 0 {
		f := &vm.frames[len(vm.frames)-1]
		if f.FuncIndex != cf.FuncIndex || !cf.Contains(f.IP) {
			return nil
		}

		ipBefore := f.IP
		ins := vm.module.Code[ipBefore]

		if vm.options.Trace {
			vm.traceInstruction(ins, ipBefore)
		}

		f.IP++

		off := ipBefore - cf.EntryIP
		if int(off) >= len(cf.Handlers) {
			return runtimeErrorf("jit handler out of range")
		}
		h := cf.Handlers[off]
		if h == nil {
			return runtimeErrorf("jit null handler")
		}
		if err := h(vm, ins); err != nil {
			return err
		}
	}
	return nil
}

func (vm *Interpreter) callFunction(funcIndex uint32, argc uint16) error {
	if int(funcIndex) >= len(vm.module.Functions) {
		return runtimeErrorf("CALL bad func index")
	}
	fn := vm.module.Functions[funcIndex]
	if argc != fn.ParamCount {
		return runtimeErrorf("CALL argc mismatch")
	}

	if fn.IsBuiltin() {
		args, err := vm.peekArgs(int(argc))
		if err != nil {
			return err
		}
		guard := vm.pushTempRoots(args...)
		defer guard.release()

		name, err := vm.funcName(funcIndex)
		if err != nil {
			return err
		}
		out, err := vm.callBuiltin(name, args)
		if err != nil {
			return err
		}

		vm.stack = vm.stack[:len(vm.stack)-int(argc)]
		if fn.ReturnType != bytecode.TypeVoid {
			vm.push(out)
		}
		return nil
	}

	name, err := vm.funcName(funcIndex)
	if err != nil {
		return err
	}
	if _, shouldCompile := vm.tier.Bump(funcIndex, name); shouldCompile {
		vm.maybeCompile(funcIndex, name)
	}

	caller, err := vm.frame()
	if err != nil {
		return err
	}

	callee := CallFrame{
		FuncIndex:     funcIndex,
		IP:            fn.EntryIP,
		ReturnIP:      caller.IP,
		BaseStackSize: len(vm.stack) - int(argc),
		Locals:        make([]heap.Value, fn.LocalCount),
	}
	for i := range callee.Locals {
		callee.Locals[i] = heap.Null
	}
	for i := int(argc); i > 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		callee.Locals[i-1] = v
	}

	vm.frames = append(vm.frames, callee)
	return nil
}

func (vm *Interpreter) retFromFunction() error {
	if len(vm.frames) == 0 {
		return runtimeErrorf("RET with no frame")
	}
	finished := vm.frames[len(vm.frames)-1]

	isVoid, err := vm.isVoidReturn(finished.FuncIndex)
	if err != nil {
		return err
	}
	hasRet := !isVoid

	ret := heap.Null
	if hasRet {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		ret = v
	}

	if len(vm.stack) < finished.BaseStackSize {
		return runtimeErrorf("stack corrupted on return")
	}
	vm.stack = vm.stack[:finished.BaseStackSize]

	vm.frames = vm.frames[:len(vm.frames)-1]
	if len(vm.frames) == 0 {
		return nil
	}

	caller := &vm.frames[len(vm.frames)-1]
	caller.IP = finished.ReturnIP

	if hasRet {
		vm.push(ret)
	}
	return nil
}

func (vm *Interpreter) maybeCompile(funcIndex uint32, name string) {
	fn := vm.module.Functions[funcIndex]
	entry := fn.EntryIP
	end := vm.funcEndIP[funcIndex]

	handlerAt := func(ip uint32) (Handler, bool) {
		if int(ip) >= len(vm.module.Code) {
			return nil, false
		}
		op := vm.module.Code[ip].Op
		if int(op) > int(bytecode.MaxOpCode) {
			return nil, false
		}
		h := vm.dispatch[op]
		if h == nil {
			return nil, false
		}
		return h, true
	}

	vm.tier.Compile(funcIndex, entry, end, handlerAt, name)
}

func (vm *Interpreter) traceInstruction(ins bytecode.Instruction, ipBefore uint32) {
	desc := fmt.Sprintf("ip=%d %s", ipBefore, ins.Op)
	if ins.HasA {
		desc += fmt.Sprintf(" a=%d", ins.A)
	}
	if ins.HasB {
		desc += fmt.Sprintf(" b=%d", ins.B)
	}
	vm.tracer.Instr("%s | stack_depth=%d", desc, len(vm.stack))
}
