package vm

import "frog/internal/heap"

// GlobalFuncIndex is the sentinel function index of the top-level
// script's own call frame.
const GlobalFuncIndex uint32 = 0xFFFFFFFF

// CallFrame is one activation record: the function it belongs to, its
// instruction pointer, the IP to resume the caller at, the operand
// stack depth at entry, and its local-slot vector.
type CallFrame struct {
	FuncIndex     uint32
	IP            uint32
	ReturnIP      uint32
	BaseStackSize int
	Locals        []heap.Value
}
