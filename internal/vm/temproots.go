package vm

import "frog/internal/heap"

// tempRootsGuard protects a set of freshly computed Values across an
// allocation that could trigger a collection, for exactly the
// lifetime of the scope that holds them. release must run on every
// exit path, success or failure; callers use `defer guard.release()`.
type tempRootsGuard struct {
	vm    *Interpreter
	start int
}

func (vm *Interpreter) pushTempRoots(values ...heap.Value) *tempRootsGuard {
	start := len(vm.tempRoots)
	vm.tempRoots = append(vm.tempRoots, values...)
	return &tempRootsGuard{vm: vm, start: start}
}

func (g *tempRootsGuard) release() {
	g.vm.tempRoots = g.vm.tempRoots[:g.start]
}
