package vm

import (
	"fmt"

	"frog/internal/bigint"
	"frog/internal/heap"
)

func (vm *Interpreter) callBuiltin(name string, args []heap.Value) (heap.Value, error) {
	switch name {
	case "print":
		return vm.builtinPrint(args)
	case "len":
		return vm.builtinLen(args)
	case "new_array_bool":
		return vm.builtinNewArrayBool(args)
	case "push_int":
		return vm.builtinPushInt(args)
	default:
		return heap.Value{}, runtimeErrorf("unknown builtin: %s", name)
	}
}

func (vm *Interpreter) builtinPrint(args []heap.Value) (heap.Value, error) {
	if len(args) != 1 {
		return heap.Value{}, runtimeErrorf("print expects 1 argument")
	}
	v := args[0]
	switch v.Kind() {
	case heap.KindInt:
		i, _ := v.Int()
		fmt.Fprintln(vm.stdout, i.String())
	case heap.KindFloat:
		f, _ := v.Float()
		fmt.Fprintln(vm.stdout, f)
	case heap.KindBool:
		b, _ := v.Bool()
		fmt.Fprintln(vm.stdout, b)
	case heap.KindString:
		s, _ := v.StringObj()
		fmt.Fprintln(vm.stdout, s.Value)
	default:
		return heap.Value{}, runtimeErrorf("print unsupported type")
	}
	return heap.Null, nil
}

func (vm *Interpreter) builtinLen(args []heap.Value) (heap.Value, error) {
	if len(args) != 1 {
		return heap.Value{}, runtimeErrorf("len expects 1 argument")
	}
	arr, err := args[0].ArrayObj()
	if err != nil {
		return heap.Value{}, runtimeErrorf("len expects array")
	}
	return heap.NewInt(bigint.FromInt64(int64(len(arr.Elements)))), nil
}

func (vm *Interpreter) builtinNewArrayBool(args []heap.Value) (heap.Value, error) {
	if len(args) != 2 {
		return heap.Value{}, runtimeErrorf("new_array_bool expects 2 arguments")
	}
	n, err := args[0].Int()
	if err != nil {
		return heap.Value{}, runtimeErrorf("new_array_bool type mismatch")
	}
	fill, err := args[1].Bool()
	if err != nil {
		return heap.Value{}, runtimeErrorf("new_array_bool type mismatch")
	}
	count, ok := n.Int64()
	if !ok || count < 0 {
		return heap.Value{}, runtimeErrorf("new_array_bool negative size")
	}

	arr := vm.heap.AllocateArray(int(count), vm.Roots())
	for i := range arr.Elements {
		arr.Elements[i] = heap.NewBool(fill)
	}
	return heap.NewArray(arr), nil
}

func (vm *Interpreter) builtinPushInt(args []heap.Value) (heap.Value, error) {
	if len(args) != 2 {
		return heap.Value{}, runtimeErrorf("push_int expects 2 arguments")
	}
	old, err := args[0].ArrayObj()
	if err != nil {
		return heap.Value{}, runtimeErrorf("push_int type mismatch")
	}
	x, err := args[1].Int()
	if err != nil {
		return heap.Value{}, runtimeErrorf("push_int type mismatch")
	}

	out := vm.heap.AllocateArray(len(old.Elements)+1, vm.Roots())
	copy(out.Elements, old.Elements)
	out.Elements[len(old.Elements)] = heap.NewInt(x)
	return heap.NewArray(out), nil
}
