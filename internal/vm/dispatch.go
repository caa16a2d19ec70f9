package vm

import (
	"frog/internal/bytecode"
	"frog/internal/heap"
)

// Handler realizes one opcode's semantics. The tier-up cache is
// generic over this type; it never inspects a Handler's body.
type Handler func(vm *Interpreter, ins bytecode.Instruction) error

func buildDispatch() [bytecode.MaxOpCode + 1]Handler {
	var t [bytecode.MaxOpCode + 1]Handler

	t[bytecode.PushConst] = hPushConst
	t[bytecode.LoadLocal] = hLoadLocal
	t[bytecode.StoreLocal] = hStoreLocal
	t[bytecode.LoadGlobal] = hLoadGlobal
	t[bytecode.StoreGlobal] = hStoreGlobal

	t[bytecode.Add] = hAdd
	t[bytecode.Sub] = hSub
	t[bytecode.Mul] = hMul
	t[bytecode.Div] = hDiv
	t[bytecode.Mod] = hMod
	t[bytecode.Neg] = hNeg

	t[bytecode.Eq] = hEq
	t[bytecode.Neq] = hNeq
	t[bytecode.Lt] = hLt
	t[bytecode.Le] = hLe
	t[bytecode.Gt] = hGt
	t[bytecode.Ge] = hGe

	t[bytecode.And] = hAnd
	t[bytecode.Or] = hOr
	t[bytecode.Not] = hNot

	t[bytecode.Jump] = hJump
	t[bytecode.JumpFalse] = hJumpFalse

	t[bytecode.Call] = hCall
	t[bytecode.Ret] = hRet

	t[bytecode.NewArray] = hNewArray
	t[bytecode.LoadIndex] = hLoadIndex
	t[bytecode.StoreIndex] = hStoreIndex

	t[bytecode.Pop] = hPop

	return t
}

func hPushConst(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasA {
		return runtimeErrorf("PUSH_CONST missing a")
	}
	if int(ins.A) >= len(vm.constValues) {
		return runtimeErrorf("PUSH_CONST const index out of range")
	}
	vm.push(vm.constValues[ins.A])
	return nil
}

func hPop(vm *Interpreter, ins bytecode.Instruction) error {
	_, err := vm.pop()
	return err
}

func hStoreGlobal(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasA {
		return runtimeErrorf("STORE_GLOBAL missing a")
	}
	idx := ins.A
	if int(idx) >= len(vm.globalValues) {
		return runtimeErrorf("STORE_GLOBAL const index out of range")
	}
	v, err := vm.pop()
	if err != nil {
		return err
	}
	vm.globalValues[idx] = v
	vm.globalSet[idx] = true
	return nil
}

func hLoadGlobal(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasA {
		return runtimeErrorf("LOAD_GLOBAL missing a")
	}
	idx := ins.A
	if int(idx) >= len(vm.globalValues) {
		return runtimeErrorf("LOAD_GLOBAL const index out of range")
	}
	if !vm.globalSet[idx] {
		name, _ := vm.constString(idx)
		return runtimeErrorKind(ErrUnknownGlobal, "LOAD_GLOBAL unknown global: %s", name)
	}
	vm.push(vm.globalValues[idx])
	return nil
}

func hStoreLocal(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasB {
		return runtimeErrorf("STORE_LOCAL missing b")
	}
	f, err := vm.frame()
	if err != nil {
		return err
	}
	slot := int(ins.B)
	if slot >= len(f.Locals) {
		return runtimeErrorf("STORE_LOCAL slot out of range")
	}
	v, err := vm.pop()
	if err != nil {
		return err
	}
	f.Locals[slot] = v
	return nil
}

func hLoadLocal(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasB {
		return runtimeErrorf("LOAD_LOCAL missing b")
	}
	f, err := vm.frame()
	if err != nil {
		return err
	}
	slot := int(ins.B)
	if slot >= len(f.Locals) {
		return runtimeErrorf("LOAD_LOCAL slot out of range")
	}
	vm.push(f.Locals[slot])
	return nil
}

func hAdd(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.addValues(l, r)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func hSub(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.subValues(l, r)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func hMul(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.mulValues(l, r)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func hDiv(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.divValues(l, r)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func hMod(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.modValues(l, r)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func hNeg(vm *Interpreter, ins bytecode.Instruction) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.negValue(v)
	if err != nil {
		return err
	}
	vm.push(out)
	return nil
}

func hEq(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.eqValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hNeq(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.neqValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hLt(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.ltValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hLe(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.leValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hGt(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.gtValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hGe(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.geValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hAnd(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.andValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hOr(vm *Interpreter, ins bytecode.Instruction) error {
	r, err := vm.pop()
	if err != nil {
		return err
	}
	l, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.orValues(l, r)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hNot(vm *Interpreter, ins bytecode.Instruction) error {
	v, err := vm.pop()
	if err != nil {
		return err
	}
	out, err := vm.notValue(v)
	if err != nil {
		return err
	}
	vm.push(heap.NewBool(out))
	return nil
}

func hJump(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasA {
		return runtimeErrorf("JUMP missing a")
	}
	f, err := vm.frame()
	if err != nil {
		return err
	}
	if int(ins.A) >= len(vm.module.Code) {
		return runtimeErrorf("JUMP target out of range")
	}
	f.IP = ins.A
	return nil
}

func hJumpFalse(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasA {
		return runtimeErrorf("JUMP_FALSE missing a")
	}
	f, err := vm.frame()
	if err != nil {
		return err
	}
	if int(ins.A) >= len(vm.module.Code) {
		return runtimeErrorf("JUMP_FALSE target out of range")
	}
	cond, err := vm.pop()
	if err != nil {
		return err
	}
	b, err := cond.Bool()
	if err != nil {
		return runtimeErrorf("JUMP_FALSE expects bool")
	}
	if !b {
		f.IP = ins.A
	}
	return nil
}

func hCall(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasA || !ins.HasB {
		return runtimeErrorf("CALL missing operands")
	}
	return vm.callFunction(ins.A, ins.B)
}

func hRet(vm *Interpreter, ins bytecode.Instruction) error {
	return vm.retFromFunction()
}

func hNewArray(vm *Interpreter, ins bytecode.Instruction) error {
	if !ins.HasB {
		return runtimeErrorf("NEW_ARRAY missing b")
	}
	count := int(ins.B)

	arr := vm.heap.AllocateArray(count, vm.Roots())
	for i := count - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return err
		}
		arr.Elements[i] = v
	}
	vm.push(heap.NewArray(arr))
	return nil
}

func hLoadIndex(vm *Interpreter, ins bytecode.Instruction) error {
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	arrv, err := vm.pop()
	if err != nil {
		return err
	}
	i, err := idx.Int()
	if err != nil {
		return runtimeErrorf("LOAD_INDEX expects int index")
	}
	arr, err := arrv.ArrayObj()
	if err != nil {
		return runtimeErrorf("LOAD_INDEX expects array")
	}
	n, ok := i.Int64()
	if !ok || n < 0 || int(n) >= len(arr.Elements) {
		return runtimeErrorKind(ErrIndexOutOfBounds, "array index out of bounds")
	}
	vm.push(arr.Elements[n])
	return nil
}

func hStoreIndex(vm *Interpreter, ins bytecode.Instruction) error {
	val, err := vm.pop()
	if err != nil {
		return err
	}
	idx, err := vm.pop()
	if err != nil {
		return err
	}
	arrv, err := vm.pop()
	if err != nil {
		return err
	}
	i, err := idx.Int()
	if err != nil {
		return runtimeErrorf("STORE_INDEX expects int index")
	}
	arr, err := arrv.ArrayObj()
	if err != nil {
		return runtimeErrorf("STORE_INDEX expects array")
	}
	n, ok := i.Int64()
	if !ok || n < 0 || int(n) >= len(arr.Elements) {
		return runtimeErrorKind(ErrIndexOutOfBounds, "array index out of bounds")
	}
	arr.Elements[n] = val
	return nil
}
