package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"frog/internal/bytecode"
)

func ins(op bytecode.OpCode, a uint32, b uint16, hasA, hasB bool) bytecode.Instruction {
	return bytecode.Instruction{Op: op, A: a, B: b, HasA: hasA, HasB: hasB}
}

func insA(op bytecode.OpCode, a uint32) bytecode.Instruction { return ins(op, a, 0, true, false) }
func insB(op bytecode.OpCode, b uint16) bytecode.Instruction { return ins(op, 0, b, false, true) }
func ins0(op bytecode.OpCode) bytecode.Instruction           { return ins(op, 0, 0, false, false) }
func insCall(a uint32, b uint16) bytecode.Instruction        { return ins(bytecode.Call, a, b, true, true) }

func TestHelloStore(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "x"},
			{Tag: bytecode.ConstInt, Int: 70},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.PushConst, 1),
			insA(bytecode.StoreGlobal, 0),
		},
	}

	vm := New(m, Options{})
	code, err := vm.Run()
	if err != nil || code != 0 {
		t.Fatalf("run failed: code=%d err=%v", code, err)
	}

	v, ok := vm.Global("x")
	if !ok {
		t.Fatalf("expected global x to be set")
	}
	i, err := v.Int()
	if err != nil {
		t.Fatalf("expected int global: %v", err)
	}
	got, _ := i.Int64()
	if got != 70 {
		t.Fatalf("want 70, got %d", got)
	}
	if len(vm.Stack()) != 0 {
		t.Fatalf("expected empty stack, got %d", len(vm.Stack()))
	}
}

func TestStringConcatenation(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "hello"},
			{Tag: bytecode.ConstString, String: "frog"},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.PushConst, 0),
			insA(bytecode.PushConst, 1),
			ins0(bytecode.Add),
		},
	}

	vm := New(m, Options{})
	if _, err := vm.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	stack := vm.Stack()
	if len(stack) != 1 {
		t.Fatalf("want 1 value on stack, got %d", len(stack))
	}
	s, err := stack[0].StringObj()
	if err != nil {
		t.Fatalf("expected string on top of stack: %v", err)
	}
	if s.Value != "hellofrog" {
		t.Fatalf("want \"hellofrog\", got %q", s.Value)
	}
}

// buildFactorialModule assembles a self-recursive fact(n) function and a
// global driver that calls it 60 times with n=5, storing the final result
// to the global "result". The global code opens with a JUMP over the
// function body so the sentinel frame, which always starts at IP 0, never
// falls through into it.
func buildFactorialModule(calls int) *bytecode.Module {
	body := []bytecode.Instruction{
		insB(bytecode.LoadLocal, 0), // ip1: push n
		insA(bytecode.PushConst, 1), // ip2: push 1
		ins0(bytecode.Le),           // ip3: n <= 1
		insA(bytecode.JumpFalse, 7), // ip4: -> else at ip7
		insA(bytecode.PushConst, 1), // ip5: push 1
		ins0(bytecode.Ret),          // ip6: return 1
		insB(bytecode.LoadLocal, 0), // ip7: push n
		insB(bytecode.LoadLocal, 0), // ip8: push n
		insA(bytecode.PushConst, 1), // ip9: push 1
		ins0(bytecode.Sub),          // ip10: n-1
		insCall(0, 1),               // ip11: fact(n-1)
		ins0(bytecode.Mul),          // ip12: n * fact(n-1)
		ins0(bytecode.Ret),          // ip13: return
	}

	bodyStart := uint32(1)
	afterBody := bodyStart + uint32(len(body))

	code := make([]bytecode.Instruction, 0, 1+len(body)+calls*3)
	code = append(code, insA(bytecode.Jump, afterBody))
	code = append(code, body...)

	for i := 0; i < calls; i++ {
		code = append(code, insA(bytecode.PushConst, 2)) // push n=5
		code = append(code, insCall(0, 1))
		if i == calls-1 {
			code = append(code, insA(bytecode.StoreGlobal, 3))
		} else {
			code = append(code, ins0(bytecode.Pop))
		}
	}

	return &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "fact"},
			{Tag: bytecode.ConstInt, Int: 1},
			{Tag: bytecode.ConstInt, Int: 5},
			{Tag: bytecode.ConstString, String: "result"},
		},
		Functions: []bytecode.FunctionInfo{
			{
				NameConstIndex: 0,
				ParamCount:     1,
				LocalCount:     1,
				EntryIP:        bodyStart,
				ReturnType:     bytecode.TypeInt,
				ParamTypes:     []bytecode.TypeTag{bytecode.TypeInt},
			},
		},
		Code: code,
	}
}

func TestRecursiveFactorialTiered(t *testing.T) {
	m := buildFactorialModule(60)

	vm := New(m, Options{JitLog: true})

	if _, err := vm.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	v, ok := vm.Global("result")
	if !ok {
		t.Fatalf("expected global result to be set")
	}
	i, err := v.Int()
	if err != nil {
		t.Fatalf("expected int result: %v", err)
	}
	got, _ := i.Int64()
	if got != 120 {
		t.Fatalf("want 120, got %d", got)
	}
}

func TestGCUnderPressure(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "new_array_bool"},
			{Tag: bytecode.ConstInt, Int: 20000},
			{Tag: bytecode.ConstBool, Bool: true},
			{Tag: bytecode.ConstString, String: "sink"},
		},
		Functions: []bytecode.FunctionInfo{
			{
				NameConstIndex: 0,
				ParamCount:     2,
				LocalCount:     0,
				EntryIP:        bytecode.BuiltinEntryIP,
				ReturnType:     bytecode.TypeArray,
				ParamTypes:     []bytecode.TypeTag{bytecode.TypeInt, bytecode.TypeBool},
			},
		},
	}

	var code []bytecode.Instruction
	for i := 0; i < 150; i++ {
		code = append(code, insA(bytecode.PushConst, 1))
		code = append(code, insA(bytecode.PushConst, 2))
		code = append(code, insCall(0, 2))
		code = append(code, insA(bytecode.StoreGlobal, 3))
	}
	m.Code = code

	vm := New(m, Options{})
	if _, err := vm.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	v, ok := vm.Global("sink")
	if !ok {
		t.Fatalf("expected global sink to be set")
	}
	arr, err := v.ArrayObj()
	if err != nil {
		t.Fatalf("expected array: %v", err)
	}
	if len(arr.Elements) != 20000 {
		t.Fatalf("want 20000 elements, got %d", len(arr.Elements))
	}
}

func TestJumpFalseOnTrueDoesNotBranch(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstBool, Bool: true},
			{Tag: bytecode.ConstInt, Int: 1},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.PushConst, 0),
			insA(bytecode.JumpFalse, 2),
			insA(bytecode.PushConst, 1),
		},
	}

	vm := New(m, Options{})
	if _, err := vm.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	stack := vm.Stack()
	if len(stack) != 1 {
		t.Fatalf("want 1 value on stack, got %d", len(stack))
	}
	i, err := stack[0].Int()
	if err != nil {
		t.Fatalf("expected int on top of stack: %v", err)
	}
	got, _ := i.Int64()
	if got != 1 {
		t.Fatalf("want 1, got %d", got)
	}
}

func TestUnknownGlobalSurfacesName(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "missing"},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.LoadGlobal, 0),
		},
	}

	vm := New(m, Options{})
	_, err := vm.Run()
	if err == nil {
		t.Fatalf("expected failure for unknown global")
	}
	if !strings.Contains(err.Error(), "unknown global") || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected message to contain \"unknown global\" and \"missing\", got %q", err.Error())
	}
	if !errors.Is(err, ErrUnknownGlobal) {
		t.Fatalf("expected errors.Is to match ErrUnknownGlobal, got %v", err)
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstInt, Int: 5},
			{Tag: bytecode.ConstInt, Int: 0},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.PushConst, 0),
			insA(bytecode.PushConst, 1),
			ins0(bytecode.Div),
		},
	}

	vm := New(m, Options{})
	_, err := vm.Run()
	if err == nil || !strings.Contains(err.Error(), "division by zero") {
		t.Fatalf("expected division by zero error, got %v", err)
	}
	if !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected errors.Is to match ErrDivisionByZero, got %v", err)
	}
}

func TestArrayOutOfBoundsFails(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstInt, Int: 5},
		},
		Code: []bytecode.Instruction{
			insB(bytecode.NewArray, 0),
			insA(bytecode.PushConst, 0),
			ins0(bytecode.LoadIndex),
		},
	}

	vm := New(m, Options{})
	_, err := vm.Run()
	if err == nil || !strings.Contains(err.Error(), "array index out of bounds") {
		t.Fatalf("expected out-of-bounds error, got %v", err)
	}
	if !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected errors.Is to match ErrIndexOutOfBounds, got %v", err)
	}
}

func TestStackUnderflowFails(t *testing.T) {
	m := &bytecode.Module{
		Code: []bytecode.Instruction{
			ins0(bytecode.Pop),
		},
	}

	vm := New(m, Options{})
	_, err := vm.Run()
	if err == nil || !strings.Contains(err.Error(), "stack underflow") {
		t.Fatalf("expected stack underflow error, got %v", err)
	}
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("expected errors.Is to match ErrStackUnderflow, got %v", err)
	}
}

func TestCallStackReflectsActiveFramesOnFailure(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "boom"},
		},
		Functions: []bytecode.FunctionInfo{
			{NameConstIndex: 0, ParamCount: 0, LocalCount: 0, EntryIP: 1, ReturnType: bytecode.TypeVoid},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.Jump, 3),
			ins0(bytecode.Pop),
			ins0(bytecode.Ret),
			insCall(0, 0),
		},
	}

	vm := New(m, Options{})
	_, err := vm.Run()
	if err == nil {
		t.Fatalf("expected stack underflow inside boom")
	}

	stack := vm.CallStack()
	if len(stack) != 2 {
		t.Fatalf("want 2 active frames, got %d: %+v", len(stack), stack)
	}
	if stack[0].FuncName != "<global>" {
		t.Fatalf("want outermost frame <global>, got %q", stack[0].FuncName)
	}
	if stack[1].FuncName != "boom" {
		t.Fatalf("want innermost frame boom, got %q", stack[1].FuncName)
	}
}

func TestPrintBuiltin(t *testing.T) {
	m := &bytecode.Module{
		ConstPool: []bytecode.Constant{
			{Tag: bytecode.ConstString, String: "print"},
			{Tag: bytecode.ConstString, String: "hi"},
		},
		Functions: []bytecode.FunctionInfo{
			{NameConstIndex: 0, ParamCount: 1, LocalCount: 0, EntryIP: bytecode.BuiltinEntryIP, ReturnType: bytecode.TypeVoid, ParamTypes: []bytecode.TypeTag{bytecode.TypeString}},
		},
		Code: []bytecode.Instruction{
			insA(bytecode.PushConst, 1),
			insCall(0, 1),
		},
	}

	vm := New(m, Options{})
	var out bytes.Buffer
	vm.SetStdout(&out)

	if _, err := vm.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "hi" {
		t.Fatalf("want \"hi\", got %q", out.String())
	}
}

func TestHeapValueEqualityByIdentity(t *testing.T) {
	m := &bytecode.Module{
		Code: []bytecode.Instruction{
			insB(bytecode.NewArray, 0),
			insB(bytecode.NewArray, 0),
			ins0(bytecode.Eq),
		},
	}

	vm := New(m, Options{})
	if _, err := vm.Run(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := vm.Stack()[0].Bool()
	if err != nil {
		t.Fatalf("expected bool result: %v", err)
	}
	if b {
		t.Fatalf("two distinct freshly allocated arrays must not be equal by identity")
	}
}
