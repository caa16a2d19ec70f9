package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"frog/internal/bytecode"
)

// builder assembles a minimal *.frogc byte stream for tests.
type builder struct {
	buf bytes.Buffer
}

func newBuilder() *builder {
	b := &builder{}
	b.buf.WriteString("FROG")
	b.u16(1)
	return b
}

func (b *builder) u8(v byte)    { b.buf.WriteByte(v) }
func (b *builder) u16(v uint16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *builder) u32(v uint32) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *builder) f64(v float64) {
	binary.Write(&b.buf, binary.BigEndian, math.Float64bits(v))
}
func (b *builder) str(s string) {
	b.u32(uint32(len(s)))
	b.buf.WriteString(s)
}

// header writes the const/func/code counts. Call after adding no other
// bytes, then append the sections in order.
func (b *builder) header(constCount, funcCount, codeCount uint32) {
	b.u32(constCount)
	b.u32(funcCount)
	b.u32(codeCount)
}

func (b *builder) intConst(v int32) {
	b.u8(byte(bytecode.ConstInt))
	b.u32(uint32(v))
}

func (b *builder) stringConst(s string) {
	b.u8(byte(bytecode.ConstString))
	b.str(s)
}

func (b *builder) function(nameIdx uint32, paramCount, localCount uint16, entryIP uint32, ret bytecode.TypeTag, params []bytecode.TypeTag) {
	b.u32(nameIdx)
	b.u16(paramCount)
	b.u16(localCount)
	b.u32(entryIP)
	b.u8(byte(ret))
	for _, p := range params {
		b.u8(byte(p))
	}
}

// instr writes an instruction with no operands.
func (b *builder) instr(op bytecode.OpCode) {
	b.u8(byte(op))
	b.u8(0)
}

// instrA writes an instruction with only operand A set.
func (b *builder) instrA(op bytecode.OpCode, a uint32) {
	b.u8(byte(op))
	b.u8(1)
	b.u32(a)
}

// instrAB writes an instruction with both operands set.
func (b *builder) instrAB(op bytecode.OpCode, a uint32, bb uint16) {
	b.u8(byte(op))
	b.u8(3)
	b.u32(a)
	b.u16(bb)
}

func (b *builder) bytes() []byte { return b.buf.Bytes() }

func TestLoadRoundTrip(t *testing.T) {
	b := newBuilder()
	b.header(2, 1, 3)
	b.stringConst("main")
	b.intConst(42)
	b.function(0, 0, 0, 0, bytecode.TypeVoid, nil)
	b.instrA(bytecode.PushConst, 1)
	b.instrAB(bytecode.Call, 0, 0)
	b.instr(bytecode.Pop)

	m, err := Load(b.bytes(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.ConstPool) != 2 || len(m.Functions) != 1 || len(m.Code) != 3 {
		t.Fatalf("unexpected decoded shape: %+v", m)
	}
	if m.ConstPool[1].Int != 42 {
		t.Fatalf("want const 42, got %d", m.ConstPool[1].Int)
	}
	if m.Code[0].Op != bytecode.PushConst || m.Code[0].A != 1 {
		t.Fatalf("unexpected instruction 0: %+v", m.Code[0])
	}
}

func TestLoadBadMagic(t *testing.T) {
	raw := []byte("NOPE")
	_, err := Load(raw, nil)
	if err == nil {
		t.Fatalf("expected error for bad magic")
	}
	if !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected errors.Is to match ErrBadMagic, got %v", err)
	}
}

func TestLoadUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("FROG")
	binary.Write(&buf, binary.BigEndian, uint16(99))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	binary.Write(&buf, binary.BigEndian, uint32(0))

	_, err := Load(buf.Bytes(), nil)
	if err == nil {
		t.Fatalf("expected error for unsupported version")
	}
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected errors.Is to match ErrUnsupportedVersion, got %v", err)
	}
}

func TestLoadTruncated(t *testing.T) {
	b := newBuilder()
	b.header(1, 0, 0)
	raw := b.bytes()
	raw = raw[:len(raw)-1]
	_, err := Load(raw, nil)
	if err == nil {
		t.Fatalf("expected error for truncated stream")
	}
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected errors.Is to match ErrTruncated, got %v", err)
	}
}

func TestLoadInvalidConstIndex(t *testing.T) {
	b := newBuilder()
	b.header(1, 0, 1)
	b.intConst(1)
	b.instrA(bytecode.PushConst, 5)

	if _, err := Load(b.bytes(), nil); err == nil {
		t.Fatalf("expected error for out-of-range const index")
	}
}

func TestLoadInvalidJumpTarget(t *testing.T) {
	b := newBuilder()
	b.header(0, 0, 1)
	b.instrA(bytecode.Jump, 100)

	if _, err := Load(b.bytes(), nil); err == nil {
		t.Fatalf("expected error for out-of-range jump target")
	}
}

func TestLoadInvalidCallMissingOperands(t *testing.T) {
	b := newBuilder()
	b.header(0, 1, 1)
	b.function(0, 0, 0, 0, bytecode.TypeVoid, nil)
	b.instr(bytecode.Call)

	if _, err := Load(b.bytes(), nil); err == nil {
		t.Fatalf("expected error for CALL missing operands")
	}
}

func TestLoadInvalidOpcode(t *testing.T) {
	b := newBuilder()
	b.header(0, 0, 1)
	b.u8(0xFF)
	b.u8(0)

	_, err := Load(b.bytes(), nil)
	if err == nil {
		t.Fatalf("expected error for invalid opcode")
	}
	if !errors.Is(err, ErrInvalidOpcode) {
		t.Fatalf("expected errors.Is to match ErrInvalidOpcode, got %v", err)
	}
}

func TestLoadInvalidFunctionNameIndex(t *testing.T) {
	b := newBuilder()
	b.header(0, 1, 0)
	b.function(7, 0, 0, 0, bytecode.TypeVoid, nil)

	if _, err := Load(b.bytes(), nil); err == nil {
		t.Fatalf("expected error for out-of-range function name index")
	}
}
