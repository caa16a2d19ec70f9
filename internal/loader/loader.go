// Package loader decodes a *.frogc binary module and structurally
// validates it before the interpreter ever sees it — bad magic, a
// truncated stream, an out-of-range constant/function/jump index all
// fail here, never mid-execution. See bytecode.Module for the decoded
// shape and the wire format this package implements.
package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"frog/internal/bytecode"
	"frog/internal/modcache"
)

var magic = [4]byte{'F', 'R', 'O', 'G'}

const wireVersion = uint16(1)

// Sentinel kinds every LoadError wraps, letting callers classify a
// decode or validation failure with errors.Is instead of string
// matching.
var (
	ErrBadMagic           = fmt.Errorf("bad magic")
	ErrUnsupportedVersion = fmt.Errorf("unsupported version")
	ErrTruncated          = fmt.Errorf("unexpected end of file")
	ErrInvalidIndex       = fmt.Errorf("invalid index")
	ErrInvalidOpcode      = fmt.Errorf("invalid opcode")
	ErrInvalidTag         = fmt.Errorf("invalid tag")
	ErrIO                 = fmt.Errorf("io error")
)

// LoadError is returned for every failure raised while decoding or
// validating a module. All load failures are detected before execution
// begins, per the engine's error-handling design. Unwrap exposes one
// of the sentinel kinds above.
type LoadError struct {
	kind error
	msg  string
}

func (e *LoadError) Error() string { return e.msg }
func (e *LoadError) Unwrap() error { return e.kind }

func loadErrorf(format string, args ...any) *LoadError {
	return loadErrorKind(ErrInvalidIndex, format, args...)
}

func loadErrorKind(kind error, format string, args ...any) *LoadError {
	return &LoadError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// LoadFile reads and decodes the module at path. store, if non-nil, is
// consulted by content hash to skip a redundant structural-validation
// pass on an exact repeat load; a nil store (or one that fails to open)
// simply disables the optimization and never affects the result.
func LoadFile(path string, store *modcache.Store) (*bytecode.Module, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, loadErrorKind(ErrIO, "cannot open file: %v", err)
	}
	return Load(raw, store)
}

// Load decodes raw *.frogc bytes into a validated Module.
func Load(raw []byte, store *modcache.Store) (*bytecode.Module, error) {
	hash := sha256.Sum256(raw)

	r := bytes.NewReader(raw)

	var gotMagic [4]byte
	if err := readExact(r, gotMagic[:]); err != nil {
		return nil, loadErrorKind(ErrBadMagic, "bad magic: %v", err)
	}
	if gotMagic != magic {
		return nil, loadErrorKind(ErrBadMagic, "bad magic")
	}

	version, err := readU16(r)
	if err != nil {
		return nil, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	if version != wireVersion {
		return nil, loadErrorKind(ErrUnsupportedVersion, "unsupported version: %d", version)
	}

	constCount, err := readU32(r)
	if err != nil {
		return nil, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	funcCount, err := readU32(r)
	if err != nil {
		return nil, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	codeSize, err := readU32(r)
	if err != nil {
		return nil, loadErrorKind(ErrTruncated, "unexpected end of file")
	}

	m := &bytecode.Module{
		ConstPool: make([]bytecode.Constant, 0, constCount),
		Functions: make([]bytecode.FunctionInfo, 0, funcCount),
		Code:      make([]bytecode.Instruction, 0, codeSize),
	}

	for i := uint32(0); i < constCount; i++ {
		c, err := readConstant(r)
		if err != nil {
			return nil, err
		}
		m.ConstPool = append(m.ConstPool, c)
	}

	for i := uint32(0); i < funcCount; i++ {
		f, err := readFunction(r)
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, f)
	}

	for i := uint32(0); i < codeSize; i++ {
		ins, err := readInstruction(r)
		if err != nil {
			return nil, err
		}
		m.Code = append(m.Code, ins)
	}

	if store != nil && store.HasValidated(hash) {
		return m, nil
	}

	if err := validate(m); err != nil {
		return nil, err
	}

	if store != nil {
		store.MarkValidated(hash)
	}

	return m, nil
}

func validate(m *bytecode.Module) error {
	constCount := len(m.ConstPool)
	funcCount := len(m.Functions)
	codeSize := len(m.Code)

	for ip, ins := range m.Code {
		switch ins.Op {
		case bytecode.PushConst, bytecode.LoadGlobal, bytecode.StoreGlobal:
			if !ins.HasA || int(ins.A) >= constCount {
				return loadErrorf("invalid const index at ip=%d for %s", ip, ins.Op)
			}
		case bytecode.Call:
			if !ins.HasA || !ins.HasB || int(ins.A) >= funcCount {
				return loadErrorf("invalid func index at ip=%d for CALL", ip)
			}
		case bytecode.Jump, bytecode.JumpFalse:
			if !ins.HasA || int(ins.A) >= codeSize {
				return loadErrorf("invalid jump target at ip=%d for %s", ip, ins.Op)
			}
		}
		if int(ins.Op) > int(bytecode.MaxOpCode) {
			return loadErrorKind(ErrInvalidOpcode, "invalid opcode at ip=%d", ip)
		}
	}

	for i, f := range m.Functions {
		if int(f.NameConstIndex) >= constCount {
			return loadErrorf("function %d: nameConstIndex out of range", i)
		}
	}

	return nil
}

func readConstant(r *bytes.Reader) (bytecode.Constant, error) {
	tagByte, err := readU8(r)
	if err != nil {
		return bytecode.Constant{}, loadErrorKind(ErrTruncated, "unexpected end of file")
	}

	tag := bytecode.ConstTag(tagByte)
	c := bytecode.Constant{Tag: tag}

	switch tag {
	case bytecode.ConstInt:
		v, err := readU32(r)
		if err != nil {
			return bytecode.Constant{}, loadErrorKind(ErrTruncated, "unexpected end of file")
		}
		c.Int = int32(v)
	case bytecode.ConstFloat:
		v, err := readF64(r)
		if err != nil {
			return bytecode.Constant{}, loadErrorKind(ErrTruncated, "unexpected end of file")
		}
		c.Float = v
	case bytecode.ConstBool:
		v, err := readU8(r)
		if err != nil {
			return bytecode.Constant{}, loadErrorKind(ErrTruncated, "unexpected end of file")
		}
		c.Bool = v != 0
	case bytecode.ConstString:
		s, err := readString(r)
		if err != nil {
			return bytecode.Constant{}, err
		}
		c.String = s
	default:
		return bytecode.Constant{}, loadErrorKind(ErrInvalidTag, "invalid const tag: %d", tagByte)
	}

	return c, nil
}

func readFunction(r *bytes.Reader) (bytecode.FunctionInfo, error) {
	var f bytecode.FunctionInfo
	var err error

	if f.NameConstIndex, err = readU32(r); err != nil {
		return f, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	paramCount, err := readU16(r)
	if err != nil {
		return f, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	f.ParamCount = paramCount
	if f.LocalCount, err = readU16(r); err != nil {
		return f, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	if f.EntryIP, err = readU32(r); err != nil {
		return f, loadErrorKind(ErrTruncated, "unexpected end of file")
	}

	retByte, err := readU8(r)
	if err != nil {
		return f, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	f.ReturnType, err = typeTagFromByte(retByte)
	if err != nil {
		return f, err
	}

	f.ParamTypes = make([]bytecode.TypeTag, 0, paramCount)
	for i := uint16(0); i < paramCount; i++ {
		pt, err := readU8(r)
		if err != nil {
			return f, loadErrorKind(ErrTruncated, "unexpected end of file")
		}
		tag, err := typeTagFromByte(pt)
		if err != nil {
			return f, err
		}
		f.ParamTypes = append(f.ParamTypes, tag)
	}

	return f, nil
}

func readInstruction(r *bytes.Reader) (bytecode.Instruction, error) {
	var ins bytecode.Instruction

	opByte, err := readU8(r)
	if err != nil {
		return ins, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	if opByte > byte(bytecode.MaxOpCode) {
		return ins, loadErrorKind(ErrInvalidOpcode, "invalid opcode: %d", opByte)
	}
	ins.Op = bytecode.OpCode(opByte)

	flags, err := readU8(r)
	if err != nil {
		return ins, loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	ins.HasA = flags&1 != 0
	ins.HasB = flags&2 != 0

	if ins.HasA {
		if ins.A, err = readU32(r); err != nil {
			return ins, loadErrorKind(ErrTruncated, "unexpected end of file")
		}
	}
	if ins.HasB {
		if ins.B, err = readU16(r); err != nil {
			return ins, loadErrorKind(ErrTruncated, "unexpected end of file")
		}
	}

	return ins, nil
}

func typeTagFromByte(v byte) (bytecode.TypeTag, error) {
	switch v {
	case 1, 2, 3, 4, 5, 6:
		return bytecode.TypeTag(v), nil
	default:
		return 0, loadErrorKind(ErrInvalidTag, "invalid type tag: %d", v)
	}
}

func readExact(r *bytes.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return err
}

func readU8(r *bytes.Reader) (byte, error) {
	var buf [1]byte
	if err := readExact(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readU16(r *bytes.Reader) (uint16, error) {
	var buf [2]byte
	if err := readExact(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var buf [4]byte
	if err := readExact(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readF64(r *bytes.Reader) (float64, error) {
	var buf [8]byte
	if err := readExact(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", loadErrorKind(ErrTruncated, "unexpected end of file")
	}
	buf := make([]byte, n)
	if n > 0 {
		if err := readExact(r, buf); err != nil {
			return "", loadErrorKind(ErrTruncated, "unexpected end of file")
		}
	}
	return string(buf), nil
}
