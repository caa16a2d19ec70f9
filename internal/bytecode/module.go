package bytecode

// Constant is one entry of a module's constant pool. Exactly one of the
// fields is meaningful, selected by Tag.
type Constant struct {
	Tag    ConstTag
	Int    int32
	Float  float64
	Bool   bool
	String string
}

// FunctionInfo describes one function entry: its name (by constant-pool
// index), arity, locals, entry point, and signature. EntryIP equal to
// BuiltinEntryIP marks this as an engine-provided built-in rather than a
// bytecode function.
type FunctionInfo struct {
	NameConstIndex uint32
	ParamCount     uint16
	LocalCount     uint16
	EntryIP        uint32
	ReturnType     TypeTag
	ParamTypes     []TypeTag
}

// IsBuiltin reports whether this function is implemented by the engine.
func (f FunctionInfo) IsBuiltin() bool { return f.EntryIP == BuiltinEntryIP }

// Instruction is one decoded bytecode instruction. The A and B operands
// are only meaningful when the corresponding HasA/HasB flag is set.
type Instruction struct {
	Op   OpCode
	A    uint32
	B    uint16
	HasA bool
	HasB bool
}

// Module is the fully decoded, structurally validated in-memory form of
// a *.frogc file: an ordered constant pool, an ordered function table,
// and a flat instruction stream shared by every function and the
// top-level script.
type Module struct {
	ConstPool []Constant
	Functions []FunctionInfo
	Code      []Instruction
}
