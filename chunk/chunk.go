// Package chunk is the compiled output of the compiler and the input
// to the VM: a flat byte sequence of opcodes and operands, a parallel
// line table for error reporting, and a constant pool.
//
// Grounded on the original implementation's Chunk/OpCode (chunk.rs),
// widened from its two-opcode snapshot to the full instruction set
// this language version needs, and kept at one-byte operands rather
// than the tree-walking interpreter's two-byte scheme, 256 constants
// and 256 locals is plenty for a language with no functions yet.
package chunk

import "nilan/value"

// OpCode identifies a single VM instruction. Most opcodes are followed
// by zero or one single-byte operand; see the comment on each constant.
type OpCode byte

const (
	// Constant pushes constants[operand] onto the stack. One operand.
	Constant OpCode = iota
	// Nil pushes the nil value. No operand.
	Nil
	// True pushes true. No operand.
	True
	// False pushes false. No operand.
	False
	// Pop discards the top of the stack. No operand.
	Pop
	// GetLocal pushes a copy of stack slot operand. One operand.
	GetLocal
	// SetLocal overwrites stack slot operand with the stack top,
	// without popping. One operand.
	SetLocal
	// GetGlobal reads the global named by constants[operand] and
	// pushes it. One operand.
	GetGlobal
	// DefineGlobal binds the global named by constants[operand] to
	// the stack top, then pops it. One operand.
	DefineGlobal
	// SetGlobal overwrites an already-defined global named by
	// constants[operand] with the stack top, without popping. One
	// operand.
	SetGlobal
	// Equal pops b, a and pushes a == b. No operand.
	Equal
	// Greater pops b, a and pushes a > b. No operand.
	Greater
	// Less pops b, a and pushes a < b. No operand.
	Less
	// Add pops b, a and pushes a + b (numeric addition or string
	// concatenation). No operand.
	Add
	// Subtract pops b, a and pushes a - b. No operand.
	Subtract
	// Multiply pops b, a and pushes a * b. No operand.
	Multiply
	// Divide pops b, a and pushes a / b. No operand.
	Divide
	// Not pops a and pushes its logical negation. No operand.
	Not
	// Negate pops a and pushes its arithmetic negation. No operand.
	Negate
	// Print pops and prints the stack top. No operand.
	Print
	// Return ends execution of the current chunk. No operand.
	Return
)

var opNames = map[OpCode]string{
	Constant:     "OP_CONSTANT",
	Nil:          "OP_NIL",
	True:         "OP_TRUE",
	False:        "OP_FALSE",
	Pop:          "OP_POP",
	GetLocal:     "OP_GET_LOCAL",
	SetLocal:     "OP_SET_LOCAL",
	GetGlobal:    "OP_GET_GLOBAL",
	DefineGlobal: "OP_DEFINE_GLOBAL",
	SetGlobal:    "OP_SET_GLOBAL",
	Equal:        "OP_EQUAL",
	Greater:      "OP_GREATER",
	Less:         "OP_LESS",
	Add:          "OP_ADD",
	Subtract:     "OP_SUBTRACT",
	Multiply:     "OP_MULTIPLY",
	Divide:       "OP_DIVIDE",
	Not:          "OP_NOT",
	Negate:       "OP_NEGATE",
	Print:        "OP_PRINT",
	Return:       "OP_RETURN",
}

// String returns the opcode's mnemonic, e.g. "OP_CONSTANT".
func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return "OP_UNKNOWN"
}

// HasOperand reports whether op is followed by a one-byte operand.
func (op OpCode) HasOperand() bool {
	switch op {
	case Constant, GetLocal, SetLocal, GetGlobal, DefineGlobal, SetGlobal:
		return true
	default:
		return false
	}
}

// maxConstants is the largest number of entries the constant pool can
// hold, dictated by the one-byte operand width.
const maxConstants = 256

// Chunk is a unit of compiled bytecode: code, a same-length line table
// and a constant pool.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []value.Value
}

// New returns an empty Chunk.
func New() *Chunk {
	return &Chunk{}
}

// OpHandle refers to the opcode byte most recently written by
// WriteOpcode, so its caller can attach exactly one operand byte. It
// exists to make "this opcode takes an operand" a compile-time shape
// in the compiler rather than a manually tracked index.
type OpHandle struct {
	chunk *Chunk
	used  bool
}

// WriteOpcode appends op at line and returns a handle for writing its
// operand, if it has one. Forgetting to call WriteOperand on an opcode
// that needs one leaves a malformed chunk, the compiler is
// responsible for calling it exactly when HasOperand is true.
func (c *Chunk) WriteOpcode(op OpCode, line int) *OpHandle {
	c.Code = append(c.Code, byte(op))
	c.Lines = append(c.Lines, line)
	return &OpHandle{chunk: c}
}

// WriteOperand appends a single operand byte for the instruction this
// handle refers to, at the same line as the opcode. WriteOperand
// panics if called more than once for the same handle, since every
// opcode in this instruction set takes at most one operand byte.
func (h *OpHandle) WriteOperand(operand byte) {
	if h.used {
		panic("chunk: WriteOperand called twice for the same instruction")
	}
	h.used = true
	line := h.chunk.Lines[len(h.chunk.Lines)-1]
	h.chunk.Code = append(h.chunk.Code, operand)
	h.chunk.Lines = append(h.chunk.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// The bool result is false if the pool is already full (256 entries),
// in which case the index is meaningless and the caller should report
// a compile error rather than emit it.
func (c *Chunk) AddConstant(v value.Value) (int, bool) {
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, true
}

// ByteView is a read-only window onto one byte of Code (an opcode or
// an operand), used by the VM and disassembler to interpret a byte at a given
// offset without indexing into Code and Constants directly.
type ByteView struct {
	chunk  *Chunk
	offset int
}

// Get returns a ByteView onto the byte at offset. The bool result is
// false if offset is out of range.
func (c *Chunk) Get(offset int) (ByteView, bool) {
	if offset < 0 || offset >= len(c.Code) {
		return ByteView{}, false
	}
	return ByteView{chunk: c, offset: offset}, true
}

// AsOpcode interprets the byte as an OpCode.
func (b ByteView) AsOpcode() OpCode {
	return OpCode(b.chunk.Code[b.offset])
}

// AsIndex interprets the byte as a raw operand/constant-pool index.
func (b ByteView) AsIndex() int {
	return int(b.chunk.Code[b.offset])
}

// ResolveConstant interprets the byte as an index into the chunk's
// constant pool and returns the value there. The bool result is false
// if the index is out of range.
func (b ByteView) ResolveConstant() (value.Value, bool) {
	idx := b.AsIndex()
	if idx < 0 || idx >= len(b.chunk.Constants) {
		return value.Value{}, false
	}
	return b.chunk.Constants[idx], true
}

// LineFor reports the source line the instruction at offset came
// from. The bool result is false if offset is out of range.
func (c *Chunk) LineFor(offset int) (int, bool) {
	if offset < 0 || offset >= len(c.Lines) {
		return 0, false
	}
	return c.Lines[offset], true
}
