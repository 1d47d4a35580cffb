// Package debug renders a Chunk's bytecode as human-readable
// disassembly, grounded on the original implementation's
// disassemble_chunk/disassemble_instruction (debug.rs), generalized
// from its two-opcode snapshot to the full instruction set and to
// operand kinds beyond "constant" (locals, globals).
package debug

import (
	"fmt"
	"io"

	"nilan/chunk"
)

// DisassembleChunk writes a labeled disassembly of every instruction
// in c to w.
func DisassembleChunk(w io.Writer, c *chunk.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = DisassembleInstruction(w, c, offset)
	}
}

// DisassembleInstruction writes a one-line disassembly of the
// instruction at offset and returns the offset of the instruction
// following it.
func DisassembleInstruction(w io.Writer, c *chunk.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)

	line, _ := c.LineFor(offset)
	if offset > 0 {
		if prevLine, ok := c.LineFor(offset - 1); ok && prevLine == line {
			fmt.Fprint(w, "   | ")
		} else {
			fmt.Fprintf(w, "%4d ", line)
		}
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	view, ok := c.Get(offset)
	if !ok {
		fmt.Fprintln(w, "invalid chunk offset")
		return offset + 1
	}
	op := view.AsOpcode()

	if !op.HasOperand() {
		return simpleInstruction(w, op, offset)
	}

	switch op {
	case chunk.GetGlobal, chunk.DefineGlobal, chunk.SetGlobal:
		return constantInstruction(w, op, c, offset)
	case chunk.Constant:
		return constantInstruction(w, op, c, offset)
	default:
		return byteInstruction(w, op, c, offset)
	}
}

func simpleInstruction(w io.Writer, op chunk.OpCode, offset int) int {
	fmt.Fprintf(w, "%-16s\n", op)
	return offset + 1
}

func byteInstruction(w io.Writer, op chunk.OpCode, c *chunk.Chunk, offset int) int {
	view, _ := c.Get(offset + 1)
	slot := view.AsIndex()
	fmt.Fprintf(w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func constantInstruction(w io.Writer, op chunk.OpCode, c *chunk.Chunk, offset int) int {
	view, _ := c.Get(offset + 1)
	idx := view.AsIndex()
	val, ok := view.ResolveConstant()
	if !ok {
		fmt.Fprintf(w, "%-16s %4d 'invalid constant'\n", op, idx)
		return offset + 2
	}
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op, idx, val)
	return offset + 2
}
