// Package vm is the stack-based runtime that executes compiled Lox
// chunks, grounded on the teacher's VM{stack, ip, debug} shape and
// fetch-decode-execute loop, generalized from its two-opcode OP_END/
// OP_CONSTANT switch to the full instruction set, and from []any to
// value.Value throughout.
package vm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"nilan/chunk"
	"nilan/debug"
	"nilan/gc"
	"nilan/value"
)

// initialStackCapacity is a cheap preallocation; the VM still grows
// past it for deeply nested expressions, it just avoids the first
// handful of reallocations for the common case.
const initialStackCapacity = 256

// VM is a stack-based virtual machine for executing a compiled Chunk.
// One VM can run many chunks in sequence, Run resets the instruction
// pointer on every call but keeps the stack and globals map, the same
// REPL-friendly lifetime the teacher's cmd_repl_compiled.go relies on.
type VM struct {
	chunk *chunk.Chunk
	ip    int

	stack   Stack
	globals map[string]value.Value
}

// New returns a VM with an empty operand stack and global table.
func New() *VM {
	return &VM{
		stack:   make(Stack, 0, initialStackCapacity),
		globals: make(map[string]value.Value),
	}
}

// Run executes c from its first instruction. It returns a
// RuntimeError if execution fails, or nil once an OP_RETURN is
// reached. Globals and any locals left on the stack from a prior Run
// persist, so a REPL can build on bindings from earlier input.
func (vm *VM) Run(c *chunk.Chunk) error {
	vm.chunk = c
	vm.ip = 0

	for {
		if debug.TraceEnabled {
			vm.trace()
		}

		view, ok := vm.chunk.Get(vm.ip)
		if !ok {
			return nil
		}
		op := view.AsOpcode()
		vm.ip++

		switch op {
		case chunk.Constant:
			val, ok := vm.readConstant()
			if !ok {
				return vm.runtimeError("malformed constant reference")
			}
			vm.push(val)

		case chunk.Nil:
			vm.push(value.Nil)
		case chunk.True:
			vm.push(value.Bool(true))
		case chunk.False:
			vm.push(value.Bool(false))

		case chunk.Pop:
			vm.pop()

		case chunk.GetLocal:
			slot := vm.readByte()
			if int(slot) >= len(vm.stack) {
				return vm.runtimeError("invalid local slot %d", slot)
			}
			vm.push(vm.stack[slot])

		case chunk.SetLocal:
			slot := vm.readByte()
			top, ok := vm.stack.Peek(0)
			if !ok {
				return vm.runtimeError("stack underflow in OP_SET_LOCAL")
			}
			if int(slot) >= len(vm.stack) {
				return vm.runtimeError("invalid local slot %d", slot)
			}
			vm.stack[slot] = top

		case chunk.GetGlobal:
			name, ok := vm.readConstant()
			if !ok {
				return vm.runtimeError("malformed global reference")
			}
			v, ok := vm.globals[name.AsString()]
			if !ok {
				return vm.runtimeError("undefined global variable: %s", name.AsString())
			}
			vm.push(v)

		case chunk.DefineGlobal:
			name, ok := vm.readConstant()
			if !ok {
				return vm.runtimeError("malformed global reference")
			}
			v, ok := vm.pop()
			if !ok {
				return vm.runtimeError("stack underflow in OP_DEFINE_GLOBAL")
			}
			vm.globals[name.AsString()] = v

		case chunk.SetGlobal:
			name, ok := vm.readConstant()
			if !ok {
				return vm.runtimeError("malformed global reference")
			}
			if _, defined := vm.globals[name.AsString()]; !defined {
				return vm.runtimeError("Undefined variable: '%s'", name.AsString())
			}
			top, ok := vm.stack.Peek(0)
			if !ok {
				return vm.runtimeError("stack underflow in OP_SET_GLOBAL")
			}
			vm.globals[name.AsString()] = top

		case chunk.Equal:
			b, bOk := vm.pop()
			a, aOk := vm.pop()
			if !aOk || !bOk {
				return vm.runtimeError("stack underflow in OP_EQUAL")
			}
			vm.push(value.Bool(a.Equal(b)))

		case chunk.Greater:
			if err := vm.numericComparison(func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case chunk.Less:
			if err := vm.numericComparison(func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case chunk.Add:
			if err := vm.add(); err != nil {
				return err
			}
		case chunk.Subtract:
			if err := vm.numericArithmetic(func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case chunk.Multiply:
			if err := vm.numericArithmetic(func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case chunk.Divide:
			if err := vm.numericArithmetic(func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case chunk.Not:
			v, ok := vm.pop()
			if !ok {
				return vm.runtimeError("stack underflow in OP_NOT")
			}
			vm.push(value.Bool(v.Falsy()))

		case chunk.Negate:
			v, ok := vm.stack.Peek(0)
			if !ok {
				return vm.runtimeError("stack underflow in OP_NEGATE")
			}
			if !v.IsNumber() {
				return vm.runtimeError("Operand must be a number")
			}
			vm.pop()
			vm.push(value.Number(-v.AsNumber()))

		case chunk.Print:
			v, ok := vm.pop()
			if !ok {
				return vm.runtimeError("stack underflow in OP_PRINT")
			}
			fmt.Println(v.String())

		case chunk.Return:
			return nil

		default:
			return vm.runtimeError("unknown opcode %s", op)
		}
	}
}

func (vm *VM) push(v value.Value) {
	vm.stack.Push(v)
}

func (vm *VM) pop() (value.Value, bool) {
	return vm.stack.Pop()
}

func (vm *VM) readByte() byte {
	view, _ := vm.chunk.Get(vm.ip)
	b := byte(view.AsIndex())
	vm.ip++
	return b
}

func (vm *VM) readConstant() (value.Value, bool) {
	view, ok := vm.chunk.Get(vm.ip)
	vm.ip++
	if !ok {
		return value.Value{}, false
	}
	return view.ResolveConstant()
}

func (vm *VM) numericArithmetic(op func(a, b float64) float64) error {
	b, a, ok := vm.popNumericPair()
	if !ok {
		return vm.runtimeError("Operands must be numbers")
	}
	vm.push(value.Number(op(a, b)))
	return nil
}

func (vm *VM) numericComparison(op func(a, b float64) bool) error {
	b, a, ok := vm.popNumericPair()
	if !ok {
		return vm.runtimeError("Operands must be numbers")
	}
	vm.push(value.Bool(op(a, b)))
	return nil
}

func (vm *VM) popNumericPair() (b, a float64, ok bool) {
	bv, bOk := vm.stack.Peek(0)
	av, aOk := vm.stack.Peek(1)
	if !aOk || !bOk || !av.IsNumber() || !bv.IsNumber() {
		return 0, 0, false
	}
	vm.pop()
	vm.pop()
	return bv.AsNumber(), av.AsNumber(), true
}

// add implements OP_ADD's dual meaning: numeric addition when both
// operands are numbers, string concatenation when both are strings.
// Mixed operand kinds are a runtime error rather than an implicit
// coercion.
func (vm *VM) add() error {
	bv, bOk := vm.stack.Peek(0)
	av, aOk := vm.stack.Peek(1)
	if !aOk || !bOk {
		return vm.runtimeError("Can only add numbers or strings")
	}

	switch {
	case av.IsNumber() && bv.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(av.AsNumber() + bv.AsNumber()))
	case av.IsString() && bv.IsString():
		vm.pop()
		vm.pop()
		vm.push(value.String(gc.Store(av.AsString() + bv.AsString())))
	default:
		return vm.runtimeError("Can only add numbers or strings")
	}
	return nil
}

func (vm *VM) runtimeError(format string, args ...any) error {
	line, _ := vm.chunk.LineFor(vm.ip - 1)
	return RuntimeError{Message: fmt.Sprintf(format, args...), Line: line}
}

// trace logs the current stack contents and the instruction about to
// execute, mirroring golox's vm.run() tracing via logrus.Debugln, both
// gated behind the debug package's build-tag flag rather than a
// runtime bool.
func (vm *VM) trace() {
	var parts []string
	for _, v := range vm.stack {
		parts = append(parts, fmt.Sprintf("[ %s ]", v))
	}
	logrus.Debugln(strings.Join(parts, ""))

	var buf bytes.Buffer
	debug.DisassembleInstruction(&buf, vm.chunk, vm.ip)
	logrus.Debugln(strings.TrimRight(buf.String(), "\n"))
}
