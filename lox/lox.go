// Package lox wires the compiler and VM together behind the single
// entry point the CLI commands call, the same role the teacher's
// cmd_run.go/cmd_repl.go played directly against the tree-walking
// interpreter package before compilation became a separate pass.
package lox

import (
	"errors"

	"nilan/compiler"
	"nilan/gc"
	"nilan/vm"
)

// CompileError wraps a failure from the compile phase. Callers use
// errors.As to distinguish it from RuntimeError when deciding a
// process exit code.
type CompileError struct {
	err error
}

func (e *CompileError) Error() string {
	return e.err.Error()
}

func (e *CompileError) Unwrap() error {
	return e.err
}

// RuntimeError wraps a failure from the VM's execution phase.
type RuntimeError struct {
	err error
}

func (e *RuntimeError) Error() string {
	return e.err.Error()
}

func (e *RuntimeError) Unwrap() error {
	return e.err
}

// Interpret compiles and runs source against vm, a VM the caller owns
// so that a REPL can keep one VM (and its globals) alive across
// multiple calls. It installs and tears down a fresh string interner
// for the duration of the call.
//
// The returned error is nil on success, a *CompileError if compilation
// failed, or a *RuntimeError if the VM failed partway through
// execution.
func Interpret(source string, machine *vm.VM) error {
	active := gc.Acquire()
	defer active.Release()

	chunk, err := compiler.Compile(source)
	if err != nil {
		return &CompileError{err: err}
	}

	if err := machine.Run(chunk); err != nil {
		return &RuntimeError{err: err}
	}
	return nil
}

// IsCompileError reports whether err is (or wraps) a CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// IsRuntimeError reports whether err is (or wraps) a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// ExitCode maps an error returned by Interpret to the sysexits.h-style
// code the CLI uses: 65 (EX_DATAERR) for a compile failure, 70
// (EX_SOFTWARE) for a runtime failure, 0 for no error. Any other error
// (I/O failures reading the script, for instance) is the caller's to
// map.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsCompileError(err):
		return 65
	case IsRuntimeError(err):
		return 70
	default:
		return 1
	}
}
