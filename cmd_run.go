package main

import (
	"fmt"
	"os"

	"nilan/lox"
	"nilan/vm"
)

// runFile reads path, interprets it against a fresh VM, and returns the
// process exit code the caller should use. I/O failures reading the
// script map to 74 (EX_IOERR); compile and runtime failures map to
// lox.ExitCode's 65/70.
func runFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 could not read file: %v\n", err)
		return 74
	}

	machine := vm.New()
	err = lox.Interpret(string(data), machine)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return lox.ExitCode(err)
}
