package main

import (
	"fmt"
	"os"
)

// main implements Lox's standard three-way CLI contract: no arguments
// starts a REPL, one argument runs that file, and anything else is a
// usage error. Exit codes follow sysexits.h, the same convention the
// teacher's compiled commands used for compile/runtime failures:
// 64 (EX_USAGE) for a bad invocation, 65/70 via lox.ExitCode, 74
// (EX_IOERR) when the script can't even be read.
//
// A leading "tool" argument is carved out before this dispatch and
// handed to a small subcommands.Execute-based CLI (see cmd_tool.go)
// for scanner/disassembler introspection, the role cmd_emit_bytecode.go
// played against the old AST compiler.
func main() {
	if len(os.Args) > 1 && os.Args[1] == "tool" {
		runToolCLI()
		return
	}

	switch len(os.Args) {
	case 1:
		runREPL()
	case 2:
		os.Exit(runFile(os.Args[1]))
	default:
		fmt.Fprintln(os.Stderr, "Usage: loxvm [script]")
		os.Exit(64)
	}
}
