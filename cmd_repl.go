package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"nilan/lexer"
	"nilan/lox"
	"nilan/token"
	"nilan/vm"
)

// runREPL starts an interactive session on stdin/stdout, using
// chzyer/readline for line editing and history the way a real terminal
// program gets it, rather than the teacher's bare bufio.Scanner loop.
// One VM lives for the whole session so globals defined on one line are
// visible on the next, the same lifetime cmd_repl_compiled.go relied on.
func runREPL() {
	rl, err := readline.New("> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 could not start REPL: %v\n", err)
		os.Exit(74)
	}
	defer rl.Close()

	machine := vm.New()
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt("> ")
		} else {
			rl.SetPrompt(". ")
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				buffer.Reset()
				continue
			}
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "💥 %v\n", err)
			return
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		if !isInputReady(source) {
			continue
		}

		if err := lox.Interpret(source, machine); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buffer.Reset()
	}
}

// isInputReady reports whether source has balanced braces and is ready
// to compile, the same brace-balance half of cmd_repl_compiled.go's
// isInputReady check. The trailing-operator half doesn't carry over:
// this language subset has no statements that legally end a line on an
// operator or keyword (no if/while/for, no "and"/"or" short-circuit
// expressions spanning a block), so an unbalanced '{' is the only case
// worth waiting on more input for.
func isInputReady(source string) bool {
	lex := lexer.New(source)
	depth := 0
	for {
		tok := lex.ScanToken()
		if tok.TokenType == token.EOF {
			break
		}
		switch tok.TokenType {
		case token.LCUR:
			depth++
		case token.RCUR:
			depth--
		}
	}
	return depth <= 0
}
