package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nilan/compiler"
	"nilan/debug"
	"nilan/gc"
	"nilan/lexer"
	"nilan/token"
)

// runToolCLI dispatches the "tool" subcommand tree via
// google/subcommands, the same library the teacher wired for its own
// run/repl/emit commands. Everything under "tool" is introspection,
// scanning and disassembly, the role cmd_emit_bytecode.go played
// against the old AST compiler, now split into two focused commands
// instead of one flag-laden one.
func runToolCLI() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&tokensCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	// subcommands.Execute expects the subcommand name at os.Args[1];
	// drop the leading "tool" so "loxvm tool tokens foo.lox" dispatches
	// the same way "loxvm tokens foo.lox" would.
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
	flag.CommandLine.Parse(os.Args[1:])
	os.Exit(int(subcommands.Execute(context.Background())))
}

// tokensCmd prints the token stream for a source file, one token per
// line, in scanner order.
type tokensCmd struct{}

func (*tokensCmd) Name() string     { return "tokens" }
func (*tokensCmd) Synopsis() string { return "print the token stream for a source file" }
func (*tokensCmd) Usage() string {
	return `tokens <file>:
  Scan a Lox source file and print its tokens.
`
}
func (*tokensCmd) SetFlags(f *flag.FlagSet) {}

func (*tokensCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 could not read file: %v\n", err)
		return subcommands.ExitFailure
	}

	lex := lexer.New(string(data))
	for {
		tok := lex.ScanToken()
		fmt.Printf("%-4d %-12s %q\n", tok.Line, tok.TokenType, tok.Lexeme)
		if tok.TokenType == token.EOF {
			break
		}
	}
	return subcommands.ExitSuccess
}

// disasmCmd compiles a source file and prints its disassembled chunk,
// the introspection half of what the teacher's -diassemble flag did
// against the AST compiler's bytecode dump.
type disasmCmd struct{}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "compile a source file and print its bytecode" }
func (*disasmCmd) Usage() string {
	return `disasm <file>:
  Compile a Lox source file and disassemble the resulting chunk.
`
}
func (*disasmCmd) SetFlags(f *flag.FlagSet) {}

func (*disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "💥 file not provided")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 could not read file: %v\n", err)
		return subcommands.ExitFailure
	}

	active := gc.Acquire()
	defer active.Release()

	c, err := compiler.Compile(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 compile error:\n%v\n", err)
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	debug.DisassembleChunk(&buf, c, args[0])
	fmt.Print(buf.String())
	return subcommands.ExitSuccess
}
