package vm

import "fmt"

// RuntimeError is a Lox-level failure raised while executing a chunk:
// a type mismatch, an undefined variable, or similar. It carries the
// source line the failing instruction came from so the CLI can print
// a Crafting-Interpreters-style trailer under the message.
type RuntimeError struct {
	Message string
	Line    int
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s\n[line %d] in script", e.Message, e.Line)
}
